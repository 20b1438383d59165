package port

// TokenCounter estimates how many LLM tokens a text occupies.
type TokenCounter interface {
	CountTokens(text string) int
}

type Tokenizer interface {
	Tokenize(text string) []string

	TokenCounter
}
