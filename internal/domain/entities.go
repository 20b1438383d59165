package domain

// Message is one chat message of the corpus. Fields are copied verbatim
// from the source; Timestamp is opaque and may be empty or malformed.
type Message struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	UserID    string         `json:"user_id"`
	UserName  string         `json:"user_name"`
	Timestamp string         `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ScoredMessage pairs a corpus message with its similarity to a query.
// Message points into the loaded corpus slice and is never copied.
type ScoredMessage struct {
	Message  *Message
	Position int
	Score    float64
}

// QueryResult is ordered by descending score.
type QueryResult []ScoredMessage

// IDs returns the message identifiers in rank order.
func (r QueryResult) IDs() []string {
	ids := make([]string, len(r))
	for i, sm := range r {
		ids[i] = sm.Message.ID
	}
	return ids
}

// ContextLine is one retrieved message rendered for the prompt.
type ContextLine struct {
	MessageID string  `json:"message_id"`
	Timestamp string  `json:"timestamp"`
	UserName  string  `json:"user_name"`
	Text      string  `json:"text"`
	Score     float64 `json:"score"`
	Tokens    int     `json:"tokens"`
}

type PackedContext struct {
	Question     string        `json:"question"`
	BudgetTokens int           `json:"budget_tokens"`
	UsedTokens   int           `json:"used_tokens"`
	Lines        []ContextLine `json:"lines"`
	Dropped      int           `json:"dropped,omitempty"`
}

type Answer struct {
	Question string        `json:"question"`
	Text     string        `json:"answer"`
	Sources  []ContextLine `json:"sources"`
	Model    string        `json:"model"`
}

type Stats struct {
	Messages  int    `json:"messages"`
	Dimension int    `json:"dimension"`
	Model     string `json:"model"`
}
