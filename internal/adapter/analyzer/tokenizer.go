package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer turns chat text into lowercase terms with optional stemming and
// stopword removal. It implements port.Tokenizer.
type Tokenizer struct {
	stemmer   *PorterStemmer
	stopwords map[string]struct{}
}

// NewTokenizer creates a new Tokenizer.
func NewTokenizer(useStemming bool) *Tokenizer {
	t := &Tokenizer{stopwords: defaultStopwords()}
	if useStemming {
		t.stemmer = NewPorterStemmer()
	}
	return t
}

// Tokenize splits text into terms. Single-letter fragments such as the "s"
// of a possessive are dropped.
func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(word)
		if len([]rune(word)) < 2 {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		if t.stemmer != nil {
			word = t.stemmer.Stem(word)
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// CountTokens returns an approximate LLM token count: about 1.3 tokens per word.
func (t *Tokenizer) CountTokens(text string) int {
	words := splitWords(text)
	if len(words) == 0 {
		return 0
	}
	return int(float64(len(words)) * 1.3)
}

// splitWords splits text on anything that is not a letter, digit or underscore.
func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "not", "you", "your", "we", "our",
		"they", "their", "she", "her", "his", "him", "if", "or", "so",
		"no", "can", "do", "does", "did", "been", "being", "would",
		"could", "should", "may", "might", "must", "shall", "which",
		"who", "whom", "what", "when", "where", "why", "how", "all",
		"each", "every", "both", "few", "more", "most", "other",
		"some", "such", "than", "too", "very", "just", "also",
		"me", "my", "us", "them", "am", "im", "please", "thanks", "hi", "hello",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
