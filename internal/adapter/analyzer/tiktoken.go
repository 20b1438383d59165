package analyzer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TiktokenCounter counts tokens with a BPE encoding, matching what
// OpenAI-compatible chat models are billed and limited on.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the named encoding, e.g. "cl100k_base".
// The encoding file is fetched on first use and cached by tiktoken-go.
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encoding, err)
	}
	return &TiktokenCounter{enc: enc}, nil
}

// CountTokens implements port.TokenCounter.
func (c *TiktokenCounter) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}
