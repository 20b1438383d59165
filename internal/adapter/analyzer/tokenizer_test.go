package analyzer

import (
	"testing"
)

func TestTokenizer_Tokenize_WithStemming(t *testing.T) {
	tok := NewTokenizer(true)

	tokens := tok.Tokenize("Booking flights and dinner reservations")
	want := []string{"book", "flight", "dinner", "reserv"}
	if len(tokens) != len(want) {
		t.Fatalf("expected %v, got %v", want, tokens)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token %d: expected %q, got %q", i, want[i], tokens[i])
		}
	}
}

func TestTokenizer_Tokenize_WithoutStemming(t *testing.T) {
	tok := NewTokenizer(false)

	tokens := tok.Tokenize("running dogs are playing")
	if len(tokens) != 3 {
		t.Errorf("expected 3 tokens, got %d: %v", len(tokens), tokens)
	}
	if tokens[0] != "running" {
		t.Errorf("expected 'running' to remain unstemmed, got %v", tokens)
	}
}

func TestTokenizer_Possessive(t *testing.T) {
	tok := NewTokenizer(true)

	tokens := tok.Tokenize("When is Layla's trip?")
	if len(tokens) != 2 || tokens[0] != "layla" || tokens[1] != "trip" {
		t.Errorf("expected [layla trip], got %v", tokens)
	}
}

func TestTokenizer_StopwordRemoval(t *testing.T) {
	tok := NewTokenizer(false)

	tokens := tok.Tokenize("please book the table for me")
	for _, token := range tokens {
		switch token {
		case "please", "the", "for", "me":
			t.Errorf("stopword %q should be removed, got %v", token, tokens)
		}
	}
}

func TestTokenizer_ShortWordRemoval(t *testing.T) {
	tok := NewTokenizer(false)

	tokens := tok.Tokenize("a I go to")
	for _, token := range tokens {
		if len(token) < 2 {
			t.Errorf("short word should be removed: %s", token)
		}
	}
}

func TestTokenizer_Deterministic(t *testing.T) {
	tok := NewTokenizer(true)
	text := "organization nationalization relational conditional"

	first := tok.Tokenize(text)
	for i := 0; i < 50; i++ {
		again := tok.Tokenize(text)
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("run %d: token %d changed from %q to %q", i, j, first[j], again[j])
			}
		}
	}
}

func TestTokenizer_CountTokens(t *testing.T) {
	tok := NewTokenizer(false)

	count := tok.CountTokens("hello world this is a test")
	if count < 6 {
		t.Errorf("expected count >= 6 words, got %d", count)
	}
}

func TestTokenizer_EmptyInput(t *testing.T) {
	tok := NewTokenizer(true)

	if tokens := tok.Tokenize(""); len(tokens) != 0 {
		t.Errorf("expected 0 tokens for empty input, got %d", len(tokens))
	}
	if count := tok.CountTokens(""); count != 0 {
		t.Errorf("expected 0 count for empty input, got %d", count)
	}
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"hello world", 2},
		{"hello_world", 1},
		{"hello-world", 2},
		{"Layla's", 2},
		{"2024-05-01T10:00:00", 5},
		{"café ☕ tonight", 2},
		{"", 0},
	}

	for _, tt := range tests {
		words := splitWords(tt.input)
		if len(words) != tt.expected {
			t.Errorf("splitWords(%q) = %d words, want %d: %v", tt.input, len(words), tt.expected, words)
		}
	}
}

func TestPorterStemmer(t *testing.T) {
	s := NewPorterStemmer()
	tests := []struct {
		in, want string
	}{
		{"caresses", "caress"},
		{"ponies", "poni"},
		{"running", "run"},
		{"hopping", "hop"},
		{"relational", "relat"},
		{"conditional", "condit"},
		{"reservations", "reserv"},
		{"go", "go"},
	}
	for _, tt := range tests {
		if got := s.Stem(tt.in); got != tt.want {
			t.Errorf("Stem(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
