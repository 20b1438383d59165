package domain

import "errors"

// Sentinel errors of the retrieval core. Callers match them with errors.Is;
// producers wrap them with context via fmt.Errorf("%w: ...").
var (
	// ErrSourceUnavailable means the corpus fetch could not complete.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrModelUnavailable means the embedding model failed to load.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrInvalidArgument means a caller supplied malformed query parameters.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrLLMUnavailable means answer generation failed upstream.
	ErrLLMUnavailable = errors.New("llm unavailable")
)
