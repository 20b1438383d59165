package port

import (
	"context"
	"encoding/json"
)

// RawRecord is one message record as delivered by a corpus source.
// Any field may be absent or hold an unexpected JSON type.
type RawRecord map[string]json.RawMessage

// CorpusSource fetches the raw message corpus from an external system.
type CorpusSource interface {
	// Fetch returns every record in source order.
	Fetch(ctx context.Context) ([]RawRecord, error)

	// Name describes the source for logs.
	Name() string
}
