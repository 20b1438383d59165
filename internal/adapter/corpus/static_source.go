package corpus

import (
	"context"
	"encoding/json"
	"fmt"

	"chatrag/internal/port"
)

// StaticSource serves a fixed set of records held in memory.
type StaticSource struct {
	records []port.RawRecord
}

func NewStaticSource(records []port.RawRecord) *StaticSource {
	return &StaticSource{records: records}
}

// NewStaticSourceJSON parses records from an envelope or bare JSON array.
func NewStaticSourceJSON(data []byte) (*StaticSource, error) {
	records, err := decodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse records: %w", err)
	}
	return &StaticSource{records: records}, nil
}

// MessagesSource converts plain maps into records, e.g. for tests.
func MessagesSource(items ...map[string]any) (*StaticSource, error) {
	records := make([]port.RawRecord, 0, len(items))
	for _, item := range items {
		rec := make(port.RawRecord, len(item))
		for k, v := range item {
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", k, err)
			}
			rec[k] = raw
		}
		records = append(records, rec)
	}
	return &StaticSource{records: records}, nil
}

func (s *StaticSource) Name() string {
	return "static"
}

func (s *StaticSource) Fetch(ctx context.Context) ([]port.RawRecord, error) {
	out := make([]port.RawRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}
