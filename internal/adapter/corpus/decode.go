package corpus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"chatrag/internal/port"
)

// page is the envelope the messages API and snapshot files share.
type page struct {
	Items json.RawMessage `json:"items"`
}

// decodeItems parses an {"items": [...]} envelope. A missing or non-list
// items field is an error.
func decodeItems(data []byte) ([]port.RawRecord, error) {
	var p page
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if len(p.Items) == 0 {
		return nil, errors.New("response has no items field")
	}
	return decodeList(p.Items)
}

// decodeSnapshot accepts either an envelope or a bare array of records.
func decodeSnapshot(data []byte) ([]port.RawRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return decodeList(trimmed)
	}
	return decodeItems(trimmed)
}

func decodeList(data json.RawMessage) ([]port.RawRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New("items is not a list")
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("invalid items list: %w", err)
	}

	records := make([]port.RawRecord, 0, len(raw))
	for i, item := range raw {
		var rec port.RawRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			return nil, fmt.Errorf("item %d is not an object: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
