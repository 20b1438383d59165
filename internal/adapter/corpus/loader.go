package corpus

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"chatrag/internal/domain"
	"chatrag/internal/port"
)

// Loader turns the records of a CorpusSource into messages. Values are copied
// verbatim: nothing is validated, repaired or de-duplicated.
type Loader struct {
	source port.CorpusSource
	logger *slog.Logger
}

func NewLoader(source port.CorpusSource, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{source: source, logger: logger}
}

// Load fetches every record once. Source errors are returned unchanged.
func (l *Loader) Load(ctx context.Context) ([]domain.Message, error) {
	start := time.Now()
	records, err := l.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, len(records))
	for i, rec := range records {
		messages[i] = ToMessage(rec)
	}

	l.logger.Info("corpus loaded",
		"source", l.source.Name(),
		"messages", len(messages),
		"duration", time.Since(start).Round(time.Millisecond))
	return messages, nil
}

var knownFields = map[string]bool{
	"id":        true,
	"message":   true,
	"text":      true,
	"user_id":   true,
	"user_name": true,
	"timestamp": true,
}

// ToMessage maps one record onto a Message. The body is read from "message",
// falling back to "text". Fields outside the message schema land in Metadata.
func ToMessage(rec port.RawRecord) domain.Message {
	msg := domain.Message{
		ID:        fieldString(rec["id"]),
		UserID:    fieldString(rec["user_id"]),
		UserName:  fieldString(rec["user_name"]),
		Timestamp: fieldString(rec["timestamp"]),
	}
	if body, ok := rec["message"]; ok {
		msg.Text = fieldString(body)
	} else {
		msg.Text = fieldString(rec["text"])
	}

	for k, raw := range rec {
		if knownFields[k] {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		if msg.Metadata == nil {
			msg.Metadata = make(map[string]any)
		}
		msg.Metadata[k] = v
	}
	return msg
}

// fieldString renders a JSON value as text: strings are unquoted, null and
// absent values are empty, anything else keeps its JSON form (so the id 1
// becomes "1").
func fieldString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
