// Package eventsource loads feed records from files and databases.
package eventsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/okian/fanpulse/internal/domain/model"
)

// Source yields a batch of feed records.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]model.RawEvent, error)
}

type envelope struct {
	Events []model.RawEvent `json:"events"`
}

// Document is a decoded feed document.
type Document struct {
	Events []model.RawEvent
	// Single is set when the document was one bare record rather than an
	// array or an envelope.
	Single bool
}

// Decode reads a feed document: a JSON array of records, an object with an
// "events" array, or a single record.
func Decode(r io.Reader) ([]model.RawEvent, error) {
	doc, err := DecodeDocument(r)
	if err != nil {
		return nil, err
	}
	return doc.Events, nil
}

// DecodeDocument is Decode that also reports the document shape.
func DecodeDocument(r io.Reader) (Document, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read feed: %w", err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Document{}, fmt.Errorf("%w: empty document", ErrFormat)
	}

	switch body[0] {
	case '[':
		var events []model.RawEvent
		if err := json.Unmarshal(body, &events); err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		return Document{Events: events}, nil
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		if _, ok := fields["events"]; ok {
			var env envelope
			if err := json.Unmarshal(body, &env); err != nil {
				return Document{}, fmt.Errorf("%w: %v", ErrFormat, err)
			}
			return Document{Events: env.Events}, nil
		}
		var ev model.RawEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		return Document{Events: []model.RawEvent{ev}, Single: true}, nil
	default:
		return Document{}, fmt.Errorf("%w: expected array or object", ErrFormat)
	}
}

// DecodePayloads decodes one record per payload. Payloads that are not a
// record are counted in skipped rather than failing the batch.
func DecodePayloads(payloads [][]byte) (events []model.RawEvent, skipped int) {
	events = make([]model.RawEvent, 0, len(payloads))
	for _, p := range payloads {
		var ev model.RawEvent
		if err := json.Unmarshal(p, &ev); err != nil {
			skipped++
			continue
		}
		events = append(events, ev)
	}
	return events, skipped
}
