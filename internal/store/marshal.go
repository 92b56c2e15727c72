package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/changeoracle/internal/canon"
	"github.com/roach88/changeoracle/internal/model"
	"github.com/roach88/changeoracle/internal/record"
	"github.com/roach88/changeoracle/internal/replay"
)

// marshalEvents converts a path's events to canonical JSON TEXT.
func marshalEvents(events []model.Event) (string, error) {
	names := make([]any, len(events))
	for i, e := range events {
		names[i] = string(e)
	}
	data, err := canon.Marshal(names)
	if err != nil {
		return "", fmt.Errorf("marshal events: %w", err)
	}
	return string(data), nil
}

// unmarshalEvents converts stored TEXT back to events.
func unmarshalEvents(s string) ([]model.Event, error) {
	var names []string
	if err := json.Unmarshal([]byte(s), &names); err != nil {
		return nil, fmt.Errorf("unmarshal events: %w", err)
	}
	out := make([]model.Event, len(names))
	for i, n := range names {
		out[i] = model.Event(n)
	}
	return out, nil
}

// marshalEmitted converts emitted events to canonical JSON TEXT. Canonical
// form keeps stored traces byte-identical for identical replays.
func marshalEmitted(emitted []replay.Emitted) (string, error) {
	items := make([]any, len(emitted))
	for i, e := range emitted {
		items[i] = map[string]any{"name": e.Name, "id": int(e.ID)}
	}
	data, err := canon.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("marshal emitted: %w", err)
	}
	return string(data), nil
}

// unmarshalEmitted converts stored TEXT back to emitted events. Returns nil
// for an empty list.
func unmarshalEmitted(s string) ([]replay.Emitted, error) {
	var items []struct {
		Name string `json:"name"`
		ID   int    `json:"id"`
	}
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, fmt.Errorf("unmarshal emitted: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]replay.Emitted, len(items))
	for i, it := range items {
		out[i] = replay.Emitted{Name: it.Name, ID: record.Ref(it.ID)}
	}
	return out, nil
}
