package model

import (
	"sort"
	"strings"

	"github.com/roach88/changeoracle/internal/canon"
	"github.com/roach88/changeoracle/internal/record"
)

// State is one node of the machine: the actor region plus the Context. The
// stack and view configurations are derived once at construction.
type State struct {
	Actor   Actor
	Context record.Context

	stack []string
	view  []string
	key   string
}

func newState(actor Actor, ctx record.Context) State {
	s := State{
		Actor:   actor,
		Context: ctx,
		stack:   stackLabels(ctx),
		view:    viewLabels(ctx),
	}
	s.key = string(canon.MustMarshal(s.Canonical()))
	return s
}

// Labels returns every active leaf label, actor region first.
func (s State) Labels() []string {
	out := make([]string, 0, 1+len(s.stack)+len(s.view))
	out = append(out, RegionActor+"."+string(s.Actor))
	out = append(out, s.stack...)
	out = append(out, s.view...)
	return out
}

// RegionLabels returns the active leaves under one top-level region.
func (s State) RegionLabels(region string) []string {
	switch region {
	case RegionActor:
		return []string{RegionActor + "." + string(s.Actor)}
	case RegionStack:
		return append([]string(nil), s.stack...)
	case RegionView:
		return append([]string(nil), s.view...)
	}
	return nil
}

// Matches reports whether some active leaf equals path or lies under it.
// Matches("stack.open") holds in every open configuration.
func (s State) Matches(path string) bool {
	for _, l := range s.Labels() {
		if matchLabel(l, path) {
			return true
		}
	}
	return false
}

// Key is the canonical serialization of the state. Two states are the same
// node of the search graph exactly when their keys are equal.
func (s State) Key() string {
	return s.key
}

// ID is the content-addressed identifier of the state.
func (s State) ID() string {
	id, err := canon.StateID(s.Canonical())
	if err != nil {
		panic(err)
	}
	return id
}

// Canonical returns the state as plain values for canonical JSON.
func (s State) Canonical() map[string]any {
	return map[string]any{
		"actor":   string(s.Actor),
		"context": s.Context.Canonical(),
	}
}

// Configuration returns the actor and stack labels, sorted. It is the
// default equivalence class for path generation: view labels only describe
// what is observed.
func (s State) Configuration() string {
	labels := append([]string{RegionActor + "." + string(s.Actor)}, s.stack...)
	sort.Strings(labels)
	return strings.Join(labels, "|")
}
