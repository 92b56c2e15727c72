package filter

import (
	"github.com/roach88/changeoracle/internal/model"
	"github.com/roach88/changeoracle/internal/record"
)

// When lifts a Context predicate to a Target.
func When(cond record.Cond) Target {
	return func(s model.State) bool {
		return cond(s.Context)
	}
}

// In holds when the state has an active label at or under path.
func In(path string) Target {
	return func(s model.State) bool {
		return s.Matches(path)
	}
}

// Count returns the number of Changes in the state matching pattern.
func Count(pattern record.Patch) func(model.State) int {
	count := record.Count(pattern)
	return func(s model.State) int {
		return count(s.Context)
	}
}

// IsCount holds when exactly n Changes match pattern.
func IsCount(n int, pattern record.Patch) Target {
	count := Count(pattern)
	return func(s model.State) bool {
		return count(s) == n
	}
}

// Every holds when all targets hold.
func Every(targets ...Target) Target {
	preds := make([]func(model.State) bool, len(targets))
	for i, t := range targets {
		preds[i] = t
	}
	return record.All(preds...)
}
