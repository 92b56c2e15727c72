// Package scenario loads path-generation scenarios from YAML.
//
// A scenario names a target, either as an expression over the reached state
// or as a literal list of steps, plus the filter that bounds the search and
// what the result must look like. Files are decoded strictly: an unknown key
// is an error, never silently ignored.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the top level of a scenario file.
type File struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// Scenario describes one path-generation request.
type Scenario struct {
	// Name uniquely identifies the scenario within its file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Target is an expression over the reached state. Exactly one of Target
	// and Steps is set.
	Target string `yaml:"target,omitempty"`

	// Steps is a literal event list yielding a single path.
	Steps []string `yaml:"steps,omitempty"`

	Filter FilterSpec `yaml:"filter,omitempty"`

	MaxDepth  int `yaml:"max_depth,omitempty"`
	MaxStates int `yaml:"max_states,omitempty"`

	// Equivalence is "configuration" (default) or "key".
	Equivalence string `yaml:"equivalence,omitempty"`

	Expect Expect `yaml:"expect,omitempty"`

	// Macros extend the default description dictionary.
	Macros map[string]string `yaml:"macros,omitempty"`
}

// FilterSpec is the declarative form of a filter. All parts are combined
// with filter.And in the order listed here.
type FilterSpec struct {
	WithEvents []string  `yaml:"with_events,omitempty"`
	SkipEvents []string  `yaml:"skip_events,omitempty"`
	WithActors []string  `yaml:"with_actors,omitempty"`
	SkipActors []string  `yaml:"skip_actors,omitempty"`
	Max        []MaxSpec `yaml:"max,omitempty"`

	// When is an expression over (state, event) that must hold.
	When string `yaml:"when,omitempty"`
}

// MaxSpec bounds the number of Changes matching Match.
type MaxSpec struct {
	Limit int            `yaml:"limit"`
	Match map[string]any `yaml:"match"`
}

// Expect constrains the generated paths.
type Expect struct {
	// MinPaths defaults to 1.
	MinPaths int `yaml:"min_paths,omitempty"`

	// MaxPaths of 0 means no bound.
	MaxPaths int `yaml:"max_paths,omitempty"`

	// Paths, when set, lists the exact event sequences in order.
	Paths [][]string `yaml:"paths,omitempty"`
}

// Equivalence names.
const (
	EquivalenceConfiguration = "configuration"
	EquivalenceKey           = "key"
)

// Load reads and parses a scenario file.
func Load(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(data)
}

// Parse decodes scenarios from YAML, rejecting unknown fields.
func Parse(data []byte) ([]Scenario, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(f.Scenarios) == 0 {
		return nil, errors.New("scenarios list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(f.Scenarios))
	for i := range f.Scenarios {
		s := &f.Scenarios[i]
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("scenario %d (%s): %w", i, s.Name, err)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("scenario %d: duplicate name %q", i, s.Name)
		}
		seen[s.Name] = true
	}
	return f.Scenarios, nil
}

// Validate checks required fields and mutually exclusive ones.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if (s.Target == "") == (len(s.Steps) == 0) {
		return errors.New("exactly one of target and steps is required")
	}
	switch s.Equivalence {
	case "", EquivalenceConfiguration, EquivalenceKey:
	default:
		return fmt.Errorf("unknown equivalence %q", s.Equivalence)
	}
	if s.MaxDepth < 0 || s.MaxStates < 0 {
		return errors.New("max_depth and max_states must not be negative")
	}
	for i, m := range s.Filter.Max {
		if m.Limit < 0 {
			return fmt.Errorf("filter.max[%d]: limit must not be negative", i)
		}
		if len(m.Match) == 0 {
			return fmt.Errorf("filter.max[%d]: match is required", i)
		}
	}
	if s.Expect.MaxPaths > 0 && s.Expect.MaxPaths < s.Expect.MinPaths {
		return errors.New("expect.max_paths is below expect.min_paths")
	}
	return nil
}
