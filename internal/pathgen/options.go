package pathgen

import (
	"io"
	"log/slog"

	"github.com/roach88/changeoracle/internal/filter"
	"github.com/roach88/changeoracle/internal/metrics"
	"github.com/roach88/changeoracle/internal/model"
)

// Defaults.
const (
	DefaultMaxDepth  = 16
	DefaultMaxStates = 250000
)

// Equivalence maps a state to its class. Generate keeps one path per class.
type Equivalence func(model.State) string

// ByConfiguration is the default equivalence: actor and stack labels.
func ByConfiguration(s model.State) string {
	return s.Configuration()
}

// ByKey treats every distinct state as its own class.
func ByKey(s model.State) string {
	return s.Key()
}

type config struct {
	name        string
	filter      filter.Filter
	maxDepth    int
	maxStates   int
	equivalence Equivalence
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

func defaultConfig() config {
	return config{
		filter:      filter.None,
		maxDepth:    DefaultMaxDepth,
		maxStates:   DefaultMaxStates,
		equivalence: ByConfiguration,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Option configures Generate.
type Option func(*config)

// WithName labels logs, metrics and errors with a scenario name.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithFilter prunes edges before their guards are evaluated.
func WithFilter(f filter.Filter) Option {
	return func(c *config) {
		c.filter = f
	}
}

// WithMaxDepth stops expansion of states at depth n.
func WithMaxDepth(n int) Option {
	return func(c *config) {
		c.maxDepth = n
	}
}

// WithMaxStates fails the search once more than n states are dequeued.
func WithMaxStates(n int) Option {
	return func(c *config) {
		c.maxStates = n
	}
}

// WithEquivalence replaces the default equivalence.
func WithEquivalence(eq Equivalence) Option {
	return func(c *config) {
		c.equivalence = eq
	}
}

// WithLogger sets the logger. Generation logs at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithMetrics records generation metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}
