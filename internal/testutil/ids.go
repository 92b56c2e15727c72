package testutil

import (
	"fmt"
	"sync/atomic"
)

// SequentialIDs generates "prefix-0001", "prefix-0002", ... in call order.
type SequentialIDs struct {
	prefix string
	n      atomic.Int64
}

// NewSequentialIDs returns a generator. An empty prefix becomes "run".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "run"
	}
	return &SequentialIDs{prefix: prefix}
}

// NewID returns the next id.
func (g *SequentialIDs) NewID() string {
	return fmt.Sprintf("%s-%04d", g.prefix, g.n.Add(1))
}
