// Package pathgen turns the protocol model into a covering set of test
// scenarios.
//
// Generate walks the reachable state graph breadth first from the model's
// initial state. Filters are consulted before guards and only prune edges.
// The first state reached in each equivalence class that satisfies the
// target yields a Path, so every returned Path is a shortest event sequence
// for its class, and the search does not continue past it.
//
// Generation is deterministic: events are tried in declaration order, states
// are deduplicated by their canonical key, and no guard or action reads the
// clock or any external input. Two calls with the same machine, target and
// options return identical paths in identical order.
//
// An empty result is never a valid outcome. It is reported as a COVERAGE
// GenerationError, since it almost always means a filter or target removed
// every scenario by mistake.
package pathgen
