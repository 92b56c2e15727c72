package pathgen

// quota bounds the number of states a single search may dequeue.
//
// Depth bounds the length of a path; the quota bounds its breadth. Together
// they guarantee termination even when a filter admits unbounded Change
// creation.
type quota struct {
	limit   int
	current int
}

func newQuota(limit int) *quota {
	return &quota{limit: limit}
}

// take counts one dequeued state and reports whether the limit still holds.
func (q *quota) take() bool {
	q.current++
	return q.current <= q.limit
}

func (q *quota) used() int {
	return q.current
}
