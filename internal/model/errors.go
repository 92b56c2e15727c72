package model

import (
	"errors"
	"fmt"
	"strings"
)

// RejectedError is returned by Apply when an event's guards do not hold.
type RejectedError struct {
	Event  Event
	Index  int
	Labels []string
}

// Error implements the error interface.
func (e *RejectedError) Error() string {
	return fmt.Sprintf("event %d (%s) not taken in [%s]", e.Index, e.Event, strings.Join(e.Labels, ", "))
}

// UnknownEventError is returned for an event the machine does not declare.
type UnknownEventError struct {
	Event Event
}

// Error implements the error interface.
func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("unknown event %q", e.Event)
}

// IsRejected returns true if err wraps a *RejectedError.
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}
