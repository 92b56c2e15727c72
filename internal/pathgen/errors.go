package pathgen

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes generation failures.
type ErrorCode string

const (
	// ErrCodeCoverage indicates the search produced no path.
	ErrCodeCoverage ErrorCode = "COVERAGE"

	// ErrCodeQuotaExceeded indicates the search visited more states than allowed.
	ErrCodeQuotaExceeded ErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeModelFault indicates a guard, action, filter or target raised a
	// schema or shape error.
	ErrCodeModelFault ErrorCode = "MODEL_FAULT"
)

// GenerationError is returned by Generate.
type GenerationError struct {
	Code    ErrorCode
	Message string

	// Scenario is the name given with WithName, if any.
	Scenario string

	// Explored is the number of states dequeued before the failure.
	Explored int

	Err error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Scenario != "" {
		msg = fmt.Sprintf("%s (scenario=%s)", msg, e.Scenario)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying schema or shape error for MODEL_FAULT.
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsCoverageError returns true if err is a COVERAGE GenerationError.
func IsCoverageError(err error) bool {
	return hasCode(err, ErrCodeCoverage)
}

// IsQuotaError returns true if err is a QUOTA_EXCEEDED GenerationError.
func IsQuotaError(err error) bool {
	return hasCode(err, ErrCodeQuotaExceeded)
}

// IsModelFault returns true if err is a MODEL_FAULT GenerationError.
func IsModelFault(err error) bool {
	return hasCode(err, ErrCodeModelFault)
}

func hasCode(err error, code ErrorCode) bool {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Code == code
	}
	return false
}
