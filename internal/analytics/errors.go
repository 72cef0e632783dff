package analytics

import "fmt"

// ValidationError reports malformed or missing required input: a record with
// no value representation, an unknown algorithm or array token, a non-positive
// spacing or distance where one is required. It is never retried internally.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "analytics: invalid input: " + e.Reason
}

// InsufficientDataError reports structurally valid input with too few points
// for the requested computation. Required carries the minimum count.
type InsufficientDataError struct {
	Reason   string
	Required int
	Got      int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("analytics: insufficient data: %s (need %d, got %d)", e.Reason, e.Required, e.Got)
}

// NumericalError reports a solve that failed to factor or produced
// non-finite results.
type NumericalError struct {
	Reason string
}

func (e *NumericalError) Error() string {
	return "analytics: numerical failure: " + e.Reason
}

func validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func insufficientf(required, got int, format string, args ...any) error {
	return &InsufficientDataError{Reason: fmt.Sprintf(format, args...), Required: required, Got: got}
}

func numericalf(format string, args ...any) error {
	return &NumericalError{Reason: fmt.Sprintf(format, args...)}
}
