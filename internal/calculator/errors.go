package calculator

import (
	"errors"
	"fmt"
)

// Error kinds. Every estimator failure wraps one of these.
var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrMissingVolumeDay = errors.New("missing volume day")
	ErrDivisionByZero   = errors.New("division by zero")
	ErrMisalignedSeries = errors.New("misaligned series")
	ErrInvalidWindow    = errors.New("invalid window")
)

// Kind names an error category in result tables.
type Kind string

const (
	KindInsufficientData Kind = "InsufficientData"
	KindMissingVolumeDay Kind = "MissingVolumeDay"
	KindDivisionByZero   Kind = "DivisionByZero"
	KindMisalignedSeries Kind = "MisalignedSeries"
	KindInvalidWindow    Kind = "InvalidWindow"
	KindUnknown          Kind = "Error"
)

// MetricError reports which estimator failed and why.
type MetricError struct {
	Op     string
	Err    error
	Detail string
}

func (e *MetricError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Detail)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes the kind sentinel to errors.Is.
func (e *MetricError) Unwrap() error {
	return e.Err
}

func newError(op string, kind error, format string, args ...any) *MetricError {
	return &MetricError{Op: op, Err: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf maps err to its kind. It returns "" for a nil error.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInsufficientData):
		return KindInsufficientData
	case errors.Is(err, ErrMissingVolumeDay):
		return KindMissingVolumeDay
	case errors.Is(err, ErrDivisionByZero):
		return KindDivisionByZero
	case errors.Is(err, ErrMisalignedSeries):
		return KindMisalignedSeries
	case errors.Is(err, ErrInvalidWindow):
		return KindInvalidWindow
	default:
		return KindUnknown
	}
}
