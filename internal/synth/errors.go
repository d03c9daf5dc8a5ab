package synth

import (
	"errors"
	"fmt"
)

// Error is a synthesis failure. Parameter errors are raised before any
// computation; arithmetic errors come from the timing conversions.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Param names the offending input, if any.
	Param string

	// Message is a human-readable description.
	Message string
}

// ErrorCode categorizes synthesis errors.
type ErrorCode string

const (
	// ErrCodeInvalidParameter indicates an input outside its domain.
	ErrCodeInvalidParameter ErrorCode = "INVALID_PARAMETER"

	// ErrCodeDivisionByZero indicates a zero slowdown factor.
	ErrCodeDivisionByZero ErrorCode = "DIVISION_BY_ZERO"

	// ErrCodeOverflow indicates a derived value that is not a finite int64.
	ErrCodeOverflow ErrorCode = "ARITHMETIC_OVERFLOW"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Param, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalidParameter(param, format string, args ...any) *Error {
	return &Error{Code: ErrCodeInvalidParameter, Param: param, Message: fmt.Sprintf(format, args...)}
}

func divisionByZero(param string) *Error {
	return &Error{Code: ErrCodeDivisionByZero, Param: param, Message: "division by zero"}
}

func overflow(param string, v float64) *Error {
	return &Error{Code: ErrCodeOverflow, Param: param, Message: fmt.Sprintf("%v is not representable as a tick count", v)}
}

// IsInvalidParameter returns true if err is an invalid-parameter error.
// Uses errors.As to handle wrapped errors.
func IsInvalidParameter(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == ErrCodeInvalidParameter
	}
	return false
}

// IsDivisionByZero returns true if err is a division-by-zero error.
func IsDivisionByZero(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == ErrCodeDivisionByZero
	}
	return false
}

// IsArithmetic returns true for any arithmetic failure, division by zero
// included.
func IsArithmetic(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == ErrCodeDivisionByZero || se.Code == ErrCodeOverflow
	}
	return false
}
