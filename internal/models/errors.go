// Package models defines the data structures for the loan underwriting engine.
package models

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks a request that could not be evaluated. It is never
// used for a rejected application.
var ErrInvalidInput = errors.New("invalid input")

// ErrInvalidTerm is returned when the loan term would divide by zero.
var ErrInvalidTerm = errors.New("loan term must be greater than zero")

// Input errors
var (
	ErrUnknownProductLine    = fmt.Errorf("%w: unknown product line", ErrInvalidInput)
	ErrNonPositiveAmount     = fmt.Errorf("%w: amount must be greater than zero", ErrInvalidInput)
	ErrNonPositiveRate       = fmt.Errorf("%w: rate must be greater than zero", ErrInvalidInput)
	ErrNonPositiveIncome     = fmt.Errorf("%w: monthly income must be greater than zero", ErrInvalidInput)
	ErrNegativeValue         = fmt.Errorf("%w: value cannot be negative", ErrInvalidInput)
	ErrInvalidAge            = fmt.Errorf("%w: age must be between 18 and 120", ErrInvalidInput)
	ErrInvalidCreditScore    = fmt.Errorf("%w: credit score must be between 300 and 900", ErrInvalidInput)
	ErrPropertyBelowAmount   = fmt.Errorf("%w: property value must be at least the loan amount", ErrInvalidInput)
	ErrInitialPaymentTooHigh = fmt.Errorf("%w: initial payment must be less than the amount", ErrInvalidInput)
	ErrInvalidRefinanceType  = fmt.Errorf("%w: refinance type must be rate-and-term or cash-out", ErrInvalidInput)
	ErrInvalidCreditPurpose  = fmt.Errorf("%w: purpose must be consolidation, rate-reduction or payment-reduction", ErrInvalidInput)
)

// MissingFieldError reports a mandatory field absent from the payload.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// Unwrap lets callers match missing fields with errors.Is(err, ErrInvalidInput).
func (e *MissingFieldError) Unwrap() error {
	return ErrInvalidInput
}

// IsMissingField reports whether err is a MissingFieldError and returns the field.
func IsMissingField(err error) (string, bool) {
	var missing *MissingFieldError
	if errors.As(err, &missing) {
		return missing.Field, true
	}
	return "", false
}

// IsEvaluationError reports whether err means "could not evaluate".
func IsEvaluationError(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrInvalidTerm)
}
