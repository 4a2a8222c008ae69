package models

import (
	"errors"
	"fmt"
)

// Booking error taxonomy. Handlers map these onto HTTP statuses; clients use
// them to decide whether a retry can help (capacity/timing: no; payment: maybe).
var (
	// ErrCapacityExhausted is returned when the reservation step finds no
	// remaining seats. Recoverable by picking another occurrence.
	ErrCapacityExhausted = errors.New("no seats available for this schedule")

	// ErrDepartureWindowClosed is returned when a booking or cancellation
	// arrives at or after the occurrence's departure instant.
	ErrDepartureWindowClosed = errors.New("schedule has already departed")

	// ErrOccurrenceNotBookable is returned when the occurrence exists but is
	// not in scheduled state.
	ErrOccurrenceNotBookable = errors.New("schedule is not open for booking")

	// ErrOccurrenceNotFound is returned when the target occurrence does not exist.
	ErrOccurrenceNotFound = errors.New("schedule occurrence not found")

	// ErrBookingNotFound is returned when the target booking does not exist.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrInvalidPaymentMethod is rejected before any lock is taken.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrBookingNotCancellable is returned when the cancellation guard fails,
	// such as when the occurrence has already departed.
	ErrBookingNotCancellable = errors.New("booking cannot be cancelled")
)

// ValidationError reports a rejected request payload. Always maps to a 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PaymentStage identifies which gateway operation failed
type PaymentStage string

const (
	PaymentStageCreate PaymentStage = "create"
	PaymentStageVerify PaymentStage = "verify"
	PaymentStageRefund PaymentStage = "refund"
)

// PaymentError reports a failed gateway operation. The booking row is left in
// pending state for audit; the caller may retry the whole booking.
type PaymentError struct {
	Stage    PaymentStage
	Provider PaymentMethod
	Err      error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment %s failed (%s): %v", e.Stage, e.Provider, e.Err)
	}
	return fmt.Sprintf("payment %s failed (%s)", e.Stage, e.Provider)
}

func (e *PaymentError) Unwrap() error { return e.Err }

// IsPaymentError reports whether err is a PaymentError and returns it.
func IsPaymentError(err error) (*PaymentError, bool) {
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
