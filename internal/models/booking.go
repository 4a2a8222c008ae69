package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// PaymentMethod identifies how a booking is settled
type PaymentMethod string

const (
	PaymentMethodMTN    PaymentMethod = "mtn"
	PaymentMethodAirtel PaymentMethod = "airtel"
	PaymentMethodCash   PaymentMethod = "cash"
)

// Valid reports whether the payment method is one the system accepts.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodMTN, PaymentMethodAirtel, PaymentMethodCash:
		return true
	}
	return false
}

// IsMobileMoney reports whether the method settles through a mobile-money provider.
func (m PaymentMethod) IsMobileMoney() bool {
	return m == PaymentMethodMTN || m == PaymentMethodAirtel
}

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is a passenger's claim on one seat of one schedule occurrence.
// The booking id doubles as the payment idempotency key end-to-end.
type Booking struct {
	ID                   uuid.UUID     `json:"id" db:"id"`
	PassengerName        string        `json:"passenger_name" db:"passenger_name"`
	PhoneNumber          string        `json:"phone_number" db:"phone_number"`
	Email                *string       `json:"email,omitempty" db:"email"`
	ScheduleOccurrenceID uuid.UUID     `json:"schedule_occurrence_id" db:"schedule_occurrence_id"`
	PaymentMethod        PaymentMethod `json:"payment_method" db:"payment_method"`
	Status               BookingStatus `json:"status" db:"status"`
	OperatorID           *uuid.UUID    `json:"operator_id,omitempty" db:"operator_id"`
	CreatedAt            time.Time     `json:"created_at" db:"created_at"`
	CancelledAt          *time.Time    `json:"cancelled_at,omitempty" db:"cancelled_at"`
	RefundID             *string       `json:"refund_id,omitempty" db:"refund_id"`
}

// CanCancel reports whether the booking may transition to cancelled given the
// state of its occurrence. Cancelled is terminal (a refund is evidenced by
// refund_id, not a status), and no transition is permitted once the
// occurrence has departed.
func (b *Booking) CanCancel(occ *ScheduleOccurrence) bool {
	if b.Status != BookingStatusPending && b.Status != BookingStatusConfirmed {
		return false
	}
	if occ.Status == OccurrenceStatusDeparted {
		return false
	}
	return true
}

// CreateBookingRequest is the inbound payload for creating a booking
type CreateBookingRequest struct {
	PassengerName        string        `json:"passenger_name" binding:"required"`
	PhoneNumber          string        `json:"phone_number" binding:"required"`
	Email                *string       `json:"email,omitempty"`
	ScheduleOccurrenceID string        `json:"schedule_occurrence_id" binding:"required"`
	PaymentMethod        PaymentMethod `json:"payment_method" binding:"required"`
}

// Validate validates the create booking request beyond binding tags
func (r *CreateBookingRequest) Validate() error {
	if !r.PaymentMethod.Valid() {
		return errors.New("payment_method must be one of mtn, airtel, cash")
	}
	if _, err := uuid.Parse(r.ScheduleOccurrenceID); err != nil {
		return errors.New("schedule_occurrence_id must be a valid UUID")
	}
	if len(r.PassengerName) > 200 {
		return errors.New("passenger_name too long")
	}
	return nil
}

// CancelBookingResponse is returned from the cancellation flow
type CancelBookingResponse struct {
	Cancelled       bool    `json:"cancelled"`
	RefundProcessed bool    `json:"refund_processed"`
	RefundID        *string `json:"refund_id,omitempty"`
}

// BookingStatusResponse is the trimmed status view of a booking
type BookingStatusResponse struct {
	ID            uuid.UUID     `json:"id"`
	Status        BookingStatus `json:"status"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentStatus *string       `json:"payment_status,omitempty"`
	RefundID      *string       `json:"refund_id,omitempty"`
}
