package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/travelsuite/bus-booking-backend/internal/models"
)

// Storage interfaces consumed by the service layer. The database package
// provides the production implementations; tests substitute in-memory fakes.

// OccurrenceStore provides access to schedule occurrences
type OccurrenceStore interface {
	GetByID(id uuid.UUID) (*models.ScheduleOccurrence, error)
}

// BookingStore provides access to bookings, including the atomic seat
// reservation step.
type BookingStore interface {
	ReservePending(booking *models.Booking, holdTTL time.Duration) (int, error)
	GetByID(id uuid.UUID) (*models.Booking, error)
	GetByPhone(phone string) ([]models.Booking, error)
	GetByRouteID(routeID int) ([]models.Booking, error)
	UpdateStatus(id uuid.UUID, status models.BookingStatus) error
	// MarkCancelled conditionally flips a cancellable booking to cancelled.
	// won=false means the booking exists but was already cancelled.
	MarkCancelled(id uuid.UUID, at time.Time) (won bool, err error)
	SetRefundID(id uuid.UUID, refundID string) error
}

// PaymentStore provides access to payment transactions and refunds
type PaymentStore interface {
	CreateTransaction(txn *models.PaymentTransaction) error
	GetTransactionByBookingID(bookingID uuid.UUID) (*models.PaymentTransaction, error)
	UpdateTransaction(txn *models.PaymentTransaction) error
	CreateRefund(refund *models.Refund) error
}

// AuditStore appends payment audit records
type AuditStore interface {
	Create(audit *models.PaymentAudit) error
}

// OperatorStore provides access to counter operators and their route assignments
type OperatorStore interface {
	GetByUsername(username string) (*models.Operator, error)
	GetByID(id uuid.UUID) (*models.Operator, error)
	IsAssignedToRoute(operatorID uuid.UUID, routeID int) (bool, error)
}
