package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus represents the state of a payment transaction
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

// PaymentTransaction is one attempt to move money for one booking.
// The idempotency key equals the booking id and is unique-indexed so a
// duplicate create is a storage-level no-op even if gateway dedup fails.
type PaymentTransaction struct {
	ID                    uuid.UUID         `json:"id" db:"id"`
	Provider              PaymentMethod     `json:"provider" db:"provider"`
	ProviderTransactionID *string           `json:"provider_transaction_id,omitempty" db:"provider_transaction_id"`
	Amount                decimal.Decimal   `json:"amount" db:"amount"`
	Status                TransactionStatus `json:"status" db:"status"`
	ResponseRaw           json.RawMessage   `json:"response_raw,omitempty" db:"response_raw"`
	IdempotencyKey        string            `json:"idempotency_key" db:"idempotency_key"`
	BookingID             uuid.UUID         `json:"booking_id" db:"booking_id"`
	CreatedAt             time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at" db:"updated_at"`
}

// RefundStatus represents the state of a refund attempt
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusCompleted RefundStatus = "completed"
	RefundStatusFailed    RefundStatus = "failed"
)

// Refund records one reversal attempt against a payment transaction.
// Never created for cash bookings.
type Refund struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	PaymentTransactionID uuid.UUID       `json:"payment_transaction_id" db:"payment_transaction_id"`
	Amount               decimal.Decimal `json:"amount" db:"amount"`
	Status               RefundStatus    `json:"status" db:"status"`
	ProviderRefundID     *string         `json:"provider_refund_id,omitempty" db:"provider_refund_id"`
	ResponseRaw          json.RawMessage `json:"response_raw,omitempty" db:"response_raw"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at" db:"updated_at"`
}
