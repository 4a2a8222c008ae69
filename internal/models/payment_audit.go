package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentAuditEvent identifies which gateway interaction is being recorded
type PaymentAuditEvent string

const (
	PaymentAuditCreate PaymentAuditEvent = "create"
	PaymentAuditVerify PaymentAuditEvent = "verify"
	PaymentAuditRefund PaymentAuditEvent = "refund"
)

// PaymentAudit is an append-only record of one gateway interaction.
// Every create/verify/refund attempt is logged, successful or not.
type PaymentAudit struct {
	ID               uuid.UUID         `json:"id" db:"id"`
	BookingID        uuid.UUID         `json:"booking_id" db:"booking_id"`
	Provider         PaymentMethod     `json:"provider" db:"provider"`
	Event            PaymentAuditEvent `json:"event" db:"event"`
	Amount           decimal.Decimal   `json:"amount" db:"amount"`
	Outcome          string            `json:"outcome" db:"outcome"`
	TransactionID    *string           `json:"transaction_id,omitempty" db:"transaction_id"`
	IdempotencyKey   string            `json:"idempotency_key" db:"idempotency_key"`
	ResponseRaw      json.RawMessage   `json:"response_raw,omitempty" db:"response_raw"`
	ErrorMessage     *string           `json:"error_message,omitempty" db:"error_message"`
	ClientIP         *string           `json:"client_ip,omitempty" db:"client_ip"`
	ClientDevice     *string           `json:"client_device,omitempty" db:"client_device"`
	ProcessingTimeMS int64             `json:"processing_time_ms" db:"processing_time_ms"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
}
