package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/travelsuite/bus-booking-backend/internal/models"
)

// PaymentAuditRepository handles the append-only payment audit trail
type PaymentAuditRepository struct {
	db *sqlx.DB
}

// NewPaymentAuditRepository creates a new PaymentAuditRepository
func NewPaymentAuditRepository(db *sqlx.DB) *PaymentAuditRepository {
	return &PaymentAuditRepository{db: db}
}

// Create appends one audit record
func (r *PaymentAuditRepository) Create(audit *models.PaymentAudit) error {
	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}
	query := `
		INSERT INTO payment_audits (
			id, booking_id, provider, event, amount, outcome,
			transaction_id, idempotency_key, response_raw, error_message,
			client_ip, client_device, processing_time_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at
	`
	err := r.db.QueryRowx(query,
		audit.ID, audit.BookingID, audit.Provider, audit.Event, audit.Amount, audit.Outcome,
		audit.TransactionID, audit.IdempotencyKey, audit.ResponseRaw, audit.ErrorMessage,
		audit.ClientIP, audit.ClientDevice, audit.ProcessingTimeMS,
	).Scan(&audit.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment audit: %w", err)
	}
	return nil
}

// ListByBookingID returns the audit trail for one booking, oldest first
func (r *PaymentAuditRepository) ListByBookingID(bookingID uuid.UUID) ([]models.PaymentAudit, error) {
	query := `
		SELECT id, booking_id, provider, event, amount, outcome,
		       transaction_id, idempotency_key, response_raw, error_message,
		       client_ip, client_device, processing_time_ms, created_at
		FROM payment_audits
		WHERE booking_id = $1
		ORDER BY created_at
	`
	audits := []models.PaymentAudit{}
	if err := r.db.Select(&audits, query, bookingID); err != nil {
		return nil, fmt.Errorf("failed to list payment audits: %w", err)
	}
	return audits, nil
}
