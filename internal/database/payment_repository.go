package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/travelsuite/bus-booking-backend/internal/models"
)

// ErrDuplicateTransaction is returned when a payment transaction with the
// same idempotency key already exists. The unique index is the storage-level
// backstop for gateway idempotency.
var ErrDuplicateTransaction = errors.New("payment transaction already exists for this idempotency key")

// PaymentRepository handles database operations for payment transactions and refunds
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// CreateTransaction inserts a payment transaction row
func (r *PaymentRepository) CreateTransaction(txn *models.PaymentTransaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	query := `
		INSERT INTO payment_transactions (
			id, provider, provider_transaction_id, amount, status,
			response_raw, idempotency_key, booking_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowx(query,
		txn.ID, txn.Provider, txn.ProviderTransactionID, txn.Amount, txn.Status,
		txn.ResponseRaw, txn.IdempotencyKey, txn.BookingID,
	).Scan(&txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateTransaction
		}
		return fmt.Errorf("failed to create payment transaction: %w", err)
	}
	return nil
}

// GetTransactionByBookingID retrieves the payment transaction for a booking
func (r *PaymentRepository) GetTransactionByBookingID(bookingID uuid.UUID) (*models.PaymentTransaction, error) {
	query := `
		SELECT id, provider, provider_transaction_id, amount, status,
		       response_raw, idempotency_key, booking_id, created_at, updated_at
		FROM payment_transactions
		WHERE booking_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var txn models.PaymentTransaction
	if err := r.db.Get(&txn, query, bookingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment transaction: %w", err)
	}
	return &txn, nil
}

// UpdateTransaction updates the status, provider transaction id and raw
// response of a payment transaction after a gateway round trip.
func (r *PaymentRepository) UpdateTransaction(txn *models.PaymentTransaction) error {
	query := `
		UPDATE payment_transactions
		SET status = $2, provider_transaction_id = $3, response_raw = $4, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.Exec(query, txn.ID, txn.Status, txn.ProviderTransactionID, txn.ResponseRaw)
	if err != nil {
		return fmt.Errorf("failed to update payment transaction: %w", err)
	}
	return requireRowAffected(result, fmt.Errorf("payment transaction not found: %s", txn.ID))
}

// CreateRefund inserts a refund row. Failed reversal attempts are persisted
// too, so the audit trail shows what was tried.
func (r *PaymentRepository) CreateRefund(refund *models.Refund) error {
	if refund.ID == uuid.Nil {
		refund.ID = uuid.New()
	}
	query := `
		INSERT INTO refunds (
			id, payment_transaction_id, amount, status, provider_refund_id, response_raw
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowx(query,
		refund.ID, refund.PaymentTransactionID, refund.Amount,
		refund.Status, refund.ProviderRefundID, refund.ResponseRaw,
	).Scan(&refund.CreatedAt, &refund.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create refund: %w", err)
	}
	return nil
}
