package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelsuite/bus-booking-backend/internal/models"
)

func TestCreateTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	bookingID := uuid.New()
	now := time.Now()

	mock.ExpectQuery("INSERT INTO payment_transactions").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	txn := &models.PaymentTransaction{
		Provider:       models.PaymentMethodMTN,
		Amount:         decimal.NewFromInt(25000),
		Status:         models.TransactionStatusPending,
		IdempotencyKey: bookingID.String(),
		BookingID:      bookingID,
	}
	require.NoError(t, repo.CreateTransaction(txn))
	assert.NotEqual(t, uuid.Nil, txn.ID)
	assert.Equal(t, now, txn.CreatedAt)
}

func TestCreateTransaction_DuplicateIdempotencyKey(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	mock.ExpectQuery("INSERT INTO payment_transactions").
		WillReturnError(&pq.Error{Code: "23505"})

	txn := &models.PaymentTransaction{
		Provider:       models.PaymentMethodAirtel,
		Amount:         decimal.NewFromInt(10000),
		IdempotencyKey: "dup-key",
		BookingID:      uuid.New(),
	}
	err := repo.CreateTransaction(txn)
	assert.ErrorIs(t, err, ErrDuplicateTransaction)
}

func TestGetTransactionByBookingID_NoneIsNotAnError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	bookingID := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM payment_transactions").
		WithArgs(bookingID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	txn, err := repo.GetTransactionByBookingID(bookingID)
	require.NoError(t, err)
	assert.Nil(t, txn)
}

func TestCreateRefund_PersistsFailedAttempts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO refunds").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	refund := &models.Refund{
		PaymentTransactionID: uuid.New(),
		Amount:               decimal.NewFromInt(25000),
		Status:               models.RefundStatusFailed,
	}
	require.NoError(t, repo.CreateRefund(refund))
	assert.NotEqual(t, uuid.Nil, refund.ID)
}
