package payments

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	cash := NewCashGateway()
	registry := NewRegistry(cash)

	got, err := registry.Get("cash")
	require.NoError(t, err)
	assert.Equal(t, cash, got)

	_, err = registry.Get("mpesa")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestCashGateway_SettlesSynchronously(t *testing.T) {
	gateway := NewCashGateway()

	result, err := gateway.CreatePayment(context.Background(), CreateParams{
		IdempotencyKey: "b0f6a1c2",
		Amount:         decimal.NewFromInt(25000),
		Currency:       "UGX",
	})
	require.NoError(t, err)
	assert.Equal(t, "CASH_b0f6a1c2", result.TransactionID)
	assert.Equal(t, StatusCompleted, result.Status)

	verify, err := gateway.VerifyPayment(context.Background(), result.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, verify.Status)
}

func TestCashGateway_RefundUnsupported(t *testing.T) {
	gateway := NewCashGateway()
	_, err := gateway.RefundPayment(context.Background(), RefundParams{TransactionID: "CASH_x"})
	assert.ErrorIs(t, err, ErrRefundUnsupported)
}

func TestDeterministicID_StableAcrossReplays(t *testing.T) {
	first := deterministicID("MTN", "same-key")
	second := deterministicID("MTN", "same-key")
	other := deterministicID("MTN", "other-key")

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Contains(t, first, "MTN-")
}
