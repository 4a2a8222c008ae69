package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAirtelGateway_MockModeIsIdempotent(t *testing.T) {
	gateway := NewAirtelGateway(AirtelConfig{Mock: true, Currency: "UGX"}, silentLogger())

	params := CreateParams{
		IdempotencyKey: "booking-7",
		Amount:         decimal.NewFromInt(20000),
		Currency:       "UGX",
		PhoneNumber:    "0751234567",
	}

	first, err := gateway.CreatePayment(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, first.Status)

	second, err := gateway.CreatePayment(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, first.TransactionID, second.TransactionID)
}

func TestAirtelGateway_LiveCreate(t *testing.T) {
	var gotIdempotency, gotAuth string
	var gotBody airtelPaymentRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdempotency = r.Header.Get("x-idempotency-key")
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		var resp airtelResponse
		resp.Data.Transaction.ID = gotBody.Transaction.ID
		resp.Data.Transaction.AirtelID = "AIR-LIVE-1"
		resp.Data.Transaction.Status = "TS"
		resp.Status.Success = true
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	gateway := NewAirtelGateway(AirtelConfig{
		BaseURL:  server.URL,
		APIKey:   "airtel-key",
		Currency: "UGX",
	}, silentLogger())

	result, err := gateway.CreatePayment(context.Background(), CreateParams{
		IdempotencyKey: "booking-55",
		Amount:         decimal.NewFromInt(18000),
		Currency:       "UGX",
		PhoneNumber:    "0701234567",
	})
	require.NoError(t, err)

	assert.Equal(t, "booking-55", gotIdempotency)
	assert.Equal(t, "Bearer airtel-key", gotAuth)
	assert.Equal(t, "booking-55", gotBody.Transaction.ID)
	assert.Equal(t, "18000", gotBody.Transaction.Amount)
	assert.Equal(t, "AIR-LIVE-1", result.TransactionID)
	assert.Equal(t, StatusCompleted, result.Status)
}

func TestAirtelGateway_LiveRefund(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/refund", r.URL.Path)
		var resp airtelResponse
		resp.Data.Transaction.AirtelID = "AIR-REF-1"
		resp.Data.Transaction.Status = "TS"
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	gateway := NewAirtelGateway(AirtelConfig{BaseURL: server.URL, APIKey: "k"}, silentLogger())

	refund, err := gateway.RefundPayment(context.Background(), RefundParams{
		TransactionID:  "AIR-LIVE-1",
		Amount:         decimal.NewFromInt(18000),
		Currency:       "UGX",
		IdempotencyKey: "refund-booking-55",
	})
	require.NoError(t, err)
	assert.Equal(t, "AIR-REF-1", refund.RefundID)
	assert.Equal(t, StatusRefunded, refund.Status)
}

func TestAirtelStatusMapping(t *testing.T) {
	assert.Equal(t, StatusCompleted, airtelStatus("TS"))
	assert.Equal(t, StatusFailed, airtelStatus("TF"))
	assert.Equal(t, StatusPending, airtelStatus("TIP"))
}
