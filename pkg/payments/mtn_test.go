package payments

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestMTNGateway_MockModeIsIdempotent(t *testing.T) {
	gateway := NewMTNGateway(MTNConfig{Mock: true, Currency: "UGX"}, silentLogger())

	params := CreateParams{
		IdempotencyKey: "booking-1",
		Amount:         decimal.NewFromInt(30000),
		Currency:       "UGX",
		PhoneNumber:    "0771234567",
	}

	first, err := gateway.CreatePayment(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, first.Status)

	// Replaying the same idempotency key yields the same transaction.
	second, err := gateway.CreatePayment(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, first.TransactionID, second.TransactionID)

	verify, err := gateway.VerifyPayment(context.Background(), first.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, verify.Status)

	refund, err := gateway.RefundPayment(context.Background(), RefundParams{
		TransactionID:  first.TransactionID,
		Amount:         params.Amount,
		Currency:       "UGX",
		IdempotencyKey: "refund-booking-1",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, refund.Status)
	assert.NotEmpty(t, refund.RefundID)
}

func TestMTNGateway_LiveCreateSendsIdempotencyHeader(t *testing.T) {
	var gotHeader, gotKey string
	var gotBody mtnPaymentRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Reference-Id")
		gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(mtnPaymentResponse{ReferenceID: "MTN-LIVE-1", Status: "PENDING"})
	}))
	defer server.Close()

	gateway := NewMTNGateway(MTNConfig{
		BaseURL:  server.URL,
		APIKey:   "test-key",
		Currency: "UGX",
	}, silentLogger())

	result, err := gateway.CreatePayment(context.Background(), CreateParams{
		IdempotencyKey: "booking-42",
		Amount:         decimal.NewFromInt(15000),
		Currency:       "UGX",
		PhoneNumber:    "0781234567",
	})
	require.NoError(t, err)

	assert.Equal(t, "booking-42", gotHeader)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "15000", gotBody.Amount)
	assert.Equal(t, "booking-42", gotBody.ExternalID)
	assert.Equal(t, "MTN-LIVE-1", result.TransactionID)
	assert.Equal(t, StatusPending, result.Status)
}

func TestMTNGateway_LiveErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"payer not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	gateway := NewMTNGateway(MTNConfig{BaseURL: server.URL, APIKey: "k"}, silentLogger())

	_, err := gateway.CreatePayment(context.Background(), CreateParams{
		IdempotencyKey: "booking-err",
		Amount:         decimal.NewFromInt(1000),
		Currency:       "UGX",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestMTNGateway_LiveVerify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/requesttopay/MTN-LIVE-9", r.URL.Path)
		json.NewEncoder(w).Encode(mtnPaymentResponse{ReferenceID: "MTN-LIVE-9", Status: "SUCCESSFUL"})
	}))
	defer server.Close()

	gateway := NewMTNGateway(MTNConfig{BaseURL: server.URL, APIKey: "k"}, silentLogger())

	verify, err := gateway.VerifyPayment(context.Background(), "MTN-LIVE-9")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, verify.Status)
}

func TestMTNStatusMapping(t *testing.T) {
	assert.Equal(t, StatusCompleted, mtnStatus("SUCCESSFUL"))
	assert.Equal(t, StatusFailed, mtnStatus("FAILED"))
	assert.Equal(t, StatusPending, mtnStatus("PENDING"))
	assert.Equal(t, StatusPending, mtnStatus(""))
}
