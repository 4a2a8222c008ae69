package payments

import (
	"context"
	"encoding/json"
	"fmt"
)

// CashGateway settles synchronously: money changes hands at the counter
// before the booking is created, so create always completes immediately.
// Cash can never be reversed through a gateway, so refunds are unsupported.
type CashGateway struct{}

// NewCashGateway creates a new cash gateway
func NewCashGateway() *CashGateway {
	return &CashGateway{}
}

// Name returns the provider name
func (g *CashGateway) Name() string { return ProviderCash }

// CreatePayment records the cash settlement. The transaction id is derived
// from the idempotency key, so replays produce the same id.
func (g *CashGateway) CreatePayment(_ context.Context, params CreateParams) (*CreateResult, error) {
	id := fmt.Sprintf("CASH_%s", params.IdempotencyKey)
	raw, _ := json.Marshal(map[string]string{
		"id":     id,
		"status": "completed",
		"amount": params.Amount.StringFixed(0),
	})
	return &CreateResult{TransactionID: id, Status: StatusCompleted, Raw: raw}, nil
}

// VerifyPayment always reports completed; cash settles at creation time
func (g *CashGateway) VerifyPayment(_ context.Context, transactionID string) (*VerifyResult, error) {
	raw, _ := json.Marshal(map[string]string{"id": transactionID, "status": "completed"})
	return &VerifyResult{TransactionID: transactionID, Status: StatusCompleted, Raw: raw}, nil
}

// RefundPayment is unsupported for cash
func (g *CashGateway) RefundPayment(_ context.Context, _ RefundParams) (*RefundResult, error) {
	return nil, ErrRefundUnsupported
}
