// Package payments abstracts the mobile-money providers behind a single
// Gateway interface. Every call carries an idempotency key supplied by the
// caller; submitting the same key twice must not move money twice.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Provider names as registered in the Registry
const (
	ProviderMTN    = "mtn"
	ProviderAirtel = "airtel"
	ProviderCash   = "cash"
)

// Status is the gateway-side state of a payment or refund
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

var (
	// ErrUnknownProvider is returned by the Registry for an unregistered name
	ErrUnknownProvider = errors.New("unknown payment provider")

	// ErrRefundUnsupported is returned by gateways that cannot reverse money,
	// such as cash collected at the counter.
	ErrRefundUnsupported = errors.New("refunds are not supported by this provider")
)

// CreateParams carries everything needed to initiate a charge
type CreateParams struct {
	IdempotencyKey string
	Amount         decimal.Decimal
	Currency       string
	PhoneNumber    string
	Description    string
}

// CreateResult is the outcome of initiating a charge
type CreateResult struct {
	TransactionID string
	Status        Status
	Raw           json.RawMessage
}

// VerifyResult is the outcome of checking a charge's settlement state
type VerifyResult struct {
	TransactionID string
	Status        Status
	Raw           json.RawMessage
}

// RefundParams carries everything needed to reverse a settled charge
type RefundParams struct {
	TransactionID  string
	Amount         decimal.Decimal
	Currency       string
	IdempotencyKey string
}

// RefundResult is the outcome of a reversal attempt
type RefundResult struct {
	RefundID string
	Status   Status
	Raw      json.RawMessage
}

// Gateway is implemented by each payment provider integration
type Gateway interface {
	// Name returns the provider name used for registry lookup and persistence
	Name() string

	// CreatePayment initiates a charge against the payer's account
	CreatePayment(ctx context.Context, params CreateParams) (*CreateResult, error)

	// VerifyPayment checks whether a previously created charge has settled
	VerifyPayment(ctx context.Context, transactionID string) (*VerifyResult, error)

	// RefundPayment reverses a settled charge back to the payer
	RefundPayment(ctx context.Context, params RefundParams) (*RefundResult, error)
}

// Registry resolves provider names to gateway implementations
type Registry struct {
	gateways map[string]Gateway
}

// NewRegistry creates a registry holding the given gateways
func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway, len(gateways))}
	for _, g := range gateways {
		r.gateways[g.Name()] = g
	}
	return r
}

// Register adds or replaces a gateway
func (r *Registry) Register(g Gateway) {
	r.gateways[g.Name()] = g
}

// Get resolves a provider name
func (r *Registry) Get(name string) (Gateway, error) {
	g, ok := r.gateways[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return g, nil
}
