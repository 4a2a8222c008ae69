package payments

import (
	"context"
	"sync"
)

// MockGateway is a test double with injectable behavior per operation.
// Zero-value funcs default to immediate success. Safe for concurrent use.
type MockGateway struct {
	Provider   string
	CreateFunc func(ctx context.Context, params CreateParams) (*CreateResult, error)
	VerifyFunc func(ctx context.Context, transactionID string) (*VerifyResult, error)
	RefundFunc func(ctx context.Context, params RefundParams) (*RefundResult, error)

	mu          sync.Mutex
	createCalls []CreateParams
	verifyCalls []string
	refundCalls []RefundParams
}

// Name returns the configured provider name
func (g *MockGateway) Name() string { return g.Provider }

// CreatePayment records the call and delegates to CreateFunc
func (g *MockGateway) CreatePayment(ctx context.Context, params CreateParams) (*CreateResult, error) {
	g.mu.Lock()
	g.createCalls = append(g.createCalls, params)
	g.mu.Unlock()
	if g.CreateFunc != nil {
		return g.CreateFunc(ctx, params)
	}
	return &CreateResult{
		TransactionID: deterministicID("MOCK", params.IdempotencyKey),
		Status:        StatusCompleted,
	}, nil
}

// VerifyPayment records the call and delegates to VerifyFunc
func (g *MockGateway) VerifyPayment(ctx context.Context, transactionID string) (*VerifyResult, error) {
	g.mu.Lock()
	g.verifyCalls = append(g.verifyCalls, transactionID)
	g.mu.Unlock()
	if g.VerifyFunc != nil {
		return g.VerifyFunc(ctx, transactionID)
	}
	return &VerifyResult{TransactionID: transactionID, Status: StatusCompleted}, nil
}

// RefundPayment records the call and delegates to RefundFunc
func (g *MockGateway) RefundPayment(ctx context.Context, params RefundParams) (*RefundResult, error) {
	g.mu.Lock()
	g.refundCalls = append(g.refundCalls, params)
	g.mu.Unlock()
	if g.RefundFunc != nil {
		return g.RefundFunc(ctx, params)
	}
	return &RefundResult{
		RefundID: deterministicID("MOCKREF", params.IdempotencyKey),
		Status:   StatusRefunded,
	}, nil
}

// CreateCalls returns a snapshot of recorded create calls
func (g *MockGateway) CreateCalls() []CreateParams {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]CreateParams(nil), g.createCalls...)
}

// VerifyCalls returns a snapshot of recorded verify calls
func (g *MockGateway) VerifyCalls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.verifyCalls...)
}

// RefundCalls returns a snapshot of recorded refund calls
func (g *MockGateway) RefundCalls() []RefundParams {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]RefundParams(nil), g.refundCalls...)
}
