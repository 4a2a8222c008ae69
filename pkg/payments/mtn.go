package payments

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// MTNConfig holds configuration for the MTN Mobile Money collections API
type MTNConfig struct {
	BaseURL  string
	APIKey   string
	Currency string
	Mock     bool // deterministic in-process responses, no network
	Timeout  time.Duration
}

// MTNGateway implements Gateway against the MTN MoMo collections API.
// The caller's idempotency key is forwarded as X-Reference-Id, which MTN
// dedupes on: a replayed create returns the original transaction.
type MTNGateway struct {
	config MTNConfig
	logger *logrus.Logger
	client *http.Client
}

// NewMTNGateway creates a new MTN Mobile Money gateway
func NewMTNGateway(cfg MTNConfig, logger *logrus.Logger) *MTNGateway {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &MTNGateway{
		config: cfg,
		logger: logger,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the provider name
func (g *MTNGateway) Name() string { return ProviderMTN }

type mtnPaymentRequest struct {
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	ExternalID   string `json:"externalId"`
	PayerMSISDN  string `json:"payerMsisdn"`
	PayerMessage string `json:"payerMessage,omitempty"`
}

type mtnPaymentResponse struct {
	ReferenceID string `json:"referenceId"`
	Status      string `json:"status"` // PENDING, SUCCESSFUL, FAILED
	Reason      string `json:"reason,omitempty"`
}

type mtnRefundRequest struct {
	Amount              string `json:"amount"`
	Currency            string `json:"currency"`
	ReferenceIDToRefund string `json:"referenceIdToRefund"`
}

// CreatePayment initiates a request-to-pay against the payer's wallet
func (g *MTNGateway) CreatePayment(ctx context.Context, params CreateParams) (*CreateResult, error) {
	if g.config.Mock {
		return g.mockCreate(params)
	}

	reqBody := mtnPaymentRequest{
		Amount:       params.Amount.StringFixed(0),
		Currency:     params.Currency,
		ExternalID:   params.IdempotencyKey,
		PayerMSISDN:  params.PhoneNumber,
		PayerMessage: params.Description,
	}

	g.logger.WithFields(logrus.Fields{
		"provider":        ProviderMTN,
		"idempotency_key": params.IdempotencyKey,
		"amount":          reqBody.Amount,
		"currency":        reqBody.Currency,
	}).Info("Initiating MTN payment")

	var resp mtnPaymentResponse
	raw, err := g.post(ctx, "/requesttopay", params.IdempotencyKey, reqBody, &resp)
	if err != nil {
		return nil, err
	}

	return &CreateResult{
		TransactionID: resp.ReferenceID,
		Status:        mtnStatus(resp.Status),
		Raw:           raw,
	}, nil
}

// VerifyPayment checks whether a request-to-pay has settled
func (g *MTNGateway) VerifyPayment(ctx context.Context, transactionID string) (*VerifyResult, error) {
	if g.config.Mock {
		return g.mockVerify(transactionID)
	}

	url := fmt.Sprintf("%s/requesttopay/%s", g.config.BaseURL, transactionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create verify request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", g.config.APIKey)

	raw, err := g.do(req)
	if err != nil {
		return nil, err
	}

	var resp mtnPaymentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse MTN verify response: %w", err)
	}

	return &VerifyResult{
		TransactionID: transactionID,
		Status:        mtnStatus(resp.Status),
		Raw:           raw,
	}, nil
}

// RefundPayment reverses a settled request-to-pay
func (g *MTNGateway) RefundPayment(ctx context.Context, params RefundParams) (*RefundResult, error) {
	if g.config.Mock {
		return g.mockRefund(params)
	}

	reqBody := mtnRefundRequest{
		Amount:              params.Amount.StringFixed(0),
		Currency:            params.Currency,
		ReferenceIDToRefund: params.TransactionID,
	}

	g.logger.WithFields(logrus.Fields{
		"provider":       ProviderMTN,
		"transaction_id": params.TransactionID,
		"amount":         reqBody.Amount,
	}).Info("Initiating MTN refund")

	var resp mtnPaymentResponse
	raw, err := g.post(ctx, "/refund", params.IdempotencyKey, reqBody, &resp)
	if err != nil {
		return nil, err
	}

	status := mtnStatus(resp.Status)
	if status == StatusCompleted {
		status = StatusRefunded
	}
	return &RefundResult{
		RefundID: resp.ReferenceID,
		Status:   status,
		Raw:      raw,
	}, nil
}

func (g *MTNGateway) post(ctx context.Context, path, idempotencyKey string, body interface{}, out interface{}) (json.RawMessage, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.BaseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", g.config.APIKey)
	req.Header.Set("X-Reference-Id", idempotencyKey)

	raw, err := g.do(req)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("failed to parse MTN response: %w", err)
	}
	return raw, nil
}

func (g *MTNGateway) do(req *http.Request) (json.RawMessage, error) {
	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.WithError(err).Error("MTN API call failed")
		return nil, fmt.Errorf("failed to call MTN API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read MTN response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"response":    string(body),
		}).Error("MTN API returned error")
		return nil, fmt.Errorf("MTN API returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func mtnStatus(s string) Status {
	switch s {
	case "SUCCESSFUL":
		return StatusCompleted
	case "FAILED":
		return StatusFailed
	default:
		return StatusPending
	}
}

// Mock mode: results are a pure function of the idempotency key, so a
// replayed call always yields the same transaction id and status.

func (g *MTNGateway) mockCreate(params CreateParams) (*CreateResult, error) {
	id := deterministicID("MTN", params.IdempotencyKey)
	raw, _ := json.Marshal(mtnPaymentResponse{ReferenceID: id, Status: "SUCCESSFUL"})
	g.logger.WithFields(logrus.Fields{
		"provider":        ProviderMTN,
		"idempotency_key": params.IdempotencyKey,
		"transaction_id":  id,
	}).Debug("Mock MTN payment created")
	return &CreateResult{TransactionID: id, Status: StatusCompleted, Raw: raw}, nil
}

func (g *MTNGateway) mockVerify(transactionID string) (*VerifyResult, error) {
	raw, _ := json.Marshal(mtnPaymentResponse{ReferenceID: transactionID, Status: "SUCCESSFUL"})
	return &VerifyResult{TransactionID: transactionID, Status: StatusCompleted, Raw: raw}, nil
}

func (g *MTNGateway) mockRefund(params RefundParams) (*RefundResult, error) {
	id := deterministicID("MTNREF", params.IdempotencyKey)
	raw, _ := json.Marshal(mtnPaymentResponse{ReferenceID: id, Status: "SUCCESSFUL"})
	return &RefundResult{RefundID: id, Status: StatusRefunded, Raw: raw}, nil
}

// deterministicID derives a stable provider-style transaction id from an
// idempotency key.
func deterministicID(prefix, key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s-%s", prefix, hex.EncodeToString(sum[:6]))
}
