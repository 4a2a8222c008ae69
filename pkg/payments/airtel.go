package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// AirtelConfig holds configuration for the Airtel Money merchant API
type AirtelConfig struct {
	BaseURL  string
	APIKey   string
	Currency string
	Mock     bool
	Timeout  time.Duration
}

// AirtelGateway implements Gateway against the Airtel Money merchant API.
// The idempotency key travels in the x-idempotency-key header and doubles as
// the merchant-side transaction reference.
type AirtelGateway struct {
	config AirtelConfig
	logger *logrus.Logger
	client *http.Client
}

// NewAirtelGateway creates a new Airtel Money gateway
func NewAirtelGateway(cfg AirtelConfig, logger *logrus.Logger) *AirtelGateway {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &AirtelGateway{
		config: cfg,
		logger: logger,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the provider name
func (g *AirtelGateway) Name() string { return ProviderAirtel }

type airtelSubscriber struct {
	MSISDN string `json:"msisdn"`
}

type airtelTransaction struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	ID       string `json:"id"`
}

type airtelPaymentRequest struct {
	Reference   string            `json:"reference"`
	Subscriber  airtelSubscriber  `json:"subscriber"`
	Transaction airtelTransaction `json:"transaction"`
}

type airtelResponse struct {
	Data struct {
		Transaction struct {
			ID       string `json:"id"`
			AirtelID string `json:"airtel_money_id"`
			Status   string `json:"status"` // TIP (in progress), TS (success), TF (failed)
		} `json:"transaction"`
	} `json:"data"`
	Status struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Success bool   `json:"success"`
	} `json:"status"`
}

// CreatePayment initiates a collection against the subscriber's wallet
func (g *AirtelGateway) CreatePayment(ctx context.Context, params CreateParams) (*CreateResult, error) {
	if g.config.Mock {
		return g.mockCreate(params)
	}

	reqBody := airtelPaymentRequest{
		Reference:  params.Description,
		Subscriber: airtelSubscriber{MSISDN: params.PhoneNumber},
		Transaction: airtelTransaction{
			Amount:   params.Amount.StringFixed(0),
			Currency: params.Currency,
			ID:       params.IdempotencyKey,
		},
	}

	g.logger.WithFields(logrus.Fields{
		"provider":        ProviderAirtel,
		"idempotency_key": params.IdempotencyKey,
		"amount":          reqBody.Transaction.Amount,
		"currency":        reqBody.Transaction.Currency,
	}).Info("Initiating Airtel payment")

	var resp airtelResponse
	raw, err := g.post(ctx, "/payments", params.IdempotencyKey, reqBody, &resp)
	if err != nil {
		return nil, err
	}

	txnID := resp.Data.Transaction.AirtelID
	if txnID == "" {
		txnID = resp.Data.Transaction.ID
	}
	return &CreateResult{
		TransactionID: txnID,
		Status:        airtelStatus(resp.Data.Transaction.Status),
		Raw:           raw,
	}, nil
}

// VerifyPayment checks the settlement state of a collection
func (g *AirtelGateway) VerifyPayment(ctx context.Context, transactionID string) (*VerifyResult, error) {
	if g.config.Mock {
		return g.mockVerify(transactionID)
	}

	url := fmt.Sprintf("%s/payments/%s", g.config.BaseURL, transactionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)

	raw, err := g.do(req)
	if err != nil {
		return nil, err
	}

	var resp airtelResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse Airtel verify response: %w", err)
	}

	return &VerifyResult{
		TransactionID: transactionID,
		Status:        airtelStatus(resp.Data.Transaction.Status),
		Raw:           raw,
	}, nil
}

// RefundPayment reverses a settled collection
func (g *AirtelGateway) RefundPayment(ctx context.Context, params RefundParams) (*RefundResult, error) {
	if g.config.Mock {
		return g.mockRefund(params)
	}

	reqBody := map[string]interface{}{
		"transaction": map[string]string{
			"airtel_money_id": params.TransactionID,
		},
	}

	g.logger.WithFields(logrus.Fields{
		"provider":       ProviderAirtel,
		"transaction_id": params.TransactionID,
	}).Info("Initiating Airtel refund")

	var resp airtelResponse
	raw, err := g.post(ctx, "/payments/refund", params.IdempotencyKey, reqBody, &resp)
	if err != nil {
		return nil, err
	}

	status := airtelStatus(resp.Data.Transaction.Status)
	if status == StatusCompleted {
		status = StatusRefunded
	}
	return &RefundResult{
		RefundID: resp.Data.Transaction.AirtelID,
		Status:   status,
		Raw:      raw,
	}, nil
}

func (g *AirtelGateway) post(ctx context.Context, path, idempotencyKey string, body interface{}, out interface{}) (json.RawMessage, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.BaseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	req.Header.Set("x-idempotency-key", idempotencyKey)

	raw, err := g.do(req)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("failed to parse Airtel response: %w", err)
	}
	return raw, nil
}

func (g *AirtelGateway) do(req *http.Request) (json.RawMessage, error) {
	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.WithError(err).Error("Airtel API call failed")
		return nil, fmt.Errorf("failed to call Airtel API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Airtel response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"response":    string(body),
		}).Error("Airtel API returned error")
		return nil, fmt.Errorf("Airtel API returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func airtelStatus(s string) Status {
	switch s {
	case "TS":
		return StatusCompleted
	case "TF":
		return StatusFailed
	default:
		return StatusPending
	}
}

func (g *AirtelGateway) mockCreate(params CreateParams) (*CreateResult, error) {
	id := deterministicID("AIR", params.IdempotencyKey)
	raw, _ := json.Marshal(map[string]string{"id": id, "status": "TS"})
	g.logger.WithFields(logrus.Fields{
		"provider":        ProviderAirtel,
		"idempotency_key": params.IdempotencyKey,
		"transaction_id":  id,
	}).Debug("Mock Airtel payment created")
	return &CreateResult{TransactionID: id, Status: StatusCompleted, Raw: raw}, nil
}

func (g *AirtelGateway) mockVerify(transactionID string) (*VerifyResult, error) {
	raw, _ := json.Marshal(map[string]string{"id": transactionID, "status": "TS"})
	return &VerifyResult{TransactionID: transactionID, Status: StatusCompleted, Raw: raw}, nil
}

func (g *AirtelGateway) mockRefund(params RefundParams) (*RefundResult, error) {
	id := deterministicID("AIRREF", params.IdempotencyKey)
	raw, _ := json.Marshal(map[string]string{"id": id, "status": "TS"})
	return &RefundResult{RefundID: id, Status: StatusRefunded, Raw: raw}, nil
}
