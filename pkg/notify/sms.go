// Package notify sends booking SMS notifications through an HTTP SMS
// aggregator. Delivery is best effort; booking outcomes never depend on it.
package notify

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

// Config holds configuration for the SMS gateway
type Config struct {
	Mode     string // "dev" logs instead of sending
	APIURL   string
	APIKey   string
	SenderID string
	Timeout  time.Duration
}

// Gateway sends SMS messages
type Gateway interface {
	Send(ctx context.Context, phone, message string) error
}

// SMSGateway implements Gateway against a JSON SMS aggregator API
type SMSGateway struct {
	config Config
	logger *logrus.Logger
	client *http.Client
}

// NewSMSGateway creates a new SMS gateway client
func NewSMSGateway(cfg Config, logger *logrus.Logger) *SMSGateway {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &SMSGateway{
		config: cfg,
		logger: logger,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type sendRequest struct {
	To       string `json:"to"`
	Message  string `json:"message"`
	SenderID string `json:"sender_id,omitempty"`
}

type sendResponse struct {
	Status    string `json:"status"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Send delivers one SMS. In dev mode the message is logged and dropped.
func (g *SMSGateway) Send(ctx context.Context, phone, message string) error {
	if g.config.Mode == "dev" {
		g.logger.WithFields(logrus.Fields{
			"phone":   phone,
			"message": message,
		}).Info("Dev mode SMS (not sent)")
		return nil
	}

	reqBody := sendRequest{
		To:       phone,
		Message:  message,
		SenderID: g.config.SenderID,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal SMS request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.APIURL+"/messages", bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create SMS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read SMS response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("SMS gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	var sendResp sendResponse
	if err := json.Unmarshal(body, &sendResp); err != nil {
		return fmt.Errorf("failed to parse SMS response: %w", err)
	}
	if sendResp.Status != "success" {
		return fmt.Errorf("SMS sending failed: %s", sendResp.Error)
	}

	g.logger.WithFields(logrus.Fields{
		"phone":      phone,
		"message_id": sendResp.MessageID,
	}).Debug("SMS sent")
	return nil
}
