// Package payments integrates Razorpay order creation and webhook
// verification for subscription billing.
package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bizflowhq/bizflow-platform/internal/tenancy"
)

const defaultRazorpayBaseURL = "https://api.razorpay.com/v1"

// PlanAmountPaise returns the subscription price for a plan in paise.
// Trial is free and has no order.
func PlanAmountPaise(plan tenancy.Plan) (int64, bool) {
	switch plan {
	case tenancy.PlanStarter:
		return 49900, true
	case tenancy.PlanPro:
		return 99900, true
	default:
		return 0, false
	}
}

// RazorpayClient wraps the Razorpay Orders endpoint.
type RazorpayClient struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
}

// RazorpayConfig configures the client.
type RazorpayConfig struct {
	KeyID      string
	KeySecret  string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewRazorpayClient creates a configured client.
func NewRazorpayClient(cfg RazorpayConfig) (*RazorpayClient, error) {
	if strings.TrimSpace(cfg.KeyID) == "" || strings.TrimSpace(cfg.KeySecret) == "" {
		return nil, errors.New("payments: razorpay key id and secret required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultRazorpayBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &RazorpayClient{
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		baseURL:    baseURL,
		httpClient: httpClient,
	}, nil
}

// KeyID returns the public key id the hosted checkout embeds.
func (c *RazorpayClient) KeyID() string {
	return c.keyID
}

// Order is the slice of Razorpay's order object callers care about.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// CreateOrder opens a Razorpay order for the given amount.
func (c *RazorpayClient) CreateOrder(ctx context.Context, amountPaise int64, receipt string, notes map[string]string) (*Order, error) {
	if amountPaise <= 0 {
		return nil, errors.New("payments: order amount must be positive")
	}
	payload, err := json.Marshal(map[string]any{
		"amount":   amountPaise,
		"currency": "INR",
		"receipt":  receipt,
		"notes":    notes,
	})
	if err != nil {
		return nil, fmt.Errorf("payments: marshal order: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("payments: build order request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payments: create order: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("payments: read order response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payments: razorpay status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	var order Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("payments: decode order: %w", err)
	}
	return &order, nil
}

// VerifyPaymentSignature checks the checkout callback signature
// (HMAC-SHA256 of "order_id|payment_id" with the key secret).
func VerifyPaymentSignature(orderID, paymentID, signature, keySecret string) bool {
	mac := hmac.New(sha256.New, []byte(keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header
// (HMAC-SHA256 of the raw body with the webhook secret).
func VerifyWebhookSignature(body []byte, signature, webhookSecret string) bool {
	if webhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
