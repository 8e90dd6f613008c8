// Package twilioclient is a minimal Twilio REST client for outbound
// WhatsApp sends.
package twilioclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL   = "https://api.twilio.com/2010-04-01"
	defaultUserAgent = "bizflow-messaging/0.1"
)

// Config controls how the client behaves.
type Config struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	From       string // e.g. "whatsapp:+14155238886"
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
	UserAgent  string
}

// Client wraps the Twilio Messages endpoint.
type Client struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
	userAgent  string
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.AccountSID) == "" {
		return nil, errors.New("twilioclient: account SID is required")
	}
	if strings.TrimSpace(cfg.AuthToken) == "" {
		return nil, errors.New("twilioclient: auth token is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.From,
		baseURL:    baseURL,
		httpClient: httpClient,
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger,
		userAgent:  userAgent,
	}, nil
}

// MessageResponse is the slice of Twilio's response the callers care about.
type MessageResponse struct {
	Sid    string `json:"sid"`
	Status string `json:"status"`
}

// SendWhatsApp posts one outbound WhatsApp message.
func (c *Client) SendWhatsApp(ctx context.Context, to, body string) (*MessageResponse, error) {
	if strings.TrimSpace(to) == "" {
		return nil, errors.New("twilioclient: recipient required")
	}
	if strings.TrimSpace(body) == "" {
		return nil, errors.New("twilioclient: body required")
	}
	form := url.Values{}
	form.Set("From", c.from)
	form.Set("To", to)
	form.Set("Body", body)

	data, err := c.invoke(ctx, "/Accounts/"+c.accountSID+"/Messages.json", form)
	if err != nil {
		return nil, err
	}
	var out MessageResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("twilioclient: decode response: %w", err)
	}
	return &out, nil
}

func (c *Client) invoke(ctx context.Context, path string, form url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	encoded := form.Encode()
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, strings.NewReader(encoded))
		if err != nil {
			return nil, fmt.Errorf("twilioclient: build request: %w", err)
		}
		req.SetBasicAuth(c.accountSID, c.authToken)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if attempt == c.maxRetries {
				return nil, fmt.Errorf("twilioclient: http error: %w", err)
			}
			lastErr = err
			c.logRetry(path, attempt, 0, err)
			if sleepErr := c.sleep(ctx, attempt); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}
		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("twilioclient: read response: %w", readErr)
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return data, nil
		}
		apiErr := fmt.Errorf("twilioclient: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		if attempt < c.maxRetries && retryableStatus(resp.StatusCode) {
			lastErr = apiErr
			c.logRetry(path, attempt, resp.StatusCode, apiErr)
			if sleepErr := c.sleep(ctx, attempt); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}
		return nil, apiErr
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.New("twilioclient: request failed without response")
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func (c *Client) sleep(ctx context.Context, attempt int) error {
	delay := c.backoff << attempt
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) logRetry(path string, attempt, status int, err error) {
	c.logger.Warn("twilio request retry",
		"path", path,
		"attempt", attempt+1,
		"status", status,
		"error", err,
	)
}
