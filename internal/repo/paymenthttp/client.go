package paymenthttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gautamankoji/evenscape-event-showcase/internal/infra/httpclient"
)

// Client talks to the external payment processor. A checkout either returns
// a hosted payment URL the user must be redirected to, or reports that the
// charge was captured synchronously.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type CheckoutInput struct {
	UserID string
	Tier   string
	Amount float64
}

type CheckoutResult struct {
	PaymentURL string
	Captured   bool
}

type checkoutRequest struct {
	UserID string  `json:"user_id"`
	Tier   string  `json:"tier"`
	Amount float64 `json:"amount"`
}

type checkoutResponse struct {
	PaymentURL string `json:"payment_url"`
	Captured   bool   `json:"captured"`
}

func NewClient(baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, fmt.Errorf("payments base url is required")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse payments base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid payments base url: %s", trimmed)
	}

	if timeout <= 0 {
		timeout = 8 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: httpclient.New(timeout),
	}, nil
}

func (c *Client) CreateCheckout(ctx context.Context, in CheckoutInput) (CheckoutResult, error) {
	if c == nil || c.httpClient == nil {
		return CheckoutResult{}, fmt.Errorf("payments client is not initialized")
	}
	if strings.TrimSpace(in.UserID) == "" || strings.TrimSpace(in.Tier) == "" {
		return CheckoutResult{}, fmt.Errorf("user id and tier are required")
	}
	if in.Amount <= 0 {
		return CheckoutResult{}, fmt.Errorf("amount must be positive")
	}

	payload, err := json.Marshal(checkoutRequest{
		UserID: in.UserID,
		Tier:   in.Tier,
		Amount: in.Amount,
	})
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("marshal checkout request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout", bytes.NewReader(payload))
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("create checkout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("execute checkout request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return CheckoutResult{}, fmt.Errorf("checkout failed: status=%d", resp.StatusCode)
	}

	var decoded checkoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return CheckoutResult{}, fmt.Errorf("decode checkout response: %w", err)
	}

	return CheckoutResult{
		PaymentURL: strings.TrimSpace(decoded.PaymentURL),
		Captured:   decoded.Captured,
	}, nil
}
