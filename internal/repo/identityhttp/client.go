package identityhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gautamankoji/evenscape-event-showcase/internal/infra/httpclient"
)

// Client talks to the external identity provider that owns user records.
// The provider stores the current tier in a mutable public metadata bag;
// this client reads it and requests writes, it never owns the data.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type RequestError struct {
	Op         string
	StatusCode int
	Detail     string
	Err        error
}

func (e *RequestError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Err != nil && e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d: %v", e.Op, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d", e.Op, e.StatusCode)
	default:
		return e.Op
	}
}

func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ServerDetail returns the provider-supplied error message from err, if any.
func ServerDetail(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Detail
	}
	return ""
}

type UserRecord struct {
	ID       string
	Tier     string
	Metadata map[string]any
}

type userPayload struct {
	ID             string         `json:"id"`
	PublicMetadata map[string]any `json:"public_metadata"`
}

type updateTierRequest struct {
	PublicMetadata map[string]any `json:"public_metadata"`
}

type errorPayload struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func NewClient(baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, fmt.Errorf("identity base url is required")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse identity base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid identity base url: %s", trimmed)
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

func (c *Client) GetUser(ctx context.Context, userID string) (UserRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return UserRecord{}, &RequestError{Op: "get user", Err: errors.New("user id is required")}
	}

	var payload userPayload
	if err := c.doJSON(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(userID), nil, &payload); err != nil {
		return UserRecord{}, err
	}

	return recordFromPayload(payload), nil
}

// UpdateTier requests the tier write on the provider's metadata bag and
// returns the updated record as echoed by the provider.
func (c *Client) UpdateTier(ctx context.Context, userID, tier string) (UserRecord, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(tier) == "" {
		return UserRecord{}, &RequestError{Op: "update tier", Err: errors.New("user id and tier are required")}
	}

	body := updateTierRequest{PublicMetadata: map[string]any{"tier": tier}}
	var payload userPayload
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/users/"+url.PathEscape(userID)+"/metadata", body, &payload); err != nil {
		return UserRecord{}, err
	}

	return recordFromPayload(payload), nil
}

func recordFromPayload(payload userPayload) UserRecord {
	record := UserRecord{
		ID:       payload.ID,
		Metadata: payload.PublicMetadata,
	}
	if raw, ok := payload.PublicMetadata["tier"]; ok {
		if tier, ok := raw.(string); ok {
			record.Tier = tier
		}
	}
	return record
}

func (c *Client) doJSON(ctx context.Context, method, path string, requestBody, responseBody any) error {
	if c == nil || c.httpClient == nil {
		return &RequestError{Op: "do json request", Err: errors.New("identity client is not initialized")}
	}

	var bodyReader io.Reader
	if requestBody != nil {
		payload, err := json.Marshal(requestBody)
		if err != nil {
			return &RequestError{Op: "marshal request body", Err: err}
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return &RequestError{Op: "create http request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RequestError{Op: "execute http request", Err: err}
	}
	defer resp.Body.Close()

	responseBytes, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if readErr != nil {
		return &RequestError{Op: "read http response", StatusCode: resp.StatusCode, Err: readErr}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := decodeErrorDetail(responseBytes)
		return &RequestError{
			Op:         "unexpected http status",
			StatusCode: resp.StatusCode,
			Detail:     detail,
			Err:        errors.New(nonEmpty(detail, http.StatusText(resp.StatusCode))),
		}
	}

	if responseBody == nil || len(responseBytes) == 0 {
		return nil
	}
	if err := json.Unmarshal(responseBytes, responseBody); err != nil {
		return &RequestError{Op: "decode http response", StatusCode: resp.StatusCode, Err: err}
	}

	return nil
}

func decodeErrorDetail(body []byte) string {
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err == nil {
		if strings.TrimSpace(payload.Error) != "" {
			return strings.TrimSpace(payload.Error)
		}
		if strings.TrimSpace(payload.Details) != "" {
			return strings.TrimSpace(payload.Details)
		}
	}
	return strings.TrimSpace(string(body))
}

func nonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
