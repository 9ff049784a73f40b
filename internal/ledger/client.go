package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"venuepoint-terminal/internal/model"
)

// Client is the HTTP implementation of Ledger against the VenuePoint backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      CredentialSource
}

// ClientConfig holds settings for the backend client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Creds   CredentialSource
}

// NewClient creates a backend client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		creds:      cfg.Creds,
	}
}

// envelope mirrors the backend's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// LookupByPhone resolves a customer from normalized phone digits.
func (c *Client) LookupByPhone(ctx context.Context, digits string) (*model.Customer, error) {
	return c.lookup(ctx, url.Values{"phone": {digits}})
}

// LookupByCode resolves a customer from a scanned or manually entered code.
func (c *Client) LookupByCode(ctx context.Context, code string) (*model.Customer, error) {
	return c.lookup(ctx, url.Values{"code": {code}})
}

func (c *Client) lookup(ctx context.Context, query url.Values) (*model.Customer, error) {
	var customer model.Customer
	err := c.do(ctx, http.MethodGet, "/v1/customers/lookup?"+query.Encode(), nil, &customer)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// GrantPoints awards points for a purchase.
func (c *Client) GrantPoints(ctx context.Context, req model.GrantRequest) (*model.GrantResult, error) {
	var result model.GrantResult
	if err := c.do(ctx, http.MethodPost, "/v1/points/grant", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RedeemPoints spends customer points as a discount.
func (c *Client) RedeemPoints(ctx context.Context, req model.RedeemRequest) (*model.RedeemResult, error) {
	var result model.RedeemResult
	if err := c.do(ctx, http.MethodPost, "/v1/points/redeem", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MerchantBalance fetches the merchant's remaining prepaid points.
func (c *Client) MerchantBalance(ctx context.Context) (*model.MerchantBalance, error) {
	var balance model.MerchantBalance
	if err := c.do(ctx, http.MethodGet, "/v1/merchant/balance", nil, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

// do issues one request with the per-call credential and decodes the
// response envelope into out.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if c.creds != nil {
		cred, err := c.creds.Credential(ctx)
		if err != nil {
			return fmt.Errorf("failed to obtain credential: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+cred)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode backend response (status %d): %w", resp.StatusCode, err)
	}

	if !env.Success {
		if env.Error == nil {
			return fmt.Errorf("backend rejected request with status %d", resp.StatusCode)
		}
		if env.Error.Code == CodeCustomerNotFound {
			return ErrNotFound
		}
		return &TransactionError{Code: env.Error.Code, Message: env.Error.Message}
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode backend payload: %w", err)
		}
	}
	return nil
}
