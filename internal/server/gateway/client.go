// Package gateway is a typed client for the two payment gateway calls the
// wallet needs: initialize a transaction and verify it by reference.
// Amounts cross this boundary in minor units.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/gopherwallet/internal/common"
	"github.com/dmitrijs2005/gopherwallet/internal/money"
)

// StatusSuccess is the transaction status reported for a completed payment.
const StatusSuccess = "success"

// maxResponseBytes caps how much of a gateway response body is read.
const maxResponseBytes = 1 << 20

// Initialization is the result of a successful initialize call.
type Initialization struct {
	Reference        string
	AuthorizationURL string
}

// Verification is the gateway's view of one transaction.
type Verification struct {
	Status      string
	AmountMinor int64
}

// Succeeded reports whether the transaction was paid.
func (v *Verification) Succeeded() bool { return v.Status == StatusSuccess }

// Amount returns the verified amount in major units.
func (v *Verification) Amount() decimal.Decimal { return money.FromMinor(v.AmountMinor) }

// Client talks to a Paystack-compatible API.
type Client struct {
	baseURL      string
	secretKey    string
	httpClient   *http.Client
	newReference func() string
}

type Option func(*Client)

// WithHTTPClient replaces the default client. Its timeout is left untouched.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

// WithReferenceGenerator replaces uuid.NewString as the source of references.
func WithReferenceGenerator(f func() string) Option { return func(c *Client) { c.newReference = f } }

// NewClient builds a client whose calls each complete within timeout.
func NewClient(baseURL, secretKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		secretKey:    secretKey,
		httpClient:   &http.Client{Timeout: timeout},
		newReference: uuid.NewString,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type initializeRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"`
	Reference   string `json:"reference"`
	CallbackURL string `json:"callback_url"`
}

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Status string `json:"status"`
	Amount int64  `json:"amount"`
}

// Initialize opens a transaction for amountMinor under a fresh reference and
// returns the hosted payment page the browser is sent to.
func (c *Client) Initialize(ctx context.Context, email string, amountMinor int64, callbackURL string) (*Initialization, error) {
	if amountMinor <= 0 {
		return nil, fmt.Errorf("%w: %d minor units", common.ErrInvalidAmount, amountMinor)
	}

	reference := c.newReference()
	body, err := json.Marshal(initializeRequest{
		Email:       email,
		Amount:      amountMinor,
		Reference:   reference,
		CallbackURL: callbackURL,
	})
	if err != nil {
		return nil, err
	}

	var res envelope[initializeData]
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", bytes.NewReader(body), &res); err != nil {
		return nil, err
	}
	if !res.Status || res.Data.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: %s", common.ErrGatewayRejected, res.Message)
	}
	if res.Data.Reference != "" && res.Data.Reference != reference {
		return nil, fmt.Errorf("%w: reference mismatch", common.ErrGatewayRejected)
	}

	return &Initialization{Reference: reference, AuthorizationURL: res.Data.AuthorizationURL}, nil
}

// Verify asks the gateway for the outcome of reference.
func (c *Client) Verify(ctx context.Context, reference string) (*Verification, error) {
	if reference == "" {
		return nil, fmt.Errorf("%w: empty reference", common.ErrGatewayRejected)
	}

	var res envelope[verifyData]
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &res); err != nil {
		return nil, err
	}
	if !res.Status {
		return nil, fmt.Errorf("%w: %s", common.ErrGatewayRejected, res.Message)
	}

	return &Verification{Status: res.Data.Status, AmountMinor: res.Data.Amount}, nil
}

// do sends one request. Transport failures, timeouts, 5xx answers and
// undecodable bodies map to common.ErrGatewayUnreachable; the caller decides
// on rejection from the decoded status flag.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrGatewayUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", common.ErrGatewayUnreachable, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", common.ErrGatewayUnreachable, err)
	}
	return nil
}
