// Package mercadopago adapts Mercado Pago to ports.PaymentProvider. Payment
// lookups go through the official SDK; orders are posted directly because the
// caller needs the provider's JSON byte for byte.
package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"

	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

const (
	DefaultBaseURL = "https://api.mercadopago.com"
	defaultTimeout = 10 * time.Second
	maxBodySize    = 1 << 20
)

// Config holds the client settings.
type Config struct {
	AccessToken string
	BaseURL     string
	Timeout     time.Duration
}

// Client implements ports.PaymentProvider.
type Client struct {
	accessToken string
	baseURL     string
	http        *http.Client
	payments    payment.Client
	newKey      func() string
}

// NewClient creates a Client. The access token is required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("mercadopago: access token is required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := &http.Client{Timeout: timeout}
	if baseURL != DefaultBaseURL {
		target, err := url.Parse(baseURL)
		if err != nil || target.Host == "" {
			return nil, fmt.Errorf("mercadopago: invalid base url %q", cfg.BaseURL)
		}
		// The SDK always targets DefaultBaseURL.
		httpClient.Transport = &rebaseTransport{target: target, next: http.DefaultTransport}
	}

	sdkCfg, err := config.New(cfg.AccessToken, config.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("mercadopago: sdk config: %w", err)
	}

	return &Client{
		accessToken: cfg.AccessToken,
		baseURL:     baseURL,
		http:        httpClient,
		payments:    payment.NewClient(sdkCfg),
		newKey:      uuid.NewString,
	}, nil
}

// rebaseTransport sends every request to target, keeping path and query.
type rebaseTransport struct {
	target *url.URL
	next   http.RoundTripper
}

func (t *rebaseTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = t.target.Scheme
	out.URL.Host = t.target.Host
	if p := strings.TrimRight(t.target.Path, "/"); p != "" && !strings.HasPrefix(out.URL.Path, p+"/") {
		out.URL.Path = p + out.URL.Path
	}
	out.Host = t.target.Host
	return t.next.RoundTrip(out)
}

// APIError is a non-2xx answer from the provider.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("mercadopago: http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("mercadopago: http %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error { return domain.ErrProviderRejected }

type orderRequest struct {
	Type              string            `json:"type"`
	ExternalReference string            `json:"external_reference,omitempty"`
	ProcessingMode    string            `json:"processing_mode"`
	TotalAmount       string            `json:"total_amount"`
	Transactions      orderTransactions `json:"transactions"`
	Payer             orderPayer        `json:"payer"`
}

type orderTransactions struct {
	Payments []orderPayment `json:"payments"`
}

type orderPayment struct {
	Amount        string             `json:"amount"`
	PaymentMethod orderPaymentMethod `json:"payment_method"`
}

type orderPaymentMethod struct {
	ID                  string `json:"id"`
	Type                string `json:"type"`
	Installments        int    `json:"installments,omitempty"`
	StatementDescriptor string `json:"statement_descriptor,omitempty"`
	Token               string `json:"token,omitempty"`
}

type orderPayer struct {
	Email          string               `json:"email"`
	FirstName      string               `json:"first_name,omitempty"`
	Identification *orderIdentification `json:"identification,omitempty"`
}

type orderIdentification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

func buildOrder(in ports.PaymentOrderInput) orderRequest {
	amount := formatAmount(in.Amount)
	req := orderRequest{
		Type:              "online",
		ExternalReference: in.RoomID,
		ProcessingMode:    "automatic",
		TotalAmount:       amount,
		Transactions: orderTransactions{Payments: []orderPayment{{
			Amount: amount,
			PaymentMethod: orderPaymentMethod{
				ID:                  in.PaymentMethodID,
				Type:                in.PaymentMethodType,
				Installments:        in.Installments,
				StatementDescriptor: in.Description,
				Token:               in.CardToken,
			},
		}}},
		Payer: orderPayer{
			Email:     in.Payer.Email,
			FirstName: in.Payer.FirstName,
		},
	}
	if in.Payer.IdentificationType != "" || in.Payer.IdentificationNumber != "" {
		req.Payer.Identification = &orderIdentification{
			Type:   in.Payer.IdentificationType,
			Number: in.Payer.IdentificationNumber,
		}
	}
	return req
}

// formatAmount renders amounts the way the orders API expects them: a decimal
// string with two places.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// CreateOrder submits a single order (POST /v1/orders). Each call carries a
// fresh idempotency key; the call is not retried.
func (c *Client) CreateOrder(ctx context.Context, in ports.PaymentOrderInput) (json.RawMessage, error) {
	body, err := json.Marshal(buildOrder(in))
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Key", c.newKey())

	return c.do(req)
}

// GetPayment fetches the authoritative payment record (GET /v1/payments/{id})
// through the SDK. Mercado Pago payment ids are numeric.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*ports.ProviderPayment, error) {
	if paymentID == "" {
		return nil, domain.ErrMissingPaymentID
	}
	id, err := strconv.Atoi(paymentID)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: payment id %q is not numeric: %w", paymentID, domain.ErrProviderRejected)
	}

	res, err := c.payments.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: get payment %s: %w", paymentID, err)
	}

	return &ports.ProviderPayment{
		ID:                strconv.Itoa(res.ID),
		Status:            domain.PaymentStatus(res.Status),
		StatusDetail:      res.StatusDetail,
		ExternalReference: res.ExternalReference,
		Amount:            res.TransactionAmount,
	}, nil
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		var e struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &e) == nil {
			apiErr.Message = e.Message
		}
		return nil, apiErr
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("mercadopago: invalid json response")
	}
	return json.RawMessage(body), nil
}
