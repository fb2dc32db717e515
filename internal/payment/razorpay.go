package payment

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

	"blogsmith/internal/domain"
)

const (
	razorpayDefaultBaseURL = "https://api.razorpay.com"
	razorpayDefaultTimeout = 20 * time.Second
)

// OrderRequest is the body of a Razorpay order creation.
type OrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// Order is the subset of the Razorpay order we use.
type Order struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Status   string            `json:"status"`
	Notes    map[string]string `json:"notes"`
}

// Refund is the subset of a Razorpay refund we log.
type Refund struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

// OrderGateway creates, looks up and refunds payment orders.
type OrderGateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	FetchOrder(ctx context.Context, orderID string) (*Order, error)
	RefundPayment(ctx context.Context, paymentID, reason string) (*Refund, error)
}

type RazorpayOptions struct {
	KeyID      string
	KeySecret  string
	BaseURL    string
	HTTPClient *http.Client
}

type RazorpayClient struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
}

func NewRazorpayClient(opts RazorpayOptions) (*RazorpayClient, error) {
	keyID := strings.TrimSpace(opts.KeyID)
	secret := strings.TrimSpace(opts.KeySecret)
	if keyID == "" || secret == "" {
		return nil, errors.New("razorpay key id and secret are required")
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = razorpayDefaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: razorpayDefaultTimeout}
	}
	return &RazorpayClient{keyID: keyID, keySecret: secret, baseURL: base, client: client}, nil
}

func (c *RazorpayClient) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodPost, "/v1/orders", req, &order); err != nil {
		return nil, err
	}
	if order.ID == "" {
		return nil, fmt.Errorf("%w: razorpay order without id", domain.ErrProviderFailure)
	}
	return &order, nil
}

func (c *RazorpayClient) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is required", domain.ErrInvalidInput)
	}
	var order Order
	if err := c.do(ctx, http.MethodGet, "/v1/orders/"+url.PathEscape(orderID), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// RefundPayment refunds the full captured amount of paymentID.
func (c *RazorpayClient) RefundPayment(ctx context.Context, paymentID, reason string) (*Refund, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, fmt.Errorf("%w: payment id is required", domain.ErrInvalidInput)
	}
	body := map[string]any{
		"speed": "normal",
		"notes": map[string]string{"reason": reason},
	}
	var refund Refund
	if err := c.do(ctx, http.MethodPost, "/v1/payments/"+url.PathEscape(paymentID)+"/refund", body, &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}

func (c *RazorpayClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return fmt.Errorf("encode razorpay request: %w", err)
		}
		body = &buf
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build razorpay request: %w", err)
	}
	httpReq.SetBasicAuth(c.keyID, c.keySecret)
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: razorpay request: %v", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%w: razorpay status %d: %s", domain.ErrProviderFailure, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode razorpay response: %v", domain.ErrProviderFailure, err)
	}
	return nil
}

var _ OrderGateway = (*RazorpayClient)(nil)
