package upigateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/printveda/printveda-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.ekqr.in"
	createOrderPath            = "api/create_order"
	orderStatusPath            = "api/check_order_status"
	requestBodyReadLimit int64 = 1024
)

var errAPIKeyRequired = errors.New("upi gateway api key is required")

// Client wraps the hosted UPI QR gateway used for collect requests.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured gateway base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the UPI gateway client given the merchant API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// CreateOrderRequest is the payload for a new collect request. Amount is a
// rupee string, as the gateway expects.
type CreateOrderRequest struct {
	ClientTxnID    string `json:"client_txn_id"`
	Amount         string `json:"amount"`
	ProductInfo    string `json:"p_info"`
	CustomerName   string `json:"customer_name"`
	CustomerEmail  string `json:"customer_email"`
	CustomerMobile string `json:"customer_mobile"`
	RedirectURL    string `json:"redirect_url"`
}

// CreateOrderResult holds the gateway's decision on a collect request.
// Accepted reports the gateway-level status flag; Msg carries the gateway's
// human-readable reason when the request is declined.
type CreateOrderResult struct {
	Accepted   bool
	Msg        string
	OrderID    int64
	PaymentURL string
	Raw        map[string]any
}

// OrderStatusRequest identifies a transaction for a status lookup. TxnDate is
// dd-mm-yyyy, the gateway's required format.
type OrderStatusRequest struct {
	ClientTxnID string `json:"client_txn_id"`
	TxnDate     string `json:"txn_date"`
}

// OrderStatusResult is the gateway's view of a transaction. Status is the raw
// gateway string; callers normalize it.
type OrderStatusResult struct {
	Found       bool
	Msg         string
	Status      string
	Amount      string
	UPITxnID    string
	CustomerVPA string
	Remark      string
	Raw         map[string]any
}

// CreateOrder submits a collect request to the gateway.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "upi gateway client not configured")
	}
	if strings.TrimSpace(req.ClientTxnID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client transaction id is required")
	}

	payload := struct {
		Key string `json:"key"`
		CreateOrderRequest
	}{Key: c.apiKey, CreateOrderRequest: req}

	var apiResp struct {
		Status bool   `json:"status"`
		Msg    string `json:"msg"`
		Data   struct {
			OrderID    int64  `json:"order_id"`
			PaymentURL string `json:"payment_url"`
		} `json:"data"`
	}
	raw, err := c.post(ctx, createOrderPath, payload, &apiResp)
	if err != nil {
		return nil, err
	}

	return &CreateOrderResult{
		Accepted:   apiResp.Status,
		Msg:        apiResp.Msg,
		OrderID:    apiResp.Data.OrderID,
		PaymentURL: apiResp.Data.PaymentURL,
		Raw:        raw,
	}, nil
}

// CheckOrderStatus queries the gateway for a transaction's settlement state.
func (c *Client) CheckOrderStatus(ctx context.Context, req OrderStatusRequest) (*OrderStatusResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "upi gateway client not configured")
	}
	if strings.TrimSpace(req.ClientTxnID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client transaction id is required")
	}
	if strings.TrimSpace(req.TxnDate) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction date is required")
	}

	payload := struct {
		Key string `json:"key"`
		OrderStatusRequest
	}{Key: c.apiKey, OrderStatusRequest: req}

	var apiResp struct {
		Status bool   `json:"status"`
		Msg    string `json:"msg"`
		Data   struct {
			Status      string `json:"status"`
			Amount      string `json:"amount"`
			UPITxnID    string `json:"upi_txn_id"`
			CustomerVPA string `json:"customer_vpa"`
			Remark      string `json:"remark"`
		} `json:"data"`
	}
	raw, err := c.post(ctx, orderStatusPath, payload, &apiResp)
	if err != nil {
		return nil, err
	}

	return &OrderStatusResult{
		Found:       apiResp.Status,
		Msg:         apiResp.Msg,
		Status:      apiResp.Data.Status,
		Amount:      apiResp.Data.Amount,
		UPITxnID:    apiResp.Data.UPITxnID,
		CustomerVPA: apiResp.Data.CustomerVPA,
		Remark:      apiResp.Data.Remark,
		Raw:         raw,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, dest any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal gateway request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(path), bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build gateway request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute gateway request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "gateway request failed")
	}

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read gateway response")
	}
	if err := json.Unmarshal(rawBody, dest); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gateway response")
	}

	var raw map[string]any
	_ = json.Unmarshal(rawBody, &raw)
	return raw, nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
