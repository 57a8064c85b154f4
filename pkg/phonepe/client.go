package phonepe

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
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
	defaultBaseURL             = "https://api.phonepe.com/apis/hermes"
	payPath                    = "/pg/v1/pay"
	statusPathPrefix           = "/pg/v1/status"
	requestBodyReadLimit int64 = 1024
)

// Result codes returned by the PhonePe PG.
const (
	CodePaymentSuccess = "PAYMENT_SUCCESS"
	CodePaymentError   = "PAYMENT_ERROR"
	CodePaymentPending = "PAYMENT_PENDING"
)

var (
	errMerchantIDRequired = errors.New("phonepe merchant id is required")
	errSaltKeyRequired    = errors.New("phonepe salt key is required")
)

// Client wraps the PhonePe payment gateway checksum scheme and endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	merchantID string
	saltKey    string
	saltIndex  string
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

// WithBaseURL overrides the configured PhonePe base URL.
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

// NewClient builds the PhonePe client from merchant credentials.
func NewClient(merchantID, saltKey, saltIndex string, opts ...Option) (*Client, error) {
	merchantID = strings.TrimSpace(merchantID)
	if merchantID == "" {
		return nil, errMerchantIDRequired
	}
	saltKey = strings.TrimSpace(saltKey)
	if saltKey == "" {
		return nil, errSaltKeyRequired
	}
	saltIndex = strings.TrimSpace(saltIndex)
	if saltIndex == "" {
		saltIndex = "1"
	}

	client := &Client{
		merchantID: merchantID,
		saltKey:    saltKey,
		saltIndex:  saltIndex,
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

// MerchantID returns the configured merchant id.
func (c *Client) MerchantID() string {
	if c == nil {
		return ""
	}
	return c.merchantID
}

// PayRequest describes a hosted-page payment. Amount is in paise.
type PayRequest struct {
	MerchantTransactionID string
	MerchantUserID        string
	AmountPaise           int64
	RedirectURL           string
	CallbackURL           string
	MobileNumber          string
}

// PayResult carries the redirect the client widget needs.
type PayResult struct {
	Success     bool
	Code        string
	Message     string
	RedirectURL string
	Raw         map[string]any
}

// StatusResult is the gateway's settlement view of a transaction.
type StatusResult struct {
	Success       bool
	Code          string
	Message       string
	State         string
	AmountPaise   int64
	ProviderTxnID string
	Raw           map[string]any
}

// CallbackPayload is the decoded body of a server-to-server callback.
type CallbackPayload struct {
	Code                  string
	MerchantID            string
	MerchantTransactionID string
	ProviderTxnID         string
	AmountPaise           int64
	State                 string
	Raw                   map[string]any
}

type payPayload struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId,omitempty"`
	Amount                int64             `json:"amount"`
	RedirectURL           string            `json:"redirectUrl,omitempty"`
	RedirectMode          string            `json:"redirectMode,omitempty"`
	CallbackURL           string            `json:"callbackUrl,omitempty"`
	MobileNumber          string            `json:"mobileNumber,omitempty"`
	PaymentInstrument     paymentInstrument `json:"paymentInstrument"`
}

type paymentInstrument struct {
	Type string `json:"type"`
}

// Pay submits a hosted-page payment request.
func (c *Client) Pay(ctx context.Context, req PayRequest) (*PayResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "phonepe client not configured")
	}
	if strings.TrimSpace(req.MerchantTransactionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant transaction id is required")
	}
	if req.AmountPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	payload := payPayload{
		MerchantID:            c.merchantID,
		MerchantTransactionID: req.MerchantTransactionID,
		MerchantUserID:        req.MerchantUserID,
		Amount:                req.AmountPaise,
		RedirectURL:           req.RedirectURL,
		RedirectMode:          "REDIRECT",
		CallbackURL:           req.CallbackURL,
		MobileNumber:          req.MobileNumber,
		PaymentInstrument:     paymentInstrument{Type: "PAY_PAGE"},
	}
	marshaled, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal pay payload")
	}
	encoded := base64.StdEncoding.EncodeToString(marshaled)

	body, err := json.Marshal(map[string]string{"request": encoded})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal pay request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(payPath), bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build pay request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-VERIFY", c.checksum(encoded+payPath))

	raw, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var apiResp struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
		Message string `json:"message"`
		Data    struct {
			InstrumentResponse struct {
				RedirectInfo struct {
					URL string `json:"url"`
				} `json:"redirectInfo"`
			} `json:"instrumentResponse"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode pay response")
	}

	var rawMap map[string]any
	_ = json.Unmarshal(raw, &rawMap)

	return &PayResult{
		Success:     apiResp.Success,
		Code:        apiResp.Code,
		Message:     apiResp.Message,
		RedirectURL: apiResp.Data.InstrumentResponse.RedirectInfo.URL,
		Raw:         rawMap,
	}, nil
}

// Status queries the settlement state of a merchant transaction.
func (c *Client) Status(ctx context.Context, merchantTxnID string) (*StatusResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "phonepe client not configured")
	}
	merchantTxnID = strings.TrimSpace(merchantTxnID)
	if merchantTxnID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant transaction id is required")
	}

	path := fmt.Sprintf("%s/%s/%s", statusPathPrefix, c.merchantID, merchantTxnID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(path), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build status request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-VERIFY", c.checksum(path))
	httpReq.Header.Set("X-MERCHANT-ID", c.merchantID)

	raw, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var apiResp struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
		Message string `json:"message"`
		Data    struct {
			TransactionID string `json:"transactionId"`
			Amount        int64  `json:"amount"`
			State         string `json:"state"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode status response")
	}

	var rawMap map[string]any
	_ = json.Unmarshal(raw, &rawMap)

	return &StatusResult{
		Success:       apiResp.Success,
		Code:          apiResp.Code,
		Message:       apiResp.Message,
		State:         apiResp.Data.State,
		AmountPaise:   apiResp.Data.Amount,
		ProviderTxnID: apiResp.Data.TransactionID,
		Raw:           rawMap,
	}, nil
}

// VerifyCallback checks the X-VERIFY header against the raw callback body.
func (c *Client) VerifyCallback(xVerify, encodedBody string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "phonepe client not configured")
	}
	if strings.TrimSpace(xVerify) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "callback signature missing")
	}
	expected := c.checksum(encodedBody)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(xVerify)) != 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "callback signature mismatch")
	}
	return nil
}

// DecodeCallback decodes the base64 response body of a callback.
func DecodeCallback(encodedBody string) (*CallbackPayload, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encodedBody))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode callback body")
	}

	var payload struct {
		Code string `json:"code"`
		Data struct {
			MerchantID            string `json:"merchantId"`
			MerchantTransactionID string `json:"merchantTransactionId"`
			TransactionID         string `json:"transactionId"`
			Amount                int64  `json:"amount"`
			State                 string `json:"state"`
		} `json:"data"`
	}
	if err := json.Unmarshal(decoded, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse callback body")
	}

	var rawMap map[string]any
	_ = json.Unmarshal(decoded, &rawMap)

	return &CallbackPayload{
		Code:                  payload.Code,
		MerchantID:            payload.Data.MerchantID,
		MerchantTransactionID: payload.Data.MerchantTransactionID,
		ProviderTxnID:         payload.Data.TransactionID,
		AmountPaise:           payload.Data.Amount,
		State:                 payload.Data.State,
		Raw:                   rawMap,
	}, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute phonepe request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "phonepe request failed")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read phonepe response")
	}
	return body, nil
}

// checksum implements PhonePe's X-VERIFY scheme:
// sha256(payload + saltKey) joined with the salt index.
func (c *Client) checksum(payload string) string {
	sum := sha256.Sum256([]byte(payload + c.saltKey))
	return hex.EncodeToString(sum[:]) + "###" + c.saltIndex
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = "/" + strings.TrimLeft(path, "/")
	return trimmed + path
}
