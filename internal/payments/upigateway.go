package payments

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/printveda/printveda-backend/pkg/enums"
	pkgerrors "github.com/printveda/printveda-backend/pkg/errors"
	"github.com/printveda/printveda-backend/pkg/upigateway"
)

// UPIGatewayAPI is the client surface the adapter depends on.
type UPIGatewayAPI interface {
	CreateOrder(ctx context.Context, req upigateway.CreateOrderRequest) (*upigateway.CreateOrderResult, error)
	CheckOrderStatus(ctx context.Context, req upigateway.OrderStatusRequest) (*upigateway.OrderStatusResult, error)
}

// UPIGatewayProvider adapts the hosted UPI QR gateway to the Provider surface.
// A nil client means the gateway key was never configured; payment creation
// then fails with a config error before any order is persisted.
type UPIGatewayProvider struct {
	client UPIGatewayAPI
}

// NewUPIGatewayProvider builds the UPI provider. client may be nil when the
// gateway credentials are absent.
func NewUPIGatewayProvider(client UPIGatewayAPI) *UPIGatewayProvider {
	return &UPIGatewayProvider{client: client}
}

// Method implements Provider.
func (p *UPIGatewayProvider) Method() enums.PaymentMethod {
	return enums.PaymentMethodUPI
}

// CreatePayment submits a collect request. Gateway-level rejection surfaces
// the gateway's message; transport failures map to dependency errors.
func (p *UPIGatewayProvider) CreatePayment(ctx context.Context, req InitRequest) (*InitResult, error) {
	if p.client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfig, "Payment gateway configuration error: UPI gateway key missing")
	}

	result, err := p.client.CreateOrder(ctx, upigateway.CreateOrderRequest{
		ClientTxnID:    req.TransactionID,
		Amount:         req.Amount.String(),
		ProductInfo:    req.ItemsDescription,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		CustomerMobile: req.CustomerMobile,
		RedirectURL:    req.RedirectURL,
	})
	if err != nil {
		return nil, err
	}
	if !result.Accepted {
		msg := result.Msg
		if strings.TrimSpace(msg) == "" {
			msg = "payment request declined"
		}
		return nil, pkgerrors.New(pkgerrors.CodeProviderRejected, msg)
	}

	return &InitResult{
		OrderID:       strconv.FormatInt(result.OrderID, 10),
		InitialStatus: enums.OrderStatusPending,
		RedirectURL:   result.PaymentURL,
		SessionID:     req.TransactionID,
		Raw:           result.Raw,
	}, nil
}

// CheckStatus maps the gateway's status string onto the canonical settlement
// states; anything that is not success or failure stays pending.
func (p *UPIGatewayProvider) CheckStatus(ctx context.Context, query StatusQuery) (*StatusResult, error) {
	if p.client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfig, "Payment gateway configuration error: UPI gateway key missing")
	}

	result, err := p.client.CheckOrderStatus(ctx, upigateway.OrderStatusRequest{
		ClientTxnID: query.TransactionID,
		TxnDate:     query.TxnDate,
	})
	if err != nil {
		return nil, err
	}

	amount := decimal.Zero
	if result.Amount != "" {
		if parsed, parseErr := decimal.NewFromString(result.Amount); parseErr == nil {
			amount = parsed
		}
	}

	return &StatusResult{
		State:         enums.ParseSettlementState(result.Status),
		Amount:        amount,
		ProviderTxnID: result.UPITxnID,
		Raw:           result.Raw,
	}, nil
}
