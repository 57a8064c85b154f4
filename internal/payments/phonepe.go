package payments

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/printveda/printveda-backend/pkg/enums"
	pkgerrors "github.com/printveda/printveda-backend/pkg/errors"
	"github.com/printveda/printveda-backend/pkg/phonepe"
)

// PhonePeAPI is the client surface the adapter depends on.
type PhonePeAPI interface {
	Pay(ctx context.Context, req phonepe.PayRequest) (*phonepe.PayResult, error)
	Status(ctx context.Context, merchantTxnID string) (*phonepe.StatusResult, error)
}

// PhonePeProvider adapts the PhonePe PG to the Provider surface. Settlement is
// callback-driven: the gateway calls back into this system with the final
// state, and CheckStatus exists only as a query fallback. That asymmetry with
// the polled UPI gateway is deliberate.
type PhonePeProvider struct {
	client      PhonePeAPI
	callbackURL string
}

// NewPhonePeProvider builds the PhonePe provider. client may be nil when the
// merchant credentials are absent.
func NewPhonePeProvider(client PhonePeAPI, callbackURL string) *PhonePeProvider {
	return &PhonePeProvider{client: client, callbackURL: callbackURL}
}

// Method implements Provider.
func (p *PhonePeProvider) Method() enums.PaymentMethod {
	return enums.PaymentMethodPhonePe
}

// CreatePayment submits a hosted-page payment. The merchant order id reuses
// the caller's transaction id so the callback correlates to the stored order.
func (p *PhonePeProvider) CreatePayment(ctx context.Context, req InitRequest) (*InitResult, error) {
	if p.client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfig, "Payment gateway configuration error: PhonePe merchant credentials missing")
	}

	paisa := req.Amount.Mul(decimal.NewFromInt(100)).IntPart()
	result, err := p.client.Pay(ctx, phonepe.PayRequest{
		MerchantTransactionID: req.TransactionID,
		MerchantUserID:        strings.ToLower(req.CustomerEmail),
		AmountPaise:           paisa,
		RedirectURL:           req.RedirectURL,
		CallbackURL:           p.callbackURL,
		MobileNumber:          req.CustomerMobile,
	})
	if err != nil {
		return nil, err
	}
	if !result.Success {
		msg := result.Message
		if strings.TrimSpace(msg) == "" {
			msg = "payment request declined"
		}
		return nil, pkgerrors.New(pkgerrors.CodeProviderRejected, msg)
	}

	return &InitResult{
		OrderID:       req.TransactionID,
		InitialStatus: enums.OrderStatusPending,
		RedirectURL:   result.RedirectURL,
		SessionID:     req.TransactionID,
		Raw:           result.Raw,
	}, nil
}

// CheckStatus queries the PG directly; used by the GET status variant and the
// sweep worker, not by the normal callback path.
func (p *PhonePeProvider) CheckStatus(ctx context.Context, query StatusQuery) (*StatusResult, error) {
	if p.client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfig, "Payment gateway configuration error: PhonePe merchant credentials missing")
	}

	merchantTxnID := query.OrderID
	if merchantTxnID == "" {
		merchantTxnID = query.TransactionID
	}

	result, err := p.client.Status(ctx, merchantTxnID)
	if err != nil {
		return nil, err
	}

	return &StatusResult{
		State:         MapPhonePeCode(result.Code),
		Amount:        decimal.New(result.AmountPaise, -2),
		ProviderTxnID: result.ProviderTxnID,
		Raw:           result.Raw,
	}, nil
}

// MapPhonePeCode normalizes a PhonePe result code onto the canonical
// settlement states. Unrecognized codes stay pending.
func MapPhonePeCode(code string) enums.SettlementState {
	switch code {
	case phonepe.CodePaymentSuccess:
		return enums.SettlementSuccess
	case phonepe.CodePaymentError:
		return enums.SettlementFailure
	default:
		return enums.SettlementPending
	}
}
