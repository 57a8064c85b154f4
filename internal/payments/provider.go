package payments

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/printveda/printveda-backend/pkg/enums"
	"github.com/printveda/printveda-backend/pkg/types"
)

// InitRequest is the provider-neutral payment creation request. Amount is in
// rupees. The transaction id is minted by the caller, fresh per attempt.
type InitRequest struct {
	TransactionID    string
	Amount           decimal.Decimal
	ItemsDescription string
	CustomerName     string
	CustomerEmail    string
	CustomerMobile   string
	Address          string
	RedirectURL      string
}

// InitResult is the canonical outcome of an accepted payment creation.
// Provider-specific shapes never leak past the adapter; Raw keeps the opaque
// provider payload for audit.
type InitResult struct {
	OrderID       string
	InitialStatus enums.OrderStatus
	RedirectURL   string
	SessionID     string
	Raw           types.JSONMap
}

// StatusQuery identifies a payment for reconciliation. UPI-gateway lookups use
// TransactionID+TxnDate; PhonePe lookups use OrderID.
type StatusQuery struct {
	TransactionID string
	TxnDate       string
	OrderID       string
}

// StatusResult is the canonical settlement view of a payment.
type StatusResult struct {
	State         enums.SettlementState
	Amount        decimal.Decimal
	ProviderTxnID string
	Raw           types.JSONMap
}

// Provider is the uniform capability surface over a payment mechanism.
type Provider interface {
	Method() enums.PaymentMethod
	CreatePayment(ctx context.Context, req InitRequest) (*InitResult, error)
	CheckStatus(ctx context.Context, query StatusQuery) (*StatusResult, error)
}

// Registry resolves providers by payment method.
type Registry struct {
	providers map[enums.PaymentMethod]Provider
}

// NewRegistry builds a registry from the provided providers.
func NewRegistry(providers ...Provider) *Registry {
	registry := &Registry{providers: map[enums.PaymentMethod]Provider{}}
	for _, provider := range providers {
		if provider == nil {
			continue
		}
		registry.providers[provider.Method()] = provider
	}
	return registry
}

// Lookup returns the provider for the method, if registered.
func (r *Registry) Lookup(method enums.PaymentMethod) (Provider, bool) {
	if r == nil {
		return nil, false
	}
	provider, ok := r.providers[method]
	return provider, ok
}
