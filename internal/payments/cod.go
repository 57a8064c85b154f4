package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/printveda/printveda-backend/pkg/enums"
	pkgerrors "github.com/printveda/printveda-backend/pkg/errors"
	"github.com/printveda/printveda-backend/pkg/types"
)

// CODProvider settles at physical delivery; payment creation is local and
// never makes an external call.
type CODProvider struct {
	now func() time.Time
}

// NewCODProvider builds the cash-on-delivery provider.
func NewCODProvider() *CODProvider {
	return &CODProvider{now: time.Now}
}

// Method implements Provider.
func (p *CODProvider) Method() enums.PaymentMethod {
	return enums.PaymentMethodCOD
}

// CreatePayment assigns a local order id and the cod_pending terminal-until-
// delivery status.
func (p *CODProvider) CreatePayment(_ context.Context, req InitRequest) (*InitResult, error) {
	orderID := fmt.Sprintf("COD-%d", p.now().Unix())
	return &InitResult{
		OrderID:       orderID,
		InitialStatus: enums.OrderStatusCODPending,
		Raw: types.JSONMap{
			"order_id":      orderID,
			"client_txn_id": req.TransactionID,
		},
	}, nil
}

// CheckStatus is not applicable: delivery settlement happens outside this
// system.
func (p *CODProvider) CheckStatus(_ context.Context, _ StatusQuery) (*StatusResult, error) {
	return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cash-on-delivery orders settle at delivery")
}
