package orders

import (
	"github.com/shopspring/decimal"

	"github.com/printveda/printveda-backend/pkg/enums"
	"github.com/printveda/printveda-backend/pkg/types"
)

// CreateOrderInput carries a single checkout attempt into the orchestrator.
type CreateOrderInput struct {
	Amount           decimal.Decimal
	ItemsDescription string
	CustomerName     string
	CustomerEmail    string
	CustomerMobile   string
	Address          string
	RedirectURL      string
	PaymentMethod    enums.PaymentMethod
}

// CreateOrderResult is what the checkout client needs to continue: the
// correlation id, the provider order id, and for hosted-page providers the
// redirect/session handle.
type CreateOrderResult struct {
	TransactionID string              `json:"client_txn_id"`
	OrderID       string              `json:"order_id"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Status        enums.OrderStatus   `json:"status"`
	RedirectURL   string              `json:"redirect_url,omitempty"`
	SessionID     string              `json:"session_id,omitempty"`
	Raw           types.JSONMap       `json:"data,omitempty"`
}
