package payments

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/printveda/printveda-backend/api/responses"
	"github.com/printveda/printveda-backend/api/validators"
	"github.com/printveda/printveda-backend/internal/orders"
	"github.com/printveda/printveda-backend/pkg/enums"
	pkgerrors "github.com/printveda/printveda-backend/pkg/errors"
	"github.com/printveda/printveda-backend/pkg/logger"
)

type createOrderRequest struct {
	Amount         decimal.Decimal `json:"amount" validate:"required"`
	ProductInfo    string          `json:"p_info"`
	CustomerName   string          `json:"customer_name" validate:"required"`
	CustomerEmail  string          `json:"customer_email" validate:"required,email"`
	CustomerMobile string          `json:"customer_mobile" validate:"required"`
	Address        string          `json:"address" validate:"required"`
	RedirectURL    string          `json:"redirect_url"`
	PaymentMethod  string          `json:"payment_method" validate:"required"`
}

// CreateOrder accepts a checkout attempt and returns the correlation ids plus
// whatever the provider needs the client to do next.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(body.PaymentMethod)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err,
				"payment_method must be one of cod, upi, phonepe"))
			return
		}

		result, err := svc.CreateOrder(ctx, orders.CreateOrderInput{
			Amount:           body.Amount,
			ItemsDescription: body.ProductInfo,
			CustomerName:     body.CustomerName,
			CustomerEmail:    body.CustomerEmail,
			CustomerMobile:   body.CustomerMobile,
			Address:          body.Address,
			RedirectURL:      body.RedirectURL,
			PaymentMethod:    method,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
