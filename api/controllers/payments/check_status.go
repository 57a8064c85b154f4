package payments

import (
	"net/http"
	"strings"

	"github.com/printveda/printveda-backend/api/responses"
	"github.com/printveda/printveda-backend/api/validators"
	"github.com/printveda/printveda-backend/internal/reconcile"
	pkgerrors "github.com/printveda/printveda-backend/pkg/errors"
	"github.com/printveda/printveda-backend/pkg/logger"
)

type checkStatusRequest struct {
	ClientTxnID string `json:"client_txn_id" validate:"required"`
	TxnDate     string `json:"txn_date"`
}

// CheckStatus reconciles a pending order against its provider and returns
// the canonical status. Clients poll this with a bounded retry budget.
func CheckStatus(svc reconcile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var body checkStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Resolve(ctx, reconcile.ResolveInput{
			TransactionID: body.ClientTxnID,
			TxnDate:       body.TxnDate,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CheckStatusQuery is the query-style variant for the callback-driven
// provider, keyed by the merchant order id.
func CheckStatusQuery(svc reconcile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID := strings.TrimSpace(r.URL.Query().Get("orderId"))
		if orderID == "" {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "orderId query parameter is required"))
			return
		}

		result, err := svc.Resolve(ctx, reconcile.ResolveInput{OrderID: orderID})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
