package phonepewebhook

import (
	"context"

	"gorm.io/gorm"

	"github.com/printveda/printveda-backend/internal/orders"
	"github.com/printveda/printveda-backend/internal/payments"
	"github.com/printveda/printveda-backend/internal/reconcile"
	"github.com/printveda/printveda-backend/pkg/enums"
	pkgerrors "github.com/printveda/printveda-backend/pkg/errors"
	"github.com/printveda/printveda-backend/pkg/logger"
	"github.com/printveda/printveda-backend/pkg/phonepe"
	"github.com/printveda/printveda-backend/pkg/types"
)

type callbackVerifier interface {
	VerifyCallback(xVerify, encodedBody string) error
}

type marker interface {
	CheckAndMark(ctx context.Context, transactionID string) (bool, error)
	Delete(ctx context.Context, transactionID string) error
}

type ServiceParams struct {
	Verifier   callbackVerifier
	Guard      marker
	OrdersRepo orders.Repository
	Reconciler reconcile.Service
	Logger     *logger.Logger
}

// Service turns a signed callback delivery into a terminal
// order transition, exactly once per merchant transaction id.
type Service struct {
	verifier   callbackVerifier
	guard      marker
	ordersRepo orders.Repository
	reconciler reconcile.Service
	logg       *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Verifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "callback verifier required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard required")
	}
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.Reconciler == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reconciler required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		verifier:   params.Verifier,
		guard:      params.Guard,
		ordersRepo: params.OrdersRepo,
		reconciler: params.Reconciler,
		logg:       params.Logger,
	}, nil
}

// HandleCallback verifies the X-VERIFY checksum against the raw encoded body,
// decodes it, and applies the settlement transition. Duplicate deliveries are
// acknowledged without touching the order; a handler failure clears the
// idempotency mark so the provider's retry can land.
func (s *Service) HandleCallback(ctx context.Context, xVerify, encodedBody string) error {
	if encodedBody == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "callback body required")
	}
	if err := s.verifier.VerifyCallback(xVerify, encodedBody); err != nil {
		return err
	}

	payload, err := phonepe.DecodeCallback(encodedBody)
	if err != nil {
		return err
	}
	if payload.MerchantTransactionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "merchant transaction id missing")
	}
	ctx = s.logg.WithTransactionID(ctx, payload.MerchantTransactionID)

	seen, err := s.guard.CheckAndMark(ctx, payload.MerchantTransactionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking callback idempotency")
	}
	if seen {
		s.logg.Info(ctx, "duplicate callback ignored")
		return nil
	}

	if err := s.apply(ctx, payload); err != nil {
		if delErr := s.guard.Delete(ctx, payload.MerchantTransactionID); delErr != nil {
			s.logg.Error(ctx, "clearing idempotency mark", delErr)
		}
		return err
	}
	return nil
}

func (s *Service) apply(ctx context.Context, payload *phonepe.CallbackPayload) error {
	order, err := s.ordersRepo.FindByTransactionID(ctx, payload.MerchantTransactionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found for callback")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order.PaymentMethod != enums.PaymentMethodPhonePe {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "callback targets a non-phonepe order")
	}

	state := payments.MapPhonePeCode(payload.Code)
	if state == enums.SettlementPending {
		s.logg.Info(s.logg.WithField(ctx, "code", payload.Code), "non-terminal callback, order untouched")
		return nil
	}

	var raw types.JSONMap
	if len(payload.Raw) > 0 {
		raw = types.JSONMap(payload.Raw)
	}
	_, err = s.reconciler.Apply(ctx, order, state, raw)
	return err
}
