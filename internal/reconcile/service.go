package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/printveda/printveda-backend/internal/orders"
	"github.com/printveda/printveda-backend/internal/payments"
	"github.com/printveda/printveda-backend/pkg/db/models"
	"github.com/printveda/printveda-backend/pkg/enums"
	pkgerrors "github.com/printveda/printveda-backend/pkg/errors"
	"github.com/printveda/printveda-backend/pkg/logger"
	"github.com/printveda/printveda-backend/pkg/metrics"
	"github.com/printveda/printveda-backend/pkg/txnid"
	"github.com/printveda/printveda-backend/pkg/types"
)

// ResolveInput identifies the order to reconcile. TransactionID is the
// primary key for the polled flow; OrderID covers the query-style variant
// where the caller only holds the merchant order id (same value for the
// hosted-page provider).
type ResolveInput struct {
	TransactionID string
	TxnDate       string
	OrderID       string
}

// ResolveResult reports the canonical settlement state plus whatever the
// provider returned for the client to display.
type ResolveResult struct {
	TransactionID string               `json:"client_txn_id"`
	Status        enums.OrderStatus    `json:"status"`
	State         enums.SettlementState `json:"state"`
	Amount        decimal.Decimal      `json:"amount"`
	ProviderTxnID string               `json:"upi_txn_id,omitempty"`
	Raw           types.JSONMap        `json:"data,omitempty"`
}

// Service reconciles asynchronous payment outcomes into stored order status.
type Service interface {
	Resolve(ctx context.Context, input ResolveInput) (*ResolveResult, error)
	Apply(ctx context.Context, order *models.Order, state enums.SettlementState, payload types.JSONMap) (enums.OrderStatus, error)
}

type service struct {
	repo      orders.Repository
	providers *payments.Registry
	logg      *logger.Logger
	metrics   *metrics.PaymentMetrics
	now       func() time.Time
}

// NewService builds the reconciler. Payment metrics are optional.
func NewService(repo orders.Repository, providers *payments.Registry, logg *logger.Logger, paymentMetrics *metrics.PaymentMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if providers == nil {
		return nil, fmt.Errorf("provider registry required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		providers: providers,
		logg:      logg,
		metrics:   paymentMetrics,
		now:       time.Now,
	}, nil
}

// Resolve queries the provider for the order's settlement outcome and applies
// the resulting transition. An already-terminal order is a no-op returning
// the stored status; the provider is never asked again.
func (s *service) Resolve(ctx context.Context, input ResolveInput) (*ResolveResult, error) {
	transactionID := strings.TrimSpace(input.TransactionID)
	if transactionID == "" {
		transactionID = strings.TrimSpace(input.OrderID)
	}
	if transactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client_txn_id is required")
	}
	ctx = s.logg.WithTransactionID(ctx, transactionID)

	order, err := s.repo.FindByTransactionID(ctx, transactionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}

	if order.Status.IsTerminal() {
		return &ResolveResult{
			TransactionID: order.TransactionID,
			Status:        order.Status,
			State:         stateForStatus(order.Status),
			Amount:        order.Amount,
		}, nil
	}

	provider, ok := s.providers.Lookup(order.PaymentMethod)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeInternal,
			fmt.Sprintf("no provider registered for %q", order.PaymentMethod))
	}

	txnDate := strings.TrimSpace(input.TxnDate)
	if txnDate == "" {
		txnDate = txnid.TxnDate(order.CreatedAt)
	}

	result, err := provider.CheckStatus(ctx, payments.StatusQuery{
		TransactionID: order.TransactionID,
		TxnDate:       txnDate,
		OrderID:       order.OrderID,
	})
	if err != nil {
		return nil, err
	}

	status, err := s.Apply(ctx, order, result.State, result.Raw)
	if err != nil {
		return nil, err
	}

	return &ResolveResult{
		TransactionID: order.TransactionID,
		Status:        status,
		State:         result.State,
		Amount:        result.Amount,
		ProviderTxnID: result.ProviderTxnID,
		Raw:           result.Raw,
	}, nil
}

// Apply moves a pending order to the terminal status matching state. The
// transition is guarded at the store so a concurrent writer that already
// settled the row wins and this call degrades to reporting the stored status.
func (s *service) Apply(ctx context.Context, order *models.Order, state enums.SettlementState, payload types.JSONMap) (enums.OrderStatus, error) {
	var target enums.OrderStatus
	switch state {
	case enums.SettlementSuccess:
		target = enums.OrderStatusSuccess
	case enums.SettlementFailure:
		target = enums.OrderStatusFailure
	default:
		return order.Status, nil
	}

	updates := map[string]any{}
	if len(payload) > 0 {
		updates["provider_payload"] = order.ProviderPayload.Merge(payload)
	}
	moved, err := s.repo.UpdateStatusIfPending(ctx, order.TransactionID, target, updates)
	if err != nil {
		return order.Status, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order status")
	}
	if !moved {
		current, err := s.repo.FindByTransactionID(ctx, order.TransactionID)
		if err != nil {
			return order.Status, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading order")
		}
		return current.Status, nil
	}

	if s.metrics != nil {
		s.metrics.IncTransition(target.String())
	}
	s.logg.Info(s.logg.WithField(ctx, "status", target.String()), "order settled")
	order.Status = target
	return target, nil
}

func stateForStatus(status enums.OrderStatus) enums.SettlementState {
	switch status {
	case enums.OrderStatusSuccess:
		return enums.SettlementSuccess
	case enums.OrderStatusFailure:
		return enums.SettlementFailure
	default:
		return enums.SettlementPending
	}
}
