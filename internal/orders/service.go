package orders

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/printveda/printveda-backend/internal/customers"
	"github.com/printveda/printveda-backend/internal/payments"
	"github.com/printveda/printveda-backend/pkg/db"
	"github.com/printveda/printveda-backend/pkg/db/models"
	"github.com/printveda/printveda-backend/pkg/enums"
	pkgerrors "github.com/printveda/printveda-backend/pkg/errors"
	"github.com/printveda/printveda-backend/pkg/logger"
	"github.com/printveda/printveda-backend/pkg/metrics"
	"github.com/printveda/printveda-backend/pkg/txnid"
)

const transactionIDIndex = "idx_orders_transaction_id"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ConfirmationSender dispatches the order-confirmation email. Implementations
// must be best-effort: a send failure never fails the order.
type ConfirmationSender interface {
	OrderConfirmation(ctx context.Context, order models.Order)
}

// Service defines the checkout orchestration surface.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*models.Order, error)
}

type service struct {
	repo      Repository
	customers customers.Repository
	tx        txRunner
	providers *payments.Registry
	notifier  ConfirmationSender
	logg      *logger.Logger
	metrics   *metrics.PaymentMetrics
	mintID    func() string
}

// NewService builds the checkout orchestrator with the required dependencies.
// notifier and payment metrics are optional.
func NewService(
	repo Repository,
	customerRepo customers.Repository,
	tx txRunner,
	providers *payments.Registry,
	notifier ConfirmationSender,
	logg *logger.Logger,
	paymentMetrics *metrics.PaymentMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if customerRepo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if providers == nil {
		return nil, fmt.Errorf("provider registry required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		customers: customerRepo,
		tx:        tx,
		providers: providers,
		notifier:  notifier,
		logg:      logg,
		metrics:   paymentMetrics,
		mintID:    txnid.New,
	}, nil
}

// CreateOrder runs a single checkout attempt end to end: provisional insert,
// provider dispatch, then either a compensating delete (provider rejected) or
// a finalize transaction that settles the order row and upserts the customer.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	provider, ok := s.providers.Lookup(input.PaymentMethod)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unknown payment method %q", input.PaymentMethod))
	}

	ctx = s.logg.WithPaymentMethod(ctx, input.PaymentMethod.String())

	order, err := s.insertProvisional(ctx, input)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithTransactionID(ctx, order.TransactionID)

	result, err := provider.CreatePayment(ctx, payments.InitRequest{
		TransactionID:    order.TransactionID,
		Amount:           input.Amount,
		ItemsDescription: input.ItemsDescription,
		CustomerName:     input.CustomerName,
		CustomerEmail:    input.CustomerEmail,
		CustomerMobile:   input.CustomerMobile,
		Address:          input.Address,
		RedirectURL:      input.RedirectURL,
	})
	if err != nil {
		s.compensate(ctx, order.TransactionID, err)
		if s.metrics != nil {
			s.metrics.IncProviderFailure(input.PaymentMethod.String())
		}
		return nil, err
	}

	if err := s.finalize(ctx, order, input, result); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncOrderCreated(input.PaymentMethod.String())
	}
	if input.PaymentMethod == enums.PaymentMethodCOD && s.notifier != nil {
		s.notifier.OrderConfirmation(ctx, *order)
	}

	s.logg.Info(ctx, "order created")
	return &CreateOrderResult{
		TransactionID: order.TransactionID,
		OrderID:       order.OrderID,
		PaymentMethod: order.PaymentMethod,
		Status:        order.Status,
		RedirectURL:   result.RedirectURL,
		SessionID:     result.SessionID,
		Raw:           result.Raw,
	}, nil
}

func (s *service) FindByTransactionID(ctx context.Context, transactionID string) (*models.Order, error) {
	order, err := s.repo.FindByTransactionID(ctx, transactionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

func (s *service) validate(input CreateOrderInput) error {
	missing := []string{}
	if strings.TrimSpace(input.CustomerName) == "" {
		missing = append(missing, "customer_name")
	}
	if strings.TrimSpace(input.CustomerEmail) == "" {
		missing = append(missing, "customer_email")
	}
	if strings.TrimSpace(input.CustomerMobile) == "" {
		missing = append(missing, "customer_mobile")
	}
	if strings.TrimSpace(input.Address) == "" {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing required fields").
			WithDetails(map[string]any{"fields": missing})
	}
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unknown payment method %q", input.PaymentMethod))
	}
	return nil
}

// insertProvisional writes the order before the provider is called so a crash
// mid-flight never loses the correlation between an external charge and a
// local record. A transaction id collision mints a fresh id and retries once.
func (s *service) insertProvisional(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	for attempt := 0; attempt < 2; attempt++ {
		order := &models.Order{
			TransactionID:    s.mintID(),
			CustomerName:     strings.TrimSpace(input.CustomerName),
			CustomerEmail:    customers.NormalizeEmail(input.CustomerEmail),
			CustomerMobile:   strings.TrimSpace(input.CustomerMobile),
			Address:          strings.TrimSpace(input.Address),
			Amount:           input.Amount,
			ItemsDescription: input.ItemsDescription,
			PaymentMethod:    input.PaymentMethod,
			Status:           enums.OrderStatusPending,
		}
		err := s.repo.Create(ctx, order)
		if err == nil {
			return order, nil
		}
		if db.IsUniqueViolation(err, transactionIDIndex) {
			s.logg.Warn(s.logg.WithTransactionID(ctx, order.TransactionID),
				"transaction id collision, reminting")
			continue
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting order")
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "could not mint a unique transaction id")
}

// compensate removes the provisional row after a provider rejection so a
// declined attempt leaves no order behind. The delete is best-effort; a
// leftover pending row is reaped by the sweep worker.
func (s *service) compensate(ctx context.Context, transactionID string, cause error) {
	s.logg.Warn(s.logg.WithField(ctx, "step", "provider"), "provider call failed: "+cause.Error())
	if err := s.repo.Delete(ctx, transactionID); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "step", "compensate"),
			"deleting provisional order", err)
	}
}

// finalize settles the order row and upserts the customer in one transaction.
// A failure here happens after the provider accepted, so it is logged apart
// from rejections and surfaced as a support-facing hard error.
func (s *service) finalize(ctx context.Context, order *models.Order, input CreateOrderInput, result *payments.InitResult) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, order.TransactionID, map[string]any{
			"order_id":         result.OrderID,
			"status":           result.InitialStatus,
			"provider_payload": order.ProviderPayload.Merge(result.Raw),
		}); err != nil {
			return err
		}
		return s.customers.WithTx(tx).Upsert(ctx, &models.Customer{
			Email:   input.CustomerEmail,
			Name:    strings.TrimSpace(input.CustomerName),
			Phone:   strings.TrimSpace(input.CustomerMobile),
			Address: strings.TrimSpace(input.Address),
		})
	})
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "step", "finalize"),
			"persisting accepted payment", err)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err,
			"payment was accepted but the order could not be saved; contact support before retrying")
	}
	order.OrderID = result.OrderID
	order.Status = result.InitialStatus
	order.ProviderPayload = order.ProviderPayload.Merge(result.Raw)
	return nil
}
