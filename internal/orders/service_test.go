package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/printveda/printveda-backend/internal/customers"
	"github.com/printveda/printveda-backend/internal/payments"
	"github.com/printveda/printveda-backend/pkg/db/models"
	"github.com/printveda/printveda-backend/pkg/enums"
	pkgerrors "github.com/printveda/printveda-backend/pkg/errors"
	"github.com/printveda/printveda-backend/pkg/logger"
)

type memOrdersRepo struct {
	orders  map[string]*models.Order
	create  func(ctx context.Context, order *models.Order) error
	update  func(ctx context.Context, transactionID string, updates map[string]any) error
	deleted []string
}

func newMemOrdersRepo() *memOrdersRepo {
	return &memOrdersRepo{orders: map[string]*models.Order{}}
}

func (m *memOrdersRepo) WithTx(tx *gorm.DB) Repository { return m }

func (m *memOrdersRepo) Create(ctx context.Context, order *models.Order) error {
	if m.create != nil {
		if err := m.create(ctx, order); err != nil {
			return err
		}
	}
	if _, exists := m.orders[order.TransactionID]; exists {
		return errors.New(`duplicate key value violates unique constraint "idx_orders_transaction_id"`)
	}
	stored := *order
	stored.CreatedAt = time.Now()
	m.orders[order.TransactionID] = &stored
	return nil
}

func (m *memOrdersRepo) FindByTransactionID(_ context.Context, transactionID string) (*models.Order, error) {
	order, ok := m.orders[transactionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *memOrdersRepo) FindPendingBefore(context.Context, time.Time, int) ([]models.Order, error) {
	panic("not implemented")
}

func (m *memOrdersRepo) Update(ctx context.Context, transactionID string, updates map[string]any) error {
	if m.update != nil {
		return m.update(ctx, transactionID, updates)
	}
	order, ok := m.orders[transactionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["order_id"].(string); ok {
		order.OrderID = v
	}
	if v, ok := updates["status"].(enums.OrderStatus); ok {
		order.Status = v
	}
	return nil
}

func (m *memOrdersRepo) UpdateStatusIfPending(context.Context, string, enums.OrderStatus, map[string]any) (bool, error) {
	panic("not implemented")
}

func (m *memOrdersRepo) Delete(_ context.Context, transactionID string) error {
	delete(m.orders, transactionID)
	m.deleted = append(m.deleted, transactionID)
	return nil
}

type memCustomersRepo struct {
	upserts []models.Customer
	fail    error
}

func (m *memCustomersRepo) WithTx(tx *gorm.DB) customers.Repository { return m }

func (m *memCustomersRepo) Upsert(_ context.Context, customer *models.Customer) error {
	if m.fail != nil {
		return m.fail
	}
	customer.Email = customers.NormalizeEmail(customer.Email)
	m.upserts = append(m.upserts, *customer)
	return nil
}

func (m *memCustomersRepo) FindByEmail(context.Context, string) (*models.Customer, error) {
	panic("not implemented")
}

type noopTxRunner struct{}

func (noopTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubProvider struct {
	method enums.PaymentMethod
	create func(ctx context.Context, req payments.InitRequest) (*payments.InitResult, error)
	check  func(ctx context.Context, query payments.StatusQuery) (*payments.StatusResult, error)
}

func (s *stubProvider) Method() enums.PaymentMethod { return s.method }

func (s *stubProvider) CreatePayment(ctx context.Context, req payments.InitRequest) (*payments.InitResult, error) {
	return s.create(ctx, req)
}

func (s *stubProvider) CheckStatus(ctx context.Context, query payments.StatusQuery) (*payments.StatusResult, error) {
	if s.check == nil {
		panic("not implemented")
	}
	return s.check(ctx, query)
}

type recordingNotifier struct {
	sent []models.Order
}

func (r *recordingNotifier) OrderConfirmation(_ context.Context, order models.Order) {
	r.sent = append(r.sent, order)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func codProvider() payments.Provider {
	return &stubProvider{
		method: enums.PaymentMethodCOD,
		create: func(_ context.Context, req payments.InitRequest) (*payments.InitResult, error) {
			return &payments.InitResult{
				OrderID:       "COD-1756000000",
				InitialStatus: enums.OrderStatusCODPending,
			}, nil
		},
	}
}

func validInput(method enums.PaymentMethod) CreateOrderInput {
	return CreateOrderInput{
		Amount:           decimal.NewFromInt(500),
		ItemsDescription: "Vase x1",
		CustomerName:     "Asha",
		CustomerEmail:    "Asha@Example.com",
		CustomerMobile:   "9999999999",
		Address:          "12 MG Road, Pune",
		PaymentMethod:    method,
	}
}

func newTestService(t *testing.T, repo Repository, custRepo customers.Repository, notifier ConfirmationSender, providers ...payments.Provider) Service {
	t.Helper()
	svc, err := NewService(repo, custRepo, noopTxRunner{}, payments.NewRegistry(providers...), notifier, testLogger(), nil)
	require.NoError(t, err)
	return svc
}

func TestCreateOrderCOD(t *testing.T) {
	repo := newMemOrdersRepo()
	custRepo := &memCustomersRepo{}
	notifier := &recordingNotifier{}
	svc := newTestService(t, repo, custRepo, notifier, codProvider())

	result, err := svc.CreateOrder(context.Background(), validInput(enums.PaymentMethodCOD))
	require.NoError(t, err)

	assert.Equal(t, "COD-1756000000", result.OrderID)
	assert.Equal(t, enums.OrderStatusCODPending, result.Status)
	assert.NotEmpty(t, result.TransactionID)

	stored, err := repo.FindByTransactionID(context.Background(), result.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCODPending, stored.Status)
	assert.True(t, stored.Amount.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "asha@example.com", stored.CustomerEmail)

	require.Len(t, custRepo.upserts, 1)
	assert.Equal(t, "asha@example.com", custRepo.upserts[0].Email)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, result.TransactionID, notifier.sent[0].TransactionID)
}

func TestCreateOrderUnknownMethodPersistsNothing(t *testing.T) {
	repo := newMemOrdersRepo()
	svc := newTestService(t, repo, &memCustomersRepo{}, nil, codProvider())

	_, err := svc.CreateOrder(context.Background(), validInput(enums.PaymentMethod("card")))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Empty(t, repo.orders)
}

func TestCreateOrderMissingFieldsRejected(t *testing.T) {
	repo := newMemOrdersRepo()
	svc := newTestService(t, repo, &memCustomersRepo{}, nil, codProvider())

	input := validInput(enums.PaymentMethodCOD)
	input.CustomerEmail = ""
	_, err := svc.CreateOrder(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Empty(t, repo.orders)
}

func TestCreateOrderProviderRejectionCompensates(t *testing.T) {
	repo := newMemOrdersRepo()
	rejecting := &stubProvider{
		method: enums.PaymentMethodUPI,
		create: func(context.Context, payments.InitRequest) (*payments.InitResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeProviderRejected, "Invalid key")
		},
	}
	svc := newTestService(t, repo, &memCustomersRepo{}, nil, rejecting)

	_, err := svc.CreateOrder(context.Background(), validInput(enums.PaymentMethodUPI))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeProviderRejected, pkgerrors.As(err).Code())

	assert.Empty(t, repo.orders, "rejected attempt must leave no order behind")
	assert.Len(t, repo.deleted, 1)
}

func TestCreateOrderUPIPersistsPendingNeverSuccess(t *testing.T) {
	repo := newMemOrdersRepo()
	accepting := &stubProvider{
		method: enums.PaymentMethodUPI,
		create: func(_ context.Context, req payments.InitRequest) (*payments.InitResult, error) {
			return &payments.InitResult{
				OrderID:       "982211",
				InitialStatus: enums.OrderStatusPending,
				RedirectURL:   "https://pay.example/session/abc",
				SessionID:     req.TransactionID,
			}, nil
		},
	}
	svc := newTestService(t, repo, &memCustomersRepo{}, nil, accepting)

	result, err := svc.CreateOrder(context.Background(), validInput(enums.PaymentMethodUPI))
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, result.Status)
	assert.Equal(t, "https://pay.example/session/abc", result.RedirectURL)

	stored, err := repo.FindByTransactionID(context.Background(), result.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, stored.Status)
}

func TestCreateOrderMintsFreshIDPerAttempt(t *testing.T) {
	repo := newMemOrdersRepo()
	svc := newTestService(t, repo, &memCustomersRepo{}, nil, codProvider())

	first, err := svc.CreateOrder(context.Background(), validInput(enums.PaymentMethodCOD))
	require.NoError(t, err)
	second, err := svc.CreateOrder(context.Background(), validInput(enums.PaymentMethodCOD))
	require.NoError(t, err)

	assert.NotEqual(t, first.TransactionID, second.TransactionID)
	assert.Len(t, repo.orders, 2)
}

func TestCreateOrderRetriesOnceOnIDCollision(t *testing.T) {
	repo := newMemOrdersRepo()
	calls := 0
	repo.create = func(_ context.Context, order *models.Order) error {
		calls++
		if calls == 1 {
			return errors.New(`duplicate key value violates unique constraint "idx_orders_transaction_id"`)
		}
		return nil
	}
	svc := newTestService(t, repo, &memCustomersRepo{}, nil, codProvider())

	result, err := svc.CreateOrder(context.Background(), validInput(enums.PaymentMethodCOD))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.NotEmpty(t, result.TransactionID)
}

func TestCreateOrderFinalizeFailureIsInternal(t *testing.T) {
	repo := newMemOrdersRepo()
	custRepo := &memCustomersRepo{fail: fmt.Errorf("connection reset")}
	svc := newTestService(t, repo, custRepo, nil, codProvider())

	_, err := svc.CreateOrder(context.Background(), validInput(enums.PaymentMethodCOD))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInternal, typed.Code())
	assert.Contains(t, typed.Message(), "contact support")
}
