package phonepewebhook

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/printveda/printveda-backend/internal/orders"
	"github.com/printveda/printveda-backend/internal/reconcile"
	"github.com/printveda/printveda-backend/pkg/db/models"
	"github.com/printveda/printveda-backend/pkg/enums"
	pkgerrors "github.com/printveda/printveda-backend/pkg/errors"
	"github.com/printveda/printveda-backend/pkg/logger"
	"github.com/printveda/printveda-backend/pkg/types"
)

type stubVerifier struct {
	err error
}

func (s *stubVerifier) VerifyCallback(_, _ string) error { return s.err }

type stubGuard struct {
	seen    map[string]bool
	deleted []string
}

func newStubGuard() *stubGuard { return &stubGuard{seen: map[string]bool{}} }

func (s *stubGuard) CheckAndMark(_ context.Context, transactionID string) (bool, error) {
	if s.seen[transactionID] {
		return true, nil
	}
	s.seen[transactionID] = true
	return false, nil
}

func (s *stubGuard) Delete(_ context.Context, transactionID string) error {
	delete(s.seen, transactionID)
	s.deleted = append(s.deleted, transactionID)
	return nil
}

type stubOrdersRepo struct {
	orders map[string]*models.Order
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrdersRepo) Create(context.Context, *models.Order) error { panic("not implemented") }

func (s *stubOrdersRepo) FindByTransactionID(_ context.Context, transactionID string) (*models.Order, error) {
	order, ok := s.orders[transactionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *stubOrdersRepo) FindPendingBefore(context.Context, time.Time, int) ([]models.Order, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) Update(context.Context, string, map[string]any) error {
	panic("not implemented")
}

func (s *stubOrdersRepo) UpdateStatusIfPending(context.Context, string, enums.OrderStatus, map[string]any) (bool, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) Delete(context.Context, string) error { panic("not implemented") }

type stubReconciler struct {
	applied []enums.SettlementState
	err     error
}

func (s *stubReconciler) Resolve(context.Context, reconcile.ResolveInput) (*reconcile.ResolveResult, error) {
	panic("not implemented")
}

func (s *stubReconciler) Apply(_ context.Context, order *models.Order, state enums.SettlementState, _ types.JSONMap) (enums.OrderStatus, error) {
	if s.err != nil {
		return order.Status, s.err
	}
	s.applied = append(s.applied, state)
	return enums.OrderStatusSuccess, nil
}

func encodeCallback(code, transactionID string) string {
	body := fmt.Sprintf(`{"code":%q,"data":{"merchantTransactionId":%q,"transactionId":"T123","amount":50000,"state":"COMPLETED"}}`,
		code, transactionID)
	return base64.StdEncoding.EncodeToString([]byte(body))
}

func newCallbackService(t *testing.T, verifier *stubVerifier, guard *stubGuard, repo *stubOrdersRepo, reconciler *stubReconciler) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Verifier:   verifier,
		Guard:      guard,
		OrdersRepo: repo,
		Reconciler: reconciler,
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc
}

const callbackTxnID = "PV20260821120000aabbccddeeff"

func phonepeOrderRepo() *stubOrdersRepo {
	return &stubOrdersRepo{orders: map[string]*models.Order{
		callbackTxnID: {
			TransactionID: callbackTxnID,
			PaymentMethod: enums.PaymentMethodPhonePe,
			Status:        enums.OrderStatusPending,
		},
	}}
}

func TestHandleCallbackSuccess(t *testing.T) {
	guard := newStubGuard()
	reconciler := &stubReconciler{}
	svc := newCallbackService(t, &stubVerifier{}, guard, phonepeOrderRepo(), reconciler)

	err := svc.HandleCallback(context.Background(), "checksum###1", encodeCallback("PAYMENT_SUCCESS", callbackTxnID))
	require.NoError(t, err)

	require.Len(t, reconciler.applied, 1)
	assert.Equal(t, enums.SettlementSuccess, reconciler.applied[0])
	assert.True(t, guard.seen[callbackTxnID])
}

func TestHandleCallbackBadSignature(t *testing.T) {
	verifier := &stubVerifier{err: pkgerrors.New(pkgerrors.CodeValidation, "callback signature mismatch")}
	guard := newStubGuard()
	reconciler := &stubReconciler{}
	svc := newCallbackService(t, verifier, guard, phonepeOrderRepo(), reconciler)

	err := svc.HandleCallback(context.Background(), "bad", encodeCallback("PAYMENT_SUCCESS", callbackTxnID))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Empty(t, reconciler.applied)
	assert.Empty(t, guard.seen, "rejected delivery must not consume the idempotency slot")
}

func TestHandleCallbackDuplicateAcked(t *testing.T) {
	guard := newStubGuard()
	reconciler := &stubReconciler{}
	svc := newCallbackService(t, &stubVerifier{}, guard, phonepeOrderRepo(), reconciler)

	body := encodeCallback("PAYMENT_SUCCESS", callbackTxnID)
	require.NoError(t, svc.HandleCallback(context.Background(), "checksum###1", body))
	require.NoError(t, svc.HandleCallback(context.Background(), "checksum###1", body))

	assert.Len(t, reconciler.applied, 1, "redelivery must not re-apply the transition")
}

func TestHandleCallbackFailureClearsMark(t *testing.T) {
	guard := newStubGuard()
	reconciler := &stubReconciler{err: errors.New("db down")}
	svc := newCallbackService(t, &stubVerifier{}, guard, phonepeOrderRepo(), reconciler)

	err := svc.HandleCallback(context.Background(), "checksum###1", encodeCallback("PAYMENT_SUCCESS", callbackTxnID))
	require.Error(t, err)

	assert.Contains(t, guard.deleted, callbackTxnID, "failed handling must free the slot for the retry")
	assert.False(t, guard.seen[callbackTxnID])
}

func TestHandleCallbackNonPhonePeOrder(t *testing.T) {
	repo := phonepeOrderRepo()
	repo.orders[callbackTxnID].PaymentMethod = enums.PaymentMethodUPI
	guard := newStubGuard()
	svc := newCallbackService(t, &stubVerifier{}, guard, repo, &stubReconciler{})

	err := svc.HandleCallback(context.Background(), "checksum###1", encodeCallback("PAYMENT_SUCCESS", callbackTxnID))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestHandleCallbackUnknownOrder(t *testing.T) {
	repo := &stubOrdersRepo{orders: map[string]*models.Order{}}
	svc := newCallbackService(t, &stubVerifier{}, newStubGuard(), repo, &stubReconciler{})

	err := svc.HandleCallback(context.Background(), "checksum###1", encodeCallback("PAYMENT_SUCCESS", callbackTxnID))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestHandleCallbackPendingCodeIsNoOp(t *testing.T) {
	reconciler := &stubReconciler{}
	svc := newCallbackService(t, &stubVerifier{}, newStubGuard(), phonepeOrderRepo(), reconciler)

	err := svc.HandleCallback(context.Background(), "checksum###1", encodeCallback("PAYMENT_PENDING", callbackTxnID))
	require.NoError(t, err)
	assert.Empty(t, reconciler.applied)
}

func TestHandleCallbackEmptyBody(t *testing.T) {
	svc := newCallbackService(t, &stubVerifier{}, newStubGuard(), phonepeOrderRepo(), &stubReconciler{})

	err := svc.HandleCallback(context.Background(), "checksum###1", "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
