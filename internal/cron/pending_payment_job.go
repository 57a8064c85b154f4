package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/printveda/printveda-backend/internal/reconcile"
	"github.com/printveda/printveda-backend/pkg/db/models"
	"github.com/printveda/printveda-backend/pkg/enums"
	"github.com/printveda/printveda-backend/pkg/logger"
	"github.com/printveda/printveda-backend/pkg/txnid"
)

const (
	defaultPendingAge = 10 * time.Minute
	defaultBatchSize  = 50
)

type pendingOrderFinder interface {
	FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

// PendingPaymentJobParams configure the stuck-payment sweep.
type PendingPaymentJobParams struct {
	Logger     *logger.Logger
	Orders     pendingOrderFinder
	Reconciler reconcile.Service
	PendingAge time.Duration
	BatchSize  int
}

// NewPendingPaymentJob builds the sweep that reconciles orders left pending
// after the client's polling budget ran out.
func NewPendingPaymentJob(params PendingPaymentJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders finder required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	age := params.PendingAge
	if age <= 0 {
		age = defaultPendingAge
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &pendingPaymentJob{
		logg:       params.Logger,
		orders:     params.Orders,
		reconciler: params.Reconciler,
		age:        age,
		batch:      batch,
		now:        time.Now,
	}, nil
}

type pendingPaymentJob struct {
	logg       *logger.Logger
	orders     pendingOrderFinder
	reconciler reconcile.Service
	age        time.Duration
	batch      int
	now        func() time.Time
}

func (j *pendingPaymentJob) Name() string { return "pending-payment-sweep" }

// Run reconciles every order stuck pending past the configured age. Failures
// are aggregated per order so one flaky provider call does not stop the
// sweep.
func (j *pendingPaymentJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.age)
	stuck, err := j.orders.FindPendingBefore(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("finding stuck orders: %w", err)
	}
	if len(stuck) == 0 {
		return nil
	}

	var errs error
	settled := 0
	for _, order := range stuck {
		if order.PaymentMethod == enums.PaymentMethodCOD {
			// COD never settles asynchronously; a pending COD row means
			// checkout crashed before finalize and needs manual review.
			j.logg.Warn(j.logg.WithTransactionID(ctx, order.TransactionID),
				"cash-on-delivery order left pending, skipping")
			continue
		}
		result, err := j.reconciler.Resolve(ctx, reconcile.ResolveInput{
			TransactionID: order.TransactionID,
			TxnDate:       txnid.TxnDate(order.CreatedAt),
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("reconciling %s: %w", order.TransactionID, err))
			continue
		}
		if result.Status.IsTerminal() {
			settled++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"scanned": len(stuck),
		"settled": settled,
	})
	j.logg.Info(logCtx, "pending payment sweep complete")
	return errs
}
