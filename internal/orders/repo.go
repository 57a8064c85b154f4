package orders

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/printveda/printveda-backend/pkg/db/models"
	"github.com/printveda/printveda-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByTransactionID(ctx context.Context, transactionID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	q := r.db.WithContext(ctx).
		Where("status = ?", enums.OrderStatusPending).
		Where("created_at < ?", cutoff).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) Update(ctx context.Context, transactionID string, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("transaction_id = ?", transactionID).
		Updates(updates).Error
}

// UpdateStatusIfPending moves the order to status only when it is still
// pending. Returns false when another writer already settled the row, which
// lets the callback and the sweep worker race safely.
func (r *repository) UpdateStatusIfPending(ctx context.Context, transactionID string, status enums.OrderStatus, updates map[string]any) (bool, error) {
	set := map[string]any{"status": status}
	for k, v := range updates {
		set[k] = v
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("transaction_id = ?", transactionID).
		Where("status = ?", enums.OrderStatusPending).
		Updates(set)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Delete(ctx context.Context, transactionID string) error {
	return r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Delete(&models.Order{}).Error
}
