package orders

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/printveda/printveda-backend/pkg/db/models"
	"github.com/printveda/printveda-backend/pkg/enums"
)

// Repository defines persistence operations for the orders table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByTransactionID(ctx context.Context, transactionID string) (*models.Order, error)
	FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	Update(ctx context.Context, transactionID string, updates map[string]any) error
	UpdateStatusIfPending(ctx context.Context, transactionID string, status enums.OrderStatus, updates map[string]any) (bool, error)
	Delete(ctx context.Context, transactionID string) error
}
