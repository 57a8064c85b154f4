package customers

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/printveda/printveda-backend/pkg/db/models"
)

// Repository defines persistence operations for the customers table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, customer *models.Customer) error
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a customers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Upsert inserts the customer or, on email conflict, refreshes contact
// details and bumps order_attempts. The increment happens in SQL so
// interleaved checkouts for the same email never lose a count.
func (r *repository) Upsert(ctx context.Context, customer *models.Customer) error {
	customer.Email = NormalizeEmail(customer.Email)
	if customer.OrderAttempts == 0 {
		customer.OrderAttempts = 1
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "email"}},
			DoUpdates: clause.Assignments(map[string]any{
				"name":           customer.Name,
				"phone":          customer.Phone,
				"address":        customer.Address,
				"order_attempts": gorm.Expr("customers.order_attempts + 1"),
			}),
		}).
		Create(customer).Error
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("email = ?", NormalizeEmail(email)).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// NormalizeEmail lowercases and trims the address so the unique index treats
// casing variants as the same customer.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
