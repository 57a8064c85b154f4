package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printveda/printveda-backend/pkg/enums"
	"github.com/printveda/printveda-backend/pkg/types"
)

// Order is the persisted record of a checkout attempt. TransactionID is the
// only correlation key shared between the client session, the payment
// provider, and this row; it never changes after insert.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TransactionID    string              `gorm:"column:transaction_id;type:text;not null;uniqueIndex:idx_orders_transaction_id"`
	OrderID          string              `gorm:"column:order_id;type:text;not null;default:''"`
	CustomerName     string              `gorm:"column:customer_name;type:text;not null"`
	CustomerEmail    string              `gorm:"column:customer_email;type:text;not null"`
	CustomerMobile   string              `gorm:"column:customer_mobile;type:text;not null"`
	Address          string              `gorm:"column:address;type:text;not null"`
	Amount           decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	ItemsDescription string              `gorm:"column:items_description;type:text;not null;default:''"`
	PaymentMethod    enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	Status           enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	ProviderPayload  types.JSONMap       `gorm:"column:provider_payload;type:jsonb;serializer:json"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
