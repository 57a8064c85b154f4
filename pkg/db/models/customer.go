package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer keeps last-known contact details per email. OrderAttempts counts
// every checkout attempt for the email, successful or not.
type Customer struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email         string    `gorm:"column:email;type:text;not null;uniqueIndex:idx_customers_email"`
	Name          string    `gorm:"column:name;type:text;not null"`
	Phone         string    `gorm:"column:phone;type:text;not null;default:''"`
	Address       string    `gorm:"column:address;type:text;not null;default:''"`
	OrderAttempts int       `gorm:"column:order_attempts;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
