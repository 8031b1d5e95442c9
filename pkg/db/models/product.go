package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mercato-labs/mercato-backend/pkg/enums"
)

// Product represents a vendor listing in the catalog.
type Product struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	VendorID       uuid.UUID             `gorm:"column:vendor_id;type:uuid;not null;index"`
	VendorName     string                `gorm:"column:vendor_name;not null"`
	Title          string                `gorm:"column:title;not null"`
	Description    *string               `gorm:"column:description"`
	Category       enums.ProductCategory `gorm:"column:category;type:text;not null"`
	PriceCents     int64                 `gorm:"column:price_cents;not null"`
	Stock          int                   `gorm:"column:stock;not null;default:0"`
	CommissionRate *string               `gorm:"column:commission_rate;type:numeric(5,2)"`
	IsActive       bool                  `gorm:"column:is_active;not null"`
	RatingSum      int                   `gorm:"column:rating_sum;not null;default:0"`
	ReviewCount    int                   `gorm:"column:review_count;not null;default:0"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
