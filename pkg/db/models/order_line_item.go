package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLineItem snapshots a cart line at checkout time.
type OrderLineItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	Position       int       `gorm:"column:position;not null"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name           string    `gorm:"column:name;not null"`
	VendorID       uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;index"`
	VendorName     string    `gorm:"column:vendor_name;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	Qty            int       `gorm:"column:qty;not null"`
	CommissionRate *string   `gorm:"column:commission_rate;type:numeric(5,2)"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
