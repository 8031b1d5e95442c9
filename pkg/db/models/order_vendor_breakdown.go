package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderVendorBreakdown is the per-vendor financial split of an order.
type OrderVendorBreakdown struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID         uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	Position        int       `gorm:"column:position;not null"`
	VendorID        uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;index"`
	VendorName      string    `gorm:"column:vendor_name;not null"`
	SubtotalCents   int64     `gorm:"column:subtotal_cents;not null"`
	CommissionCents int64     `gorm:"column:commission_cents;not null"`
	PayoutCents     int64     `gorm:"column:payout_cents;not null"`
	ItemCount       int       `gorm:"column:item_count;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}
