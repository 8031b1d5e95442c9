package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mercato-labs/mercato-backend/pkg/enums"
)

// Order is the persisted header of a checkout. Amounts are integer cents.
type Order struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID    string                 `gorm:"column:buyer_id;not null;index"`
	Status     enums.OrderStatus      `gorm:"column:status;type:text;not null;default:'pending'"`
	Currency   enums.Currency         `gorm:"column:currency;type:text;not null"`
	TotalCents int64                  `gorm:"column:total_cents;not null"`
	Items      []OrderLineItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Vendors    []OrderVendorBreakdown `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time              `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
