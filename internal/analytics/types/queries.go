package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mercato-labs/mercato-backend/pkg/enums"
)

// VendorSummaryRequest selects a vendor and a half-open [Start, End) window.
type VendorSummaryRequest struct {
	VendorID uuid.UUID
	Start    time.Time
	End      time.Time
}

// BreakdownRow is one vendor split joined with its order header.
type BreakdownRow struct {
	OrderID         uuid.UUID
	Status          enums.OrderStatus
	CreatedAt       time.Time
	SubtotalCents   int64
	CommissionCents int64
	PayoutCents     int64
	ItemCount       int
}

// ItemRow is one of the vendor's order lines.
type ItemRow struct {
	ProductID      uuid.UUID
	Name           string
	Status         enums.OrderStatus
	UnitPriceCents int64
	Qty            int
}

// TimeSeriesPoint describes a single date/value pair.
type TimeSeriesPoint struct {
	Date  string          `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// ProductRevenue ranks a product by the revenue it brought the vendor.
type ProductRevenue struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Units     int             `json:"units"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// VendorSummary is the vendor dashboard payload. Money fields exclude
// cancelled orders; OrdersByStatus counts every order in the window.
type VendorSummary struct {
	VendorID          uuid.UUID                 `json:"vendor_id"`
	Start             time.Time                 `json:"start"`
	End               time.Time                 `json:"end"`
	OrderCount        int                       `json:"order_count"`
	ItemCount         int                       `json:"item_count"`
	GrossSales        decimal.Decimal           `json:"gross_sales"`
	Commission        decimal.Decimal           `json:"commission"`
	Payout            decimal.Decimal           `json:"payout"`
	AverageOrderValue decimal.Decimal           `json:"average_order_value"`
	OrdersByStatus    map[enums.OrderStatus]int `json:"orders_by_status"`
	DailyGross        []TimeSeriesPoint         `json:"daily_gross"`
	TopProducts       []ProductRevenue          `json:"top_products"`
}
