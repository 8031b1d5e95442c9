package query

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mercato-labs/mercato-backend/internal/analytics/types"
	pkgerrors "github.com/mercato-labs/mercato-backend/pkg/errors"
)

const (
	breakdownSelect = "b.order_id AS order_id, o.status AS status, o.created_at AS created_at, " +
		"b.subtotal_cents AS subtotal_cents, b.commission_cents AS commission_cents, " +
		"b.payout_cents AS payout_cents, b.item_count AS item_count"
	itemSelect = "i.product_id AS product_id, i.name AS name, o.status AS status, " +
		"i.unit_price_cents AS unit_price_cents, i.qty AS qty"
)

// VendorRows loads the raw rows behind a vendor dashboard.
type VendorRows interface {
	Breakdowns(ctx context.Context, req types.VendorSummaryRequest) ([]types.BreakdownRow, error)
	Items(ctx context.Context, req types.VendorSummaryRequest) ([]types.ItemRow, error)
}

type vendorRows struct {
	db *gorm.DB
}

// NewVendorRows builds a row loader backed by the order tables.
func NewVendorRows(db *gorm.DB) (VendorRows, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	return &vendorRows{db: db}, nil
}

func (r *vendorRows) Breakdowns(ctx context.Context, req types.VendorSummaryRequest) ([]types.BreakdownRow, error) {
	var rows []types.BreakdownRow
	err := r.db.WithContext(ctx).
		Table("order_vendor_breakdowns AS b").
		Select(breakdownSelect).
		Joins("JOIN orders o ON o.id = b.order_id").
		Where("b.vendor_id = ? AND o.created_at >= ? AND o.created_at < ?", req.VendorID, req.Start, req.End).
		Order("o.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query vendor breakdowns")
	}
	return rows, nil
}

func (r *vendorRows) Items(ctx context.Context, req types.VendorSummaryRequest) ([]types.ItemRow, error) {
	var rows []types.ItemRow
	err := r.db.WithContext(ctx).
		Table("order_line_items AS i").
		Select(itemSelect).
		Joins("JOIN orders o ON o.id = i.order_id").
		Where("i.vendor_id = ? AND o.created_at >= ? AND o.created_at < ?", req.VendorID, req.Start, req.End).
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query vendor line items")
	}
	return rows, nil
}
