package orders

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mercato-labs/mercato-backend/pkg/db/models"
	"github.com/mercato-labs/mercato-backend/pkg/money"
)

// ToModel converts a built order into its persisted rows. Child row ids are
// generated here; the order id is kept.
func ToModel(order *Order) (*models.Order, error) {
	if order == nil {
		return nil, fmt.Errorf("order required")
	}
	total, err := money.ToCents(order.Total)
	if err != nil {
		return nil, fmt.Errorf("order total: %w", err)
	}

	row := &models.Order{
		ID:         order.ID,
		BuyerID:    order.BuyerID,
		Status:     order.Status,
		Currency:   order.Currency,
		TotalCents: total,
		CreatedAt:  order.CreatedAt,
		UpdatedAt:  order.CreatedAt,
		Items:      make([]models.OrderLineItem, 0, len(order.Items)),
		Vendors:    make([]models.OrderVendorBreakdown, 0, order.Vendors.Len()),
	}

	for i, item := range order.Items {
		price, err := money.ToCents(item.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("item %d price: %w", i, err)
		}
		row.Items = append(row.Items, models.OrderLineItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			Position:       i,
			ProductID:      item.ProductID,
			Name:           item.Name,
			VendorID:       item.VendorID,
			VendorName:     item.VendorName,
			UnitPriceCents: price,
			Qty:            item.Quantity,
			CommissionRate: money.FormatRate(item.CommissionRate),
			CreatedAt:      order.CreatedAt,
		})
	}

	var convErr error
	position := 0
	order.Vendors.Each(func(b VendorBreakdown) {
		if convErr != nil {
			return
		}
		split, err := splitCents(b)
		if err != nil {
			convErr = fmt.Errorf("vendor %s: %w", b.VendorID, err)
			return
		}
		row.Vendors = append(row.Vendors, models.OrderVendorBreakdown{
			ID:              uuid.New(),
			OrderID:         order.ID,
			Position:        position,
			VendorID:        b.VendorID,
			VendorName:      b.VendorName,
			SubtotalCents:   split[0],
			CommissionCents: split[1],
			PayoutCents:     split[2],
			ItemCount:       b.ItemCount,
			CreatedAt:       order.CreatedAt,
		})
		position++
	})
	if convErr != nil {
		return nil, convErr
	}
	return row, nil
}

func splitCents(b VendorBreakdown) ([3]int64, error) {
	var out [3]int64
	for i, amount := range []decimal.Decimal{b.Subtotal, b.Commission, b.Payout} {
		cents, err := money.ToCents(amount)
		if err != nil {
			return out, err
		}
		out[i] = cents
	}
	return out, nil
}

// FromModel rebuilds the domain order from persisted rows. Children are
// expected in position order.
func FromModel(row *models.Order) (*Order, error) {
	if row == nil {
		return nil, fmt.Errorf("order row required")
	}
	order := &Order{
		ID:        row.ID,
		BuyerID:   row.BuyerID,
		Total:     money.FromCents(row.TotalCents),
		Status:    row.Status,
		Currency:  row.Currency,
		CreatedAt: row.CreatedAt,
		Items:     make([]LineItem, 0, len(row.Items)),
		Vendors:   newVendorBreakdowns(len(row.Vendors)),
	}
	for _, item := range row.Items {
		rate, err := money.ParseRate(item.CommissionRate)
		if err != nil {
			return nil, fmt.Errorf("line item %s: %w", item.ID, err)
		}
		order.Items = append(order.Items, LineItem{
			ProductID:      item.ProductID,
			Name:           item.Name,
			UnitPrice:      money.FromCents(item.UnitPriceCents),
			Quantity:       item.Qty,
			VendorID:       item.VendorID,
			VendorName:     item.VendorName,
			CommissionRate: rate,
		})
	}
	for _, v := range row.Vendors {
		order.Vendors.put(breakdownFromModel(v))
	}
	return order, nil
}

func breakdownFromModel(v models.OrderVendorBreakdown) VendorBreakdown {
	return VendorBreakdown{
		VendorID:   v.VendorID,
		VendorName: v.VendorName,
		Subtotal:   money.FromCents(v.SubtotalCents),
		Commission: money.FromCents(v.CommissionCents),
		Payout:     money.FromCents(v.PayoutCents),
		ItemCount:  v.ItemCount,
	}
}
