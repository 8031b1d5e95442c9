package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mercato-labs/mercato-backend/pkg/enums"
	"github.com/mercato-labs/mercato-backend/pkg/money"
)

// Builder turns a cart snapshot into an Order with its per-vendor split.
// It holds only immutable configuration, so one Builder may serve
// concurrent checkouts.
type Builder struct {
	defaultRate decimal.Decimal
	currency    enums.Currency
	newID       func() uuid.UUID
	now         func() time.Time
}

// Option customizes a Builder.
type Option func(*Builder)

// WithIDSource overrides order id generation.
func WithIDSource(fn func() uuid.UUID) Option {
	return func(b *Builder) {
		if fn != nil {
			b.newID = fn
		}
	}
}

// WithClock overrides the creation timestamp source.
func WithClock(fn func() time.Time) Option {
	return func(b *Builder) {
		if fn != nil {
			b.now = fn
		}
	}
}

// WithCurrency sets the currency stamped on built orders.
func WithCurrency(currency enums.Currency) Option {
	return func(b *Builder) {
		b.currency = currency
	}
}

// NewBuilder returns a Builder that applies defaultRate (a percentage) to
// line items without their own commission rate.
func NewBuilder(defaultRate decimal.Decimal, opts ...Option) (*Builder, error) {
	if !money.ValidRate(defaultRate) || !money.IsMinorPrecision(defaultRate) {
		return nil, fmt.Errorf("default commission rate %s must be between 0 and 100 with at most two decimals", defaultRate)
	}
	b := &Builder{
		defaultRate: defaultRate,
		currency:    enums.CurrencyUSD,
		newID:       uuid.New,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(b)
	}
	if !b.currency.IsValid() {
		return nil, fmt.Errorf("unsupported currency %q", b.currency)
	}
	return b, nil
}

// DefaultRate returns the configured platform commission percentage.
func (b *Builder) DefaultRate() decimal.Decimal {
	return b.defaultRate
}

// Build validates items and buyerID and returns a pending Order. Each item's
// commission is rounded to minor units before it is summed into its
// vendor's total, so every vendor payout is exact. Nothing is returned on
// failure.
func (b *Builder) Build(items []LineItem, buyerID string) (*Order, error) {
	buyerID = strings.TrimSpace(buyerID)
	if buyerID == "" {
		return nil, invalidBuyer()
	}
	if len(items) == 0 {
		return nil, invalidCart()
	}

	snapshot := make([]LineItem, 0, len(items))
	vendors := newVendorBreakdowns(len(items))
	total := decimal.Zero

	for i, item := range items {
		if err := b.validate(i, item); err != nil {
			return nil, err
		}
		subtotal := item.Subtotal()
		commission := money.Round(money.Percent(subtotal, b.rateFor(item)))

		total = total.Add(subtotal)
		if !money.Representable(total) {
			return nil, invalidLineItem(i, "quantity", "order total exceeds the storable amount")
		}
		vendors.put(accumulate(vendors, item, subtotal, commission))
		snapshot = append(snapshot, item.clone())
	}

	return &Order{
		ID:        b.newID(),
		BuyerID:   buyerID,
		Items:     snapshot,
		Total:     total,
		Status:    enums.OrderStatusPending,
		Currency:  b.currency,
		CreatedAt: b.now(),
		Vendors:   vendors,
	}, nil
}

func accumulate(vendors VendorBreakdowns, item LineItem, subtotal, commission decimal.Decimal) VendorBreakdown {
	current, ok := vendors.Get(item.VendorID)
	if !ok {
		current = VendorBreakdown{
			VendorID:   item.VendorID,
			VendorName: item.VendorName,
			Subtotal:   decimal.Zero,
			Commission: decimal.Zero,
		}
	}
	current.Subtotal = current.Subtotal.Add(subtotal)
	current.Commission = current.Commission.Add(commission)
	current.Payout = current.Subtotal.Sub(current.Commission)
	current.ItemCount += item.Quantity
	return current
}

func (b *Builder) rateFor(item LineItem) decimal.Decimal {
	if item.CommissionRate != nil {
		return *item.CommissionRate
	}
	return b.defaultRate
}

func (b *Builder) validate(index int, item LineItem) error {
	switch {
	case item.Quantity < 1:
		return invalidLineItem(index, "quantity", "must be at least 1")
	case item.UnitPrice.IsNegative():
		return invalidLineItem(index, "unit_price", "must not be negative")
	case !money.IsMinorPrecision(item.UnitPrice):
		return invalidLineItem(index, "unit_price", "must not have sub-cent precision")
	case item.VendorID == uuid.Nil:
		return invalidLineItem(index, "vendor_id", "is required")
	case item.CommissionRate != nil && !money.ValidRate(*item.CommissionRate):
		return invalidLineItem(index, "commission_rate", "must be between 0 and 100")
	case item.CommissionRate != nil && !money.IsMinorPrecision(*item.CommissionRate):
		return invalidLineItem(index, "commission_rate", "must have at most two decimals")
	}
	return nil
}
