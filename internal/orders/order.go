package orders

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mercato-labs/mercato-backend/pkg/enums"
)

// LineItem is a product snapshot taken when it was added to the cart.
// A nil CommissionRate means the platform default applies.
type LineItem struct {
	ProductID      uuid.UUID        `json:"product_id"`
	Name           string           `json:"name"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	Quantity       int              `json:"quantity"`
	VendorID       uuid.UUID        `json:"vendor_id"`
	VendorName     string           `json:"vendor_name"`
	CommissionRate *decimal.Decimal `json:"commission_rate,omitempty"`
}

// Subtotal is UnitPrice × Quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

func (li LineItem) clone() LineItem {
	if li.CommissionRate != nil {
		rate := *li.CommissionRate
		li.CommissionRate = &rate
	}
	return li
}

// VendorBreakdown is one vendor's share of an order. Payout + Commission
// always equals Subtotal.
type VendorBreakdown struct {
	VendorID   uuid.UUID       `json:"vendor_id"`
	VendorName string          `json:"vendor_name"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Commission decimal.Decimal `json:"commission"`
	Payout     decimal.Decimal `json:"payout"`
	ItemCount  int             `json:"item_count"`
}

// VendorBreakdowns maps vendor id to breakdown, preserving the order in
// which vendors first appeared in the cart.
type VendorBreakdowns struct {
	keys []uuid.UUID
	byID map[uuid.UUID]VendorBreakdown
}

func newVendorBreakdowns(capacity int) VendorBreakdowns {
	return VendorBreakdowns{
		keys: make([]uuid.UUID, 0, capacity),
		byID: make(map[uuid.UUID]VendorBreakdown, capacity),
	}
}

// put inserts or replaces a breakdown. Replacing keeps the original position.
func (v *VendorBreakdowns) put(b VendorBreakdown) {
	if v.byID == nil {
		v.byID = make(map[uuid.UUID]VendorBreakdown)
	}
	if _, ok := v.byID[b.VendorID]; !ok {
		v.keys = append(v.keys, b.VendorID)
	}
	v.byID[b.VendorID] = b
}

// Len returns the number of vendors.
func (v VendorBreakdowns) Len() int {
	return len(v.keys)
}

// Keys returns vendor ids in first-appearance order.
func (v VendorBreakdowns) Keys() []uuid.UUID {
	out := make([]uuid.UUID, len(v.keys))
	copy(out, v.keys)
	return out
}

// Get returns the breakdown for vendorID.
func (v VendorBreakdowns) Get(vendorID uuid.UUID) (VendorBreakdown, bool) {
	b, ok := v.byID[vendorID]
	return b, ok
}

// Each calls fn for every breakdown in order.
func (v VendorBreakdowns) Each(fn func(VendorBreakdown)) {
	for _, id := range v.keys {
		fn(v.byID[id])
	}
}

// Values returns the breakdowns in order.
func (v VendorBreakdowns) Values() []VendorBreakdown {
	out := make([]VendorBreakdown, 0, len(v.keys))
	v.Each(func(b VendorBreakdown) { out = append(out, b) })
	return out
}

// MarshalJSON encodes the breakdowns as an ordered array.
func (v VendorBreakdowns) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Values())
}

// UnmarshalJSON decodes an array produced by MarshalJSON.
func (v *VendorBreakdowns) UnmarshalJSON(data []byte) error {
	var values []VendorBreakdown
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*v = newVendorBreakdowns(len(values))
	for _, b := range values {
		if _, dup := v.byID[b.VendorID]; dup {
			return fmt.Errorf("duplicate vendor %s in breakdowns", b.VendorID)
		}
		v.put(b)
	}
	return nil
}

// Order is the immutable result of a checkout. Only Status changes after
// creation.
type Order struct {
	ID        uuid.UUID         `json:"id"`
	BuyerID   string            `json:"buyer_id"`
	Items     []LineItem        `json:"items"`
	Total     decimal.Decimal   `json:"total"`
	Status    enums.OrderStatus `json:"status"`
	Currency  enums.Currency    `json:"currency"`
	CreatedAt time.Time         `json:"created_at"`
	Vendors   VendorBreakdowns  `json:"vendors"`
}

// HasVendor reports whether vendorID contributed items to the order.
func (o *Order) HasVendor(vendorID uuid.UUID) bool {
	_, ok := o.Vendors.Get(vendorID)
	return ok
}

// VendorIDs returns the contributing vendors in cart order.
func (o *Order) VendorIDs() []uuid.UUID {
	return o.Vendors.Keys()
}
