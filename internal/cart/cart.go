package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mercato-labs/mercato-backend/internal/orders"
)

// Item is one product line in a buyer's cart. Price, vendor and commission
// are captured when the product is added.
type Item struct {
	ProductID      uuid.UUID        `json:"product_id"`
	Name           string           `json:"name"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	Quantity       int              `json:"quantity"`
	VendorID       uuid.UUID        `json:"vendor_id"`
	VendorName     string           `json:"vendor_name"`
	CommissionRate *decimal.Decimal `json:"commission_rate,omitempty"`
	AddedAt        time.Time        `json:"added_at"`
}

// Cart holds at most one Item per product, in the order products were added.
type Cart struct {
	BuyerID   string    `json:"buyer_id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

func emptyCart(buyerID string) *Cart {
	return &Cart{BuyerID: buyerID, Items: []Item{}}
}

func (c *Cart) find(productID uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) remove(index int) {
	c.Items = append(c.Items[:index], c.Items[index+1:]...)
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Total is the undiscounted sum of price × quantity.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// LineItems converts the cart into order builder input.
func (c *Cart) LineItems() []orders.LineItem {
	out := make([]orders.LineItem, 0, len(c.Items))
	for _, item := range c.Items {
		line := orders.LineItem{
			ProductID:  item.ProductID,
			Name:       item.Name,
			UnitPrice:  item.UnitPrice,
			Quantity:   item.Quantity,
			VendorID:   item.VendorID,
			VendorName: item.VendorName,
		}
		if item.CommissionRate != nil {
			rate := *item.CommissionRate
			line.CommissionRate = &rate
		}
		out = append(out, line)
	}
	return out
}
