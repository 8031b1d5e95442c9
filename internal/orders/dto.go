package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/mercato-labs/mercato-backend/pkg/enums"
)

// Actor identifies the authenticated caller of an order operation.
type Actor struct {
	UserID   string
	Role     enums.Role
	VendorID *uuid.UUID
}

func (a Actor) isAdmin() bool {
	return a.Role == enums.RoleAdmin
}

func (a Actor) isVendorOf(order *Order) bool {
	return a.Role == enums.RoleVendor && a.VendorID != nil && order.HasVendor(*a.VendorID)
}

func (a Actor) isBuyerOf(order *Order) bool {
	return a.UserID != "" && order.BuyerID == a.UserID
}

// StatusUpdateInput carries a requested lifecycle transition.
type StatusUpdateInput struct {
	OrderID uuid.UUID
	Status  enums.OrderStatus
	Actor   Actor
}

// OrderList wraps a page of buyer orders plus the next page cursor.
type OrderList struct {
	Orders     []Order `json:"orders"`
	NextCursor string  `json:"next_cursor,omitempty"`
}

// VendorOrderView is the slice of an order one vendor is allowed to see:
// its own line items and its own split.
type VendorOrderView struct {
	OrderID   uuid.UUID         `json:"order_id"`
	BuyerID   string            `json:"buyer_id"`
	Status    enums.OrderStatus `json:"status"`
	Currency  enums.Currency    `json:"currency"`
	CreatedAt time.Time         `json:"created_at"`
	Items     []LineItem        `json:"items"`
	Breakdown VendorBreakdown   `json:"breakdown"`
}

// VendorOrderList wraps paginated vendor orders plus the next cursor.
type VendorOrderList struct {
	Orders     []VendorOrderView `json:"orders"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

func vendorView(order *Order, vendorID uuid.UUID) VendorOrderView {
	view := VendorOrderView{
		OrderID:   order.ID,
		BuyerID:   order.BuyerID,
		Status:    order.Status,
		Currency:  order.Currency,
		CreatedAt: order.CreatedAt,
		Items:     []LineItem{},
	}
	for _, item := range order.Items {
		if item.VendorID == vendorID {
			view.Items = append(view.Items, item)
		}
	}
	view.Breakdown, _ = order.Vendors.Get(vendorID)
	return view
}
