package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cartsvc "github.com/mercato-labs/mercato-backend/internal/cart"
)

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=999"`
}

// Quantity 0 removes the line.
type setQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0,max=999"`
}

type cartResponse struct {
	*cartsvc.Cart
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

func newCartResponse(c *cartsvc.Cart) cartResponse {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return cartResponse{Cart: c, Total: c.Total(), ItemCount: count}
}
