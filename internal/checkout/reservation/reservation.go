// Package reservation decrements product stock for the items of an order.
package reservation

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercato-labs/mercato-backend/pkg/db/models"
	pkgerrors "github.com/mercato-labs/mercato-backend/pkg/errors"
)

// StockRequest asks for Qty units of ProductID.
type StockRequest struct {
	ProductID uuid.UUID
	Qty       int
}

// StockResult reports whether the request was satisfied.
type StockResult struct {
	ProductID uuid.UUID `json:"product_id"`
	Qty       int       `json:"qty"`
	Reserved  bool      `json:"reserved"`
	Reason    string    `json:"reason,omitempty"`
}

const reasonInsufficientStock = "insufficient stock"

// ReserveStock decrements stock for each request inside tx. Each request is a
// conditional update, so two checkouts racing for the last unit cannot both
// win. Requests that cannot be satisfied are reported, not applied; the caller
// decides whether to roll back.
func ReserveStock(ctx context.Context, tx *gorm.DB, requests []StockRequest) ([]StockResult, error) {
	results := make([]StockResult, 0, len(requests))
	for _, req := range requests {
		if req.ProductID == uuid.Nil || req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid stock request")
		}
		res := tx.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ? AND stock >= ?", req.ProductID, req.Qty).
			Update("stock", gorm.Expr("stock - ?", req.Qty))
		if res.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve stock")
		}
		result := StockResult{ProductID: req.ProductID, Qty: req.Qty, Reserved: res.RowsAffected == 1}
		if !result.Reserved {
			result.Reason = reasonInsufficientStock
		}
		results = append(results, result)
	}
	return results, nil
}

// Shortfalls returns the results that were not reserved.
func Shortfalls(results []StockResult) []StockResult {
	var out []StockResult
	for _, r := range results {
		if !r.Reserved {
			out = append(out, r)
		}
	}
	return out
}
