package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mercato-labs/mercato-backend/pkg/db/models"
	"github.com/mercato-labs/mercato-backend/pkg/enums"
	"github.com/mercato-labs/mercato-backend/pkg/money"
)

// ProductDTO represents the product payload returned to clients.
type ProductDTO struct {
	ID             uuid.UUID             `json:"id"`
	VendorID       uuid.UUID             `json:"vendor_id"`
	VendorName     string                `json:"vendor_name"`
	Title          string                `json:"title"`
	Description    *string               `json:"description,omitempty"`
	Category       enums.ProductCategory `json:"category"`
	Price          decimal.Decimal       `json:"price"`
	PriceCents     int64                 `json:"price_cents"`
	Stock          int                   `json:"stock"`
	CommissionRate *decimal.Decimal      `json:"commission_rate,omitempty"`
	IsActive       bool                  `json:"is_active"`
	RatingAverage  float64               `json:"rating_average"`
	ReviewCount    int                   `json:"review_count"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// ReviewDTO exposes a single product review.
type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	BuyerID   string    `json:"buyer_id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductListResult wraps a page of products plus the next cursor.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// ReviewListResult wraps a page of reviews plus the next cursor.
type ReviewListResult struct {
	Reviews    []ReviewDTO `json:"reviews"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// RatingAverage returns sum/count rounded to two places, or 0 without reviews.
func RatingAverage(sum, count int) float64 {
	if count <= 0 {
		return 0
	}
	avg, _ := decimal.NewFromInt(int64(sum)).
		Div(decimal.NewFromInt(int64(count))).
		Round(2).
		Float64()
	return avg
}

func toProductDTO(p *models.Product) ProductDTO {
	// rates are validated on write
	rate, _ := money.ParseRate(p.CommissionRate)
	return ProductDTO{
		ID:             p.ID,
		VendorID:       p.VendorID,
		VendorName:     p.VendorName,
		Title:          p.Title,
		Description:    p.Description,
		Category:       p.Category,
		Price:          money.FromCents(p.PriceCents),
		PriceCents:     p.PriceCents,
		Stock:          p.Stock,
		CommissionRate: rate,
		IsActive:       p.IsActive,
		RatingAverage:  RatingAverage(p.RatingSum, p.ReviewCount),
		ReviewCount:    p.ReviewCount,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toReviewDTO(r *models.ProductReview) ReviewDTO {
	return ReviewDTO{
		ID:        r.ID,
		ProductID: r.ProductID,
		BuyerID:   r.BuyerID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}
