package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductReview is a buyer rating of a product. One review per buyer and product.
type ProductReview struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:product_reviews_product_buyer_key"`
	BuyerID   string    `gorm:"column:buyer_id;not null;uniqueIndex:product_reviews_product_buyer_key"`
	Rating    int       `gorm:"column:rating;not null"`
	Comment   *string   `gorm:"column:comment"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}
