package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mercato-labs/mercato-backend/pkg/db"
	"github.com/mercato-labs/mercato-backend/pkg/db/models"
	"github.com/mercato-labs/mercato-backend/pkg/enums"
	pkgerrors "github.com/mercato-labs/mercato-backend/pkg/errors"
	"github.com/mercato-labs/mercato-backend/pkg/money"
	"github.com/mercato-labs/mercato-backend/pkg/outbox"
	"github.com/mercato-labs/mercato-backend/pkg/outbox/payloads"
	"github.com/mercato-labs/mercato-backend/pkg/pagination"
)

const (
	minRating = 1
	maxRating = 5

	reviewUniqueConstraint = "product_reviews_product_buyer_key"
)

// Service exposes catalog browsing, vendor listing management and reviews.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	CreateProduct(ctx context.Context, vendorID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, vendorID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	ArchiveProduct(ctx context.Context, vendorID, productID uuid.UUID) error
	AddReview(ctx context.Context, buyerID string, productID uuid.UUID, input ReviewInput) (*ReviewDTO, error)
	ListReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewListResult, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Title          string
	Description    *string
	Category       enums.ProductCategory
	PriceCents     int64
	Stock          int
	CommissionRate *decimal.Decimal
	IsActive       bool
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Title          *string
	Description    *string
	Category       *enums.ProductCategory
	PriceCents     *int64
	Stock          *int
	CommissionRate *decimal.Decimal
	IsActive       *bool
}

// ReviewInput is a buyer's rating with an optional comment.
type ReviewInput struct {
	Rating  int
	Comment *string
}

type vendorLoader interface {
	FindVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo    *Repository
	tx      txRunner
	vendors vendorLoader
	outbox  outboxPublisher
}

// NewService constructs a product service instance.
func NewService(repo *Repository, tx txRunner, vendors vendorLoader, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if vendors == nil {
		return nil, fmt.Errorf("vendor loader required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, vendors: vendors, outbox: outbox}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	if input.Filters.Category != nil && !input.Filters.Category.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid category %q", *input.Filters.Category)
	}
	if _, err := pagination.ParseCursor(input.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.ListProducts(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	result := &ProductListResult{Products: make([]ProductDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		result.Products = append(result.Products, toProductDTO(&rows[i]))
	}
	return result, nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.findProduct(ctx, s.repo, productID)
	if err != nil {
		return nil, err
	}
	dto := toProductDTO(product)
	return &dto, nil
}

// CreateProduct lists a new product for an active vendor.
func (s *service) CreateProduct(ctx context.Context, vendorID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	vendor, err := s.activeVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		VendorID:       vendor.ID,
		VendorName:     vendor.DisplayName,
		Title:          strings.TrimSpace(input.Title),
		Description:    input.Description,
		Category:       input.Category,
		PriceCents:     input.PriceCents,
		Stock:          input.Stock,
		CommissionRate: money.FormatRate(input.CommissionRate),
		IsActive:       input.IsActive,
	}
	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	dto := toProductDTO(created)
	return &dto, nil
}

func (s *service) UpdateProduct(ctx context.Context, vendorID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if err := validateUpdate(input); err != nil {
		return nil, err
	}
	product, err := s.ownedProduct(ctx, vendorID, productID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		product.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.PriceCents != nil {
		product.PriceCents = *input.PriceCents
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.CommissionRate != nil {
		product.CommissionRate = money.FormatRate(input.CommissionRate)
	}
	if input.IsActive != nil {
		if *input.IsActive {
			if _, err := s.activeVendor(ctx, vendorID); err != nil {
				return nil, err
			}
		}
		product.IsActive = *input.IsActive
	}

	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	dto := toProductDTO(updated)
	return &dto, nil
}

// ArchiveProduct hides a listing from the catalog and from new carts.
// Orders already placed keep their snapshot.
func (s *service) ArchiveProduct(ctx context.Context, vendorID, productID uuid.UUID) error {
	product, err := s.ownedProduct(ctx, vendorID, productID)
	if err != nil {
		return err
	}
	if !product.IsActive {
		return nil
	}
	product.IsActive = false
	if _, err := s.repo.UpdateProduct(ctx, product); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: archive product")
	}
	return nil
}

// AddReview stores the buyer's rating, folds it into the product
// aggregates and queues product_reviewed in the same transaction.
func (s *service) AddReview(ctx context.Context, buyerID string, productID uuid.UUID, input ReviewInput) (*ReviewDTO, error) {
	buyerID = strings.TrimSpace(buyerID)
	if buyerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Rating < minRating || input.Rating > maxRating {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "rating must be between %d and %d", minRating, maxRating)
	}

	review := &models.ProductReview{
		ProductID: productID,
		BuyerID:   buyerID,
		Rating:    input.Rating,
		Comment:   input.Comment,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := s.findProduct(ctx, repo, productID)
		if err != nil {
			return err
		}
		if err := repo.CreateReview(ctx, review); err != nil {
			if db.IsUniqueViolation(err, reviewUniqueConstraint) {
				return pkgerrors.New(pkgerrors.CodeConflict, "product already reviewed")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert review")
		}
		if err := repo.ApplyRating(ctx, product.ID, input.Rating); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update rating")
		}

		count := product.ReviewCount + 1
		sum := product.RatingSum + input.Rating
		event := outbox.DomainEvent{
			EventType:     enums.EventProductReviewed,
			AggregateType: enums.AggregateProduct,
			AggregateID:   product.ID,
			Actor:         &outbox.ActorRef{UserID: buyerID, Role: enums.RoleBuyer.String()},
			Data: payloads.ProductReviewedEvent{
				ProductID:     product.ID,
				VendorID:      product.VendorID,
				Rating:        input.Rating,
				ReviewCount:   count,
				RatingAverage: RatingAverage(sum, count),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit product reviewed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := toReviewDTO(review)
	return &dto, nil
}

func (s *service) ListReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewListResult, error) {
	if _, err := s.findProduct(ctx, s.repo, productID); err != nil {
		return nil, err
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.ListReviews(ctx, productID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	result := &ReviewListResult{Reviews: make([]ReviewDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		result.Reviews = append(result.Reviews, toReviewDTO(&rows[i]))
	}
	return result, nil
}

func (s *service) findProduct(ctx context.Context, repo *Repository, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := repo.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) ownedProduct(ctx context.Context, vendorID, productID uuid.UUID) (*models.Product, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing")
	}
	product, err := s.findProduct(ctx, s.repo, productID)
	if err != nil {
		return nil, err
	}
	if product.VendorID != vendorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product does not belong to vendor")
	}
	return product, nil
}

func (s *service) activeVendor(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing")
	}
	vendor, err := s.vendors.FindVendor(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	if vendor.Status != enums.VendorStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor must finish onboarding before listing products")
	}
	return vendor, nil
}

func validateCreate(input CreateProductInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if !input.Category.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid category %q", input.Category)
	}
	return validateAmounts(&input.PriceCents, &input.Stock, input.CommissionRate)
}

func validateUpdate(input UpdateProductInput) error {
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title must not be blank")
	}
	if input.Category != nil && !input.Category.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid category %q", *input.Category)
	}
	return validateAmounts(input.PriceCents, input.Stock, input.CommissionRate)
}

func validateAmounts(priceCents *int64, stock *int, rate *decimal.Decimal) error {
	if priceCents != nil && *priceCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price_cents must not be negative")
	}
	if priceCents != nil && *priceCents > money.MaxPriceCents {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "price_cents must not exceed %d", money.MaxPriceCents)
	}
	if stock != nil && *stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}
	if rate != nil && (!money.ValidRate(*rate) || !money.IsMinorPrecision(*rate)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "commission_rate must be between 0 and 100 with at most two decimals")
	}
	return nil
}
