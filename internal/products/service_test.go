package product

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mercato-labs/mercato-backend/pkg/db"
	"github.com/mercato-labs/mercato-backend/pkg/db/dbtest"
	"github.com/mercato-labs/mercato-backend/pkg/db/models"
	"github.com/mercato-labs/mercato-backend/pkg/enums"
	pkgerrors "github.com/mercato-labs/mercato-backend/pkg/errors"
	"github.com/mercato-labs/mercato-backend/pkg/logger"
	"github.com/mercato-labs/mercato-backend/pkg/money"
	"github.com/mercato-labs/mercato-backend/pkg/outbox"
	"github.com/mercato-labs/mercato-backend/pkg/outbox/payloads"
	"github.com/mercato-labs/mercato-backend/pkg/pagination"
)

type stubVendors map[uuid.UUID]*models.Vendor

func (s stubVendors) FindVendor(_ context.Context, id uuid.UUID) (*models.Vendor, error) {
	v, ok := s[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

type productFixture struct {
	db      *gorm.DB
	repo    *Repository
	svc     Service
	vendors stubVendors
	active  *models.Vendor
}

func newProductFixture(t *testing.T) *productFixture {
	t.Helper()
	conn := dbtest.Open(t)
	active := &models.Vendor{ID: uuid.New(), DisplayName: "Acme", Status: enums.VendorStatusActive}
	pending := &models.Vendor{ID: uuid.New(), DisplayName: "Newbie", Status: enums.VendorStatusOnboarding}
	vendors := stubVendors{active.ID: active, pending.ID: pending}

	repo := NewRepository(conn)
	emitter := outbox.NewService(outbox.NewRepository(conn), logger.Nop())
	svc, err := NewService(repo, db.NewFromGorm(conn), vendors, emitter)
	require.NoError(t, err)
	return &productFixture{db: conn, repo: repo, svc: svc, vendors: vendors, active: active}
}

func (f *productFixture) create(t *testing.T, title string, category enums.ProductCategory) *ProductDTO {
	t.Helper()
	p, err := f.svc.CreateProduct(context.Background(), f.active.ID, CreateProductInput{
		Title:      title,
		Category:   category,
		PriceCents: 1999,
		Stock:      10,
		IsActive:   true,
	})
	require.NoError(t, err)
	return p
}

func TestCreateProductRequiresActiveVendor(t *testing.T) {
	f := newProductFixture(t)
	var pendingID uuid.UUID
	for id, v := range f.vendors {
		if v.Status == enums.VendorStatusOnboarding {
			pendingID = id
		}
	}

	_, err := f.svc.CreateProduct(context.Background(), pendingID, CreateProductInput{Title: "x", Category: enums.ProductCategoryHome})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.CreateProduct(context.Background(), uuid.New(), CreateProductInput{Title: "x", Category: enums.ProductCategoryHome})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestCreateProductValidation(t *testing.T) {
	f := newProductFixture(t)
	tooHigh := decimal.NewFromInt(101)
	tooPrecise := decimal.RequireFromString("10.125")

	cases := map[string]CreateProductInput{
		"blank title":    {Title: " ", Category: enums.ProductCategoryHome},
		"bad category":   {Title: "lamp", Category: "garden"},
		"negative price": {Title: "lamp", Category: enums.ProductCategoryHome, PriceCents: -1},
		"price over cap": {Title: "lamp", Category: enums.ProductCategoryHome, PriceCents: money.MaxPriceCents + 1},
		"negative stock": {Title: "lamp", Category: enums.ProductCategoryHome, Stock: -1},
		"rate above 100": {Title: "lamp", Category: enums.ProductCategoryHome, CommissionRate: &tooHigh},
		"rate sub-basis": {Title: "lamp", Category: enums.ProductCategoryHome, CommissionRate: &tooPrecise},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.CreateProduct(context.Background(), f.active.ID, input)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestCreateAndGetProduct(t *testing.T) {
	f := newProductFixture(t)
	rate := decimal.RequireFromString("12.5")
	created, err := f.svc.CreateProduct(context.Background(), f.active.ID, CreateProductInput{
		Title:          "  Desk lamp ",
		Category:       enums.ProductCategoryHome,
		PriceCents:     4500,
		Stock:          3,
		CommissionRate: &rate,
		IsActive:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Desk lamp", created.Title)
	assert.Equal(t, "Acme", created.VendorName)
	assert.True(t, created.Price.Equal(decimal.NewFromInt(45)))

	got, err := f.svc.GetProduct(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CommissionRate)
	assert.True(t, got.CommissionRate.Equal(rate))
	assert.Zero(t, got.RatingAverage)

	_, err = f.svc.GetProduct(context.Background(), uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestCreateInactiveProductStaysInactive(t *testing.T) {
	f := newProductFixture(t)
	created, err := f.svc.CreateProduct(context.Background(), f.active.ID, CreateProductInput{
		Title:    "draft",
		Category: enums.ProductCategoryOther,
	})
	require.NoError(t, err)

	var row models.Product
	require.NoError(t, f.db.First(&row, "id = ?", created.ID).Error)
	assert.False(t, row.IsActive)
}

func TestUpdateAndArchiveEnforceOwnership(t *testing.T) {
	f := newProductFixture(t)
	p := f.create(t, "lamp", enums.ProductCategoryHome)
	other := uuid.New()
	ctx := context.Background()

	price := int64(2500)
	_, err := f.svc.UpdateProduct(ctx, other, p.ID, UpdateProductInput{PriceCents: &price})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))

	updated, err := f.svc.UpdateProduct(ctx, f.active.ID, p.ID, UpdateProductInput{PriceCents: &price})
	require.NoError(t, err)
	assert.Equal(t, int64(2500), updated.PriceCents)
	assert.Equal(t, "lamp", updated.Title)

	assert.True(t, pkgerrors.HasCode(f.svc.ArchiveProduct(ctx, other, p.ID), pkgerrors.CodeForbidden))
	require.NoError(t, f.svc.ArchiveProduct(ctx, f.active.ID, p.ID))
	require.NoError(t, f.svc.ArchiveProduct(ctx, f.active.ID, p.ID))

	got, err := f.svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestListProductsFilters(t *testing.T) {
	f := newProductFixture(t)
	lamp := f.create(t, "Brass Lamp", enums.ProductCategoryHome)
	f.create(t, "Running shoes", enums.ProductCategorySports)
	archived := f.create(t, "Old lamp", enums.ProductCategoryHome)
	require.NoError(t, f.svc.ArchiveProduct(context.Background(), f.active.ID, archived.ID))

	home := enums.ProductCategoryHome
	result, err := f.svc.ListProducts(context.Background(), ListProductsInput{Filters: ProductListFilters{Category: &home}})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, lamp.ID, result.Products[0].ID)

	result, err = f.svc.ListProducts(context.Background(), ListProductsInput{Filters: ProductListFilters{Query: "LAMP", IncludeInactive: true}})
	require.NoError(t, err)
	assert.Len(t, result.Products, 2)

	result, err = f.svc.ListProducts(context.Background(), ListProductsInput{Filters: ProductListFilters{Query: "100%"}})
	require.NoError(t, err)
	assert.Empty(t, result.Products)

	bad := enums.ProductCategory("garden")
	_, err = f.svc.ListProducts(context.Background(), ListProductsInput{Filters: ProductListFilters{Category: &bad}})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestListProductsPaginates(t *testing.T) {
	f := newProductFixture(t)
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := f.repo.CreateProduct(context.Background(), &models.Product{
			VendorID:   f.active.ID,
			VendorName: "Acme",
			Title:      "item",
			Category:   enums.ProductCategoryToys,
			IsActive:   true,
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	page, err := f.svc.ListProducts(context.Background(), ListProductsInput{Pagination: pagination.Params{Limit: 2}})
	require.NoError(t, err)
	require.Len(t, page.Products, 2)
	require.NotEmpty(t, page.NextCursor)
	assert.True(t, page.Products[0].CreatedAt.After(page.Products[1].CreatedAt))

	rest, err := f.svc.ListProducts(context.Background(), ListProductsInput{Pagination: pagination.Params{Limit: 2, Cursor: page.NextCursor}})
	require.NoError(t, err)
	assert.Len(t, rest.Products, 1)
	assert.Empty(t, rest.NextCursor)
}

func TestAddReviewUpdatesAggregatesAndEmits(t *testing.T) {
	f := newProductFixture(t)
	p := f.create(t, "lamp", enums.ProductCategoryHome)
	ctx := context.Background()

	_, err := f.svc.AddReview(ctx, "b1", p.ID, ReviewInput{Rating: 5})
	require.NoError(t, err)
	comment := "wobbly"
	review, err := f.svc.AddReview(ctx, "b2", p.ID, ReviewInput{Rating: 2, Comment: &comment})
	require.NoError(t, err)
	assert.Equal(t, "wobbly", *review.Comment)

	got, err := f.svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ReviewCount)
	assert.InDelta(t, 3.5, got.RatingAverage, 0.0001)

	_, err = f.svc.AddReview(ctx, "b1", p.ID, ReviewInput{Rating: 1})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict), "duplicate review: %v", err)

	var events []models.OutboxEvent
	require.NoError(t, f.db.Where("event_type = ?", enums.EventProductReviewed).Find(&events).Error)
	require.Len(t, events, 2)
	counts := map[int]float64{}
	for _, e := range events {
		var envelope outbox.PayloadEnvelope
		require.NoError(t, json.Unmarshal(e.Payload, &envelope))
		var payload payloads.ProductReviewedEvent
		require.NoError(t, json.Unmarshal(envelope.Data, &payload))
		assert.Equal(t, f.active.ID, payload.VendorID)
		counts[payload.ReviewCount] = payload.RatingAverage
	}
	assert.InDelta(t, 5.0, counts[1], 0.0001)
	assert.InDelta(t, 3.5, counts[2], 0.0001)

	list, err := f.svc.ListReviews(ctx, p.ID, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, list.Reviews, 2)
}

func TestAddReviewValidation(t *testing.T) {
	f := newProductFixture(t)
	p := f.create(t, "lamp", enums.ProductCategoryHome)
	ctx := context.Background()

	for _, rating := range []int{0, 6, -1} {
		_, err := f.svc.AddReview(ctx, "b1", p.ID, ReviewInput{Rating: rating})
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "rating %d", rating)
	}
	_, err := f.svc.AddReview(ctx, "", p.ID, ReviewInput{Rating: 3})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
	_, err = f.svc.AddReview(ctx, "b1", uuid.New(), ReviewInput{Rating: 3})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestRatingAverage(t *testing.T) {
	assert.Zero(t, RatingAverage(0, 0))
	assert.Zero(t, RatingAverage(10, -1))
	assert.InDelta(t, 4.33, RatingAverage(13, 3), 0.0001)
	assert.InDelta(t, 1.0, RatingAverage(1, 1), 0.0001)
}
