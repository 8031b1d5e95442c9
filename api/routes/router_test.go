package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercato-labs/mercato-backend/internal/orders"
	products "github.com/mercato-labs/mercato-backend/internal/products"
	pkgAuth "github.com/mercato-labs/mercato-backend/pkg/auth"
	"github.com/mercato-labs/mercato-backend/pkg/config"
	"github.com/mercato-labs/mercato-backend/pkg/enums"
	"github.com/mercato-labs/mercato-backend/pkg/logger"
	"github.com/mercato-labs/mercato-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubProducts struct{}

func (stubProducts) ListProducts(ctx context.Context, input products.ListProductsInput) (*products.ProductListResult, error) {
	return &products.ProductListResult{Products: []products.ProductDTO{}}, nil
}

func (stubProducts) GetProduct(ctx context.Context, productID uuid.UUID) (*products.ProductDTO, error) {
	return &products.ProductDTO{ID: productID}, nil
}

func (stubProducts) CreateProduct(ctx context.Context, vendorID uuid.UUID, input products.CreateProductInput) (*products.ProductDTO, error) {
	return &products.ProductDTO{ID: uuid.New(), VendorID: vendorID}, nil
}

func (stubProducts) UpdateProduct(ctx context.Context, vendorID, productID uuid.UUID, input products.UpdateProductInput) (*products.ProductDTO, error) {
	return &products.ProductDTO{ID: productID, VendorID: vendorID}, nil
}

func (stubProducts) ArchiveProduct(ctx context.Context, vendorID, productID uuid.UUID) error {
	return nil
}

func (stubProducts) AddReview(ctx context.Context, buyerID string, productID uuid.UUID, input products.ReviewInput) (*products.ReviewDTO, error) {
	return &products.ReviewDTO{ID: uuid.New(), ProductID: productID, BuyerID: buyerID, Rating: input.Rating}, nil
}

func (stubProducts) ListReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) (*products.ReviewListResult, error) {
	return &products.ReviewListResult{Reviews: []products.ReviewDTO{}}, nil
}

type stubCheckout struct{}

func (stubCheckout) Checkout(ctx context.Context, buyerID string) (*orders.Order, error) {
	return &orders.Order{ID: uuid.New(), BuyerID: buyerID, Status: enums.OrderStatusPending}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{
			Secret:            "test-secret",
			Issuer:            "mercato-test",
			ExpirationMinutes: 15,
		},
		RateLimit: config.RateLimitConfig{Window: time.Minute, IPLimit: 100, UserLimit: 100},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testConfig()
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "router_test_total", Help: "test"}))
	router := NewRouter(cfg, logger.Nop(), Infra{DB: stubPinger{}, Metrics: reg}, Services{
		Products: stubProducts{},
		Checkout: stubCheckout{},
	})
	return router, cfg
}

func bearer(t *testing.T, cfg *config.Config, role enums.Role, vendorID *uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   "user-" + string(role),
		Role:     role,
		VendorID: vendorID,
	})
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(router http.Handler, method, target, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	router, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health/live", "").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health/ready", "").Code)

	rec := serve(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "router_test_total")
}

func TestPublicCatalogNeedsNoToken(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := serve(router, http.MethodGet, "/api/public/products", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data products.ProductListResult `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Empty(t, envelope.Data.Products)

	productID := uuid.New()
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/public/products/"+productID.String(), "").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/public/products/"+productID.String()+"/reviews", "").Code)
}

func TestPrivateRoutesRequireToken(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, target := range []string{"/api/v1/cart", "/api/v1/orders", "/api/v1/vendors/me", "/api/v1/vendor/analytics"} {
		rec := serve(router, http.MethodGet, target, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/api/v1/cart", "Bearer garbage").Code)
}

func TestVendorRoutesRequireVendorToken(t *testing.T) {
	router, cfg := newTestRouter(t)

	buyer := bearer(t, cfg, enums.RoleBuyer, nil)
	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodGet, "/api/v1/vendor/products", buyer).Code)

	vendorID := uuid.New()
	vendor := bearer(t, cfg, enums.RoleVendor, &vendorID)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/v1/vendor/products", vendor).Code)
}

func TestCheckoutRoute(t *testing.T) {
	router, cfg := newTestRouter(t)

	vendorID := uuid.New()
	vendor := bearer(t, cfg, enums.RoleVendor, &vendorID)
	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodPost, "/api/v1/checkout", vendor).Code)

	buyer := bearer(t, cfg, enums.RoleBuyer, nil)
	assert.Equal(t, http.StatusCreated, serve(router, http.MethodPost, "/api/v1/checkout", buyer).Code)
}

func TestUnwiredServiceReportsInternal(t *testing.T) {
	router, cfg := newTestRouter(t)

	buyer := bearer(t, cfg, enums.RoleBuyer, nil)
	assert.Equal(t, http.StatusInternalServerError, serve(router, http.MethodGet, "/api/v1/cart", buyer).Code)
}
