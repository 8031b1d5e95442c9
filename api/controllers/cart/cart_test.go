package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercato-labs/mercato-backend/api/middleware"
	cartsvc "github.com/mercato-labs/mercato-backend/internal/cart"
	"github.com/mercato-labs/mercato-backend/internal/orders"
	pkgerrors "github.com/mercato-labs/mercato-backend/pkg/errors"
	"github.com/mercato-labs/mercato-backend/pkg/logger"
)

type stubCartService struct {
	cart      *cartsvc.Cart
	err       error
	productID uuid.UUID
	qty       int
	cleared   bool
}

func (s *stubCartService) Get(ctx context.Context, buyerID string) (*cartsvc.Cart, error) {
	return s.cart, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, buyerID string, productID uuid.UUID, qty int) (*cartsvc.Cart, error) {
	s.productID, s.qty = productID, qty
	return s.cart, s.err
}

func (s *stubCartService) SetQuantity(ctx context.Context, buyerID string, productID uuid.UUID, qty int) (*cartsvc.Cart, error) {
	s.productID, s.qty = productID, qty
	return s.cart, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, buyerID string, productID uuid.UUID) (*cartsvc.Cart, error) {
	s.productID = productID
	return s.cart, s.err
}

func (s *stubCartService) Clear(ctx context.Context, buyerID string) error {
	s.cleared = true
	return s.err
}

func (s *stubCartService) Snapshot(ctx context.Context, buyerID string) ([]orders.LineItem, error) {
	return nil, s.err
}

func sampleCart() *cartsvc.Cart {
	return &cartsvc.Cart{
		BuyerID: "buyer-1",
		Items: []cartsvc.Item{
			{ProductID: uuid.New(), Name: "Mug", UnitPrice: decimal.RequireFromString("12.50"), Quantity: 2, VendorID: uuid.New()},
			{ProductID: uuid.New(), Name: "Lamp", UnitPrice: decimal.NewFromInt(45), Quantity: 1, VendorID: uuid.New()},
		},
	}
}

func asBuyer(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), "buyer-1"))
}

func withProduct(req *http.Request, productID string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("productId", productID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestCartFetch(t *testing.T) {
	t.Run("requires user", func(t *testing.T) {
		rec := httptest.NewRecorder()
		CartFetch(&stubCartService{}, logger.Nop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("includes total and count", func(t *testing.T) {
		rec := httptest.NewRecorder()
		CartFetch(&stubCartService{cart: sampleCart()}, logger.Nop()).ServeHTTP(rec, asBuyer(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)))
		require.Equal(t, http.StatusOK, rec.Code)

		var envelope struct {
			Data struct {
				BuyerID   string          `json:"buyer_id"`
				Items     []cartsvc.Item  `json:"items"`
				Total     decimal.Decimal `json:"total"`
				ItemCount int             `json:"item_count"`
			} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
		assert.Equal(t, "buyer-1", envelope.Data.BuyerID)
		assert.Len(t, envelope.Data.Items, 2)
		assert.True(t, envelope.Data.Total.Equal(decimal.NewFromInt(70)), envelope.Data.Total.String())
		assert.Equal(t, 3, envelope.Data.ItemCount)
	})
}

func TestCartAddItem(t *testing.T) {
	productID := uuid.New()

	t.Run("quantity must be positive", func(t *testing.T) {
		body := `{"product_id":"` + productID.String() + `","quantity":0}`
		rec := httptest.NewRecorder()
		CartAddItem(&stubCartService{cart: sampleCart()}, logger.Nop()).ServeHTTP(rec, asBuyer(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed product id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		CartAddItem(&stubCartService{cart: sampleCart()}, logger.Nop()).ServeHTTP(rec, asBuyer(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"product_id":"x","quantity":1}`))))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("adds", func(t *testing.T) {
		svc := &stubCartService{cart: sampleCart()}
		body := `{"product_id":"` + productID.String() + `","quantity":3}`
		rec := httptest.NewRecorder()
		CartAddItem(svc, logger.Nop()).ServeHTTP(rec, asBuyer(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, productID, svc.productID)
		assert.Equal(t, 3, svc.qty)
	})

	t.Run("inactive product", func(t *testing.T) {
		svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
		body := `{"product_id":"` + productID.String() + `","quantity":1}`
		rec := httptest.NewRecorder()
		CartAddItem(svc, logger.Nop()).ServeHTTP(rec, asBuyer(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCartSetQuantity(t *testing.T) {
	productID := uuid.New()

	t.Run("quantity required", func(t *testing.T) {
		req := withProduct(asBuyer(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{}`))), productID.String())
		rec := httptest.NewRecorder()
		CartSetQuantity(&stubCartService{cart: sampleCart()}, logger.Nop()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("zero is forwarded", func(t *testing.T) {
		svc := &stubCartService{cart: sampleCart(), qty: -1}
		req := withProduct(asBuyer(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"quantity":0}`))), productID.String())
		rec := httptest.NewRecorder()
		CartSetQuantity(svc, logger.Nop()).ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, svc.qty)
		assert.Equal(t, productID, svc.productID)
	})
}

func TestCartRemoveAndClear(t *testing.T) {
	productID := uuid.New()

	svc := &stubCartService{cart: sampleCart()}
	rec := httptest.NewRecorder()
	CartRemoveItem(svc, logger.Nop()).ServeHTTP(rec, withProduct(asBuyer(httptest.NewRequest(http.MethodDelete, "/", nil)), productID.String()))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, productID, svc.productID)

	rec = httptest.NewRecorder()
	CartRemoveItem(svc, logger.Nop()).ServeHTTP(rec, withProduct(asBuyer(httptest.NewRequest(http.MethodDelete, "/", nil)), "bogus"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	CartClear(svc, logger.Nop()).ServeHTTP(rec, asBuyer(httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil)))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, svc.cleared)
}
