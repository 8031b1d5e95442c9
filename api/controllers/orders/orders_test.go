package orders

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercato-labs/mercato-backend/api/middleware"
	internalorders "github.com/mercato-labs/mercato-backend/internal/orders"
	"github.com/mercato-labs/mercato-backend/pkg/enums"
	pkgerrors "github.com/mercato-labs/mercato-backend/pkg/errors"
	"github.com/mercato-labs/mercato-backend/pkg/logger"
	"github.com/mercato-labs/mercato-backend/pkg/pagination"
)

type stubOrdersService struct {
	actor    internalorders.Actor
	update   internalorders.StatusUpdateInput
	buyerID  string
	vendorID uuid.UUID
	params   pagination.Params
	err      error
}

func (s *stubOrdersService) Get(ctx context.Context, actor internalorders.Actor, orderID uuid.UUID) (*internalorders.Order, error) {
	s.actor = actor
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.Order{ID: orderID}, nil
}

func (s *stubOrdersService) ListForBuyer(ctx context.Context, buyerID string, params pagination.Params) (*internalorders.OrderList, error) {
	s.buyerID = buyerID
	s.params = params
	return &internalorders.OrderList{Orders: []internalorders.Order{}}, s.err
}

func (s *stubOrdersService) ListForVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*internalorders.VendorOrderList, error) {
	s.vendorID = vendorID
	s.params = params
	return &internalorders.VendorOrderList{Orders: []internalorders.VendorOrderView{}}, s.err
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, input internalorders.StatusUpdateInput) (*internalorders.Order, error) {
	s.update = input
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.Order{ID: input.OrderID, Status: input.Status}, nil
}

func withOrder(req *http.Request, orderID string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", orderID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func asBuyer(req *http.Request, userID string) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID)
	return req.WithContext(middleware.WithRole(ctx, enums.RoleBuyer))
}

func asVendor(req *http.Request, userID string, vendorID uuid.UUID) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID)
	ctx = middleware.WithRole(ctx, enums.RoleVendor)
	return req.WithContext(middleware.WithVendorID(ctx, vendorID))
}

func TestBuyerOrderList(t *testing.T) {
	rec := httptest.NewRecorder()
	BuyerOrderList(&stubOrdersService{}, logger.Nop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	svc := &stubOrdersService{}
	rec = httptest.NewRecorder()
	BuyerOrderList(svc, logger.Nop()).ServeHTTP(rec, asBuyer(httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=5&cursor=abc", nil), "buyer-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "buyer-1", svc.buyerID)
	assert.Equal(t, pagination.Params{Limit: 5, Cursor: "abc"}, svc.params)
}

func TestOrderDetailPassesActor(t *testing.T) {
	orderID := uuid.New()
	vendorID := uuid.New()

	svc := &stubOrdersService{}
	req := withOrder(asVendor(httptest.NewRequest(http.MethodGet, "/", nil), "owner-1", vendorID), orderID.String())
	rec := httptest.NewRecorder()
	OrderDetail(svc, logger.Nop()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "owner-1", svc.actor.UserID)
	assert.Equal(t, enums.RoleVendor, svc.actor.Role)
	require.NotNil(t, svc.actor.VendorID)
	assert.Equal(t, vendorID, *svc.actor.VendorID)

	denied := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another buyer")}
	rec = httptest.NewRecorder()
	OrderDetail(denied, logger.Nop()).ServeHTTP(rec, withOrder(asBuyer(httptest.NewRequest(http.MethodGet, "/", nil), "buyer-2"), orderID.String()))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBuyerCancelOrder(t *testing.T) {
	orderID := uuid.New()

	t.Run("cancels", func(t *testing.T) {
		svc := &stubOrdersService{}
		rec := httptest.NewRecorder()
		BuyerCancelOrder(svc, logger.Nop()).ServeHTTP(rec, withOrder(asBuyer(httptest.NewRequest(http.MethodPost, "/", nil), "buyer-1"), orderID.String()))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, enums.OrderStatusCancelled, svc.update.Status)
		assert.Equal(t, orderID, svc.update.OrderID)
		assert.Equal(t, "buyer-1", svc.update.Actor.UserID)
	})

	t.Run("already shipped", func(t *testing.T) {
		svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "cannot cancel")}
		rec := httptest.NewRecorder()
		BuyerCancelOrder(svc, logger.Nop()).ServeHTTP(rec, withOrder(asBuyer(httptest.NewRequest(http.MethodPost, "/", nil), "buyer-1"), orderID.String()))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		BuyerCancelOrder(&stubOrdersService{}, logger.Nop()).ServeHTTP(rec, withOrder(asBuyer(httptest.NewRequest(http.MethodPost, "/", nil), "buyer-1"), "nope"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestVendorOrderList(t *testing.T) {
	vendorID := uuid.New()

	rec := httptest.NewRecorder()
	VendorOrderList(&stubOrdersService{}, logger.Nop()).ServeHTTP(rec, asBuyer(httptest.NewRequest(http.MethodGet, "/", nil), "buyer-1"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	svc := &stubOrdersService{}
	rec = httptest.NewRecorder()
	VendorOrderList(svc, logger.Nop()).ServeHTTP(rec, asVendor(httptest.NewRequest(http.MethodGet, "/", nil), "owner-1", vendorID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, vendorID, svc.vendorID)
	assert.Equal(t, pagination.DefaultLimit, svc.params.Limit)
}

func TestVendorUpdateStatus(t *testing.T) {
	orderID := uuid.New()
	vendorID := uuid.New()
	post := func(svc internalorders.Service, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req = withOrder(asVendor(req, "owner-1", vendorID), orderID.String())
		rec := httptest.NewRecorder()
		VendorUpdateStatus(svc, logger.Nop()).ServeHTTP(rec, req)
		return rec
	}

	t.Run("unknown status", func(t *testing.T) {
		rec := post(&stubOrdersService{}, `{"status":"lost"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ships", func(t *testing.T) {
		svc := &stubOrdersService{}
		rec := post(svc, `{"status":"Shipped"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, enums.OrderStatusShipped, svc.update.Status)
		require.NotNil(t, svc.update.Actor.VendorID)
		assert.Equal(t, vendorID, *svc.update.Actor.VendorID)
	})

	t.Run("illegal transition", func(t *testing.T) {
		svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "illegal transition")}
		rec := post(svc, `{"status":"pending"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}
