package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/mercato-labs/mercato-backend/internal/orders"
	"github.com/mercato-labs/mercato-backend/pkg/db/models"
	"github.com/mercato-labs/mercato-backend/pkg/enums"
	pkgerrors "github.com/mercato-labs/mercato-backend/pkg/errors"
	"github.com/mercato-labs/mercato-backend/pkg/logger"
	"github.com/mercato-labs/mercato-backend/pkg/money"
)

// MaxQuantity caps the quantity of a single cart line.
const MaxQuantity = 999

type productLoader interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type vendorLoader interface {
	FindVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
}

// Service manages buyer carts.
type Service interface {
	Get(ctx context.Context, buyerID string) (*Cart, error)
	AddItem(ctx context.Context, buyerID string, productID uuid.UUID, qty int) (*Cart, error)
	SetQuantity(ctx context.Context, buyerID string, productID uuid.UUID, qty int) (*Cart, error)
	RemoveItem(ctx context.Context, buyerID string, productID uuid.UUID) (*Cart, error)
	Clear(ctx context.Context, buyerID string) error
	Snapshot(ctx context.Context, buyerID string) ([]orders.LineItem, error)
}

type service struct {
	store    Store
	products productLoader
	vendors  vendorLoader
	logg     *logger.Logger
	now      func() time.Time
	loads    singleflight.Group
}

// NewService builds a cart service backed by store.
func NewService(store Store, products productLoader, vendors vendorLoader, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if vendors == nil {
		return nil, fmt.Errorf("vendor loader required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		store:    store,
		products: products,
		vendors:  vendors,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Get returns the buyer's cart. A missing cart is an empty cart.
// Concurrent loads for the same buyer share one store round trip.
func (s *service) Get(ctx context.Context, buyerID string) (*Cart, error) {
	buyerID, err := requireBuyer(buyerID)
	if err != nil {
		return nil, err
	}
	v, err, _ := s.loads.Do(buyerID, func() (any, error) {
		return s.load(ctx, buyerID)
	})
	if err != nil {
		return nil, err
	}
	shared := v.(*Cart)
	out := *shared
	out.Items = append([]Item(nil), shared.Items...)
	return &out, nil
}

func (s *service) AddItem(ctx context.Context, buyerID string, productID uuid.UUID, qty int) (*Cart, error) {
	buyerID, err := requireBuyer(buyerID)
	if err != nil {
		return nil, err
	}
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	cart, err := s.load(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	idx := cart.find(productID)
	want := qty
	if idx >= 0 {
		want += cart.Items[idx].Quantity
	}
	if want > MaxQuantity {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must be at most %d", MaxQuantity)
	}

	item, err := s.snapshot(ctx, productID, want)
	if err != nil {
		return nil, err
	}
	if idx >= 0 {
		item.AddedAt = cart.Items[idx].AddedAt
		cart.Items[idx] = item
	} else {
		cart.Items = append(cart.Items, item)
	}
	return s.save(ctx, cart)
}

// SetQuantity replaces the quantity of a product already in the cart.
// Zero removes the line.
func (s *service) SetQuantity(ctx context.Context, buyerID string, productID uuid.UUID, qty int) (*Cart, error) {
	buyerID, err := requireBuyer(buyerID)
	if err != nil {
		return nil, err
	}
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	if qty > MaxQuantity {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must be at most %d", MaxQuantity)
	}

	cart, err := s.load(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	idx := cart.find(productID)
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
	}
	if qty == 0 {
		cart.remove(idx)
		return s.save(ctx, cart)
	}

	item, err := s.snapshot(ctx, productID, qty)
	if err != nil {
		return nil, err
	}
	item.AddedAt = cart.Items[idx].AddedAt
	cart.Items[idx] = item
	return s.save(ctx, cart)
}

// RemoveItem drops a product from the cart. Removing an absent product is
// not an error.
func (s *service) RemoveItem(ctx context.Context, buyerID string, productID uuid.UUID) (*Cart, error) {
	buyerID, err := requireBuyer(buyerID)
	if err != nil {
		return nil, err
	}
	cart, err := s.load(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	idx := cart.find(productID)
	if idx < 0 {
		return cart, nil
	}
	cart.remove(idx)
	return s.save(ctx, cart)
}

func (s *service) Clear(ctx context.Context, buyerID string) error {
	buyerID, err := requireBuyer(buyerID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, buyerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// Snapshot returns the cart as order builder input. An empty cart yields
// an empty slice; the builder decides what that means.
func (s *service) Snapshot(ctx context.Context, buyerID string) ([]orders.LineItem, error) {
	buyerID, err := requireBuyer(buyerID)
	if err != nil {
		return nil, err
	}
	cart, err := s.load(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	return cart.LineItems(), nil
}

func (s *service) load(ctx context.Context, buyerID string) (*Cart, error) {
	cart, err := s.store.Load(ctx, buyerID)
	if errors.Is(err, ErrCartMiss) {
		return emptyCart(buyerID), nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart.Items == nil {
		cart.Items = []Item{}
	}
	cart.BuyerID = buyerID
	return cart, nil
}

func (s *service) save(ctx context.Context, cart *Cart) (*Cart, error) {
	cart.UpdatedAt = s.now()
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"buyer_id":   cart.BuyerID,
		"cart_items": len(cart.Items),
	})
	s.logg.Debug(logCtx, "cart saved")
	return cart, nil
}

// snapshot loads the product and its vendor and captures the purchasable
// state. The product rate wins over the vendor override; with neither the
// platform default applies at checkout.
func (s *service) snapshot(ctx context.Context, productID uuid.UUID, qty int) (Item, error) {
	if productID == uuid.Nil {
		return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.products.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Item{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return Item{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return Item{}, pkgerrors.New(pkgerrors.CodeConflict, "product is not available")
	}
	if product.Stock < qty {
		return Item{}, pkgerrors.Newf(pkgerrors.CodeConflict, "only %d units in stock", product.Stock)
	}

	vendor, err := s.vendors.FindVendor(ctx, product.VendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Item{}, pkgerrors.New(pkgerrors.CodeConflict, "product vendor is not available")
		}
		return Item{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	if vendor.Status != enums.VendorStatusActive {
		return Item{}, pkgerrors.New(pkgerrors.CodeConflict, "product vendor is not available")
	}

	rateColumn := product.CommissionRate
	if rateColumn == nil {
		rateColumn = vendor.CommissionRate
	}
	rate, err := money.ParseRate(rateColumn)
	if err != nil {
		return Item{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse commission rate")
	}

	return Item{
		ProductID:      product.ID,
		Name:           product.Title,
		UnitPrice:      money.FromCents(product.PriceCents),
		Quantity:       qty,
		VendorID:       product.VendorID,
		VendorName:     vendor.DisplayName,
		CommissionRate: rate,
		AddedAt:        s.now(),
	}, nil
}

func requireBuyer(buyerID string) (string, error) {
	buyerID = strings.TrimSpace(buyerID)
	if buyerID == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return buyerID, nil
}
