package checkout

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercato-labs/mercato-backend/internal/checkout/reservation"
	"github.com/mercato-labs/mercato-backend/internal/orders"
	"github.com/mercato-labs/mercato-backend/pkg/enums"
	pkgerrors "github.com/mercato-labs/mercato-backend/pkg/errors"
	"github.com/mercato-labs/mercato-backend/pkg/logger"
	"github.com/mercato-labs/mercato-backend/pkg/metrics"
	"github.com/mercato-labs/mercato-backend/pkg/money"
	"github.com/mercato-labs/mercato-backend/pkg/outbox"
	"github.com/mercato-labs/mercato-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartReader interface {
	Snapshot(ctx context.Context, buyerID string) ([]orders.LineItem, error)
	Clear(ctx context.Context, buyerID string) error
}

type orderBuilder interface {
	Build(items []orders.LineItem, buyerID string) (*orders.Order, error)
}

type stockReserver interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []reservation.StockRequest) ([]reservation.StockResult, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type stockEngine struct{}

func (stockEngine) Reserve(ctx context.Context, tx *gorm.DB, requests []reservation.StockRequest) ([]reservation.StockResult, error) {
	return reservation.ReserveStock(ctx, tx, requests)
}

// Service turns a buyer's cart into a persisted order.
type Service interface {
	Checkout(ctx context.Context, buyerID string) (*orders.Order, error)
}

// Deps wires the checkout service.
type Deps struct {
	Tx      txRunner
	Cart    cartReader
	Builder orderBuilder
	Orders  orders.Repository
	Stock   stockReserver
	Outbox  outboxPublisher
	Metrics *metrics.CheckoutMetrics
	Logger  *logger.Logger
}

type service struct {
	tx      txRunner
	cart    cartReader
	builder orderBuilder
	orders  orders.Repository
	stock   stockReserver
	outbox  outboxPublisher
	metrics *metrics.CheckoutMetrics
	logg    *logger.Logger
}

// NewService builds the checkout service.
func NewService(deps Deps) (Service, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if deps.Cart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if deps.Builder == nil {
		return nil, fmt.Errorf("order builder required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if deps.Stock == nil {
		deps.Stock = stockEngine{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	return &service{
		tx:      deps.Tx,
		cart:    deps.Cart,
		builder: deps.Builder,
		orders:  deps.Orders,
		stock:   deps.Stock,
		outbox:  deps.Outbox,
		metrics: deps.Metrics,
		logg:    deps.Logger,
	}, nil
}

// StockShortfall lists the products that could not be reserved.
type StockShortfall struct {
	Products []reservation.StockResult `json:"products"`
}

func (s *service) Checkout(ctx context.Context, buyerID string) (*orders.Order, error) {
	start := time.Now()
	order, err := s.checkout(ctx, buyerID)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.ObserveFailure(failureReason(err), elapsed)
		return nil, err
	}

	total, _ := order.Total.Float64()
	s.metrics.ObserveOrder(order.Currency.String(), total, order.Vendors.Len(), elapsed)
	return order, nil
}

func (s *service) checkout(ctx context.Context, buyerID string) (*orders.Order, error) {
	items, err := s.cart.Snapshot(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	order, err := s.builder.Build(items, buyerID)
	if err != nil {
		return nil, err
	}
	row, err := orders.ToModel(order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "map order")
	}

	ctx = s.logg.WithOrderID(s.logg.WithUserID(ctx, buyerID), order.ID.String())

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		results, err := s.stock.Reserve(ctx, tx, stockRequests(order.Items))
		if err != nil {
			return err
		}
		if short := reservation.Shortfalls(results); len(short) > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
				WithDetails(StockShortfall{Products: short})
		}
		if err := s.orders.WithTx(tx).CreateOrder(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order")
		}
		return s.emitOrderCreated(ctx, tx, order, row.TotalCents)
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(ctx, "order created")
	if err := s.cart.Clear(ctx, buyerID); err != nil {
		s.logg.Error(ctx, "failed to clear cart after checkout", err)
	}
	return order, nil
}

func (s *service) emitOrderCreated(ctx context.Context, tx *gorm.DB, order *orders.Order, totalCents int64) error {
	splits := make([]payloads.VendorSplit, 0, order.Vendors.Len())
	var convErr error
	order.Vendors.Each(func(b orders.VendorBreakdown) {
		if convErr != nil {
			return
		}
		split := payloads.VendorSplit{VendorID: b.VendorID, VendorName: b.VendorName, ItemCount: b.ItemCount}
		if split.SubtotalCents, convErr = money.ToCents(b.Subtotal); convErr != nil {
			return
		}
		if split.CommissionCents, convErr = money.ToCents(b.Commission); convErr != nil {
			return
		}
		split.PayoutCents, convErr = money.ToCents(b.Payout)
		splits = append(splits, split)
	})
	if convErr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, convErr, "vendor split")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: order.BuyerID, Role: enums.RoleBuyer.String()},
		Data: payloads.OrderCreatedEvent{
			OrderID:    order.ID,
			BuyerID:    order.BuyerID,
			Currency:   order.Currency.String(),
			TotalCents: totalCents,
			Vendors:    splits,
		},
		Version:    1,
		OccurredAt: order.CreatedAt,
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order created")
	}
	return nil
}

// stockRequests folds repeated products into one request each, sorted by id
// so concurrent checkouts lock rows in the same order.
func stockRequests(items []orders.LineItem) []reservation.StockRequest {
	qty := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		qty[item.ProductID] += item.Quantity
	}
	requests := make([]reservation.StockRequest, 0, len(qty))
	for id, n := range qty {
		requests = append(requests, reservation.StockRequest{ProductID: id, Qty: n})
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].ProductID.String() < requests[j].ProductID.String()
	})
	return requests
}

func failureReason(err error) string {
	if reason := orders.FailureReason(err); reason != "internal" {
		return reason
	}
	if pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		return "insufficient_stock"
	}
	if pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		return "unauthorized"
	}
	return "internal"
}
