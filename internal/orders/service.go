package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercato-labs/mercato-backend/pkg/enums"
	pkgerrors "github.com/mercato-labs/mercato-backend/pkg/errors"
	"github.com/mercato-labs/mercato-backend/pkg/outbox"
	"github.com/mercato-labs/mercato-backend/pkg/outbox/payloads"
	"github.com/mercato-labs/mercato-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes order reads and lifecycle changes after checkout.
type Service interface {
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*Order, error)
	ListForBuyer(ctx context.Context, buyerID string, params pagination.Params) (*OrderList, error)
	ListForVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*VendorOrderList, error)
	UpdateStatus(ctx context.Context, input StatusUpdateInput) (*Order, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// TransitionConflict is attached to CodeStateConflict errors.
type TransitionConflict struct {
	From enums.OrderStatus `json:"from"`
	To   enums.OrderStatus `json:"to"`
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox}, nil
}

func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.isAdmin() && !actor.isBuyerOf(order) && !actor.isVendorOf(order) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order not accessible")
	}
	return order, nil
}

func (s *service) ListForBuyer(ctx context.Context, buyerID string, params pagination.Params) (*OrderList, error) {
	buyerID = strings.TrimSpace(buyerID)
	if buyerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateCursor(params); err != nil {
		return nil, err
	}
	rows, next, err := s.repo.ListBuyerOrders(ctx, buyerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list buyer orders")
	}
	list := &OrderList{Orders: make([]Order, 0, len(rows)), NextCursor: next}
	for i := range rows {
		order, err := FromModel(&rows[i])
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode order")
		}
		list.Orders = append(list.Orders, *order)
	}
	return list, nil
}

func (s *service) ListForVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*VendorOrderList, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing")
	}
	if err := validateCursor(params); err != nil {
		return nil, err
	}
	rows, next, err := s.repo.ListVendorOrders(ctx, vendorID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor orders")
	}
	list := &VendorOrderList{Orders: make([]VendorOrderView, 0, len(rows)), NextCursor: next}
	for i := range rows {
		order, err := FromModel(&rows[i])
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode order")
		}
		list.Orders = append(list.Orders, vendorView(order, vendorID))
	}
	return list, nil
}

// UpdateStatus moves an order along pending -> shipped -> delivered, or to
// cancelled from pending or shipped. Requesting the current status is a
// no-op that emits nothing.
func (s *service) UpdateStatus(ctx context.Context, input StatusUpdateInput) (*Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", input.Status)
	}
	if strings.TrimSpace(input.Actor.UserID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var result *Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if err := authorizeTransition(input.Actor, order, input.Status); err != nil {
			return err
		}
		if order.Status == input.Status {
			result = order
			return nil
		}
		if !order.Status.CanTransitionTo(input.Status) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s", order.Status, input.Status).
				WithDetails(TransitionConflict{From: order.Status, To: input.Status})
		}

		if err := repo.UpdateStatus(ctx, order.ID, order.Status, input.Status); err != nil {
			if errors.Is(err, ErrStatusChanged) {
				return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "order status changed concurrently, reload and retry").
					WithDetails(TransitionConflict{From: order.Status, To: input.Status})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor: &outbox.ActorRef{
				UserID:   input.Actor.UserID,
				Role:     input.Actor.Role.String(),
				VendorID: input.Actor.VendorID,
			},
			Data: payloads.OrderStatusChangedEvent{
				OrderID:   order.ID,
				From:      order.Status.String(),
				To:        input.Status.String(),
				ChangedBy: input.Actor.UserID,
				VendorIDs: order.VendorIDs(),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order status event")
		}

		order.Status = input.Status
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// authorizeTransition lets admins and contributing vendors move an order;
// buyers may only cancel their own pending order.
func authorizeTransition(actor Actor, order *Order, target enums.OrderStatus) error {
	switch {
	case actor.isAdmin(), actor.isVendorOf(order):
		return nil
	case actor.isBuyerOf(order):
		if target == enums.OrderStatusCancelled && (order.Status == enums.OrderStatusPending || order.Status == enums.OrderStatusCancelled) {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, "buyers may only cancel pending orders")
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to caller")
	}
}

func (s *service) load(ctx context.Context, repo Repository, orderID uuid.UUID) (*Order, error) {
	row, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	order, err := FromModel(row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode order")
	}
	return order, nil
}

func validateCursor(params pagination.Params) error {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return nil
}
