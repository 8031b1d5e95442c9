package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercato-labs/mercato-backend/pkg/db/models"
	"github.com/mercato-labs/mercato-backend/pkg/enums"
	"github.com/mercato-labs/mercato-backend/pkg/pagination"
)

// Repository defines persistence operations for the order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListBuyerOrders(ctx context.Context, buyerID string, params pagination.Params) ([]models.Order, string, error)
	ListVendorOrders(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	// UpdateStatus only writes when the row is still in status from. A row
	// that moved on returns ErrStatusChanged.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) error
}
