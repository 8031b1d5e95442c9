package product

import (
	"github.com/google/uuid"

	"github.com/mercato-labs/mercato-backend/pkg/enums"
	"github.com/mercato-labs/mercato-backend/pkg/pagination"
)

// ProductListFilters describe the supported filter knobs for the browse endpoint.
type ProductListFilters struct {
	Category *enums.ProductCategory `json:"category,omitempty"`
	VendorID *uuid.UUID             `json:"vendor_id,omitempty"`
	Query    string                 `json:"q,omitempty"`
	// IncludeInactive lets a vendor see archived listings of its own catalog.
	IncludeInactive bool `json:"-"`
}

// ListProductsInput captures the inputs needed to paginate/filter products.
type ListProductsInput struct {
	Filters    ProductListFilters
	Pagination pagination.Params
}
