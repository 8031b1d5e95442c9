package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mercato-labs/mercato-backend/api/middleware"
	"github.com/mercato-labs/mercato-backend/api/responses"
	"github.com/mercato-labs/mercato-backend/api/validators"
	productsvc "github.com/mercato-labs/mercato-backend/internal/products"
	"github.com/mercato-labs/mercato-backend/pkg/enums"
	pkgerrors "github.com/mercato-labs/mercato-backend/pkg/errors"
	"github.com/mercato-labs/mercato-backend/pkg/logger"
	"github.com/mercato-labs/mercato-backend/pkg/money"
)

// PublicListProducts returns active listings filtered by category, vendor and query text.
func PublicListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		filters, err := parseProductFilters(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ListProducts(ctx, productsvc.ListProductsInput{Filters: filters, Pagination: params})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// PublicGetProduct returns a single active listing.
func PublicGetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := svc.GetProduct(ctx, productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// PublicListReviews pages through the reviews of a product, newest first.
func PublicListReviews(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ListReviews(ctx, productID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type createReviewRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

// CreateReview records the caller's rating of a product.
func CreateReview(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		buyerID := middleware.UserIDFromContext(ctx)
		if buyerID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload createReviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		review, err := svc.AddReview(ctx, buyerID, productID, productsvc.ReviewInput{
			Rating:  payload.Rating,
			Comment: validators.SanitizeOptional(payload.Comment, 2000),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, review)
	}
}

// VendorListProducts returns the calling vendor's catalog, archived listings included.
func VendorListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		vendorID := middleware.VendorIDFromContext(ctx)
		if vendorID == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ListProducts(ctx, productsvc.ListProductsInput{
			Filters: productsvc.ProductListFilters{
				VendorID:        vendorID,
				Query:           strings.TrimSpace(r.URL.Query().Get("q")),
				IncludeInactive: true,
			},
			Pagination: params,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type createProductRequest struct {
	Title          string           `json:"title" validate:"required,max=200"`
	Description    *string          `json:"description,omitempty"`
	Category       string           `json:"category" validate:"required"`
	Price          *decimal.Decimal `json:"price" validate:"required"`
	Stock          int              `json:"stock" validate:"min=0"`
	CommissionRate *decimal.Decimal `json:"commission_rate,omitempty"`
	IsActive       *bool            `json:"is_active,omitempty"`
}

func (r createProductRequest) toInput() (productsvc.CreateProductInput, error) {
	category, err := enums.ParseProductCategory(strings.TrimSpace(r.Category))
	if err != nil {
		return productsvc.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
	}
	title := validators.SanitizeString(r.Title, 200)
	if title == "" {
		return productsvc.CreateProductInput{}, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be blank")
	}
	cents, err := priceToCents(*r.Price)
	if err != nil {
		return productsvc.CreateProductInput{}, err
	}
	isActive := true
	if r.IsActive != nil {
		isActive = *r.IsActive
	}
	return productsvc.CreateProductInput{
		Title:          title,
		Description:    validators.SanitizeOptional(r.Description, 4000),
		Category:       category,
		PriceCents:     cents,
		Stock:          r.Stock,
		CommissionRate: r.CommissionRate,
		IsActive:       isActive,
	}, nil
}

// VendorCreateProduct lists a new product under the calling vendor.
func VendorCreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		vendorID := middleware.VendorIDFromContext(ctx)
		if vendorID == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := svc.CreateProduct(ctx, *vendorID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type updateProductRequest struct {
	Title          *string          `json:"title,omitempty" validate:"omitempty,max=200"`
	Description    *string          `json:"description,omitempty"`
	Category       *string          `json:"category,omitempty"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	Stock          *int             `json:"stock,omitempty" validate:"omitempty,min=0"`
	CommissionRate *decimal.Decimal `json:"commission_rate,omitempty"`
	IsActive       *bool            `json:"is_active,omitempty"`
}

func (r updateProductRequest) toInput() (productsvc.UpdateProductInput, error) {
	input := productsvc.UpdateProductInput{
		Description:    validators.SanitizeOptional(r.Description, 4000),
		Stock:          r.Stock,
		CommissionRate: r.CommissionRate,
		IsActive:       r.IsActive,
	}
	if r.Title != nil {
		title := validators.SanitizeString(*r.Title, 200)
		if title == "" {
			return productsvc.UpdateProductInput{}, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be blank")
		}
		input.Title = &title
	}
	if r.Category != nil {
		category, err := enums.ParseProductCategory(strings.TrimSpace(*r.Category))
		if err != nil {
			return productsvc.UpdateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		input.Category = &category
	}
	if r.Price != nil {
		cents, err := priceToCents(*r.Price)
		if err != nil {
			return productsvc.UpdateProductInput{}, err
		}
		input.PriceCents = &cents
	}
	return input, nil
}

// VendorUpdateProduct applies a partial update to one of the vendor's listings.
func VendorUpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		vendorID := middleware.VendorIDFromContext(ctx)
		if vendorID == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing"))
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(ctx, *vendorID, productID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// VendorArchiveProduct hides a listing from the public catalog.
func VendorArchiveProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		vendorID := middleware.VendorIDFromContext(ctx)
		if vendorID == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing"))
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.ArchiveProduct(ctx, *vendorID, productID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseProductFilters(r *http.Request) (productsvc.ProductListFilters, error) {
	query := r.URL.Query()
	filters := productsvc.ProductListFilters{Query: strings.TrimSpace(query.Get("q"))}

	if raw := strings.TrimSpace(query.Get("category")); raw != "" {
		category, err := enums.ParseProductCategory(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		filters.Category = &category
	}
	if raw := strings.TrimSpace(query.Get("vendor_id")); raw != "" {
		vendorID, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor_id")
		}
		filters.VendorID = &vendorID
	}
	return filters, nil
}

func priceToCents(price decimal.Decimal) (int64, error) {
	cents, err := money.ToCents(price)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price").WithDetails(map[string]any{"field": "price"})
	}
	if cents < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative").WithDetails(map[string]any{"field": "price"})
	}
	if cents > money.MaxPriceCents {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "price must not exceed %s", money.FromCents(money.MaxPriceCents)).WithDetails(map[string]any{"field": "price"})
	}
	return cents, nil
}
