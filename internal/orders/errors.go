package orders

import (
	"errors"

	pkgerrors "github.com/mercato-labs/mercato-backend/pkg/errors"
)

// Sentinels for order construction failures. Build wraps them in a
// CodeValidation error, so match with errors.Is.
var (
	ErrInvalidCart     = errors.New("cart is empty")
	ErrInvalidLineItem = errors.New("invalid line item")
	ErrInvalidBuyer    = errors.New("buyer id is required")
)

// ErrStatusChanged reports a status write that lost a race with another writer.
var ErrStatusChanged = errors.New("order status changed since it was read")

// LineItemViolation names the offending item and field.
type LineItemViolation struct {
	Index  int    `json:"index"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func invalidCart() error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidCart, "cart must contain at least one item")
}

func invalidBuyer() error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidBuyer, "buyer id is required")
}

func invalidLineItem(index int, field, reason string) error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidLineItem, "invalid line item").
		WithDetails(LineItemViolation{Index: index, Field: field, Reason: reason})
}

// FailureReason maps a Build error onto a short label for metrics.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCart):
		return "invalid_cart"
	case errors.Is(err, ErrInvalidLineItem):
		return "invalid_line_item"
	case errors.Is(err, ErrInvalidBuyer):
		return "invalid_buyer"
	case err == nil:
		return ""
	default:
		return "internal"
	}
}
