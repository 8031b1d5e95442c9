package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mercato-labs/mercato-backend/internal/analytics/query"
	"github.com/mercato-labs/mercato-backend/internal/analytics/types"
	pkgerrors "github.com/mercato-labs/mercato-backend/pkg/errors"
)

// Service provides vendor dashboard reports over the order tables.
type Service interface {
	// VendorSummary returns sales, commission and payout figures for the
	// vendor over the window. Zero start or end fall back to defaults.
	VendorSummary(ctx context.Context, vendorID uuid.UUID, start, end time.Time) (*types.VendorSummary, error)
}

type service struct {
	rows query.VendorRows
	now  func() time.Time
}

// NewService builds an analytics service backed by rows.
func NewService(rows query.VendorRows) (Service, error) {
	if rows == nil {
		return nil, fmt.Errorf("vendor rows required")
	}
	return &service{rows: rows, now: time.Now}, nil
}

func (s *service) VendorSummary(ctx context.Context, vendorID uuid.UUID, start, end time.Time) (*types.VendorSummary, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context required")
	}
	start, end, err := ResolveWindow(start, end, s.now())
	if err != nil {
		return nil, err
	}
	req := types.VendorSummaryRequest{VendorID: vendorID, Start: start, End: end}

	breakdowns, err := s.rows.Breakdowns(ctx, req)
	if err != nil {
		return nil, err
	}
	items, err := s.rows.Items(ctx, req)
	if err != nil {
		return nil, err
	}
	summary := Summarize(req, breakdowns, items)
	return &summary, nil
}
