package analytics

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mercato-labs/mercato-backend/internal/analytics/types"
	"github.com/mercato-labs/mercato-backend/pkg/enums"
	"github.com/mercato-labs/mercato-backend/pkg/money"
)

// TopProductLimit bounds the top products list.
const TopProductLimit = 5

// Summarize reduces raw rows into a dashboard summary. Empty input yields
// zero amounts and empty lists.
func Summarize(req types.VendorSummaryRequest, breakdowns []types.BreakdownRow, items []types.ItemRow) types.VendorSummary {
	summary := types.VendorSummary{
		VendorID:       req.VendorID,
		Start:          req.Start,
		End:            req.End,
		OrdersByStatus: map[enums.OrderStatus]int{},
		DailyGross:     []types.TimeSeriesPoint{},
		TopProducts:    []types.ProductRevenue{},
	}

	var gross, commission, payout int64
	daily := map[string]int64{}
	var days []string
	for _, row := range breakdowns {
		summary.OrdersByStatus[row.Status]++
		if row.Status == enums.OrderStatusCancelled {
			continue
		}
		summary.OrderCount++
		summary.ItemCount += row.ItemCount
		gross += row.SubtotalCents
		commission += row.CommissionCents
		payout += row.PayoutCents

		day := DayBucket(row.CreatedAt)
		if _, seen := daily[day]; !seen {
			days = append(days, day)
		}
		daily[day] += row.SubtotalCents
	}

	sort.Strings(days)
	for _, day := range days {
		summary.DailyGross = append(summary.DailyGross, types.TimeSeriesPoint{Date: day, Value: money.FromCents(daily[day])})
	}

	summary.GrossSales = money.FromCents(gross)
	summary.Commission = money.FromCents(commission)
	summary.Payout = money.FromCents(payout)
	summary.AverageOrderValue = decimal.Zero
	if summary.OrderCount > 0 {
		summary.AverageOrderValue = money.Round(summary.GrossSales.Div(decimal.NewFromInt(int64(summary.OrderCount))))
	}
	summary.TopProducts = topProducts(items, TopProductLimit)
	return summary
}

func topProducts(items []types.ItemRow, limit int) []types.ProductRevenue {
	type acc struct {
		name  string
		units int
		cents int64
	}
	byProduct := map[uuid.UUID]*acc{}
	for _, item := range items {
		if item.Status == enums.OrderStatusCancelled {
			continue
		}
		a, ok := byProduct[item.ProductID]
		if !ok {
			a = &acc{name: item.Name}
			byProduct[item.ProductID] = a
		}
		a.units += item.Qty
		a.cents += item.UnitPriceCents * int64(item.Qty)
	}

	out := make([]types.ProductRevenue, 0, len(byProduct))
	cents := make(map[uuid.UUID]int64, len(byProduct))
	for id, a := range byProduct {
		out = append(out, types.ProductRevenue{ProductID: id, Name: a.name, Units: a.units, Revenue: money.FromCents(a.cents)})
		cents[id] = a.cents
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := cents[out[i].ProductID], cents[out[j].ProductID]
		if ci != cj {
			return ci > cj
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ProductID.String() < out[j].ProductID.String()
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
