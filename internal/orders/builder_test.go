package orders

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercato-labs/mercato-backend/pkg/enums"
	pkgerrors "github.com/mercato-labs/mercato-backend/pkg/errors"
)

var (
	vendorOne = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	vendorTwo = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func rate(value string) *decimal.Decimal {
	r := d(value)
	return &r
}

func item(price string, qty int, vendor uuid.UUID, commission *decimal.Decimal) LineItem {
	return LineItem{
		ProductID:      uuid.New(),
		Name:           "item " + price,
		UnitPrice:      d(price),
		Quantity:       qty,
		VendorID:       vendor,
		VendorName:     "vendor " + vendor.String()[:4],
		CommissionRate: commission,
	}
}

func newTestBuilder(t *testing.T, opts ...Option) *Builder {
	t.Helper()
	b, err := NewBuilder(d("10"), opts...)
	require.NoError(t, err)
	return b
}

func TestBuildTwoVendorScenario(t *testing.T) {
	created := time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)
	orderID := uuid.New()
	b := newTestBuilder(t, WithClock(func() time.Time { return created }), WithIDSource(func() uuid.UUID { return orderID }))

	order, err := b.Build([]LineItem{
		item("120", 1, vendorOne, rate("10")),
		item("45", 2, vendorTwo, rate("10")),
	}, "b1")
	require.NoError(t, err)

	assert.Equal(t, orderID, order.ID)
	assert.Equal(t, "b1", order.BuyerID)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, enums.CurrencyUSD, order.Currency)
	assert.Equal(t, created, order.CreatedAt)
	assert.True(t, order.Total.Equal(d("210")), "total %s", order.Total)
	require.Equal(t, []uuid.UUID{vendorOne, vendorTwo}, order.Vendors.Keys())

	v1, ok := order.Vendors.Get(vendorOne)
	require.True(t, ok)
	assertBreakdown(t, v1, "120", "12", "108")
	assert.Equal(t, 1, v1.ItemCount)

	v2, ok := order.Vendors.Get(vendorTwo)
	require.True(t, ok)
	assertBreakdown(t, v2, "90", "9", "81")
	assert.Equal(t, 2, v2.ItemCount)
}

func TestBuildUnsetRateUsesConfiguredDefault(t *testing.T) {
	b, err := NewBuilder(d("15"))
	require.NoError(t, err)

	order, err := b.Build([]LineItem{item("200", 1, vendorOne, nil)}, "buyer")
	require.NoError(t, err)

	v1, _ := order.Vendors.Get(vendorOne)
	assertBreakdown(t, v1, "200", "30", "170")
	assert.True(t, b.DefaultRate().Equal(d("15")))
}

func TestBuildAppliesRatesPerItemWithinVendor(t *testing.T) {
	b := newTestBuilder(t)
	order, err := b.Build([]LineItem{
		item("100", 1, vendorOne, rate("10")),
		item("50", 2, vendorOne, rate("20")),
	}, "buyer")
	require.NoError(t, err)

	require.Equal(t, 1, order.Vendors.Len())
	v1, _ := order.Vendors.Get(vendorOne)
	// 10% of 100 plus 20% of 100, not a blended rate over 200.
	assertBreakdown(t, v1, "200", "30", "170")
	assert.Equal(t, 3, v1.ItemCount)
}

func TestBuildZeroRateAndFreeItems(t *testing.T) {
	b := newTestBuilder(t)
	order, err := b.Build([]LineItem{
		item("0", 3, vendorOne, nil),
		item("19.99", 1, vendorTwo, rate("0")),
	}, "buyer")
	require.NoError(t, err)

	v1, _ := order.Vendors.Get(vendorOne)
	assertBreakdown(t, v1, "0", "0", "0")
	v2, _ := order.Vendors.Get(vendorTwo)
	assertBreakdown(t, v2, "19.99", "0", "19.99")
	assert.True(t, order.Total.Equal(d("19.99")))
}

func TestBuildRoundsCommissionPerItemHalfAwayFromZero(t *testing.T) {
	b := newTestBuilder(t)
	// 0.05 × 10% = 0.005 -> 0.01 per item, summed to 0.02
	order, err := b.Build([]LineItem{
		item("0.05", 1, vendorOne, nil),
		item("0.05", 1, vendorOne, nil),
	}, "buyer")
	require.NoError(t, err)

	v1, _ := order.Vendors.Get(vendorOne)
	assertBreakdown(t, v1, "0.10", "0.02", "0.08")
}

func TestBuildInvariantsHoldAcrossAwkwardAmounts(t *testing.T) {
	b := newTestBuilder(t)
	items := []LineItem{
		item("33.33", 3, vendorOne, rate("12.5")),
		item("0.01", 7, vendorTwo, rate("33.33")),
		item("9.99", 11, vendorOne, nil),
		item("1234.56", 1, vendorTwo, rate("7.75")),
		item("0.99", 101, uuid.New(), rate("99.99")),
	}
	order, err := b.Build(items, "buyer")
	require.NoError(t, err)

	expectedTotal := decimal.Zero
	for _, it := range items {
		expectedTotal = expectedTotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	assert.True(t, order.Total.Equal(expectedTotal), "total %s expected %s", order.Total, expectedTotal)

	sum := decimal.Zero
	order.Vendors.Each(func(v VendorBreakdown) {
		sum = sum.Add(v.Subtotal)
		assert.True(t, v.Payout.Add(v.Commission).Equal(v.Subtotal), "vendor %s split broken", v.VendorID)
		assert.True(t, v.Commission.Equal(v.Commission.Round(2)), "commission %s not in cents", v.Commission)
	})
	assert.True(t, sum.Equal(order.Total))
	assert.Equal(t, 3, order.Vendors.Len())
}

func TestBuildValidation(t *testing.T) {
	b := newTestBuilder(t)
	valid := item("10", 1, vendorOne, nil)

	tests := []struct {
		name   string
		items  []LineItem
		buyer  string
		target error
		field  string
	}{
		{"empty cart", nil, "buyer", ErrInvalidCart, ""},
		{"empty buyer", []LineItem{valid}, "   ", ErrInvalidBuyer, ""},
		{"zero quantity", []LineItem{valid, item("10", 0, vendorOne, nil)}, "buyer", ErrInvalidLineItem, "quantity"},
		{"negative quantity", []LineItem{item("10", -2, vendorOne, nil)}, "buyer", ErrInvalidLineItem, "quantity"},
		{"negative price", []LineItem{item("-0.01", 1, vendorOne, nil)}, "buyer", ErrInvalidLineItem, "unit_price"},
		{"sub-cent price", []LineItem{item("1.005", 1, vendorOne, nil)}, "buyer", ErrInvalidLineItem, "unit_price"},
		{"missing vendor", []LineItem{item("1", 1, uuid.Nil, nil)}, "buyer", ErrInvalidLineItem, "vendor_id"},
		{"rate above 100", []LineItem{item("1", 1, vendorOne, rate("100.5"))}, "buyer", ErrInvalidLineItem, "commission_rate"},
		{"negative rate", []LineItem{item("1", 1, vendorOne, rate("-1"))}, "buyer", ErrInvalidLineItem, "commission_rate"},
		{"rate with three decimals", []LineItem{item("1", 1, vendorOne, rate("12.345"))}, "buyer", ErrInvalidLineItem, "commission_rate"},
		{"line total past cents range", []LineItem{item("50000000000000000", 2, vendorOne, nil)}, "buyer", ErrInvalidLineItem, "quantity"},
		{"order total past cents range", []LineItem{item("50000000000000000", 1, vendorOne, nil), item("50000000000000000", 1, vendorTwo, nil)}, "buyer", ErrInvalidLineItem, "quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := b.Build(tt.items, tt.buyer)
			require.Error(t, err)
			assert.Nil(t, order)
			assert.True(t, errors.Is(err, tt.target), "expected %v, got %v", tt.target, err)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
			if tt.field != "" {
				violation, ok := pkgerrors.As(err).Details().(LineItemViolation)
				require.True(t, ok)
				assert.Equal(t, tt.field, violation.Field)
			}
		})
	}
}

func TestBuildReportsOffendingIndex(t *testing.T) {
	b := newTestBuilder(t)
	_, err := b.Build([]LineItem{item("1", 1, vendorOne, nil), item("1", 1, vendorOne, nil), item("1", 0, vendorOne, nil)}, "buyer")
	require.Error(t, err)
	violation := pkgerrors.As(err).Details().(LineItemViolation)
	assert.Equal(t, 2, violation.Index)
	assert.Equal(t, "invalid_line_item", FailureReason(err))
}

func TestBuildTwiceGivesDistinctIDsAndSameAmounts(t *testing.T) {
	b := newTestBuilder(t)
	items := []LineItem{item("120", 1, vendorOne, nil), item("45", 2, vendorTwo, nil)}

	first, err := b.Build(items, "b1")
	require.NoError(t, err)
	second, err := b.Build(items, "b1")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, first.Total.Equal(second.Total))
	firstJSON, err := json.Marshal(first.Vendors)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second.Vendors)
	require.NoError(t, err)
	assert.JSONEq(t, string(firstJSON), string(secondJSON))
}

func TestBuildSnapshotsItems(t *testing.T) {
	b := newTestBuilder(t)
	items := []LineItem{item("10", 1, vendorOne, rate("5"))}

	order, err := b.Build(items, "buyer")
	require.NoError(t, err)

	items[0].Quantity = 99
	*items[0].CommissionRate = d("50")
	assert.Equal(t, 1, order.Items[0].Quantity)
	assert.True(t, order.Items[0].CommissionRate.Equal(d("5")))
}

func TestBuildIsSafeForConcurrentUse(t *testing.T) {
	b := newTestBuilder(t)
	items := []LineItem{item("120", 1, vendorOne, nil), item("45", 2, vendorTwo, nil)}

	const workers = 16
	ids := make(chan uuid.UUID, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := b.Build(items, "buyer")
			if err == nil {
				ids <- order.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[uuid.UUID]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate order id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers)
}

func TestNewBuilderRejectsInvalidConfig(t *testing.T) {
	_, err := NewBuilder(d("101"))
	assert.Error(t, err)
	_, err = NewBuilder(d("-0.5"))
	assert.Error(t, err)
	_, err = NewBuilder(d("7.125"))
	assert.Error(t, err)
	_, err = NewBuilder(d("10"), WithCurrency("XYZ"))
	assert.Error(t, err)
}

func TestVendorBreakdownsJSONKeepsOrder(t *testing.T) {
	b := newTestBuilder(t)
	order, err := b.Build([]LineItem{
		item("5", 1, vendorTwo, nil),
		item("7", 1, vendorOne, nil),
		item("1", 1, vendorTwo, nil),
	}, "buyer")
	require.NoError(t, err)

	raw, err := json.Marshal(order.Vendors)
	require.NoError(t, err)

	var decoded VendorBreakdowns
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, []uuid.UUID{vendorTwo, vendorOne}, decoded.Keys())
	v2, _ := decoded.Get(vendorTwo)
	assertBreakdown(t, v2, "6", "0.6", "5.4")

	dup := `[{"vendor_id":"` + vendorOne.String() + `"},{"vendor_id":"` + vendorOne.String() + `"}]`
	assert.Error(t, json.Unmarshal([]byte(dup), &decoded))
}

func assertBreakdown(t *testing.T, b VendorBreakdown, subtotal, commission, payout string) {
	t.Helper()
	assert.True(t, b.Subtotal.Equal(d(subtotal)), "subtotal %s, want %s", b.Subtotal, subtotal)
	assert.True(t, b.Commission.Equal(d(commission)), "commission %s, want %s", b.Commission, commission)
	assert.True(t, b.Payout.Equal(d(payout)), "payout %s, want %s", b.Payout, payout)
	assert.True(t, b.Payout.Add(b.Commission).Equal(b.Subtotal))
}
