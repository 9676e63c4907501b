package insight

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukahub/dukapos/internal/domain/catalog"
	"github.com/dukahub/dukapos/internal/domain/sale"
	"github.com/dukahub/dukapos/internal/llm"
)

// --- Mock implementations ---

type mockProducts struct {
	products []catalog.Product
	err      error
}

func (m *mockProducts) ListAvailable(context.Context, string) ([]catalog.Product, error) {
	return m.products, m.err
}

func (m *mockProducts) List(context.Context, string) ([]catalog.Product, error) {
	return m.products, m.err
}

func (m *mockProducts) GetByIDs(context.Context, string, []string) ([]catalog.Product, error) {
	return m.products, m.err
}

func (m *mockProducts) Create(context.Context, catalog.Product) error { return m.err }
func (m *mockProducts) Update(context.Context, catalog.Product) error { return m.err }

func (m *mockProducts) ListLowStock(context.Context, string) ([]catalog.Product, error) {
	return m.products, m.err
}

type mockSales struct {
	daily    []sale.DailyStat
	velocity []sale.ProductVelocity
	err      error
}

func (m *mockSales) ListSince(context.Context, string, time.Time) ([]sale.Line, error) {
	return nil, m.err
}

func (m *mockSales) DailySummary(context.Context, string, time.Time) ([]sale.DailyStat, error) {
	return m.daily, m.err
}

func (m *mockSales) VelocityByProduct(context.Context, string, time.Time) ([]sale.ProductVelocity, error) {
	return m.velocity, m.err
}

type stubModel struct {
	reply string
	err   error
	calls int
}

func (s *stubModel) Complete(_ context.Context, _ []llm.Message) (string, error) {
	s.calls++
	return s.reply, s.err
}

// --- Helpers ---

func dailyHistory(days int) []sale.DailyStat {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]sale.DailyStat, days)
	for i := range out {
		out[i] = sale.DailyStat{
			Date:         start.AddDate(0, 0, i),
			Sales:        decimal.NewFromInt(int64(10000 + i*500)),
			Profit:       decimal.NewFromInt(int64(2000 + i*100)),
			Transactions: 10 + i,
		}
	}
	return out
}

func lowStockProduct(id, name string, stock, threshold int) catalog.Product {
	return catalog.Product{
		ID:                id,
		TenantID:          "t1",
		Name:              name,
		BuyingPrice:       decimal.NewFromInt(4200),
		SellingPrice:      decimal.NewFromInt(5000),
		Stock:             stock,
		LowStockThreshold: threshold,
	}
}

// --- Forecast ---

func TestForecast_NotEnoughData(t *testing.T) {
	svc := NewService(&mockProducts{}, &mockSales{daily: dailyHistory(3)}, &stubModel{})

	_, err := svc.Forecast(context.Background(), "t1")
	require.ErrorIs(t, err, ErrNotEnoughData)
}

func TestForecast_StructuredReply(t *testing.T) {
	model := &stubModel{reply: "```json\n" +
		`{"nextWeekDaily": 12500, "nextMonthTotal": 380000, "trends": "steady growth", "recommendations": ["stock more sugar"]}` +
		"\n```"}
	svc := NewService(&mockProducts{}, &mockSales{daily: dailyHistory(10)}, model)

	f, err := svc.Forecast(context.Background(), "t1")
	require.NoError(t, err)

	assert.Equal(t, "12500", f.NextWeekDaily)
	assert.Equal(t, "380000", f.NextMonthTotal)
	assert.Equal(t, `"steady growth"`, f.Trends)
	assert.Equal(t, `["stock more sugar"]`, f.Recommendations)
	assert.Empty(t, f.Freeform)
	assert.Len(t, f.History, MinDays)
	assert.Equal(t, 1, model.calls)
}

func TestForecast_UnparseableReplyLandsInFreeform(t *testing.T) {
	model := &stubModel{reply: "Sales look great, keep it up!"}
	svc := NewService(&mockProducts{}, &mockSales{daily: dailyHistory(10)}, model)

	f, err := svc.Forecast(context.Background(), "t1")
	require.NoError(t, err)

	assert.Equal(t, "Sales look great, keep it up!", f.Freeform)
	assert.Empty(t, f.NextWeekDaily)
}

func TestForecast_ModelError(t *testing.T) {
	model := &stubModel{err: errors.New("gateway timeout")}
	svc := NewService(&mockProducts{}, &mockSales{daily: dailyHistory(10)}, model)

	_, err := svc.Forecast(context.Background(), "t1")
	require.Error(t, err)
}

func TestForecast_SalesRepoError(t *testing.T) {
	svc := NewService(&mockProducts{}, &mockSales{err: errors.New("db down")}, &stubModel{})

	_, err := svc.Forecast(context.Background(), "t1")
	require.Error(t, err)
}

// --- Reorder alerts ---

func TestReorderAlerts_NoCriticalProducts(t *testing.T) {
	products := &mockProducts{products: []catalog.Product{
		lowStockProduct("p1", "Sugar", 500, 10),
	}}
	sales := &mockSales{velocity: []sale.ProductVelocity{{ProductID: "p1", TotalSold: 30}}}
	model := &stubModel{}

	alerts, err := NewService(products, sales, model).ReorderAlerts(context.Background(), "t1")
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.Equal(t, 0, model.calls, "no model call when nothing is critical")
}

func TestReorderAlerts_ModelReply(t *testing.T) {
	products := &mockProducts{products: []catalog.Product{
		lowStockProduct("p1", "Sugar", 5, 10),
	}}
	sales := &mockSales{velocity: []sale.ProductVelocity{{ProductID: "p1", TotalSold: 90}}}
	model := &stubModel{reply: "```json\n" +
		`[{"productName": "Sugar", "reorderQuantity": "50", "urgency": "Critical", "reason": "selling 3/day"}]` +
		"\n```"}

	alerts, err := NewService(products, sales, model).ReorderAlerts(context.Background(), "t1")
	require.NoError(t, err)

	require.Len(t, alerts, 1)
	assert.Equal(t, "Sugar", alerts[0].ProductName)
	assert.Equal(t, 50, alerts[0].ReorderQuantity, "string quantity is coerced")
	assert.Equal(t, "Critical", alerts[0].Urgency)
}

func TestReorderAlerts_FallbackOnModelError(t *testing.T) {
	products := &mockProducts{products: []catalog.Product{
		lowStockProduct("p1", "Sugar", 5, 10),
	}}
	// 90 sold in 30 days = 3/day, ~1.7 days of stock left.
	sales := &mockSales{velocity: []sale.ProductVelocity{{ProductID: "p1", TotalSold: 90}}}
	model := &stubModel{err: errors.New("gateway down")}

	alerts, err := NewService(products, sales, model).ReorderAlerts(context.Background(), "t1")
	require.NoError(t, err)

	require.Len(t, alerts, 1)
	assert.Equal(t, "Sugar", alerts[0].ProductName)
	assert.Equal(t, 42, alerts[0].ReorderQuantity, "ceil(3/day × 14 days)")
	assert.Equal(t, "Critical", alerts[0].Urgency)
	assert.Contains(t, alerts[0].Reason, "days until stockout")
}

func TestReorderAlerts_FallbackOnUnparseableReply(t *testing.T) {
	products := &mockProducts{products: []catalog.Product{
		lowStockProduct("p1", "Sugar", 5, 10),
	}}
	sales := &mockSales{velocity: []sale.ProductVelocity{{ProductID: "p1", TotalSold: 30}}}
	model := &stubModel{reply: "I cannot help with that."}

	alerts, err := NewService(products, sales, model).ReorderAlerts(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "High", alerts[0].Urgency)
}

func TestReorderAlerts_ThresholdWithoutVelocity(t *testing.T) {
	// Never sold, but sitting at the low-stock threshold: still flagged.
	products := &mockProducts{products: []catalog.Product{
		lowStockProduct("p1", "Dusty Widget", 8, 10),
	}}
	sales := &mockSales{}
	model := &stubModel{err: errors.New("down")}

	alerts, err := NewService(products, sales, model).ReorderAlerts(context.Background(), "t1")
	require.NoError(t, err)

	require.Len(t, alerts, 1)
	assert.Equal(t, 0, alerts[0].ReorderQuantity)
	assert.Equal(t, "High", alerts[0].Urgency)
}

func TestReorderAlerts_RepoError(t *testing.T) {
	svc := NewService(&mockProducts{err: errors.New("db down")}, &mockSales{}, &stubModel{})

	_, err := svc.ReorderAlerts(context.Background(), "t1")
	require.Error(t, err)
}

// --- Stats ---

func TestComputeDailyStats(t *testing.T) {
	days := []sale.DailyStat{
		{Sales: decimal.NewFromInt(10)},
		{Sales: decimal.NewFromInt(20)},
		{Sales: decimal.NewFromInt(30)},
	}

	stats := computeDailyStats(days)

	assert.True(t, decimal.NewFromInt(20).Equal(stats.mean), "mean %s", stats.mean)
	// Population std dev of {10,20,30} is sqrt(200/3) ≈ 8.16.
	assert.Equal(t, "8.16", stats.stdDev.StringFixed(2))
}

func TestComputeDailyStats_Empty(t *testing.T) {
	stats := computeDailyStats(nil)
	assert.True(t, stats.mean.IsZero())
	assert.True(t, stats.stdDev.IsZero())
}
