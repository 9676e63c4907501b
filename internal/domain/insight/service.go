// Package insight derives forecasting and reorder recommendations from the
// sales ledger, using a chat-completion model for the narrative parts and
// deterministic descriptive statistics for everything the model is not
// trusted with.
package insight

import (
	"math"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/dukahub/dukapos/internal/domain/catalog"
	"github.com/dukahub/dukapos/internal/domain/sale"
	"github.com/dukahub/dukapos/internal/llm"
)

// ErrNotEnoughData is returned when the ledger holds fewer than MinDays
// distinct days of sales, too little to forecast from.
var ErrNotEnoughData = errors.New("not enough sales history")

const (
	// windowDays is the history window feeding both insights.
	windowDays = 30
	// MinDays is the minimum number of distinct sales days for a forecast.
	MinDays = 7
	// reorderHorizonDays is the stock coverage target for reorder quantities.
	reorderHorizonDays = 14
	// criticalStockoutDays marks the urgency boundary for reorder alerts.
	criticalStockoutDays = 7
)

// Service computes tenant-scoped insights.
type Service struct {
	products catalog.Repository
	sales    sale.Repository
	model    llm.Client
	now      func() time.Time
}

// NewService creates an insight Service.
func NewService(products catalog.Repository, sales sale.Repository, model llm.Client) *Service {
	return &Service{
		products: products,
		sales:    sales,
		model:    model,
		now:      time.Now,
	}
}

// dailyStats holds mean and standard deviation of daily sales totals.
type dailyStats struct {
	mean   decimal.Decimal
	stdDev decimal.Decimal
}

// computeDailyStats derives mean and population standard deviation of the
// daily sales amounts. Decimal inputs are converted through float64; the
// stats only feed prompt text, not accounting.
func computeDailyStats(days []sale.DailyStat) dailyStats {
	if len(days) == 0 {
		return dailyStats{}
	}

	var sum float64
	for _, d := range days {
		sum += d.Sales.InexactFloat64()
	}
	mean := sum / float64(len(days))

	var variance float64
	for _, d := range days {
		diff := d.Sales.InexactFloat64() - mean
		variance += diff * diff
	}
	variance /= float64(len(days))

	return dailyStats{
		mean:   decimal.NewFromFloat(mean).Round(2),
		stdDev: decimal.NewFromFloat(math.Sqrt(variance)).Round(2),
	}
}
