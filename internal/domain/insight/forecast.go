package insight

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/dukahub/dukapos/internal/domain/sale"
	"github.com/dukahub/dukapos/internal/llm"
)

// DailyPoint is one day of sales history included with a forecast response.
type DailyPoint struct {
	Date         string
	Sales        decimal.Decimal
	Profit       decimal.Decimal
	Transactions int
}

// Forecast is the model-assisted sales outlook. The four structured fields
// hold raw JSON values from the model's reply; when the reply cannot be
// parsed as JSON, Freeform carries the whole text instead.
type Forecast struct {
	NextWeekDaily   string
	NextMonthTotal  string
	Trends          string
	Recommendations string
	Freeform        string
	History         []DailyPoint
}

// Forecast aggregates the last 30 days of sales and asks the model for a
// weekly and monthly outlook. It requires at least MinDays distinct days of
// history and returns ErrNotEnoughData otherwise.
func (s *Service) Forecast(ctx context.Context, tenantID string) (*Forecast, error) {
	since := s.now().AddDate(0, 0, -windowDays)

	days, err := s.sales.DailySummary(ctx, tenantID, since)
	if err != nil {
		return nil, errors.Wrap(err, "daily summary")
	}
	if len(days) < MinDays {
		return nil, ErrNotEnoughData
	}

	stats := computeDailyStats(days)

	reply, err := s.model.Complete(ctx, []llm.Message{
		{
			Role:    "system",
			Content: "You are an expert business analyst specializing in retail sales forecasting. Analyze historical sales data and provide actionable predictions.",
		},
		{
			Role:    "user",
			Content: forecastPrompt(days, stats),
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "complete forecast")
	}

	f := parseForecastReply(reply)
	f.History = lastDays(days, MinDays)
	return f, nil
}

// forecastPrompt renders the daily history plus summary statistics into the
// analysis request.
func forecastPrompt(days []sale.DailyStat, stats dailyStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this sales data and provide a forecast for next week and next month:\n\n")
	fmt.Fprintf(&b, "Sales history (last %d days), one line per day as date, sales, profit, transactions:\n", windowDays)
	for _, d := range days {
		fmt.Fprintf(&b, "%s, %s, %s, %d\n",
			d.Date.Format("2006-01-02"), d.Sales.String(), d.Profit.String(), d.Transactions)
	}
	fmt.Fprintf(&b, "\nDaily sales mean: %s, standard deviation: %s\n", stats.mean, stats.stdDev)
	b.WriteString(`
Provide:
1. Next 7 days forecast (daily average)
2. Next 30 days forecast (monthly total)
3. Key trends and insights
4. Recommendations for inventory planning

Format your response as JSON with these keys: nextWeekDaily, nextMonthTotal, trends, recommendations`)
	return b.String()
}

// parseForecastReply extracts the structured keys from the model's reply.
// Replies wrapped in markdown code fences are unwrapped first. Anything
// unparseable lands in Freeform.
func parseForecastReply(reply string) *Forecast {
	f := &Forecast{}

	raw, ok := extractJSON(reply, '{', '}')
	if !ok {
		f.Freeform = reply
		return f
	}

	d := jx.DecodeStr(raw)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		v, err := d.Raw()
		if err != nil {
			return err
		}
		switch key {
		case "nextWeekDaily":
			f.NextWeekDaily = v.String()
		case "nextMonthTotal":
			f.NextMonthTotal = v.String()
		case "trends":
			f.Trends = v.String()
		case "recommendations":
			f.Recommendations = v.String()
		}
		return nil
	})
	if err != nil {
		return &Forecast{Freeform: reply}
	}
	return f
}

// lastDays returns the trailing n entries mapped to response points.
func lastDays(days []sale.DailyStat, n int) []DailyPoint {
	if len(days) > n {
		days = days[len(days)-n:]
	}
	out := make([]DailyPoint, len(days))
	for i, d := range days {
		out[i] = DailyPoint{
			Date:         d.Date.Format("2006-01-02"),
			Sales:        d.Sales,
			Profit:       d.Profit,
			Transactions: d.Transactions,
		}
	}
	return out
}
