package insight

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"golang.org/x/sync/errgroup"

	"github.com/dukahub/dukapos/internal/domain/catalog"
	"github.com/dukahub/dukapos/internal/domain/sale"
	"github.com/dukahub/dukapos/internal/llm"
)

// ReorderAlert is one restocking recommendation.
type ReorderAlert struct {
	ProductName     string
	ReorderQuantity int
	Urgency         string
	Reason          string
}

// noStockoutDays stands in for "no stockout in sight" when a product has no
// recent sales.
const noStockoutDays = 999.0

// productVelocity pairs a product with its 30-day sales velocity.
type productVelocity struct {
	product           catalog.Product
	totalSold         int
	dailyVelocity     float64
	daysUntilStockout float64
}

// ReorderAlerts flags products close to stockout and asks the model for
// reorder quantities. Products are critical when projected to stock out
// within 14 days or already at their low-stock threshold. When the model is
// unavailable or replies unusably, deterministic fallback recommendations
// are returned instead.
func (s *Service) ReorderAlerts(ctx context.Context, tenantID string) ([]ReorderAlert, error) {
	since := s.now().AddDate(0, 0, -windowDays)

	var (
		products []catalog.Product
		sold     []sale.ProductVelocity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.products.List(gctx, tenantID)
		return errors.Wrap(err, "list products")
	})
	g.Go(func() error {
		var err error
		sold, err = s.sales.VelocityByProduct(gctx, tenantID, since)
		return errors.Wrap(err, "velocity by product")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	critical := criticalProducts(products, sold)
	if len(critical) == 0 {
		return []ReorderAlert{}, nil
	}

	reply, err := s.model.Complete(ctx, []llm.Message{
		{
			Role:    "system",
			Content: "You are an inventory management expert. Analyze product stock levels and sales velocity to provide smart reorder recommendations.",
		},
		{
			Role:    "user",
			Content: reorderPrompt(critical),
		},
	})
	if err != nil {
		return fallbackAlerts(critical), nil
	}

	alerts, ok := parseReorderReply(reply)
	if !ok {
		return fallbackAlerts(critical), nil
	}
	return alerts, nil
}

// criticalProducts computes per-product velocity and filters to those needing
// attention.
func criticalProducts(products []catalog.Product, sold []sale.ProductVelocity) []productVelocity {
	soldByID := make(map[string]int, len(sold))
	for _, v := range sold {
		soldByID[v.ProductID] = v.TotalSold
	}

	var critical []productVelocity
	for _, p := range products {
		total := soldByID[p.ID]
		velocity := float64(total) / float64(windowDays)

		days := noStockoutDays
		if velocity > 0 {
			days = float64(p.Stock) / velocity
		}

		if days < reorderHorizonDays || p.Stock <= p.LowStockThreshold {
			critical = append(critical, productVelocity{
				product:           p,
				totalSold:         total,
				dailyVelocity:     velocity,
				daysUntilStockout: days,
			})
		}
	}
	return critical
}

func reorderPrompt(critical []productVelocity) string {
	var b strings.Builder
	b.WriteString("Analyze these products and provide reorder recommendations.\n")
	b.WriteString("One line per product as name, current stock, threshold, daily sales, days until stockout, buying price:\n\n")
	for _, c := range critical {
		fmt.Fprintf(&b, "%s, %d, %d, %.2f, %.1f, %s\n",
			c.product.Name, c.product.Stock, c.product.LowStockThreshold,
			c.dailyVelocity, c.daysUntilStockout, c.product.BuyingPrice.String())
	}
	b.WriteString(`
For each product, suggest:
1. Recommended reorder quantity
2. Urgency level (Critical/High/Medium)
3. Brief reason

Format as JSON array with keys: productName, reorderQuantity, urgency, reason`)
	return b.String()
}

// fallbackAlerts derives recommendations without the model: cover the next
// 14 days of sales, flagging products within a week of stockout as critical.
func fallbackAlerts(critical []productVelocity) []ReorderAlert {
	alerts := make([]ReorderAlert, len(critical))
	for i, c := range critical {
		urgency := "High"
		if c.daysUntilStockout < criticalStockoutDays {
			urgency = "Critical"
		}
		alerts[i] = ReorderAlert{
			ProductName:     c.product.Name,
			ReorderQuantity: int(math.Ceil(c.dailyVelocity * reorderHorizonDays)),
			Urgency:         urgency,
			Reason:          fmt.Sprintf("%.1f days until stockout", c.daysUntilStockout),
		}
	}
	return alerts
}

// parseReorderReply decodes the model's JSON array of alerts. Quantities may
// arrive as numbers or numeric strings.
func parseReorderReply(reply string) ([]ReorderAlert, bool) {
	raw, ok := extractJSON(reply, '[', ']')
	if !ok {
		return nil, false
	}

	var alerts []ReorderAlert
	d := jx.DecodeStr(raw)
	err := d.Arr(func(d *jx.Decoder) error {
		var a ReorderAlert
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "productName":
				s, err := d.Str()
				a.ProductName = s
				return err
			case "reorderQuantity":
				n, err := decodeLooseInt(d)
				a.ReorderQuantity = n
				return err
			case "urgency":
				s, err := d.Str()
				a.Urgency = s
				return err
			case "reason":
				s, err := d.Str()
				a.Reason = s
				return err
			default:
				return d.Skip()
			}
		}); err != nil {
			return err
		}
		alerts = append(alerts, a)
		return nil
	})
	if err != nil || len(alerts) == 0 {
		return nil, false
	}
	return alerts, true
}

// decodeLooseInt reads an integer that the model may emit as a number,
// float, or quoted string.
func decodeLooseInt(d *jx.Decoder) (int, error) {
	switch d.Next() {
	case jx.Number:
		f, err := d.Float64()
		if err != nil {
			return 0, err
		}
		return int(math.Round(f)), nil
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return 0, err
		}
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &n); err != nil {
			return 0, nil
		}
		return n, nil
	default:
		return 0, d.Skip()
	}
}
