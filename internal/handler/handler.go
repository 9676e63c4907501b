// Package handler exposes the HTTP API: catalog management, promo
// validation, checkout commit, daily reports, and model-assisted insights.
// Handlers decode with jx, delegate to the domain services, and map domain
// errors onto a uniform JSON error envelope.
package handler

import (
	"net/http"

	"github.com/dukahub/dukapos/internal/domain/catalog"
	"github.com/dukahub/dukapos/internal/domain/checkout"
	"github.com/dukahub/dukapos/internal/domain/insight"
	"github.com/dukahub/dukapos/internal/domain/promo"
	"github.com/dukahub/dukapos/internal/domain/sale"
)

// Handler carries the domain dependencies shared by all endpoints.
type Handler struct {
	products catalog.Repository
	sales    sale.Repository
	promos   promo.Validator
	checkout *checkout.Service
	insights *insight.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products catalog.Repository,
	sales sale.Repository,
	promos promo.Validator,
	checkoutService *checkout.Service,
	insights *insight.Service,
) *Handler {
	return &Handler{
		products: products,
		sales:    sales,
		promos:   promos,
		checkout: checkoutService,
		insights: insights,
	}
}

// Routes registers every API endpoint on a new mux. Authentication is
// applied by the caller around the whole mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("POST /api/products", h.CreateProduct)
	mux.HandleFunc("GET /api/products/low-stock", h.ListLowStock)
	mux.HandleFunc("PUT /api/products/{id}", h.UpdateProduct)

	mux.HandleFunc("POST /api/promos/validate", h.ValidatePromo)
	mux.HandleFunc("POST /api/checkout", h.Checkout)

	mux.HandleFunc("GET /api/reports/daily", h.DailyReport)
	mux.HandleFunc("GET /api/insights/forecast", h.ForecastInsight)
	mux.HandleFunc("GET /api/insights/reorder-alerts", h.ReorderAlerts)

	return mux
}
