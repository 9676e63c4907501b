package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/dukahub/dukapos/internal/domain/auth"
)

// ForecastInsight returns the model-assisted sales forecast for the tenant.
func (h *Handler) ForecastInsight(w http.ResponseWriter, r *http.Request) {
	session, err := auth.SessionFromContext(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	f, err := h.insights.Forecast(r.Context(), session.TenantID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ObjStart()
	if f.Freeform != "" {
		e.FieldStart("freeform")
		e.Str(f.Freeform)
	} else {
		// The structured fields hold raw JSON values from the model reply.
		rawField(&e, "nextWeekDaily", f.NextWeekDaily)
		rawField(&e, "nextMonthTotal", f.NextMonthTotal)
		rawField(&e, "trends", f.Trends)
		rawField(&e, "recommendations", f.Recommendations)
	}
	e.FieldStart("history")
	e.ArrStart()
	for _, p := range f.History {
		e.ObjStart()
		e.FieldStart("date")
		e.Str(p.Date)
		e.FieldStart("sales")
		money(&e, p.Sales)
		e.FieldStart("profit")
		money(&e, p.Profit)
		e.FieldStart("transactions")
		e.Int(p.Transactions)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
	writeJSON(w, http.StatusOK, &e)
}

// ReorderAlerts returns restocking recommendations for products running low.
func (h *Handler) ReorderAlerts(w http.ResponseWriter, r *http.Request) {
	session, err := auth.SessionFromContext(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	alerts, err := h.insights.ReorderAlerts(r.Context(), session.TenantID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ArrStart()
	for _, a := range alerts {
		e.ObjStart()
		e.FieldStart("productName")
		e.Str(a.ProductName)
		e.FieldStart("reorderQuantity")
		e.Int(a.ReorderQuantity)
		e.FieldStart("urgency")
		e.Str(a.Urgency)
		e.FieldStart("reason")
		e.Str(a.Reason)
		e.ObjEnd()
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, &e)
}

// rawField writes a pre-validated raw JSON value, or null when empty.
func rawField(e *jx.Encoder, name, raw string) {
	e.FieldStart(name)
	if raw == "" {
		e.Null()
		return
	}
	e.Raw([]byte(raw))
}
