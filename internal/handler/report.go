package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/jx"

	"github.com/dukahub/dukapos/internal/domain/auth"
)

// maxReportDays bounds the daily report window.
const maxReportDays = 365

// DailyReport returns per-day sales aggregates for the last N days
// (?days=N, default 30).
func (h *Handler) DailyReport(w http.ResponseWriter, r *http.Request) {
	session, err := auth.SessionFromContext(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days < 1 || days > maxReportDays {
			writeBadRequest(w, "days must be an integer between 1 and 365")
			return
		}
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	stats, err := h.sales.DailySummary(r.Context(), session.TenantID, since)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ArrStart()
	for _, s := range stats {
		e.ObjStart()
		e.FieldStart("date")
		e.Str(s.Date.Format("2006-01-02"))
		e.FieldStart("sales")
		money(&e, s.Sales)
		e.FieldStart("profit")
		money(&e, s.Profit)
		e.FieldStart("transactions")
		e.Int(s.Transactions)
		e.FieldStart("items")
		e.Int(s.Items)
		e.ObjEnd()
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, &e)
}
