package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/dukahub/dukapos/internal/domain/auth"
	"github.com/dukahub/dukapos/internal/domain/catalog"
	"github.com/dukahub/dukapos/internal/domain/checkout"
	"github.com/dukahub/dukapos/internal/domain/insight"
	"github.com/dukahub/dukapos/internal/domain/promo"
	"github.com/dukahub/dukapos/internal/llm"
)

// Machine-readable error codes carried in the errorCode field.
const (
	codeStockLimit        = "STOCK_LIMIT"
	codeStockConflict     = "STOCK_CONFLICT"
	codePromoNotFound     = "PROMO_NOT_FOUND"
	codePromoExpired      = "PROMO_EXPIRED"
	codePromoLimitReached = "PROMO_LIMIT_REACHED"
	codeProductNotFound   = "PRODUCT_NOT_FOUND"
	codeNotEnoughData     = "NOT_ENOUGH_DATA"
	codeBadRequest        = "BAD_REQUEST"
)

// writeError sends the uniform error envelope.
func writeError(w http.ResponseWriter, status int, errorCode, message string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("errorCode")
	e.Str(errorCode)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()
	writeJSON(w, status, &e)
}

// writeBadRequest reports a malformed or invalid request body.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, codeBadRequest, message)
}

// writeDomainError maps domain errors onto HTTP statuses. Validation
// failures are 400, business rejections 422, a commit-time stock race 409,
// anything unrecognized 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *checkout.StockLimitError
	switch {
	case errors.As(err, &stockErr):
		writeError(w, http.StatusUnprocessableEntity, codeStockLimit, stockErr.Error())
	case errors.Is(err, catalog.ErrInsufficientStock):
		// The cart passed its snapshot check but another checkout consumed
		// the stock before this one committed.
		writeError(w, http.StatusConflict, codeStockConflict, "stock changed during checkout, please retry")
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusUnprocessableEntity, codeProductNotFound, "product not found")
	case errors.Is(err, promo.ErrNotFound):
		writeError(w, http.StatusUnprocessableEntity, codePromoNotFound, "promo code not found")
	case errors.Is(err, promo.ErrExpired):
		writeError(w, http.StatusUnprocessableEntity, codePromoExpired, "promo code expired")
	case errors.Is(err, promo.ErrLimitReached):
		writeError(w, http.StatusUnprocessableEntity, codePromoLimitReached, "promo code usage limit reached")
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrUnknownPaymentMethod),
		errors.Is(err, checkout.ErrInvalidPrice):
		writeBadRequest(w, err.Error())
	case errors.Is(err, insight.ErrNotEnoughData):
		writeError(w, http.StatusUnprocessableEntity, codeNotEnoughData, "not enough sales history, need at least 7 days")
	case errors.Is(err, llm.ErrDisabled):
		writeError(w, http.StatusServiceUnavailable, "MODEL_UNAVAILABLE", "insights are not configured")
	case errors.Is(err, auth.ErrNoSession):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	default:
		logError(r, "internal error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
}
