package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/dukahub/dukapos/internal/domain/auth"
)

// ValidatePromo checks a promo code for the current tenant and returns the
// discount it would apply. Validation never consumes a use; the counter only
// moves when a checkout using the code commits.
func (h *Handler) ValidatePromo(w http.ResponseWriter, r *http.Request) {
	session, err := auth.SessionFromContext(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	raw, err := readBody(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var code string
	d := jx.DecodeBytes(raw)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "code" {
			return d.Skip()
		}
		var err error
		code, err = d.Str()
		return err
	}); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if code == "" {
		writeBadRequest(w, "code is required")
		return
	}

	rec, err := h.promos.Validate(r.Context(), session.TenantID, code)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Str(rec.Code)
	e.FieldStart("discountType")
	e.Str(string(rec.DiscountType))
	e.FieldStart("discountValue")
	money(&e, rec.DiscountValue)
	e.ObjEnd()
	writeJSON(w, http.StatusOK, &e)
}
