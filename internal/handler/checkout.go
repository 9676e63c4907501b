package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/dukahub/dukapos/internal/domain/auth"
	"github.com/dukahub/dukapos/internal/domain/catalog"
	"github.com/dukahub/dukapos/internal/domain/checkout"
	"github.com/dukahub/dukapos/internal/domain/sale"
)

type checkoutItem struct {
	ProductID string
	Quantity  int
	// UnitPrice overrides the catalog selling price when set.
	UnitPrice    decimal.Decimal
	HasUnitPrice bool
}

type checkoutRequest struct {
	Items         []checkoutItem
	DiscountType  string
	DiscountValue decimal.Decimal
	PromoCode     string
	PaymentMethod string
}

// Checkout builds a cart from the request, resolves the discount, and
// commits the sale in one server-side transaction. A stock race lost to a
// concurrent checkout surfaces as 409 and leaves nothing written.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
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
	req, err := decodeCheckoutRequest(raw)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if len(req.Items) == 0 {
		writeBadRequest(w, "items must not be empty")
		return
	}
	for _, item := range req.Items {
		if item.ProductID == "" {
			writeBadRequest(w, "productId is required")
			return
		}
		if item.Quantity < 1 {
			writeBadRequest(w, "quantity must be at least 1")
			return
		}
	}

	switch req.DiscountType {
	case "", "none", "percentage", "fixed", "promo":
	default:
		writeBadRequest(w, "unknown discount type "+req.DiscountType)
		return
	}

	cart, err := h.buildCart(r, session.TenantID, req.Items)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	spec, err := h.resolveDiscount(r, session.TenantID, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	result, err := h.checkout.Commit(r.Context(), session, cart, spec, req.PaymentMethod)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeCommitResult(&e, result)
	writeJSON(w, http.StatusCreated, &e)
}

// buildCart loads the referenced products and replays the requested lines
// against a fresh catalog snapshot, enforcing stock caps and price override
// rules.
func (h *Handler) buildCart(r *http.Request, tenantID string, items []checkoutItem) (*checkout.Cart, error) {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	products, err := h.products.GetByIDs(r.Context(), tenantID, ids)
	if err != nil {
		return nil, err
	}

	cart := checkout.NewCart(catalog.NewSnapshot(products))
	for _, item := range items {
		if err := cart.AddItem(item.ProductID); err != nil {
			return nil, err
		}
		if item.Quantity > 1 {
			if err := cart.ChangeQuantity(item.ProductID, item.Quantity-1); err != nil {
				return nil, err
			}
		}
		if item.HasUnitPrice {
			if err := cart.SetLinePrice(item.ProductID, item.UnitPrice); err != nil {
				return nil, err
			}
		}
	}
	return cart, nil
}

// resolveDiscount maps the request's discount block onto a DiscountSpec,
// validating promo codes against the repository.
func (h *Handler) resolveDiscount(r *http.Request, tenantID string, req checkoutRequest) (checkout.DiscountSpec, error) {
	switch req.DiscountType {
	case "", "none":
		return checkout.NoDiscount(), nil
	case "percentage":
		return checkout.PercentageDiscount(req.DiscountValue), nil
	case "fixed":
		return checkout.FixedDiscount(req.DiscountValue), nil
	default: // "promo", the only case left after upfront validation
		rec, err := h.promos.Validate(r.Context(), tenantID, req.PromoCode)
		if err != nil {
			return checkout.DiscountSpec{}, err
		}
		return checkout.PromoDiscount(rec), nil
	}
}

func decodeCheckoutRequest(raw []byte) (checkoutRequest, error) {
	var req checkoutRequest
	d := jx.DecodeBytes(raw)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				var item checkoutItem
				if err := d.Obj(func(d *jx.Decoder, key string) error {
					var err error
					switch key {
					case "productId":
						item.ProductID, err = d.Str()
					case "quantity":
						item.Quantity, err = d.Int()
					case "unitPrice":
						item.UnitPrice, err = decodeDecimal(d)
						item.HasUnitPrice = err == nil
					default:
						err = d.Skip()
					}
					return err
				}); err != nil {
					return err
				}
				req.Items = append(req.Items, item)
				return nil
			})
		case "discount":
			return d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "type":
					req.DiscountType, err = d.Str()
				case "value":
					req.DiscountValue, err = decodeDecimal(d)
				case "promoCode":
					req.PromoCode, err = d.Str()
				default:
					err = d.Skip()
				}
				return err
			})
		case "paymentMethod":
			var err error
			req.PaymentMethod, err = d.Str()
			return err
		default:
			return d.Skip()
		}
	})
	return req, err
}

func encodeCommitResult(e *jx.Encoder, result *checkout.CommitResult) {
	e.ObjStart()
	e.FieldStart("subtotal")
	money(e, result.Totals.Subtotal)
	e.FieldStart("discount")
	money(e, result.Totals.Discount)
	e.FieldStart("total")
	money(e, result.Totals.Total)
	e.FieldStart("grossProfit")
	money(e, result.Totals.GrossProfit)
	e.FieldStart("netProfit")
	money(e, result.Totals.NetProfit)
	e.FieldStart("lines")
	e.ArrStart()
	for _, l := range result.Lines {
		encodeSaleLine(e, l)
	}
	e.ArrEnd()
	e.ObjEnd()
}

func encodeSaleLine(e *jx.Encoder, l sale.Line) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(l.ID)
	e.FieldStart("productId")
	e.Str(l.ProductID)
	e.FieldStart("productName")
	e.Str(l.ProductName)
	e.FieldStart("quantity")
	e.Int(l.Quantity)
	e.FieldStart("unitPrice")
	money(e, l.UnitPrice)
	e.FieldStart("totalAmount")
	money(e, l.TotalAmount)
	e.FieldStart("profit")
	money(e, l.Profit)
	e.FieldStart("discountAmount")
	money(e, l.DiscountAmount)
	e.FieldStart("paymentMethod")
	e.Str(l.PaymentMethod)
	if l.PromoCode != "" {
		e.FieldStart("promoCode")
		e.Str(l.PromoCode)
	}
	e.FieldStart("createdAt")
	e.Str(l.CreatedAt.Format(time.RFC3339))
	e.ObjEnd()
}
