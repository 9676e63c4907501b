package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/google/uuid"

	"github.com/dukahub/dukapos/internal/domain/auth"
	"github.com/dukahub/dukapos/internal/domain/catalog"
)

// ListProducts returns the tenant's sellable products. Out-of-stock items
// are excluded unless ?all=true is given.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	session, err := auth.SessionFromContext(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var products []catalog.Product
	if r.URL.Query().Get("all") == "true" {
		products, err = h.products.List(r.Context(), session.TenantID)
	} else {
		products, err = h.products.ListAvailable(r.Context(), session.TenantID)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeProducts(&e, products)
	writeJSON(w, http.StatusOK, &e)
}

// ListLowStock returns products at or below their low stock threshold.
func (h *Handler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	session, err := auth.SessionFromContext(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	products, err := h.products.ListLowStock(r.Context(), session.TenantID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeProducts(&e, products)
	writeJSON(w, http.StatusOK, &e)
}

// CreateProduct adds a product to the tenant's catalog.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
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

	p, err := decodeProduct(raw)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if p.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}
	if p.SellingPrice.IsNegative() || p.BuyingPrice.IsNegative() {
		writeBadRequest(w, "prices must not be negative")
		return
	}
	if p.Stock < 0 {
		writeBadRequest(w, "stock must not be negative")
		return
	}

	p.ID = uuid.NewString()
	p.TenantID = session.TenantID

	if err := h.products.Create(r.Context(), p); err != nil {
		writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeProduct(&e, p)
	writeJSON(w, http.StatusCreated, &e)
}

// UpdateProduct replaces a product's mutable fields.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
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

	p, err := decodeProduct(raw)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if p.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}
	if p.SellingPrice.IsNegative() || p.BuyingPrice.IsNegative() {
		writeBadRequest(w, "prices must not be negative")
		return
	}
	if p.Stock < 0 {
		writeBadRequest(w, "stock must not be negative")
		return
	}

	p.ID = r.PathValue("id")
	p.TenantID = session.TenantID

	if err := h.products.Update(r.Context(), p); err != nil {
		writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeProduct(&e, p)
	writeJSON(w, http.StatusOK, &e)
}

func decodeProduct(raw []byte) (catalog.Product, error) {
	var p catalog.Product
	d := jx.DecodeBytes(raw)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			p.Name, err = d.Str()
		case "category":
			p.Category, err = d.Str()
		case "barcode":
			p.Barcode, err = d.Str()
		case "buyingPrice":
			p.BuyingPrice, err = decodeDecimal(d)
		case "sellingPrice":
			p.SellingPrice, err = decodeDecimal(d)
		case "stock":
			p.Stock, err = d.Int()
		case "lowStockThreshold":
			p.LowStockThreshold, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	return p, err
}

func encodeProducts(e *jx.Encoder, products []catalog.Product) {
	e.ArrStart()
	for _, p := range products {
		encodeProduct(e, p)
	}
	e.ArrEnd()
}

func encodeProduct(e *jx.Encoder, p catalog.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("barcode")
	e.Str(p.Barcode)
	e.FieldStart("buyingPrice")
	money(e, p.BuyingPrice)
	e.FieldStart("sellingPrice")
	money(e, p.SellingPrice)
	e.FieldStart("stock")
	e.Int(p.Stock)
	e.FieldStart("lowStockThreshold")
	e.Int(p.LowStockThreshold)
	e.ObjEnd()
}
