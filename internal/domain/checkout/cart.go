package checkout

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/dukahub/dukapos/internal/domain/catalog"
)

var (
	// ErrNotInCart is returned when an operation references a product that
	// has no cart line.
	ErrNotInCart = errors.New("product not in cart")
	// ErrInvalidPrice is returned when a line price override is negative.
	ErrInvalidPrice = errors.New("price must not be negative")
)

// StockLimitError indicates a quantity change that would exceed the stock
// recorded in the catalog snapshot. The cart is left unchanged.
type StockLimitError struct {
	ProductID string
	Stock     int
}

func (e *StockLimitError) Error() string {
	return fmt.Sprintf("product %s: quantity exceeds available stock (%d)", e.ProductID, e.Stock)
}

// Line is one product entry in the cart. UnitPrice starts as the catalog
// selling price and may be overridden by the operator before commit.
type Line struct {
	ProductID   string
	Name        string
	UnitPrice   decimal.Decimal
	BuyingPrice decimal.Decimal
	Quantity    int
	// Stock is the availability recorded in the snapshot the cart was
	// built from; quantities never exceed it.
	Stock int
}

// Cart is an ordered set of lines constrained by a catalog snapshot.
// It is owned by a single checkout session and is not safe for concurrent use.
type Cart struct {
	snapshot *catalog.Snapshot
	lines    []*Line
	index    map[string]*Line
}

// NewCart creates an empty cart over the given catalog snapshot.
func NewCart(snapshot *catalog.Snapshot) *Cart {
	return &Cart{
		snapshot: snapshot,
		index:    make(map[string]*Line),
	}
}

// AddItem adds one unit of the product. If the product is already in the
// cart the quantity is incremented, rejecting the increment with a
// StockLimitError when it would exceed the snapshot stock.
func (c *Cart) AddItem(productID string) error {
	p, ok := c.snapshot.Get(productID)
	if !ok {
		return catalog.ErrNotFound
	}

	if line, exists := c.index[productID]; exists {
		if line.Quantity >= line.Stock {
			return &StockLimitError{ProductID: productID, Stock: line.Stock}
		}
		line.Quantity++
		return nil
	}

	if p.Stock < 1 {
		return &StockLimitError{ProductID: productID, Stock: p.Stock}
	}

	line := &Line{
		ProductID:   p.ID,
		Name:        p.Name,
		UnitPrice:   p.SellingPrice,
		BuyingPrice: p.BuyingPrice,
		Quantity:    1,
		Stock:       p.Stock,
	}
	c.lines = append(c.lines, line)
	c.index[productID] = line
	return nil
}

// ChangeQuantity adjusts a line's quantity by delta. A resulting quantity of
// zero or less removes the line. A quantity above the snapshot stock is
// rejected with a StockLimitError and the line is left unchanged.
func (c *Cart) ChangeQuantity(productID string, delta int) error {
	line, ok := c.index[productID]
	if !ok {
		return ErrNotInCart
	}

	next := line.Quantity + delta
	switch {
	case next <= 0:
		c.remove(productID)
	case next > line.Stock:
		return &StockLimitError{ProductID: productID, Stock: line.Stock}
	default:
		line.Quantity = next
	}
	return nil
}

// RemoveItem removes the line for the product. Removing an absent product is
// a no-op.
func (c *Cart) RemoveItem(productID string) {
	c.remove(productID)
}

// SetLinePrice overrides the unit price used for totals on one line.
// Negative prices are rejected; a price below cost is allowed and surfaces
// as negative line profit.
func (c *Cart) SetLinePrice(productID string, price decimal.Decimal) error {
	line, ok := c.index[productID]
	if !ok {
		return ErrNotInCart
	}
	if price.IsNegative() {
		return ErrInvalidPrice
	}
	line.UnitPrice = price
	return nil
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	for i, l := range c.lines {
		out[i] = *l
	}
	return out
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

// Clear removes every line. Called after a successful commit.
func (c *Cart) Clear() {
	c.lines = nil
	c.index = make(map[string]*Line)
}

func (c *Cart) remove(productID string) {
	if _, ok := c.index[productID]; !ok {
		return
	}
	delete(c.index, productID)
	for i, l := range c.lines {
		if l.ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			break
		}
	}
}
