package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukahub/dukapos/internal/domain/catalog"
)

func newTestProduct(id, name string, selling, buying string, stock int) catalog.Product {
	return catalog.Product{
		ID:           id,
		TenantID:     "t1",
		Name:         name,
		SellingPrice: decimal.RequireFromString(selling),
		BuyingPrice:  decimal.RequireFromString(buying),
		Stock:        stock,
	}
}

func newTestCart(products ...catalog.Product) *Cart {
	return NewCart(catalog.NewSnapshot(products))
}

func TestCart_AddItem(t *testing.T) {
	cart := newTestCart(newTestProduct("p1", "Sugar", "5000", "4200", 3))

	require.NoError(t, cart.AddItem("p1"))
	require.NoError(t, cart.AddItem("p1"))

	lines := cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.True(t, decimal.RequireFromString("5000").Equal(lines[0].UnitPrice))
}

func TestCart_AddItem_UnknownProduct(t *testing.T) {
	cart := newTestCart()

	err := cart.AddItem("missing")
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestCart_AddItem_StockCap(t *testing.T) {
	cart := newTestCart(newTestProduct("p1", "Sugar", "5000", "4200", 2))

	require.NoError(t, cart.AddItem("p1"))
	require.NoError(t, cart.AddItem("p1"))

	err := cart.AddItem("p1")
	var stockErr *StockLimitError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "p1", stockErr.ProductID)
	assert.Equal(t, 2, stockErr.Stock)

	// The failed add left the quantity untouched.
	assert.Equal(t, 2, cart.Lines()[0].Quantity)
}

func TestCart_AddItem_OutOfStock(t *testing.T) {
	cart := newTestCart(newTestProduct("p1", "Sugar", "5000", "4200", 0))

	var stockErr *StockLimitError
	require.ErrorAs(t, cart.AddItem("p1"), &stockErr)
	assert.True(t, cart.Empty())
}

func TestCart_ChangeQuantity(t *testing.T) {
	cart := newTestCart(newTestProduct("p1", "Sugar", "5000", "4200", 10))
	require.NoError(t, cart.AddItem("p1"))

	require.NoError(t, cart.ChangeQuantity("p1", 4))
	assert.Equal(t, 5, cart.Lines()[0].Quantity)

	require.NoError(t, cart.ChangeQuantity("p1", -2))
	assert.Equal(t, 3, cart.Lines()[0].Quantity)
}

func TestCart_ChangeQuantity_RemovesAtZero(t *testing.T) {
	cart := newTestCart(newTestProduct("p1", "Sugar", "5000", "4200", 10))
	require.NoError(t, cart.AddItem("p1"))

	require.NoError(t, cart.ChangeQuantity("p1", -1))
	assert.True(t, cart.Empty())

	// The line is really gone, not zeroed.
	require.ErrorIs(t, cart.ChangeQuantity("p1", 1), ErrNotInCart)
}

func TestCart_ChangeQuantity_StockCap(t *testing.T) {
	cart := newTestCart(newTestProduct("p1", "Sugar", "5000", "4200", 3))
	require.NoError(t, cart.AddItem("p1"))

	var stockErr *StockLimitError
	require.ErrorAs(t, cart.ChangeQuantity("p1", 5), &stockErr)
	assert.Equal(t, 1, cart.Lines()[0].Quantity)
}

func TestCart_ChangeQuantity_NotInCart(t *testing.T) {
	cart := newTestCart(newTestProduct("p1", "Sugar", "5000", "4200", 3))

	require.ErrorIs(t, cart.ChangeQuantity("p1", 1), ErrNotInCart)
}

func TestCart_RemoveItem(t *testing.T) {
	cart := newTestCart(
		newTestProduct("p1", "Sugar", "5000", "4200", 3),
		newTestProduct("p2", "Flour", "9000", "7500", 3),
	)
	require.NoError(t, cart.AddItem("p1"))
	require.NoError(t, cart.AddItem("p2"))

	cart.RemoveItem("p1")

	lines := cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "p2", lines[0].ProductID)

	// Removing an absent product is a no-op.
	cart.RemoveItem("p1")
	assert.Len(t, cart.Lines(), 1)
}

func TestCart_SetLinePrice(t *testing.T) {
	cart := newTestCart(newTestProduct("p1", "Sugar", "5000", "4200", 3))
	require.NoError(t, cart.AddItem("p1"))

	require.NoError(t, cart.SetLinePrice("p1", decimal.RequireFromString("4500")))
	assert.True(t, decimal.RequireFromString("4500").Equal(cart.Lines()[0].UnitPrice))

	// Below cost is allowed; negative is not.
	require.NoError(t, cart.SetLinePrice("p1", decimal.RequireFromString("4000")))
	require.ErrorIs(t, cart.SetLinePrice("p1", decimal.RequireFromString("-1")), ErrInvalidPrice)
	require.ErrorIs(t, cart.SetLinePrice("p2", decimal.NewFromInt(1)), ErrNotInCart)
}

func TestCart_InsertionOrderPreserved(t *testing.T) {
	cart := newTestCart(
		newTestProduct("p1", "Sugar", "5000", "4200", 3),
		newTestProduct("p2", "Flour", "9000", "7500", 3),
		newTestProduct("p3", "Oil", "10500", "8800", 3),
	)
	require.NoError(t, cart.AddItem("p2"))
	require.NoError(t, cart.AddItem("p3"))
	require.NoError(t, cart.AddItem("p1"))

	lines := cart.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, "p2", lines[0].ProductID)
	assert.Equal(t, "p3", lines[1].ProductID)
	assert.Equal(t, "p1", lines[2].ProductID)
}

func TestCart_Clear(t *testing.T) {
	cart := newTestCart(newTestProduct("p1", "Sugar", "5000", "4200", 3))
	require.NoError(t, cart.AddItem("p1"))

	cart.Clear()

	assert.True(t, cart.Empty())
	require.NoError(t, cart.AddItem("p1"))
	assert.Equal(t, 1, cart.Lines()[0].Quantity)
}
