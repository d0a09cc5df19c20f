package pos

import (
	"testing"

	"go-pos-store/internal/stock"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint { return &v }

// plentyAvailable never runs out of anything.
func plentyAvailable(uint) (float64, error) { return 1e9, nil }

func fixedAvailability(quantities map[uint]float64) AvailabilityFunc {
	return func(productID uint) (float64, error) {
		return quantities[productID], nil
	}
}

func colaLine(qty float64) CartItem {
	return CartItem{
		ProductID:     uintPtr(1),
		Name:          "Cola",
		UnitPrice:     decimal.NewFromInt(100),
		PurchasePrice: decimal.NewFromInt(60),
		Quantity:      qty,
	}
}

func TestCartTotals(t *testing.T) {
	cart := NewCart(plentyAvailable)

	require.NoError(t, cart.AddItem(colaLine(3), false))
	require.NoError(t, cart.AddItem(CartItem{
		ProductID:          uintPtr(2),
		Name:               "Chips",
		UnitPrice:          decimal.NewFromFloat(2.50),
		PurchasePrice:      decimal.NewFromFloat(1.20),
		Quantity:           2,
		DiscountPercentage: 10,
	}, false))

	// 3×100 + 2×2.50×0.9 = 300 + 4.50
	assert.Equal(t, "304.50", cart.Subtotal().StringFixed(2))
	assert.Equal(t, "304.50", cart.Total().StringFixed(2))

	// profit = (300 − 180) + (4.50 − 2.40)
	assert.Equal(t, "122.10", cart.TotalProfit().StringFixed(2))
}

func TestCartMergesIdenticalLines(t *testing.T) {
	cart := NewCart(plentyAvailable)

	require.NoError(t, cart.AddItem(colaLine(2), false))
	require.NoError(t, cart.AddItem(colaLine(3), false))
	require.Len(t, cart.Items(), 1)
	assert.Equal(t, 5.0, cart.Items()[0].Quantity)

	// preventMerge keeps the line separate
	require.NoError(t, cart.AddItem(colaLine(1), true))
	assert.Len(t, cart.Items(), 2)

	// a different discount never merges
	discounted := colaLine(1)
	discounted.DiscountPercentage = 5
	require.NoError(t, cart.AddItem(discounted, false))
	assert.Len(t, cart.Items(), 3)
}

func TestCartMergeChecksCombinedQuantity(t *testing.T) {
	cart := NewCart(fixedAvailability(map[uint]float64{1: 4}))

	require.NoError(t, cart.AddItem(colaLine(3), false))

	// 3 already in the cart, 2 more would exceed the 4 available
	err := cart.AddItem(colaLine(2), false)
	var insufficient *stock.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 5.0, insufficient.Requested)
	assert.Equal(t, 4.0, insufficient.Available)
	assert.Equal(t, 3.0, cart.Items()[0].Quantity)
}

func TestAdHocLineSkipsStockCheck(t *testing.T) {
	cart := NewCart(fixedAvailability(map[uint]float64{}))

	require.NoError(t, cart.AddItem(CartItem{
		Name:      "Gift wrap",
		UnitPrice: decimal.NewFromInt(5),
		Quantity:  2,
	}, false))
	assert.Equal(t, "10.00", cart.Total().StringFixed(2))
}

func TestCartDiscountsAreMutuallyExclusive(t *testing.T) {
	cart := NewCart(plentyAvailable)
	require.NoError(t, cart.AddItem(colaLine(2), false)) // subtotal 200

	require.NoError(t, cart.SetDiscountPercentage(10))
	assert.Equal(t, "20.00", cart.DiscountAmount().StringFixed(2))
	assert.Equal(t, "180.00", cart.Total().StringFixed(2))

	// setting a fixed amount clears the percentage
	require.NoError(t, cart.SetDiscountAmount(decimal.NewFromInt(15)))
	assert.Equal(t, "15.00", cart.DiscountAmount().StringFixed(2))
	assert.Equal(t, "185.00", cart.Total().StringFixed(2))

	// and vice versa
	require.NoError(t, cart.SetDiscountPercentage(50))
	assert.Equal(t, "100.00", cart.Total().StringFixed(2))
}

func TestCartRejectsBadDiscounts(t *testing.T) {
	cart := NewCart(plentyAvailable)
	require.NoError(t, cart.AddItem(colaLine(1), false)) // subtotal 100

	assert.ErrorIs(t, cart.SetDiscountPercentage(101), ErrInvalidDiscountPercent)
	assert.ErrorIs(t, cart.SetDiscountPercentage(-1), ErrInvalidDiscountPercent)
	assert.ErrorIs(t, cart.SetDiscountAmount(decimal.NewFromInt(150)), ErrDiscountExceedsTotal)
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	cart := NewCart(plentyAvailable)

	assert.ErrorIs(t, cart.AddItem(colaLine(0), false), ErrInvalidQuantity)
	assert.ErrorIs(t, cart.AddItem(colaLine(-1), false), ErrInvalidQuantity)
	assert.True(t, cart.IsEmpty())
}

func TestFixedDiscountShrinksWithTheCart(t *testing.T) {
	cart := NewCart(plentyAvailable)
	require.NoError(t, cart.AddItem(colaLine(1), false)) // subtotal 100
	require.NoError(t, cart.SetDiscountAmount(decimal.NewFromInt(80)))

	// removing the line leaves nothing to discount
	require.NoError(t, cart.RemoveItem(0))
	assert.True(t, cart.DiscountAmount().IsZero())
	assert.True(t, cart.Total().IsZero())

	// shrinking a line caps the discount at what is left
	require.NoError(t, cart.AddItem(colaLine(2), false)) // subtotal 200
	require.NoError(t, cart.SetDiscountAmount(decimal.NewFromInt(150)))
	require.NoError(t, cart.UpdateQuantity(0, 1)) // subtotal 100
	assert.Equal(t, "100.00", cart.DiscountAmount().StringFixed(2))
	assert.True(t, cart.Total().IsZero())
	assert.False(t, cart.Total().IsNegative())
}

func TestUpdateQuantityAndRemove(t *testing.T) {
	cart := NewCart(plentyAvailable)
	require.NoError(t, cart.AddItem(colaLine(2), false))

	require.NoError(t, cart.UpdateQuantity(0, 7))
	assert.Equal(t, 7.0, cart.Items()[0].Quantity)

	// zero quantity removes the line
	require.NoError(t, cart.UpdateQuantity(0, 0))
	assert.True(t, cart.IsEmpty())

	assert.ErrorIs(t, cart.RemoveItem(0), ErrLineNotFound)
	assert.ErrorIs(t, cart.UpdateQuantity(3, 1), ErrLineNotFound)
}
