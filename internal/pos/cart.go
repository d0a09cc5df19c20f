package pos

import (
	"go-pos-store/internal/stock"

	"github.com/shopspring/decimal"
)

// AvailabilityFunc answers "how much of this product could we sell right
// now", pack stock included. The ledger provides the real one; tests can
// hand in anything.
type AvailabilityFunc func(productID uint) (float64, error)

// CartItem is one candidate sale line. It only lives inside a Cart; it is
// never persisted. ProductID is nil for ad-hoc items typed in at the till.
type CartItem struct {
	ProductID          *uint           `json:"product_id"`
	Name               string          `json:"name"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	PurchasePrice      decimal.Decimal `json:"purchase_price"`
	Quantity           float64         `json:"quantity"`
	DiscountPercentage float64         `json:"discount_percentage"`
	Category           string          `json:"category"`
}

// Subtotal = unit price × (1 − line discount%) × quantity, 2 decimals.
func (i CartItem) Subtotal() decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(i.DiscountPercentage).Div(decimal.NewFromInt(100)))
	return i.UnitPrice.Mul(factor).Mul(decimal.NewFromFloat(i.Quantity)).Round(2)
}

// Cart holds the lines of one open sale plus a global discount, which is
// either a percentage or a fixed amount - setting one clears the other.
// All derived values are computed on demand, never stored.
type Cart struct {
	items              []CartItem
	discountPercentage float64
	discountAmount     decimal.Decimal

	available AvailabilityFunc
}

func NewCart(available AvailabilityFunc) *Cart {
	return &Cart{available: available}
}

func (c *Cart) Items() []CartItem {
	return c.items
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// AddItem validates availability (pack stock counts) and then either
// merges into an identical existing line or appends a new one.
func (c *Cart) AddItem(item CartItem, preventMerge bool) error {
	if item.Quantity <= 0 {
		return ErrInvalidQuantity
	}

	mergeIdx := -1
	requested := item.Quantity
	if !preventMerge && item.ProductID != nil {
		for idx, existing := range c.items {
			if existing.ProductID != nil && *existing.ProductID == *item.ProductID &&
				existing.UnitPrice.Equal(item.UnitPrice) &&
				existing.DiscountPercentage == item.DiscountPercentage {
				mergeIdx = idx
				requested += existing.Quantity
				break
			}
		}
	}

	if err := c.checkStock(item, requested); err != nil {
		return err
	}

	if mergeIdx >= 0 {
		c.items[mergeIdx].Quantity = requested
	} else {
		c.items = append(c.items, item)
	}
	return nil
}

func (c *Cart) checkStock(item CartItem, requested float64) error {
	if item.ProductID == nil || c.available == nil {
		return nil // ad-hoc lines have no stock to check
	}
	available, err := c.available(*item.ProductID)
	if err != nil {
		return err
	}
	if available < requested {
		return &stock.InsufficientStockError{
			ProductName: item.Name,
			Requested:   requested,
			Available:   available,
		}
	}
	return nil
}

func (c *Cart) RemoveItem(index int) error {
	if index < 0 || index >= len(c.items) {
		return ErrLineNotFound
	}
	c.items = append(c.items[:index], c.items[index+1:]...)
	return nil
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (c *Cart) UpdateQuantity(index int, quantity float64) error {
	if index < 0 || index >= len(c.items) {
		return ErrLineNotFound
	}
	if quantity <= 0 {
		return c.RemoveItem(index)
	}
	if err := c.checkStock(c.items[index], quantity); err != nil {
		return err
	}
	c.items[index].Quantity = quantity
	return nil
}

func (c *Cart) Clear() {
	c.items = nil
	c.discountPercentage = 0
	c.discountAmount = decimal.Zero
}

func (c *Cart) SetDiscountPercentage(pct float64) error {
	if pct < 0 || pct > 100 {
		return ErrInvalidDiscountPercent
	}
	c.discountPercentage = pct
	c.discountAmount = decimal.Zero // mutually exclusive
	return nil
}

func (c *Cart) SetDiscountAmount(amount decimal.Decimal) error {
	if amount.LessThan(decimal.Zero) || amount.GreaterThan(c.Subtotal()) {
		return ErrDiscountExceedsTotal
	}
	c.discountAmount = amount
	c.discountPercentage = 0 // mutually exclusive
	return nil
}

func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (c *Cart) DiscountAmount() decimal.Decimal {
	if c.discountPercentage > 0 {
		return c.Subtotal().
			Mul(decimal.NewFromFloat(c.discountPercentage)).
			Div(decimal.NewFromInt(100)).
			Round(2)
	}
	// A fixed amount is capped at the current subtotal: lines removed or
	// shrunk after it was set must not push the total negative
	if subtotal := c.Subtotal(); c.discountAmount.GreaterThan(subtotal) {
		return subtotal
	}
	return c.discountAmount
}

func (c *Cart) Total() decimal.Decimal {
	return c.Subtotal().Sub(c.DiscountAmount())
}

// TotalProfit = Σ (line subtotal − purchase price × quantity).
func (c *Cart) TotalProfit() decimal.Decimal {
	profit := decimal.Zero
	for _, item := range c.items {
		cost := item.PurchasePrice.Mul(decimal.NewFromFloat(item.Quantity))
		profit = profit.Add(item.Subtotal().Sub(cost))
	}
	return profit.Round(2)
}
