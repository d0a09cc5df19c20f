package stock

import (
	"fmt"
	"log"
	"math"

	"go-pos-store/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Movement types recorded in the stock_movements table.
const (
	MovementSale       = "sale"
	MovementReturn     = "return"
	MovementAdjustment = "adjustment"
	MovementPackOpen   = "pack_open"
	MovementCancel     = "cancel"
	MovementPurchase   = "purchase"
)

// InsufficientStockError reports how much was actually available,
// including what a parent pack could cover.
type InsufficientStockError struct {
	ProductName string
	Requested   float64
	Available   float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %.2f, available %.2f",
		e.ProductName, e.Requested, e.Available)
}

// Ledger is the only writer of Product.StockQuantity. Every mutation,
// whatever triggered it, goes through Apply so the non-negative invariant
// and the low-stock alert are enforced exactly once.
type Ledger struct{}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Apply adds a signed delta to a product's stock inside the caller's
// transaction. It returns the updated product and whether the new level
// sits at or below the minimum stock level.
func (l *Ledger) Apply(tx *gorm.DB, productID uint, delta float64, movementType, reason string, refID *uint) (*models.Product, bool, error) {
	var product models.Product

	// Lock the row so two flows can't both read the same level
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, productID).Error; err != nil {
		return nil, false, err
	}

	newStock := product.StockQuantity + delta
	if newStock < 0 {
		return nil, false, &InsufficientStockError{
			ProductName: product.Name,
			Requested:   -delta,
			Available:   product.StockQuantity,
		}
	}

	movement := models.StockMovement{
		ProductID:     product.ID,
		Type:          movementType,
		Delta:         delta,
		PreviousStock: product.StockQuantity,
		NewStock:      newStock,
		Reason:        reason,
		ReferenceID:   refID,
	}
	if err := tx.Create(&movement).Error; err != nil {
		return nil, false, err
	}

	product.StockQuantity = newStock
	if err := tx.Model(&product).Update("stock_quantity", newStock).Error; err != nil {
		return nil, false, err
	}

	lowStock := newStock <= product.MinStockLevel
	if lowStock && delta < 0 {
		log.Printf("⚠️ Low stock: %s is down to %.2f (minimum %.2f)",
			product.Name, newStock, product.MinStockLevel)
	}

	return &product, lowStock, nil
}

// Increase and Decrease are the thin deltas everything else reaches for.
func (l *Ledger) Increase(tx *gorm.DB, productID uint, qty float64, movementType, reason string, refID *uint) (*models.Product, bool, error) {
	return l.Apply(tx, productID, qty, movementType, reason, refID)
}

func (l *Ledger) Decrease(tx *gorm.DB, productID uint, qty float64, movementType, reason string, refID *uint) (*models.Product, bool, error) {
	return l.Apply(tx, productID, -qty, movementType, reason, refID)
}

// Available reports how much of a product can be sold right now: its own
// stock plus whatever its parent pack could be opened into.
func (l *Ledger) Available(db *gorm.DB, productID uint) (float64, error) {
	var product models.Product
	if err := db.First(&product, productID).Error; err != nil {
		return 0, err
	}

	available := product.StockQuantity
	if product.ParentProductID != nil {
		var parent models.Product
		if err := db.First(&parent, *product.ParentProductID).Error; err == nil {
			available += parent.StockQuantity * packingQuantity(&product)
		}
	}
	return available, nil
}

// Sell decrements a product for a sale. When unit stock can't cover the
// quantity but sealed parent packs can, it opens just enough packs inside
// the same transaction (pack stock down, unit stock up) before the
// decrement, so the whole thing commits or rolls back as one.
func (l *Ledger) Sell(tx *gorm.DB, productID uint, qty float64, saleID *uint) (bool, error) {
	var product models.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, productID).Error; err != nil {
		return false, err
	}

	if product.StockQuantity < qty && product.ParentProductID != nil {
		var parent models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&parent, *product.ParentProductID).Error; err != nil {
			return false, err
		}

		perPack := packingQuantity(&product)
		packsNeeded := math.Ceil((qty - product.StockQuantity) / perPack)

		if parent.StockQuantity < packsNeeded {
			return false, &InsufficientStockError{
				ProductName: product.Name,
				Requested:   qty,
				Available:   product.StockQuantity + parent.StockQuantity*perPack,
			}
		}

		reason := fmt.Sprintf("opened %.0f pack(s) of %s", packsNeeded, parent.Name)
		if _, _, err := l.Apply(tx, parent.ID, -packsNeeded, MovementPackOpen, reason, saleID); err != nil {
			return false, err
		}
		if _, _, err := l.Apply(tx, product.ID, packsNeeded*perPack, MovementPackOpen, reason, saleID); err != nil {
			return false, err
		}
	}

	_, lowStock, err := l.Apply(tx, product.ID, -qty, MovementSale, "sale", saleID)
	return lowStock, err
}

func packingQuantity(p *models.Product) float64 {
	if p.PackingQuantity <= 0 {
		return 20
	}
	return p.PackingQuantity
}
