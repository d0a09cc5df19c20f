package stock

import (
	"errors"
	"fmt"
	"testing"

	"go-pos-store/internal/database"
	"go-pos-store/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(dsn)
	require.NoError(t, err)
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, stock, minStock float64) *models.Product {
	t.Helper()
	p := &models.Product{
		Barcode:       uuid.NewString(),
		Name:          name,
		SellingPrice:  decimal.NewFromInt(100),
		PurchasePrice: decimal.NewFromInt(60),
		StockQuantity: stock,
		MinStockLevel: minStock,
		IsActive:      true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestApplyIncreaseAndDecrease(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger()
	p := seedProduct(t, db, "Cola", 10, 2)

	_, _, err := ledger.Increase(db, p.ID, 5, MovementPurchase, "delivery", nil)
	require.NoError(t, err)

	updated, lowStock, err := ledger.Decrease(db, p.ID, 3, MovementSale, "sale", nil)
	require.NoError(t, err)
	assert.False(t, lowStock)
	assert.Equal(t, 12.0, updated.StockQuantity)

	var movements []models.StockMovement
	require.NoError(t, db.Where("product_id = ?", p.ID).Order("id asc").Find(&movements).Error)
	require.Len(t, movements, 2)
	assert.Equal(t, 5.0, movements[0].Delta)
	assert.Equal(t, 10.0, movements[0].PreviousStock)
	assert.Equal(t, 15.0, movements[0].NewStock)
	assert.Equal(t, -3.0, movements[1].Delta)
	assert.Equal(t, MovementSale, movements[1].Type)
}

func TestDecreaseBelowZeroFailsAndLeavesStockUnchanged(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger()
	p := seedProduct(t, db, "Cola", 4, 0)

	_, _, err := ledger.Decrease(db, p.ID, 5, MovementSale, "sale", nil)

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 4.0, insufficient.Available)
	assert.Equal(t, 5.0, insufficient.Requested)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, p.ID).Error)
	assert.Equal(t, 4.0, reloaded.StockQuantity)

	var count int64
	require.NoError(t, db.Model(&models.StockMovement{}).Where("product_id = ?", p.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestLowStockSignalOnDecrease(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger()
	p := seedProduct(t, db, "Cola", 5, 2)

	// 5 - 3 = 2, exactly at the minimum level
	_, lowStock, err := ledger.Decrease(db, p.ID, 3, MovementSale, "sale", nil)
	require.NoError(t, err)
	assert.True(t, lowStock)
}

func TestAvailableIncludesParentPackStock(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger()

	pack := seedProduct(t, db, "Marlboro", 3, 0)
	unit := seedProduct(t, db, "Marlboro (Unité)", 5, 0)
	unit.ParentProductID = &pack.ID
	unit.PackingQuantity = 20
	require.NoError(t, db.Save(unit).Error)

	available, err := ledger.Available(db, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, 65.0, available) // 5 units + 3 packs of 20

	// The pack itself reports only its own stock
	available, err = ledger.Available(db, pack.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, available)
}

func TestSellOpensPacksWhenUnitStockIsShort(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger()

	pack := seedProduct(t, db, "Marlboro", 3, 0)
	unit := seedProduct(t, db, "Marlboro (Unité)", 5, 0)
	unit.ParentProductID = &pack.ID
	unit.PackingQuantity = 20
	require.NoError(t, db.Save(unit).Error)

	// Selling 30 units needs 2 packs opened: 5 + 40 - 30 = 15 left
	_, err := ledger.Sell(db, unit.ID, 30, nil)
	require.NoError(t, err)

	var reloadedUnit, reloadedPack models.Product
	require.NoError(t, db.First(&reloadedUnit, unit.ID).Error)
	require.NoError(t, db.First(&reloadedPack, pack.ID).Error)
	assert.Equal(t, 15.0, reloadedUnit.StockQuantity)
	assert.Equal(t, 1.0, reloadedPack.StockQuantity)

	var packOpens int64
	require.NoError(t, db.Model(&models.StockMovement{}).Where("type = ?", MovementPackOpen).Count(&packOpens).Error)
	assert.Equal(t, int64(2), packOpens) // one movement per side
}

func TestSellFailsWhenPacksCannotCover(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger()

	pack := seedProduct(t, db, "Marlboro", 1, 0)
	unit := seedProduct(t, db, "Marlboro (Unité)", 5, 0)
	unit.ParentProductID = &pack.ID
	unit.PackingQuantity = 20
	require.NoError(t, db.Save(unit).Error)

	_, err := ledger.Sell(db, unit.ID, 30, nil)

	var insufficient *InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 25.0, insufficient.Available) // 5 + 1×20 combined

	// Nothing moved
	var reloadedUnit, reloadedPack models.Product
	require.NoError(t, db.First(&reloadedUnit, unit.ID).Error)
	require.NoError(t, db.First(&reloadedPack, pack.ID).Error)
	assert.Equal(t, 5.0, reloadedUnit.StockQuantity)
	assert.Equal(t, 1.0, reloadedPack.StockQuantity)
}

func TestSellWithoutParentFailsPlain(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger()
	p := seedProduct(t, db, "Cola", 2, 0)

	_, err := ledger.Sell(db, p.ID, 3, nil)

	var insufficient *InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 2.0, insufficient.Available)
}
