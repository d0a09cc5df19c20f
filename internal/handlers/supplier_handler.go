package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go-pos-store/internal/cash"
	"go-pos-store/internal/database"
	"go-pos-store/internal/models"
	"go-pos-store/internal/stock"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errPaymentExceedsDebt = errors.New("payment exceeds the supplier's outstanding debt")

// --- GET: List active suppliers ---
func GetSuppliers(c *gin.Context) {
	var suppliers []models.Supplier
	if err := database.DB.Where("is_active = ?", true).Order("name asc").Find(&suppliers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch suppliers"})
		return
	}
	c.JSON(http.StatusOK, suppliers)
}

// --- POST: Add a new supplier ---
func AddSupplier(c *gin.Context) {
	var supplier models.Supplier
	if err := c.ShouldBindJSON(&supplier); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	supplier.IsActive = true
	supplier.CurrentDebt = decimal.Zero

	if err := database.DB.Create(&supplier).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create supplier"})
		return
	}

	c.JSON(http.StatusCreated, supplier)
}

// --- PUT: Update supplier details ---
func UpdateSupplier(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Supplier ID"})
		return
	}

	var supplier models.Supplier
	if err := database.DB.First(&supplier, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Supplier not found"})
		return
	}

	var updateData map[string]interface{}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	delete(updateData, "current_debt")
	delete(updateData, "id")

	if err := database.DB.Model(&supplier).Updates(updateData).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update supplier"})
		return
	}

	c.JSON(http.StatusOK, supplier)
}

// --- DELETE: Soft-delete ---
func DeleteSupplier(c *gin.Context) {
	id := c.Param("id")

	result := database.DB.Model(&models.Supplier{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete supplier"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Supplier not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Supplier deleted successfully"})
}

type ReceiptLine struct {
	ProductID uint            `json:"product_id" binding:"required"`
	Quantity  float64         `json:"quantity" binding:"required"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

type GoodsReceiptRequest struct {
	Items []ReceiptLine `json:"items" binding:"required"`
	Note  string        `json:"note"`
}

// --- POST: Receive goods from a supplier ---
// Stock goes up through the ledger and the invoice total lands on the
// supplier's debt, all in one transaction.
func ReceiveGoods(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Supplier ID"})
		return
	}

	var req GoodsReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one item is required"})
		return
	}

	var supplier models.Supplier
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&supplier, id).Error; err != nil {
			return err
		}

		total := decimal.Zero
		for _, line := range req.Items {
			if line.Quantity <= 0 {
				return fmt.Errorf("quantity must be positive for product %d", line.ProductID)
			}
			reason := fmt.Sprintf("goods receipt from %s", supplier.Name)
			if _, _, err := ledger.Increase(tx, line.ProductID, line.Quantity, stock.MovementPurchase, reason, nil); err != nil {
				return err
			}
			total = total.Add(line.UnitCost.Mul(decimal.NewFromFloat(line.Quantity)))
		}

		newDebt := supplier.CurrentDebt.Add(total).Round(2)
		supplier.CurrentDebt = newDebt
		return tx.Model(&supplier).Update("current_debt", newDebt).Error
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, supplier)
}

type DebtPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// --- POST: Pay a supplier, reducing our debt and the drawer ---
func RecordDebtPayment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Supplier ID"})
		return
	}

	var req DebtPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount.LessThanOrEqual(decimal.Zero) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be a positive number"})
		return
	}

	var supplier models.Supplier
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&supplier, id).Error; err != nil {
			return err
		}
		if req.Amount.GreaterThan(supplier.CurrentDebt) {
			return errPaymentExceedsDebt
		}

		newDebt := supplier.CurrentDebt.Sub(req.Amount).Round(2)
		supplier.CurrentDebt = newDebt
		if err := tx.Model(&supplier).Update("current_debt", newDebt).Error; err != nil {
			return err
		}

		_, err := cashManager.RecordMovementTx(tx, cash.MovementPaymentOut, "cash", req.Amount.Neg(), "debt payment "+supplier.Name, nil)
		if err != nil && !errors.Is(err, cash.ErrNoOpenSession) {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errPaymentExceedsDebt) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, supplier)
}
