package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go-pos-store/internal/database"
	"go-pos-store/internal/models"
	"go-pos-store/internal/stock"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// --- GET: List active products, optionally filtered by a search term ---
func GetProducts(c *gin.Context) {
	var products []models.Product

	query := database.DB.Where("is_active = ?", true)
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR barcode LIKE ?", like, like)
	}

	if err := query.Order("name asc").Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, products)
}

// --- GET: Look a product up by barcode (the scanner path) ---
func ScanProduct(c *gin.Context) {
	barcode := c.Param("barcode")

	var product models.Product
	if err := database.DB.Where("barcode = ? AND is_active = ?", barcode, true).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, product)
}

// --- POST: Add a new product ---
// Initial stock goes in through the ledger so it shows up as a movement
// like everything else.
func AddProduct(c *gin.Context) {
	var newProduct models.Product
	if err := c.ShouldBindJSON(&newProduct); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if newProduct.Barcode == "" {
		newProduct.Barcode = fmt.Sprintf("PRD-%d", time.Now().UnixNano())
	}
	newProduct.IsActive = true

	initialStock := newProduct.StockQuantity
	newProduct.StockQuantity = 0

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&newProduct).Error; err != nil {
			return err
		}
		if initialStock > 0 {
			product, _, err := ledger.Increase(tx, newProduct.ID, initialStock, stock.MovementAdjustment, "initial stock", nil)
			if err != nil {
				return err
			}
			newProduct = *product
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, newProduct)
}

// --- PUT: Update product fields (partial update) ---
func UpdateProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Product ID"})
		return
	}

	var product models.Product
	if err := database.DB.First(&product, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	// We use a map so we only update what was sent
	var updateData map[string]interface{}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	// Stock is the ledger's job; refuse silent writes around it
	delete(updateData, "stock_quantity")
	delete(updateData, "id")

	if err := database.DB.Model(&product).Updates(updateData).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
}

// --- DELETE: Soft-delete so historical sales keep their reference ---
func DeleteProduct(c *gin.Context) {
	id := c.Param("id")

	result := database.DB.Model(&models.Product{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

type StockAdjustmentRequest struct {
	Delta  float64 `json:"delta" binding:"required"`
	Reason string  `json:"reason"`
}

// --- POST: Manual stock adjustment (count corrections, breakage) ---
func AdjustStock(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Product ID"})
		return
	}

	var req StockAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	var product *models.Product
	var lowStock bool
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		product, lowStock, txErr = ledger.Apply(tx, uint(id), req.Delta, stock.MovementAdjustment, req.Reason, nil)
		return txErr
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product, "low_stock": lowStock})
}

// --- GET: Products at or below their minimum stock level ---
func GetLowStock(c *gin.Context) {
	products, err := database.GetLowStockProducts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch low stock list"})
		return
	}
	c.JSON(http.StatusOK, products)
}
