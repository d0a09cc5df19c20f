package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"go-pos-store/internal/cash"
	"go-pos-store/internal/database"
	"go-pos-store/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errPaymentExceedsBalance = errors.New("payment exceeds the customer's outstanding credit")

// --- GET: List active customers ---
func GetCustomers(c *gin.Context) {
	var customers []models.Customer

	query := database.DB.Where("is_active = ?", true)
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR phone LIKE ?", like, like)
	}

	if err := query.Order("name asc").Find(&customers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch customers"})
		return
	}

	c.JSON(http.StatusOK, customers)
}

// --- POST: Add a new customer ---
func AddCustomer(c *gin.Context) {
	var customer models.Customer
	if err := c.ShouldBindJSON(&customer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	customer.IsActive = true
	customer.CurrentCredit = decimal.Zero

	if err := database.DB.Create(&customer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create customer"})
		return
	}

	c.JSON(http.StatusCreated, customer)
}

// --- PUT: Update customer details ---
func UpdateCustomer(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Customer ID"})
		return
	}

	var customer models.Customer
	if err := database.DB.First(&customer, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}

	var updateData map[string]interface{}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	// The balance only moves through sales, returns and payments
	delete(updateData, "current_credit")
	delete(updateData, "id")

	if err := database.DB.Model(&customer).Updates(updateData).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update customer"})
		return
	}

	c.JSON(http.StatusOK, customer)
}

// --- DELETE: Soft-delete ---
func DeleteCustomer(c *gin.Context) {
	id := c.Param("id")

	result := database.DB.Model(&models.Customer{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete customer"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}

type CreditPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Note   string          `json:"note"`
}

// --- POST: Customer pays down their balance at the till ---
func RecordCreditPayment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Customer ID"})
		return
	}

	var req CreditPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount.LessThanOrEqual(decimal.Zero) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be a positive number"})
		return
	}

	var customer models.Customer
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&customer, id).Error; err != nil {
			return err
		}
		if req.Amount.GreaterThan(customer.CurrentCredit) {
			return errPaymentExceedsBalance
		}

		newCredit := customer.CurrentCredit.Sub(req.Amount).Round(2)
		if err := tx.Model(&customer).Update("current_credit", newCredit).Error; err != nil {
			return err
		}

		if err := tx.Create(&models.CreditTransaction{
			CustomerID: customer.ID,
			Type:       "payment",
			Amount:     req.Amount.Neg(),
			Note:       req.Note,
		}).Error; err != nil {
			return err
		}

		// Money in the drawer if a session is open
		_, err := cashManager.RecordMovementTx(tx, cash.MovementPaymentIn, "cash", req.Amount, "credit payment "+customer.Name, nil)
		if err != nil && !errors.Is(err, cash.ErrNoOpenSession) {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errPaymentExceedsBalance) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, customer)
}

// --- GET: The customer's credit ledger ---
func GetCreditHistory(c *gin.Context) {
	id := c.Param("id")

	var transactions []models.CreditTransaction
	err := database.DB.Where("customer_id = ?", id).Order("created_at desc").Find(&transactions).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch credit history"})
		return
	}

	c.JSON(http.StatusOK, transactions)
}
