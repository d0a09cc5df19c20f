package handlers

import (
	"net/http"
	"strconv"

	"go-pos-store/internal/cash"
	"go-pos-store/internal/database"
	"go-pos-store/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type OpenSessionRequest struct {
	OpeningFloat decimal.Decimal `json:"opening_float"`
}

// --- POST: /api/cash/open ---
func OpenCashSession(c *gin.Context) {
	var req OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OpeningFloat.LessThan(decimal.Zero) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Opening float must be zero or more"})
		return
	}

	userID := c.MustGet("userID").(uint)
	session, err := cashManager.Open(userID, req.OpeningFloat)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// --- GET: /api/cash/current ---
func GetCurrentCashSession(c *gin.Context) {
	session, err := cashManager.Current()
	if err != nil {
		abortWithError(c, err)
		return
	}

	var movements []models.CashMovement
	if err := database.DB.Where("session_id = ?", session.ID).Order("created_at asc").Find(&movements).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch movements"})
		return
	}
	session.Movements = movements

	c.JSON(http.StatusOK, session)
}

type CloseSessionRequest struct {
	DeclaredAmount decimal.Decimal `json:"declared_amount"`
}

// --- POST: /api/cash/:id/close ---
func CloseCashSession(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Session ID"})
		return
	}

	var req CloseSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	session, err := cashManager.Close(uint(id), req.DeclaredAmount)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

type CashMovementRequest struct {
	Type        string          `json:"type" binding:"required"` // 'payment_in' or 'payment_out'
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
}

// --- POST: /api/cash/movements ---
// Manual drawer entries: petty cash in, an expense out.
func AddCashMovement(c *gin.Context) {
	var req CashMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount.LessThanOrEqual(decimal.Zero) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be a positive number"})
		return
	}

	amount := req.Amount
	switch req.Type {
	case cash.MovementPaymentIn:
	case cash.MovementPaymentOut:
		amount = amount.Neg()
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Type must be payment_in or payment_out"})
		return
	}

	movement, err := cashManager.RecordMovement(req.Type, "cash", amount, req.Description, nil)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, movement)
}
