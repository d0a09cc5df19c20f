package handlers

import (
	"errors"
	"net/http"

	"go-pos-store/internal/cash"
	"go-pos-store/internal/credit"
	"go-pos-store/internal/pos"
	"go-pos-store/internal/stock"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	posManager  *pos.Manager
	cashManager *cash.Manager
	ledger      *stock.Ledger
)

// Init wires the managers built in main into the handler package.
func Init(p *pos.Manager, cm *cash.Manager, l *stock.Ledger) {
	posManager = p
	cashManager = cm
	ledger = l
}

// actorFromContext reads the identity the auth middleware stored.
func actorFromContext(c *gin.Context, override bool) credit.Actor {
	return credit.Actor{
		UserID:   c.MustGet("userID").(uint),
		Role:     c.MustGet("role").(string),
		Override: override,
	}
}

// abortWithError maps domain errors onto HTTP responses so the frontend
// can react to the status code instead of matching message substrings.
func abortWithError(c *gin.Context, err error) {
	var insufficient *stock.InsufficientStockError
	if errors.As(err, &insufficient) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     insufficient.Error(),
			"available": insufficient.Available,
		})
		return
	}

	var badReturn *pos.InvalidReturnQuantityError
	if errors.As(err, &badReturn) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     badReturn.Error(),
			"remaining": badReturn.Remaining,
		})
		return
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, pos.ErrProductNotFound),
		errors.Is(err, pos.ErrHeldCartNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, pos.ErrCreditLimitExceeded):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, cash.ErrSessionAlreadyOpen),
		errors.Is(err, cash.ErrSessionClosed),
		errors.Is(err, pos.ErrSaleNotCancellable),
		errors.Is(err, pos.ErrSaleNotReturnable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, pos.ErrEmptyCart),
		errors.Is(err, pos.ErrCustomerRequired),
		errors.Is(err, pos.ErrInvalidPaymentMethod),
		errors.Is(err, pos.ErrInvalidCreditAmount),
		errors.Is(err, pos.ErrDiscountExceedsTotal),
		errors.Is(err, pos.ErrInvalidDiscountPercent),
		errors.Is(err, pos.ErrInvalidQuantity),
		errors.Is(err, pos.ErrLineNotFound),
		errors.Is(err, cash.ErrNoOpenSession):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
