package handlers

import (
	"net/http"
	"strconv"

	"go-pos-store/internal/database"
	"go-pos-store/internal/models"
	"go-pos-store/internal/pos"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CheckoutItem is one line the till sends us. A line without product_id
// is an ad-hoc item and must carry its own name and unit price.
type CheckoutItem struct {
	ProductID    *uint            `json:"product_id"`
	Name         string           `json:"name"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	Quantity     float64          `json:"quantity" binding:"required"`
	PreventMerge bool             `json:"prevent_merge"`
}

type CheckoutRequest struct {
	CustomerID          *uint            `json:"customer_id"`
	PaymentMethod       string           `json:"payment_method" binding:"required"`
	CreditAmount        decimal.Decimal  `json:"credit_amount"`
	OverrideCreditLimit bool             `json:"override_credit_limit"`
	DiscountPercentage  *float64         `json:"discount_percentage"`
	DiscountAmount      *decimal.Decimal `json:"discount_amount"`
	HeldCartID          string           `json:"held_cart_id"`
	Items               []CheckoutItem   `json:"items"`
}

// buildCart turns request lines into a validated cart. Catalog lines get
// their price and promotion discount from the product row.
func buildCart(items []CheckoutItem) (*pos.Cart, error) {
	cart := posManager.NewCart()

	for _, line := range items {
		var cartItem pos.CartItem

		if line.ProductID != nil {
			var product models.Product
			if err := database.DB.Where("id = ? AND is_active = ?", *line.ProductID, true).First(&product).Error; err != nil {
				return nil, pos.ErrProductNotFound
			}

			discount := 0.0
			if product.IsOnPromotion {
				discount = product.DiscountPercentage
			}

			cartItem = pos.CartItem{
				ProductID:          line.ProductID,
				Name:               product.Name,
				UnitPrice:          product.SellingPrice,
				PurchasePrice:      product.PurchasePrice,
				Quantity:           line.Quantity,
				DiscountPercentage: discount,
				Category:           product.Category,
			}
		} else {
			if line.Name == "" || line.UnitPrice == nil {
				return nil, pos.ErrProductNotFound
			}
			cartItem = pos.CartItem{
				Name:      line.Name,
				UnitPrice: *line.UnitPrice,
				Quantity:  line.Quantity,
			}
		}

		if err := cart.AddItem(cartItem, line.PreventMerge); err != nil {
			return nil, err
		}
	}

	return cart, nil
}

// --- POST: /api/checkout ---
func ProcessSale(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var cart *pos.Cart
	var err error
	if req.HeldCartID != "" {
		cart, err = posManager.Resume(req.HeldCartID)
	} else {
		cart, err = buildCart(req.Items)
	}
	if err != nil {
		abortWithError(c, err)
		return
	}

	if req.DiscountPercentage != nil {
		if err := cart.SetDiscountPercentage(*req.DiscountPercentage); err != nil {
			abortWithError(c, err)
			return
		}
	}
	if req.DiscountAmount != nil {
		if err := cart.SetDiscountAmount(*req.DiscountAmount); err != nil {
			abortWithError(c, err)
			return
		}
	}

	sale, err := posManager.CompleteSale(cart, pos.CheckoutOptions{
		CustomerID:    req.CustomerID,
		PaymentMethod: req.PaymentMethod,
		CreditAmount:  req.CreditAmount,
		Actor:         actorFromContext(c, req.OverrideCreditLimit),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sale successful!",
		"sale":    sale,
	})
}

// --- GET: /api/sales and /api/sales/:id ---
func GetSales(c *gin.Context) {
	limit := 50
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}

	var sales []models.Sale
	if err := database.DB.Preload("Items").Order("sale_date desc").Limit(limit).Find(&sales).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sales"})
		return
	}
	c.JSON(http.StatusOK, sales)
}

func GetSale(c *gin.Context) {
	id := c.Param("id")

	var sale models.Sale
	if err := database.DB.Preload("Items").First(&sale, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sale not found"})
		return
	}
	c.JSON(http.StatusOK, sale)
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

// --- POST: /api/sales/:id/cancel ---
func CancelSale(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Sale ID"})
		return
	}

	var req CancelRequest
	_ = c.ShouldBindJSON(&req)

	if err := posManager.CancelSale(uint(id), req.Reason, actorFromContext(c, false)); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Sale cancelled"})
}

type ReturnRequest struct {
	Reason string           `json:"reason"`
	Items  []pos.ReturnLine `json:"items" binding:"required"`
}

// --- POST: /api/sales/:id/returns ---
func ReturnSale(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Sale ID"})
		return
	}

	var req ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	userID := c.MustGet("userID").(uint)
	ret, err := posManager.ProcessReturn(uint(id), req.Items, userID, req.Reason)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ret)
}

type HoldRequest struct {
	Label string         `json:"label"`
	Items []CheckoutItem `json:"items" binding:"required"`
}

// --- POST: /api/pos/hold ---
// Parks a cart in memory so the cashier can serve the next customer.
func HoldCart(c *gin.Context) {
	var req HoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	cart, err := buildCart(req.Items)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if cart.IsEmpty() {
		abortWithError(c, pos.ErrEmptyCart)
		return
	}

	id := posManager.Hold(cart, req.Label)
	c.JSON(http.StatusOK, gin.H{"held_cart_id": id})
}

// --- GET: /api/pos/holds ---
func ListHeldCarts(c *gin.Context) {
	held := posManager.ListHeld()

	type summary struct {
		ID     string  `json:"id"`
		Label  string  `json:"label"`
		HeldAt string  `json:"held_at"`
		Total  float64 `json:"total"`
		Lines  int     `json:"lines"`
	}

	out := make([]summary, 0, len(held))
	for _, h := range held {
		total, _ := h.Cart.Total().Float64()
		out = append(out, summary{
			ID:     h.ID,
			Label:  h.Label,
			HeldAt: h.HeldAt.Format("2006-01-02 15:04:05"),
			Total:  total,
			Lines:  len(h.Cart.Items()),
		})
	}
	c.JSON(http.StatusOK, out)
}
