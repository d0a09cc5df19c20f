package handlers

import (
	"net/http"
	"time"

	"go-pos-store/internal/database"
	"go-pos-store/internal/models"

	"github.com/gin-gonic/gin"
)

// ReportData is the analytics payload for the dashboard
type ReportData struct {
	TotalRevenue float64              `json:"total_revenue"`
	TotalProfit  float64              `json:"total_profit"`
	TotalOrders  int64                `json:"total_orders"`
	CreditIssued float64              `json:"credit_issued"`
	TopSelling   []database.TopSeller `json:"top_selling"`
	RecentSales  []models.Sale        `json:"recent_sales"`
}

// parseDateRange reads ?start=YYYY-MM-DD&end=YYYY-MM-DD, defaulting to today.
func parseDateRange(c *gin.Context) (time.Time, time.Time) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)

	if s := c.Query("start"); s != "" {
		if t, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
			start = t
		}
	}
	if e := c.Query("end"); e != "" {
		if t, err := time.ParseInLocation("2006-01-02", e, now.Location()); err == nil {
			end = t.AddDate(0, 0, 1) // inclusive end date
		}
	}
	return start, end
}

// --- GET: /api/reports ---
func GetSalesReport(c *gin.Context) {
	start, end := parseDateRange(c)

	summary, err := database.GetSalesReport(start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate report"})
		return
	}

	top, err := database.GetTopSellers(start, end, 5)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch top selling items"})
		return
	}

	var recent []models.Sale
	err = database.DB.Order("sale_date desc").Limit(10).Find(&recent).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recent sales"})
		return
	}

	c.JSON(http.StatusOK, ReportData{
		TotalRevenue: summary.TotalRevenue,
		TotalProfit:  summary.TotalProfit,
		TotalOrders:  summary.TotalCount,
		CreditIssued: summary.CreditIssued,
		TopSelling:   top,
		RecentSales:  recent,
	})
}

// ValuationItem represents a single row in the valuation table
type ValuationItem struct {
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	CostPrice float64 `json:"cost_price"`
	TotalCost float64 `json:"total_cost"`
}

// CategoryGroup groups valuation rows by category
type CategoryGroup struct {
	CategoryName string          `json:"category_name"`
	Items        []ValuationItem `json:"items"`
	Subtotal     float64         `json:"subtotal"`
}

type ValuationResponse struct {
	Categories []CategoryGroup `json:"categories"`
	GrandTotal float64         `json:"grand_total"`
}

// --- GET: /api/reports/valuation ---
// GetStockValuation calculates the total monetary value of all physical inventory
func GetStockValuation(c *gin.Context) {
	var products []models.Product
	if err := database.DB.Where("is_active = ?", true).Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch inventory"})
		return
	}

	var grandTotal float64
	groupedMap := make(map[string]*CategoryGroup)

	for _, p := range products {
		catName := p.Category
		if catName == "" {
			catName = "Uncategorized"
		}

		if _, exists := groupedMap[catName]; !exists {
			groupedMap[catName] = &CategoryGroup{
				CategoryName: catName,
				Items:        []ValuationItem{},
			}
		}

		cost, _ := p.PurchasePrice.Float64()
		itemTotal := p.StockQuantity * cost

		groupedMap[catName].Items = append(groupedMap[catName].Items, ValuationItem{
			Name:      p.Name,
			Quantity:  p.StockQuantity,
			CostPrice: cost,
			TotalCost: itemTotal,
		})
		groupedMap[catName].Subtotal += itemTotal
		grandTotal += itemTotal
	}

	var response ValuationResponse
	response.GrandTotal = grandTotal
	for _, group := range groupedMap {
		response.Categories = append(response.Categories, *group)
	}

	c.JSON(http.StatusOK, response)
}

// --- GET: /api/reports/outstanding ---
// What customers owe us and what we owe suppliers.
func GetOutstanding(c *gin.Context) {
	result, err := database.GetOutstanding()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate outstanding balances"})
		return
	}
	c.JSON(http.StatusOK, result)
}
