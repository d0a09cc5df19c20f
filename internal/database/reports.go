package database

import (
	"time"

	"go-pos-store/internal/models"
)

// SalesReportResult summarizes completed sales in a date range.
type SalesReportResult struct {
	TotalRevenue float64 `json:"total_revenue"`
	TotalProfit  float64 `json:"total_profit"`
	TotalCount   int64   `json:"total_count"`
	CreditIssued float64 `json:"credit_issued"`
}

// GetSalesReport calculates sales within a specific date range.
// Cancelled sales are excluded; partial returns still count at full value
// here (refunds show up in the returns table).
func GetSalesReport(start, end time.Time) (*SalesReportResult, error) {
	var result SalesReportResult

	// COALESCE ensures we get 0 instead of NULL if no sales exist
	err := DB.Model(&models.Sale{}).
		Where("sale_date BETWEEN ? AND ? AND status != ?", start, end, "cancelled").
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&result.TotalRevenue).Error
	if err != nil {
		return nil, err
	}

	err = DB.Model(&models.Sale{}).
		Where("sale_date BETWEEN ? AND ? AND status != ?", start, end, "cancelled").
		Count(&result.TotalCount).Error
	if err != nil {
		return nil, err
	}

	err = DB.Table("sale_items").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.sale_date BETWEEN ? AND ? AND sales.status != ?", start, end, "cancelled").
		Select("COALESCE(SUM(sale_items.subtotal - sale_items.purchase_price * sale_items.quantity), 0)").
		Scan(&result.TotalProfit).Error
	if err != nil {
		return nil, err
	}

	err = DB.Model(&models.Sale{}).
		Where("sale_date BETWEEN ? AND ? AND status != ?", start, end, "cancelled").
		Select("COALESCE(SUM(credit_amount), 0)").
		Scan(&result.CreditIssued).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// TopSeller is one row of the best-sellers list.
type TopSeller struct {
	ProductName string  `json:"product_name"`
	Sold        float64 `json:"sold"`
	Revenue     float64 `json:"revenue"`
}

// GetTopSellers finds the best sellers by quantity in a date range.
func GetTopSellers(start, end time.Time, limit int) ([]TopSeller, error) {
	var rows []TopSeller
	err := DB.Table("sale_items").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.sale_date BETWEEN ? AND ? AND sales.status != ?", start, end, "cancelled").
		Select("sale_items.name as product_name, SUM(sale_items.quantity) as sold, SUM(sale_items.subtotal) as revenue").
		Group("sale_items.name").
		Order("sold desc").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// GetLowStockProducts lists active products at or below their minimum level.
func GetLowStockProducts() ([]models.Product, error) {
	var products []models.Product
	err := DB.Where("is_active = ? AND stock_quantity <= min_stock_level", true).
		Order("stock_quantity asc").
		Find(&products).Error
	return products, err
}

// OutstandingResult sums what customers owe us / what we owe suppliers.
type OutstandingResult struct {
	CustomerCredit float64 `json:"customer_credit"`
	SupplierDebt   float64 `json:"supplier_debt"`
}

func GetOutstanding() (*OutstandingResult, error) {
	var result OutstandingResult

	err := DB.Model(&models.Customer{}).
		Where("is_active = ?", true).
		Select("COALESCE(SUM(current_credit), 0)").
		Scan(&result.CustomerCredit).Error
	if err != nil {
		return nil, err
	}

	err = DB.Model(&models.Supplier{}).
		Where("is_active = ?", true).
		Select("COALESCE(SUM(current_debt), 0)").
		Scan(&result.SupplierDebt).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}
