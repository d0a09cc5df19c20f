package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User - the person operating the till
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50" json:"username"`
	PasswordHash string    `json:"-"` // Never return this in JSON
	Role         string    `json:"role"` // 'admin', 'manager', 'cashier'
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Product - the inventory. A product may point at a parent "pack" product
// (e.g. a cigarette pack) that can be opened into PackingQuantity units.
type Product struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	Barcode            string          `gorm:"uniqueIndex;size:64" json:"barcode"`
	Name               string          `gorm:"size:200" json:"name"`
	Category           string          `gorm:"size:100" json:"category"`
	PurchasePrice      decimal.Decimal `gorm:"type:decimal(12,2)" json:"purchase_price"`
	SellingPrice       decimal.Decimal `gorm:"type:decimal(12,2)" json:"selling_price"`
	StockQuantity      float64         `json:"stock_quantity"`
	MinStockLevel      float64         `json:"min_stock_level"`
	DiscountPercentage float64         `json:"discount_percentage"`
	IsOnPromotion      bool            `json:"is_on_promotion"`
	ParentProductID    *uint           `gorm:"index" json:"parent_product_id"`
	PackingQuantity    float64         `gorm:"default:20" json:"packing_quantity"` // units per pack
	IsActive           bool            `gorm:"default:true" json:"is_active"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`

	Parent *Product `gorm:"foreignKey:ParentProductID" json:"-"`
}

// Customer - a known buyer with a running credit balance
type Customer struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"size:200" json:"name"`
	Phone         string          `gorm:"size:50" json:"phone"`
	CurrentCredit decimal.Decimal `gorm:"type:decimal(12,2)" json:"current_credit"`
	CreditLimit   decimal.Decimal `gorm:"type:decimal(12,2)" json:"credit_limit"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Supplier - who we owe money to for received goods
type Supplier struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:200" json:"name"`
	Phone       string          `gorm:"size:50" json:"phone"`
	CurrentDebt decimal.Decimal `gorm:"type:decimal(12,2)" json:"current_debt"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Sale - the transaction header
type Sale struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	SaleNumber     string          `gorm:"uniqueIndex;size:40" json:"sale_number"`
	CustomerID     *uint           `gorm:"index" json:"customer_id"`
	CashierID      uint            `json:"cashier_id"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2)" json:"subtotal"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2)" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2)" json:"total_amount"`
	CreditAmount   decimal.Decimal `gorm:"type:decimal(12,2)" json:"credit_amount"`
	PaymentMethod  string          `gorm:"size:20" json:"payment_method"` // 'cash', 'card', 'credit', 'mixed'
	Status         string          `gorm:"size:20;index" json:"status"`  // 'completed', 'cancelled', 'returned'
	SaleDate       time.Time       `json:"sale_date"`

	Items []SaleItem `gorm:"foreignKey:SaleID" json:"items"`
}

// SaleItem - one line of a sale. ProductID is nil for ad-hoc items so we
// never hang a foreign key on something that isn't in the catalog.
// Prices are snapshots taken at sale time.
type SaleItem struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	SaleID             uint            `gorm:"index" json:"sale_id"`
	ProductID          *uint           `json:"product_id"`
	Name               string          `gorm:"size:200" json:"name"`
	Quantity           float64         `json:"quantity"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(12,2)" json:"unit_price"`
	PurchasePrice      decimal.Decimal `gorm:"type:decimal(12,2)" json:"purchase_price"`
	DiscountPercentage float64         `json:"discount_percentage"`
	Subtotal           decimal.Decimal `gorm:"type:decimal(12,2)" json:"subtotal"`
	ReturnedQuantity   float64         `json:"returned_quantity"`
}

// Return - a (possibly partial) reversal of a sale
type Return struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	SaleID       uint            `gorm:"index" json:"sale_id"`
	ProcessedBy  uint            `json:"processed_by"`
	Reason       string          `gorm:"size:255" json:"reason"`
	RefundAmount decimal.Decimal `gorm:"type:decimal(12,2)" json:"refund_amount"`
	CreatedAt    time.Time       `json:"created_at"`

	Items []ReturnItem `gorm:"foreignKey:ReturnID" json:"items"`
}

type ReturnItem struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ReturnID     uint            `gorm:"index" json:"return_id"`
	SaleItemID   uint            `json:"sale_item_id"`
	ProductID    *uint           `json:"product_id"`
	Quantity     float64         `json:"quantity"`
	RefundAmount decimal.Decimal `gorm:"type:decimal(12,2)" json:"refund_amount"`
}

// CreditTransaction - append-only ledger of customer credit changes.
// Amount is signed: positive grows the balance (credit sale), negative
// shrinks it (payment, return, cancellation).
type CreditTransaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CustomerID  uint            `gorm:"index" json:"customer_id"`
	Type        string          `gorm:"size:20" json:"type"` // 'sale', 'payment', 'return', 'cancel'
	Amount      decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount"`
	ReferenceID *uint           `json:"reference_id"` // sale or return id when applicable
	Note        string          `gorm:"size:255" json:"note"`
	CreatedAt   time.Time       `json:"created_at"`
}

// StockMovement - append-only record of every stock mutation.
// Delta is signed: positive = goods in, negative = goods out.
type StockMovement struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProductID     uint      `gorm:"index" json:"product_id"`
	Type          string    `gorm:"size:20" json:"type"` // 'sale', 'return', 'adjustment', 'pack_open', 'cancel', 'purchase'
	Delta         float64   `json:"delta"`
	PreviousStock float64   `json:"previous_stock"`
	NewStock      float64   `json:"new_stock"`
	Reason        string    `gorm:"size:255" json:"reason"`
	ReferenceID   *uint     `json:"reference_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// CashSession - lifecycle of one till drawer, from opening float to the
// counted close. Expected vs declared gives the variance.
type CashSession struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	UserID         uint             `gorm:"index" json:"user_id"`
	OpeningFloat   decimal.Decimal  `gorm:"type:decimal(12,2)" json:"opening_float"`
	ExpectedAmount *decimal.Decimal `gorm:"type:decimal(12,2)" json:"expected_amount"`
	DeclaredAmount *decimal.Decimal `gorm:"type:decimal(12,2)" json:"declared_amount"`
	Variance       *decimal.Decimal `gorm:"type:decimal(12,2)" json:"variance"`
	VarianceLevel  string           `gorm:"size:20" json:"variance_level"` // 'normal', 'warning', 'critical'
	Status         string           `gorm:"size:20;index" json:"status"`  // 'open', 'closed'
	OpenedAt       time.Time        `json:"opened_at"`
	ClosedAt       *time.Time       `json:"closed_at"`

	Movements []CashMovement `gorm:"foreignKey:SessionID" json:"movements"`
}

// CashMovement - immutable drawer event. Reversals add inverse entries,
// existing rows are never edited.
type CashMovement struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	SessionID   uint            `gorm:"index" json:"session_id"`
	Type        string          `gorm:"size:20" json:"type"` // 'sale', 'refund', 'payment_in', 'payment_out'
	Method      string          `gorm:"size:20" json:"method"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount"`
	Description string          `gorm:"size:255" json:"description"`
	ReferenceID *uint           `json:"reference_id"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AuditLog - who did what, for the manager's peace of mind
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	Action    string    `gorm:"size:50" json:"action"`
	Entity    string    `gorm:"size:50" json:"entity"`
	EntityID  uint      `json:"entity_id"`
	Details   string    `gorm:"size:500" json:"details"`
	CreatedAt time.Time `json:"created_at"`
}
