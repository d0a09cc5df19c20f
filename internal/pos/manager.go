package pos

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go-pos-store/internal/cash"
	"go-pos-store/internal/credit"
	"go-pos-store/internal/models"
	"go-pos-store/internal/stock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sale statuses and payment methods.
const (
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusReturned  = "returned"

	PaymentCash   = "cash"
	PaymentCard   = "card"
	PaymentCredit = "credit"
	PaymentMixed  = "mixed"
)

// Manager turns carts into persisted sales and reverses them again.
// Every operation is one database transaction: it either fully commits
// (stock, credit, drawer, audit) or leaves nothing behind.
type Manager struct {
	db     *gorm.DB
	ledger *stock.Ledger
	policy *credit.Policy
	cash   *cash.Manager

	mu   sync.Mutex
	held map[string]*HeldCart
}

// HeldCart is a cart set aside for later. Lives only in memory, lost on
// restart.
type HeldCart struct {
	ID     string    `json:"id"`
	Label  string    `json:"label"`
	HeldAt time.Time `json:"held_at"`
	Cart   *Cart     `json:"-"`
}

func NewManager(db *gorm.DB, ledger *stock.Ledger, policy *credit.Policy, cashMgr *cash.Manager) *Manager {
	return &Manager{
		db:     db,
		ledger: ledger,
		policy: policy,
		cash:   cashMgr,
		held:   make(map[string]*HeldCart),
	}
}

// Availability is the pack-aware stock check carts are built with.
func (m *Manager) Availability() AvailabilityFunc {
	return func(productID uint) (float64, error) {
		return m.ledger.Available(m.db, productID)
	}
}

// NewCart builds a cart wired to this manager's stock view.
func (m *Manager) NewCart() *Cart {
	return NewCart(m.Availability())
}

// CheckoutOptions carries everything about the payment side of a sale.
type CheckoutOptions struct {
	CustomerID    *uint
	PaymentMethod string
	CreditAmount  decimal.Decimal // credit portion for mixed payment
	Actor         credit.Actor
}

func validMethod(method string) bool {
	switch method {
	case PaymentCash, PaymentCard, PaymentCredit, PaymentMixed:
		return true
	}
	return false
}

// CompleteSale persists the cart as a Sale with its items, decrements
// stock through the ledger (opening packs where needed), applies the
// credit portion to the customer, and drops the cash portion in the
// drawer. The cart is only reset after the transaction commits; any
// failure leaves both the cart and the database untouched.
func (m *Manager) CompleteSale(c *Cart, opts CheckoutOptions) (*models.Sale, error) {
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if !validMethod(opts.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}

	total := c.Total()

	creditPortion := decimal.Zero
	switch {
	case opts.PaymentMethod == PaymentCredit:
		creditPortion = total
	case opts.CreditAmount.GreaterThan(decimal.Zero):
		if opts.CreditAmount.GreaterThan(total) {
			return nil, ErrInvalidCreditAmount
		}
		creditPortion = opts.CreditAmount
	}
	if creditPortion.GreaterThan(decimal.Zero) && opts.CustomerID == nil {
		return nil, ErrCustomerRequired
	}

	tx := m.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	sale := models.Sale{
		SaleNumber:     fmt.Sprintf("SLE-%d", time.Now().UnixNano()),
		CustomerID:     opts.CustomerID,
		CashierID:      opts.Actor.UserID,
		Subtotal:       c.Subtotal(),
		DiscountAmount: c.DiscountAmount(),
		TotalAmount:    total,
		CreditAmount:   creditPortion,
		PaymentMethod:  opts.PaymentMethod,
		Status:         StatusCompleted,
		SaleDate:       time.Now(),
	}
	if err := tx.Create(&sale).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, line := range c.Items() {
		item := models.SaleItem{
			SaleID:             sale.ID,
			ProductID:          line.ProductID,
			Name:               line.Name,
			Quantity:           line.Quantity,
			UnitPrice:          line.UnitPrice,
			PurchasePrice:      line.PurchasePrice,
			DiscountPercentage: line.DiscountPercentage,
			Subtotal:           line.Subtotal(),
		}
		if err := tx.Create(&item).Error; err != nil {
			tx.Rollback()
			return nil, err
		}

		// Ad-hoc lines have nothing in the catalog to decrement
		if line.ProductID != nil {
			if _, err := m.ledger.Sell(tx, *line.ProductID, line.Quantity, &sale.ID); err != nil {
				tx.Rollback()
				return nil, err
			}
		}
	}

	if creditPortion.GreaterThan(decimal.Zero) {
		if err := m.applyCredit(tx, *opts.CustomerID, creditPortion, sale.ID, opts.Actor); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	cashPortion := total.Sub(creditPortion)
	if cashPortion.GreaterThan(decimal.Zero) &&
		(opts.PaymentMethod == PaymentCash || opts.PaymentMethod == PaymentMixed) {
		_, err := m.cash.RecordMovementTx(tx, cash.MovementSale, PaymentCash, cashPortion, sale.SaleNumber, &sale.ID)
		if err != nil && err != cash.ErrNoOpenSession {
			tx.Rollback()
			return nil, err
		}
	}

	m.writeAudit(tx, opts.Actor.UserID, "sale.complete", "sale", sale.ID,
		fmt.Sprintf("number=%s total=%s method=%s", sale.SaleNumber, total.StringFixed(2), opts.PaymentMethod))

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	c.Clear()

	if err := m.db.Preload("Items").First(&sale, sale.ID).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

// applyCredit charges the credit portion to the customer's balance after
// the soft-limit policy has its say.
func (m *Manager) applyCredit(tx *gorm.DB, customerID uint, amount decimal.Decimal, saleID uint, actor credit.Actor) error {
	var customer models.Customer
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&customer, customerID).Error; err != nil {
		return err
	}

	if !m.policy.Authorize(&customer, amount, actor) {
		return ErrCreditLimitExceeded
	}

	newCredit := customer.CurrentCredit.Add(amount).Round(2)
	if err := tx.Model(&customer).Update("current_credit", newCredit).Error; err != nil {
		return err
	}

	return tx.Create(&models.CreditTransaction{
		CustomerID:  customer.ID,
		Type:        "sale",
		Amount:      amount,
		ReferenceID: &saleID,
		Note:        "credit sale",
	}).Error
}

// CancelSale is the one-shot full reversal: only a completed sale with no
// returns against it qualifies. Stock goes back to the leaf products
// (pack opening is not re-sealed) and any credited amount is reversed.
func (m *Manager) CancelSale(saleID uint, reason string, actor credit.Actor) error {
	tx := m.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	var sale models.Sale
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Items").First(&sale, saleID).Error; err != nil {
		tx.Rollback()
		return err
	}
	if sale.Status != StatusCompleted {
		tx.Rollback()
		return ErrSaleNotCancellable
	}

	var returnCount int64
	if err := tx.Model(&models.Return{}).Where("sale_id = ?", sale.ID).Count(&returnCount).Error; err != nil {
		tx.Rollback()
		return err
	}
	if returnCount > 0 {
		tx.Rollback()
		return ErrSaleNotCancellable
	}

	for _, item := range sale.Items {
		if item.ProductID == nil {
			continue
		}
		if _, _, err := m.ledger.Increase(tx, *item.ProductID, item.Quantity, stock.MovementCancel, reason, &sale.ID); err != nil {
			tx.Rollback()
			return err
		}
	}

	if sale.CreditAmount.GreaterThan(decimal.Zero) && sale.CustomerID != nil {
		if err := m.reverseCredit(tx, *sale.CustomerID, sale.CreditAmount, sale.ID, "cancel", "sale cancelled"); err != nil {
			tx.Rollback()
			return err
		}
	}

	cashPortion := sale.TotalAmount.Sub(sale.CreditAmount)
	if cashPortion.GreaterThan(decimal.Zero) &&
		(sale.PaymentMethod == PaymentCash || sale.PaymentMethod == PaymentMixed) {
		_, err := m.cash.RecordMovementTx(tx, cash.MovementRefund, PaymentCash, cashPortion.Neg(), "cancel "+sale.SaleNumber, &sale.ID)
		if err != nil && err != cash.ErrNoOpenSession {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Model(&sale).Update("status", StatusCancelled).Error; err != nil {
		tx.Rollback()
		return err
	}

	m.writeAudit(tx, actor.UserID, "sale.cancel", "sale", sale.ID, reason)

	return tx.Commit().Error
}

// ReturnLine is one requested give-back.
type ReturnLine struct {
	ProductID uint    `json:"product_id" binding:"required"`
	Quantity  float64 `json:"quantity" binding:"required"`
}

// ProcessReturn takes back part (or all) of a sale. The remaining
// returnable quantity per product - sold minus already returned, summed
// over every line carrying it - is the source of truth, so several
// partial returns against one sale are fine. When the last unit comes
// back the sale flips to 'returned'.
func (m *Manager) ProcessReturn(saleID uint, lines []ReturnLine, processedBy uint, reason string) (*models.Return, error) {
	if len(lines) == 0 {
		return nil, ErrSaleNotReturnable
	}

	tx := m.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	var sale models.Sale
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Items").First(&sale, saleID).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if sale.Status == StatusCancelled {
		tx.Rollback()
		return nil, ErrSaleNotReturnable
	}

	ret := models.Return{
		SaleID:      sale.ID,
		ProcessedBy: processedBy,
		Reason:      reason,
	}
	if err := tx.Create(&ret).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	refundTotal := decimal.Zero
	for _, line := range lines {
		items := returnableItems(sale.Items, line.ProductID)
		if len(items) == 0 {
			tx.Rollback()
			return nil, ErrProductNotFound
		}

		remaining := 0.0
		for _, item := range items {
			remaining += item.Quantity - item.ReturnedQuantity
		}
		if remaining < line.Quantity {
			tx.Rollback()
			return nil, &InvalidReturnQuantityError{
				ProductName: items[0].Name,
				Requested:   line.Quantity,
				Remaining:   remaining,
			}
		}

		// The product may sit on several unmerged lines; take back from
		// the earliest lines first, each refunded at its own price
		left := line.Quantity
		for _, item := range items {
			take := math.Min(left, item.Quantity-item.ReturnedQuantity)
			if take <= 0 {
				continue
			}

			factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(item.DiscountPercentage).Div(decimal.NewFromInt(100)))
			refund := item.UnitPrice.Mul(factor).Mul(decimal.NewFromFloat(take)).Round(2)
			refundTotal = refundTotal.Add(refund)

			if err := tx.Create(&models.ReturnItem{
				ReturnID:     ret.ID,
				SaleItemID:   item.ID,
				ProductID:    item.ProductID,
				Quantity:     take,
				RefundAmount: refund,
			}).Error; err != nil {
				tx.Rollback()
				return nil, err
			}

			item.ReturnedQuantity += take
			if err := tx.Model(&models.SaleItem{}).Where("id = ?", item.ID).
				Update("returned_quantity", item.ReturnedQuantity).Error; err != nil {
				tx.Rollback()
				return nil, err
			}

			left -= take
			if left <= 0 {
				break
			}
		}

		if _, _, err := m.ledger.Increase(tx, line.ProductID, line.Quantity, stock.MovementReturn, reason, &ret.ID); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Model(&ret).Update("refund_amount", refundTotal).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if sale.CreditAmount.GreaterThan(decimal.Zero) && sale.CustomerID != nil {
		if err := m.reverseCredit(tx, *sale.CustomerID, refundTotal, ret.ID, "return", "sale returned"); err != nil {
			tx.Rollback()
			return nil, err
		}
	} else if sale.PaymentMethod == PaymentCash || sale.PaymentMethod == PaymentMixed {
		_, err := m.cash.RecordMovementTx(tx, cash.MovementRefund, PaymentCash, refundTotal.Neg(), "return "+sale.SaleNumber, &ret.ID)
		if err != nil && err != cash.ErrNoOpenSession {
			tx.Rollback()
			return nil, err
		}
	}

	if fullyReturned(sale.Items) {
		if err := tx.Model(&sale).Update("status", StatusReturned).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	m.writeAudit(tx, processedBy, "sale.return", "sale", sale.ID,
		fmt.Sprintf("refund=%s", refundTotal.StringFixed(2)))

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	ret.RefundAmount = refundTotal
	if err := m.db.Preload("Items").First(&ret, ret.ID).Error; err != nil {
		return nil, err
	}
	return &ret, nil
}

// returnableItems collects the sale lines carrying a product, in sale
// order.
func returnableItems(items []models.SaleItem, productID uint) []*models.SaleItem {
	var out []*models.SaleItem
	for i := range items {
		if items[i].ProductID != nil && *items[i].ProductID == productID {
			out = append(out, &items[i])
		}
	}
	return out
}

func fullyReturned(items []models.SaleItem) bool {
	for _, item := range items {
		if item.ReturnedQuantity < item.Quantity {
			return false
		}
	}
	return true
}

func (m *Manager) reverseCredit(tx *gorm.DB, customerID uint, amount decimal.Decimal, refID uint, txType, note string) error {
	var customer models.Customer
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&customer, customerID).Error; err != nil {
		return err
	}

	newCredit := customer.CurrentCredit.Sub(amount).Round(2)
	if err := tx.Model(&customer).Update("current_credit", newCredit).Error; err != nil {
		return err
	}

	return tx.Create(&models.CreditTransaction{
		CustomerID:  customer.ID,
		Type:        txType,
		Amount:      amount.Neg(),
		ReferenceID: &refID,
		Note:        note,
	}).Error
}

func (m *Manager) writeAudit(tx *gorm.DB, userID uint, action, entity string, entityID uint, details string) {
	// Audit is best effort inside the operation's transaction
	tx.Create(&models.AuditLog{
		UserID:   userID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Details:  details,
	})
}

// --- Held carts ---

// Hold parks a cart under a label ("customer in the blue coat") and
// returns the ticket id.
func (m *Manager) Hold(c *Cart, label string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	m.held[id] = &HeldCart{
		ID:     id,
		Label:  label,
		HeldAt: time.Now(),
		Cart:   c,
	}
	return id
}

// Resume takes a held cart back off the shelf.
func (m *Manager) Resume(id string) (*Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	held, ok := m.held[id]
	if !ok {
		return nil, ErrHeldCartNotFound
	}
	delete(m.held, id)
	return held.Cart, nil
}

// ListHeld returns the parked carts, oldest first.
func (m *Manager) ListHeld() []*HeldCart {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*HeldCart, 0, len(m.held))
	for _, h := range m.held {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HeldAt.Before(out[j].HeldAt) })
	return out
}
