package cash

import (
	"errors"
	"time"

	"go-pos-store/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MovementSale       = "sale"
	MovementRefund     = "refund"
	MovementPaymentIn  = "payment_in"
	MovementPaymentOut = "payment_out"
)

var (
	ErrSessionAlreadyOpen = errors.New("a cash session is already open")
	ErrNoOpenSession      = errors.New("no open cash session")
	ErrSessionClosed      = errors.New("cash session is already closed")
)

// Manager tracks the till drawer: one open session at a time, an
// append-only movement ledger, and a counted close with variance.
type Manager struct {
	db *gorm.DB
}

func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

// Open starts a new session with the counted opening float.
func (m *Manager) Open(userID uint, openingFloat decimal.Decimal) (*models.CashSession, error) {
	var existing models.CashSession
	err := m.db.Where("status = ?", "open").First(&existing).Error
	if err == nil {
		return nil, ErrSessionAlreadyOpen
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	session := models.CashSession{
		UserID:       userID,
		OpeningFloat: openingFloat,
		Status:       "open",
		OpenedAt:     time.Now(),
	}
	if err := m.db.Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// Current returns the open session, or ErrNoOpenSession.
func (m *Manager) Current() (*models.CashSession, error) {
	return m.currentTx(m.db)
}

func (m *Manager) currentTx(tx *gorm.DB) (*models.CashSession, error) {
	var session models.CashSession
	err := tx.Where("status = ?", "open").First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoOpenSession
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// RecordMovement appends a drawer event to the open session. Amount is
// signed: sales and payments in are positive, refunds and payouts negative.
func (m *Manager) RecordMovement(movementType, method string, amount decimal.Decimal, description string, refID *uint) (*models.CashMovement, error) {
	return m.RecordMovementTx(m.db, movementType, method, amount, description, refID)
}

// RecordMovementTx is the variant used from inside a checkout/return
// transaction so the drawer entry commits or rolls back with the sale.
func (m *Manager) RecordMovementTx(tx *gorm.DB, movementType, method string, amount decimal.Decimal, description string, refID *uint) (*models.CashMovement, error) {
	session, err := m.currentTx(tx)
	if err != nil {
		return nil, err
	}

	movement := models.CashMovement{
		SessionID:   session.ID,
		Type:        movementType,
		Method:      method,
		Amount:      amount,
		Description: description,
		ReferenceID: refID,
	}
	if err := tx.Create(&movement).Error; err != nil {
		return nil, err
	}
	return &movement, nil
}

// Close counts the drawer: expected = opening float + Σ movements, then
// variance = declared − expected, classified for the closing report.
func (m *Manager) Close(sessionID uint, declared decimal.Decimal) (*models.CashSession, error) {
	var session models.CashSession

	err := m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&session, sessionID).Error; err != nil {
			return err
		}
		if session.Status != "open" {
			return ErrSessionClosed
		}

		var movements []models.CashMovement
		if err := tx.Where("session_id = ?", session.ID).Find(&movements).Error; err != nil {
			return err
		}

		expected := session.OpeningFloat
		for _, mv := range movements {
			expected = expected.Add(mv.Amount)
		}
		expected = expected.Round(2)
		variance := declared.Sub(expected).Round(2)

		now := time.Now()
		session.ExpectedAmount = &expected
		session.DeclaredAmount = &declared
		session.Variance = &variance
		session.VarianceLevel = classifyVariance(expected, variance)
		session.Status = "closed"
		session.ClosedAt = &now

		return tx.Save(&session).Error
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// classifyVariance: within 1% of expected is normal, within 5% a warning,
// beyond that critical. A zero expected drawer tolerates no deviation.
func classifyVariance(expected, variance decimal.Decimal) string {
	abs := variance.Abs()
	if abs.IsZero() {
		return "normal"
	}
	if expected.IsZero() {
		return "critical"
	}
	pct := abs.Div(expected.Abs()).Mul(decimal.NewFromInt(100))
	switch {
	case pct.LessThanOrEqual(decimal.NewFromInt(1)):
		return "normal"
	case pct.LessThanOrEqual(decimal.NewFromInt(5)):
		return "warning"
	default:
		return "critical"
	}
}
