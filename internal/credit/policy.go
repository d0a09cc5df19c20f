package credit

import (
	"github.com/shopspring/decimal"

	"go-pos-store/internal/models"
)

// Decision is the tri-state result of a credit-limit check. The limit is
// a soft one: going over it is not forbidden, it just needs someone with
// the override permission to say so.
type Decision int

const (
	Allow Decision = iota
	OverrideRequired
	Deny
)

// Actor is whoever is driving the till for this operation.
type Actor struct {
	UserID   uint
	Role     string
	Override bool // the caller explicitly asked to bypass the limit
}

// CanOverride reports whether the actor's role carries the
// credit-limit-override permission.
func (a Actor) CanOverride() bool {
	return a.Role == "admin" || a.Role == "manager"
}

type Policy struct{}

func NewPolicy() *Policy {
	return &Policy{}
}

// Check validates charging `amount` to the customer's running balance.
// It never touches persistence; the caller decides what a decision means
// for its transaction.
func (p *Policy) Check(customer *models.Customer, amount decimal.Decimal) Decision {
	if customer == nil || !customer.IsActive {
		return Deny
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return Deny
	}
	if customer.CurrentCredit.Add(amount).LessThanOrEqual(customer.CreditLimit) {
		return Allow
	}
	return OverrideRequired
}

// Authorize folds the actor into the decision: an over-limit charge goes
// through only when the actor both may and did ask for the override.
func (p *Policy) Authorize(customer *models.Customer, amount decimal.Decimal, actor Actor) bool {
	switch p.Check(customer, amount) {
	case Allow:
		return true
	case OverrideRequired:
		return actor.Override && actor.CanOverride()
	default:
		return false
	}
}
