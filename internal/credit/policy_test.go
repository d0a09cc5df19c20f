package credit

import (
	"testing"

	"go-pos-store/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func testCustomer(current, limit int64) *models.Customer {
	return &models.Customer{
		ID:            1,
		Name:          "Amina",
		CurrentCredit: decimal.NewFromInt(current),
		CreditLimit:   decimal.NewFromInt(limit),
		IsActive:      true,
	}
}

func TestCheckDecisions(t *testing.T) {
	policy := NewPolicy()

	// within the limit, exactly at the limit included
	assert.Equal(t, Allow, policy.Check(testCustomer(0, 100), decimal.NewFromInt(50)))
	assert.Equal(t, Allow, policy.Check(testCustomer(40, 100), decimal.NewFromInt(60)))

	// one over needs an override
	assert.Equal(t, OverrideRequired, policy.Check(testCustomer(40, 100), decimal.NewFromInt(61)))

	// no customer, inactive customer, or nonsense amount is a hard no
	assert.Equal(t, Deny, policy.Check(nil, decimal.NewFromInt(10)))
	inactive := testCustomer(0, 100)
	inactive.IsActive = false
	assert.Equal(t, Deny, policy.Check(inactive, decimal.NewFromInt(10)))
	assert.Equal(t, Deny, policy.Check(testCustomer(0, 100), decimal.Zero))
	assert.Equal(t, Deny, policy.Check(testCustomer(0, 100), decimal.NewFromInt(-5)))
}

func TestAuthorizeOverride(t *testing.T) {
	policy := NewPolicy()
	customer := testCustomer(90, 100)
	overLimit := decimal.NewFromInt(50)

	cashier := Actor{UserID: 1, Role: "cashier", Override: true}
	manager := Actor{UserID: 2, Role: "manager", Override: true}
	managerNoAsk := Actor{UserID: 2, Role: "manager", Override: false}
	admin := Actor{UserID: 3, Role: "admin", Override: true}

	// a cashier cannot override, even explicitly
	assert.False(t, policy.Authorize(customer, overLimit, cashier))

	// managers and admins can, but only when they asked to
	assert.True(t, policy.Authorize(customer, overLimit, manager))
	assert.True(t, policy.Authorize(customer, overLimit, admin))
	assert.False(t, policy.Authorize(customer, overLimit, managerNoAsk))

	// within the limit nobody needs the permission
	assert.True(t, policy.Authorize(customer, decimal.NewFromInt(10), Actor{Role: "cashier"}))
}
