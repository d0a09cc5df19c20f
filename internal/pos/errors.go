package pos

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart              = errors.New("cart is empty")
	ErrProductNotFound        = errors.New("product not found")
	ErrCustomerRequired       = errors.New("credit sale requires a customer")
	ErrCreditLimitExceeded    = errors.New("credit limit exceeded")
	ErrInvalidPaymentMethod   = errors.New("invalid payment method")
	ErrInvalidCreditAmount    = errors.New("credit amount must be positive and not exceed the total")
	ErrSaleNotCancellable     = errors.New("only a completed sale without returns can be cancelled")
	ErrSaleNotReturnable      = errors.New("sale is not in a returnable state")
	ErrDiscountExceedsTotal   = errors.New("discount amount exceeds cart subtotal")
	ErrInvalidDiscountPercent = errors.New("discount percentage must be between 0 and 100")
	ErrInvalidQuantity        = errors.New("quantity must be positive")
	ErrLineNotFound           = errors.New("cart line not found")
	ErrHeldCartNotFound       = errors.New("held cart not found")
)

// InvalidReturnQuantityError - asked to take back more than is left to return.
type InvalidReturnQuantityError struct {
	ProductName string
	Requested   float64
	Remaining   float64
}

func (e *InvalidReturnQuantityError) Error() string {
	return fmt.Sprintf("invalid return quantity for %s: requested %.2f, remaining %.2f",
		e.ProductName, e.Requested, e.Remaining)
}
