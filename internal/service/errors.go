package service

import (
	"errors"
	"fmt"

	"github.com/cedromirror/talkcart-web-sub009/internal/domain"
)

var (
	ErrEmptyCart           = errors.New("cart is empty, nothing to checkout")
	ErrIncompletePayment   = errors.New("missing payment proof for a currency group")
	ErrDuplicatePayment    = errors.New("payment was already consumed by another order")
	ErrItemNotFound        = errors.New("item not found in cart")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrProductUnavailable  = errors.New("product is not available")
	IllegalTransitionError = errors.New("illegal transition of checkout status")
)

// PaymentInvalidError reports a verification mismatch: wrong status, wrong
// amount or wrong currency. It fails the whole checkout before any stock is
// touched.
type PaymentInvalidError struct {
	Provider domain.Provider
	Currency string
	Reason   string
}

func (e *PaymentInvalidError) Error() string {
	return fmt.Sprintf("payment not completed or invalid (%s/%s): %s", e.Provider, e.Currency, e.Reason)
}

// InsufficientStockError names the line item that could not be reserved.
type InsufficientStockError struct {
	ProductID string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s", e.ProductID)
}

// PartialFailureError marks the one genuinely dangerous failure mode: stock
// was already decremented when the commit failed. Compensating releases were
// attempted; the error carries what happened so it can be reconciled.
type PartialFailureError struct {
	Stage string
	Cause error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("checkout partially failed at %s: %v", e.Stage, e.Cause)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Cause
}
