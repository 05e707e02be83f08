package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrConstraintViolation is the generic ledger invariant failure:
	// a delta with the wrong sign for its type, an exhausted order-number
	// retry loop, or a concurrent modification detected mid-apply.
	ErrConstraintViolation = errors.New("ledger constraint violation")

	// ErrProductNotFound and ErrWalletNotFound surface a subject row that
	// does not exist in the caller's tenant.
	ErrProductNotFound = errors.New("product not found")
	ErrWalletNotFound  = errors.New("wallet not found")
)

// ValidationError is malformed input rejected before any transaction work:
// empty line items, non-positive quantities or amounts, unknown entry types.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// InsufficientFundsError carries the shortfall so the caller can render it.
type InsufficientFundsError struct {
	WalletID  uuid.UUID
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: required %s, available %s", e.Required.StringFixed(2), e.Available.StringFixed(2))
}

// InsufficientStockError identifies the product as well as the shortfall,
// since an order can fail on any of its line items.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   decimal.Decimal
	Available   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %s, available %s", e.ProductName, e.Requested.StringFixed(3), e.Available.StringFixed(3))
}
