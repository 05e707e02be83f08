package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrStockCheckNotFound  = errors.New("stock check not found")
	ErrStockCheckCompleted = errors.New("stock check already completed")
	ErrStockCheckNotEmpty  = errors.New("stock check has items and cannot be deleted")
	ErrStockCheckItemExists = errors.New("product already counted in this stock check")
	ErrOrderNotFound       = errors.New("order not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrTenantNotFound      = errors.New("tenant not found")
	ErrWalletExists        = errors.New("member already has a wallet")
)

// DuplicateActiveSessionError rejects starting a second check-in while the
// same staff member already has one open today.
type DuplicateActiveSessionError struct {
	StaffID uuid.UUID
	Date    time.Time
}

func (e *DuplicateActiveSessionError) Error() string {
	return fmt.Sprintf("staff %s already has an open check-in on %s", e.StaffID, e.Date.Format("2006-01-02"))
}

// IncompleteStockCheckError rejects completion while items still lack a
// counted quantity.
type IncompleteStockCheckError struct {
	StockCheckID uuid.UUID
	Uncounted    int
}

func (e *IncompleteStockCheckError) Error() string {
	return fmt.Sprintf("stock check %s has %d uncounted items", e.StockCheckID, e.Uncounted)
}
