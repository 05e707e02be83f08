package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stock check types. A check_in count is informational; only completing a
// check_out reconciles system stock against the counted quantities.
const (
	StockCheckTypeCheckIn  = "check_in"
	StockCheckTypeCheckOut = "check_out"
)

// StockCheck is a physical inventory count session. It is open for counting
// from creation until CheckOutAt is set, which is terminal.
type StockCheck struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	TenantID         uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	Type             string          `json:"type" db:"type"`
	CreatedBy        uuid.UUID       `json:"created_by" db:"created_by"`
	ClosedBy         *uuid.UUID      `json:"closed_by" db:"closed_by"`
	CheckInAt        time.Time       `json:"check_in_at" db:"check_in_at"`
	CheckOutAt       *time.Time      `json:"check_out_at" db:"check_out_at"`
	StartNotes       *string         `json:"start_notes" db:"start_notes"`
	EndNotes         *string         `json:"end_notes" db:"end_notes"`
	TotalDiscrepancy decimal.Decimal `json:"total_discrepancy" db:"total_discrepancy"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// Completed reports whether the check has reached its terminal state.
func (s *StockCheck) Completed() bool {
	return s.CheckOutAt != nil
}

// StockCheckItem is one counted product within a check. At most one item per
// (stock check, product). Discrepancy = actual - expected, recomputed
// whenever the actual quantity is entered.
type StockCheckItem struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	TenantID         uuid.UUID        `json:"tenant_id" db:"tenant_id"`
	StockCheckID     uuid.UUID        `json:"stock_check_id" db:"stock_check_id"`
	ProductID        uuid.UUID        `json:"product_id" db:"product_id"`
	ExpectedQuantity decimal.Decimal  `json:"expected_quantity" db:"expected_quantity"`
	ActualQuantity   *decimal.Decimal `json:"actual_quantity" db:"actual_quantity"`
	Discrepancy      *decimal.Decimal `json:"discrepancy" db:"discrepancy"`
	Notes            *string          `json:"notes" db:"notes"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
}
