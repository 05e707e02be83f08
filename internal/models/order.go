package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Order is a point-of-sale checkout. It is created together with its items,
// the wallet debit, and the stock decrements in one transaction, or not at
// all. OrderNumber is a random token unique within the tenant.
type Order struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	TenantID      uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	OrderNumber   string          `json:"order_number" db:"order_number"`
	MemberID      uuid.UUID       `json:"member_id" db:"member_id"`
	StaffID       uuid.UUID       `json:"staff_id" db:"staff_id"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
	Tax           decimal.Decimal `json:"tax" db:"tax"`
	Total         decimal.Decimal `json:"total" db:"total"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	Status        string          `json:"status" db:"status"`
	Notes         *string         `json:"notes" db:"notes"`
	CompletedAt   *time.Time      `json:"completed_at" db:"completed_at"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`

	Items []*OrderItem `json:"items,omitempty" db:"-"`
}
