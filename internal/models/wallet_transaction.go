package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet transaction types. Deposits carry a positive amount; withdrawals and
// purchases carry a negative one.
const (
	WalletTxDeposit    = "deposit"
	WalletTxWithdrawal = "withdrawal"
	WalletTxPurchase   = "purchase"
)

// WalletTransaction is one immutable wallet ledger entry with the same
// before/after chaining as InventoryTransaction.
type WalletTransaction struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	TenantID      uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	WalletID      uuid.UUID       `json:"wallet_id" db:"wallet_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"` // Signed
	BalanceBefore decimal.Decimal `json:"balance_before" db:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after" db:"balance_after"`
	Type          string          `json:"type" db:"type"`
	OrderID       *uuid.UUID      `json:"order_id" db:"order_id"`
	CreatedBy     uuid.UUID       `json:"created_by" db:"created_by"`
	PaymentMethod *string         `json:"payment_method" db:"payment_method"`
	Reference     *string         `json:"reference" db:"reference"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
