package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Inventory transaction types. Purchase and return add stock, sale removes
// it, adjustment carries a stock-check correction in either direction.
const (
	StockTxPurchase   = "purchase"
	StockTxSale       = "sale"
	StockTxAdjustment = "adjustment"
	StockTxReturn     = "return"
)

// InventoryTransaction is one immutable stock ledger entry. StockBefore and
// StockAfter snapshot the product's cached stock around the delta, so entries
// for a product chain: entry[n].StockAfter == entry[n+1].StockBefore.
type InventoryTransaction struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	TenantID     uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	ProductID    uuid.UUID       `json:"product_id" db:"product_id"`
	Quantity     decimal.Decimal `json:"quantity" db:"quantity"` // Signed delta in grams
	StockBefore  decimal.Decimal `json:"stock_before" db:"stock_before"`
	StockAfter   decimal.Decimal `json:"stock_after" db:"stock_after"`
	Type         string          `json:"type" db:"type"`
	OrderID      *uuid.UUID      `json:"order_id" db:"order_id"`
	StockCheckID *uuid.UUID      `json:"stock_check_id" db:"stock_check_id"`
	CreatedBy    uuid.UUID       `json:"created_by" db:"created_by"`
	Reference    *string         `json:"reference" db:"reference"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}
