package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable item with gram-precision stock. CurrentStock is a
// cached running total of all applied inventory transaction deltas; it is
// only ever written by the stock ledger, never assigned directly.
type Product struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	TenantID     uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	Name         string          `json:"name" db:"name"`
	Description  *string         `json:"description" db:"description"`
	UnitPrice    decimal.Decimal `json:"unit_price" db:"unit_price"`
	CurrentStock decimal.Decimal `json:"current_stock" db:"current_stock"`
	MinimumStock decimal.Decimal `json:"minimum_stock" db:"minimum_stock"`
	Active       bool            `json:"active" db:"active"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// ProductSearchFilter holds search and filter criteria for product queries
type ProductSearchFilter struct {
	Query     string           `json:"query,omitempty"`      // Name/description search
	MinPrice  *decimal.Decimal `json:"min_price,omitempty"`  // Minimum unit price
	MaxPrice  *decimal.Decimal `json:"max_price,omitempty"`  // Maximum unit price
	LowStock  bool             `json:"low_stock,omitempty"`  // Only products at or below minimum_stock
	Active    *bool            `json:"active,omitempty"`     // Active flag filter
	SortBy    string           `json:"sort_by,omitempty"`    // Sort field: name, created_at, current_stock, unit_price
	SortOrder string           `json:"sort_order,omitempty"` // Sort order: asc, desc
	Limit     int              `json:"limit,omitempty"`      // Page size (default: 50)
	Offset    int              `json:"offset,omitempty"`     // Page offset
}
