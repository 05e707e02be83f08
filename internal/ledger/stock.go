package ledger

import (
	"context"
	"errors"
	"fmt"

	"cannaclub/internal/models"
	"cannaclub/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockCause carries the audit metadata for one stock ledger apply.
type StockCause struct {
	OrderID      *uuid.UUID
	StockCheckID *uuid.UUID
	Reference    *string
}

// StockLedger is the only writer of products.current_stock. Apply locks the
// product row, validates the delta against the entry type, writes the new
// running total, and appends the immutable inventory transaction — all on the
// querier it is handed, so the caller owns the atomicity boundary.
type StockLedger struct {
	productRepo repositories.ProductRepository
	txRepo      repositories.InventoryTransactionRepository
	logger      *zap.Logger
}

func NewStockLedger(productRepo repositories.ProductRepository, txRepo repositories.InventoryTransactionRepository, logger *zap.Logger) *StockLedger {
	return &StockLedger{
		productRepo: productRepo,
		txRepo:      txRepo,
		logger:      logger,
	}
}

// floorOnSale makes the stock floor explicit per transaction type. Sales may
// never take stock below zero. Adjustments record a physical count, which is
// ground truth even when it corrects previously wrong negative stock, so no
// floor applies. Purchases and returns only add stock.
var floorOnSale = map[string]bool{
	models.StockTxSale:       true,
	models.StockTxPurchase:   false,
	models.StockTxAdjustment: false,
	models.StockTxReturn:     false,
}

func validateStockDelta(entryType string, delta decimal.Decimal) error {
	switch entryType {
	case models.StockTxPurchase, models.StockTxReturn:
		if !delta.IsPositive() {
			return &ValidationError{Field: "quantity", Message: fmt.Sprintf("%s requires a positive quantity", entryType)}
		}
	case models.StockTxSale:
		if !delta.IsNegative() {
			return &ValidationError{Field: "quantity", Message: "sale requires a negative quantity"}
		}
	case models.StockTxAdjustment:
		if delta.IsZero() {
			return &ValidationError{Field: "quantity", Message: "adjustment requires a non-zero quantity"}
		}
	default:
		return &ValidationError{Field: "type", Message: fmt.Sprintf("unknown inventory transaction type %q", entryType)}
	}
	return nil
}

// Apply adjusts a product's stock by a signed delta and appends the audit
// entry. The SELECT FOR UPDATE serializes concurrent appliers per product, so
// stock_before always equals the committed current_stock at the instant of
// the write and entries chain exactly.
func (l *StockLedger) Apply(ctx context.Context, db repositories.Database, tenantID, actorID, productID uuid.UUID, delta decimal.Decimal, entryType string, cause StockCause) (*models.InventoryTransaction, error) {
	if err := validateStockDelta(entryType, delta); err != nil {
		return nil, err
	}

	product, err := l.productRepo.GetByIDForUpdate(ctx, db, tenantID, productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("lock product %s: %w", productID, err)
	}

	stockBefore := product.CurrentStock
	stockAfter := stockBefore.Add(delta)

	if floorOnSale[entryType] && stockAfter.IsNegative() {
		return nil, &InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   delta.Neg(),
			Available:   stockBefore,
		}
	}

	if err := l.writeStock(ctx, db, tenantID, productID, stockAfter); err != nil {
		return nil, err
	}

	entry := &models.InventoryTransaction{
		ID:           uuid.New(),
		TenantID:     tenantID,
		ProductID:    productID,
		Quantity:     delta,
		StockBefore:  stockBefore,
		StockAfter:   stockAfter,
		Type:         entryType,
		OrderID:      cause.OrderID,
		StockCheckID: cause.StockCheckID,
		CreatedBy:    actorID,
		Reference:    cause.Reference,
	}
	if err := l.txRepo.Create(ctx, db, entry); err != nil {
		return nil, fmt.Errorf("append inventory transaction: %w", err)
	}

	l.logger.Debug("stock ledger apply",
		zap.String("tenant_id", tenantID.String()),
		zap.String("product_id", productID.String()),
		zap.String("type", entryType),
		zap.String("delta", delta.String()),
		zap.String("stock_after", stockAfter.String()))

	return entry, nil
}

// writeStock is the single current_stock UPDATE. The row is already locked by
// this transaction; a zero rows-affected result means the product vanished
// underneath us, which is reported as a constraint violation.
func (l *StockLedger) writeStock(ctx context.Context, db repositories.Database, tenantID, productID uuid.UUID, stock decimal.Decimal) error {
	query := `
		UPDATE products
		SET current_stock = $1, updated_at = NOW()
		WHERE tenant_id = $2 AND id = $3
	`
	tag, err := db.Exec(ctx, query, stock, tenantID, productID)
	if err != nil {
		return fmt.Errorf("update product stock: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("product %s: %w", productID, ErrConstraintViolation)
	}
	return nil
}
