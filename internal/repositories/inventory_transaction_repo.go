package repositories

import (
	"context"

	"cannaclub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InventoryTransactionRepository appends and reads stock ledger entries.
// Entries are immutable: there is no update or delete.
type InventoryTransactionRepository interface {
	Create(ctx context.Context, db Database, tx *models.InventoryTransaction) error
	GetByID(ctx context.Context, db Database, tenantID, id uuid.UUID) (*models.InventoryTransaction, error)
	ListByProduct(ctx context.Context, db Database, tenantID, productID uuid.UUID, limit, offset int) ([]*models.InventoryTransaction, error)
	ListByOrder(ctx context.Context, db Database, tenantID, orderID uuid.UUID) ([]*models.InventoryTransaction, error)
	ListByStockCheck(ctx context.Context, db Database, tenantID, stockCheckID uuid.UUID) ([]*models.InventoryTransaction, error)
}

type inventoryTransactionRepo struct{}

func NewInventoryTransactionRepo() InventoryTransactionRepository {
	return &inventoryTransactionRepo{}
}

const inventoryTxColumns = "id, tenant_id, product_id, quantity, stock_before, stock_after, type, order_id, stock_check_id, created_by, reference, created_at"

func (r *inventoryTransactionRepo) Create(ctx context.Context, db Database, tx *models.InventoryTransaction) error {
	query := `
		INSERT INTO inventory_transactions (id, tenant_id, product_id, quantity, stock_before, stock_after, type, order_id, stock_check_id, created_by, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
	`
	_, err := db.Exec(ctx, query, tx.ID, tx.TenantID, tx.ProductID, tx.Quantity, tx.StockBefore, tx.StockAfter, tx.Type, tx.OrderID, tx.StockCheckID, tx.CreatedBy, tx.Reference)
	return err
}

func (r *inventoryTransactionRepo) GetByID(ctx context.Context, db Database, tenantID, id uuid.UUID) (*models.InventoryTransaction, error) {
	query := `
		SELECT ` + inventoryTxColumns + `
		FROM inventory_transactions
		WHERE tenant_id = $1 AND id = $2
	`
	return scanInventoryTx(db.QueryRow(ctx, query, tenantID, id))
}

func (r *inventoryTransactionRepo) ListByProduct(ctx context.Context, db Database, tenantID, productID uuid.UUID, limit, offset int) ([]*models.InventoryTransaction, error) {
	query := `
		SELECT ` + inventoryTxColumns + `
		FROM inventory_transactions
		WHERE tenant_id = $1 AND product_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := db.Query(ctx, query, tenantID, productID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectInventoryTxs(rows)
}

func (r *inventoryTransactionRepo) ListByOrder(ctx context.Context, db Database, tenantID, orderID uuid.UUID) ([]*models.InventoryTransaction, error) {
	query := `
		SELECT ` + inventoryTxColumns + `
		FROM inventory_transactions
		WHERE tenant_id = $1 AND order_id = $2
		ORDER BY created_at ASC
	`
	rows, err := db.Query(ctx, query, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectInventoryTxs(rows)
}

func (r *inventoryTransactionRepo) ListByStockCheck(ctx context.Context, db Database, tenantID, stockCheckID uuid.UUID) ([]*models.InventoryTransaction, error) {
	query := `
		SELECT ` + inventoryTxColumns + `
		FROM inventory_transactions
		WHERE tenant_id = $1 AND stock_check_id = $2
		ORDER BY created_at ASC
	`
	rows, err := db.Query(ctx, query, tenantID, stockCheckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectInventoryTxs(rows)
}

func scanInventoryTx(row pgx.Row) (*models.InventoryTransaction, error) {
	t := &models.InventoryTransaction{}
	err := row.Scan(&t.ID, &t.TenantID, &t.ProductID, &t.Quantity, &t.StockBefore, &t.StockAfter, &t.Type, &t.OrderID, &t.StockCheckID, &t.CreatedBy, &t.Reference, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func collectInventoryTxs(rows pgx.Rows) ([]*models.InventoryTransaction, error) {
	var txs []*models.InventoryTransaction
	for rows.Next() {
		t := &models.InventoryTransaction{}
		if err := rows.Scan(&t.ID, &t.TenantID, &t.ProductID, &t.Quantity, &t.StockBefore, &t.StockAfter, &t.Type, &t.OrderID, &t.StockCheckID, &t.CreatedBy, &t.Reference, &t.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
