package repositories

import (
	"context"
	"time"

	"cannaclub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type StockCheckRepository interface {
	Create(ctx context.Context, db Database, check *models.StockCheck) error
	GetByID(ctx context.Context, db Database, tenantID, id uuid.UUID) (*models.StockCheck, error)
	// GetByIDForUpdate locks the check row so completion is serialized.
	// Callers must pass a pgx.Tx.
	GetByIDForUpdate(ctx context.Context, db Database, tenantID, id uuid.UUID) (*models.StockCheck, error)
	HasOpenCheckInSince(ctx context.Context, db Database, tenantID, staffID uuid.UUID, since time.Time) (bool, error)
	// Complete sets the terminal state. The update is guarded by
	// check_out_at IS NULL; it reports false when the check was already
	// completed.
	Complete(ctx context.Context, db Database, tenantID, id, closedBy uuid.UUID, endNotes *string, totalDiscrepancy decimal.Decimal) (bool, error)
	Delete(ctx context.Context, db Database, tenantID, id uuid.UUID) error
	List(ctx context.Context, db Database, tenantID uuid.UUID, limit, offset int) ([]*models.StockCheck, error)

	AddItem(ctx context.Context, db Database, item *models.StockCheckItem) (bool, error)
	GetItemByID(ctx context.Context, db Database, tenantID, itemID uuid.UUID) (*models.StockCheckItem, error)
	UpdateItemCount(ctx context.Context, db Database, tenantID, itemID uuid.UUID, actual, discrepancy decimal.Decimal, notes *string) error
	ListItems(ctx context.Context, db Database, tenantID, stockCheckID uuid.UUID) ([]*models.StockCheckItem, error)
	CountItems(ctx context.Context, db Database, tenantID, stockCheckID uuid.UUID) (int, error)
	CountUncountedItems(ctx context.Context, db Database, tenantID, stockCheckID uuid.UUID) (int, error)
}

type stockCheckRepo struct{}

func NewStockCheckRepo() StockCheckRepository {
	return &stockCheckRepo{}
}

const stockCheckColumns = "id, tenant_id, type, created_by, closed_by, check_in_at, check_out_at, start_notes, end_notes, total_discrepancy, created_at, updated_at"

func (r *stockCheckRepo) Create(ctx context.Context, db Database, check *models.StockCheck) error {
	query := `
		INSERT INTO stock_checks (id, tenant_id, type, created_by, check_in_at, start_notes, total_discrepancy, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, NOW(), NOW())
	`
	_, err := db.Exec(ctx, query, check.ID, check.TenantID, check.Type, check.CreatedBy, check.CheckInAt, check.StartNotes)
	return err
}

func (r *stockCheckRepo) GetByID(ctx context.Context, db Database, tenantID, id uuid.UUID) (*models.StockCheck, error) {
	query := `
		SELECT ` + stockCheckColumns + `
		FROM stock_checks
		WHERE tenant_id = $1 AND id = $2
	`
	return scanStockCheck(db.QueryRow(ctx, query, tenantID, id))
}

func (r *stockCheckRepo) GetByIDForUpdate(ctx context.Context, db Database, tenantID, id uuid.UUID) (*models.StockCheck, error) {
	query := `
		SELECT ` + stockCheckColumns + `
		FROM stock_checks
		WHERE tenant_id = $1 AND id = $2
		FOR UPDATE
	`
	return scanStockCheck(db.QueryRow(ctx, query, tenantID, id))
}

func (r *stockCheckRepo) HasOpenCheckInSince(ctx context.Context, db Database, tenantID, staffID uuid.UUID, since time.Time) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM stock_checks
			WHERE tenant_id = $1 AND created_by = $2 AND type = $3
			  AND check_out_at IS NULL AND check_in_at >= $4
		)
	`
	err := db.QueryRow(ctx, query, tenantID, staffID, models.StockCheckTypeCheckIn, since).Scan(&exists)
	return exists, err
}

func (r *stockCheckRepo) Complete(ctx context.Context, db Database, tenantID, id, closedBy uuid.UUID, endNotes *string, totalDiscrepancy decimal.Decimal) (bool, error) {
	query := `
		UPDATE stock_checks
		SET check_out_at = NOW(), closed_by = $1, end_notes = COALESCE($2, end_notes), total_discrepancy = $3, updated_at = NOW()
		WHERE tenant_id = $4 AND id = $5 AND check_out_at IS NULL
	`
	tag, err := db.Exec(ctx, query, closedBy, endNotes, totalDiscrepancy, tenantID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *stockCheckRepo) Delete(ctx context.Context, db Database, tenantID, id uuid.UUID) error {
	query := `DELETE FROM stock_checks WHERE tenant_id = $1 AND id = $2`
	_, err := db.Exec(ctx, query, tenantID, id)
	return err
}

func (r *stockCheckRepo) List(ctx context.Context, db Database, tenantID uuid.UUID, limit, offset int) ([]*models.StockCheck, error) {
	query := `
		SELECT ` + stockCheckColumns + `
		FROM stock_checks
		WHERE tenant_id = $1
		ORDER BY check_in_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checks []*models.StockCheck
	for rows.Next() {
		c := &models.StockCheck{}
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Type, &c.CreatedBy, &c.ClosedBy, &c.CheckInAt, &c.CheckOutAt, &c.StartNotes, &c.EndNotes, &c.TotalDiscrepancy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		checks = append(checks, c)
	}
	return checks, rows.Err()
}

// AddItem inserts a counted item; the (stock_check_id, product_id) unique
// constraint turns duplicates into a no-op insert, reported as false.
func (r *stockCheckRepo) AddItem(ctx context.Context, db Database, item *models.StockCheckItem) (bool, error) {
	query := `
		INSERT INTO stock_check_items (id, tenant_id, stock_check_id, product_id, expected_quantity, actual_quantity, discrepancy, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (stock_check_id, product_id) DO NOTHING
	`
	tag, err := db.Exec(ctx, query, item.ID, item.TenantID, item.StockCheckID, item.ProductID, item.ExpectedQuantity, item.ActualQuantity, item.Discrepancy, item.Notes)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

const stockCheckItemColumns = "id, tenant_id, stock_check_id, product_id, expected_quantity, actual_quantity, discrepancy, notes, created_at, updated_at"

func (r *stockCheckRepo) GetItemByID(ctx context.Context, db Database, tenantID, itemID uuid.UUID) (*models.StockCheckItem, error) {
	query := `
		SELECT ` + stockCheckItemColumns + `
		FROM stock_check_items
		WHERE tenant_id = $1 AND id = $2
	`
	return scanStockCheckItem(db.QueryRow(ctx, query, tenantID, itemID))
}

func (r *stockCheckRepo) UpdateItemCount(ctx context.Context, db Database, tenantID, itemID uuid.UUID, actual, discrepancy decimal.Decimal, notes *string) error {
	query := `
		UPDATE stock_check_items
		SET actual_quantity = $1, discrepancy = $2, notes = COALESCE($3, notes), updated_at = NOW()
		WHERE tenant_id = $4 AND id = $5
	`
	_, err := db.Exec(ctx, query, actual, discrepancy, notes, tenantID, itemID)
	return err
}

func (r *stockCheckRepo) ListItems(ctx context.Context, db Database, tenantID, stockCheckID uuid.UUID) ([]*models.StockCheckItem, error) {
	query := `
		SELECT ` + stockCheckItemColumns + `
		FROM stock_check_items
		WHERE tenant_id = $1 AND stock_check_id = $2
		ORDER BY created_at ASC
	`
	rows, err := db.Query(ctx, query, tenantID, stockCheckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.StockCheckItem
	for rows.Next() {
		item := &models.StockCheckItem{}
		if err := rows.Scan(&item.ID, &item.TenantID, &item.StockCheckID, &item.ProductID, &item.ExpectedQuantity, &item.ActualQuantity, &item.Discrepancy, &item.Notes, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *stockCheckRepo) CountItems(ctx context.Context, db Database, tenantID, stockCheckID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM stock_check_items WHERE tenant_id = $1 AND stock_check_id = $2`
	err := db.QueryRow(ctx, query, tenantID, stockCheckID).Scan(&count)
	return count, err
}

func (r *stockCheckRepo) CountUncountedItems(ctx context.Context, db Database, tenantID, stockCheckID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM stock_check_items WHERE tenant_id = $1 AND stock_check_id = $2 AND actual_quantity IS NULL`
	err := db.QueryRow(ctx, query, tenantID, stockCheckID).Scan(&count)
	return count, err
}

func scanStockCheck(row pgx.Row) (*models.StockCheck, error) {
	c := &models.StockCheck{}
	err := row.Scan(&c.ID, &c.TenantID, &c.Type, &c.CreatedBy, &c.ClosedBy, &c.CheckInAt, &c.CheckOutAt, &c.StartNotes, &c.EndNotes, &c.TotalDiscrepancy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func scanStockCheckItem(row pgx.Row) (*models.StockCheckItem, error) {
	item := &models.StockCheckItem{}
	err := row.Scan(&item.ID, &item.TenantID, &item.StockCheckID, &item.ProductID, &item.ExpectedQuantity, &item.ActualQuantity, &item.Discrepancy, &item.Notes, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}
