package repositories

import (
	"context"
	"fmt"
	"strings"

	"cannaclub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ProductRepository interface {
	Create(ctx context.Context, db Database, product *models.Product) error
	GetByID(ctx context.Context, db Database, tenantID, id uuid.UUID) (*models.Product, error)
	// GetByIDForUpdate locks the product row for the duration of the
	// surrounding transaction. Callers must pass a pgx.Tx.
	GetByIDForUpdate(ctx context.Context, db Database, tenantID, id uuid.UUID) (*models.Product, error)
	Update(ctx context.Context, db Database, product *models.Product) error
	Deactivate(ctx context.Context, db Database, tenantID, id uuid.UUID) error
	List(ctx context.Context, db Database, tenantID uuid.UUID, limit, offset int) ([]*models.Product, error)
	ListLowStock(ctx context.Context, db Database, tenantID uuid.UUID) ([]*models.Product, error)
	Search(ctx context.Context, db Database, tenantID uuid.UUID, filter *models.ProductSearchFilter) ([]*models.Product, error)
}

type productRepo struct{}

func NewProductRepo() ProductRepository {
	return &productRepo{}
}

const productColumns = "id, tenant_id, name, description, unit_price, current_stock, minimum_stock, active, created_at, updated_at"

func scanProduct(row pgx.Row) (*models.Product, error) {
	p := &models.Product{}
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.Description, &p.UnitPrice, &p.CurrentStock, &p.MinimumStock, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productRepo) Create(ctx context.Context, db Database, product *models.Product) error {
	query := `
		INSERT INTO products (id, tenant_id, name, description, unit_price, current_stock, minimum_stock, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := db.Exec(ctx, query, product.ID, product.TenantID, product.Name, product.Description, product.UnitPrice, product.CurrentStock, product.MinimumStock, product.Active)
	return err
}

func (r *productRepo) GetByID(ctx context.Context, db Database, tenantID, id uuid.UUID) (*models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE tenant_id = $1 AND id = $2
	`
	return scanProduct(db.QueryRow(ctx, query, tenantID, id))
}

func (r *productRepo) GetByIDForUpdate(ctx context.Context, db Database, tenantID, id uuid.UUID) (*models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE tenant_id = $1 AND id = $2
		FOR UPDATE
	`
	return scanProduct(db.QueryRow(ctx, query, tenantID, id))
}

// Update writes every product field except current_stock, which belongs to
// the stock ledger alone.
func (r *productRepo) Update(ctx context.Context, db Database, product *models.Product) error {
	query := `
		UPDATE products
		SET name = $1, description = $2, unit_price = $3, minimum_stock = $4, active = $5, updated_at = NOW()
		WHERE tenant_id = $6 AND id = $7
	`
	_, err := db.Exec(ctx, query, product.Name, product.Description, product.UnitPrice, product.MinimumStock, product.Active, product.TenantID, product.ID)
	return err
}

func (r *productRepo) Deactivate(ctx context.Context, db Database, tenantID, id uuid.UUID) error {
	query := `UPDATE products SET active = false, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`
	_, err := db.Exec(ctx, query, tenantID, id)
	return err
}

func (r *productRepo) List(ctx context.Context, db Database, tenantID uuid.UUID, limit, offset int) ([]*models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE tenant_id = $1
		ORDER BY name ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectProducts(rows)
}

func (r *productRepo) ListLowStock(ctx context.Context, db Database, tenantID uuid.UUID) ([]*models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE tenant_id = $1 AND active = true AND current_stock <= minimum_stock
		ORDER BY current_stock ASC
	`
	rows, err := db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectProducts(rows)
}

func (r *productRepo) Search(ctx context.Context, db Database, tenantID uuid.UUID, filter *models.ProductSearchFilter) ([]*models.Product, error) {
	if filter.Limit == 0 {
		filter.Limit = 50
	}

	queryBase := `
		SELECT ` + productColumns + `
		FROM products
		WHERE tenant_id = $1
	`
	args := []any{tenantID}
	n := 1

	if filter.Query != "" {
		n++
		queryBase += fmt.Sprintf(` AND (name ILIKE $%d OR description ILIKE $%d)`, n, n)
		args = append(args, "%"+filter.Query+"%")
	}
	if filter.MinPrice != nil {
		n++
		queryBase += fmt.Sprintf(` AND unit_price >= $%d`, n)
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		n++
		queryBase += fmt.Sprintf(` AND unit_price <= $%d`, n)
		args = append(args, *filter.MaxPrice)
	}
	if filter.LowStock {
		queryBase += ` AND current_stock <= minimum_stock`
	}
	if filter.Active != nil {
		n++
		queryBase += fmt.Sprintf(` AND active = $%d`, n)
		args = append(args, *filter.Active)
	}

	sortField := "name"
	switch filter.SortBy {
	case "created_at", "current_stock", "unit_price", "name":
		sortField = filter.SortBy
	}
	sortOrder := "ASC"
	if strings.ToLower(filter.SortOrder) == "desc" {
		sortOrder = "DESC"
	}
	queryBase += fmt.Sprintf(` ORDER BY %s %s`, sortField, sortOrder)

	n++
	queryBase += fmt.Sprintf(` LIMIT $%d`, n)
	args = append(args, filter.Limit)
	if filter.Offset > 0 {
		n++
		queryBase += fmt.Sprintf(` OFFSET $%d`, n)
		args = append(args, filter.Offset)
	}

	rows, err := db.Query(ctx, queryBase, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectProducts(rows)
}

func collectProducts(rows pgx.Rows) ([]*models.Product, error) {
	var products []*models.Product
	for rows.Next() {
		p := &models.Product{}
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Description, &p.UnitPrice, &p.CurrentStock, &p.MinimumStock, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
