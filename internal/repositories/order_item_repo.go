package repositories

import (
	"context"

	"cannaclub/internal/models"

	"github.com/google/uuid"
)

type OrderItemRepository interface {
	Create(ctx context.Context, db Database, item *models.OrderItem) error
	ListByOrder(ctx context.Context, db Database, tenantID, orderID uuid.UUID) ([]*models.OrderItem, error)
}

type orderItemRepo struct{}

func NewOrderItemRepo() OrderItemRepository {
	return &orderItemRepo{}
}

func (r *orderItemRepo) Create(ctx context.Context, db Database, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (id, tenant_id, order_id, product_id, product_name, unit_price, quantity, subtotal, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`
	_, err := db.Exec(ctx, query, item.ID, item.TenantID, item.OrderID, item.ProductID, item.ProductName, item.UnitPrice, item.Quantity, item.Subtotal)
	return err
}

func (r *orderItemRepo) ListByOrder(ctx context.Context, db Database, tenantID, orderID uuid.UUID) ([]*models.OrderItem, error) {
	query := `
		SELECT id, tenant_id, order_id, product_id, product_name, unit_price, quantity, subtotal, created_at
		FROM order_items
		WHERE tenant_id = $1 AND order_id = $2
		ORDER BY created_at ASC
	`
	rows, err := db.Query(ctx, query, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.OrderItem
	for rows.Next() {
		item := &models.OrderItem{}
		if err := rows.Scan(&item.ID, &item.TenantID, &item.OrderID, &item.ProductID, &item.ProductName, &item.UnitPrice, &item.Quantity, &item.Subtotal, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
