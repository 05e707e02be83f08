package repositories

import (
	"context"
	"time"

	"cannaclub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type OrderRepository interface {
	Create(ctx context.Context, db Database, order *models.Order) error
	GetByID(ctx context.Context, db Database, tenantID, id uuid.UUID) (*models.Order, error)
	OrderNumberExists(ctx context.Context, db Database, tenantID uuid.UUID, orderNumber string) (bool, error)
	MarkCompleted(ctx context.Context, db Database, tenantID, id uuid.UUID) error
	List(ctx context.Context, db Database, tenantID uuid.UUID, limit, offset int) ([]*models.Order, error)
	ListByMember(ctx context.Context, db Database, tenantID, memberID uuid.UUID, limit, offset int) ([]*models.Order, error)
	ListByDateRange(ctx context.Context, db Database, tenantID uuid.UUID, start, end time.Time) ([]*models.Order, error)
}

type orderRepo struct{}

func NewOrderRepo() OrderRepository {
	return &orderRepo{}
}

const orderColumns = "id, tenant_id, order_number, member_id, staff_id, subtotal, tax, total, payment_method, status, notes, completed_at, created_at, updated_at"

func (r *orderRepo) Create(ctx context.Context, db Database, order *models.Order) error {
	query := `
		INSERT INTO orders (id, tenant_id, order_number, member_id, staff_id, subtotal, tax, total, payment_method, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`
	_, err := db.Exec(ctx, query, order.ID, order.TenantID, order.OrderNumber, order.MemberID, order.StaffID, order.Subtotal, order.Tax, order.Total, order.PaymentMethod, order.Status, order.Notes)
	return err
}

func (r *orderRepo) GetByID(ctx context.Context, db Database, tenantID, id uuid.UUID) (*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE tenant_id = $1 AND id = $2
	`
	return scanOrder(db.QueryRow(ctx, query, tenantID, id))
}

func (r *orderRepo) OrderNumberExists(ctx context.Context, db Database, tenantID uuid.UUID, orderNumber string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM orders WHERE tenant_id = $1 AND order_number = $2)`
	err := db.QueryRow(ctx, query, tenantID, orderNumber).Scan(&exists)
	return exists, err
}

func (r *orderRepo) MarkCompleted(ctx context.Context, db Database, tenantID, id uuid.UUID) error {
	query := `
		UPDATE orders
		SET status = $1, completed_at = NOW(), updated_at = NOW()
		WHERE tenant_id = $2 AND id = $3
	`
	_, err := db.Exec(ctx, query, models.OrderStatusCompleted, tenantID, id)
	return err
}

func (r *orderRepo) List(ctx context.Context, db Database, tenantID uuid.UUID, limit, offset int) ([]*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectOrders(rows)
}

func (r *orderRepo) ListByMember(ctx context.Context, db Database, tenantID, memberID uuid.UUID, limit, offset int) ([]*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE tenant_id = $1 AND member_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := db.Query(ctx, query, tenantID, memberID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectOrders(rows)
}

func (r *orderRepo) ListByDateRange(ctx context.Context, db Database, tenantID uuid.UUID, start, end time.Time) ([]*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE tenant_id = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at ASC
	`
	rows, err := db.Query(ctx, query, tenantID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectOrders(rows)
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	o := &models.Order{}
	err := row.Scan(&o.ID, &o.TenantID, &o.OrderNumber, &o.MemberID, &o.StaffID, &o.Subtotal, &o.Tax, &o.Total, &o.PaymentMethod, &o.Status, &o.Notes, &o.CompletedAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func collectOrders(rows pgx.Rows) ([]*models.Order, error) {
	var orders []*models.Order
	for rows.Next() {
		o := &models.Order{}
		if err := rows.Scan(&o.ID, &o.TenantID, &o.OrderNumber, &o.MemberID, &o.StaffID, &o.Subtotal, &o.Tax, &o.Total, &o.PaymentMethod, &o.Status, &o.Notes, &o.CompletedAt, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
