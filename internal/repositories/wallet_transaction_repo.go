package repositories

import (
	"context"

	"cannaclub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletTransactionRepository appends and reads wallet ledger entries.
// Entries are immutable once written.
type WalletTransactionRepository interface {
	Create(ctx context.Context, db Database, tx *models.WalletTransaction) error
	GetByID(ctx context.Context, db Database, tenantID, id uuid.UUID) (*models.WalletTransaction, error)
	ListByWallet(ctx context.Context, db Database, tenantID, walletID uuid.UUID, limit, offset int) ([]*models.WalletTransaction, error)
	ListByOrder(ctx context.Context, db Database, tenantID, orderID uuid.UUID) ([]*models.WalletTransaction, error)
}

type walletTransactionRepo struct{}

func NewWalletTransactionRepo() WalletTransactionRepository {
	return &walletTransactionRepo{}
}

const walletTxColumns = "id, tenant_id, wallet_id, amount, balance_before, balance_after, type, order_id, created_by, payment_method, reference, created_at"

func (r *walletTransactionRepo) Create(ctx context.Context, db Database, tx *models.WalletTransaction) error {
	query := `
		INSERT INTO wallet_transactions (id, tenant_id, wallet_id, amount, balance_before, balance_after, type, order_id, created_by, payment_method, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
	`
	_, err := db.Exec(ctx, query, tx.ID, tx.TenantID, tx.WalletID, tx.Amount, tx.BalanceBefore, tx.BalanceAfter, tx.Type, tx.OrderID, tx.CreatedBy, tx.PaymentMethod, tx.Reference)
	return err
}

func (r *walletTransactionRepo) GetByID(ctx context.Context, db Database, tenantID, id uuid.UUID) (*models.WalletTransaction, error) {
	query := `
		SELECT ` + walletTxColumns + `
		FROM wallet_transactions
		WHERE tenant_id = $1 AND id = $2
	`
	return scanWalletTx(db.QueryRow(ctx, query, tenantID, id))
}

func (r *walletTransactionRepo) ListByWallet(ctx context.Context, db Database, tenantID, walletID uuid.UUID, limit, offset int) ([]*models.WalletTransaction, error) {
	query := `
		SELECT ` + walletTxColumns + `
		FROM wallet_transactions
		WHERE tenant_id = $1 AND wallet_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := db.Query(ctx, query, tenantID, walletID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectWalletTxs(rows)
}

func (r *walletTransactionRepo) ListByOrder(ctx context.Context, db Database, tenantID, orderID uuid.UUID) ([]*models.WalletTransaction, error) {
	query := `
		SELECT ` + walletTxColumns + `
		FROM wallet_transactions
		WHERE tenant_id = $1 AND order_id = $2
		ORDER BY created_at ASC
	`
	rows, err := db.Query(ctx, query, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectWalletTxs(rows)
}

func scanWalletTx(row pgx.Row) (*models.WalletTransaction, error) {
	t := &models.WalletTransaction{}
	err := row.Scan(&t.ID, &t.TenantID, &t.WalletID, &t.Amount, &t.BalanceBefore, &t.BalanceAfter, &t.Type, &t.OrderID, &t.CreatedBy, &t.PaymentMethod, &t.Reference, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func collectWalletTxs(rows pgx.Rows) ([]*models.WalletTransaction, error) {
	var txs []*models.WalletTransaction
	for rows.Next() {
		t := &models.WalletTransaction{}
		if err := rows.Scan(&t.ID, &t.TenantID, &t.WalletID, &t.Amount, &t.BalanceBefore, &t.BalanceAfter, &t.Type, &t.OrderID, &t.CreatedBy, &t.PaymentMethod, &t.Reference, &t.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
