package repositories

import (
	"context"

	"cannaclub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type WalletRepository interface {
	Create(ctx context.Context, db Database, wallet *models.Wallet) error
	GetByID(ctx context.Context, db Database, tenantID, id uuid.UUID) (*models.Wallet, error)
	GetByUserID(ctx context.Context, db Database, tenantID, userID uuid.UUID) (*models.Wallet, error)
	// GetByIDForUpdate locks the wallet row for the duration of the
	// surrounding transaction. Callers must pass a pgx.Tx.
	GetByIDForUpdate(ctx context.Context, db Database, tenantID, id uuid.UUID) (*models.Wallet, error)
	List(ctx context.Context, db Database, tenantID uuid.UUID, limit, offset int) ([]*models.Wallet, error)
}

type walletRepo struct{}

func NewWalletRepo() WalletRepository {
	return &walletRepo{}
}

const walletColumns = "id, tenant_id, user_id, balance, created_at, updated_at"

func scanWallet(row pgx.Row) (*models.Wallet, error) {
	w := &models.Wallet{}
	err := row.Scan(&w.ID, &w.TenantID, &w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *walletRepo) Create(ctx context.Context, db Database, wallet *models.Wallet) error {
	query := `
		INSERT INTO wallets (id, tenant_id, user_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	_, err := db.Exec(ctx, query, wallet.ID, wallet.TenantID, wallet.UserID, wallet.Balance)
	return err
}

func (r *walletRepo) GetByID(ctx context.Context, db Database, tenantID, id uuid.UUID) (*models.Wallet, error) {
	query := `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE tenant_id = $1 AND id = $2
	`
	return scanWallet(db.QueryRow(ctx, query, tenantID, id))
}

func (r *walletRepo) GetByUserID(ctx context.Context, db Database, tenantID, userID uuid.UUID) (*models.Wallet, error) {
	query := `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE tenant_id = $1 AND user_id = $2
	`
	return scanWallet(db.QueryRow(ctx, query, tenantID, userID))
}

func (r *walletRepo) GetByIDForUpdate(ctx context.Context, db Database, tenantID, id uuid.UUID) (*models.Wallet, error) {
	query := `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE tenant_id = $1 AND id = $2
		FOR UPDATE
	`
	return scanWallet(db.QueryRow(ctx, query, tenantID, id))
}

func (r *walletRepo) List(ctx context.Context, db Database, tenantID uuid.UUID, limit, offset int) ([]*models.Wallet, error) {
	query := `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []*models.Wallet
	for rows.Next() {
		w := &models.Wallet{}
		if err := rows.Scan(&w.ID, &w.TenantID, &w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}
