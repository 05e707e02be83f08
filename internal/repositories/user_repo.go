package repositories

import (
	"context"

	"cannaclub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserRepository interface {
	Create(ctx context.Context, db Database, user *models.User) error
	GetByID(ctx context.Context, db Database, tenantID, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, db Database, tenantID uuid.UUID, email string) (*models.User, error)
	GetTenantIDByUserID(ctx context.Context, db Database, userID uuid.UUID) (uuid.UUID, error)
	Update(ctx context.Context, db Database, user *models.User) error
	List(ctx context.Context, db Database, tenantID uuid.UUID, role string, limit, offset int) ([]*models.User, error)
}

type userRepo struct{}

func NewUserRepo() UserRepository {
	return &userRepo{}
}

const userColumns = "id, tenant_id, email, password_hash, first_name, last_name, role, status, created_at, updated_at"

func (r *userRepo) Create(ctx context.Context, db Database, user *models.User) error {
	query := `
		INSERT INTO users (id, tenant_id, email, password_hash, first_name, last_name, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := db.Exec(ctx, query, user.ID, user.TenantID, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Role, user.Status)
	return err
}

func (r *userRepo) GetByID(ctx context.Context, db Database, tenantID, id uuid.UUID) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE tenant_id = $1 AND id = $2
	`
	return scanUser(db.QueryRow(ctx, query, tenantID, id))
}

func (r *userRepo) GetByEmail(ctx context.Context, db Database, tenantID uuid.UUID, email string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE tenant_id = $1 AND email = $2
	`
	return scanUser(db.QueryRow(ctx, query, tenantID, email))
}

func (r *userRepo) GetTenantIDByUserID(ctx context.Context, db Database, userID uuid.UUID) (uuid.UUID, error) {
	var tenantID uuid.UUID
	query := `SELECT tenant_id FROM users WHERE id = $1`
	err := db.QueryRow(ctx, query, userID).Scan(&tenantID)
	return tenantID, err
}

func (r *userRepo) Update(ctx context.Context, db Database, user *models.User) error {
	query := `
		UPDATE users
		SET email = $1, first_name = $2, last_name = $3, role = $4, status = $5, updated_at = NOW()
		WHERE tenant_id = $6 AND id = $7
	`
	_, err := db.Exec(ctx, query, user.Email, user.FirstName, user.LastName, user.Role, user.Status, user.TenantID, user.ID)
	return err
}

func (r *userRepo) List(ctx context.Context, db Database, tenantID uuid.UUID, role string, limit, offset int) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE tenant_id = $1 AND ($2 = '' OR role = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := db.Query(ctx, query, tenantID, role, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}
