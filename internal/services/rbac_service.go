package services

import (
	"context"
	"errors"

	"cannaclub/internal/models"
	"cannaclub/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type RBACService interface {
	UserHasPermission(ctx context.Context, userID, tenantID uuid.UUID, permissionName string) (bool, error)
	GetUserPermissions(ctx context.Context, userID, tenantID uuid.UUID) ([]string, error)
}

// Permission names checked by the handlers.
const (
	PermProductsRead   = "products:read"
	PermProductsWrite  = "products:write"
	PermStockWrite     = "stock:write"
	PermStockCheck     = "stock_checks:write"
	PermOrdersRead     = "orders:read"
	PermOrdersCreate   = "orders:create"
	PermWalletsRead    = "wallets:read"
	PermWalletsManage  = "wallets:manage"
	PermMembersRead    = "members:read"
	PermMembersManage  = "members:manage"
	PermAuditLogsRead  = "audit_logs:read"
	PermTenantManage   = "tenant:manage"
)

// rolePermissions is the static role model. Clubs run with three fixed
// roles, so permissions live in code instead of join tables.
var rolePermissions = map[string][]string{
	models.RoleMember: {
		PermProductsRead,
		PermOrdersRead,
		PermWalletsRead,
	},
	models.RoleStaff: {
		PermProductsRead,
		PermProductsWrite,
		PermStockWrite,
		PermStockCheck,
		PermOrdersRead,
		PermOrdersCreate,
		PermWalletsRead,
		PermWalletsManage,
		PermMembersRead,
	},
	models.RoleAdmin: {
		PermProductsRead,
		PermProductsWrite,
		PermStockWrite,
		PermStockCheck,
		PermOrdersRead,
		PermOrdersCreate,
		PermWalletsRead,
		PermWalletsManage,
		PermMembersRead,
		PermMembersManage,
		PermAuditLogsRead,
		PermTenantManage,
	},
}

type rbacService struct {
	userRepo repositories.UserRepository
	db       repositories.Database
}

func NewRBACService(db repositories.Database, userRepo repositories.UserRepository) RBACService {
	return &rbacService{
		db:       db,
		userRepo: userRepo,
	}
}

func (s *rbacService) UserHasPermission(ctx context.Context, userID, tenantID uuid.UUID, permissionName string) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, s.db, tenantID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	for _, perm := range rolePermissions[user.Role] {
		if perm == permissionName {
			return true, nil
		}
	}
	return false, nil
}

func (s *rbacService) GetUserPermissions(ctx context.Context, userID, tenantID uuid.UUID) ([]string, error) {
	user, err := s.userRepo.GetByID(ctx, s.db, tenantID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	perms := rolePermissions[user.Role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out, nil
}
