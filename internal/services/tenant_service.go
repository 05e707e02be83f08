package services

import (
	"context"
	"errors"
	"strings"

	"cannaclub/internal/ledger"
	"cannaclub/internal/models"
	"cannaclub/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TenantServiceInterface interface {
	Create(ctx context.Context, req *CreateTenantRequest) (*models.Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
	Update(ctx context.Context, req *UpdateTenantRequest) error
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)
}

type CreateTenantRequest struct {
	Name      string `json:"name"`
	Subdomain string `json:"subdomain"`
}

type UpdateTenantRequest struct {
	ID        uuid.UUID
	Name      string `json:"name"`
	Subdomain string `json:"subdomain"`
	Status    string `json:"status"`
}

type tenantService struct {
	db         repositories.Database
	tenantRepo repositories.TenantRepository
}

func NewTenantService(db repositories.Database, tenantRepo repositories.TenantRepository) TenantServiceInterface {
	return &tenantService{db: db, tenantRepo: tenantRepo}
}

func validSubdomain(subdomain string) bool {
	if subdomain == "" || strings.TrimSpace(subdomain) != subdomain {
		return false
	}
	return !strings.ContainsAny(subdomain, " ./\\")
}

func (s *tenantService) Create(ctx context.Context, req *CreateTenantRequest) (*models.Tenant, error) {
	if req.Name == "" {
		return nil, &ledger.ValidationError{Field: "name", Message: "name is required"}
	}
	if !validSubdomain(req.Subdomain) {
		return nil, &ledger.ValidationError{Field: "subdomain", Message: "subdomain must be a single DNS label"}
	}

	if _, err := s.tenantRepo.GetBySubdomain(ctx, s.db, req.Subdomain); err == nil {
		return nil, &ledger.ValidationError{Field: "subdomain", Message: "subdomain is already taken"}
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	tenant := &models.Tenant{
		ID:        uuid.New(),
		Name:      req.Name,
		Subdomain: strings.ToLower(req.Subdomain),
		Status:    "active",
	}
	if err := s.tenantRepo.Create(ctx, s.db, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

func (s *tenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return tenant, nil
}

func (s *tenantService) GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	tenant, err := s.tenantRepo.GetBySubdomain(ctx, s.db, subdomain)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return tenant, nil
}

func (s *tenantService) Update(ctx context.Context, req *UpdateTenantRequest) error {
	tenant, err := s.tenantRepo.GetByID(ctx, s.db, req.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTenantNotFound
		}
		return err
	}

	if req.Name != "" {
		tenant.Name = req.Name
	}
	if req.Subdomain != "" {
		if !validSubdomain(req.Subdomain) {
			return &ledger.ValidationError{Field: "subdomain", Message: "subdomain must be a single DNS label"}
		}
		tenant.Subdomain = strings.ToLower(req.Subdomain)
	}
	if req.Status != "" {
		tenant.Status = req.Status
	}
	return s.tenantRepo.Update(ctx, s.db, tenant)
}

func (s *tenantService) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	return s.tenantRepo.List(ctx, s.db, limit, offset)
}
