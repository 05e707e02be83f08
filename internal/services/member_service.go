package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cannaclub/internal/ledger"
	"cannaclub/internal/models"
	"cannaclub/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type MemberServiceInterface interface {
	CreateMember(ctx context.Context, tenantID uuid.UUID, req *CreateMemberRequest) (*models.User, error)
	GetMember(ctx context.Context, tenantID, userID uuid.UUID) (*models.User, error)
	UpdateMember(ctx context.Context, tenantID, userID uuid.UUID, req *UpdateMemberRequest) (*models.User, error)
	ListMembers(ctx context.Context, tenantID uuid.UUID, role string, limit, offset int) ([]*models.User, error)
	Authenticate(ctx context.Context, tenantID uuid.UUID, email, password string) (*models.User, error)
}

type CreateMemberRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

type UpdateMemberRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Status    string `json:"status"`
}

type memberService struct {
	db         repositories.TxDatabase
	userRepo   repositories.UserRepository
	walletRepo repositories.WalletRepository
	logger     *zap.Logger
}

func NewMemberService(db repositories.TxDatabase, userRepo repositories.UserRepository, walletRepo repositories.WalletRepository, logger *zap.Logger) MemberServiceInterface {
	return &memberService{
		db:         db,
		userRepo:   userRepo,
		walletRepo: walletRepo,
		logger:     logger,
	}
}

// CreateMember onboards a club user. Members also get their zero-balance
// wallet in the same transaction, so a member always has a wallet by the time
// they can check out.
func (s *memberService) CreateMember(ctx context.Context, tenantID uuid.UUID, req *CreateMemberRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, &ledger.ValidationError{Field: "email", Message: "a valid email is required"}
	}
	if len(req.Password) < 8 {
		return nil, &ledger.ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	if req.Role != models.RoleMember && req.Role != models.RoleStaff && req.Role != models.RoleAdmin {
		return nil, &ledger.ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", req.Role)}
	}

	if _, err := s.userRepo.GetByEmail(ctx, s.db, tenantID, email); err == nil {
		return nil, &ledger.ValidationError{Field: "email", Message: "email is already registered"}
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: string(hashed),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		Status:       "active",
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin member creation: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.userRepo.Create(ctx, tx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if user.Role == models.RoleMember {
		wallet := &models.Wallet{
			ID:       uuid.New(),
			TenantID: tenantID,
			UserID:   user.ID,
		}
		if err := s.walletRepo.Create(ctx, tx, wallet); err != nil {
			return nil, fmt.Errorf("create wallet: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit member creation: %w", err)
	}

	s.logger.Info("member created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("role", user.Role))
	return user, nil
}

func (s *memberService) GetMember(ctx context.Context, tenantID, userID uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, s.db, tenantID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *memberService) UpdateMember(ctx context.Context, tenantID, userID uuid.UUID, req *UpdateMemberRequest) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, s.db, tenantID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Status != "" {
		user.Status = req.Status
	}
	if err := s.userRepo.Update(ctx, s.db, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *memberService) ListMembers(ctx context.Context, tenantID uuid.UUID, role string, limit, offset int) ([]*models.User, error) {
	return s.userRepo.List(ctx, s.db, tenantID, role, limit, offset)
}

// Authenticate verifies a login. The caller issues the token.
func (s *memberService) Authenticate(ctx context.Context, tenantID uuid.UUID, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, s.db, tenantID, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.Status != "active" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
