package services

import (
	"context"
	"errors"
	"fmt"

	"cannaclub/internal/caching"
	"cannaclub/internal/ledger"
	"cannaclub/internal/models"
	"cannaclub/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type WalletServiceInterface interface {
	CreateWallet(ctx context.Context, tenantID, userID uuid.UUID) (*models.Wallet, error)
	GetWallet(ctx context.Context, tenantID, walletID uuid.UUID) (*models.Wallet, error)
	GetWalletByUser(ctx context.Context, tenantID, userID uuid.UUID) (*models.Wallet, error)
	ListWallets(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Wallet, error)
	Deposit(ctx context.Context, tenantID, actorID, walletID uuid.UUID, amount decimal.Decimal, paymentMethod string, reference *string) (*models.WalletTransaction, error)
	Withdraw(ctx context.Context, tenantID, actorID, walletID uuid.UUID, amount decimal.Decimal, reference *string) (*models.WalletTransaction, error)
	ListTransactions(ctx context.Context, tenantID, walletID uuid.UUID, limit, offset int) ([]*models.WalletTransaction, error)
}

type walletService struct {
	db           repositories.TxDatabase
	walletRepo   repositories.WalletRepository
	walletTxRepo repositories.WalletTransactionRepository
	userRepo     repositories.UserRepository
	walletLedger *ledger.WalletLedger
	cacheService caching.CacheService
	logger       *zap.Logger
}

func NewWalletService(db repositories.TxDatabase, walletRepo repositories.WalletRepository, walletTxRepo repositories.WalletTransactionRepository,
	userRepo repositories.UserRepository, walletLedger *ledger.WalletLedger, cacheService caching.CacheService, logger *zap.Logger) WalletServiceInterface {
	return &walletService{
		db:           db,
		walletRepo:   walletRepo,
		walletTxRepo: walletTxRepo,
		userRepo:     userRepo,
		walletLedger: walletLedger,
		cacheService: cacheService,
		logger:       logger,
	}
}

// CreateWallet opens a zero-balance wallet for a member. One wallet per
// member per tenant.
func (s *walletService) CreateWallet(ctx context.Context, tenantID, userID uuid.UUID) (*models.Wallet, error) {
	if _, err := s.userRepo.GetByID(ctx, s.db, tenantID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if _, err := s.walletRepo.GetByUserID(ctx, s.db, tenantID, userID); err == nil {
		return nil, ErrWalletExists
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	wallet := &models.Wallet{
		ID:       uuid.New(),
		TenantID: tenantID,
		UserID:   userID,
		Balance:  decimal.Zero,
	}
	if err := s.walletRepo.Create(ctx, s.db, wallet); err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}

	s.logger.Info("wallet created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("wallet_id", wallet.ID.String()),
		zap.String("user_id", userID.String()))
	return wallet, nil
}

func (s *walletService) GetWallet(ctx context.Context, tenantID, walletID uuid.UUID) (*models.Wallet, error) {
	wallet, err := s.walletRepo.GetByID(ctx, s.db, tenantID, walletID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrWalletNotFound
		}
		return nil, err
	}
	return wallet, nil
}

func (s *walletService) GetWalletByUser(ctx context.Context, tenantID, userID uuid.UUID) (*models.Wallet, error) {
	if cached, err := s.cacheService.GetWallet(ctx, tenantID, userID); err == nil && cached != nil {
		return cached, nil
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, s.db, tenantID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrWalletNotFound
		}
		return nil, err
	}
	if err := s.cacheService.SetWallet(ctx, tenantID, wallet); err != nil {
		s.logger.Warn("wallet cache write failed", zap.String("wallet_id", wallet.ID.String()), zap.Error(err))
	}
	return wallet, nil
}

func (s *walletService) ListWallets(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Wallet, error) {
	return s.walletRepo.List(ctx, s.db, tenantID, limit, offset)
}

// Deposit tops up a wallet at the counter.
func (s *walletService) Deposit(ctx context.Context, tenantID, actorID, walletID uuid.UUID, amount decimal.Decimal, paymentMethod string, reference *string) (*models.WalletTransaction, error) {
	if paymentMethod == "" {
		return nil, &ledger.ValidationError{Field: "payment_method", Message: "payment method is required"}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin deposit: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	entry, err := s.walletLedger.Deposit(ctx, tx, tenantID, actorID, walletID, amount, ledger.WalletCause{
		PaymentMethod: &paymentMethod,
		Reference:     reference,
	})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit deposit: %w", err)
	}

	s.invalidateWalletCache(ctx, tenantID, walletID)
	return entry, nil
}

// Withdraw pays out from the wallet, e.g. refunding an unused balance.
func (s *walletService) Withdraw(ctx context.Context, tenantID, actorID, walletID uuid.UUID, amount decimal.Decimal, reference *string) (*models.WalletTransaction, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin withdrawal: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	entry, err := s.walletLedger.Withdraw(ctx, tx, tenantID, actorID, walletID, amount, models.WalletTxWithdrawal, ledger.WalletCause{
		Reference: reference,
	})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit withdrawal: %w", err)
	}

	s.invalidateWalletCache(ctx, tenantID, walletID)
	return entry, nil
}

func (s *walletService) ListTransactions(ctx context.Context, tenantID, walletID uuid.UUID, limit, offset int) ([]*models.WalletTransaction, error) {
	return s.walletTxRepo.ListByWallet(ctx, s.db, tenantID, walletID, limit, offset)
}

func (s *walletService) invalidateWalletCache(ctx context.Context, tenantID, walletID uuid.UUID) {
	wallet, err := s.walletRepo.GetByID(ctx, s.db, tenantID, walletID)
	if err != nil {
		return
	}
	if err := s.cacheService.DeleteWallet(ctx, tenantID, wallet.UserID); err != nil {
		s.logger.Warn("wallet cache invalidation failed", zap.String("wallet_id", walletID.String()), zap.Error(err))
	}
}
