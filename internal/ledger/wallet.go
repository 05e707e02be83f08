package ledger

import (
	"context"
	"errors"
	"fmt"

	"cannaclub/internal/models"
	"cannaclub/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WalletCause carries the audit metadata for one wallet ledger apply.
type WalletCause struct {
	OrderID       *uuid.UUID
	PaymentMethod *string
	Reference     *string
}

// WalletLedger is the only writer of wallets.balance. Deposits always
// succeed; withdrawals and purchases fail InsufficientFunds rather than take
// the balance negative. Like StockLedger, it runs on whatever querier it is
// handed and the caller owns the transaction.
type WalletLedger struct {
	walletRepo repositories.WalletRepository
	txRepo     repositories.WalletTransactionRepository
	logger     *zap.Logger
}

func NewWalletLedger(walletRepo repositories.WalletRepository, txRepo repositories.WalletTransactionRepository, logger *zap.Logger) *WalletLedger {
	return &WalletLedger{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		logger:     logger,
	}
}

// Deposit credits a wallet. Amount must be positive.
func (l *WalletLedger) Deposit(ctx context.Context, db repositories.Database, tenantID, actorID, walletID uuid.UUID, amount decimal.Decimal, cause WalletCause) (*models.WalletTransaction, error) {
	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Message: "deposit amount must be positive"}
	}
	return l.apply(ctx, db, tenantID, actorID, walletID, amount, models.WalletTxDeposit, cause)
}

// Withdraw debits a wallet. Amount must be positive; entryType is withdrawal
// or purchase and the stored amount is negated. The balance check happens
// inside the row lock, so two concurrent withdrawals near zero cannot both
// pass it.
func (l *WalletLedger) Withdraw(ctx context.Context, db repositories.Database, tenantID, actorID, walletID uuid.UUID, amount decimal.Decimal, entryType string, cause WalletCause) (*models.WalletTransaction, error) {
	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Message: "withdrawal amount must be positive"}
	}
	if entryType != models.WalletTxWithdrawal && entryType != models.WalletTxPurchase {
		return nil, &ValidationError{Field: "type", Message: fmt.Sprintf("invalid withdrawal type %q", entryType)}
	}
	return l.apply(ctx, db, tenantID, actorID, walletID, amount.Neg(), entryType, cause)
}

func (l *WalletLedger) apply(ctx context.Context, db repositories.Database, tenantID, actorID, walletID uuid.UUID, signedAmount decimal.Decimal, entryType string, cause WalletCause) (*models.WalletTransaction, error) {
	wallet, err := l.walletRepo.GetByIDForUpdate(ctx, db, tenantID, walletID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("lock wallet %s: %w", walletID, err)
	}

	balanceBefore := wallet.Balance
	balanceAfter := balanceBefore.Add(signedAmount)

	if balanceAfter.IsNegative() {
		return nil, &InsufficientFundsError{
			WalletID:  walletID,
			Required:  signedAmount.Neg(),
			Available: balanceBefore,
		}
	}

	if err := l.writeBalance(ctx, db, tenantID, walletID, balanceAfter); err != nil {
		return nil, err
	}

	entry := &models.WalletTransaction{
		ID:            uuid.New(),
		TenantID:      tenantID,
		WalletID:      walletID,
		Amount:        signedAmount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		Type:          entryType,
		OrderID:       cause.OrderID,
		CreatedBy:     actorID,
		PaymentMethod: cause.PaymentMethod,
		Reference:     cause.Reference,
	}
	if err := l.txRepo.Create(ctx, db, entry); err != nil {
		return nil, fmt.Errorf("append wallet transaction: %w", err)
	}

	l.logger.Debug("wallet ledger apply",
		zap.String("tenant_id", tenantID.String()),
		zap.String("wallet_id", walletID.String()),
		zap.String("type", entryType),
		zap.String("amount", signedAmount.String()),
		zap.String("balance_after", balanceAfter.String()))

	return entry, nil
}

func (l *WalletLedger) writeBalance(ctx context.Context, db repositories.Database, tenantID, walletID uuid.UUID, balance decimal.Decimal) error {
	query := `
		UPDATE wallets
		SET balance = $1, updated_at = NOW()
		WHERE tenant_id = $2 AND id = $3
	`
	tag, err := db.Exec(ctx, query, balance, tenantID, walletID)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("wallet %s: %w", walletID, ErrConstraintViolation)
	}
	return nil
}
