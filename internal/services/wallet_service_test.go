package services

import (
	"context"
	"testing"
	"time"

	"cannaclub/internal/caching"
	"cannaclub/internal/ledger"
	"cannaclub/internal/models"
	"cannaclub/internal/repositories"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type WalletServiceTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	service  WalletServiceInterface
	tenantID uuid.UUID
	userID   uuid.UUID
	staffID  uuid.UUID
	walletID uuid.UUID
	ctx      context.Context
}

func (suite *WalletServiceTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	logger := zap.NewNop()
	walletRepo := repositories.NewWalletRepo()
	suite.service = NewWalletService(
		mock,
		walletRepo,
		repositories.NewWalletTransactionRepo(),
		repositories.NewUserRepo(),
		ledger.NewWalletLedger(walletRepo, repositories.NewWalletTransactionRepo(), logger),
		caching.NewNoopCacheService(),
		logger,
	)

	suite.tenantID = uuid.New()
	suite.userID = uuid.New()
	suite.staffID = uuid.New()
	suite.walletID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *WalletServiceTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func (suite *WalletServiceTestSuite) walletRow(balance decimal.Decimal) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{"id", "tenant_id", "user_id", "balance", "created_at", "updated_at"}).
		AddRow(suite.walletID, suite.tenantID, suite.userID, balance, now, now)
}

func (suite *WalletServiceTestSuite) expectMemberLookup() {
	now := time.Now()
	suite.mock.ExpectQuery(`FROM users`).
		WithArgs(suite.tenantID, suite.userID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "tenant_id", "email", "password_hash", "first_name", "last_name", "role", "status", "created_at", "updated_at"}).
			AddRow(suite.userID, suite.tenantID, "member@club.test", "hash", "Mila", "Janssen", models.RoleMember, "active", now, now))
}

func (suite *WalletServiceTestSuite) TestCreateWallet_Success() {
	suite.expectMemberLookup()
	suite.mock.ExpectQuery(`FROM wallets`).
		WithArgs(suite.tenantID, suite.userID).
		WillReturnError(pgx.ErrNoRows)
	suite.mock.ExpectExec(`INSERT INTO wallets`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	wallet, err := suite.service.CreateWallet(suite.ctx, suite.tenantID, suite.userID)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.userID, wallet.UserID)
	assert.True(suite.T(), wallet.Balance.IsZero())
}

func (suite *WalletServiceTestSuite) TestCreateWallet_AlreadyExists() {
	suite.expectMemberLookup()
	suite.mock.ExpectQuery(`FROM wallets`).
		WithArgs(suite.tenantID, suite.userID).
		WillReturnRows(suite.walletRow(decimal.NewFromInt(30)))

	wallet, err := suite.service.CreateWallet(suite.ctx, suite.tenantID, suite.userID)

	assert.Nil(suite.T(), wallet)
	assert.ErrorIs(suite.T(), err, ErrWalletExists)
}

func (suite *WalletServiceTestSuite) TestCreateWallet_UnknownUser() {
	suite.mock.ExpectQuery(`FROM users`).
		WithArgs(suite.tenantID, suite.userID).
		WillReturnError(pgx.ErrNoRows)

	wallet, err := suite.service.CreateWallet(suite.ctx, suite.tenantID, suite.userID)

	assert.Nil(suite.T(), wallet)
	assert.ErrorIs(suite.T(), err, ErrUserNotFound)
}

func (suite *WalletServiceTestSuite) TestDeposit_Success() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`FROM wallets`).
		WithArgs(suite.tenantID, suite.walletID).
		WillReturnRows(suite.walletRow(decimal.NewFromInt(20)))
	suite.mock.ExpectExec(`UPDATE wallets`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`INSERT INTO wallet_transactions`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()
	// Cache invalidation resolves the wallet owner after the commit.
	suite.mock.ExpectQuery(`FROM wallets`).
		WithArgs(suite.tenantID, suite.walletID).
		WillReturnRows(suite.walletRow(decimal.NewFromInt(50)))

	entry, err := suite.service.Deposit(suite.ctx, suite.tenantID, suite.staffID, suite.walletID, decimal.NewFromInt(30), "cash", nil)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.WalletTxDeposit, entry.Type)
	assert.True(suite.T(), entry.BalanceBefore.Equal(decimal.NewFromInt(20)))
	assert.True(suite.T(), entry.BalanceAfter.Equal(decimal.NewFromInt(50)))
}

func (suite *WalletServiceTestSuite) TestDeposit_RequiresPaymentMethod() {
	entry, err := suite.service.Deposit(suite.ctx, suite.tenantID, suite.staffID, suite.walletID, decimal.NewFromInt(30), "", nil)

	assert.Nil(suite.T(), entry)
	var validationErr *ledger.ValidationError
	assert.ErrorAs(suite.T(), err, &validationErr)
}

func (suite *WalletServiceTestSuite) TestWithdraw_InsufficientFundsRollsBack() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`FROM wallets`).
		WithArgs(suite.tenantID, suite.walletID).
		WillReturnRows(suite.walletRow(decimal.NewFromInt(10)))
	suite.mock.ExpectRollback()

	entry, err := suite.service.Withdraw(suite.ctx, suite.tenantID, suite.staffID, suite.walletID, decimal.NewFromInt(25), nil)

	assert.Nil(suite.T(), entry)
	var fundsErr *ledger.InsufficientFundsError
	assert.ErrorAs(suite.T(), err, &fundsErr)
	assert.True(suite.T(), fundsErr.Available.Equal(decimal.NewFromInt(10)))
}

func (suite *WalletServiceTestSuite) TestGetWalletByUser_NotFound() {
	suite.mock.ExpectQuery(`FROM wallets`).
		WithArgs(suite.tenantID, suite.userID).
		WillReturnError(pgx.ErrNoRows)

	wallet, err := suite.service.GetWalletByUser(suite.ctx, suite.tenantID, suite.userID)

	assert.Nil(suite.T(), wallet)
	assert.ErrorIs(suite.T(), err, ledger.ErrWalletNotFound)
}

func TestWalletServiceTestSuite(t *testing.T) {
	suite.Run(t, new(WalletServiceTestSuite))
}
