package ledger

import (
	"context"
	"testing"
	"time"

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

type WalletLedgerTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	ledger   *WalletLedger
	tenantID uuid.UUID
	actorID  uuid.UUID
	walletID uuid.UUID
	userID   uuid.UUID
	ctx      context.Context
}

func (suite *WalletLedgerTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.ledger = NewWalletLedger(repositories.NewWalletRepo(), repositories.NewWalletTransactionRepo(), zap.NewNop())
	suite.tenantID = uuid.New()
	suite.actorID = uuid.New()
	suite.walletID = uuid.New()
	suite.userID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *WalletLedgerTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func (suite *WalletLedgerTestSuite) expectWalletLock(balance decimal.Decimal) {
	now := time.Now()
	suite.mock.ExpectQuery(`FROM wallets`).
		WithArgs(suite.tenantID, suite.walletID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "tenant_id", "user_id", "balance", "created_at", "updated_at"}).
			AddRow(suite.walletID, suite.tenantID, suite.userID, balance, now, now))
}

func (suite *WalletLedgerTestSuite) expectBalanceWrite() {
	suite.mock.ExpectExec(`UPDATE wallets`).
		WithArgs(pgxmock.AnyArg(), suite.tenantID, suite.walletID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`INSERT INTO wallet_transactions`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
}

func (suite *WalletLedgerTestSuite) TestDeposit_ChainsSnapshots() {
	suite.expectWalletLock(decimal.NewFromInt(20))
	suite.expectBalanceWrite()

	method := "cash"
	entry, err := suite.ledger.Deposit(suite.ctx, suite.mock, suite.tenantID, suite.actorID, suite.walletID,
		decimal.NewFromInt(30), WalletCause{PaymentMethod: &method})

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), entry.BalanceBefore.Equal(decimal.NewFromInt(20)))
	assert.True(suite.T(), entry.BalanceAfter.Equal(decimal.NewFromInt(50)))
	assert.True(suite.T(), entry.Amount.Equal(decimal.NewFromInt(30)))
	assert.Equal(suite.T(), models.WalletTxDeposit, entry.Type)
	assert.Equal(suite.T(), &method, entry.PaymentMethod)
}

func (suite *WalletLedgerTestSuite) TestDeposit_RejectsNonPositive() {
	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-10)} {
		entry, err := suite.ledger.Deposit(suite.ctx, suite.mock, suite.tenantID, suite.actorID, suite.walletID,
			amount, WalletCause{})
		assert.Nil(suite.T(), entry)
		var validationErr *ValidationError
		assert.ErrorAs(suite.T(), err, &validationErr)
	}
}

func (suite *WalletLedgerTestSuite) TestWithdraw_StoresNegativeAmount() {
	suite.expectWalletLock(decimal.NewFromInt(100))
	suite.expectBalanceWrite()

	entry, err := suite.ledger.Withdraw(suite.ctx, suite.mock, suite.tenantID, suite.actorID, suite.walletID,
		decimal.NewFromInt(40), models.WalletTxWithdrawal, WalletCause{})

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), entry.Amount.Equal(decimal.NewFromInt(-40)))
	assert.True(suite.T(), entry.BalanceAfter.Equal(decimal.NewFromInt(60)))
}

func (suite *WalletLedgerTestSuite) TestWithdraw_InsufficientFunds() {
	suite.expectWalletLock(decimal.NewFromFloat(15.50))

	entry, err := suite.ledger.Withdraw(suite.ctx, suite.mock, suite.tenantID, suite.actorID, suite.walletID,
		decimal.NewFromInt(20), models.WalletTxPurchase, WalletCause{})

	assert.Nil(suite.T(), entry)
	var fundsErr *InsufficientFundsError
	assert.ErrorAs(suite.T(), err, &fundsErr)
	assert.Equal(suite.T(), suite.walletID, fundsErr.WalletID)
	assert.True(suite.T(), fundsErr.Required.Equal(decimal.NewFromInt(20)))
	assert.True(suite.T(), fundsErr.Available.Equal(decimal.NewFromFloat(15.50)))
}

func (suite *WalletLedgerTestSuite) TestWithdraw_ExactBalanceAllowed() {
	suite.expectWalletLock(decimal.NewFromInt(25))
	suite.expectBalanceWrite()

	entry, err := suite.ledger.Withdraw(suite.ctx, suite.mock, suite.tenantID, suite.actorID, suite.walletID,
		decimal.NewFromInt(25), models.WalletTxPurchase, WalletCause{})

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), entry.BalanceAfter.IsZero())
}

func (suite *WalletLedgerTestSuite) TestWithdraw_RejectsDepositType() {
	entry, err := suite.ledger.Withdraw(suite.ctx, suite.mock, suite.tenantID, suite.actorID, suite.walletID,
		decimal.NewFromInt(5), models.WalletTxDeposit, WalletCause{})

	assert.Nil(suite.T(), entry)
	var validationErr *ValidationError
	assert.ErrorAs(suite.T(), err, &validationErr)
}

func (suite *WalletLedgerTestSuite) TestApply_WalletNotFound() {
	suite.mock.ExpectQuery(`FROM wallets`).
		WithArgs(suite.tenantID, suite.walletID).
		WillReturnError(pgx.ErrNoRows)

	entry, err := suite.ledger.Deposit(suite.ctx, suite.mock, suite.tenantID, suite.actorID, suite.walletID,
		decimal.NewFromInt(10), WalletCause{})

	assert.Nil(suite.T(), entry)
	assert.ErrorIs(suite.T(), err, ErrWalletNotFound)
}

func TestWalletLedgerTestSuite(t *testing.T) {
	suite.Run(t, new(WalletLedgerTestSuite))
}
