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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type StockLedgerTestSuite struct {
	suite.Suite
	mock      pgxmock.PgxPoolIface
	ledger    *StockLedger
	tenantID  uuid.UUID
	actorID   uuid.UUID
	productID uuid.UUID
	ctx       context.Context
}

func (suite *StockLedgerTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.ledger = NewStockLedger(repositories.NewProductRepo(), repositories.NewInventoryTransactionRepo(), zap.NewNop())
	suite.tenantID = uuid.New()
	suite.actorID = uuid.New()
	suite.productID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *StockLedgerTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func (suite *StockLedgerTestSuite) expectProductLock(stock decimal.Decimal) {
	now := time.Now()
	suite.mock.ExpectQuery(`FROM products`).
		WithArgs(suite.tenantID, suite.productID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "tenant_id", "name", "description", "unit_price", "current_stock", "minimum_stock", "active", "created_at", "updated_at"}).
			AddRow(suite.productID, suite.tenantID, "Amnesia Haze", (*string)(nil), decimal.NewFromFloat(9.50), stock, decimal.NewFromInt(5), true, now, now))
}

func (suite *StockLedgerTestSuite) TestApplySale_ChainsSnapshots() {
	suite.expectProductLock(decimal.NewFromInt(10))
	suite.mock.ExpectExec(`UPDATE products`).
		WithArgs(pgxmock.AnyArg(), suite.tenantID, suite.productID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`INSERT INTO inventory_transactions`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	orderID := uuid.New()
	entry, err := suite.ledger.Apply(suite.ctx, suite.mock, suite.tenantID, suite.actorID, suite.productID,
		decimal.NewFromInt(-3), models.StockTxSale, StockCause{OrderID: &orderID})

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), entry.StockBefore.Equal(decimal.NewFromInt(10)))
	assert.True(suite.T(), entry.StockAfter.Equal(decimal.NewFromInt(7)))
	assert.True(suite.T(), entry.Quantity.Equal(decimal.NewFromInt(-3)))
	assert.Equal(suite.T(), models.StockTxSale, entry.Type)
	assert.Equal(suite.T(), &orderID, entry.OrderID)
	assert.Equal(suite.T(), suite.actorID, entry.CreatedBy)
}

func (suite *StockLedgerTestSuite) TestApplySale_InsufficientStock() {
	suite.expectProductLock(decimal.NewFromInt(2))

	entry, err := suite.ledger.Apply(suite.ctx, suite.mock, suite.tenantID, suite.actorID, suite.productID,
		decimal.NewFromInt(-5), models.StockTxSale, StockCause{})

	assert.Nil(suite.T(), entry)
	var stockErr *InsufficientStockError
	assert.ErrorAs(suite.T(), err, &stockErr)
	assert.True(suite.T(), stockErr.Requested.Equal(decimal.NewFromInt(5)))
	assert.True(suite.T(), stockErr.Available.Equal(decimal.NewFromInt(2)))
	assert.Equal(suite.T(), suite.productID, stockErr.ProductID)
}

func (suite *StockLedgerTestSuite) TestApplySale_ExactStockAllowed() {
	suite.expectProductLock(decimal.NewFromInt(5))
	suite.mock.ExpectExec(`UPDATE products`).
		WithArgs(pgxmock.AnyArg(), suite.tenantID, suite.productID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`INSERT INTO inventory_transactions`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	entry, err := suite.ledger.Apply(suite.ctx, suite.mock, suite.tenantID, suite.actorID, suite.productID,
		decimal.NewFromInt(-5), models.StockTxSale, StockCause{})

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), entry.StockAfter.IsZero())
}

func (suite *StockLedgerTestSuite) TestApplyAdjustment_MayGoNegative() {
	suite.expectProductLock(decimal.NewFromInt(1))
	suite.mock.ExpectExec(`UPDATE products`).
		WithArgs(pgxmock.AnyArg(), suite.tenantID, suite.productID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`INSERT INTO inventory_transactions`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	checkID := uuid.New()
	entry, err := suite.ledger.Apply(suite.ctx, suite.mock, suite.tenantID, suite.actorID, suite.productID,
		decimal.NewFromInt(-4), models.StockTxAdjustment, StockCause{StockCheckID: &checkID})

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), entry.StockAfter.Equal(decimal.NewFromInt(-3)))
	assert.Equal(suite.T(), &checkID, entry.StockCheckID)
}

func (suite *StockLedgerTestSuite) TestApply_RejectsWrongSign() {
	cases := []struct {
		entryType string
		delta     decimal.Decimal
	}{
		{models.StockTxPurchase, decimal.NewFromInt(-1)},
		{models.StockTxPurchase, decimal.Zero},
		{models.StockTxReturn, decimal.NewFromInt(-2)},
		{models.StockTxSale, decimal.NewFromInt(3)},
		{models.StockTxSale, decimal.Zero},
		{models.StockTxAdjustment, decimal.Zero},
		{"transfer", decimal.NewFromInt(1)},
	}

	for _, tc := range cases {
		entry, err := suite.ledger.Apply(suite.ctx, suite.mock, suite.tenantID, suite.actorID, suite.productID,
			tc.delta, tc.entryType, StockCause{})
		assert.Nil(suite.T(), entry, "type %s delta %s", tc.entryType, tc.delta)
		var validationErr *ValidationError
		assert.ErrorAs(suite.T(), err, &validationErr, "type %s delta %s", tc.entryType, tc.delta)
	}
}

func (suite *StockLedgerTestSuite) TestApply_ProductNotFound() {
	suite.mock.ExpectQuery(`FROM products`).
		WithArgs(suite.tenantID, suite.productID).
		WillReturnError(pgx.ErrNoRows)

	entry, err := suite.ledger.Apply(suite.ctx, suite.mock, suite.tenantID, suite.actorID, suite.productID,
		decimal.NewFromInt(5), models.StockTxPurchase, StockCause{})

	assert.Nil(suite.T(), entry)
	assert.ErrorIs(suite.T(), err, ErrProductNotFound)
}

func (suite *StockLedgerTestSuite) TestApply_GuardedWriteMiss() {
	suite.expectProductLock(decimal.NewFromInt(10))
	suite.mock.ExpectExec(`UPDATE products`).
		WithArgs(pgxmock.AnyArg(), suite.tenantID, suite.productID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	entry, err := suite.ledger.Apply(suite.ctx, suite.mock, suite.tenantID, suite.actorID, suite.productID,
		decimal.NewFromInt(5), models.StockTxPurchase, StockCause{})

	assert.Nil(suite.T(), entry)
	assert.ErrorIs(suite.T(), err, ErrConstraintViolation)
}

func TestStockLedgerTestSuite(t *testing.T) {
	suite.Run(t, new(StockLedgerTestSuite))
}
