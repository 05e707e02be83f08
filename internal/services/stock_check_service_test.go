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
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type StockCheckServiceTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	service  StockCheckServiceInterface
	tenantID uuid.UUID
	staffID  uuid.UUID
	checkID  uuid.UUID
	ctx      context.Context
}

func (suite *StockCheckServiceTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	logger := zap.NewNop()
	productRepo := repositories.NewProductRepo()
	suite.service = NewStockCheckService(
		mock,
		repositories.NewStockCheckRepo(),
		productRepo,
		ledger.NewStockLedger(productRepo, repositories.NewInventoryTransactionRepo(), logger),
		caching.NewNoopCacheService(),
		logger,
	)

	suite.tenantID = uuid.New()
	suite.staffID = uuid.New()
	suite.checkID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *StockCheckServiceTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func (suite *StockCheckServiceTestSuite) checkRow(checkType string, checkOutAt *time.Time) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{"id", "tenant_id", "type", "created_by", "closed_by", "check_in_at", "check_out_at", "start_notes", "end_notes", "total_discrepancy", "created_at", "updated_at"}).
		AddRow(suite.checkID, suite.tenantID, checkType, suite.staffID, (*uuid.UUID)(nil), now.Add(-time.Hour), checkOutAt, (*string)(nil), (*string)(nil), decimal.Zero, now, now)
}

func (suite *StockCheckServiceTestSuite) itemRows(items ...*models.StockCheckItem) *pgxmock.Rows {
	now := time.Now()
	rows := pgxmock.NewRows([]string{"id", "tenant_id", "stock_check_id", "product_id", "expected_quantity", "actual_quantity", "discrepancy", "notes", "created_at", "updated_at"})
	for _, item := range items {
		rows.AddRow(item.ID, suite.tenantID, suite.checkID, item.ProductID, item.ExpectedQuantity, item.ActualQuantity, item.Discrepancy, (*string)(nil), now, now)
	}
	return rows
}

func countedItem(productID uuid.UUID, expected, actual decimal.Decimal) *models.StockCheckItem {
	discrepancy := actual.Sub(expected)
	return &models.StockCheckItem{
		ID:               uuid.New(),
		ProductID:        productID,
		ExpectedQuantity: expected,
		ActualQuantity:   &actual,
		Discrepancy:      &discrepancy,
	}
}

func (suite *StockCheckServiceTestSuite) TestStartStockCheck_DuplicateCheckIn() {
	suite.mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(suite.tenantID, suite.staffID, models.StockCheckTypeCheckIn, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	check, err := suite.service.StartStockCheck(suite.ctx, suite.tenantID, suite.staffID, models.StockCheckTypeCheckIn, nil)

	assert.Nil(suite.T(), check)
	var dupErr *DuplicateActiveSessionError
	assert.ErrorAs(suite.T(), err, &dupErr)
	assert.Equal(suite.T(), suite.staffID, dupErr.StaffID)
}

func (suite *StockCheckServiceTestSuite) TestStartStockCheck_CheckOutSkipsSessionGuard() {
	suite.mock.ExpectExec(`INSERT INTO stock_checks`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	check, err := suite.service.StartStockCheck(suite.ctx, suite.tenantID, suite.staffID, models.StockCheckTypeCheckOut, nil)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.StockCheckTypeCheckOut, check.Type)
	assert.Equal(suite.T(), suite.staffID, check.CreatedBy)
}

func (suite *StockCheckServiceTestSuite) TestStartStockCheck_UnknownType() {
	check, err := suite.service.StartStockCheck(suite.ctx, suite.tenantID, suite.staffID, "inventory", nil)

	assert.Nil(suite.T(), check)
	var validationErr *ledger.ValidationError
	assert.ErrorAs(suite.T(), err, &validationErr)
}

func (suite *StockCheckServiceTestSuite) TestAddItem_Duplicate() {
	productID := uuid.New()
	now := time.Now()

	suite.mock.ExpectQuery(`FROM stock_checks`).
		WithArgs(suite.tenantID, suite.checkID).
		WillReturnRows(suite.checkRow(models.StockCheckTypeCheckIn, nil))
	suite.mock.ExpectQuery(`FROM products`).
		WithArgs(suite.tenantID, productID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "tenant_id", "name", "description", "unit_price", "current_stock", "minimum_stock", "active", "created_at", "updated_at"}).
			AddRow(productID, suite.tenantID, "Amnesia Haze", (*string)(nil), decimal.NewFromInt(9), decimal.NewFromInt(10), decimal.NewFromInt(2), true, now, now))
	suite.mock.ExpectExec(`INSERT INTO stock_check_items`).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	item, err := suite.service.AddItem(suite.ctx, suite.tenantID, suite.checkID, productID, nil, nil)

	assert.Nil(suite.T(), item)
	assert.ErrorIs(suite.T(), err, ErrStockCheckItemExists)
}

func (suite *StockCheckServiceTestSuite) TestAddItem_SnapshotsExpectedQuantity() {
	productID := uuid.New()
	now := time.Now()
	actual := decimal.NewFromInt(7)

	suite.mock.ExpectQuery(`FROM stock_checks`).
		WithArgs(suite.tenantID, suite.checkID).
		WillReturnRows(suite.checkRow(models.StockCheckTypeCheckOut, nil))
	suite.mock.ExpectQuery(`FROM products`).
		WithArgs(suite.tenantID, productID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "tenant_id", "name", "description", "unit_price", "current_stock", "minimum_stock", "active", "created_at", "updated_at"}).
			AddRow(productID, suite.tenantID, "Amnesia Haze", (*string)(nil), decimal.NewFromInt(9), decimal.NewFromInt(10), decimal.NewFromInt(2), true, now, now))
	suite.mock.ExpectExec(`INSERT INTO stock_check_items`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	item, err := suite.service.AddItem(suite.ctx, suite.tenantID, suite.checkID, productID, &actual, nil)

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), item.ExpectedQuantity.Equal(decimal.NewFromInt(10)))
	assert.True(suite.T(), item.Discrepancy.Equal(decimal.NewFromInt(-3)))
}

func (suite *StockCheckServiceTestSuite) TestDeleteStockCheck_NotEmpty() {
	suite.mock.ExpectQuery(`FROM stock_checks`).
		WithArgs(suite.tenantID, suite.checkID).
		WillReturnRows(suite.checkRow(models.StockCheckTypeCheckIn, nil))
	suite.mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(suite.tenantID, suite.checkID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	err := suite.service.DeleteStockCheck(suite.ctx, suite.tenantID, suite.checkID)

	assert.ErrorIs(suite.T(), err, ErrStockCheckNotEmpty)
}

func (suite *StockCheckServiceTestSuite) TestCompleteStockCheck_UncountedItemsRollBack() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`FROM stock_checks`).
		WithArgs(suite.tenantID, suite.checkID).
		WillReturnRows(suite.checkRow(models.StockCheckTypeCheckOut, nil))
	suite.mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(suite.tenantID, suite.checkID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	suite.mock.ExpectRollback()

	check, err := suite.service.CompleteStockCheck(suite.ctx, suite.tenantID, suite.checkID, suite.staffID, nil)

	assert.Nil(suite.T(), check)
	var incompleteErr *IncompleteStockCheckError
	assert.ErrorAs(suite.T(), err, &incompleteErr)
	assert.Equal(suite.T(), 2, incompleteErr.Uncounted)
}

func (suite *StockCheckServiceTestSuite) TestCompleteStockCheck_AlreadyCompleted() {
	closedAt := time.Now().Add(-time.Minute)

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`FROM stock_checks`).
		WithArgs(suite.tenantID, suite.checkID).
		WillReturnRows(suite.checkRow(models.StockCheckTypeCheckIn, &closedAt))
	suite.mock.ExpectRollback()

	check, err := suite.service.CompleteStockCheck(suite.ctx, suite.tenantID, suite.checkID, suite.staffID, nil)

	assert.Nil(suite.T(), check)
	assert.ErrorIs(suite.T(), err, ErrStockCheckCompleted)
}

func (suite *StockCheckServiceTestSuite) TestCompleteStockCheck_CheckOutAppliesAdjustments() {
	matched := countedItem(uuid.MustParse("11111111-1111-1111-1111-111111111111"), decimal.NewFromInt(5), decimal.NewFromInt(5))
	short := countedItem(uuid.MustParse("22222222-2222-2222-2222-222222222222"), decimal.NewFromInt(8), decimal.NewFromInt(6))
	now := time.Now()

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`FROM stock_checks`).
		WithArgs(suite.tenantID, suite.checkID).
		WillReturnRows(suite.checkRow(models.StockCheckTypeCheckOut, nil))
	suite.mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(suite.tenantID, suite.checkID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	suite.mock.ExpectQuery(`FROM stock_check_items`).
		WithArgs(suite.tenantID, suite.checkID).
		WillReturnRows(suite.itemRows(matched, short))
	// Only the item with a discrepancy produces a ledger adjustment.
	suite.mock.ExpectQuery(`FROM products`).
		WithArgs(suite.tenantID, short.ProductID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "tenant_id", "name", "description", "unit_price", "current_stock", "minimum_stock", "active", "created_at", "updated_at"}).
			AddRow(short.ProductID, suite.tenantID, "Lemon Skunk", (*string)(nil), decimal.NewFromInt(7), decimal.NewFromInt(8), decimal.NewFromInt(2), true, now, now))
	suite.mock.ExpectExec(`UPDATE products`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`INSERT INTO inventory_transactions`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectExec(`UPDATE stock_checks`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectCommit()

	check, err := suite.service.CompleteStockCheck(suite.ctx, suite.tenantID, suite.checkID, suite.staffID, nil)

	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), check.CheckOutAt)
	assert.Equal(suite.T(), suite.staffID, *check.ClosedBy)
	assert.True(suite.T(), check.TotalDiscrepancy.Equal(decimal.NewFromInt(-2)))
}

func (suite *StockCheckServiceTestSuite) TestCompleteStockCheck_CheckInRecordsWithoutAdjusting() {
	short := countedItem(uuid.New(), decimal.NewFromInt(8), decimal.NewFromInt(6))

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`FROM stock_checks`).
		WithArgs(suite.tenantID, suite.checkID).
		WillReturnRows(suite.checkRow(models.StockCheckTypeCheckIn, nil))
	suite.mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(suite.tenantID, suite.checkID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	suite.mock.ExpectQuery(`FROM stock_check_items`).
		WithArgs(suite.tenantID, suite.checkID).
		WillReturnRows(suite.itemRows(short))
	suite.mock.ExpectExec(`UPDATE stock_checks`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectCommit()

	check, err := suite.service.CompleteStockCheck(suite.ctx, suite.tenantID, suite.checkID, suite.staffID, nil)

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), check.TotalDiscrepancy.Equal(decimal.NewFromInt(-2)))
}

func (suite *StockCheckServiceTestSuite) TestCompleteStockCheck_LostGuardedUpdate() {
	short := countedItem(uuid.New(), decimal.NewFromInt(8), decimal.NewFromInt(8))

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`FROM stock_checks`).
		WithArgs(suite.tenantID, suite.checkID).
		WillReturnRows(suite.checkRow(models.StockCheckTypeCheckOut, nil))
	suite.mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(suite.tenantID, suite.checkID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	suite.mock.ExpectQuery(`FROM stock_check_items`).
		WithArgs(suite.tenantID, suite.checkID).
		WillReturnRows(suite.itemRows(short))
	suite.mock.ExpectExec(`UPDATE stock_checks`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	suite.mock.ExpectRollback()

	check, err := suite.service.CompleteStockCheck(suite.ctx, suite.tenantID, suite.checkID, suite.staffID, nil)

	assert.Nil(suite.T(), check)
	assert.ErrorIs(suite.T(), err, ErrStockCheckCompleted)
}

func TestStockCheckServiceTestSuite(t *testing.T) {
	suite.Run(t, new(StockCheckServiceTestSuite))
}
