package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cannaclub/internal/caching"
	"cannaclub/internal/ledger"
	"cannaclub/internal/models"
	"cannaclub/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type StockCheckServiceInterface interface {
	StartStockCheck(ctx context.Context, tenantID, staffID uuid.UUID, checkType string, startNotes *string) (*models.StockCheck, error)
	GetStockCheck(ctx context.Context, tenantID, checkID uuid.UUID) (*models.StockCheck, []*models.StockCheckItem, error)
	ListStockChecks(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.StockCheck, error)
	DeleteStockCheck(ctx context.Context, tenantID, checkID uuid.UUID) error
	AddItem(ctx context.Context, tenantID, checkID, productID uuid.UUID, actual *decimal.Decimal, notes *string) (*models.StockCheckItem, error)
	UpdateItemCount(ctx context.Context, tenantID, itemID uuid.UUID, actual decimal.Decimal, notes *string) (*models.StockCheckItem, error)
	CompleteStockCheck(ctx context.Context, tenantID, checkID, closedBy uuid.UUID, endNotes *string) (*models.StockCheck, error)
}

type stockCheckService struct {
	db           repositories.TxDatabase
	checkRepo    repositories.StockCheckRepository
	productRepo  repositories.ProductRepository
	stockLedger  *ledger.StockLedger
	cacheService caching.CacheService
	logger       *zap.Logger
}

func NewStockCheckService(db repositories.TxDatabase, checkRepo repositories.StockCheckRepository, productRepo repositories.ProductRepository,
	stockLedger *ledger.StockLedger, cacheService caching.CacheService, logger *zap.Logger) StockCheckServiceInterface {
	return &stockCheckService{
		db:           db,
		checkRepo:    checkRepo,
		productRepo:  productRepo,
		stockLedger:  stockLedger,
		cacheService: cacheService,
		logger:       logger,
	}
}

// StartStockCheck opens a counting session. A staff member can hold at most
// one open check-in per calendar day; check-outs are not rationed.
func (s *stockCheckService) StartStockCheck(ctx context.Context, tenantID, staffID uuid.UUID, checkType string, startNotes *string) (*models.StockCheck, error) {
	if checkType != models.StockCheckTypeCheckIn && checkType != models.StockCheckTypeCheckOut {
		return nil, &ledger.ValidationError{Field: "type", Message: fmt.Sprintf("unknown stock check type %q", checkType)}
	}

	now := time.Now()
	if checkType == models.StockCheckTypeCheckIn {
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		open, err := s.checkRepo.HasOpenCheckInSince(ctx, s.db, tenantID, staffID, midnight)
		if err != nil {
			return nil, fmt.Errorf("check open sessions: %w", err)
		}
		if open {
			return nil, &DuplicateActiveSessionError{StaffID: staffID, Date: now}
		}
	}

	check := &models.StockCheck{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Type:       checkType,
		CreatedBy:  staffID,
		CheckInAt:  now,
		StartNotes: startNotes,
	}
	if err := s.checkRepo.Create(ctx, s.db, check); err != nil {
		return nil, fmt.Errorf("create stock check: %w", err)
	}

	s.logger.Info("stock check started",
		zap.String("tenant_id", tenantID.String()),
		zap.String("stock_check_id", check.ID.String()),
		zap.String("type", checkType))
	return check, nil
}

func (s *stockCheckService) GetStockCheck(ctx context.Context, tenantID, checkID uuid.UUID) (*models.StockCheck, []*models.StockCheckItem, error) {
	check, err := s.checkRepo.GetByID(ctx, s.db, tenantID, checkID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrStockCheckNotFound
		}
		return nil, nil, err
	}
	items, err := s.checkRepo.ListItems(ctx, s.db, tenantID, checkID)
	if err != nil {
		return nil, nil, fmt.Errorf("list stock check items: %w", err)
	}
	return check, items, nil
}

func (s *stockCheckService) ListStockChecks(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.StockCheck, error) {
	return s.checkRepo.List(ctx, s.db, tenantID, limit, offset)
}

// DeleteStockCheck removes an open, empty session. Anything counted or
// completed stays for the audit trail.
func (s *stockCheckService) DeleteStockCheck(ctx context.Context, tenantID, checkID uuid.UUID) error {
	check, err := s.checkRepo.GetByID(ctx, s.db, tenantID, checkID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStockCheckNotFound
		}
		return err
	}
	if check.Completed() {
		return ErrStockCheckCompleted
	}
	count, err := s.checkRepo.CountItems(ctx, s.db, tenantID, checkID)
	if err != nil {
		return fmt.Errorf("count stock check items: %w", err)
	}
	if count > 0 {
		return ErrStockCheckNotEmpty
	}
	return s.checkRepo.Delete(ctx, s.db, tenantID, checkID)
}

// AddItem records a product into an open session. The expected quantity is
// snapshotted from the product's current stock at the moment of adding, so a
// late count compares against what the system believed then.
func (s *stockCheckService) AddItem(ctx context.Context, tenantID, checkID, productID uuid.UUID, actual *decimal.Decimal, notes *string) (*models.StockCheckItem, error) {
	check, err := s.checkRepo.GetByID(ctx, s.db, tenantID, checkID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStockCheckNotFound
		}
		return nil, err
	}
	if check.Completed() {
		return nil, ErrStockCheckCompleted
	}
	if actual != nil && actual.IsNegative() {
		return nil, &ledger.ValidationError{Field: "actual_quantity", Message: "counted quantity cannot be negative"}
	}

	product, err := s.productRepo.GetByID(ctx, s.db, tenantID, productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrProductNotFound
		}
		return nil, err
	}

	item := &models.StockCheckItem{
		ID:               uuid.New(),
		TenantID:         tenantID,
		StockCheckID:     checkID,
		ProductID:        productID,
		ExpectedQuantity: product.CurrentStock,
		ActualQuantity:   actual,
		Notes:            notes,
	}
	if actual != nil {
		d := actual.Sub(product.CurrentStock)
		item.Discrepancy = &d
	}

	inserted, err := s.checkRepo.AddItem(ctx, s.db, item)
	if err != nil {
		return nil, fmt.Errorf("add stock check item: %w", err)
	}
	if !inserted {
		return nil, ErrStockCheckItemExists
	}
	return item, nil
}

// UpdateItemCount enters or corrects the counted quantity while the parent
// session is still open. The discrepancy is recomputed against the expected
// quantity snapshot, not the product's live stock.
func (s *stockCheckService) UpdateItemCount(ctx context.Context, tenantID, itemID uuid.UUID, actual decimal.Decimal, notes *string) (*models.StockCheckItem, error) {
	if actual.IsNegative() {
		return nil, &ledger.ValidationError{Field: "actual_quantity", Message: "counted quantity cannot be negative"}
	}

	item, err := s.checkRepo.GetItemByID(ctx, s.db, tenantID, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStockCheckNotFound
		}
		return nil, err
	}
	check, err := s.checkRepo.GetByID(ctx, s.db, tenantID, item.StockCheckID)
	if err != nil {
		return nil, fmt.Errorf("load stock check: %w", err)
	}
	if check.Completed() {
		return nil, ErrStockCheckCompleted
	}

	discrepancy := actual.Sub(item.ExpectedQuantity)
	if err := s.checkRepo.UpdateItemCount(ctx, s.db, tenantID, itemID, actual, discrepancy, notes); err != nil {
		return nil, fmt.Errorf("update stock check item: %w", err)
	}
	item.ActualQuantity = &actual
	item.Discrepancy = &discrepancy
	if notes != nil {
		item.Notes = notes
	}
	return item, nil
}

// CompleteStockCheck closes the session in one transaction. For a check-out
// every non-zero discrepancy becomes a stock adjustment so the system totals
// agree with the physical count; a check-in only records what was counted.
func (s *stockCheckService) CompleteStockCheck(ctx context.Context, tenantID, checkID, closedBy uuid.UUID, endNotes *string) (*models.StockCheck, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin stock check completion: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	check, err := s.checkRepo.GetByIDForUpdate(ctx, tx, tenantID, checkID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStockCheckNotFound
		}
		return nil, err
	}
	if check.Completed() {
		return nil, ErrStockCheckCompleted
	}

	uncounted, err := s.checkRepo.CountUncountedItems(ctx, tx, tenantID, checkID)
	if err != nil {
		return nil, fmt.Errorf("count uncounted items: %w", err)
	}
	if uncounted > 0 {
		return nil, &IncompleteStockCheckError{StockCheckID: checkID, Uncounted: uncounted}
	}

	items, err := s.checkRepo.ListItems(ctx, tx, tenantID, checkID)
	if err != nil {
		return nil, fmt.Errorf("list stock check items: %w", err)
	}

	// Lock order follows sorted product IDs, same as checkout.
	sort.Slice(items, func(i, j int) bool {
		return items[i].ProductID.String() < items[j].ProductID.String()
	})

	total := decimal.Zero
	adjustedProducts := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.Discrepancy == nil {
			return nil, &IncompleteStockCheckError{StockCheckID: checkID, Uncounted: 1}
		}
		total = total.Add(*item.Discrepancy)
		if check.Type != models.StockCheckTypeCheckOut || item.Discrepancy.IsZero() {
			continue
		}
		if _, err := s.stockLedger.Apply(ctx, tx, tenantID, closedBy, item.ProductID, *item.Discrepancy, models.StockTxAdjustment, ledger.StockCause{
			StockCheckID: &checkID,
		}); err != nil {
			return nil, err
		}
		adjustedProducts = append(adjustedProducts, item.ProductID)
	}

	closed, err := s.checkRepo.Complete(ctx, tx, tenantID, checkID, closedBy, endNotes, total)
	if err != nil {
		return nil, fmt.Errorf("close stock check: %w", err)
	}
	if !closed {
		return nil, ErrStockCheckCompleted
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit stock check completion: %w", err)
	}

	for _, pid := range adjustedProducts {
		if err := s.cacheService.DeleteProduct(ctx, tenantID, pid); err != nil {
			s.logger.Warn("product cache invalidation failed", zap.String("product_id", pid.String()), zap.Error(err))
		}
	}

	now := time.Now()
	check.CheckOutAt = &now
	check.ClosedBy = &closedBy
	if endNotes != nil {
		check.EndNotes = endNotes
	}
	check.TotalDiscrepancy = total

	s.logger.Info("stock check completed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("stock_check_id", checkID.String()),
		zap.String("type", check.Type),
		zap.String("total_discrepancy", total.StringFixed(3)),
		zap.Int("adjustments", len(adjustedProducts)))
	return check, nil
}
