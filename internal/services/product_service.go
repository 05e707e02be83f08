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

type ProductServiceInterface interface {
	CreateProduct(ctx context.Context, tenantID uuid.UUID, req *CreateProductRequest) (*models.Product, error)
	GetProductByID(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error)
	UpdateProduct(ctx context.Context, tenantID, productID uuid.UUID, req *UpdateProductRequest) (*models.Product, error)
	DeactivateProduct(ctx context.Context, tenantID, productID uuid.UUID) error
	ListProducts(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Product, error)
	SearchProducts(ctx context.Context, tenantID uuid.UUID, filter *models.ProductSearchFilter) ([]*models.Product, error)
	ListLowStockProducts(ctx context.Context, tenantID uuid.UUID) ([]*models.Product, error)

	ReceiveStock(ctx context.Context, tenantID, actorID, productID uuid.UUID, quantity decimal.Decimal, reference *string) (*models.InventoryTransaction, error)
	ReturnStock(ctx context.Context, tenantID, actorID, productID uuid.UUID, quantity decimal.Decimal, reference *string) (*models.InventoryTransaction, error)
	AdjustStock(ctx context.Context, tenantID, actorID, productID uuid.UUID, delta decimal.Decimal, reference *string) (*models.InventoryTransaction, error)
	ListProductTransactions(ctx context.Context, tenantID, productID uuid.UUID, limit, offset int) ([]*models.InventoryTransaction, error)
}

type CreateProductRequest struct {
	Name         string          `json:"name"`
	Description  *string         `json:"description"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
}

// UpdateProductRequest never carries stock. Stock only moves through ledger
// entries; editing a product edits its catalog fields.
type UpdateProductRequest struct {
	Name         string          `json:"name"`
	Description  *string         `json:"description"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
	Active       bool            `json:"active"`
}

type productService struct {
	db           repositories.TxDatabase
	productRepo  repositories.ProductRepository
	invTxRepo    repositories.InventoryTransactionRepository
	stockLedger  *ledger.StockLedger
	cacheService caching.CacheService
	logger       *zap.Logger
}

func NewProductService(db repositories.TxDatabase, productRepo repositories.ProductRepository, invTxRepo repositories.InventoryTransactionRepository,
	stockLedger *ledger.StockLedger, cacheService caching.CacheService, logger *zap.Logger) ProductServiceInterface {
	return &productService{
		db:           db,
		productRepo:  productRepo,
		invTxRepo:    invTxRepo,
		stockLedger:  stockLedger,
		cacheService: cacheService,
		logger:       logger,
	}
}

func validateProductFields(name string, unitPrice, minimumStock decimal.Decimal) error {
	if name == "" {
		return &ledger.ValidationError{Field: "name", Message: "name is required"}
	}
	if unitPrice.IsNegative() {
		return &ledger.ValidationError{Field: "unit_price", Message: "unit price cannot be negative"}
	}
	if minimumStock.IsNegative() {
		return &ledger.ValidationError{Field: "minimum_stock", Message: "minimum stock cannot be negative"}
	}
	return nil
}

func (s *productService) CreateProduct(ctx context.Context, tenantID uuid.UUID, req *CreateProductRequest) (*models.Product, error) {
	if err := validateProductFields(req.Name, req.UnitPrice, req.MinimumStock); err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Name:         req.Name,
		Description:  req.Description,
		UnitPrice:    req.UnitPrice,
		CurrentStock: decimal.Zero,
		MinimumStock: req.MinimumStock,
		Active:       true,
	}
	if err := s.productRepo.Create(ctx, s.db, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

func (s *productService) GetProductByID(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error) {
	if cached, err := s.cacheService.GetProduct(ctx, tenantID, productID); err == nil && cached != nil {
		return cached, nil
	}

	product, err := s.productRepo.GetByID(ctx, s.db, tenantID, productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrProductNotFound
		}
		return nil, err
	}
	if err := s.cacheService.SetProduct(ctx, tenantID, product); err != nil {
		s.logger.Warn("product cache write failed", zap.String("product_id", productID.String()), zap.Error(err))
	}
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, tenantID, productID uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := validateProductFields(req.Name, req.UnitPrice, req.MinimumStock); err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, s.db, tenantID, productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrProductNotFound
		}
		return nil, err
	}

	product.Name = req.Name
	product.Description = req.Description
	product.UnitPrice = req.UnitPrice
	product.MinimumStock = req.MinimumStock
	product.Active = req.Active
	if err := s.productRepo.Update(ctx, s.db, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.invalidateProductCache(ctx, tenantID, productID)
	return product, nil
}

func (s *productService) DeactivateProduct(ctx context.Context, tenantID, productID uuid.UUID) error {
	if _, err := s.productRepo.GetByID(ctx, s.db, tenantID, productID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.ErrProductNotFound
		}
		return err
	}
	if err := s.productRepo.Deactivate(ctx, s.db, tenantID, productID); err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	s.invalidateProductCache(ctx, tenantID, productID)
	return nil
}

func (s *productService) ListProducts(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Product, error) {
	return s.productRepo.List(ctx, s.db, tenantID, limit, offset)
}

func (s *productService) SearchProducts(ctx context.Context, tenantID uuid.UUID, filter *models.ProductSearchFilter) ([]*models.Product, error) {
	return s.productRepo.Search(ctx, s.db, tenantID, filter)
}

func (s *productService) ListLowStockProducts(ctx context.Context, tenantID uuid.UUID) ([]*models.Product, error) {
	return s.productRepo.ListLowStock(ctx, s.db, tenantID)
}

// ReceiveStock books a delivery into inventory.
func (s *productService) ReceiveStock(ctx context.Context, tenantID, actorID, productID uuid.UUID, quantity decimal.Decimal, reference *string) (*models.InventoryTransaction, error) {
	return s.applyStockMovement(ctx, tenantID, actorID, productID, quantity, models.StockTxPurchase, reference)
}

// ReturnStock books product returned by a member back into inventory.
func (s *productService) ReturnStock(ctx context.Context, tenantID, actorID, productID uuid.UUID, quantity decimal.Decimal, reference *string) (*models.InventoryTransaction, error) {
	return s.applyStockMovement(ctx, tenantID, actorID, productID, quantity, models.StockTxReturn, reference)
}

// AdjustStock records a manual correction, positive or negative.
func (s *productService) AdjustStock(ctx context.Context, tenantID, actorID, productID uuid.UUID, delta decimal.Decimal, reference *string) (*models.InventoryTransaction, error) {
	return s.applyStockMovement(ctx, tenantID, actorID, productID, delta, models.StockTxAdjustment, reference)
}

func (s *productService) applyStockMovement(ctx context.Context, tenantID, actorID, productID uuid.UUID, delta decimal.Decimal, entryType string, reference *string) (*models.InventoryTransaction, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin stock movement: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	entry, err := s.stockLedger.Apply(ctx, tx, tenantID, actorID, productID, delta, entryType, ledger.StockCause{
		Reference: reference,
	})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit stock movement: %w", err)
	}

	s.invalidateProductCache(ctx, tenantID, productID)
	return entry, nil
}

func (s *productService) ListProductTransactions(ctx context.Context, tenantID, productID uuid.UUID, limit, offset int) ([]*models.InventoryTransaction, error) {
	return s.invTxRepo.ListByProduct(ctx, s.db, tenantID, productID, limit, offset)
}

func (s *productService) invalidateProductCache(ctx context.Context, tenantID, productID uuid.UUID) {
	if err := s.cacheService.DeleteProduct(ctx, tenantID, productID); err != nil {
		s.logger.Warn("product cache invalidation failed", zap.String("product_id", productID.String()), zap.Error(err))
	}
}
