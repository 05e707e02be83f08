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
	"github.com/labstack/gommon/random"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderServiceInterface defines the checkout orchestrator surface.
type OrderServiceInterface interface {
	CreateOrder(ctx context.Context, tenantID uuid.UUID, req *CreateOrderRequest) (*models.Order, error)
	GetOrderByID(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Order, error)
	ListOrdersByMember(ctx context.Context, tenantID, memberID uuid.UUID, limit, offset int) ([]*models.Order, error)
}

// CreateOrderRequest is a point-of-sale checkout. Prices are resolved
// server-side from the product at call time; the caller only picks products
// and quantities.
type CreateOrderRequest struct {
	MemberID      uuid.UUID       `json:"member_id"`
	StaffID       uuid.UUID       `json:"staff_id"`
	Items         []OrderLineItem `json:"items"`
	PaymentMethod string          `json:"payment_method"`
	Notes         *string         `json:"notes"`
}

type OrderLineItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

const orderNumberAttempts = 8

type orderService struct {
	db            repositories.TxDatabase
	orderRepo     repositories.OrderRepository
	orderItemRepo repositories.OrderItemRepository
	productRepo   repositories.ProductRepository
	walletRepo    repositories.WalletRepository
	stockLedger   *ledger.StockLedger
	walletLedger  *ledger.WalletLedger
	cacheService  caching.CacheService
	taxRate       decimal.Decimal
	logger        *zap.Logger
}

// NewOrderService creates the checkout orchestrator. taxRate is a fraction
// (e.g. 0.21); pass decimal.Zero for tax-exempt club sales.
func NewOrderService(db repositories.TxDatabase, orderRepo repositories.OrderRepository, orderItemRepo repositories.OrderItemRepository,
	productRepo repositories.ProductRepository, walletRepo repositories.WalletRepository,
	stockLedger *ledger.StockLedger, walletLedger *ledger.WalletLedger,
	cacheService caching.CacheService, taxRate decimal.Decimal, logger *zap.Logger) OrderServiceInterface {
	return &orderService{
		db:            db,
		orderRepo:     orderRepo,
		orderItemRepo: orderItemRepo,
		productRepo:   productRepo,
		walletRepo:    walletRepo,
		stockLedger:   stockLedger,
		walletLedger:  walletLedger,
		cacheService:  cacheService,
		taxRate:       taxRate,
		logger:        logger,
	}
}

func validateCreateOrder(req *CreateOrderRequest) error {
	if req == nil {
		return &ledger.ValidationError{Field: "request", Message: "request is required"}
	}
	if req.MemberID == uuid.Nil {
		return &ledger.ValidationError{Field: "member_id", Message: "member is required"}
	}
	if req.StaffID == uuid.Nil {
		return &ledger.ValidationError{Field: "staff_id", Message: "staff is required"}
	}
	if req.PaymentMethod == "" {
		return &ledger.ValidationError{Field: "payment_method", Message: "payment method is required"}
	}
	if len(req.Items) == 0 {
		return &ledger.ValidationError{Field: "items", Message: "at least one line item is required"}
	}
	seen := make(map[uuid.UUID]bool, len(req.Items))
	for _, item := range req.Items {
		if item.ProductID == uuid.Nil {
			return &ledger.ValidationError{Field: "items", Message: "product is required on every line item"}
		}
		if !item.Quantity.IsPositive() {
			return &ledger.ValidationError{Field: "items", Message: "quantity must be positive"}
		}
		if seen[item.ProductID] {
			return &ledger.ValidationError{Field: "items", Message: fmt.Sprintf("product %s appears on more than one line item", item.ProductID)}
		}
		seen[item.ProductID] = true
	}
	return nil
}

// CreateOrder composes the wallet debit and the per-item stock decrements
// into one database transaction. Any failure, from a missing product to an
// insufficient balance, rolls everything back; a failed checkout leaves no
// trace in either ledger.
func (s *orderService) CreateOrder(ctx context.Context, tenantID uuid.UUID, req *CreateOrderRequest) (*models.Order, error) {
	if err := validateCreateOrder(req); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin checkout: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock products in sorted-UUID order so two overlapping checkouts
	// cannot deadlock on each other.
	itemsByProduct := make(map[uuid.UUID]OrderLineItem, len(req.Items))
	productIDs := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		itemsByProduct[item.ProductID] = item
		productIDs = append(productIDs, item.ProductID)
	}
	sort.Slice(productIDs, func(i, j int) bool {
		return productIDs[i].String() < productIDs[j].String()
	})

	products := make(map[uuid.UUID]*models.Product, len(productIDs))
	for _, pid := range productIDs {
		product, err := s.productRepo.GetByIDForUpdate(ctx, tx, tenantID, pid)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("product %s: %w", pid, ledger.ErrProductNotFound)
			}
			return nil, fmt.Errorf("lock product %s: %w", pid, err)
		}
		if !product.Active {
			return nil, &ledger.ValidationError{Field: "items", Message: fmt.Sprintf("product %q is not for sale", product.Name)}
		}
		products[pid] = product
	}

	subtotal := decimal.Zero
	for _, pid := range productIDs {
		item := itemsByProduct[pid]
		product := products[pid]
		if product.CurrentStock.LessThan(item.Quantity) {
			return nil, &ledger.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   item.Quantity,
				Available:   product.CurrentStock,
			}
		}
		subtotal = subtotal.Add(product.UnitPrice.Mul(item.Quantity))
	}
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(s.taxRate).Round(2)
	total := subtotal.Add(tax)

	wallet, err := s.walletRepo.GetByUserID(ctx, tx, tenantID, req.MemberID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrWalletNotFound
		}
		return nil, fmt.Errorf("resolve member wallet: %w", err)
	}

	orderNumber, err := s.generateOrderNumber(ctx, tx, tenantID)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:            uuid.New(),
		TenantID:      tenantID,
		OrderNumber:   orderNumber,
		MemberID:      req.MemberID,
		StaffID:       req.StaffID,
		Subtotal:      subtotal,
		Tax:           tax,
		Total:         total,
		PaymentMethod: req.PaymentMethod,
		Status:        models.OrderStatusPending,
		Notes:         req.Notes,
	}
	if err := s.orderRepo.Create(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	paymentMethod := req.PaymentMethod
	if _, err := s.walletLedger.Withdraw(ctx, tx, tenantID, req.StaffID, wallet.ID, total, models.WalletTxPurchase, ledger.WalletCause{
		OrderID:       &order.ID,
		PaymentMethod: &paymentMethod,
	}); err != nil {
		return nil, err
	}

	items := make([]*models.OrderItem, 0, len(productIDs))
	for _, pid := range productIDs {
		item := itemsByProduct[pid]
		product := products[pid]

		if _, err := s.stockLedger.Apply(ctx, tx, tenantID, req.StaffID, pid, item.Quantity.Neg(), models.StockTxSale, ledger.StockCause{
			OrderID: &order.ID,
		}); err != nil {
			return nil, err
		}

		orderItem := &models.OrderItem{
			ID:          uuid.New(),
			TenantID:    tenantID,
			OrderID:     order.ID,
			ProductID:   pid,
			ProductName: product.Name,
			UnitPrice:   product.UnitPrice,
			Quantity:    item.Quantity,
			Subtotal:    product.UnitPrice.Mul(item.Quantity).Round(2),
		}
		if err := s.orderItemRepo.Create(ctx, tx, orderItem); err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, orderItem)
	}

	if err := s.orderRepo.MarkCompleted(ctx, tx, tenantID, order.ID); err != nil {
		return nil, fmt.Errorf("complete order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit checkout: %w", err)
	}

	now := time.Now()
	order.Status = models.OrderStatusCompleted
	order.CompletedAt = &now
	order.Items = items

	s.invalidateCaches(ctx, tenantID, wallet.UserID, productIDs)

	s.logger.Info("order completed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", total.StringFixed(2)),
		zap.Int("items", len(items)))

	return order, nil
}

// generateOrderNumber draws random tenant-unique tokens rather than a
// sequence, so one tenant cannot infer another's order volume.
func (s *orderService) generateOrderNumber(ctx context.Context, db repositories.Database, tenantID uuid.UUID) (string, error) {
	for i := 0; i < orderNumberAttempts; i++ {
		candidate := "ORD-" + random.String(10, random.Uppercase, random.Numeric)
		exists, err := s.orderRepo.OrderNumberExists(ctx, db, tenantID, candidate)
		if err != nil {
			return "", fmt.Errorf("check order number: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("generate order number: %w", ledger.ErrConstraintViolation)
}

func (s *orderService) invalidateCaches(ctx context.Context, tenantID, memberID uuid.UUID, productIDs []uuid.UUID) {
	if err := s.cacheService.DeleteWallet(ctx, tenantID, memberID); err != nil {
		s.logger.Warn("wallet cache invalidation failed", zap.String("member_id", memberID.String()), zap.Error(err))
	}
	for _, pid := range productIDs {
		if err := s.cacheService.DeleteProduct(ctx, tenantID, pid); err != nil {
			s.logger.Warn("product cache invalidation failed", zap.String("product_id", pid.String()), zap.Error(err))
		}
	}
}

func (s *orderService) GetOrderByID(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, s.db, tenantID, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	items, err := s.orderItemRepo.ListByOrder(ctx, s.db, tenantID, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	order.Items = items
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Order, error) {
	return s.orderRepo.List(ctx, s.db, tenantID, limit, offset)
}

func (s *orderService) ListOrdersByMember(ctx context.Context, tenantID, memberID uuid.UUID, limit, offset int) ([]*models.Order, error) {
	return s.orderRepo.ListByMember(ctx, s.db, tenantID, memberID, limit, offset)
}
