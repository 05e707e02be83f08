package jobs

import (
	"context"
	"time"

	"cannaclub/internal/repositories"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// StockAlertScheduler periodically sweeps every tenant for products at or
// below their minimum stock and logs the findings. It replaces an inbox-style
// notification system; operators watch the structured log stream.
type StockAlertScheduler struct {
	scheduler   gocron.Scheduler
	db          repositories.Database
	productRepo repositories.ProductRepository
	tenantRepo  repositories.TenantRepository
	interval    time.Duration
	logger      *zap.Logger
}

func NewStockAlertScheduler(db repositories.Database, productRepo repositories.ProductRepository,
	tenantRepo repositories.TenantRepository, interval time.Duration, logger *zap.Logger) (*StockAlertScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	s := &StockAlertScheduler{
		scheduler:   scheduler,
		db:          db,
		productRepo: productRepo,
		tenantRepo:  tenantRepo,
		interval:    interval,
		logger:      logger,
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.sweepLowStock, context.Background()),
		gocron.WithName("low-stock-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *StockAlertScheduler) Start() {
	s.logger.Info("starting stock alert scheduler", zap.Duration("interval", s.interval))
	s.scheduler.Start()
}

func (s *StockAlertScheduler) Stop() error {
	s.logger.Info("stopping stock alert scheduler")
	return s.scheduler.Shutdown()
}

const tenantSweepPageSize = 200

func (s *StockAlertScheduler) sweepLowStock(ctx context.Context) {
	offset := 0
	for {
		tenants, err := s.tenantRepo.List(ctx, s.db, tenantSweepPageSize, offset)
		if err != nil {
			s.logger.Error("low stock sweep: list tenants failed", zap.Error(err))
			return
		}
		if len(tenants) == 0 {
			return
		}

		for _, tenant := range tenants {
			products, err := s.productRepo.ListLowStock(ctx, s.db, tenant.ID)
			if err != nil {
				s.logger.Error("low stock sweep failed",
					zap.String("tenant_id", tenant.ID.String()),
					zap.Error(err))
				continue
			}
			for _, product := range products {
				s.logger.Warn("product below minimum stock",
					zap.String("tenant_id", tenant.ID.String()),
					zap.String("product_id", product.ID.String()),
					zap.String("product_name", product.Name),
					zap.String("current_stock", product.CurrentStock.StringFixed(3)),
					zap.String("minimum_stock", product.MinimumStock.StringFixed(3)))
			}
		}
		offset += tenantSweepPageSize
	}
}
