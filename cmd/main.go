package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cannaclub/internal/caching"
	"cannaclub/internal/handlers"
	"cannaclub/internal/jobs"
	"cannaclub/internal/ledger"
	"cannaclub/internal/middleware"
	"cannaclub/internal/repositories"
	"cannaclub/internal/services"
	"cannaclub/internal/util"
	"cannaclub/pkg/database"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	if err := util.InitLogger(os.Getenv("APP_ENV")); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()
	logger := util.GetLogger()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(context.Background(), databaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32)
		logger.Warn("JWT_SECRET not set, using generated development secret")
	}

	tokenTTL := 24 * time.Hour
	if raw := os.Getenv("JWT_TTL_HOURS"); raw != "" {
		if hours, err := strconv.Atoi(raw); err == nil && hours > 0 {
			tokenTTL = time.Duration(hours) * time.Hour
		}
	}

	taxRate := decimal.Zero
	if raw := os.Getenv("TAX_RATE"); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil || rate.IsNegative() {
			logger.Fatal("TAX_RATE must be a non-negative decimal fraction", zap.String("value", raw))
		}
		taxRate = rate
	}

	var cacheService caching.CacheService
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		redisDB := 0
		if raw := os.Getenv("REDIS_DB"); raw != "" {
			if db, err := strconv.Atoi(raw); err == nil {
				redisDB = db
			}
		}
		cacheService = caching.NewRedisCacheService(redisAddr, os.Getenv("REDIS_PASSWORD"), redisDB, logger)
	} else {
		logger.Warn("REDIS_ADDR not set, running without cache")
		cacheService = caching.NewNoopCacheService()
	}

	// Repositories
	tenantRepo := repositories.NewTenantRepo()
	userRepo := repositories.NewUserRepo()
	productRepo := repositories.NewProductRepo()
	invTxRepo := repositories.NewInventoryTransactionRepo()
	walletRepo := repositories.NewWalletRepo()
	walletTxRepo := repositories.NewWalletTransactionRepo()
	orderRepo := repositories.NewOrderRepo()
	orderItemRepo := repositories.NewOrderItemRepo()
	stockCheckRepo := repositories.NewStockCheckRepo()
	auditLogsRepo := repositories.NewAuditLogsRepo()

	// Ledgers
	stockLedger := ledger.NewStockLedger(productRepo, invTxRepo, logger)
	walletLedger := ledger.NewWalletLedger(walletRepo, walletTxRepo, logger)

	// Services
	tenantService := services.NewTenantService(pool, tenantRepo)
	memberService := services.NewMemberService(pool, userRepo, walletRepo, logger)
	rbacService := services.NewRBACService(pool, userRepo)
	productService := services.NewProductService(pool, productRepo, invTxRepo, stockLedger, cacheService, logger)
	walletService := services.NewWalletService(pool, walletRepo, walletTxRepo, userRepo, walletLedger, cacheService, logger)
	orderService := services.NewOrderService(pool, orderRepo, orderItemRepo, productRepo, walletRepo, stockLedger, walletLedger, cacheService, taxRate, logger)
	stockCheckService := services.NewStockCheckService(pool, stockCheckRepo, productRepo, stockLedger, cacheService, logger)
	auditLogsService := services.NewAuditLogsService(pool, auditLogsRepo, logger)

	// Handlers
	tenantHandlers := handlers.NewTenantHandlers(tenantService)
	memberHandlers := handlers.NewMemberHandlers(memberService, jwtSecret, tokenTTL)
	productHandlers := handlers.NewProductHandlers(productService)
	walletHandlers := handlers.NewWalletHandlers(walletService)
	orderHandlers := handlers.NewOrderHandlers(orderService)
	stockCheckHandlers := handlers.NewStockCheckHandlers(stockCheckService)
	auditLogsHandlers := handlers.NewAuditLogsHandlers(auditLogsService)
	healthHandlers := handlers.NewHealthHandlers(pool)

	rbacMiddleware := middleware.NewRBACMiddleware(rbacService)
	auditMiddleware := middleware.NewAuditMiddleware(auditLogsService)

	jwtConfig := echojwt.Config{
		SigningKey: []byte(jwtSecret),
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(401, "Invalid token")
		},
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)

	v1 := e.Group("/v1")

	// Public routes
	v1.POST("/auth/login", memberHandlers.Login)
	v1.POST("/tenants", tenantHandlers.CreateTenant)
	v1.GET("/tenants/by-subdomain/:subdomain", tenantHandlers.GetTenantBySubdomain)

	// Protected routes
	protected := v1.Group("")
	protected.Use(echojwt.WithConfig(jwtConfig))
	protected.Use(middleware.ResolveIdentity(pool, userRepo))
	protected.Use(auditMiddleware.AuditMutations())

	protected.GET("/tenants/:id", tenantHandlers.GetTenant)
	protected.PUT("/tenants/:id", tenantHandlers.UpdateTenant, rbacMiddleware.RequirePermission(services.PermTenantManage))

	protected.POST("/members", memberHandlers.CreateMember, rbacMiddleware.RequirePermission(services.PermMembersManage))
	protected.GET("/members", memberHandlers.ListMembers, rbacMiddleware.RequirePermission(services.PermMembersRead))
	protected.GET("/members/:id", memberHandlers.GetMember, rbacMiddleware.RequirePermission(services.PermMembersRead))
	protected.PUT("/members/:id", memberHandlers.UpdateMember, rbacMiddleware.RequirePermission(services.PermMembersManage))

	protected.GET("/products", productHandlers.ListProducts, rbacMiddleware.RequirePermission(services.PermProductsRead))
	protected.GET("/products/low-stock", productHandlers.LowStockProducts, rbacMiddleware.RequirePermission(services.PermProductsRead))
	protected.POST("/products", productHandlers.CreateProduct, rbacMiddleware.RequirePermission(services.PermProductsWrite))
	protected.GET("/products/:id", productHandlers.GetProduct, rbacMiddleware.RequirePermission(services.PermProductsRead))
	protected.PUT("/products/:id", productHandlers.UpdateProduct, rbacMiddleware.RequirePermission(services.PermProductsWrite))
	protected.DELETE("/products/:id", productHandlers.DeactivateProduct, rbacMiddleware.RequirePermission(services.PermProductsWrite))
	protected.POST("/products/:id/receive", productHandlers.ReceiveStock, rbacMiddleware.RequirePermission(services.PermStockWrite))
	protected.POST("/products/:id/return", productHandlers.ReturnStock, rbacMiddleware.RequirePermission(services.PermStockWrite))
	protected.POST("/products/:id/adjust", productHandlers.AdjustStock, rbacMiddleware.RequirePermission(services.PermStockWrite))
	protected.GET("/products/:id/transactions", productHandlers.ListProductTransactions, rbacMiddleware.RequirePermission(services.PermProductsRead))

	protected.POST("/wallets", walletHandlers.CreateWallet, rbacMiddleware.RequirePermission(services.PermWalletsManage))
	protected.GET("/wallets", walletHandlers.ListWallets, rbacMiddleware.RequirePermission(services.PermWalletsManage))
	protected.GET("/wallets/me", walletHandlers.GetMyWallet, rbacMiddleware.RequirePermission(services.PermWalletsRead))
	protected.GET("/wallets/:id", walletHandlers.GetWallet, rbacMiddleware.RequirePermission(services.PermWalletsManage))
	protected.POST("/wallets/:id/deposit", walletHandlers.Deposit, rbacMiddleware.RequirePermission(services.PermWalletsManage))
	protected.POST("/wallets/:id/withdraw", walletHandlers.Withdraw, rbacMiddleware.RequirePermission(services.PermWalletsManage))
	protected.GET("/wallets/:id/transactions", walletHandlers.ListTransactions, rbacMiddleware.RequirePermission(services.PermWalletsManage))

	protected.POST("/orders", orderHandlers.CreateOrder, rbacMiddleware.RequirePermission(services.PermOrdersCreate))
	protected.GET("/orders", orderHandlers.ListOrders, rbacMiddleware.RequirePermission(services.PermOrdersRead))
	protected.GET("/orders/:id", orderHandlers.GetOrder, rbacMiddleware.RequirePermission(services.PermOrdersRead))

	protected.POST("/stock-checks", stockCheckHandlers.StartStockCheck, rbacMiddleware.RequirePermission(services.PermStockCheck))
	protected.GET("/stock-checks", stockCheckHandlers.ListStockChecks, rbacMiddleware.RequirePermission(services.PermStockCheck))
	protected.GET("/stock-checks/:id", stockCheckHandlers.GetStockCheck, rbacMiddleware.RequirePermission(services.PermStockCheck))
	protected.DELETE("/stock-checks/:id", stockCheckHandlers.DeleteStockCheck, rbacMiddleware.RequirePermission(services.PermStockCheck))
	protected.POST("/stock-checks/:id/items", stockCheckHandlers.AddItem, rbacMiddleware.RequirePermission(services.PermStockCheck))
	protected.PUT("/stock-checks/items/:item_id", stockCheckHandlers.UpdateItem, rbacMiddleware.RequirePermission(services.PermStockCheck))
	protected.POST("/stock-checks/:id/complete", stockCheckHandlers.CompleteStockCheck, rbacMiddleware.RequirePermission(services.PermStockCheck))

	protected.GET("/audit-logs", auditLogsHandlers.ListAuditLogs, rbacMiddleware.RequirePermission(services.PermAuditLogsRead))

	// Background jobs
	sweepInterval := 30 * time.Minute
	if raw := os.Getenv("STOCK_ALERT_INTERVAL_MINUTES"); raw != "" {
		if minutes, err := strconv.Atoi(raw); err == nil && minutes > 0 {
			sweepInterval = time.Duration(minutes) * time.Minute
		}
	}
	alertScheduler, err := jobs.NewStockAlertScheduler(pool, productRepo, tenantRepo, sweepInterval, logger)
	if err != nil {
		logger.Fatal("Failed to create stock alert scheduler", zap.Error(err))
	}
	alertScheduler.Start()
	defer func() { _ = alertScheduler.Stop() }()

	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		logger.Fatal("Invalid port", zap.String("port", portStr), zap.Error(err))
	}

	logger.Info("starting server", zap.String("version", version), zap.Int("port", port))
	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
