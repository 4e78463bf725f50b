package router

import (
	"time"

	"distriflow/internal/config"
	"distriflow/internal/handler"
	"distriflow/internal/middleware"
	"distriflow/internal/permission"
	"distriflow/internal/repository"
	"distriflow/internal/service"
	"distriflow/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())

	// ── Repositories ─────────────────────────────────────────────────────────
	tenantRepo := repository.NewTenantRepository(db)
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	lotRepo := repository.NewLotRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	bankTxRepo := repository.NewBankTransactionRepository(db)
	wastageRepo := repository.NewWastageRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	ledger := service.NewStockLedger(lotRepo)
	authSvc := service.NewAuthService(userRepo, tenantRepo, dispatcher, dispatcher,
		cfg.JWTSecret,
		time.Duration(cfg.JWTExpirationHours)*time.Hour,
		time.Duration(cfg.ResetTokenTTL)*time.Second)
	inventorySvc := service.NewInventoryService(wastageRepo, orderRepo, productRepo, ledger, dispatcher)
	productSvc := service.NewProductService(productRepo, ledger, inventorySvc, dispatcher)
	supplierSvc := service.NewSupplierService(supplierRepo, dispatcher)
	orderSvc := service.NewOrderService(orderRepo, lotRepo, productRepo, supplierRepo, ledger, dispatcher)
	paymentSvc := service.NewPaymentService(paymentRepo, saleRepo, dispatcher)
	saleSvc := service.NewSaleService(saleRepo, productRepo, paymentRepo, ledger, dispatcher)
	reconciliationSvc := service.NewReconciliationService(bankTxRepo, saleRepo, paymentSvc, dispatcher)
	activitySvc := service.NewActivityService(activityRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	productsH := handler.NewProductsHandler(productSvc)
	suppliersH := handler.NewSuppliersHandler(supplierSvc)
	salesH := handler.NewSalesHandler(saleSvc, paymentSvc)
	ordersH := handler.NewOrdersHandler(orderSvc)
	wastageH := handler.NewWastageHandler(inventorySvc)
	reconciliationH := handler.NewReconciliationHandler(reconciliationSvc)
	shopifyH := handler.NewShopifyHandler(saleSvc, tenantRepo)
	activityH := handler.NewActivityHandler(activitySvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Unauthenticated routes share the per-IP rate budget.
	publicRL := middleware.RateLimiter(cfg.RateLimitPerHour, cfg.RateLimitPerDay)
	auth := r.Group("/auth", publicRL)
	{
		auth.POST("/login", authH.Login)
		auth.POST("/password-reset", authH.RequestPasswordReset)
	}

	// Webhook ingest: static bearer token, tenant from the payload.
	r.POST("/api/shopify/orders", middleware.WebhookAuth(cfg.WebhookBearerToken), shopifyH.CreateOrder)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	api := r.Group("/api", jwtMW)
	{
		products := api.Group("/products")
		{
			products.GET("", middleware.RequirePermission(permission.ModuleProducts, permission.ActionView), productsH.List)
			products.GET("/alerts", middleware.RequirePermission(permission.ModuleProducts, permission.ActionView), productsH.Alerts)
			products.GET("/:id", middleware.RequirePermission(permission.ModuleProducts, permission.ActionView), productsH.Get)
			products.POST("", middleware.RequirePermission(permission.ModuleProducts, permission.ActionCreate), productsH.Create)
			products.PUT("/:id", middleware.RequirePermission(permission.ModuleProducts, permission.ActionEdit), productsH.Update)
			products.DELETE("/:id", middleware.RequirePermission(permission.ModuleProducts, permission.ActionDelete), productsH.Delete)
			products.GET("/:id/components", middleware.RequirePermission(permission.ModuleProducts, permission.ActionView), productsH.ListComponents)
			products.POST("/:id/components", middleware.RequirePermission(permission.ModuleProducts, permission.ActionEdit), productsH.AddComponent)
		}

		suppliers := api.Group("/suppliers")
		{
			suppliers.GET("", middleware.RequirePermission(permission.ModuleOrders, permission.ActionView), suppliersH.List)
			suppliers.GET("/:id", middleware.RequirePermission(permission.ModuleOrders, permission.ActionView), suppliersH.Get)
			suppliers.POST("", middleware.RequirePermission(permission.ModuleOrders, permission.ActionCreate), suppliersH.Create)
			suppliers.PUT("/:id", middleware.RequirePermission(permission.ModuleOrders, permission.ActionEdit), suppliersH.Update)
		}

		sales := api.Group("/sales")
		{
			sales.GET("", middleware.RequirePermission(permission.ModuleSales, permission.ActionView), salesH.List)
			sales.GET("/:id", middleware.RequirePermission(permission.ModuleSales, permission.ActionView), salesH.Get)
			sales.POST("", middleware.RequirePermission(permission.ModuleSales, permission.ActionCreate), salesH.Create)
			sales.PUT("/:id", middleware.RequirePermission(permission.ModuleSales, permission.ActionEdit), salesH.Update)
			sales.GET("/:id/payments", middleware.RequirePermission(permission.ModuleSales, permission.ActionView), salesH.ListPayments)
			sales.POST("/:id/payments", middleware.RequirePermission(permission.ModuleSales, permission.ActionEdit), salesH.AddPayment)
		}

		activity := api.Group("/activity")
		{
			activity.GET("", middleware.RequirePermission(permission.ModuleReports, permission.ActionView), activityH.List)
		}

		users := api.Group("/users")
		{
			users.GET("", middleware.RequirePermission(permission.ModuleUsers, permission.ActionView), authH.ListUsers)
			users.POST("", middleware.RequirePermission(permission.ModuleUsers, permission.ActionCreate), authH.CreateUser)
			users.PUT("/:id", middleware.RequirePermission(permission.ModuleUsers, permission.ActionEdit), authH.UpdateUser)
		}
	}

	// Warehouse surface: receiving, wastage, adjustments, assembly.
	warehouse := r.Group("/warehouse/api", jwtMW)
	{
		orders := warehouse.Group("/orders")
		{
			orders.GET("", middleware.RequirePermission(permission.ModuleOrders, permission.ActionView), ordersH.List)
			orders.GET("/:id", middleware.RequirePermission(permission.ModuleOrders, permission.ActionView), ordersH.Get)
			orders.POST("", middleware.RequirePermission(permission.ModuleOrders, permission.ActionCreate), ordersH.Create)
			orders.POST("/:id/paid", middleware.RequirePermission(permission.ModuleOrders, permission.ActionEdit), ordersH.MarkPaid)
			orders.DELETE("/:id", middleware.RequirePermission(permission.ModuleOrders, permission.ActionDelete), ordersH.Delete)
		}

		warehouse.POST("/receiving/:id", middleware.RequirePermission(permission.ModuleOrders, permission.ActionReceive), ordersH.Receive)

		wastage := warehouse.Group("/wastage")
		{
			wastage.GET("", middleware.RequirePermission(permission.ModuleWastage, permission.ActionView), wastageH.List)
			wastage.POST("", middleware.RequirePermission(permission.ModuleWastage, permission.ActionCreate), wastageH.Create)
			wastage.DELETE("/:id", middleware.RequirePermission(permission.ModuleWastage, permission.ActionDelete), wastageH.Delete)
		}

		warehouse.POST("/adjustments", middleware.RequirePermission(permission.ModuleProducts, permission.ActionEdit), wastageH.Adjust)
		warehouse.POST("/assembly", middleware.RequirePermission(permission.ModuleOrders, permission.ActionCreate), wastageH.Assemble)
	}

	// Reconciliation surface.
	reconciliation := r.Group("/reconciliation/api", jwtMW)
	{
		txs := reconciliation.Group("/transactions")
		{
			txs.GET("", middleware.RequirePermission(permission.ModuleReconciliation, permission.ActionView), reconciliationH.List)
			txs.POST("/upload", middleware.RequirePermission(permission.ModuleReconciliation, permission.ActionCreate), reconciliationH.Upload)
			txs.POST("/auto-match", middleware.RequirePermission(permission.ModuleReconciliation, permission.ActionEdit), reconciliationH.AutoMatch)
			txs.POST("/ignore-batch", middleware.RequirePermission(permission.ModuleReconciliation, permission.ActionEdit), reconciliationH.IgnoreBatch)
			txs.GET("/:id/suggestions", middleware.RequirePermission(permission.ModuleReconciliation, permission.ActionView), reconciliationH.Suggestions)
			txs.POST("/:id/match", middleware.RequirePermission(permission.ModuleReconciliation, permission.ActionEdit), reconciliationH.ManualMatch)
			txs.POST("/:id/unmatch", middleware.RequirePermission(permission.ModuleReconciliation, permission.ActionEdit), reconciliationH.Unmatch)
			txs.POST("/:id/ignore", middleware.RequirePermission(permission.ModuleReconciliation, permission.ActionEdit), reconciliationH.Ignore)
		}
	}

	return r
}
