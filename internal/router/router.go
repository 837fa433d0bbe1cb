package router

import (
	"time"

	"kasir_pos_backend/internal/handlers"
	"kasir_pos_backend/internal/middleware"
	"kasir_pos_backend/internal/payment"
	"kasir_pos_backend/internal/repositories"
	"kasir_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Repositories bundles the storage backends the router wires into services.
// The caller decides whether these are file-backed or PostgreSQL-backed.
type Repositories struct {
	Tables       repositories.TableRepository
	Bills        repositories.BillRepository
	Products     repositories.ProductRepository
	StockHistory repositories.StockHistoryRepository
	Payments     repositories.PaymentRepository
	Users        repositories.AuthRepository
}

// Services exposes the constructed service layer so the caller can hook up
// background jobs (e.g. releasing expired bookings).
type Services struct {
	Tables   services.TableService
	Bills    services.BillService
	Cart     services.CartService
	Products services.ProductService
	Reports  services.ReportService
	Auth     services.AuthService
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, repos Repositories, processor payment.Processor, chargeTimeout time.Duration) *Services {
	// Initialize Services
	tableService := services.NewTableService(repos.Tables, repos.Bills)
	billService := services.NewBillService(repos.Bills, repos.Tables, repos.Products, repos.Payments, processor, chargeTimeout)
	cartService := services.NewCartService(repos.Tables, repos.Products, billService)
	productService := services.NewProductService(repos.Products, repos.StockHistory)
	reportService := services.NewReportService(repos.Payments)
	authService := services.NewAuthService(repos.Users)

	// Initialize Handlers
	tableHandler := handlers.NewTableHandler(tableService, cartService)
	billHandler := handlers.NewBillHandler(billService)
	cartHandler := handlers.NewCartHandler(cartService)
	productHandler := handlers.NewProductHandler(productService)
	reportHandler := handlers.NewReportHandler(reportService)
	authHandler := handlers.NewAuthHandler(authService)

	apiV1 := engine.Group("/api/v1")

	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupTableRoutes(authenticated, tableHandler, billHandler)
		SetupBookingRoutes(authenticated, tableHandler)
		SetupBillRoutes(authenticated, billHandler)
		SetupCartRoutes(authenticated, cartHandler)
		SetupProductRoutes(authenticated, productHandler)
		SetupStockHistoryRoutes(authenticated, productHandler)
		SetupPaymentRoutes(authenticated, reportHandler)
		SetupReportRoutes(authenticated, reportHandler)
	}

	return &Services{
		Tables:   tableService,
		Bills:    billService,
		Cart:     cartService,
		Products: productService,
		Reports:  reportService,
		Auth:     authService,
	}
}

// SetupPublicAuthRoutes sets up the auth routes that need no token.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/login", authHandler.Login)
	group.POST("/refresh-token", authHandler.Refresh)
}

// SetupAuthenticatedAuthRoutes sets up the auth routes behind the token check.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.Me)
	group.POST("/register", middleware.RoleAuthMiddleware("admin"), authHandler.Register)
	group.GET("/users", middleware.RoleAuthMiddleware("admin"), authHandler.GetUsers)
}
