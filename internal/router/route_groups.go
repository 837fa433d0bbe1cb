package router

import (
	"kasir_pos_backend/internal/handlers"
	"kasir_pos_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupTableRoutes sets up the dining table routes. Bill lookups scoped to a
// table live here too, so the route tree stays free of wildcard conflicts.
func SetupTableRoutes(authenticatedGroup *gin.RouterGroup, tableHandler *handlers.TableHandler, billHandler *handlers.BillHandler) {
	tableRoutes := authenticatedGroup.Group("/tables")
	tableRoutes.Use(middleware.RoleAuthMiddleware("admin", "cashier"))
	{
		tableRoutes.GET("", tableHandler.GetTables)
		tableRoutes.GET("/:id", tableHandler.GetTableByID)
		tableRoutes.PATCH("/:id/status", tableHandler.UpdateTableStatus)
		tableRoutes.GET("/:id/bill", billHandler.GetBillByTable)
		tableRoutes.DELETE("/:id/bill", billHandler.CancelHold)
	}

	// Layout changes are an admin concern.
	tableAdminRoutes := authenticatedGroup.Group("/tables")
	tableAdminRoutes.Use(middleware.RoleAuthMiddleware("admin"))
	{
		tableAdminRoutes.POST("", tableHandler.CreateTable)
		tableAdminRoutes.PUT("/:id", tableHandler.UpdateTable)
		tableAdminRoutes.DELETE("/:id", tableHandler.DeleteTable)
	}
}

// SetupBookingRoutes sets up the table reservation routes.
func SetupBookingRoutes(authenticatedGroup *gin.RouterGroup, tableHandler *handlers.TableHandler) {
	bookingRoutes := authenticatedGroup.Group("/bookings")
	bookingRoutes.Use(middleware.RoleAuthMiddleware("admin", "cashier"))
	{
		bookingRoutes.POST("", tableHandler.AddBooking)
		bookingRoutes.DELETE("/:id", tableHandler.CancelBooking) // :id is the table ID
	}
}

// SetupBillRoutes sets up the active bill routes.
func SetupBillRoutes(authenticatedGroup *gin.RouterGroup, billHandler *handlers.BillHandler) {
	billRoutes := authenticatedGroup.Group("/bills")
	billRoutes.Use(middleware.RoleAuthMiddleware("admin", "cashier"))
	{
		billRoutes.POST("", billHandler.HoldBill)
		billRoutes.GET("", billHandler.GetBills)
		billRoutes.GET("/:id", billHandler.GetBillByID)
		billRoutes.POST("/:id/pay", billHandler.CompletePayment)
	}
}

// SetupCartRoutes sets up the cashier cart routes. Every route operates on
// the authenticated cashier's own session.
func SetupCartRoutes(authenticatedGroup *gin.RouterGroup, cartHandler *handlers.CartHandler) {
	cartRoutes := authenticatedGroup.Group("/cart")
	cartRoutes.Use(middleware.RoleAuthMiddleware("admin", "cashier"))
	{
		cartRoutes.GET("", cartHandler.GetSession)
		cartRoutes.POST("/table/:tableId", cartHandler.SelectTable)
		cartRoutes.POST("/items", cartHandler.AddItem)
		cartRoutes.PATCH("/items/:productId", cartHandler.UpdateItemQuantity)
		cartRoutes.DELETE("/items/:productId", cartHandler.RemoveItem)
		cartRoutes.PUT("/customer", cartHandler.SetCustomer)
		cartRoutes.PUT("/payment-method", cartHandler.SetPaymentMethod)
		cartRoutes.POST("/open-bill", cartHandler.OpenBill)
		cartRoutes.POST("/checkout", cartHandler.Checkout)
		cartRoutes.POST("/reset", cartHandler.Reset)
	}
}

// SetupProductRoutes sets up the product catalog and stock routes.
func SetupProductRoutes(authenticatedGroup *gin.RouterGroup, productHandler *handlers.ProductHandler) {
	productRoutes := authenticatedGroup.Group("/products")
	productRoutes.Use(middleware.RoleAuthMiddleware("admin", "cashier"))
	{
		productRoutes.GET("", productHandler.GetProducts)
		productRoutes.GET("/:id", productHandler.GetProductByID)
	}

	productAdminRoutes := authenticatedGroup.Group("/products")
	productAdminRoutes.Use(middleware.RoleAuthMiddleware("admin"))
	{
		productAdminRoutes.POST("", productHandler.CreateProduct)
		productAdminRoutes.PUT("/:id", productHandler.UpdateProduct)
		productAdminRoutes.DELETE("/:id", productHandler.DeleteProduct)
		productAdminRoutes.POST("/:id/photo", productHandler.UploadProductPhoto)
		productAdminRoutes.POST("/:id/opname", productHandler.StockOpname)
		productAdminRoutes.POST("/:id/adjust-stock", productHandler.AdjustStock)
	}
}

// SetupStockHistoryRoutes sets up the stock movement log routes.
func SetupStockHistoryRoutes(authenticatedGroup *gin.RouterGroup, productHandler *handlers.ProductHandler) {
	stockHistoryRoutes := authenticatedGroup.Group("/stock-history")
	stockHistoryRoutes.Use(middleware.RoleAuthMiddleware("admin"))
	{
		stockHistoryRoutes.GET("", productHandler.GetStockHistory)
	}
}

// SetupPaymentRoutes sets up the settled payment history routes.
func SetupPaymentRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	paymentRoutes := authenticatedGroup.Group("/payments")
	paymentRoutes.Use(middleware.RoleAuthMiddleware("admin", "cashier"))
	{
		paymentRoutes.GET("", reportHandler.GetPayments)
		paymentRoutes.GET("/:id", reportHandler.GetPaymentByID)
	}
}

// SetupReportRoutes sets up the report routes.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	reportRoutes := authenticatedGroup.Group("/reports")
	reportRoutes.Use(middleware.RoleAuthMiddleware("admin"))
	{
		reportRoutes.GET("/sales", reportHandler.GetSalesReport)
	}
}
