package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"kasir_pos_backend/internal/database"
	"kasir_pos_backend/internal/middleware"
	"kasir_pos_backend/internal/payment"
	"kasir_pos_backend/internal/repositories"
	"kasir_pos_backend/internal/router"
	"kasir_pos_backend/internal/storage"
	"kasir_pos_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		utils.LogDebug("No .env file loaded", map[string]interface{}{"reason": err.Error()})
	}

	utils.InitLogger()

	var (
		repos     router.Repositories
		fileStore *storage.FileStore
	)

	storageDriver := utils.Getenv("STORAGE_DRIVER", "file")
	switch storageDriver {
	case "file":
		snapshotPath := utils.Getenv("SNAPSHOT_PATH", "./data/pos_state.json")
		store, err := storage.NewFileStore(snapshotPath)
		if err != nil {
			utils.LogError(err, "Failed to open snapshot store")
			os.Exit(1)
		}
		fileStore = store
		repos = router.Repositories{
			Tables:       store,
			Bills:        store,
			Products:     store,
			StockHistory: store,
			Payments:     store,
			Users:        store,
		}
		utils.LogInfo("Storage initialized", map[string]interface{}{"driver": "file", "path": snapshotPath})
	case "postgres":
		dbHost := utils.Getenv("DB_HOST", "localhost")
		dbPort := utils.Getenv("DB_PORT", "5432")
		dbUser := utils.Getenv("DB_USER", "kasir_pos_user")
		dbPassword := utils.Getenv("DB_PASSWORD", "kasir_pos_password")
		dbName := utils.Getenv("DB_NAME", "kasir_pos_db")
		dbSSLMode := utils.Getenv("DB_SSLMODE", "disable")
		dbSchemaPath := utils.Getenv("DB_SCHEMA_PATH", "")

		if err := database.InitDB(dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode, dbSchemaPath); err != nil {
			utils.LogError(err, "Failed to initialize database")
			os.Exit(1)
		}
		db := database.GetDB()
		repos = router.Repositories{
			Tables:       repositories.NewTableRepository(db),
			Bills:        repositories.NewBillRepository(db),
			Products:     repositories.NewProductRepository(db),
			StockHistory: repositories.NewStockHistoryRepository(db),
			Payments:     repositories.NewPaymentRepository(db),
			Users:        repositories.NewAuthRepository(db),
		}
		utils.LogInfo("Storage initialized", map[string]interface{}{"driver": "postgres", "host": dbHost, "db": dbName})
	default:
		utils.LogError(errors.New("unknown STORAGE_DRIVER: "+storageDriver), "Invalid configuration")
		os.Exit(1)
	}

	processor := &payment.MockProcessor{
		Delay: utils.GetenvDuration("PAYMENT_PROCESSOR_DELAY", 150*time.Millisecond),
	}
	chargeTimeout := utils.GetenvDuration("PAYMENT_CHARGE_TIMEOUT", 10*time.Second)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.GinLogger())

	middleware.InitMetrics()
	engine.Use(middleware.MetricsMiddleware())
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	corsAllowedOriginsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	var allowedOrigins []string
	if corsAllowedOriginsEnv != "" {
		allowedOrigins = strings.Split(corsAllowedOriginsEnv, ",")
	} else {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowCredentials = true
	engine.Use(cors.New(config))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	engine.Static("/uploads", "./uploads")

	appServices := router.Setup(engine, repos, processor, chargeTimeout)

	// Background jobs: flush the snapshot periodically and release bookings
	// whose customers never showed up.
	scheduler := gocron.NewScheduler(time.UTC)
	if fileStore != nil {
		flushInterval := utils.GetenvDuration("SNAPSHOT_FLUSH_INTERVAL", 30*time.Second)
		if _, err := scheduler.Every(flushInterval).Do(func() {
			if err := fileStore.Flush(); err != nil {
				utils.LogError(err, "Snapshot flush failed")
			}
		}); err != nil {
			utils.LogError(err, "Failed to schedule snapshot flush")
		}
	}
	bookingHold := utils.GetenvDuration("BOOKING_HOLD", 2*time.Hour)
	if _, err := scheduler.Every(5 * time.Minute).Do(func() {
		released, err := appServices.Tables.ReleaseExpiredBookings(bookingHold)
		if err != nil {
			utils.LogError(err, "Releasing expired bookings failed")
			return
		}
		if released > 0 {
			utils.LogInfo("Released expired bookings", map[string]interface{}{"count": released})
		}
	}); err != nil {
		utils.LogError(err, "Failed to schedule booking release job")
	}
	scheduler.StartAsync()

	port := utils.Getenv("PORT", "8080")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: engine,
	}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": port, "storage_driver": storageDriver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError(err, "Failed to start server")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.LogInfo("Shutting down")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.LogError(err, "Server shutdown failed")
	}
	if fileStore != nil {
		if err := fileStore.Close(); err != nil {
			utils.LogError(err, "Closing snapshot store failed")
		}
	}
}
