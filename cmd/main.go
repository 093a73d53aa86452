package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"receiptdesk/internal/caching"
	"receiptdesk/internal/config"
	"receiptdesk/internal/handlers"
	"receiptdesk/internal/jobs/background"
	"receiptdesk/internal/middleware"
	"receiptdesk/internal/repositories"
	"receiptdesk/internal/seed"
	"receiptdesk/internal/services"
	"receiptdesk/pkg/database"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML configuration file")
	runSeed := flag.Bool("seed", false, "seed the demo user and sample receipts, then continue")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("database.url (or DATABASE_URL) is required")
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("auth.jwt_secret (or JWT_SECRET) is required")
	}

	pool, err := database.NewPool(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	cacheSvc := caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	minioSvc, err := services.NewMinioService(cfg.Minio)
	if err != nil {
		log.Fatalf("Failed to initialize MinIO service: %v", err)
	}
	if err := minioSvc.EnsureBucketExists(context.Background()); err != nil {
		log.Fatalf("Failed to ensure MinIO bucket: %v", err)
	}

	// Repositories
	receiptRepo := repositories.NewReceiptRepo(pool)
	userRepo := repositories.NewUserRepo(pool)

	// External clients
	ocrClient := services.NewOCRClient(cfg.OCR, minioSvc)
	ledgerClient := services.NewLedgerClient(cfg.Ledger)

	// Services
	authSvc := services.NewAuthService(cacheSvc, cfg.Auth)
	receiptSvc := services.NewReceiptService(receiptRepo, cacheSvc)
	uploadSvc := services.NewUploadService(receiptRepo, minioSvc, ocrClient, cacheSvc)
	bookingSvc := services.NewBookingService(receiptRepo, ledgerClient, cacheSvc)

	if *runSeed {
		if err := seed.Run(context.Background(), userRepo, receiptRepo); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
	}

	// Handlers
	authHandlers := handlers.NewAuthHandlers(authSvc, userRepo, cacheSvc)
	receiptHandlers := handlers.NewReceiptHandlers(receiptSvc, minioSvc)
	uploadHandlers := handlers.NewUploadHandlers(uploadSvc, minioSvc)
	bookingHandlers := handlers.NewBookingHandlers(bookingSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, minioSvc, version)

	// Background jobs
	scheduler, err := background.NewJobScheduler(receiptRepo, cacheSvc)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	e := echo.New()

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/detailed", healthHandlers.DetailedHealthCheck)

	v1 := e.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/login", authHandlers.Login)
	auth.POST("/refresh", authHandlers.Refresh)

	protected := v1.Group("")
	protected.Use(middleware.JWTMiddleware(authSvc))

	protected.GET("/me", authHandlers.Me)
	protected.GET("/receipts", receiptHandlers.ListReceipts)
	protected.GET("/receipts/:id", receiptHandlers.GetReceipt)
	protected.POST("/upload", uploadHandlers.UploadReceipt)
	protected.POST("/book", bookingHandlers.BookReceipt)

	port := cfg.Server.Port
	if portStr := os.Getenv("PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &port)
	}

	log.Printf("receiptdesk v%s starting on port %d", version, port)
	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
