package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"

	"github.com/gigconnect/backend/internal/config"
	"github.com/gigconnect/backend/internal/db"
	httpHandlers "github.com/gigconnect/backend/internal/http/handlers"
	httpRouter "github.com/gigconnect/backend/internal/http/router"
	"github.com/gigconnect/backend/internal/logger"
	"github.com/gigconnect/backend/internal/paystack"
	"github.com/gigconnect/backend/internal/repository"
	"github.com/gigconnect/backend/internal/service"
	"github.com/gigconnect/backend/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: cannot load configuration: %v", err)
	}

	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Postgres and migrations.
	pg, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: cannot connect to postgres: %v", err)
	}
	defer safeClose(pg)

	if err := db.RunMigrations(ctx, pg, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: migrations failed: %v", err)
	}

	// Mongo holds chat, projects and the audit trail.
	mongo, err := db.NewMongo(ctx, cfg.MongoURL, cfg.MongoDatabase)
	if err != nil {
		log.Fatalf("main: cannot connect to mongo: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongo.Close(closeCtx); err != nil {
			log.Printf("main: cannot close mongo: %v", err)
		}
	}()

	// Task queue client for payouts and notifications.
	queueClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer func() {
		if err := queueClient.Close(); err != nil {
			log.Printf("main: cannot close queue client: %v", err)
		}
	}()

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	fileStorage, err := storage.NewFileStorage(cfg.UploadStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: cannot prepare file storage: %v", err)
	}

	// Repositories.
	userRepo := repository.NewUserRepository(pg)
	gigRepo := repository.NewGigRepository(pg)
	orderRepo := repository.NewOrderRepository(pg)
	paymentRepo := repository.NewPaymentRepository(pg)
	chatRepo := repository.NewChatRepository(mongo)
	projectRepo := repository.NewProjectRepository(mongo)
	auditRepo := repository.NewAuditRepository(mongo)

	// Services.
	account := paystack.NewAccountDetails(cfg.PaystackAccountNumber, cfg.PaystackAccountName)

	authService := service.NewAuthService(userRepo, tokenManager)
	gigService := service.NewGigService(gigRepo, userRepo)
	orderService := service.NewOrderService(orderRepo, gigRepo, userRepo)
	paymentService := service.NewPaymentService(orderRepo, paymentRepo, account)
	webhookService := service.NewWebhookService(orderRepo, paymentRepo, cfg.PaystackWebhookSecret, queueClient)
	chatService := service.NewChatService(chatRepo)
	projectService := service.NewProjectService(projectRepo)
	adminService := service.NewAdminService(userRepo, orderRepo, paymentRepo, auditRepo, paymentService, queueClient)

	// HTTP handlers.
	authHandler := httpHandlers.NewAuthHandler(authService)
	gigHandler := httpHandlers.NewGigHandler(gigService)
	orderHandler := httpHandlers.NewOrderHandler(orderService)
	paymentHandler := httpHandlers.NewPaymentHandler(paymentService)
	chatHandler := httpHandlers.NewChatHandler(chatService)
	projectHandler := httpHandlers.NewProjectHandler(projectService)
	adminHandler := httpHandlers.NewAdminHandler(adminService)
	uploadHandler := httpHandlers.NewUploadHandler(fileStorage, auditRepo)
	webhookHandler := httpHandlers.NewWebhookHandler(webhookService)
	healthHandler := httpHandlers.NewHealthHandler(pg, mongo)

	engine := httpRouter.SetupRouter(cfg,
		authHandler, gigHandler, orderHandler, paymentHandler, chatHandler,
		projectHandler, adminHandler, uploadHandler, webhookHandler,
		healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: http server shutdown: %v", err)
		}
	}()

	log.Printf("main: HTTP server listening on port %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: server exited with error: %v", err)
	}
}

func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: cannot close postgres: %v", err)
	}
}
