package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"

	"github.com/gigconnect/backend/internal/config"
	"github.com/gigconnect/backend/internal/db"
	"github.com/gigconnect/backend/internal/logger"
	"github.com/gigconnect/backend/internal/repository"
	"github.com/gigconnect/backend/internal/storage"
	"github.com/gigconnect/backend/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("worker: cannot load configuration: %v", err)
	}

	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	pg, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("worker: cannot connect to postgres: %v", err)
	}
	defer safeClose(pg)

	mongo, err := db.NewMongo(ctx, cfg.MongoURL, cfg.MongoDatabase)
	if err != nil {
		log.Fatalf("worker: cannot connect to mongo: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongo.Close(closeCtx); err != nil {
			log.Printf("worker: cannot close mongo: %v", err)
		}
	}()

	queueClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer func() {
		if err := queueClient.Close(); err != nil {
			log.Printf("worker: cannot close queue client: %v", err)
		}
	}()

	fileStorage, err := storage.NewFileStorage(cfg.UploadStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("worker: cannot prepare file storage: %v", err)
	}

	userRepo := repository.NewUserRepository(pg)
	orderRepo := repository.NewOrderRepository(pg)
	paymentRepo := repository.NewPaymentRepository(pg)
	auditRepo := repository.NewAuditRepository(mongo)

	handlers := worker.NewHandlers(orderRepo, paymentRepo, userRepo, auditRepo, fileStorage, queueClient)

	mux := asynq.NewServeMux()
	handlers.Register(mux)

	server := worker.NewServer(cfg.RedisAddr, cfg.RedisPassword)

	scheduler, err := worker.NewScheduler(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("worker: cannot build scheduler: %v", err)
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			log.Printf("worker: scheduler stopped: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		scheduler.Shutdown()
		server.Shutdown()
	}()

	log.Printf("worker: task server started")

	if err := server.Run(mux); err != nil {
		log.Fatalf("worker: task server exited with error: %v", err)
	}
}

func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("worker: cannot close postgres: %v", err)
	}
}
