package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rpattn/stockhist/internal/config"
	"github.com/rpattn/stockhist/internal/db"
	"github.com/rpattn/stockhist/internal/enrichment"
	"github.com/rpattn/stockhist/internal/history"
	"github.com/rpattn/stockhist/internal/messaging"
	"github.com/rpattn/stockhist/internal/middleware"
	"github.com/rpattn/stockhist/internal/repository"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, err := zap.NewProduction()
	if err != nil {
		stdlog.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(".")
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, conn.Pool, "./migrations", logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Create repository and enrichment clients
	historyRepo := repository.NewHistoryRepository(conn.Pool)
	partsClient := enrichment.NewPartsClient(cfg.Enrichment.PartsBaseURL, cfg.Enrichment.Timeout, logger)
	usersClient := enrichment.NewUsersClient(cfg.Enrichment.UserBaseURL, cfg.Enrichment.Timeout, logger)

	historyService := history.NewService(historyRepo, partsClient, usersClient, logger)

	// Kafka: outcome producer and ingestion consumer
	producer := messaging.NewProducer(cfg.Kafka, logger)
	defer func() {
		if err := producer.Close(); err != nil {
			logger.Error("Failed to close producer", zap.Error(err))
		}
	}()

	reader := messaging.NewReader(cfg.Kafka)
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Error("Failed to close reader", zap.Error(err))
		}
	}()

	consumer := messaging.NewConsumer(reader, historyService, producer, logger)
	go func() {
		if err := consumer.Run(ctx); err != nil {
			logger.Error("Consumer stopped with error", zap.Error(err))
		}
	}()

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	historyHandler := middleware.LoggingMiddleware(logger)(
		middleware.PrincipalMiddleware(
			middleware.DataLoaderMiddleware(partsClient)(
				history.NewHTTPHandler(historyService),
			),
		),
	)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/information/order-history", corsHandler.Handler(historyHandler))
	mux.Handle("/api/v1/information/order-history/", corsHandler.Handler(historyHandler))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting history server", zap.String("addr", cfg.HTTPAddr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Stop the consumer loop before closing shared resources
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
