package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ssonin/nvstech/internal/application/services"
	"github.com/ssonin/nvstech/internal/config"
	"github.com/ssonin/nvstech/internal/infrastructure/embedding"
	"github.com/ssonin/nvstech/internal/infrastructure/persistence/postgres"
	"github.com/ssonin/nvstech/internal/interfaces/rest/handlers"
	"github.com/ssonin/nvstech/internal/interfaces/rest/middleware"
	"github.com/ssonin/nvstech/internal/schema"
	"github.com/ssonin/nvstech/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting nvstech service",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	validator, err := schema.NewValidator()
	if err != nil {
		logger.Error("failed to compile schemas", "error", err)
		os.Exit(1)
	}

	operationRepo := postgres.NewOperationRepository(db)
	clientRepo := postgres.NewClientRepository(db)
	documentRepo := postgres.NewDocumentRepository(db)
	txCoordinator := postgres.NewTransactionCoordinator(db)

	embeddingClient := embedding.NewClient(cfg.Embedding)
	retryEmbeddingClient := embedding.NewRetryClient(embeddingClient, cfg.Retry)

	clientService := services.NewClientService(validator, clientRepo, logger)
	ingestService := services.NewIngestService(
		validator,
		operationRepo,
		clientRepo,
		documentRepo,
		retryEmbeddingClient,
		txCoordinator,
		logger,
	)
	searchService := services.NewSearchService(clientRepo, documentRepo, logger)

	h := handlers.NewHandlers(
		clientService,
		ingestService,
		searchService,
		retryEmbeddingClient,
		logger,
	)

	mux := http.NewServeMux()
	h.Register(mux)

	handler := middleware.Recovery(logger)(mux)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Timeout(cfg.Server.ReadTimeout)(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	reconciler := worker.NewReconciler(operationRepo, cfg.Worker, logger)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go reconciler.Start(workerCtx)

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
