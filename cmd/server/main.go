package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Atik203/Scholar-Flow-sub001/internal/config"
	"github.com/Atik203/Scholar-Flow-sub001/internal/infrastructure/database"
	httpServer "github.com/Atik203/Scholar-Flow-sub001/internal/infrastructure/http"
	"github.com/Atik203/Scholar-Flow-sub001/internal/infrastructure/provider/stripe"
	"github.com/Atik203/Scholar-Flow-sub001/internal/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewZapLogger(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		FilePath:    cfg.Log.FilePath,
		Development: cfg.Log.Development,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	repos := database.NewRepositories(db, zapLogger)

	stripeTimeout := cfg.Service.Stripe.Timeout
	if stripeTimeout <= 0 {
		stripeTimeout = 30 * time.Second
	}
	billingProvider := stripe.NewStripeProvider(stripe.Config{
		SecretKey:         cfg.Service.Stripe.SecretKey,
		Timeout:           stripeTimeout,
		MaxNetworkRetries: cfg.Service.Stripe.MaxNetworkRetries,
	}, zapLogger)

	httpSrv := httpServer.NewServer(cfg, zapLogger, repos, billingProvider)

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	zapLogger.Info("Server shut down successfully")
}
