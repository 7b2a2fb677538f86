// Package main runs the pricing HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appconfig "resale-pricing-backend/internal/config"
	"resale-pricing-backend/internal/handlers"
	"resale-pricing-backend/internal/repository/ddb"
	"resale-pricing-backend/internal/service/seasonal"
	"resale-pricing-backend/pkg/observability"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := appconfig.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Fatal("failed to load AWS configuration", zap.Error(err))
	}

	metrics := observability.NewCollector("resale_pricing")

	repo := ddb.NewSalesRepository(
		dynamodb.NewFromConfig(awsCfg),
		ddb.Config{
			TableName:          cfg.TableName,
			CategoryIndexName:  cfg.CategoryIndexName,
			EmbeddingIndexName: cfg.EmbeddingIndexName,
			RetentionYears:     cfg.RetentionYears,
		},
		logger,
		metrics,
	)

	seasonalService, err := seasonal.NewService(repo, cfg.Seasonal, logger, metrics)
	if err != nil {
		logger.Fatal("failed to initialize seasonal service", zap.Error(err))
	}

	handler := handlers.NewPricingHandler(seasonalService, logger)
	router := handler.Routes()
	router.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("pricing API listening", zap.Int("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(cfg *appconfig.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
