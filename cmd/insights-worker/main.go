// Package main runs the weekly pricing-insight aggregator on a cron
// schedule. Deploy this as a long-running worker when the Lambda entrypoint
// is not in use.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	appconfig "resale-pricing-backend/internal/config"
	"resale-pricing-backend/internal/repository/ddb"
	"resale-pricing-backend/internal/service/insights"
	"resale-pricing-backend/internal/service/patterns"
	"resale-pricing-backend/internal/service/seasonal"
	"resale-pricing-backend/pkg/observability"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

func main() {
	cfg, err := appconfig.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	aggregator, err := buildAggregator(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize aggregator", zap.Error(err))
	}

	tenants := tenantList()
	if len(tenants) == 0 {
		logger.Fatal("INSIGHTS_TENANTS must list at least one tenant")
	}

	scheduler := gocron.NewScheduler(time.UTC)
	_, err = scheduler.Cron(cfg.InsightsCron).Do(func() {
		for _, tenant := range tenants {
			report, err := aggregator.Run(ctx, tenant)
			if err != nil {
				logger.Error("insight run failed", zap.String("tenant", tenant), zap.Error(err))
				continue
			}
			logger.Info("insight run report",
				zap.String("tenant", tenant),
				zap.Int("patterns_found", report.PatternsFound),
				zap.Int("errors", report.Errors))
		}
	})
	if err != nil {
		logger.Fatal("failed to schedule insight run", zap.Error(err))
	}

	logger.Info("insights worker started", zap.String("cron", cfg.InsightsCron))
	scheduler.StartAsync()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	scheduler.Stop()
	logger.Info("insights worker stopped")
}

func buildAggregator(ctx context.Context, cfg *appconfig.Config, logger *zap.Logger) (*insights.Aggregator, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
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
		return nil, err
	}

	storage := patterns.NewStorageService(patterns.StorageConfig{
		BaseURL:  cfg.MemoryStoreURL,
		APIToken: cfg.MemoryStoreToken,
	}, logger, metrics)

	var publisher insights.EventPublisher = insights.NopPublisher{}
	if cfg.EventBusName != "" {
		publisher = insights.NewEventBridgePublisher(
			eventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
	}

	ranker := &insights.StaticRanker{Categories: splitList(os.Getenv("INSIGHTS_CATEGORIES"))}

	return insights.NewAggregator(
		seasonalService,
		storage,
		ranker,
		publisher,
		insights.AggregatorConfig{
			TopCategories: cfg.TopCategories,
			TopBrands:     cfg.TopBrands,
		},
		logger,
		metrics,
	), nil
}

func tenantList() []string {
	return splitList(os.Getenv("INSIGHTS_TENANTS"))
}

func splitList(raw string) []string {
	var values []string
	for _, value := range strings.Split(raw, ",") {
		if value = strings.TrimSpace(value); value != "" {
			values = append(values, value)
		}
	}
	return values
}
