// Package main implements the Lambda handler for the weekly pricing-insight
// run. It is triggered by an EventBridge schedule rule.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	appconfig "resale-pricing-backend/internal/config"
	"resale-pricing-backend/internal/repository/ddb"
	"resale-pricing-backend/internal/service/insights"
	"resale-pricing-backend/internal/service/patterns"
	"resale-pricing-backend/internal/service/seasonal"
	"resale-pricing-backend/pkg/observability"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

var (
	aggregator *insights.Aggregator
	logger     *zap.Logger
	tenants    []string
)

func init() {
	cfg, err := appconfig.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err = zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Fatalf("failed to load AWS configuration: %v", err)
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
		log.Fatalf("failed to initialize seasonal service: %v", err)
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

	aggregator = insights.NewAggregator(
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
	)

	tenants = splitList(os.Getenv("INSIGHTS_TENANTS"))
}

// HandleRequest runs one insight pass per configured tenant.
func HandleRequest(ctx context.Context, event events.CloudWatchEvent) error {
	logger.Info("insight run triggered",
		zap.String("event_id", event.ID),
		zap.Int("tenants", len(tenants)))

	if len(tenants) == 0 {
		return fmt.Errorf("INSIGHTS_TENANTS must list at least one tenant")
	}

	for _, tenant := range tenants {
		report, err := aggregator.Run(ctx, tenant)
		if err != nil {
			logger.Error("insight run failed", zap.String("tenant", tenant), zap.Error(err))
			continue
		}
		logger.Info("insight run report",
			zap.String("tenant", tenant),
			zap.Int("categories", report.CategoriesProcessed),
			zap.Int("patterns_found", report.PatternsFound),
			zap.Int("errors", report.Errors))
	}
	return nil
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

func main() {
	lambda.Start(HandleRequest)
}
