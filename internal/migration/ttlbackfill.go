// Package migration contains the idempotent TTL backfill for sale records
// written before expiry was introduced.
package migration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resale-pricing-backend/internal/domain"
	"resale-pricing-backend/internal/repository/ddb"
	"resale-pricing-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// BackfillConfig configures one backfill run.
type BackfillConfig struct {
	TableName      string
	RetentionYears int
	// PageSize caps items per scan page.
	PageSize int32
	// DryRun performs the full scan and reports intended updates without
	// writing anything.
	DryRun bool
}

// WithDefaults fills unset fields.
func (c BackfillConfig) WithDefaults() BackfillConfig {
	if c.RetentionYears <= 0 {
		c.RetentionYears = domain.DefaultRetentionYears
	}
	if c.PageSize <= 0 {
		c.PageSize = 100
	}
	return c
}

// Result accumulates the per-item counters of a run. Individual item
// failures are counted, never fatal.
type Result struct {
	Processed int
	Updated   int
	Skipped   int
	Failed    int
	DryRun    bool
}

// scannedItem is the projected shape the backfill reads.
type scannedItem struct {
	PK       string `dynamodbav:"PK"`
	SK       string `dynamodbav:"SK"`
	SaleDate string `dynamodbav:"SaleDate"`
	TTL      int64  `dynamodbav:"ttl"`
}

// Backfill scans the sales table and assigns a missing ttl attribute.
type Backfill struct {
	client  ddb.Client
	config  BackfillConfig
	logger  *zap.Logger
	metrics *observability.Collector
}

// NewBackfill creates a backfill runner.
func NewBackfill(client ddb.Client, config BackfillConfig, logger *zap.Logger, metrics *observability.Collector) *Backfill {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backfill{
		client:  client,
		config:  config.WithDefaults(),
		logger:  logger,
		metrics: metrics,
	}
}

// Run performs the paginated scan. Re-running is a no-op for already
// migrated items: the conditional write only fires while ttl is absent.
// It returns an error only for configuration-level failures, such as an
// unreachable table.
func (b *Backfill) Run(ctx context.Context) (*Result, error) {
	result := &Result{DryRun: b.config.DryRun}

	proj := expression.NamesList(
		expression.Name("PK"),
		expression.Name("SK"),
		expression.Name("SaleDate"),
		expression.Name("ttl"),
	)
	expr, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build projection: %w", err)
	}

	var lastKey map[string]types.AttributeValue
	firstPage := true

	for {
		out, err := b.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                aws.String(b.config.TableName),
			ProjectionExpression:     expr.Projection(),
			ExpressionAttributeNames: expr.Names(),
			Limit:                    aws.Int32(b.config.PageSize),
			ExclusiveStartKey:        lastKey,
		})
		if err != nil {
			if firstPage {
				// Nothing processed yet; treat as a configuration error.
				return nil, fmt.Errorf("scan of table %q failed: %w", b.config.TableName, err)
			}
			return result, fmt.Errorf("scan page failed after %d items: %w", result.Processed, err)
		}
		firstPage = false

		for _, raw := range out.Items {
			b.processItem(ctx, raw, result)
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}

	b.logger.Info("ttl backfill completed",
		zap.Int("processed", result.Processed),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Bool("dry_run", result.DryRun))
	return result, nil
}

// processItem decides and, outside dry-run, applies the update for one item.
func (b *Backfill) processItem(ctx context.Context, raw map[string]types.AttributeValue, result *Result) {
	result.Processed++

	item, err := unmarshalScanned(raw)
	if err != nil {
		b.logger.Warn("skipping unreadable item", zap.Error(err))
		result.Failed++
		b.countItem("failed")
		return
	}

	if item.TTL != 0 {
		result.Skipped++
		b.countItem("already_set")
		return
	}

	if item.SaleDate == "" {
		b.logger.Warn("skipping item without sale date",
			zap.String("pk", item.PK), zap.String("sk", item.SK))
		result.Skipped++
		b.countItem("no_sale_date")
		return
	}

	saleDate, err := time.Parse("2006-01-02", item.SaleDate)
	if err != nil {
		b.logger.Warn("skipping item with malformed sale date",
			zap.String("pk", item.PK), zap.String("sale_date", item.SaleDate))
		result.Skipped++
		b.countItem("no_sale_date")
		return
	}

	ttl := domain.ComputeTTL(saleDate, b.config.RetentionYears)

	if b.config.DryRun {
		result.Updated++
		b.countItem("would_update")
		return
	}

	if err := b.assignTTL(ctx, item.PK, item.SK, ttl); err != nil {
		// A concurrent writer setting ttl first is fine; the record is
		// migrated either way.
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			result.Skipped++
			b.countItem("already_set")
			return
		}
		b.logger.Warn("failed to assign ttl",
			zap.String("pk", item.PK), zap.String("sk", item.SK), zap.Error(err))
		result.Failed++
		b.countItem("failed")
		return
	}

	result.Updated++
	b.countItem("updated")
}

// assignTTL issues the conditional write, guarded against races with
// concurrent writers that may have set ttl since the scan.
func (b *Backfill) assignTTL(ctx context.Context, pk, sk string, ttl int64) error {
	update := expression.Set(expression.Name("ttl"), expression.Value(ttl))
	condition := expression.AttributeNotExists(expression.Name("ttl"))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(condition).Build()
	if err != nil {
		return fmt.Errorf("failed to build update expression: %w", err)
	}

	_, err = b.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(b.config.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return err
}

func unmarshalScanned(raw map[string]types.AttributeValue) (*scannedItem, error) {
	var item scannedItem
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return nil, err
	}
	if item.PK == "" || item.SK == "" {
		return nil, fmt.Errorf("item missing key attributes")
	}
	return &item, nil
}

func (b *Backfill) countItem(outcome string) {
	if b.metrics != nil {
		b.metrics.BackfillItems.WithLabelValues(outcome).Inc()
	}
}
