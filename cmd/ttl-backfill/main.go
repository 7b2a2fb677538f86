// Package main is the one-off TTL backfill tool. It scans the sales table
// and assigns a missing ttl attribute to legacy records.
//
// Per-item failures are logged and counted, never fatal: the exit code is
// non-zero only for configuration-level errors such as an unreachable table.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"resale-pricing-backend/internal/migration"
	"resale-pricing-backend/pkg/observability"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

func main() {
	var (
		table     = flag.String("table", "", "sales table name (required)")
		region    = flag.String("region", "eu-west-1", "AWS region")
		dryRun    = flag.Bool("dry-run", false, "scan and report without writing")
		ttlYears  = flag.Int("ttl-years", 2, "retention years added to the sale date")
		batchSize = flag.Int("batch-size", 100, "items per scan page")
	)
	flag.Parse()

	if *table == "" {
		fmt.Fprintln(os.Stderr, "usage: ttl-backfill --table <name> [--region <region>] [--dry-run] [--ttl-years <n>] [--batch-size <n>]")
		os.Exit(2)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(*region))
	if err != nil {
		logger.Error("failed to load AWS configuration", zap.Error(err))
		os.Exit(1)
	}

	backfill := migration.NewBackfill(
		dynamodb.NewFromConfig(awsCfg),
		migration.BackfillConfig{
			TableName:      *table,
			RetentionYears: *ttlYears,
			PageSize:       int32(*batchSize),
			DryRun:         *dryRun,
		},
		logger,
		observability.NewCollector("resale_pricing"),
	)

	result, err := backfill.Run(ctx)
	if err != nil {
		logger.Error("backfill aborted", zap.Error(err))
		os.Exit(1)
	}

	mode := "updated"
	if result.DryRun {
		mode = "would update"
	}
	fmt.Printf("processed %d items: %s %d, skipped %d, failed %d\n",
		result.Processed, mode, result.Updated, result.Skipped, result.Failed)
}
