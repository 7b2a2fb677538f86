// Package insights runs the scheduled batch job that mines the sales
// history for seasonal patterns across the top categories and brands.
package insights

import (
	"context"
	"fmt"
	"sync"
	"time"

	"resale-pricing-backend/internal/domain"
	"resale-pricing-backend/internal/service/patterns"
	"resale-pricing-backend/internal/service/seasonal"
	"resale-pricing-backend/pkg/observability"

	"go.uber.org/zap"
)

// AggregatorConfig bounds one insight run.
type AggregatorConfig struct {
	TopCategories int
	TopBrands     int
	// MaxRunDuration caps the whole run; units still pending when it
	// expires are counted as errors.
	MaxRunDuration time.Duration
	// Workers bounds internal parallelism across categories.
	Workers int
}

// WithDefaults fills unset fields.
func (c AggregatorConfig) WithDefaults() AggregatorConfig {
	if c.TopCategories <= 0 {
		c.TopCategories = 10
	}
	if c.TopBrands <= 0 {
		c.TopBrands = 5
	}
	if c.MaxRunDuration <= 0 {
		c.MaxRunDuration = 10 * time.Minute
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	return c
}

// RunReport aggregates the counters of one insight run.
type RunReport struct {
	Tenant              string        `json:"tenant"`
	CategoriesProcessed int           `json:"categories_processed"`
	BrandsProcessed     int           `json:"brands_processed"`
	PatternsFound       int           `json:"patterns_found"`
	Errors              int           `json:"errors"`
	Duration            time.Duration `json:"duration"`
}

// Aggregator orchestrates pattern detection and storage across the top
// categories and brands. Each category/brand unit is isolated: one failure
// is logged and the run proceeds.
type Aggregator struct {
	seasonal  *seasonal.Service
	storage   *patterns.StorageService
	ranker    VolumeRanker
	publisher EventPublisher
	config    AggregatorConfig
	logger    *zap.Logger
	metrics   *observability.Collector
}

// NewAggregator creates the weekly insight job.
func NewAggregator(
	seasonalService *seasonal.Service,
	storage *patterns.StorageService,
	ranker VolumeRanker,
	publisher EventPublisher,
	config AggregatorConfig,
	logger *zap.Logger,
	metrics *observability.Collector,
) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Aggregator{
		seasonal:  seasonalService,
		storage:   storage,
		ranker:    ranker,
		publisher: publisher,
		config:    config.WithDefaults(),
		logger:    logger,
		metrics:   metrics,
	}
}

// Run executes one full insight pass for a tenant. It is safe to re-run:
// stored patterns overwrite the prior note for the same category/brand key.
func (a *Aggregator) Run(ctx context.Context, tenant string) (*RunReport, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, a.config.MaxRunDuration)
	defer cancel()

	report := &RunReport{Tenant: tenant}

	categories, err := a.ranker.TopCategories(ctx, tenant, a.config.TopCategories)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch top categories: %w", err)
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, a.config.Workers)

	for _, category := range categories {
		select {
		case <-ctx.Done():
			a.logger.Warn("insight run out of time", zap.String("category", category))
			mu.Lock()
			report.Errors++
			mu.Unlock()
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(category string) {
			defer wg.Done()
			defer func() { <-sem }()

			unit := a.processCategory(ctx, tenant, category)
			mu.Lock()
			report.CategoriesProcessed++
			report.BrandsProcessed += unit.brands
			report.PatternsFound += unit.patterns
			report.Errors += unit.errors
			mu.Unlock()
		}(category)
	}
	wg.Wait()

	report.Duration = time.Since(start)
	a.logger.Info("insight run completed",
		zap.String("tenant", tenant),
		zap.Int("categories", report.CategoriesProcessed),
		zap.Int("brands", report.BrandsProcessed),
		zap.Int("patterns_found", report.PatternsFound),
		zap.Int("errors", report.Errors),
		zap.Duration("duration", report.Duration))

	if err := a.publisher.PublishRunCompleted(ctx, report); err != nil {
		// The report itself still stands; the event is advisory.
		a.logger.Warn("failed to publish run-completed event", zap.Error(err))
	}
	return report, nil
}

// unitCounters carries one category's contribution to the report.
type unitCounters struct {
	brands   int
	patterns int
	errors   int
}

// processCategory handles one category and its top brands. Panics and
// errors stay inside the unit.
func (a *Aggregator) processCategory(ctx context.Context, tenant, category string) (counters unitCounters) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("insight unit panicked",
				zap.String("category", category),
				zap.Any("panic", r))
			counters.errors++
		}
	}()

	if found, err := a.detectAndStore(ctx, tenant, category, ""); err != nil {
		a.logger.Warn("category pattern detection failed",
			zap.String("category", category), zap.Error(err))
		counters.errors++
		a.countUnit("error")
	} else {
		if found {
			counters.patterns++
		}
		a.countUnit("ok")
	}

	brands, err := a.ranker.TopBrands(ctx, tenant, category, a.config.TopBrands)
	if err != nil {
		a.logger.Warn("failed to fetch top brands",
			zap.String("category", category), zap.Error(err))
		counters.errors++
		return counters
	}

	for _, brand := range brands {
		counters.brands++
		if found, err := a.detectAndStore(ctx, tenant, category, brand); err != nil {
			a.logger.Warn("brand pattern detection failed",
				zap.String("category", category),
				zap.String("brand", brand),
				zap.Error(err))
			counters.errors++
			a.countUnit("error")
		} else {
			if found {
				counters.patterns++
			}
			a.countUnit("ok")
		}
	}
	return counters
}

// detectAndStore runs detection for one unit and stores a significant
// pattern. Storage is best-effort and never fails the unit.
func (a *Aggregator) detectAndStore(ctx context.Context, tenant, category, brand string) (bool, error) {
	pattern, err := a.seasonal.DetectSeasonalPattern(ctx, tenant, category, brand)
	if err != nil {
		return false, err
	}
	if pattern == nil {
		return false, nil
	}
	a.logPattern(pattern)
	a.storage.StoreSeasonalPattern(ctx, pattern)
	return true, nil
}

func (a *Aggregator) logPattern(pattern *domain.SeasonalPattern) {
	a.logger.Info("seasonal pattern detected",
		zap.String("pattern", pattern.Key()),
		zap.Float64("score", pattern.SeasonalityScore),
		zap.Int("sample_size", pattern.SampleSize),
		zap.Ints("peak_months", pattern.PeakMonths),
		zap.Ints("off_season_months", pattern.OffSeasonMonths))
}

func (a *Aggregator) countUnit(outcome string) {
	if a.metrics != nil {
		a.metrics.InsightRunUnits.WithLabelValues(outcome).Inc()
	}
}
