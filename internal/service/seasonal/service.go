// Package seasonal computes confidence-weighted seasonal price multipliers
// and batch-detected seasonal patterns from historical sales.
package seasonal

import (
	"context"
	"fmt"
	"sort"
	"time"

	"resale-pricing-backend/internal/domain"
	"resale-pricing-backend/internal/repository"
	apperrors "resale-pricing-backend/pkg/errors"
	"resale-pricing-backend/pkg/observability"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Config holds the thresholds of the seasonal algorithm. Every field is
// validated once at construction; call sites never re-check them.
type Config struct {
	LookbackMonths      int     `validate:"min=12,max=60"`
	MinTotalSales       int     `validate:"min=1"`
	MinMonthSales       int     `validate:"min=1"`
	ConfidenceDivisor   float64 `validate:"gt=0"`
	MultiplierFloor     float64 `validate:"gt=0"`
	MultiplierCeiling   float64 `validate:"gt=0"`
	MinPatternSales     int     `validate:"min=1"`
	PeakMultiplier      float64 `validate:"gt=1"`
	OffSeasonMultiplier float64 `validate:"gt=0,lt=1"`
	PeakDaysFactor      float64 `validate:"gt=0,lt=1"`
	OffSeasonDaysFactor float64 `validate:"gt=1"`
	ScoreNormalizer     float64 `validate:"gt=0"`
	CategoryThreshold   float64 `validate:"gte=0,lte=1"`
	BrandThreshold      float64 `validate:"gte=0,lte=1"`
	PageLimit           int     `validate:"min=1,max=1000"`
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		LookbackMonths:      24,
		MinTotalSales:       30,
		MinMonthSales:       5,
		ConfidenceDivisor:   20,
		MultiplierFloor:     0.5,
		MultiplierCeiling:   1.5,
		MinPatternSales:     100,
		PeakMultiplier:      1.1,
		OffSeasonMultiplier: 0.9,
		PeakDaysFactor:      0.8,
		OffSeasonDaysFactor: 1.2,
		ScoreNormalizer:     0.3,
		CategoryThreshold:   0.15,
		BrandThreshold:      0.20,
		PageLimit:           1000,
	}
}

// Validate checks the threshold invariants.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid seasonal config: %w", err)
	}
	if c.MultiplierFloor >= c.MultiplierCeiling {
		return fmt.Errorf("invalid seasonal config: floor %.2f must be below ceiling %.2f", c.MultiplierFloor, c.MultiplierCeiling)
	}
	if c.MinMonthSales > c.MinTotalSales {
		return fmt.Errorf("invalid seasonal config: per-month minimum cannot exceed total minimum")
	}
	return nil
}

// Service computes seasonal pricing adjustments from the sales history.
type Service struct {
	repo    repository.SalesRepository
	config  Config
	logger  *zap.Logger
	metrics *observability.Collector
	now     func() time.Time
}

// NewService creates the seasonal adjustment service. The config is
// validated here, once.
func NewService(repo repository.SalesRepository, config Config, logger *zap.Logger, metrics *observability.Collector) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		config:  config,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}, nil
}

// CalculateSeasonalMultiplier returns the confidence-weighted price
// multiplier for a category (optionally narrowed to a brand) and month.
//
// This sits on the interactive pricing path and fails open: every sparse-data
// and error path yields the neutral 1.0 instead of propagating. The result is
// always within [MultiplierFloor, MultiplierCeiling].
func (s *Service) CalculateSeasonalMultiplier(ctx context.Context, tenant, category, brand string, month time.Month) float64 {
	if month < time.January || month > time.December {
		month = s.now().Month()
	}

	records, err := s.fetchTrailingSales(ctx, tenant, category, brand)
	if err != nil {
		s.logger.Warn("seasonal multiplier falling back to neutral",
			zap.String("category", category),
			zap.String("brand", brand),
			zap.Error(err))
		s.countMultiplier("error")
		return 1.0
	}

	if len(records) < s.config.MinTotalSales {
		s.countMultiplier("insufficient_data")
		return 1.0
	}

	buckets := bucketByMonth(records)
	annualAvgPrice, _ := annualAverages(buckets)
	if annualAvgPrice == 0 {
		s.countMultiplier("insufficient_data")
		return 1.0
	}

	target := buckets[month]
	if target == nil || target.Count < s.config.MinMonthSales {
		s.countMultiplier("sparse_month")
		return 1.0
	}

	rawMultiplier := target.AvgPrice / annualAvgPrice
	confidence := float64(target.Count) / s.config.ConfidenceDivisor
	if confidence > 1.0 {
		confidence = 1.0
	}

	adjusted := 1.0 + (rawMultiplier-1.0)*confidence
	s.countMultiplier("computed")
	return clamp(adjusted, s.config.MultiplierFloor, s.config.MultiplierCeiling)
}

// DetectSeasonalPattern mines the trailing sales history for a seasonal
// pattern. It returns nil when the sample is too small or the seasonality
// score does not meet the significance threshold for the dimension.
func (s *Service) DetectSeasonalPattern(ctx context.Context, tenant, category, brand string) (*domain.SeasonalPattern, error) {
	records, err := s.fetchTrailingSales(ctx, tenant, category, brand)
	if err != nil {
		if repository.IsThrottled(err) {
			return nil, apperrors.NewThrottling("sales history query throttled", err)
		}
		return nil, apperrors.NewUnavailable("failed to fetch sales for pattern detection", err)
	}

	if len(records) < s.config.MinPatternSales {
		return nil, nil
	}

	buckets := bucketByMonth(records)
	annualAvgPrice, annualAvgDays := annualAverages(buckets)
	if annualAvgPrice == 0 {
		return nil, nil
	}

	multipliers := make([]float64, 0, 12)
	var peakMonths, offSeasonMonths []int

	for month := time.January; month <= time.December; month++ {
		stats := buckets[month]
		if stats == nil {
			continue
		}

		multiplier := stats.AvgPrice / annualAvgPrice
		multipliers = append(multipliers, multiplier)

		if stats.Count < s.config.MinMonthSales {
			continue
		}

		switch {
		case multiplier > s.config.PeakMultiplier &&
			annualAvgDays > 0 && stats.AvgDaysToSell > 0 &&
			stats.AvgDaysToSell < s.config.PeakDaysFactor*annualAvgDays:
			peakMonths = append(peakMonths, int(month))
		case multiplier < s.config.OffSeasonMultiplier &&
			annualAvgDays > 0 &&
			stats.AvgDaysToSell > s.config.OffSeasonDaysFactor*annualAvgDays:
			offSeasonMonths = append(offSeasonMonths, int(month))
		}
	}

	score := coefficientOfVariation(multipliers) / s.config.ScoreNormalizer
	if score > 1.0 {
		score = 1.0
	}

	threshold := s.config.CategoryThreshold
	if brand != "" {
		threshold = s.config.BrandThreshold
	}
	if score < threshold {
		return nil, nil
	}

	sort.Ints(peakMonths)
	sort.Ints(offSeasonMonths)

	if s.metrics != nil {
		s.metrics.PatternsDetected.Inc()
	}
	return &domain.SeasonalPattern{
		Category:         category,
		Brand:            brand,
		PeakMonths:       peakMonths,
		OffSeasonMonths:  offSeasonMonths,
		SeasonalityScore: score,
		SampleSize:       len(records),
	}, nil
}

// fetchTrailingSales pulls the lookback window for a category, one bounded
// page per season label, filtered to the brand when one is given.
func (s *Service) fetchTrailingSales(ctx context.Context, tenant, category, brand string) ([]*domain.SaleRecord, error) {
	to := s.now()
	from := to.AddDate(0, -s.config.LookbackMonths, 0)
	dateRange := repository.DateRange{From: from, To: to}

	var all []*domain.SaleRecord
	for _, season := range domain.Seasons() {
		page, err := s.repo.QueryCategorySeason(ctx, tenant, category, season, dateRange, repository.Pagination{Limit: s.config.PageLimit})
		if err != nil {
			return nil, err
		}
		for _, record := range page.Items {
			if brand != "" && record.Brand != brand {
				continue
			}
			all = append(all, record)
		}
	}
	return all, nil
}

func (s *Service) countMultiplier(outcome string) {
	if s.metrics != nil {
		s.metrics.MultiplierComputations.WithLabelValues(outcome).Inc()
	}
}
