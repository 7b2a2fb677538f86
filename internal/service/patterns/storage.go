// Package patterns persists detected seasonal patterns as notes in the
// long-term memory store. Writes are best-effort: losing one stored insight
// is acceptable, aborting the batch job that produced it is not.
package patterns

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"resale-pricing-backend/internal/domain"
	"resale-pricing-backend/pkg/observability"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// StorageConfig configures the memory-store client.
type StorageConfig struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration
	// MaxAttempts bounds the per-note retry; the circuit breaker handles
	// sustained outages.
	MaxAttempts int
}

// WithDefaults fills unset fields.
func (c StorageConfig) WithDefaults() StorageConfig {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 2
	}
	return c
}

// memoryNote is the wire format of the notes API.
type memoryNote struct {
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Tags     []string          `json:"tags"`
	Metadata map[string]string `json:"metadata"`
}

// StorageService writes seasonal patterns to the external memory store.
type StorageService struct {
	config  StorageConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
	metrics *observability.Collector
}

// NewStorageService creates a best-effort pattern storage client.
func NewStorageService(config StorageConfig, logger *zap.Logger, metrics *observability.Collector) *StorageService {
	config = config.WithDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "pattern-memory-store",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &StorageService{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		breaker: breaker,
		logger:  logger,
		metrics: metrics,
	}
}

// StoreSeasonalPattern formats the pattern as a note and writes it to the
// memory store. Failures are logged and swallowed; the caller never sees
// them. Notes for the same category/brand key overwrite on re-runs.
func (s *StorageService) StoreSeasonalPattern(ctx context.Context, pattern *domain.SeasonalPattern) {
	if pattern == nil {
		return
	}

	note := buildNote(pattern)

	var lastErr error
	for attempt := 0; attempt < s.config.MaxAttempts; attempt++ {
		_, lastErr = s.breaker.Execute(func() (interface{}, error) {
			return nil, s.postNote(ctx, note)
		})
		if lastErr == nil {
			if s.metrics != nil {
				s.metrics.PatternsStored.Inc()
			}
			return
		}
		if lastErr == gobreaker.ErrOpenState {
			break
		}
	}

	if s.metrics != nil {
		s.metrics.PatternStoreFailures.Inc()
	}
	s.logger.Warn("failed to store seasonal pattern, dropping insight",
		zap.String("pattern", pattern.Key()),
		zap.Error(lastErr))
}

// postNote performs one write to the notes API.
func (s *StorageService) postNote(ctx context.Context, note memoryNote) error {
	body, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("failed to marshal note: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/api/memories", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.config.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.APIToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("memory store request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("memory store returned status %d", resp.StatusCode)
	}
	return nil
}

// buildNote renders the pattern as a short natural-language summary plus
// structured metadata.
func buildNote(pattern *domain.SeasonalPattern) memoryNote {
	var summary strings.Builder
	subject := pattern.Category
	if pattern.Brand != "" {
		subject = fmt.Sprintf("%s %s", pattern.Brand, pattern.Category)
	}

	fmt.Fprintf(&summary, "Seasonal pricing pattern for %s (score %.2f, %d sales).",
		subject, pattern.SeasonalityScore, pattern.SampleSize)
	if len(pattern.PeakMonths) > 0 {
		fmt.Fprintf(&summary, " Peak demand in %s: prices run above the annual average and items sell faster.",
			monthNames(pattern.PeakMonths))
	}
	if len(pattern.OffSeasonMonths) > 0 {
		fmt.Fprintf(&summary, " Off-season in %s: prices dip and items linger.",
			monthNames(pattern.OffSeasonMonths))
	}

	metadata := map[string]string{
		"kind":              "seasonal_pattern",
		"pattern_key":       pattern.Key(),
		"category":          pattern.Category,
		"seasonality_score": fmt.Sprintf("%.3f", pattern.SeasonalityScore),
		"sample_size":       fmt.Sprintf("%d", pattern.SampleSize),
		"peak_months":       joinInts(pattern.PeakMonths),
		"off_season_months": joinInts(pattern.OffSeasonMonths),
	}
	if pattern.Brand != "" {
		metadata["brand"] = pattern.Brand
	}

	return memoryNote{
		Title:    fmt.Sprintf("Seasonal pattern: %s", subject),
		Content:  summary.String(),
		Tags:     []string{"pricing", "seasonal"},
		Metadata: metadata,
	}
}

func monthNames(months []int) string {
	names := make([]string, 0, len(months))
	for _, m := range months {
		if m >= 1 && m <= 12 {
			names = append(names, time.Month(m).String())
		}
	}
	return strings.Join(names, ", ")
}

func joinInts(values []int) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("%d", v))
	}
	return strings.Join(parts, ",")
}
