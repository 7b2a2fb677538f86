package patterns

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"resale-pricing-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPattern() *domain.SeasonalPattern {
	return &domain.SeasonalPattern{
		Category:         "coats",
		Brand:            "Prada",
		PeakMonths:       []int{1, 12},
		OffSeasonMonths:  []int{6, 7},
		SeasonalityScore: 0.85,
		SampleSize:       120,
	}
}

func TestStoreSeasonalPattern(t *testing.T) {
	var received memoryNote
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	svc := NewStorageService(StorageConfig{BaseURL: server.URL, APIToken: "secret"}, nil, nil)
	svc.StoreSeasonalPattern(context.Background(), testPattern())

	assert.Equal(t, "/api/memories", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "Seasonal pattern: Prada coats", received.Title)
	assert.Contains(t, received.Content, "Peak demand in January, December")
	assert.Contains(t, received.Content, "Off-season in June, July")
	assert.Equal(t, []string{"pricing", "seasonal"}, received.Tags)
	assert.Equal(t, "coats/Prada", received.Metadata["pattern_key"])
	assert.Equal(t, "1,12", received.Metadata["peak_months"])
	assert.Equal(t, "120", received.Metadata["sample_size"])
}

func TestStoreSeasonalPatternRetriesOnce(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	svc := NewStorageService(StorageConfig{BaseURL: server.URL}, nil, nil)
	svc.StoreSeasonalPattern(context.Background(), testPattern())

	assert.Equal(t, 2, attempts)
}

func TestStoreSeasonalPatternSwallowsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc := NewStorageService(StorageConfig{BaseURL: server.URL}, nil, nil)

	// Must not panic or surface an error to the batch job.
	svc.StoreSeasonalPattern(context.Background(), testPattern())
	svc.StoreSeasonalPattern(context.Background(), nil)
}

func TestStoreSeasonalPatternUnreachableStore(t *testing.T) {
	svc := NewStorageService(StorageConfig{BaseURL: "http://127.0.0.1:1"}, nil, nil)
	svc.StoreSeasonalPattern(context.Background(), testPattern())
}

func TestCircuitBreakerOpensAfterSustainedFailures(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewStorageService(StorageConfig{BaseURL: server.URL}, nil, nil)
	for i := 0; i < 10; i++ {
		svc.StoreSeasonalPattern(context.Background(), testPattern())
	}

	// The breaker trips after five consecutive failures; the stampede of
	// later attempts never reaches the store.
	assert.Equal(t, 5, requests)
}

func TestBuildNoteCategoryOnly(t *testing.T) {
	pattern := testPattern()
	pattern.Brand = ""
	pattern.PeakMonths = nil
	pattern.OffSeasonMonths = nil

	note := buildNote(pattern)
	assert.Equal(t, "Seasonal pattern: coats", note.Title)
	assert.Equal(t, "coats", note.Metadata["pattern_key"])
	assert.NotContains(t, note.Content, "Peak demand")
	assert.NotContains(t, note.Metadata, "brand")
}
