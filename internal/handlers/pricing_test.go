package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"resale-pricing-backend/internal/repository/mocks"
	"resale-pricing-backend/internal/service/seasonal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, repo *mocks.MockSalesRepository) http.Handler {
	t.Helper()
	svc, err := seasonal.NewService(repo, seasonal.DefaultConfig(), nil, nil)
	require.NoError(t, err)
	return NewPricingHandler(svc, nil).Routes()
}

func doRequest(t *testing.T, handler http.Handler, tenant, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if tenant != "" {
		req.Header.Set("X-Tenant-ID", tenant)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	handler := newTestHandler(t, mocks.NewMockSalesRepository())

	rec := doRequest(t, handler, "", "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGetMultiplier(t *testing.T) {
	handler := newTestHandler(t, mocks.NewMockSalesRepository())

	rec := doRequest(t, handler, "tenant-a", "/api/pricing/multiplier?category=coats&brand=Prada&month=12")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Category   string  `json:"category"`
		Brand      string  `json:"brand"`
		Month      int     `json:"month"`
		Multiplier float64 `json:"multiplier"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "coats", body.Category)
	assert.Equal(t, "Prada", body.Brand)
	assert.Equal(t, 12, body.Month)
	// An empty history resolves to the neutral multiplier.
	assert.Equal(t, 1.0, body.Multiplier)
}

func TestGetMultiplierValidation(t *testing.T) {
	handler := newTestHandler(t, mocks.NewMockSalesRepository())

	cases := map[string]struct {
		tenant string
		path   string
	}{
		"MissingTenant":   {"", "/api/pricing/multiplier?category=coats"},
		"MissingCategory": {"tenant-a", "/api/pricing/multiplier"},
		"BadMonth":        {"tenant-a", "/api/pricing/multiplier?category=coats&month=13"},
		"NonNumericMonth": {"tenant-a", "/api/pricing/multiplier?category=coats&month=soon"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := doRequest(t, handler, tc.tenant, tc.path)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetPatternNotSignificant(t *testing.T) {
	handler := newTestHandler(t, mocks.NewMockSalesRepository())

	rec := doRequest(t, handler, "tenant-a", "/api/pricing/pattern?category=coats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"significant":false}`, rec.Body.String())
}

func TestGetPatternRepositoryFailure(t *testing.T) {
	repo := mocks.NewMockSalesRepository()
	repo.SetError("QueryCategorySeason", fmt.Errorf("table unavailable"))
	handler := newTestHandler(t, repo)

	// An unreachable store surfaces as unavailable, not an internal fault.
	rec := doRequest(t, handler, "tenant-a", "/api/pricing/pattern?category=coats")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
