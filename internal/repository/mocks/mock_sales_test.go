package mocks

import (
	"context"
	"testing"
	"time"

	"resale-pricing-backend/internal/domain"
	"resale-pricing-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(saleID string, date time.Time) *domain.SaleRecord {
	return &domain.SaleRecord{
		Tenant:    "tenant-a",
		ProductID: "prod-1",
		SaleID:    saleID,
		Category:  "coats",
		Brand:     "Prada",
		SoldPrice: 200,
		SaleDate:  date,
	}
}

func TestMockPutGetRoundTrip(t *testing.T) {
	repo := NewMockSalesRepository()
	r := record("s1", time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC))

	require.NoError(t, repo.PutSale(context.Background(), r))

	got, err := repo.GetSale(context.Background(), repository.KeyOf(r))
	require.NoError(t, err)
	assert.Equal(t, r.SaleID, got.SaleID)
	assert.Equal(t, r.SoldPrice, got.SoldPrice)
	// Derived attributes are filled on write, like the real store.
	assert.Equal(t, "Q1", got.Season)
	assert.NotZero(t, got.TTL)
}

func TestMockGetMissing(t *testing.T) {
	repo := NewMockSalesRepository()

	_, err := repo.GetSale(context.Background(), repository.SaleKey{
		Tenant:    "tenant-a",
		ProductID: "prod-1",
		SaleDate:  time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		SaleID:    "missing",
	})
	assert.True(t, repository.IsNotFound(err))
}

func TestMockUpdateMissingFailsCondition(t *testing.T) {
	repo := NewMockSalesRepository()

	price := 99.0
	err := repo.UpdateSale(context.Background(), repository.SaleKey{
		Tenant:    "tenant-a",
		ProductID: "prod-1",
		SaleDate:  time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		SaleID:    "missing",
	}, repository.SalePatch{SoldPrice: &price})
	assert.True(t, repository.IsConditionFailed(err))
}

func TestMockQueryCategorySeasonOrdersAndFilters(t *testing.T) {
	repo := NewMockSalesRepository()

	require.NoError(t, repo.PutSale(context.Background(), record("s-late", time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, repo.PutSale(context.Background(), record("s-early", time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC))))
	// Different season, must not appear.
	require.NoError(t, repo.PutSale(context.Background(), record("s-summer", time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC))))

	page, err := repo.QueryCategorySeason(context.Background(), "tenant-a", "coats", "Q1",
		repository.DateRange{}, repository.Pagination{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "s-early", page.Items[0].SaleID)
	assert.Equal(t, "s-late", page.Items[1].SaleID)
}

func TestMockInjectedErrors(t *testing.T) {
	repo := NewMockSalesRepository()
	repo.SetError("PutSale", assert.AnError)

	err := repo.PutSale(context.Background(), record("s1", time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)))
	assert.ErrorIs(t, err, assert.AnError)

	repo.ClearErrors()
	err = repo.PutSale(context.Background(), record("s1", time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)))
	assert.NoError(t, err)
	assert.Equal(t, 1, repo.Len())
}
