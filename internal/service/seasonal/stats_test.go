package seasonal

import (
	"testing"
	"time"

	"resale-pricing-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saleIn(month time.Month, price float64, daysToSell int) *domain.SaleRecord {
	return &domain.SaleRecord{
		SoldPrice:  price,
		DaysToSell: daysToSell,
		SaleDate:   time.Date(2025, month, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestBucketByMonth(t *testing.T) {
	buckets := bucketByMonth([]*domain.SaleRecord{
		saleIn(time.January, 100, 10),
		saleIn(time.January, 200, 0),
		saleIn(time.March, 50, 20),
	})

	require.Len(t, buckets, 2)

	jan := buckets[time.January]
	require.NotNil(t, jan)
	assert.Equal(t, 2, jan.Count)
	assert.InDelta(t, 150, jan.AvgPrice, 1e-9)
	// Zero days-to-sell means unknown and is excluded from the average.
	assert.InDelta(t, 10, jan.AvgDaysToSell, 1e-9)

	mar := buckets[time.March]
	require.NotNil(t, mar)
	assert.Equal(t, 1, mar.Count)
	assert.InDelta(t, 50, mar.AvgPrice, 1e-9)
}

func TestAnnualAveragesWeighsMonthsEqually(t *testing.T) {
	// One sale at 100 in January, three at 200 in February: the annual
	// average is the mean of the monthly averages, not of all sales.
	buckets := bucketByMonth([]*domain.SaleRecord{
		saleIn(time.January, 100, 0),
		saleIn(time.February, 200, 0),
		saleIn(time.February, 200, 0),
		saleIn(time.February, 200, 0),
	})

	avgPrice, avgDays := annualAverages(buckets)
	assert.InDelta(t, 150, avgPrice, 1e-9)
	assert.Zero(t, avgDays)
}

func TestCoefficientOfVariation(t *testing.T) {
	assert.Zero(t, coefficientOfVariation(nil))
	assert.Zero(t, coefficientOfVariation([]float64{1, 1, 1}))

	// Values 90 and 110: stddev 10, mean 100.
	assert.InDelta(t, 0.1, coefficientOfVariation([]float64{90, 110}), 1e-9)

	// More spread, higher score.
	narrow := coefficientOfVariation([]float64{95, 105})
	wide := coefficientOfVariation([]float64{80, 120})
	assert.Greater(t, wide, narrow)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.5, clamp(0.1, 0.5, 1.5))
	assert.Equal(t, 1.5, clamp(2.3, 0.5, 1.5))
	assert.Equal(t, 1.1, clamp(1.1, 0.5, 1.5))
}
