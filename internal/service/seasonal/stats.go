package seasonal

import (
	"math"
	"time"

	"resale-pricing-backend/internal/domain"
)

// monthStats accumulates per-calendar-month aggregates of a sale set.
type monthStats struct {
	Count         int
	AvgPrice      float64
	AvgDaysToSell float64

	priceSum float64
	daysSum  float64
	daysN    int
}

// bucketByMonth groups sales into the 12 calendar months and computes the
// per-month average price and average days-to-sell.
func bucketByMonth(records []*domain.SaleRecord) map[time.Month]*monthStats {
	buckets := make(map[time.Month]*monthStats)

	for _, record := range records {
		month := record.SaleDate.Month()
		stats := buckets[month]
		if stats == nil {
			stats = &monthStats{}
			buckets[month] = stats
		}
		stats.Count++
		stats.priceSum += record.SoldPrice
		if record.DaysToSell > 0 {
			stats.daysSum += float64(record.DaysToSell)
			stats.daysN++
		}
	}

	for _, stats := range buckets {
		stats.AvgPrice = stats.priceSum / float64(stats.Count)
		if stats.daysN > 0 {
			stats.AvgDaysToSell = stats.daysSum / float64(stats.daysN)
		}
	}
	return buckets
}

// annualAverages returns the mean of the monthly average prices and the mean
// of the monthly average days-to-sell, over the months that have sales.
func annualAverages(buckets map[time.Month]*monthStats) (avgPrice, avgDays float64) {
	var priceSum, daysSum float64
	var priceN, daysN int

	for _, stats := range buckets {
		priceSum += stats.AvgPrice
		priceN++
		if stats.AvgDaysToSell > 0 {
			daysSum += stats.AvgDaysToSell
			daysN++
		}
	}

	if priceN > 0 {
		avgPrice = priceSum / float64(priceN)
	}
	if daysN > 0 {
		avgDays = daysSum / float64(daysN)
	}
	return avgPrice, avgDays
}

// coefficientOfVariation computes stddev/mean of the given values.
// Zero values or a zero mean yield 0.
func coefficientOfVariation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if mean == 0 {
		return 0
	}

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))

	return math.Sqrt(variance) / mean
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
