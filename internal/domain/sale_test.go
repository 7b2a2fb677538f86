package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonOf(t *testing.T) {
	cases := map[time.Month]string{
		time.January:   "Q1",
		time.March:     "Q1",
		time.April:     "Q2",
		time.June:      "Q2",
		time.July:      "Q3",
		time.September: "Q3",
		time.October:   "Q4",
		time.December:  "Q4",
	}
	for month, want := range cases {
		date := time.Date(2025, month, 15, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, want, SeasonOf(date))
	}
}

func TestComputeTTL(t *testing.T) {
	saleDate := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	ttl := ComputeTTL(saleDate, DefaultRetentionYears)

	expected := time.Date(2027, time.January, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, expected.Unix(), ttl)
}

func TestSaleRecordValidate(t *testing.T) {
	valid := SaleRecord{
		Tenant:    "tenant-a",
		ProductID: "product-1",
		SaleID:    "sale-1",
		SaleDate:  time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, valid.Validate())

	t.Run("MissingTenant", func(t *testing.T) {
		r := valid
		r.Tenant = ""
		assert.Error(t, r.Validate())
	})

	t.Run("MissingProductID", func(t *testing.T) {
		r := valid
		r.ProductID = ""
		assert.Error(t, r.Validate())
	})

	t.Run("MissingSaleID", func(t *testing.T) {
		r := valid
		r.SaleID = ""
		assert.Error(t, r.Validate())
	})

	t.Run("MissingSaleDate", func(t *testing.T) {
		r := valid
		r.SaleDate = time.Time{}
		assert.Error(t, r.Validate())
	})
}

func TestSeasonalPatternKey(t *testing.T) {
	category := SeasonalPattern{Category: "coats"}
	assert.Equal(t, "coats", category.Key())

	brand := SeasonalPattern{Category: "coats", Brand: "Prada"}
	assert.Equal(t, "coats/Prada", brand.Key())
}
