// Package domain contains the core entities of the sales-history subsystem.
package domain

import (
	"fmt"
	"time"
)

// Condition values accepted for a sold item, from best to worst.
const (
	ConditionNewWithTags    = "new_with_tags"
	ConditionNewWithoutTags = "new_without_tags"
	ConditionLikeNew        = "like_new"
	ConditionVeryGood       = "very_good"
	ConditionGood           = "good"
	ConditionFair           = "fair"
)

// Provenance tags for where a sale record originated.
const (
	SourceSmartgo  = "smartgo"
	SourceCarousel = "carousel"
)

// Embedding index types for the brand/embedding secondary index.
const (
	IndexTypeBrand     = "BRAND"
	IndexTypeEmbedding = "EMBEDDING"
)

// DefaultRetentionYears is how long a sale record is kept before TTL expiry.
const DefaultRetentionYears = 2

// SaleRecord represents one completed sale of a product.
// Records are written once at ingestion and only ever partially updated
// until they expire via TTL or are explicitly deleted.
type SaleRecord struct {
	Tenant      string    `json:"tenant"`
	ProductID   string    `json:"product_id"`
	SaleID      string    `json:"sale_id"`
	Category    string    `json:"category"`
	Brand       string    `json:"brand,omitempty"`
	Condition   string    `json:"condition,omitempty"`
	SoldPrice   float64   `json:"sold_price"`
	SaleDate    time.Time `json:"sale_date"`
	Season      string    `json:"season"`
	DaysToSell  int       `json:"days_to_sell,omitempty"`
	ImageKey    string    `json:"image_key,omitempty"`
	Embedding   []float64 `json:"embedding,omitempty"`
	Description string    `json:"description,omitempty"`
	Source      string    `json:"source,omitempty"`
	TTL         int64     `json:"ttl,omitempty"`
}

// Validate checks that the record carries every attribute required to build
// its primary key. Called before any write reaches the store.
func (r *SaleRecord) Validate() error {
	if r.Tenant == "" {
		return fmt.Errorf("tenant is required")
	}
	if r.ProductID == "" {
		return fmt.Errorf("product id is required")
	}
	if r.SaleID == "" {
		return fmt.Errorf("sale id is required")
	}
	if r.SaleDate.IsZero() {
		return fmt.Errorf("sale date is required")
	}
	return nil
}

// SeasonOf derives the quarter label (Q1..Q4) for a sale date.
func SeasonOf(date time.Time) string {
	return fmt.Sprintf("Q%d", (int(date.Month())-1)/3+1)
}

// Seasons lists every quarter label, in calendar order.
func Seasons() []string {
	return []string{"Q1", "Q2", "Q3", "Q4"}
}

// ComputeTTL returns the epoch-seconds expiry for a sale date and retention
// window. The store deletes the record automatically once this passes.
func ComputeTTL(saleDate time.Time, retentionYears int) int64 {
	return saleDate.AddDate(retentionYears, 0, 0).Unix()
}

// SeasonalPattern is the output of batch pattern detection for one
// category (optionally narrowed to a brand). It is ephemeral: written out
// as a memory note and never persisted in the primary table.
type SeasonalPattern struct {
	Category         string  `json:"category"`
	Brand            string  `json:"brand,omitempty"`
	PeakMonths       []int   `json:"peak_months"`
	OffSeasonMonths  []int   `json:"off_season_months"`
	SeasonalityScore float64 `json:"seasonality_score"`
	SampleSize       int     `json:"sample_size"`
}

// Key returns the stable identity used to overwrite a previously stored
// pattern for the same category/brand on re-runs.
func (p *SeasonalPattern) Key() string {
	if p.Brand != "" {
		return fmt.Sprintf("%s/%s", p.Category, p.Brand)
	}
	return p.Category
}
