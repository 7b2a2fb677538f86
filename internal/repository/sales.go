// Package repository defines the persistence contract for the sales-history
// store. Implementations live in subpackages; this is the only error and
// query surface the service layer depends on.
package repository

import (
	"context"
	"time"

	"resale-pricing-backend/internal/domain"
)

// SaleKey identifies one sale record uniquely.
// Tenant+ProductID form the partition, SaleDate+SaleID the sort position.
type SaleKey struct {
	Tenant    string
	ProductID string
	SaleDate  time.Time
	SaleID    string
}

// KeyOf extracts the primary key of a record.
func KeyOf(r *domain.SaleRecord) SaleKey {
	return SaleKey{
		Tenant:    r.Tenant,
		ProductID: r.ProductID,
		SaleDate:  r.SaleDate,
		SaleID:    r.SaleID,
	}
}

// DateRange bounds a range query. Zero values leave that side open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the range.
func (d DateRange) Contains(t time.Time) bool {
	if !d.From.IsZero() && t.Before(d.From) {
		return false
	}
	if !d.To.IsZero() && t.After(d.To) {
		return false
	}
	return true
}

// SalePatch carries the partially updatable attributes of a sale record.
// Nil fields are left untouched.
type SalePatch struct {
	SoldPrice   *float64
	Condition   *string
	DaysToSell  *int
	Description *string
	ImageKey    *string
	Embedding   []float64
	TTL         *int64
}

// BatchWriteResult reports the outcome of a best-effort batch write.
type BatchWriteResult struct {
	Written    int
	FailedKeys []SaleKey
}

// SalesRepository is the access contract over the partitioned sales table.
//
// Range queries that span shards fan out concurrently across the fixed
// shard count and merge; they are eventually consistent relative to
// concurrent writers. Point reads against the primary key are consistent.
type SalesRepository interface {
	// PutSale idempotently upserts a record by primary key. Records missing
	// tenant, product ID, sale ID, or sale date are rejected with ErrValidation
	// before any network call.
	PutSale(ctx context.Context, record *domain.SaleRecord) error

	// GetSale is a point lookup. Absence is ErrNotFound, a normal outcome.
	GetSale(ctx context.Context, key SaleKey) (*domain.SaleRecord, error)

	// QueryCategorySeason fans out across all category shards for the given
	// dimensions and returns a date-filtered, time-ordered page.
	QueryCategorySeason(ctx context.Context, tenant, category, season string, dateRange DateRange, page Pagination) (*Page[*domain.SaleRecord], error)

	// QueryProductEmbeddings targets the single embedding shard derivable
	// from the product ID and returns every sale carrying an embedding.
	QueryProductEmbeddings(ctx context.Context, tenant, productID string) ([]*domain.SaleRecord, error)

	// QueryBrandPricing fans out across all brand shards and merges.
	QueryBrandPricing(ctx context.Context, tenant, brand string) ([]*domain.SaleRecord, error)

	// UpdateSale conditionally patches an existing record. It fails with
	// ErrConditionFailed when the record does not exist; it never creates.
	UpdateSale(ctx context.Context, key SaleKey, patch SalePatch) error

	// DeleteSale removes a record explicitly, independent of TTL expiry.
	DeleteSale(ctx context.Context, key SaleKey) error

	// BatchWriteSales writes records in provider-sized batches, retrying
	// unprocessed items with backoff. Permanently failed keys come back in
	// the result rather than as an error for partial failure.
	BatchWriteSales(ctx context.Context, records []*domain.SaleRecord) (*BatchWriteResult, error)
}
