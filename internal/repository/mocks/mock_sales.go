// Package mocks provides an in-memory sales repository for unit tests.
package mocks

import (
	"context"
	"sort"
	"sync"

	"resale-pricing-backend/internal/domain"
	"resale-pricing-backend/internal/repository"
)

// MockSalesRepository is an in-memory implementation of
// repository.SalesRepository. It honors the same validation and
// conditional-write semantics as the DynamoDB implementation.
type MockSalesRepository struct {
	mu      sync.RWMutex
	records map[string]*domain.SaleRecord
	errors  map[string]error
}

// NewMockSalesRepository creates an empty mock repository.
func NewMockSalesRepository() *MockSalesRepository {
	return &MockSalesRepository{
		records: make(map[string]*domain.SaleRecord),
		errors:  make(map[string]error),
	}
}

var _ repository.SalesRepository = (*MockSalesRepository)(nil)

// SetError makes the named method return the given error on its next calls.
func (m *MockSalesRepository) SetError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[method] = err
}

// ClearErrors removes all injected errors.
func (m *MockSalesRepository) ClearErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = make(map[string]error)
}

// Len reports how many records are stored.
func (m *MockSalesRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *MockSalesRepository) injected(method string) error {
	return m.errors[method]
}

func keyString(k repository.SaleKey) string {
	return k.Tenant + "|" + k.ProductID + "|" + k.SaleDate.Format("2006-01-02") + "|" + k.SaleID
}

// PutSale stores a copy of the record keyed by its primary key.
func (m *MockSalesRepository) PutSale(ctx context.Context, record *domain.SaleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("PutSale"); err != nil {
		return err
	}

	if record == nil || record.Tenant == "" || record.ProductID == "" || record.SaleID == "" || record.SaleDate.IsZero() {
		return repository.NewValidation("record", "missing primary key attributes")
	}

	stored := *record
	if stored.Season == "" {
		stored.Season = domain.SeasonOf(stored.SaleDate)
	}
	if stored.TTL == 0 {
		stored.TTL = domain.ComputeTTL(stored.SaleDate, domain.DefaultRetentionYears)
	}
	m.records[keyString(repository.KeyOf(&stored))] = &stored
	return nil
}

// GetSale returns the stored record or ErrNotFound.
func (m *MockSalesRepository) GetSale(ctx context.Context, key repository.SaleKey) (*domain.SaleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.injected("GetSale"); err != nil {
		return nil, err
	}

	record, ok := m.records[keyString(key)]
	if !ok {
		return nil, repository.NewNotFoundForTenant("sale", key.SaleID, key.Tenant)
	}
	copied := *record
	return &copied, nil
}

// QueryCategorySeason filters stored records by tenant, category, season,
// and date range, returning them chronologically.
func (m *MockSalesRepository) QueryCategorySeason(ctx context.Context, tenant, category, season string, dateRange repository.DateRange, page repository.Pagination) (*repository.Page[*domain.SaleRecord], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.injected("QueryCategorySeason"); err != nil {
		return nil, err
	}

	var matched []*domain.SaleRecord
	for _, record := range m.records {
		if record.Tenant != tenant || record.Category != category || record.Season != season {
			continue
		}
		if !dateRange.Contains(record.SaleDate) {
			continue
		}
		copied := *record
		matched = append(matched, &copied)
	}
	sortByDate(matched)

	result := &repository.Page[*domain.SaleRecord]{Items: matched}
	limit := page.GetEffectiveLimit()
	if len(matched) > limit {
		result.Items = matched[:limit]
		result.HasMore = true
	}
	return result, nil
}

// QueryProductEmbeddings returns every record with an embedding for the product.
func (m *MockSalesRepository) QueryProductEmbeddings(ctx context.Context, tenant, productID string) ([]*domain.SaleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.injected("QueryProductEmbeddings"); err != nil {
		return nil, err
	}

	var matched []*domain.SaleRecord
	for _, record := range m.records {
		if record.Tenant == tenant && record.ProductID == productID && len(record.Embedding) > 0 {
			copied := *record
			matched = append(matched, &copied)
		}
	}
	sortByDate(matched)
	return matched, nil
}

// QueryBrandPricing returns every record for a tenant and brand.
func (m *MockSalesRepository) QueryBrandPricing(ctx context.Context, tenant, brand string) ([]*domain.SaleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.injected("QueryBrandPricing"); err != nil {
		return nil, err
	}

	var matched []*domain.SaleRecord
	for _, record := range m.records {
		if record.Tenant == tenant && record.Brand == brand {
			copied := *record
			matched = append(matched, &copied)
		}
	}
	sortByDate(matched)
	return matched, nil
}

// UpdateSale patches an existing record or fails the condition.
func (m *MockSalesRepository) UpdateSale(ctx context.Context, key repository.SaleKey, patch repository.SalePatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("UpdateSale"); err != nil {
		return err
	}

	record, ok := m.records[keyString(key)]
	if !ok {
		return repository.NewConditionFailed("sale", key.SaleID, "record does not exist")
	}

	if patch.SoldPrice != nil {
		record.SoldPrice = *patch.SoldPrice
	}
	if patch.Condition != nil {
		record.Condition = *patch.Condition
	}
	if patch.DaysToSell != nil {
		record.DaysToSell = *patch.DaysToSell
	}
	if patch.Description != nil {
		record.Description = *patch.Description
	}
	if patch.ImageKey != nil {
		record.ImageKey = *patch.ImageKey
	}
	if patch.Embedding != nil {
		record.Embedding = patch.Embedding
	}
	if patch.TTL != nil {
		record.TTL = *patch.TTL
	}
	return nil
}

// DeleteSale removes a record; deleting a missing record is a no-op.
func (m *MockSalesRepository) DeleteSale(ctx context.Context, key repository.SaleKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("DeleteSale"); err != nil {
		return err
	}
	delete(m.records, keyString(key))
	return nil
}

// BatchWriteSales stores every record, honoring the same validation as PutSale.
func (m *MockSalesRepository) BatchWriteSales(ctx context.Context, records []*domain.SaleRecord) (*repository.BatchWriteResult, error) {
	if err := m.injected("BatchWriteSales"); err != nil {
		return nil, err
	}

	result := &repository.BatchWriteResult{}
	for _, record := range records {
		if err := m.PutSale(ctx, record); err != nil {
			return nil, err
		}
		result.Written++
	}
	return result, nil
}

func sortByDate(records []*domain.SaleRecord) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].SaleDate.Equal(records[j].SaleDate) {
			return records[i].SaleDate.Before(records[j].SaleDate)
		}
		return records[i].SaleID < records[j].SaleID
	})
}
