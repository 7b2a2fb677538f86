package insights

import (
	"context"
)

// VolumeRanker supplies the top categories and brands by sales volume.
// The ranking itself is maintained outside this subsystem; the aggregator
// only consumes it.
type VolumeRanker interface {
	TopCategories(ctx context.Context, tenant string, n int) ([]string, error)
	TopBrands(ctx context.Context, tenant, category string, m int) ([]string, error)
}

// StaticRanker is a configuration-driven VolumeRanker used when no live
// ranking source is wired, and in tests.
type StaticRanker struct {
	Categories       []string
	BrandsByCategory map[string][]string
}

// TopCategories returns the first n configured categories.
func (r *StaticRanker) TopCategories(ctx context.Context, tenant string, n int) ([]string, error) {
	if n > len(r.Categories) {
		n = len(r.Categories)
	}
	return r.Categories[:n], nil
}

// TopBrands returns the first m configured brands for a category.
func (r *StaticRanker) TopBrands(ctx context.Context, tenant, category string, m int) ([]string, error) {
	brands := r.BrandsByCategory[category]
	if m > len(brands) {
		m = len(brands)
	}
	return brands[:m], nil
}
