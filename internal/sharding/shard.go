// Package sharding computes the fixed shard suffixes that spread hot
// per-category and per-brand index partitions across the table.
//
// Shard assignment must be stable across process restarts: a record written
// today and queried next year has to land in the same index partition, so
// everything here is a pure function of its input.
package sharding

import (
	"fmt"
	"hash/fnv"
)

const (
	// CategoryShardCount is the number of partitions behind the
	// category/season index.
	CategoryShardCount = 10

	// EmbeddingShardCount is the number of partitions behind the
	// brand/embedding index.
	EmbeddingShardCount = 5
)

// CategoryShard maps a sale ID to its category-index shard in [0,9].
func CategoryShard(saleID string) int {
	return shard(saleID, CategoryShardCount)
}

// EmbeddingShard maps a product ID to its embedding-index shard in [0,4].
func EmbeddingShard(productID string) int {
	return shard(productID, EmbeddingShardCount)
}

// shard hashes the input with FNV-1a and reduces it to [0,modulus).
func shard(s string, modulus int) int {
	h := fnv.New32a()
	h.Write([]byte(s))
	return int(h.Sum32() % uint32(modulus))
}

// CategoryIndexKey builds the partition key for the category/season index.
// Layout: TENANT#<tenant>#CAT#<category>#SEASON#<season>#SHARD#<n>
func CategoryIndexKey(tenant, category, season, saleID string) string {
	return CategoryIndexKeyForShard(tenant, category, season, CategoryShard(saleID))
}

// CategoryIndexKeyForShard builds the category index key for an explicit
// shard number. Used by fan-out queries that enumerate every shard.
func CategoryIndexKeyForShard(tenant, category, season string, shard int) string {
	return fmt.Sprintf("TENANT#%s#CAT#%s#SEASON#%s#SHARD#%d", tenant, category, season, shard)
}

// EmbeddingIndexKey builds the partition key for the brand/embedding index.
// Layout: TENANT#<tenant>#IDX#<indexType>#<brandOrType>#SHARD#<n>
func EmbeddingIndexKey(tenant, indexType, brandOrType, productID string) string {
	return EmbeddingIndexKeyForShard(tenant, indexType, brandOrType, EmbeddingShard(productID))
}

// EmbeddingIndexKeyForShard builds the brand/embedding index key for an
// explicit shard number.
func EmbeddingIndexKeyForShard(tenant, indexType, brandOrType string, shard int) string {
	return fmt.Sprintf("TENANT#%s#IDX#%s#%s#SHARD#%d", tenant, indexType, brandOrType, shard)
}
