package sharding

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCategoryShard(t *testing.T) {
	t.Run("Deterministic", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			id := uuid.New().String()
			first := CategoryShard(id)
			for j := 0; j < 10; j++ {
				assert.Equal(t, first, CategoryShard(id))
			}
		}
	})

	t.Run("WithinRange", func(t *testing.T) {
		for i := 0; i < 1000; i++ {
			s := CategoryShard(fmt.Sprintf("sale-%d", i))
			assert.GreaterOrEqual(t, s, 0)
			assert.Less(t, s, CategoryShardCount)
		}
	})

	t.Run("SpreadsAcrossShards", func(t *testing.T) {
		seen := make(map[int]bool)
		for i := 0; i < 1000; i++ {
			seen[CategoryShard(fmt.Sprintf("sale-%d", i))] = true
		}
		// With 1000 uniformly hashed inputs every shard should be hit.
		assert.Len(t, seen, CategoryShardCount)
	})
}

func TestEmbeddingShard(t *testing.T) {
	t.Run("Deterministic", func(t *testing.T) {
		id := uuid.New().String()
		first := EmbeddingShard(id)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, EmbeddingShard(id))
		}
	})

	t.Run("WithinRange", func(t *testing.T) {
		for i := 0; i < 1000; i++ {
			s := EmbeddingShard(fmt.Sprintf("product-%d", i))
			assert.GreaterOrEqual(t, s, 0)
			assert.Less(t, s, EmbeddingShardCount)
		}
	})
}

func TestCategoryIndexKey(t *testing.T) {
	key := CategoryIndexKey("tenant-a", "handbags", "Q4", "sale-1")
	shard := CategoryShard("sale-1")
	assert.Equal(t, fmt.Sprintf("TENANT#tenant-a#CAT#handbags#SEASON#Q4#SHARD#%d", shard), key)

	// Same sale ID always produces the same key.
	assert.Equal(t, key, CategoryIndexKey("tenant-a", "handbags", "Q4", "sale-1"))
}

func TestEmbeddingIndexKey(t *testing.T) {
	key := EmbeddingIndexKey("tenant-a", "BRAND", "Gucci", "product-1")
	shard := EmbeddingShard("product-1")
	assert.Equal(t, fmt.Sprintf("TENANT#tenant-a#IDX#BRAND#Gucci#SHARD#%d", shard), key)
}
