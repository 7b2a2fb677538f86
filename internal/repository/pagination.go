package repository

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Pagination represents cursor-based pagination parameters for range queries.
type Pagination struct {
	Limit  int    `json:"limit"`
	Cursor string `json:"cursor,omitempty"`
}

// Validate checks if pagination parameters are valid
func (p Pagination) Validate() error {
	if p.Limit < 0 {
		return NewValidation("Limit", "cannot be negative")
	}
	if p.Limit > 1000 {
		return NewValidation("Limit", "cannot exceed 1000")
	}
	return nil
}

// GetEffectiveLimit returns the limit to use, with a default if not specified
func (p Pagination) GetEffectiveLimit() int {
	if p.Limit <= 0 {
		return 100 // Default page size
	}
	return p.Limit
}

// HasCursor returns true if cursor-based pagination is being used
func (p Pagination) HasCursor() bool {
	return p.Cursor != ""
}

// Page represents one page of a range-query result set.
type Page[T any] struct {
	Items      []T    `json:"items"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// CursorShardDone marks a shard that has been read to the end. Sale sort
// keys always carry the record prefix, so the marker cannot collide with a
// real resume position. Resumed queries skip shards carrying it.
const CursorShardDone = "-"

// CursorData represents the data stored in a pagination cursor.
// Cross-shard queries need one resume point per shard, so the cursor
// carries the sort-key position each shard should continue from, or
// CursorShardDone once a shard is exhausted.
type CursorData struct {
	ShardPositions map[int]string `json:"shard_positions"`
	Timestamp      int64          `json:"timestamp"`
}

// EncodeCursor creates an opaque base64 cursor from per-shard resume positions.
func EncodeCursor(shardPositions map[int]string) string {
	if len(shardPositions) == 0 {
		return ""
	}

	cursorData := CursorData{
		ShardPositions: shardPositions,
		Timestamp:      time.Now().Unix(),
	}

	jsonData, err := json.Marshal(cursorData)
	if err != nil {
		return ""
	}

	return base64.URLEncoding.EncodeToString(jsonData)
}

// DecodeCursor decodes a base64 cursor back to per-shard resume positions.
func DecodeCursor(cursor string) (map[int]string, error) {
	if cursor == "" {
		return nil, nil
	}

	jsonData, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor format: %w", err)
	}

	var cursorData CursorData
	if err := json.Unmarshal(jsonData, &cursorData); err != nil {
		return nil, fmt.Errorf("invalid cursor data: %w", err)
	}

	return cursorData.ShardPositions, nil
}
