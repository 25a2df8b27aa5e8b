package cache

import (
	"context"
	"time"
)

// Store is a byte-valued key store with per-key expiration
type Store interface {
	// Get returns the value and true, or false if the key is missing or expired
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RoomKey is the cache key of a room record
func RoomKey(roomID string) string {
	return "room:" + roomID
}
