package blobcache

//go:generate mockgen -destination=mock/mock.go -package=mockblobcache -source=interface.go

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Repository stores raw model payloads keyed by source URL
type Repository interface {
	// Get returns the payload for key, or a not found error
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores a payload, replacing any previous one
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes a payload; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}

// TimeProvider supplies the current time for expiry
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider reads the wall clock
type RealTimeProvider struct{}

func (r *RealTimeProvider) Now() time.Time {
	return time.Now()
}

const keyPrefix = "model:blob:"

// KeyFor maps a source URL onto a bounded storage key
func KeyFor(url string) string {
	sum := sha256.Sum256([]byte(url))
	return keyPrefix + hex.EncodeToString(sum[:])
}
