package blobcache

import (
	"context"
	"sync"
	"time"

	apperr "github.com/KirkDiggler/bot-stage/internal/errors"
)

// InMemoryConfig configures the in-memory cache
type InMemoryConfig struct {
	// TTL of zero keeps entries forever
	TTL          time.Duration
	TimeProvider TimeProvider
}

type entry struct {
	data    []byte
	expires time.Time
}

// InMemoryRepository keeps payloads in process memory
type InMemoryRepository struct {
	mu           sync.RWMutex
	entries      map[string]entry
	ttl          time.Duration
	timeProvider TimeProvider
}

// NewInMemoryRepository creates an in-memory cache
func NewInMemoryRepository(cfg *InMemoryConfig) *InMemoryRepository {
	if cfg == nil {
		cfg = &InMemoryConfig{}
	}
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &InMemoryRepository{
		entries:      make(map[string]entry),
		ttl:          cfg.TTL,
		timeProvider: tp,
	}
}

// Get returns a copy of the stored payload
func (r *InMemoryRepository) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, apperr.InvalidArgument("key is required")
	}

	r.mu.RLock()
	e, ok := r.entries[key]
	r.mu.RUnlock()

	if !ok || (!e.expires.IsZero() && !r.timeProvider.Now().Before(e.expires)) {
		return nil, apperr.NotFoundf("blob %s not found", key).WithMeta("key", key)
	}

	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, nil
}

// Put stores a copy of data
func (r *InMemoryRepository) Put(_ context.Context, key string, data []byte) error {
	if key == "" {
		return apperr.InvalidArgument("key is required")
	}

	stored := make([]byte, len(data))
	copy(stored, data)

	e := entry{data: stored}
	if r.ttl > 0 {
		e.expires = r.timeProvider.Now().Add(r.ttl)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = e

	return nil
}

// Delete removes a payload
func (r *InMemoryRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
	return nil
}
