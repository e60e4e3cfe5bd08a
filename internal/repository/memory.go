package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryHoldRepository is the in-process fallback for slot holds. Holds
// here are only visible to this instance, which is acceptable: the
// database conflict check remains the source of truth.
type MemoryHoldRepository struct {
	mu    sync.Mutex
	holds map[string]time.Time
}

func NewMemoryHoldRepository() *MemoryHoldRepository {
	return &MemoryHoldRepository{
		holds: make(map[string]time.Time),
	}
}

func (r *MemoryHoldRepository) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if expiresAt, ok := r.holds[key]; ok && now.Before(expiresAt) {
		return false, nil
	}
	r.holds[key] = now.Add(ttl)

	// Drop expired holds opportunistically to keep the map bounded.
	for k, expiresAt := range r.holds {
		if now.After(expiresAt) {
			delete(r.holds, k)
		}
	}

	return true, nil
}

func (r *MemoryHoldRepository) Release(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.holds, key)
	return nil
}
