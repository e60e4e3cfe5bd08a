package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"quickcourt/internal/domain"
)

type FailoverHoldRepository struct {
	primary   domain.HoldRepository
	fallback  domain.HoldRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverHoldRepository(primary, fallback domain.HoldRepository, logger *zerolog.Logger) *FailoverHoldRepository {
	return &FailoverHoldRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverHoldRepository) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if !r.isDown.Load() {
		ok, err := r.primary.Acquire(ctx, key, ttl)
		if err == nil {
			return ok, nil
		}
		r.logger.Error().Err(err).Msg("Primary hold repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		ok, err := r.primary.Acquire(ctx, key, ttl)
		if err == nil {
			r.isDown.Store(false)
			return ok, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.Acquire(ctx, key, ttl)
}

func (r *FailoverHoldRepository) Release(ctx context.Context, key string) error {
	if !r.isDown.Load() {
		err := r.primary.Release(ctx, key)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("Primary hold repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.Release(ctx, key)
}
