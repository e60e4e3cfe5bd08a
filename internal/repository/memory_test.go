package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryHoldRepository(t *testing.T) {
	repo := NewMemoryHoldRepository()
	ctx := context.Background()

	t.Run("AcquireAndBlock", func(t *testing.T) {
		ok, err := repo.Acquire(ctx, "slot", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Acquire(ctx, "slot", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ReleaseFreesSlot", func(t *testing.T) {
		require.NoError(t, repo.Release(ctx, "slot"))

		ok, err := repo.Acquire(ctx, "slot", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("ExpiredHoldReusable", func(t *testing.T) {
		ok, err := repo.Acquire(ctx, "short", time.Millisecond)
		require.NoError(t, err)
		require.True(t, ok)

		time.Sleep(5 * time.Millisecond)

		ok, err = repo.Acquire(ctx, "short", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
