package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationLockRepositoryLocalFallback(t *testing.T) {
	repo := NewGenerationLockRepository(nil)
	now := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	token, ok, err := repo.Acquire(ctx, "timetable:lock:inst-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, token)

	_, ok, err = repo.Acquire(ctx, "timetable:lock:inst-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "held lock must not be granted twice")

	_, ok, err = repo.Acquire(ctx, "timetable:lock:inst-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "locks are per key")

	require.NoError(t, repo.Release(ctx, "timetable:lock:inst-1", "someone-else"))
	_, ok, _ = repo.Acquire(ctx, "timetable:lock:inst-1", time.Minute)
	assert.False(t, ok, "foreign token must not release the lock")

	require.NoError(t, repo.Release(ctx, "timetable:lock:inst-1", token))
	_, ok, _ = repo.Acquire(ctx, "timetable:lock:inst-1", time.Minute)
	assert.True(t, ok)
}

func TestGenerationLockRepositoryLocalExpiry(t *testing.T) {
	repo := NewGenerationLockRepository(nil)
	now := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	_, ok, err := repo.Acquire(ctx, "timetable:lock:inst-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, err = repo.Acquire(ctx, "timetable:lock:inst-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired lock is free again")
}
