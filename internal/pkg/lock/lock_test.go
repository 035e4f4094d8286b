package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker_Exclusive(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()

	lease, err := l.Acquire(ctx, "schedule:FALL:2026", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "schedule:FALL:2026", lease.Key())

	_, err = l.Acquire(ctx, "schedule:FALL:2026", time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)

	// Other terms are independent.
	other, err := l.Acquire(ctx, "schedule:SPRING:2026", time.Minute)
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, lease.Release(ctx))
	require.NoError(t, lease.Release(ctx))

	again, err := l.Acquire(ctx, "schedule:FALL:2026", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestLocalLocker_Expiry(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	stale, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	fresh, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)

	// The expired lease must not free the new holder.
	require.NoError(t, stale.Release(ctx))
	_, err = l.Acquire(ctx, "k", time.Second)
	assert.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, fresh.Release(ctx))
}

func TestLocalLocker_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocalLocker().Acquire(ctx, "k", time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalLocker_Extend(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	lease, err := l.Acquire(ctx, "k", 10*time.Second)
	require.NoError(t, err)

	now = now.Add(8 * time.Second)
	require.NoError(t, lease.Extend(ctx, 10*time.Second))

	// Past the original expiry the key is still held.
	now = now.Add(5 * time.Second)
	_, err = l.Acquire(ctx, "k", time.Second)
	assert.ErrorIs(t, err, ErrLockHeld)

	// Once it lapses and someone else takes it, extending fails.
	now = now.Add(10 * time.Second)
	other, err := l.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.ErrorIs(t, lease.Extend(ctx, time.Minute), ErrLockLost)

	require.NoError(t, lease.Release(ctx))
	_, err = l.Acquire(ctx, "k", time.Second)
	assert.ErrorIs(t, err, ErrLockHeld, "the stale lease must not free the new holder")
	require.NoError(t, other.Release(ctx))
}
