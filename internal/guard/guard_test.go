package guard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/perkhive/recognition-gateway/pkg/errors"
)

func newTestGuard(t *testing.T) (*SubmissionGuard, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client, 5*time.Second), mr
}

func TestAcquireAndRelease(t *testing.T) {
	g, _ := newTestGuard(t)
	ctx := context.Background()

	require.NoError(t, g.Acquire(ctx, "emp-1"))
	require.NoError(t, g.Release(ctx, "emp-1"))
	assert.NoError(t, g.Acquire(ctx, "emp-1"))
}

func TestAcquireConflictsWhileHeld(t *testing.T) {
	g, _ := newTestGuard(t)
	ctx := context.Background()

	require.NoError(t, g.Acquire(ctx, "emp-1"))

	err := g.Acquire(ctx, "emp-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestAcquireIsolatedPerReviewer(t *testing.T) {
	g, _ := newTestGuard(t)
	ctx := context.Background()

	require.NoError(t, g.Acquire(ctx, "emp-1"))
	assert.NoError(t, g.Acquire(ctx, "emp-2"))
}

func TestLockExpires(t *testing.T) {
	g, mr := newTestGuard(t)
	ctx := context.Background()

	require.NoError(t, g.Acquire(ctx, "emp-1"))

	mr.FastForward(6 * time.Second)

	assert.NoError(t, g.Acquire(ctx, "emp-1"))
}
