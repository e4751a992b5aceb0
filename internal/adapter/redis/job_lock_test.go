package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLockKey = "lock:test"

func TestJobLock_SingleHolder(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()

	first := NewJobLock(client, testLockKey, "instance-1", time.Minute)
	second := NewJobLock(client, testLockKey, "instance-2", time.Minute)

	acquired, err := first.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, acquired, "first instance should acquire the lock")

	acquired, err = second.TryAcquire(ctx)
	require.NoError(t, err)
	assert.False(t, acquired, "second instance must wait")

	owner, err := client.Get(ctx, testLockKey).Result()
	require.NoError(t, err)
	assert.Equal(t, "instance-1", owner)
}

func TestJobLock_ReleaseOnlyOwnLock(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()

	holder := NewJobLock(client, testLockKey, "instance-1", time.Minute)
	other := NewJobLock(client, testLockKey, "instance-2", time.Minute)

	acquired, err := holder.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, acquired)

	require.NoError(t, other.Release(ctx))
	owner, err := client.Get(ctx, testLockKey).Result()
	require.NoError(t, err)
	assert.Equal(t, "instance-1", owner, "release by a non-holder must not delete the lock")

	require.NoError(t, holder.Release(ctx))
	_, err = client.Get(ctx, testLockKey).Result()
	assert.ErrorIs(t, err, goredis.Nil)

	acquired, err = other.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, acquired, "lock should be free after release")
}

func TestJobLock_Expires(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()

	lock := NewJobLock(client, testLockKey, "instance-1", time.Minute)
	_, err := lock.TryAcquire(ctx)
	require.NoError(t, err)

	ttl, err := client.TTL(ctx, testLockKey).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)
	assert.LessOrEqual(t, ttl, time.Minute)
}
