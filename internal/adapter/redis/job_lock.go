package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it is still held by the caller.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// JobLock is a SETNX lease shared by every replica. The TTL must outlast
// one run of the guarded job so a crashed holder frees the lock on its own.
type JobLock struct {
	rdb   goredis.Cmdable
	key   string
	owner string
	ttl   time.Duration
}

// NewJobLock creates a lock on key. owner must be unique per instance.
func NewJobLock(rdb goredis.Cmdable, key, owner string, ttl time.Duration) *JobLock {
	return &JobLock{rdb: rdb, key: key, owner: owner, ttl: ttl}
}

// TryAcquire reports whether this instance now holds the lock.
func (l *JobLock) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, l.key, l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", l.key, err)
	}
	return ok, nil
}

func (l *JobLock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.rdb, []string{l.key}, l.owner).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	return nil
}
