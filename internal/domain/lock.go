package domain

import "context"

// JobLock guards a periodic job so that only one replica runs it at a time.
type JobLock interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}
