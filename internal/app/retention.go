package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
	"github.com/robfig/cron/v3"
)

const retentionRunTimeout = 30 * time.Second

// StartRetention schedules PurgeExpired on a cron spec (for example
// "@every 10m"). A non-positive retention disables the job. lock may be nil
// when a single replica runs. Returns a stop function that waits for a
// running purge to finish.
func (s *Service) StartRetention(schedule string, retention time.Duration, lock domain.JobLock) (func(), error) {
	if retention <= 0 {
		slog.Info("Dataset retention disabled")
		return func() {}, nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), retentionRunTimeout)
		defer cancel()
		s.runRetention(ctx, retention, lock)
	}); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}

	c.Start()
	slog.Info("Dataset retention started", "schedule", schedule, "retention", retention.String())

	return func() {
		<-c.Stop().Done()
	}, nil
}

func (s *Service) runRetention(ctx context.Context, retention time.Duration, lock domain.JobLock) {
	if lock != nil {
		acquired, err := lock.TryAcquire(ctx)
		if err != nil {
			slog.Error("Failed to acquire retention lock", "error", err)
			return
		}
		if !acquired {
			slog.Debug("Retention run held by another instance, skipping")
			return
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				slog.Warn("Failed to release retention lock", "error", err)
			}
		}()
	}

	if _, err := s.PurgeExpired(ctx, retention); err != nil {
		slog.Error("Dataset retention run failed", "error", err)
	}
}

// PurgeExpired deletes datasets created before now minus retention and
// drops their cached views. Returns the number of deleted datasets.
func (s *Service) PurgeExpired(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := s.clock.Now().Add(-retention)

	ids, err := s.datasets.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired datasets: %w", err)
	}

	for _, id := range ids {
		s.invalidate(ctx, id)
	}
	if s.metrics != nil {
		s.metrics.DatasetsPurged.Add(float64(len(ids)))
	}
	if len(ids) > 0 {
		slog.Info("Expired datasets deleted", "count", len(ids), "cutoff", cutoff)
	}
	return len(ids), nil
}
