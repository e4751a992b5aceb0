package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/adapter/metrics"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/analysis"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/ingest"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/sentiment"
	"golang.org/x/sync/singleflight"
)

const (
	invalidationTimeout = 5 * time.Second
	viewComputeTimeout  = 30 * time.Second
)

// Service is the application layer. It orchestrates imports and every
// read path of the dashboard.
type Service struct {
	datasets  domain.DatasetRepository
	cache     domain.AggregateCache
	tagger    *sentiment.Tagger
	metrics   *metrics.ImportMetrics
	clock     clockwork.Clock
	maxRows   int
	viewGroup singleflight.Group
}

// NewService creates the application layer service.
// m may be nil to skip import metrics.
func NewService(datasets domain.DatasetRepository, cache domain.AggregateCache, tagger *sentiment.Tagger, m *metrics.ImportMetrics, clock clockwork.Clock, maxRows int) *Service {
	return &Service{
		datasets: datasets,
		cache:    cache,
		tagger:   tagger,
		metrics:  m,
		clock:    clock,
		maxRows:  maxRows,
	}
}

// ImportRequest describes one uploaded export.
type ImportRequest struct {
	Name   string
	Reader io.Reader
	Strict bool
}

// ImportDataset loads, tags and stores an export. Input problems are
// returned wrapped in domain.ErrInvalidDataset.
func (s *Service) ImportDataset(ctx context.Context, req ImportRequest) (*domain.Dataset, error) {
	start := s.clock.Now()

	result, err := ingest.Load(req.Reader, ingest.Options{Strict: req.Strict, MaxRows: s.maxRows})
	if err != nil {
		s.recordImport("rejected", start)
		return nil, importError(err)
	}

	dataset := &domain.Dataset{
		ID:        uuid.New(),
		Name:      req.Name,
		CreatedAt: s.clock.Now().UTC(),
		Comments:  s.tagger.Tag(result.Comments),
		Report:    result.Report,
	}
	if dataset.Name == "" {
		dataset.Name = "dataset " + dataset.CreatedAt.Format("2006-01-02 15:04")
	}

	if err := s.datasets.Save(ctx, dataset); err != nil {
		s.recordImport("failed", start)
		return nil, fmt.Errorf("failed to save dataset: %w", err)
	}

	s.recordImport("ok", start)
	s.recordRows(dataset)

	slog.Info("Dataset imported",
		"dataset_id", dataset.ID.String(),
		"name", dataset.Name,
		"accepted", dataset.Report.Accepted,
		"rejected", len(dataset.Report.Rejected))
	return dataset, nil
}

func importError(err error) error {
	var malformed *ingest.MalformedRowError
	switch {
	case errors.Is(err, domain.ErrEmptyInput), errors.Is(err, domain.ErrMissingColumns):
		return err
	case errors.As(err, &malformed), errors.Is(err, ingest.ErrTooManyRows):
		return fmt.Errorf("%w: %w", domain.ErrInvalidDataset, err)
	default:
		return fmt.Errorf("failed to load dataset: %w", err)
	}
}

func (s *Service) recordImport(result string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ImportsTotal.WithLabelValues(result).Inc()
	s.metrics.ImportDuration.Observe(s.clock.Since(start).Seconds())
}

func (s *Service) recordRows(ds *domain.Dataset) {
	if s.metrics == nil {
		return
	}
	s.metrics.RowsProcessed.WithLabelValues("accepted").Add(float64(ds.Report.Accepted))
	s.metrics.RowsProcessed.WithLabelValues("rejected").Add(float64(len(ds.Report.Rejected)))
	for _, c := range ds.Comments {
		s.metrics.LabelsAssigned.WithLabelValues(string(c.Label), string(c.LabelSource)).Inc()
	}
}

// ListDatasets returns every stored dataset, newest first.
func (s *Service) ListDatasets(ctx context.Context) ([]domain.DatasetSummary, error) {
	return s.datasets.List(ctx)
}

// GetDataset retrieves a dataset with its comments.
func (s *Service) GetDataset(ctx context.Context, id uuid.UUID) (*domain.Dataset, error) {
	return s.datasets.Get(ctx, id)
}

// DeleteDataset removes a dataset and its cached views.
func (s *Service) DeleteDataset(ctx context.Context, id uuid.UUID) error {
	if err := s.datasets.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// invalidate is best effort: cached views expire on their own.
func (s *Service) invalidate(ctx context.Context, id uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), invalidationTimeout)
	defer cancel()

	if err := s.cache.InvalidateDataset(ctx, id.String()); err != nil {
		slog.Warn("Failed to invalidate cached views", "dataset_id", id.String(), "error", err)
	}
}

// cachedView serves a view from the aggregate cache, computing and storing
// it on a miss. Concurrent misses for one key share a single computation,
// which runs detached from the leader's cancellation so waiters that joined
// it are not failed by a client that went away.
func cachedView[T any](ctx context.Context, s *Service, key string, compute func(ctx context.Context) (T, error)) (T, error) {
	if data, ok := s.cache.Get(ctx, key); ok {
		var cached T
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		slog.Warn("Discarding undecodable cached view", "key", key)
	}

	var view T

	data, err, _ := s.viewGroup.Do(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), viewComputeTimeout)
		defer cancel()

		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode view: %w", err)
		}
		s.cache.Set(ctx, key, data)
		return data, nil
	})
	if err != nil {
		return view, err
	}

	if err := json.Unmarshal(data.([]byte), &view); err != nil {
		return view, fmt.Errorf("failed to decode view: %w", err)
	}
	return view, nil
}

// filtered loads a dataset and applies the filter.
func (s *Service) filtered(ctx context.Context, id uuid.UUID, filter domain.CommentFilter) (*domain.Dataset, []domain.TaggedComment, error) {
	ds, err := s.datasets.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return ds, analysis.Apply(ds.Comments, filter), nil
}
