// Package memory provides the in-process dataset store used when no
// database is configured. Data does not survive a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
)

type DatasetRepo struct {
	mu       sync.RWMutex
	datasets map[uuid.UUID]*domain.Dataset
}

func NewDatasetRepo() *DatasetRepo {
	return &DatasetRepo{datasets: make(map[uuid.UUID]*domain.Dataset)}
}

// Save stores dataset, replacing any dataset with the same ID. Datasets are
// treated as immutable once saved.
func (r *DatasetRepo) Save(_ context.Context, dataset *domain.Dataset) error {
	if dataset == nil || dataset.ID == uuid.Nil {
		return fmt.Errorf("dataset must have an ID")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.datasets[dataset.ID] = dataset
	return nil
}

func (r *DatasetRepo) Get(_ context.Context, id uuid.UUID) (*domain.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ds, ok := r.datasets[id]
	if !ok {
		return nil, domain.ErrDatasetNotFound
	}
	return ds, nil
}

// List returns summaries, newest first.
func (r *DatasetRepo) List(_ context.Context) ([]domain.DatasetSummary, error) {
	r.mu.RLock()
	out := make([]domain.DatasetSummary, 0, len(r.datasets))
	for _, ds := range r.datasets {
		out = append(out, ds.Summary())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *DatasetRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.datasets[id]; !ok {
		return domain.ErrDatasetNotFound
	}
	delete(r.datasets, id)
	return nil
}

func (r *DatasetRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []uuid.UUID
	for id, ds := range r.datasets {
		if ds.CreatedAt.Before(cutoff) {
			delete(r.datasets, id)
			removed = append(removed, id)
		}
	}
	return removed, nil
}
