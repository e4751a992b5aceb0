package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RowError describes a rejected input record.
type RowError struct {
	Line    int    `json:"line"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

// ImportReport summarizes one load: every data row is either accepted or rejected.
type ImportReport struct {
	TotalRows int        `json:"total_rows"`
	Accepted  int        `json:"accepted"`
	Rejected  []RowError `json:"rejected"`
	Columns   []string   `json:"columns"`
}

// HasColumn reports whether the named canonical column was present in the input.
func (r ImportReport) HasColumn(name string) bool {
	for _, c := range r.Columns {
		if c == name {
			return true
		}
	}
	return false
}

type Dataset struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	Comments  []TaggedComment
	Report    ImportReport
}

// DatasetSummary is the list view of a dataset without its comments.
type DatasetSummary struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	CommentCount int       `json:"comment_count"`
	Rejected     int       `json:"rejected"`
}

func (d *Dataset) Summary() DatasetSummary {
	return DatasetSummary{
		ID:           d.ID,
		Name:         d.Name,
		CreatedAt:    d.CreatedAt,
		CommentCount: len(d.Comments),
		Rejected:     len(d.Report.Rejected),
	}
}

// DatasetRepository abstracts dataset persistence.
type DatasetRepository interface {
	Save(ctx context.Context, dataset *Dataset) error
	Get(ctx context.Context, id uuid.UUID) (*Dataset, error)
	List(ctx context.Context) ([]DatasetSummary, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}
