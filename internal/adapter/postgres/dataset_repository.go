package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
)

var commentColumns = []string{
	"dataset_id", "position", "line", "comment_id", "author", "body", "words",
	"raw_label", "raw_score", "likes", "posted_at", "label", "score", "label_source",
}

var importErrorColumns = []string{"dataset_id", "position", "line", "column_name", "message"}

type DatasetRepo struct {
	pool *pgxpool.Pool
}

func NewDatasetRepo(pool *pgxpool.Pool) *DatasetRepo {
	return &DatasetRepo{pool: pool}
}

// Save writes the dataset, its comments and its rejected rows in one
// transaction. Comments and errors are bulk loaded with COPY.
func (r *DatasetRepo) Save(ctx context.Context, ds *domain.Dataset) error {
	if ds == nil || ds.ID == uuid.Nil {
		return fmt.Errorf("dataset must have an ID")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	columns := ds.Report.Columns
	if columns == nil {
		columns = []string{}
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO datasets (id, name, created_at, total_rows, accepted_rows, rejected_rows, columns)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ds.ID, ds.Name, ds.CreatedAt, ds.Report.TotalRows, ds.Report.Accepted, len(ds.Report.Rejected), columns)
	if err != nil {
		return fmt.Errorf("failed to insert dataset: %w", err)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"comments"}, commentColumns,
		pgx.CopyFromSlice(len(ds.Comments), func(i int) ([]any, error) {
			c := ds.Comments[i]
			words := c.Words
			if words == nil {
				words = []string{}
			}
			var rawLabel *string
			if c.RawLabel != nil {
				s := string(*c.RawLabel)
				rawLabel = &s
			}
			return []any{
				ds.ID, i, c.Line, c.ID, c.Author, c.Text, words,
				rawLabel, c.Comment.Score, c.Likes, c.PostedAt,
				string(c.Label), c.Score, string(c.LabelSource),
			}, nil
		})); err != nil {
		return fmt.Errorf("failed to copy comments: %w", err)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"import_errors"}, importErrorColumns,
		pgx.CopyFromSlice(len(ds.Report.Rejected), func(i int) ([]any, error) {
			e := ds.Report.Rejected[i]
			return []any{ds.ID, i, e.Line, e.Column, e.Message}, nil
		})); err != nil {
		return fmt.Errorf("failed to copy import errors: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit dataset: %w", err)
	}
	return nil
}

func (r *DatasetRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Dataset, error) {
	ds := domain.Dataset{ID: id}
	var rejected int
	err := r.pool.QueryRow(ctx, `
		SELECT name, created_at, total_rows, accepted_rows, rejected_rows, columns
		FROM datasets WHERE id = $1`, id).
		Scan(&ds.Name, &ds.CreatedAt, &ds.Report.TotalRows, &ds.Report.Accepted, &rejected, &ds.Report.Columns)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDatasetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}

	if ds.Comments, err = r.comments(ctx, id); err != nil {
		return nil, err
	}
	if ds.Report.Rejected, err = r.importErrors(ctx, id, rejected); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (r *DatasetRepo) comments(ctx context.Context, id uuid.UUID) ([]domain.TaggedComment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT line, comment_id, author, body, words, raw_label, raw_score, likes, posted_at,
		       label, score, label_source
		FROM comments WHERE dataset_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}

	comments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.TaggedComment, error) {
		var (
			c        domain.TaggedComment
			rawLabel *string
			label    string
			source   string
		)
		err := row.Scan(&c.Line, &c.ID, &c.Author, &c.Text, &c.Words, &rawLabel, &c.Comment.Score,
			&c.Likes, &c.PostedAt, &label, &c.Score, &source)
		if err != nil {
			return c, err
		}
		if rawLabel != nil {
			l := domain.Label(*rawLabel)
			c.RawLabel = &l
		}
		if len(c.Words) == 0 {
			c.Words = nil
		}
		c.Label = domain.Label(label)
		c.LabelSource = domain.LabelSource(source)
		return c, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan comments: %w", err)
	}
	return comments, nil
}

func (r *DatasetRepo) importErrors(ctx context.Context, id uuid.UUID, expected int) ([]domain.RowError, error) {
	if expected == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT line, column_name, message
		FROM import_errors WHERE dataset_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query import errors: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.RowError, error) {
		var e domain.RowError
		err := row.Scan(&e.Line, &e.Column, &e.Message)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan import errors: %w", err)
	}
	return out, nil
}

// List returns summaries, newest first.
func (r *DatasetRepo) List(ctx context.Context) ([]domain.DatasetSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, created_at, accepted_rows, rejected_rows
		FROM datasets ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.DatasetSummary, error) {
		var s domain.DatasetSummary
		err := row.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.CommentCount, &s.Rejected)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan datasets: %w", err)
	}
	return out, nil
}

func (r *DatasetRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDatasetNotFound
	}
	return nil
}

func (r *DatasetRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `DELETE FROM datasets WHERE created_at < $1 RETURNING id`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to delete expired datasets: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("failed to collect deleted dataset IDs: %w", err)
	}
	return ids, nil
}
