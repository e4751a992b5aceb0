package postgres

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}
	os.Exit(runWithContainer(m))
}

func runWithContainer(m *testing.M) int {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start postgres container: %v\n", err)
		return 1
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to terminate postgres container: %v\n", err)
		}
	}()

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get connection string: %v\n", err)
		return 1
	}

	testPool, err = Connect(ctx, connStr, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to test database: %v\n", err)
		return 1
	}
	defer testPool.Close()

	if err := RunMigrationsWithLock(ctx, testPool); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to run migrations: %v\n", err)
		return 1
	}

	return m.Run()
}

// setupTestDB returns the shared pool and truncates all tables after the test.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	t.Cleanup(func() {
		_, err := testPool.Exec(context.Background(), "TRUNCATE datasets CASCADE")
		require.NoError(t, err)
	})
	return testPool
}

func ptr[T any](v T) *T { return &v }

func sampleDataset(name string, createdAt time.Time) *domain.Dataset {
	posted := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return &domain.Dataset{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: createdAt,
		Comments: []domain.TaggedComment{
			{
				Comment: domain.Comment{
					Line: 2, ID: "c1", Author: "alice", Text: "好看", Words: []string{"好看"},
					RawLabel: ptr(domain.LabelPositive), Score: ptr(0.92), Likes: ptr(12), PostedAt: &posted,
				},
				Label: domain.LabelPositive, Score: 0.92, LabelSource: domain.SourceDataset,
			},
			{
				Comment:     domain.Comment{Line: 4, Text: "boring"},
				Label:       domain.LabelNegative,
				Score:       0,
				LabelSource: domain.SourceLexicon,
			},
		},
		Report: domain.ImportReport{
			TotalRows: 3,
			Accepted:  2,
			Rejected:  []domain.RowError{{Line: 3, Column: "like_count", Message: "not an integer"}},
			Columns:   []string{"content_cleaned", "like_count"},
		},
	}
}

func TestDatasetRepo_SaveAndGet(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewDatasetRepo(pool)
	ctx := context.Background()

	ds := sampleDataset("first", time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, repo.Save(ctx, ds))

	got, err := repo.Get(ctx, ds.ID)
	require.NoError(t, err)

	assert.Equal(t, ds.Name, got.Name)
	assert.True(t, ds.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, ds.Report.TotalRows, got.Report.TotalRows)
	assert.Equal(t, ds.Report.Rejected, got.Report.Rejected)
	assert.Equal(t, ds.Report.Columns, got.Report.Columns)

	require.Len(t, got.Comments, 2)
	first := got.Comments[0]
	assert.Equal(t, "c1", first.ID)
	assert.Equal(t, []string{"好看"}, first.Words)
	require.NotNil(t, first.RawLabel)
	assert.Equal(t, domain.LabelPositive, *first.RawLabel)
	require.NotNil(t, first.Likes)
	assert.Equal(t, 12, *first.Likes)
	require.NotNil(t, first.PostedAt)
	assert.True(t, ds.Comments[0].PostedAt.Equal(*first.PostedAt))
	assert.Equal(t, domain.SourceDataset, first.LabelSource)

	second := got.Comments[1]
	assert.Nil(t, second.RawLabel)
	assert.Nil(t, second.Likes)
	assert.Nil(t, second.PostedAt)
	assert.Nil(t, second.Words)
	assert.Equal(t, domain.LabelNegative, second.Label)
}

func TestDatasetRepo_GetNotFound(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewDatasetRepo(pool)

	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrDatasetNotFound)
}

func TestDatasetRepo_ListAndDelete(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewDatasetRepo(pool)
	ctx := context.Background()
	now := time.Now().UTC()

	older := sampleDataset("older", now.Add(-time.Hour))
	newer := sampleDataset("newer", now)
	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Name)
	assert.Equal(t, 2, list[0].CommentCount)
	assert.Equal(t, 1, list[0].Rejected)

	require.NoError(t, repo.Delete(ctx, older.ID))
	assert.ErrorIs(t, repo.Delete(ctx, older.ID), domain.ErrDatasetNotFound)

	var comments int
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM comments WHERE dataset_id = $1", older.ID).Scan(&comments))
	assert.Zero(t, comments, "comments cascade with their dataset")
}

func TestDatasetRepo_DeleteOlderThan(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewDatasetRepo(pool)
	ctx := context.Background()
	now := time.Now().UTC()

	stale := sampleDataset("stale", now.Add(-72*time.Hour))
	fresh := sampleDataset("fresh", now)
	require.NoError(t, repo.Save(ctx, stale))
	require.NoError(t, repo.Save(ctx, fresh))

	removed, err := repo.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{stale.ID}, removed)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, fresh.ID, list[0].ID)
}

func TestRunMigrationsWithLock_Idempotent(t *testing.T) {
	pool := setupTestDB(t)
	require.NoError(t, RunMigrationsWithLock(context.Background(), pool))
}
