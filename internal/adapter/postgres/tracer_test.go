package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/adapter/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestQueryName(t *testing.T) {
	tests := []struct {
		sql  string
		want string
	}{
		{"", "unknown"},
		{"SELECT id, name FROM datasets ORDER BY created_at DESC", "select datasets"},
		{"select count(*) from comments where dataset_id = $1", "select comments"},
		{"INSERT INTO datasets (id, name) VALUES ($1, $2)", "insert datasets"},
		{"DELETE FROM datasets WHERE created_at < $1 RETURNING id", "delete datasets"},
		{"UPDATE datasets SET name = $1", "update datasets"},
		{"\n\tBEGIN", "begin"},
		{"SELECT 1", "select"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, queryName(tt.sql), tt.sql)
	}
}

func TestMetricsTracer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewDBMetrics(reg)
	tracer := NewMetricsTracer(m)

	ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "DELETE FROM datasets WHERE id = $1"})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: errors.New("boom")})

	ctx = tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT id FROM datasets"})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})

	assert.InDelta(t, 1, testutil.ToFloat64(m.Errors.WithLabelValues("delete datasets")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.Errors.WithLabelValues("select datasets")), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(m.QueryDuration))

	// An end without a matching start is ignored.
	tracer.TraceQueryEnd(context.Background(), nil, pgx.TraceQueryEndData{Err: errors.New("boom")})
	assert.InDelta(t, 1, testutil.ToFloat64(m.Errors.WithLabelValues("delete datasets")), 0)
}
