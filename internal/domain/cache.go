package domain

import "context"

// AggregateCache stores serialized aggregate views keyed by dataset and
// parameters. Implementations layer an in-process cache over Redis.
type AggregateCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	InvalidateDataset(ctx context.Context, datasetID string) error
}

// AggregateKeyPrefix is shared by every cached view of one dataset.
func AggregateKeyPrefix(datasetID string) string {
	return "agg:" + datasetID + ":"
}

// AggregateKey names one cached view. params must be a canonical encoding
// of every parameter the view depends on.
func AggregateKey(datasetID, view, params string) string {
	return AggregateKeyPrefix(datasetID) + view + ":" + params
}
