package storage

import (
	"context"

	"ammScope/internal/model"
)

// SnapshotSink persists decoded reserve snapshots.
type SnapshotSink interface {
	PutSnapshots(ctx context.Context, snapshots []model.ReserveSnapshot) error
}

// SnapshotReader returns the most recent snapshot stored for a pair.
// ok is false when nothing has been indexed for it yet.
type SnapshotReader interface {
	LatestSnapshot(ctx context.Context, pair string) (snap model.ReserveSnapshot, ok bool, err error)
}

// QuoteSink persists served quote records.
type QuoteSink interface {
	PutQuotes(ctx context.Context, quotes []model.QuoteRecord) error
}
