// Package snapshotwriter asynchronously persists every polled rate batch to
// the store, fire-and-forget from the poll loop's perspective. Grounded on
// internal/persistence/engine/persistence.go's "log on error, never
// propagate" policy.
package snapshotwriter

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"hldesk-api/internal/model"
	"hldesk-api/pkg/venue"
)

const chunkSize = 500

// Store is the persistence dependency the writer needs.
type Store interface {
	InsertBatch(ctx context.Context, rows []model.FundingSnapshotRow, chunkSize int) error
}

// Writer bulk-persists FundingRate batches.
type Writer struct {
	store Store
}

func New(store Store) *Writer {
	return &Writer{store: store}
}

// Save appends rate observations to the store in chunks of 500. Errors are
// logged and never returned to the caller — the poll loop must not block or
// abort on a persistence failure.
func (w *Writer) Save(ctx context.Context, rates []venue.FundingRate) {
	if w.store == nil || len(rates) == 0 {
		return
	}
	rows := make([]model.FundingSnapshotRow, len(rates))
	for i, r := range rates {
		rows[i] = model.FundingSnapshotRow{
			Asset: r.Asset, Venue: string(r.Venue), Rate8h: r.Rate8h, RateRaw: r.RateRaw,
			NextFundingTime: r.NextFundingTime, OpenInterest: r.OpenInterest, MarkPrice: r.MarkPrice,
			Change24h: r.Change24h, Volume24h: r.Volume24h, ObservedAt: r.ObservedAt,
		}
	}
	if err := w.store.InsertBatch(ctx, rows, chunkSize); err != nil {
		logx.Errorf("snapshotwriter: persist %d rates failed: %v", len(rows), err)
	}
}
