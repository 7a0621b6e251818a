package model

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

const fundingSnapshotsTable = "funding_snapshots"

// FundingSnapshotRow is one persisted FundingRate observation.
type FundingSnapshotRow struct {
	ID              string
	Asset           string
	Venue           string
	Rate8h          float64
	RateRaw         float64
	NextFundingTime int64
	OpenInterest    *float64
	MarkPrice       *float64
	Change24h       *float64
	Volume24h       *float64
	ObservedAt      int64
}

// fundingSnapshotScanRow mirrors FundingSnapshotRow with sql.Null* fields
// for scanning nullable columns.
type fundingSnapshotScanRow struct {
	ID              string          `db:"id"`
	Asset           string          `db:"asset"`
	Venue           string          `db:"venue"`
	Rate8h          float64         `db:"rate8h"`
	RateRaw         float64         `db:"rate_raw"`
	NextFundingTime int64           `db:"next_funding_time"`
	OpenInterest    sql.NullFloat64 `db:"open_interest"`
	MarkPrice       sql.NullFloat64 `db:"mark_price"`
	Change24h       sql.NullFloat64 `db:"change24h"`
	Volume24h       sql.NullFloat64 `db:"volume24h"`
	ObservedAt      int64           `db:"observed_at"`
}

func (s fundingSnapshotScanRow) toRow() FundingSnapshotRow {
	return FundingSnapshotRow{
		ID: s.ID, Asset: s.Asset, Venue: s.Venue, Rate8h: s.Rate8h, RateRaw: s.RateRaw,
		NextFundingTime: s.NextFundingTime, OpenInterest: floatPtr(s.OpenInterest),
		MarkPrice: floatPtr(s.MarkPrice), Change24h: floatPtr(s.Change24h),
		Volume24h: floatPtr(s.Volume24h), ObservedAt: s.ObservedAt,
	}
}

// FundingSnapshotsModel persists polled funding-rate batches, one multi-row
// INSERT per batch.
type FundingSnapshotsModel struct {
	conn sqlx.SqlConn
}

func NewFundingSnapshotsModel(conn sqlx.SqlConn) *FundingSnapshotsModel {
	return &FundingSnapshotsModel{conn: conn}
}

// InsertBatch bulk-inserts rows in chunks of chunkSize using one
// multi-row INSERT per chunk. Fire-and-forget from the caller's
// perspective: errors are returned for logging by the caller, never
// retried here, and partial chunks already committed stay committed.
func (m *FundingSnapshotsModel) InsertBatch(ctx context.Context, rows []FundingSnapshotRow, chunkSize int) error {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := m.insertChunk(ctx, rows[start:end]); err != nil {
			return fmt.Errorf("funding_snapshots: insert chunk [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}

// insertChunk builds one multi-row INSERT for the whole chunk. Nullable
// columns are bound as *float64 directly: database/sql's default converter
// maps a nil pointer argument to SQL NULL, so no sql.NullFloat64 boxing is
// needed here.
func (m *FundingSnapshotsModel) insertChunk(ctx context.Context, chunk []FundingSnapshotRow) error {
	if len(chunk) == 0 {
		return nil
	}

	const colsPerRow = 11
	placeholders := make([]string, 0, len(chunk))
	args := make([]interface{}, 0, len(chunk)*colsPerRow)

	for i, r := range chunk {
		id := r.ID
		if id == "" {
			id = newID()
		}
		base := i * colsPerRow
		ph := make([]string, colsPerRow)
		for j := 0; j < colsPerRow; j++ {
			ph[j] = fmt.Sprintf("$%d", base+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ", ")+")")
		args = append(args, id, r.Asset, r.Venue, r.Rate8h, r.RateRaw, r.NextFundingTime,
			r.OpenInterest, r.MarkPrice, r.Change24h, r.Volume24h, r.ObservedAt)
	}

	query := fmt.Sprintf(`
INSERT INTO %s (id, asset, venue, rate8h, rate_raw, next_funding_time, open_interest, mark_price, change24h, volume24h, observed_at)
VALUES %s`, fundingSnapshotsTable, strings.Join(placeholders, ", "))

	_, err := m.conn.ExecCtx(ctx, query, args...)
	return err
}

// History returns up to limit rows ordered by observed_at desc, optionally
// filtered by asset/venue/time range.
func (m *FundingSnapshotsModel) History(ctx context.Context, asset, venueName string, from, to int64, limit int) ([]FundingSnapshotRow, error) {
	query := fmt.Sprintf(`
SELECT id, asset, venue, rate8h, rate_raw, next_funding_time, open_interest, mark_price, change24h, volume24h, observed_at
FROM %s WHERE ($1 = '' OR asset = $1) AND ($2 = '' OR venue = $2) AND ($3 = 0 OR observed_at >= $3) AND ($4 = 0 OR observed_at <= $4)
ORDER BY observed_at DESC LIMIT $5`, fundingSnapshotsTable)

	var scanned []fundingSnapshotScanRow
	if err := m.conn.QueryRowsCtx(ctx, &scanned, query, asset, venueName, from, to, limit); err != nil {
		return nil, err
	}
	out := make([]FundingSnapshotRow, len(scanned))
	for i, s := range scanned {
		out[i] = s.toRow()
	}
	return out, nil
}
