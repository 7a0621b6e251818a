package model

import (
	"context"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// OwnerKind discriminates which engine an equity snapshot belongs to.
type OwnerKind string

const (
	OwnerPortfolio OwnerKind = "portfolio"
	OwnerAgent     OwnerKind = "agent"
)

// EquitySnapshotRow is one row of paper_snapshots or ai_snapshots — both
// tables share this shape; only the table name differs. Inserts are plain
// INSERTs with no conflict handling (see Insert).
type EquitySnapshotRow struct {
	ID               string
	OwnerID          string
	OwnerKind        OwnerKind
	SnapshotAt       int64
	TotalValue       float64
	CashBalance      float64
	UnrealizedPnl    float64
	FundingCollected float64
	OpenPositions    int
}

type equitySnapshotScanRow struct {
	ID               string  `db:"id"`
	OwnerID          string  `db:"owner_id"`
	OwnerKind        string  `db:"owner_kind"`
	SnapshotAt       int64   `db:"snapshot_at"`
	TotalValue       float64 `db:"total_value"`
	CashBalance      float64 `db:"cash_balance"`
	UnrealizedPnl    float64 `db:"unrealized_pnl"`
	FundingCollected float64 `db:"funding_collected"`
	OpenPositions    int     `db:"open_positions"`
}

func (s equitySnapshotScanRow) toRow() EquitySnapshotRow {
	return EquitySnapshotRow{
		ID: s.ID, OwnerID: s.OwnerID, OwnerKind: OwnerKind(s.OwnerKind), SnapshotAt: s.SnapshotAt,
		TotalValue: s.TotalValue, CashBalance: s.CashBalance, UnrealizedPnl: s.UnrealizedPnl,
		FundingCollected: s.FundingCollected, OpenPositions: s.OpenPositions,
	}
}

// EquitySnapshotsModel persists hourly equity snapshots. One instance is
// constructed per table name (paper_snapshots / ai_snapshots).
type EquitySnapshotsModel struct {
	conn  sqlx.SqlConn
	table string
}

func NewPaperSnapshotsModel(conn sqlx.SqlConn) *EquitySnapshotsModel {
	return &EquitySnapshotsModel{conn: conn, table: "paper_snapshots"}
}

func NewAiSnapshotsModel(conn sqlx.SqlConn) *EquitySnapshotsModel {
	return &EquitySnapshotsModel{conn: conn, table: "ai_snapshots"}
}

// Insert records one hourly snapshot for one owner. Sampler runs are
// naturally deduplicated by (owner_id, snapshot_at) at call time (the
// sampler stamps one snapshot_at per run), so no upsert is needed here —
// unlike RecordAccountSnapshot's conflict-on-unique path, a fresh sampler
// run always produces a new snapshot_at.
func (m *EquitySnapshotsModel) Insert(ctx context.Context, row EquitySnapshotRow) error {
	id := row.ID
	if id == "" {
		id = newID()
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, owner_id, owner_kind, snapshot_at, total_value, cash_balance, unrealized_pnl, funding_collected, open_positions)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`, m.table)

	_, err := m.conn.ExecCtx(ctx, query, id, row.OwnerID, string(row.OwnerKind), row.SnapshotAt,
		row.TotalValue, row.CashBalance, row.UnrealizedPnl, row.FundingCollected, row.OpenPositions)
	return err
}

// Series returns the time series for one owner from `since` (unix millis)
// onward, oldest first.
func (m *EquitySnapshotsModel) Series(ctx context.Context, ownerID string, since int64) ([]EquitySnapshotRow, error) {
	query := fmt.Sprintf(`
SELECT id, owner_id, owner_kind, snapshot_at, total_value, cash_balance, unrealized_pnl, funding_collected, open_positions
FROM %s WHERE owner_id = $1 AND snapshot_at >= $2 ORDER BY snapshot_at ASC`, m.table)

	var scanned []equitySnapshotScanRow
	if err := m.conn.QueryRowsCtx(ctx, &scanned, query, ownerID, since); err != nil {
		return nil, err
	}
	out := make([]EquitySnapshotRow, len(scanned))
	for i, s := range scanned {
		out[i] = s.toRow()
	}
	return out, nil
}

// Values returns total_value ordered ascending by snapshot_at — the raw
// input pkg/analytics.ComputeSharpeAndDrawdown expects.
func (m *EquitySnapshotsModel) Values(ctx context.Context, ownerID string) ([]float64, error) {
	query := fmt.Sprintf(`SELECT total_value FROM %s WHERE owner_id = $1 ORDER BY snapshot_at ASC`, m.table)
	var values []float64
	if err := m.conn.QueryRowsCtx(ctx, &values, query, ownerID); err != nil {
		return nil, err
	}
	return values, nil
}
