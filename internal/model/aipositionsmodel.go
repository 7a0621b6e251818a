package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

const aiPositionsTable = "ai_positions"

// AiPositionRow is one row of ai_positions. Mirrors PaperPositionRow but
// uses Direction (long|short) in place of Side.
type AiPositionRow struct {
	ID                    string
	TraderID              string
	Asset                 string
	Direction             string // long | short
	SizeUsd               float64
	EntryRate8h           float64
	EntryPrice            float64
	TotalFundingCollected float64
	LastFundingAt         int64
	OpenedAt              int64
	IsOpen                bool
	ExitPrice             *float64
	RealizedPnl           *float64
	ClosedAt              *int64
	FeesPaid              float64
}

type aiPositionScanRow struct {
	ID                    string          `db:"id"`
	TraderID              string          `db:"trader_id"`
	Asset                 string          `db:"asset"`
	Direction             string          `db:"direction"`
	SizeUsd               float64         `db:"size_usd"`
	EntryRate8h           float64         `db:"entry_rate8h"`
	EntryPrice            float64         `db:"entry_price"`
	TotalFundingCollected float64         `db:"total_funding_collected"`
	LastFundingAt         int64           `db:"last_funding_at"`
	OpenedAt              int64           `db:"opened_at"`
	IsOpen                bool            `db:"is_open"`
	ExitPrice             sql.NullFloat64 `db:"exit_price"`
	RealizedPnl           sql.NullFloat64 `db:"realized_pnl"`
	ClosedAt              sql.NullInt64   `db:"closed_at"`
	FeesPaid              float64         `db:"fees_paid"`
}

func (s aiPositionScanRow) toRow() AiPositionRow {
	return AiPositionRow{
		ID: s.ID, TraderID: s.TraderID, Asset: s.Asset, Direction: s.Direction, SizeUsd: s.SizeUsd,
		EntryRate8h: s.EntryRate8h, EntryPrice: s.EntryPrice, TotalFundingCollected: s.TotalFundingCollected,
		LastFundingAt: s.LastFundingAt, OpenedAt: s.OpenedAt, IsOpen: s.IsOpen,
		ExitPrice: floatPtr(s.ExitPrice), RealizedPnl: floatPtr(s.RealizedPnl),
		ClosedAt: int64Ptr(s.ClosedAt), FeesPaid: s.FeesPaid,
	}
}

// AiPositionsModel persists AI trader positions.
type AiPositionsModel struct {
	conn sqlx.SqlConn
}

func NewAiPositionsModel(conn sqlx.SqlConn) *AiPositionsModel {
	return &AiPositionsModel{conn: conn}
}

func (m *AiPositionsModel) OpenByTrader(ctx context.Context, traderID string) ([]AiPositionRow, error) {
	query := fmt.Sprintf(`
SELECT id, trader_id, asset, direction, size_usd, entry_rate8h, entry_price, total_funding_collected,
       last_funding_at, opened_at, is_open, exit_price, realized_pnl, closed_at, fees_paid
FROM %s WHERE trader_id = $1 AND is_open = true`, aiPositionsTable)

	var scanned []aiPositionScanRow
	if err := m.conn.QueryRowsCtx(ctx, &scanned, query, traderID); err != nil {
		return nil, err
	}
	out := make([]AiPositionRow, len(scanned))
	for i, s := range scanned {
		out[i] = s.toRow()
	}
	return out, nil
}

func (m *AiPositionsModel) ClosedRecent(ctx context.Context, traderID string, limit int) ([]AiPositionRow, error) {
	query := fmt.Sprintf(`
SELECT id, trader_id, asset, direction, size_usd, entry_rate8h, entry_price, total_funding_collected,
       last_funding_at, opened_at, is_open, exit_price, realized_pnl, closed_at, fees_paid
FROM %s WHERE trader_id = $1 AND is_open = false ORDER BY closed_at DESC LIMIT $2`, aiPositionsTable)

	var scanned []aiPositionScanRow
	if err := m.conn.QueryRowsCtx(ctx, &scanned, query, traderID, limit); err != nil {
		return nil, err
	}
	out := make([]AiPositionRow, len(scanned))
	for i, s := range scanned {
		out[i] = s.toRow()
	}
	return out, nil
}

func (m *AiPositionsModel) Insert(ctx context.Context, row AiPositionRow) (string, error) {
	id := row.ID
	if id == "" {
		id = newID()
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, trader_id, asset, direction, size_usd, entry_rate8h, entry_price,
                 total_funding_collected, last_funding_at, opened_at, is_open, fees_paid)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,true,$11)`, aiPositionsTable)

	_, err := m.conn.ExecCtx(ctx, query, id, row.TraderID, row.Asset, row.Direction, row.SizeUsd,
		row.EntryRate8h, row.EntryPrice, row.TotalFundingCollected, row.LastFundingAt, row.OpenedAt, row.FeesPaid)
	return id, err
}

func (m *AiPositionsModel) UpdateFunding(ctx context.Context, id string, totalFundingCollected float64, lastFundingAt int64) error {
	query := fmt.Sprintf(`UPDATE %s SET total_funding_collected = $2, last_funding_at = $3 WHERE id = $1`, aiPositionsTable)
	_, err := m.conn.ExecCtx(ctx, query, id, totalFundingCollected, lastFundingAt)
	return err
}

func (m *AiPositionsModel) Close(ctx context.Context, id string, exitPrice, realizedPnl float64, closedAt int64) error {
	query := fmt.Sprintf(`UPDATE %s SET is_open = false, exit_price = $2, realized_pnl = $3, closed_at = $4 WHERE id = $1`, aiPositionsTable)
	_, err := m.conn.ExecCtx(ctx, query, id, exitPrice, realizedPnl, closedAt)
	return err
}
