package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

const paperPositionsTable = "paper_positions"

// PaperPositionRow is one row of paper_positions.
type PaperPositionRow struct {
	ID                    string
	PortfolioID           string
	Asset                 string
	Side                  string // short_perp | long_perp
	SizeUsd               float64
	EntryRate8h           float64
	EntrySpread           float64
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

type paperPositionScanRow struct {
	ID                    string          `db:"id"`
	PortfolioID           string          `db:"portfolio_id"`
	Asset                 string          `db:"asset"`
	Side                  string          `db:"side"`
	SizeUsd               float64         `db:"size_usd"`
	EntryRate8h           float64         `db:"entry_rate8h"`
	EntrySpread           float64         `db:"entry_spread"`
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

func (s paperPositionScanRow) toRow() PaperPositionRow {
	return PaperPositionRow{
		ID: s.ID, PortfolioID: s.PortfolioID, Asset: s.Asset, Side: s.Side, SizeUsd: s.SizeUsd,
		EntryRate8h: s.EntryRate8h, EntrySpread: s.EntrySpread, EntryPrice: s.EntryPrice,
		TotalFundingCollected: s.TotalFundingCollected, LastFundingAt: s.LastFundingAt,
		OpenedAt: s.OpenedAt, IsOpen: s.IsOpen, ExitPrice: floatPtr(s.ExitPrice),
		RealizedPnl: floatPtr(s.RealizedPnl), ClosedAt: int64Ptr(s.ClosedAt), FeesPaid: s.FeesPaid,
	}
}

// PaperPositionsModel persists paper-trading positions.
type PaperPositionsModel struct {
	conn sqlx.SqlConn
}

func NewPaperPositionsModel(conn sqlx.SqlConn) *PaperPositionsModel {
	return &PaperPositionsModel{conn: conn}
}

// OpenByPortfolios returns every open position grouped by portfolio id, a
// fan-out read across the full paper-trading owner set in one query.
func (m *PaperPositionsModel) OpenByPortfolios(ctx context.Context, portfolioIDs []string) (map[string][]PaperPositionRow, error) {
	if len(portfolioIDs) == 0 {
		return map[string][]PaperPositionRow{}, nil
	}
	query := fmt.Sprintf(`
SELECT id, portfolio_id, asset, side, size_usd, entry_rate8h, entry_spread, entry_price,
       total_funding_collected, last_funding_at, opened_at, is_open, exit_price, realized_pnl, closed_at, fees_paid
FROM %s WHERE is_open = true AND portfolio_id = ANY($1)`, paperPositionsTable)

	var scanned []paperPositionScanRow
	if err := m.conn.QueryRowsCtx(ctx, &scanned, query, portfolioIDs); err != nil {
		return nil, err
	}
	out := make(map[string][]PaperPositionRow, len(portfolioIDs))
	for _, s := range scanned {
		row := s.toRow()
		out[row.PortfolioID] = append(out[row.PortfolioID], row)
	}
	return out, nil
}

func (m *PaperPositionsModel) ClosedRecent(ctx context.Context, portfolioID string, limit int) ([]PaperPositionRow, error) {
	query := fmt.Sprintf(`
SELECT id, portfolio_id, asset, side, size_usd, entry_rate8h, entry_spread, entry_price,
       total_funding_collected, last_funding_at, opened_at, is_open, exit_price, realized_pnl, closed_at, fees_paid
FROM %s WHERE portfolio_id = $1 AND is_open = false ORDER BY closed_at DESC LIMIT $2`, paperPositionsTable)

	var scanned []paperPositionScanRow
	if err := m.conn.QueryRowsCtx(ctx, &scanned, query, portfolioID, limit); err != nil {
		return nil, err
	}
	out := make([]PaperPositionRow, len(scanned))
	for i, s := range scanned {
		out[i] = s.toRow()
	}
	return out, nil
}

func (m *PaperPositionsModel) Insert(ctx context.Context, row PaperPositionRow) (string, error) {
	id := row.ID
	if id == "" {
		id = newID()
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, portfolio_id, asset, side, size_usd, entry_rate8h, entry_spread, entry_price,
                 total_funding_collected, last_funding_at, opened_at, is_open, fees_paid)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,true,$12)`, paperPositionsTable)

	_, err := m.conn.ExecCtx(ctx, query, id, row.PortfolioID, row.Asset, row.Side, row.SizeUsd,
		row.EntryRate8h, row.EntrySpread, row.EntryPrice, row.TotalFundingCollected,
		row.LastFundingAt, row.OpenedAt, row.FeesPaid)
	return id, err
}

// UpdateFunding persists the Phase 1 funding-accrual result for one
// position: new totalFundingCollected and lastFundingAt advanced by exactly
// the whole-hour delta (sub-hour residual preserved for the next cycle).
func (m *PaperPositionsModel) UpdateFunding(ctx context.Context, id string, totalFundingCollected float64, lastFundingAt int64) error {
	query := fmt.Sprintf(`UPDATE %s SET total_funding_collected = $2, last_funding_at = $3 WHERE id = $1`, paperPositionsTable)
	_, err := m.conn.ExecCtx(ctx, query, id, totalFundingCollected, lastFundingAt)
	return err
}

func (m *PaperPositionsModel) Close(ctx context.Context, id string, exitPrice, realizedPnl float64, closedAt int64) error {
	query := fmt.Sprintf(`UPDATE %s SET is_open = false, exit_price = $2, realized_pnl = $3, closed_at = $4 WHERE id = $1`, paperPositionsTable)
	_, err := m.conn.ExecCtx(ctx, query, id, exitPrice, realizedPnl, closedAt)
	return err
}
