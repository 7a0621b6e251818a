package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

const paperPortfoliosTable = "paper_portfolios"

// PaperPortfolioRow is one row of paper_portfolios.
type PaperPortfolioRow struct {
	ID             string
	StrategyName   string
	StrategyConfig string // opaque JSON blob, see pkg/paper/config.go
	CashBalance    float64
	InitialBalance float64
	IsActive       bool
	CreatedAt      int64
}

type paperPortfolioScanRow struct {
	ID             string  `db:"id"`
	StrategyName   string  `db:"strategy_name"`
	StrategyConfig string  `db:"strategy_config"`
	CashBalance    float64 `db:"cash_balance"`
	InitialBalance float64 `db:"initial_balance"`
	IsActive       bool    `db:"is_active"`
	CreatedAt      int64   `db:"created_at"`
}

func (s paperPortfolioScanRow) toRow() PaperPortfolioRow {
	return PaperPortfolioRow(s)
}

// PaperPortfoliosModel persists paper-trading portfolios.
type PaperPortfoliosModel struct {
	conn sqlx.SqlConn
}

func NewPaperPortfoliosModel(conn sqlx.SqlConn) *PaperPortfoliosModel {
	return &PaperPortfoliosModel{conn: conn}
}

func (m *PaperPortfoliosModel) ListActive(ctx context.Context) ([]PaperPortfolioRow, error) {
	query := fmt.Sprintf(`SELECT id, strategy_name, strategy_config, cash_balance, initial_balance, is_active, created_at FROM %s WHERE is_active = true`, paperPortfoliosTable)
	var scanned []paperPortfolioScanRow
	if err := m.conn.QueryRowsCtx(ctx, &scanned, query); err != nil {
		return nil, err
	}
	out := make([]PaperPortfolioRow, len(scanned))
	for i, s := range scanned {
		out[i] = s.toRow()
	}
	return out, nil
}

func (m *PaperPortfoliosModel) ListAll(ctx context.Context) ([]PaperPortfolioRow, error) {
	query := fmt.Sprintf(`SELECT id, strategy_name, strategy_config, cash_balance, initial_balance, is_active, created_at FROM %s`, paperPortfoliosTable)
	var scanned []paperPortfolioScanRow
	if err := m.conn.QueryRowsCtx(ctx, &scanned, query); err != nil {
		return nil, err
	}
	out := make([]PaperPortfolioRow, len(scanned))
	for i, s := range scanned {
		out[i] = s.toRow()
	}
	return out, nil
}

func (m *PaperPortfoliosModel) FindOne(ctx context.Context, id string) (*PaperPortfolioRow, error) {
	query := fmt.Sprintf(`SELECT id, strategy_name, strategy_config, cash_balance, initial_balance, is_active, created_at FROM %s WHERE id = $1`, paperPortfoliosTable)
	var scanned paperPortfolioScanRow
	if err := m.conn.QueryRowCtx(ctx, &scanned, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	row := scanned.toRow()
	return &row, nil
}

// UpdateCashBalance persists the owning portfolio's updated cash balance in
// a single write at the end of a cycle.
func (m *PaperPortfoliosModel) UpdateCashBalance(ctx context.Context, id string, cashBalance float64) error {
	query := fmt.Sprintf(`UPDATE %s SET cash_balance = $2 WHERE id = $1`, paperPortfoliosTable)
	_, err := m.conn.ExecCtx(ctx, query, id, cashBalance)
	return err
}
