package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

const aiTradersTable = "ai_traders"

// AiTraderRow is one row of ai_traders.
type AiTraderRow struct {
	ID          string
	Name        string
	Model       string
	Emoji       string
	Persona     string
	CashBalance float64
	IsActive    bool
}

type aiTraderScanRow struct {
	ID          string  `db:"id"`
	Name        string  `db:"name"`
	Model       string  `db:"model"`
	Emoji       string  `db:"emoji"`
	Persona     string  `db:"persona"`
	CashBalance float64 `db:"cash_balance"`
	IsActive    bool    `db:"is_active"`
}

func (s aiTraderScanRow) toRow() AiTraderRow { return AiTraderRow(s) }

// AiTradersModel persists AI trader agent configuration and live balance.
type AiTradersModel struct {
	conn sqlx.SqlConn
}

func NewAiTradersModel(conn sqlx.SqlConn) *AiTradersModel {
	return &AiTradersModel{conn: conn}
}

func (m *AiTradersModel) FindByName(ctx context.Context, name string) (*AiTraderRow, error) {
	query := fmt.Sprintf(`SELECT id, name, model, emoji, persona, cash_balance, is_active FROM %s WHERE name = $1 AND is_active = true`, aiTradersTable)
	var scanned aiTraderScanRow
	if err := m.conn.QueryRowCtx(ctx, &scanned, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	row := scanned.toRow()
	return &row, nil
}

func (m *AiTradersModel) ListActive(ctx context.Context) ([]AiTraderRow, error) {
	query := fmt.Sprintf(`SELECT id, name, model, emoji, persona, cash_balance, is_active FROM %s WHERE is_active = true`, aiTradersTable)
	var scanned []aiTraderScanRow
	if err := m.conn.QueryRowsCtx(ctx, &scanned, query); err != nil {
		return nil, err
	}
	out := make([]AiTraderRow, len(scanned))
	for i, s := range scanned {
		out[i] = s.toRow()
	}
	return out, nil
}

func (m *AiTradersModel) UpdateCashBalance(ctx context.Context, id string, cashBalance float64) error {
	query := fmt.Sprintf(`UPDATE %s SET cash_balance = $2 WHERE id = $1`, aiTradersTable)
	_, err := m.conn.ExecCtx(ctx, query, id, cashBalance)
	return err
}
