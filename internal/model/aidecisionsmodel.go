package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

const aiDecisionsTable = "ai_decisions"

// DecisionAction enumerates the AI trader's closed action set.
type DecisionAction string

const (
	ActionOpenLong  DecisionAction = "open_long"
	ActionOpenShort DecisionAction = "open_short"
	ActionClose     DecisionAction = "close"
	ActionHold      DecisionAction = "hold"
)

// AiDecisionRow is one row of ai_decisions — exactly one is persisted per
// decision cycle.
type AiDecisionRow struct {
	ID        string
	TraderID  string
	Action    DecisionAction
	Asset     *string
	SizeUsd   *float64
	Reasoning string
	CreatedAt int64
}

type aiDecisionScanRow struct {
	ID        string          `db:"id"`
	TraderID  string          `db:"trader_id"`
	Action    string          `db:"action"`
	Asset     sql.NullString  `db:"asset"`
	SizeUsd   sql.NullFloat64 `db:"size_usd"`
	Reasoning string          `db:"reasoning"`
	CreatedAt int64           `db:"created_at"`
}

func (s aiDecisionScanRow) toRow() AiDecisionRow {
	return AiDecisionRow{
		ID: s.ID, TraderID: s.TraderID, Action: DecisionAction(s.Action),
		Asset: stringPtr(s.Asset), SizeUsd: floatPtr(s.SizeUsd),
		Reasoning: s.Reasoning, CreatedAt: s.CreatedAt,
	}
}

// AiDecisionsModel persists the AI trader engine's per-cycle decision log.
type AiDecisionsModel struct {
	conn sqlx.SqlConn
}

func NewAiDecisionsModel(conn sqlx.SqlConn) *AiDecisionsModel {
	return &AiDecisionsModel{conn: conn}
}

func (m *AiDecisionsModel) Insert(ctx context.Context, row AiDecisionRow) (string, error) {
	id := row.ID
	if id == "" {
		id = newID()
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, trader_id, action, asset, size_usd, reasoning, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, aiDecisionsTable)

	_, err := m.conn.ExecCtx(ctx, query, id, row.TraderID, string(row.Action), row.Asset, row.SizeUsd, row.Reasoning, row.CreatedAt)
	return id, err
}

func (m *AiDecisionsModel) Recent(ctx context.Context, traderID string, limit int) ([]AiDecisionRow, error) {
	query := fmt.Sprintf(`
SELECT id, trader_id, action, asset, size_usd, reasoning, created_at
FROM %s WHERE trader_id = $1 ORDER BY created_at DESC LIMIT $2`, aiDecisionsTable)

	var scanned []aiDecisionScanRow
	if err := m.conn.QueryRowsCtx(ctx, &scanned, query, traderID, limit); err != nil {
		return nil, err
	}
	out := make([]AiDecisionRow, len(scanned))
	for i, s := range scanned {
		out[i] = s.toRow()
	}
	return out, nil
}

func (m *AiDecisionsModel) Last(ctx context.Context, traderID string) (*AiDecisionRow, error) {
	query := fmt.Sprintf(`
SELECT id, trader_id, action, asset, size_usd, reasoning, created_at
FROM %s WHERE trader_id = $1 ORDER BY created_at DESC LIMIT 1`, aiDecisionsTable)

	var scanned aiDecisionScanRow
	if err := m.conn.QueryRowCtx(ctx, &scanned, query, traderID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	row := scanned.toRow()
	return &row, nil
}
