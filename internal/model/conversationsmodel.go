package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

const conversationsTable = "conversations"

// ConversationRow groups the prompt/response messages exchanged for one
// AI trader decision cycle, giving each AiDecision row an inspectable trail
// of what the LLM was actually asked and what it replied.
type ConversationRow struct {
	ID         string
	TraderID   string
	DecisionID *string
	CreatedAt  int64
}

type conversationScanRow struct {
	ID         string         `db:"id"`
	TraderID   string         `db:"trader_id"`
	DecisionID sql.NullString `db:"decision_id"`
	CreatedAt  int64          `db:"created_at"`
}

func (s conversationScanRow) toRow() ConversationRow {
	return ConversationRow{ID: s.ID, TraderID: s.TraderID, DecisionID: stringPtr(s.DecisionID), CreatedAt: s.CreatedAt}
}

// ConversationsModel persists one row per AI trader decision cycle.
type ConversationsModel struct {
	conn sqlx.SqlConn
}

func NewConversationsModel(conn sqlx.SqlConn) *ConversationsModel {
	return &ConversationsModel{conn: conn}
}

func (m *ConversationsModel) Insert(ctx context.Context, row ConversationRow) (string, error) {
	id := row.ID
	if id == "" {
		id = newID()
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, trader_id, decision_id, created_at) VALUES ($1,$2,$3,$4)`, conversationsTable)
	_, err := m.conn.ExecCtx(ctx, query, id, row.TraderID, row.DecisionID, row.CreatedAt)
	return id, err
}

func (m *ConversationsModel) FindByDecision(ctx context.Context, decisionID string) (*ConversationRow, error) {
	query := fmt.Sprintf(`SELECT id, trader_id, decision_id, created_at FROM %s WHERE decision_id = $1`, conversationsTable)
	var scanned conversationScanRow
	if err := m.conn.QueryRowCtx(ctx, &scanned, query, decisionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	row := scanned.toRow()
	return &row, nil
}

func (m *ConversationsModel) Recent(ctx context.Context, traderID string, limit int) ([]ConversationRow, error) {
	query := fmt.Sprintf(`SELECT id, trader_id, decision_id, created_at FROM %s WHERE trader_id = $1 ORDER BY created_at DESC LIMIT $2`, conversationsTable)
	var scanned []conversationScanRow
	if err := m.conn.QueryRowsCtx(ctx, &scanned, query, traderID, limit); err != nil {
		return nil, err
	}
	out := make([]ConversationRow, len(scanned))
	for i, s := range scanned {
		out[i] = s.toRow()
	}
	return out, nil
}
