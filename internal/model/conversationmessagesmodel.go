package model

import (
	"context"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

const conversationMessagesTable = "conversation_messages"

// ConversationMessageRow is one prompt or response message within a
// conversation. Digest lets callers log or compare messages without
// handling the full rendered text.
type ConversationMessageRow struct {
	ID             string
	ConversationID string
	Role           string // system | user | assistant
	Content        string
	Digest         string
	CreatedAt      int64
}

type conversationMessageScanRow struct {
	ID             string `db:"id"`
	ConversationID string `db:"conversation_id"`
	Role           string `db:"role"`
	Content        string `db:"content"`
	Digest         string `db:"digest"`
	CreatedAt      int64  `db:"created_at"`
}

func (s conversationMessageScanRow) toRow() ConversationMessageRow { return ConversationMessageRow(s) }

// ConversationMessagesModel persists the individual messages within a
// conversation.
type ConversationMessagesModel struct {
	conn sqlx.SqlConn
}

func NewConversationMessagesModel(conn sqlx.SqlConn) *ConversationMessagesModel {
	return &ConversationMessagesModel{conn: conn}
}

func (m *ConversationMessagesModel) Insert(ctx context.Context, row ConversationMessageRow) error {
	id := row.ID
	if id == "" {
		id = newID()
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, conversation_id, role, content, digest, created_at)
VALUES ($1,$2,$3,$4,$5,$6)`, conversationMessagesTable)

	_, err := m.conn.ExecCtx(ctx, query, id, row.ConversationID, row.Role, row.Content, row.Digest, row.CreatedAt)
	return err
}

func (m *ConversationMessagesModel) ByConversation(ctx context.Context, conversationID string) ([]ConversationMessageRow, error) {
	query := fmt.Sprintf(`
SELECT id, conversation_id, role, content, digest, created_at
FROM %s WHERE conversation_id = $1 ORDER BY created_at ASC`, conversationMessagesTable)

	var scanned []conversationMessageScanRow
	if err := m.conn.QueryRowsCtx(ctx, &scanned, query, conversationID); err != nil {
		return nil, err
	}
	out := make([]ConversationMessageRow, len(scanned))
	for i, s := range scanned {
		out[i] = s.toRow()
	}
	return out, nil
}
