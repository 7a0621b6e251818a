package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

const paperTransactionsTable = "paper_transactions"

// TransactionType enumerates the append-only audit-log entry kinds.
type TransactionType string

const (
	TxOpen    TransactionType = "open"
	TxClose   TransactionType = "close"
	TxFee     TransactionType = "fee"
	TxFunding TransactionType = "funding"
)

// PaperTransactionRow is one row of paper_transactions.
type PaperTransactionRow struct {
	ID          string
	PortfolioID string
	PositionID  *string
	Type        TransactionType
	Asset       string
	Amount      float64
	Description string
	CreatedAt   int64
}

type paperTransactionScanRow struct {
	ID          string         `db:"id"`
	PortfolioID string         `db:"portfolio_id"`
	PositionID  sql.NullString `db:"position_id"`
	Type        string         `db:"type"`
	Asset       string         `db:"asset"`
	Amount      float64        `db:"amount"`
	Description string         `db:"description"`
	CreatedAt   int64          `db:"created_at"`
}

func (s paperTransactionScanRow) toRow() PaperTransactionRow {
	return PaperTransactionRow{
		ID: s.ID, PortfolioID: s.PortfolioID, PositionID: stringPtr(s.PositionID),
		Type: TransactionType(s.Type), Asset: s.Asset, Amount: s.Amount,
		Description: s.Description, CreatedAt: s.CreatedAt,
	}
}

// PaperTransactionsModel persists the append-only transaction audit log.
type PaperTransactionsModel struct {
	conn sqlx.SqlConn
}

func NewPaperTransactionsModel(conn sqlx.SqlConn) *PaperTransactionsModel {
	return &PaperTransactionsModel{conn: conn}
}

func (m *PaperTransactionsModel) Insert(ctx context.Context, row PaperTransactionRow) error {
	id := row.ID
	if id == "" {
		id = newID()
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, portfolio_id, position_id, type, asset, amount, description, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, paperTransactionsTable)

	_, err := m.conn.ExecCtx(ctx, query, id, row.PortfolioID, row.PositionID, string(row.Type),
		row.Asset, row.Amount, row.Description, row.CreatedAt)
	return err
}

func (m *PaperTransactionsModel) Recent(ctx context.Context, portfolioID string, limit int) ([]PaperTransactionRow, error) {
	query := fmt.Sprintf(`
SELECT id, portfolio_id, position_id, type, asset, amount, description, created_at
FROM %s WHERE portfolio_id = $1 ORDER BY created_at DESC LIMIT $2`, paperTransactionsTable)

	var scanned []paperTransactionScanRow
	if err := m.conn.QueryRowsCtx(ctx, &scanned, query, portfolioID, limit); err != nil {
		return nil, err
	}
	out := make([]PaperTransactionRow, len(scanned))
	for i, s := range scanned {
		out[i] = s.toRow()
	}
	return out, nil
}
