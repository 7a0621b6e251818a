package svc

import (
	"context"

	"hldesk-api/internal/model"
	"hldesk-api/pkg/paper"
)

// paperStore implements pkg/paper.Store over internal/model, converting
// between the model's raw Postgres rows and the engine's in-memory domain
// types. Kept as a thin field-for-field adapter, not a second copy of the
// engine's business logic.
type paperStore struct {
	svc *ServiceContext
}

func (s *paperStore) ActivePortfolios(ctx context.Context) ([]paper.Portfolio, error) {
	rows, err := s.svc.PaperPortfoliosModel.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]paper.Portfolio, len(rows))
	for i, r := range rows {
		cfg, err := paper.ParseConfigJSON(r.StrategyConfig)
		if err != nil {
			return nil, err
		}
		out[i] = paper.Portfolio{
			ID:             r.ID,
			StrategyName:   paper.Strategy(r.StrategyName),
			StrategyConfig: cfg,
			CashBalance:    r.CashBalance,
			InitialBalance: r.InitialBalance,
			IsActive:       r.IsActive,
			CreatedAt:      r.CreatedAt,
		}
	}
	return out, nil
}

func (s *paperStore) OpenPositions(ctx context.Context, portfolioIDs []string) (map[string][]paper.Position, error) {
	byPortfolio, err := s.svc.PaperPositionsModel.OpenByPortfolios(ctx, portfolioIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]paper.Position, len(byPortfolio))
	for portfolioID, rows := range byPortfolio {
		positions := make([]paper.Position, len(rows))
		for i, r := range rows {
			positions[i] = toPaperPosition(r)
		}
		out[portfolioID] = positions
	}
	return out, nil
}

func (s *paperStore) UpdatePositionFunding(ctx context.Context, positionID string, totalFundingCollected float64, lastFundingAt int64) error {
	return s.svc.PaperPositionsModel.UpdateFunding(ctx, positionID, totalFundingCollected, lastFundingAt)
}

func (s *paperStore) InsertTransaction(ctx context.Context, tx paper.Transaction) error {
	return s.svc.PaperTransactionsModel.Insert(ctx, model.PaperTransactionRow{
		PortfolioID: tx.PortfolioID,
		PositionID:  tx.PositionID,
		Type:        model.TransactionType(tx.Type),
		Asset:       tx.Asset,
		Amount:      tx.Amount,
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt,
	})
}

func (s *paperStore) ClosePosition(ctx context.Context, positionID string, exitPrice, realizedPnl float64, closedAt int64) error {
	return s.svc.PaperPositionsModel.Close(ctx, positionID, exitPrice, realizedPnl, closedAt)
}

func (s *paperStore) InsertPosition(ctx context.Context, pos paper.Position) (string, error) {
	return s.svc.PaperPositionsModel.Insert(ctx, model.PaperPositionRow{
		ID:                    pos.ID,
		PortfolioID:           pos.PortfolioID,
		Asset:                 pos.Asset,
		Side:                  string(pos.Side),
		SizeUsd:               pos.SizeUsd,
		EntryRate8h:           pos.EntryRate8h,
		EntrySpread:           pos.EntrySpread,
		EntryPrice:            pos.EntryPrice,
		TotalFundingCollected: pos.TotalFundingCollected,
		LastFundingAt:         pos.LastFundingAt,
		OpenedAt:              pos.OpenedAt,
		FeesPaid:              pos.FeesPaid,
	})
}

func (s *paperStore) UpdatePortfolioCash(ctx context.Context, portfolioID string, cashBalance float64) error {
	return s.svc.PaperPortfoliosModel.UpdateCashBalance(ctx, portfolioID, cashBalance)
}

func toPaperPosition(r model.PaperPositionRow) paper.Position {
	return paper.Position{
		ID:                    r.ID,
		PortfolioID:           r.PortfolioID,
		Asset:                 r.Asset,
		Side:                  paper.Side(r.Side),
		SizeUsd:               r.SizeUsd,
		EntryRate8h:           r.EntryRate8h,
		EntrySpread:           r.EntrySpread,
		EntryPrice:            r.EntryPrice,
		TotalFundingCollected: r.TotalFundingCollected,
		LastFundingAt:         r.LastFundingAt,
		OpenedAt:              r.OpenedAt,
		IsOpen:                r.IsOpen,
		ExitPrice:             r.ExitPrice,
		RealizedPnl:           r.RealizedPnl,
		ClosedAt:              r.ClosedAt,
		FeesPaid:              r.FeesPaid,
	}
}
