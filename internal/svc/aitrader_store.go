package svc

import (
	"context"
	"time"

	"hldesk-api/internal/model"
	"hldesk-api/pkg/aitrader"
)

// aiTraderStore implements pkg/aitrader.Store over internal/model, the AI
// agent's counterpart to paperStore.
type aiTraderStore struct {
	svc *ServiceContext
}

func (s *aiTraderStore) FindTraderByName(ctx context.Context, name string) (*aitrader.Trader, error) {
	row, err := s.svc.AiTradersModel.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	trader := toAiTrader(*row)
	return &trader, nil
}

func (s *aiTraderStore) OpenPositions(ctx context.Context, traderID string) ([]aitrader.Position, error) {
	rows, err := s.svc.AiPositionsModel.OpenByTrader(ctx, traderID)
	if err != nil {
		return nil, err
	}
	out := make([]aitrader.Position, len(rows))
	for i, r := range rows {
		out[i] = toAiPosition(r)
	}
	return out, nil
}

func (s *aiTraderStore) UpdatePositionFunding(ctx context.Context, positionID string, totalFundingCollected float64, lastFundingAt int64) error {
	return s.svc.AiPositionsModel.UpdateFunding(ctx, positionID, totalFundingCollected, lastFundingAt)
}

func (s *aiTraderStore) ClosePosition(ctx context.Context, positionID string, exitPrice, realizedPnl float64, closedAt int64) error {
	return s.svc.AiPositionsModel.Close(ctx, positionID, exitPrice, realizedPnl, closedAt)
}

func (s *aiTraderStore) InsertPosition(ctx context.Context, pos aitrader.Position) (string, error) {
	return s.svc.AiPositionsModel.Insert(ctx, model.AiPositionRow{
		ID:                    pos.ID,
		TraderID:              pos.TraderID,
		Asset:                 pos.Asset,
		Direction:             string(pos.Direction),
		SizeUsd:               pos.SizeUsd,
		EntryRate8h:           pos.EntryRate8h,
		EntryPrice:            pos.EntryPrice,
		TotalFundingCollected: pos.TotalFundingCollected,
		LastFundingAt:         pos.LastFundingAt,
		OpenedAt:              pos.OpenedAt,
		FeesPaid:              pos.FeesPaid,
	})
}

func (s *aiTraderStore) InsertDecision(ctx context.Context, traderID string, d aitrader.Decision) (string, error) {
	return s.svc.AiDecisionsModel.Insert(ctx, model.AiDecisionRow{
		TraderID:  traderID,
		Action:    model.DecisionAction(d.Action),
		Asset:     d.Asset,
		SizeUsd:   d.SizeUsd,
		Reasoning: d.Reasoning,
		CreatedAt: time.Now().UnixMilli(),
	})
}

func (s *aiTraderStore) RecordConversation(ctx context.Context, traderID, decisionID string, messages []aitrader.ConversationMessage) error {
	now := time.Now().UnixMilli()
	conversationID, err := s.svc.ConversationsModel.Insert(ctx, model.ConversationRow{
		TraderID:   traderID,
		DecisionID: &decisionID,
		CreatedAt:  now,
	})
	if err != nil {
		return err
	}
	for _, m := range messages {
		if err := s.svc.ConversationMessagesModel.Insert(ctx, model.ConversationMessageRow{
			ConversationID: conversationID,
			Role:           m.Role,
			Content:        m.Content,
			Digest:         m.Digest,
			CreatedAt:      now,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *aiTraderStore) UpdateTraderCash(ctx context.Context, traderID string, cashBalance float64) error {
	return s.svc.AiTradersModel.UpdateCashBalance(ctx, traderID, cashBalance)
}

func toAiTrader(r model.AiTraderRow) aitrader.Trader {
	return aitrader.Trader{
		ID:          r.ID,
		Name:        r.Name,
		Model:       r.Model,
		Emoji:       r.Emoji,
		Persona:     r.Persona,
		CashBalance: r.CashBalance,
		IsActive:    r.IsActive,
	}
}

func toAiPosition(r model.AiPositionRow) aitrader.Position {
	return aitrader.Position{
		ID:                    r.ID,
		TraderID:              r.TraderID,
		Asset:                 r.Asset,
		Direction:             aitrader.Direction(r.Direction),
		SizeUsd:               r.SizeUsd,
		EntryRate8h:           r.EntryRate8h,
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
