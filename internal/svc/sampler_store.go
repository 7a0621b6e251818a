package svc

import (
	"context"

	"hldesk-api/internal/model"
	"hldesk-api/pkg/aitrader"
	"hldesk-api/pkg/paper"
	"hldesk-api/pkg/sampler"
)

// samplerStore implements pkg/sampler.Store over internal/model, bridging
// both owner kinds' side/direction conventions to sampler.Position.IsLong.
type samplerStore struct {
	svc *ServiceContext
}

func (s *samplerStore) PaperOwners(ctx context.Context) ([]sampler.Owner, error) {
	portfolios, err := s.svc.PaperPortfoliosModel.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(portfolios))
	for i, p := range portfolios {
		ids[i] = p.ID
	}
	byPortfolio, err := s.svc.PaperPositionsModel.OpenByPortfolios(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]sampler.Owner, len(portfolios))
	for i, p := range portfolios {
		rows := byPortfolio[p.ID]
		positions := make([]sampler.Position, len(rows))
		for j, r := range rows {
			positions[j] = sampler.Position{
				Asset:                 r.Asset,
				IsLong:                r.Side == string(paper.SideLongPerp),
				SizeUsd:               r.SizeUsd,
				EntryPrice:            r.EntryPrice,
				TotalFundingCollected: r.TotalFundingCollected,
			}
		}
		out[i] = sampler.Owner{ID: p.ID, CashBalance: p.CashBalance, Positions: positions}
	}
	return out, nil
}

func (s *samplerStore) AiOwners(ctx context.Context) ([]sampler.Owner, error) {
	traders, err := s.svc.AiTradersModel.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]sampler.Owner, len(traders))
	for i, t := range traders {
		rows, err := s.svc.AiPositionsModel.OpenByTrader(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		positions := make([]sampler.Position, len(rows))
		for j, r := range rows {
			positions[j] = sampler.Position{
				Asset:                 r.Asset,
				IsLong:                r.Direction == string(aitrader.DirectionLong),
				SizeUsd:               r.SizeUsd,
				EntryPrice:            r.EntryPrice,
				TotalFundingCollected: r.TotalFundingCollected,
			}
		}
		out[i] = sampler.Owner{ID: t.ID, CashBalance: t.CashBalance, Positions: positions}
	}
	return out, nil
}

func (s *samplerStore) InsertPaperSnapshot(ctx context.Context, snap sampler.Snapshot) error {
	return s.svc.PaperSnapshotsModel.Insert(ctx, toEquitySnapshotRow(snap, model.OwnerPortfolio))
}

func (s *samplerStore) InsertAiSnapshot(ctx context.Context, snap sampler.Snapshot) error {
	return s.svc.AiSnapshotsModel.Insert(ctx, toEquitySnapshotRow(snap, model.OwnerAgent))
}

func toEquitySnapshotRow(snap sampler.Snapshot, kind model.OwnerKind) model.EquitySnapshotRow {
	return model.EquitySnapshotRow{
		OwnerID:          snap.OwnerID,
		OwnerKind:        kind,
		SnapshotAt:       snap.SnapshotAt,
		TotalValue:       snap.TotalValue,
		CashBalance:      snap.CashBalance,
		UnrealizedPnl:    snap.UnrealizedPnl,
		FundingCollected: snap.FundingCollected,
		OpenPositions:    snap.OpenPositions,
	}
}
