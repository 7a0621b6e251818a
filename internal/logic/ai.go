package logic

import (
	"context"
	"sort"

	"hldesk-api/internal/apierr"
	cachekeys "hldesk-api/internal/cache"
	"hldesk-api/internal/model"
	"hldesk-api/internal/svc"
	"hldesk-api/internal/types"
	"hldesk-api/pkg/aitrader"
)

func AiTraderList(ctx context.Context, svcCtx *svc.ServiceContext) (*types.AiTraderListResponse, error) {
	return cached(ctx, svcCtx, cachekeys.AiTraderListKey(), func() (*types.AiTraderListResponse, error) {
		return loadAiTraderList(ctx, svcCtx)
	})
}

func loadAiTraderList(ctx context.Context, svcCtx *svc.ServiceContext) (*types.AiTraderListResponse, error) {
	if svcCtx.AiTradersModel == nil {
		return &types.AiTraderListResponse{Traders: []types.AiTraderSummary{}}, nil
	}
	traders, err := svcCtx.AiTradersModel.ListActive(ctx)
	if err != nil {
		return nil, apierr.Store("list ai traders failed", err)
	}

	marks := markByAsset(svcCtx.RateCache.Snapshot())
	out := make([]types.AiTraderSummary, len(traders))
	for i, t := range traders {
		open, err := svcCtx.AiPositionsModel.OpenByTrader(ctx, t.ID)
		if err != nil {
			return nil, apierr.Store("load open ai positions failed", err)
		}
		summary := summarizeAiTrader(t, open, marks)
		if last, err := svcCtx.AiDecisionsModel.Last(ctx, t.ID); err == nil && last != nil {
			summary.LastAction = string(last.Action)
			summary.LastReasoning = last.Reasoning
		}
		out[i] = summary
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PnlPct > out[j].PnlPct })
	return &types.AiTraderListResponse{Traders: out}, nil
}

func AiTraderDetail(ctx context.Context, svcCtx *svc.ServiceContext, req types.AiTraderDetailRequest) (*types.AiTraderDetailResponse, error) {
	if svcCtx.AiTradersModel == nil {
		return nil, apierr.NotFound("unknown agent: " + req.Name)
	}
	trader, err := svcCtx.AiTradersModel.FindByName(ctx, req.Name)
	if err != nil {
		if err == model.ErrNotFound {
			return nil, apierr.NotFound("unknown agent: " + req.Name)
		}
		return nil, apierr.Store("load ai trader failed", err)
	}

	open, err := svcCtx.AiPositionsModel.OpenByTrader(ctx, trader.ID)
	if err != nil {
		return nil, apierr.Store("load open ai positions failed", err)
	}
	decisions, err := svcCtx.AiDecisionsModel.Recent(ctx, trader.ID, 20)
	if err != nil {
		return nil, apierr.Store("load ai decisions failed", err)
	}

	marks := markByAsset(svcCtx.RateCache.Snapshot())
	summary := summarizeAiTrader(*trader, open, marks)

	openViews := make([]types.PaperPositionView, len(open))
	for i, p := range open {
		openViews[i] = aiPositionView(p, marks)
	}
	decisionViews := make([]types.AiDecisionView, len(decisions))
	for i, d := range decisions {
		decisionViews[i] = types.AiDecisionView{
			Action: string(d.Action), Asset: d.Asset, SizeUsd: d.SizeUsd,
			Reasoning: d.Reasoning, CreatedAt: d.CreatedAt,
		}
	}

	conversations, err := loadConversationTrail(ctx, svcCtx, trader.ID, 5)
	if err != nil {
		return nil, apierr.Store("load conversation trail failed", err)
	}

	return &types.AiTraderDetailResponse{
		AiTraderSummary: summary,
		OpenPositions:   openViews,
		Decisions:       decisionViews,
		Conversations:   conversations,
	}, nil
}

// loadConversationTrail returns the most recent conversations for a trader,
// each with its messages, newest first. Conversations are only recorded
// when a cycle actually calls the LLM, so this can legitimately be empty.
func loadConversationTrail(ctx context.Context, svcCtx *svc.ServiceContext, traderID string, limit int) ([]types.ConversationView, error) {
	if svcCtx.ConversationsModel == nil {
		return nil, nil
	}
	rows, err := svcCtx.ConversationsModel.Recent(ctx, traderID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]types.ConversationView, len(rows))
	for i, row := range rows {
		messages, err := svcCtx.ConversationMessagesModel.ByConversation(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		msgViews := make([]types.ConversationMessageView, len(messages))
		for j, m := range messages {
			msgViews[j] = types.ConversationMessageView{
				Role: m.Role, Digest: m.Digest, Content: m.Content, CreatedAt: m.CreatedAt,
			}
		}
		out[i] = types.ConversationView{ID: row.ID, DecisionID: row.DecisionID, CreatedAt: row.CreatedAt, Messages: msgViews}
	}
	return out, nil
}

func AiSnapshots(ctx context.Context, svcCtx *svc.ServiceContext, req types.SnapshotSeriesRequest) (*types.SnapshotSeriesResponse, error) {
	days := req.Days
	if days <= 0 {
		days = 7
	}
	if days > 90 {
		days = 90
	}
	if svcCtx.AiTradersModel == nil {
		return &types.SnapshotSeriesResponse{Series: []types.OwnerSeries{}}, nil
	}

	traders, err := svcCtx.AiTradersModel.ListActive(ctx)
	if err != nil {
		return nil, apierr.Store("list ai traders failed", err)
	}
	since := nowMillis() - int64(days)*millisPerDay

	series := make([]types.OwnerSeries, 0, len(traders))
	for _, t := range traders {
		rows, err := svcCtx.AiSnapshotsModel.Series(ctx, t.ID, since)
		if err != nil {
			return nil, apierr.Store("load ai snapshot series failed", err)
		}
		series = append(series, types.OwnerSeries{OwnerID: t.ID, Points: toEquityPoints(rows)})
	}
	return &types.SnapshotSeriesResponse{Series: series}, nil
}

// AiRun fires exactly one decision cycle for the named agent and returns
// the resulting decision.
func AiRun(ctx context.Context, svcCtx *svc.ServiceContext, req types.AiRunRequest) (*types.AiRunResponse, error) {
	if svcCtx.AiTraderEngine == nil {
		return nil, apierr.Business("ai trading is not configured")
	}
	result := svcCtx.RateCache.Snapshot()
	if result == nil {
		var err error
		result, err = svcCtx.Aggregator.Aggregate(ctx)
		if err != nil {
			return nil, apierr.Transport("aggregate failed", err)
		}
		svcCtx.RateCache.Update(result)
	}

	decision, err := svcCtx.AiTraderEngine.RunAgentCycle(ctx, req.Name, result)
	if err != nil {
		if err == model.ErrNotFound {
			return nil, apierr.NotFound("unknown agent: " + req.Name)
		}
		return nil, apierr.Store("run agent cycle failed", err)
	}
	return &types.AiRunResponse{
		Action: string(decision.Action), Asset: decision.Asset, SizeUsd: decision.SizeUsd, Reasoning: decision.Reasoning,
	}, nil
}

// aiTraderStartingCash mirrors pkg/aitrader's hardcoded starting balance —
// an AiTrader has no persisted initial-balance field, unlike paper_portfolios
// which tracks its own initialBalance.
const aiTraderStartingCash = 10000

func summarizeAiTrader(t model.AiTraderRow, open []model.AiPositionRow, marks map[string]float64) types.AiTraderSummary {
	unrealized := 0.0
	openSizeUsd := 0.0
	for _, pos := range open {
		mark, ok := marks[pos.Asset]
		if !ok {
			mark = pos.EntryPrice
		}
		unrealized += priceReturnUsd(pos.Direction == string(aitrader.DirectionLong), pos.EntryPrice, mark, pos.SizeUsd)
		openSizeUsd += pos.SizeUsd
	}
	totalValue := t.CashBalance + openSizeUsd + unrealized
	return types.AiTraderSummary{
		ID: t.ID, Name: t.Name, Model: t.Model, Emoji: t.Emoji, CashBalance: t.CashBalance,
		TotalValue: totalValue, UnrealizedPnl: unrealized, PnlPct: pnlPct(totalValue, aiTraderStartingCash),
		OpenPositions: len(open),
	}
}

func aiPositionView(p model.AiPositionRow, marks map[string]float64) types.PaperPositionView {
	view := types.PaperPositionView{
		ID: p.ID, Asset: p.Asset, Side: p.Direction, SizeUsd: p.SizeUsd, EntryPrice: p.EntryPrice,
		EntryRate8h: p.EntryRate8h, TotalFundingCollected: p.TotalFundingCollected,
		OpenedAt: p.OpenedAt, ClosedAt: p.ClosedAt, ExitPrice: p.ExitPrice, RealizedPnl: p.RealizedPnl,
	}
	if p.IsOpen {
		mark, ok := marks[p.Asset]
		if !ok {
			mark = p.EntryPrice
		}
		view.UnrealizedPnl = priceReturnUsd(p.Direction == string(aitrader.DirectionLong), p.EntryPrice, mark, p.SizeUsd)
	}
	return view
}
