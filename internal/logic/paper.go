package logic

import (
	"context"
	"sort"

	"hldesk-api/internal/apierr"
	cachekeys "hldesk-api/internal/cache"
	"hldesk-api/internal/model"
	"hldesk-api/internal/svc"
	"hldesk-api/internal/types"
	"hldesk-api/pkg/paper"
)

func PortfolioList(ctx context.Context, svcCtx *svc.ServiceContext) (*types.PortfolioListResponse, error) {
	return cached(ctx, svcCtx, cachekeys.PortfolioListKey(), func() (*types.PortfolioListResponse, error) {
		return loadPortfolioList(ctx, svcCtx)
	})
}

func loadPortfolioList(ctx context.Context, svcCtx *svc.ServiceContext) (*types.PortfolioListResponse, error) {
	if svcCtx.PaperPortfoliosModel == nil {
		return &types.PortfolioListResponse{Portfolios: []types.PortfolioSummary{}}, nil
	}
	portfolios, err := svcCtx.PaperPortfoliosModel.ListAll(ctx)
	if err != nil {
		return nil, apierr.Store("list portfolios failed", err)
	}

	ids := make([]string, len(portfolios))
	for i, p := range portfolios {
		ids[i] = p.ID
	}
	open, err := svcCtx.PaperPositionsModel.OpenByPortfolios(ctx, ids)
	if err != nil {
		return nil, apierr.Store("load open positions failed", err)
	}

	marks := markByAsset(svcCtx.RateCache.Snapshot())
	out := make([]types.PortfolioSummary, len(portfolios))
	for i, p := range portfolios {
		out[i] = summarizePortfolio(p, open[p.ID], marks)
	}
	return &types.PortfolioListResponse{Portfolios: out}, nil
}

func Leaderboard(ctx context.Context, svcCtx *svc.ServiceContext) (*types.PortfolioListResponse, error) {
	return cached(ctx, svcCtx, cachekeys.LeaderboardKey(), func() (*types.PortfolioListResponse, error) {
		resp, err := loadPortfolioList(ctx, svcCtx)
		if err != nil {
			return nil, err
		}
		sort.Slice(resp.Portfolios, func(i, j int) bool {
			return resp.Portfolios[i].PnlPct > resp.Portfolios[j].PnlPct
		})
		return resp, nil
	})
}

func PortfolioDetail(ctx context.Context, svcCtx *svc.ServiceContext, req types.PortfolioDetailRequest) (*types.PortfolioDetailResponse, error) {
	if svcCtx.PaperPortfoliosModel == nil {
		return nil, apierr.NotFound("unknown portfolio: " + req.ID)
	}
	portfolio, err := svcCtx.PaperPortfoliosModel.FindOne(ctx, req.ID)
	if err != nil {
		if err == model.ErrNotFound {
			return nil, apierr.NotFound("unknown portfolio: " + req.ID)
		}
		return nil, apierr.Store("load portfolio failed", err)
	}

	open, err := svcCtx.PaperPositionsModel.OpenByPortfolios(ctx, []string{portfolio.ID})
	if err != nil {
		return nil, apierr.Store("load open positions failed", err)
	}
	closed, err := svcCtx.PaperPositionsModel.ClosedRecent(ctx, portfolio.ID, 20)
	if err != nil {
		return nil, apierr.Store("load closed positions failed", err)
	}
	txs, err := svcCtx.PaperTransactionsModel.Recent(ctx, portfolio.ID, 50)
	if err != nil {
		return nil, apierr.Store("load transactions failed", err)
	}

	marks := markByAsset(svcCtx.RateCache.Snapshot())
	openPositions := open[portfolio.ID]

	summary := summarizePortfolio(*portfolio, openPositions, marks)
	openViews := make([]types.PaperPositionView, len(openPositions))
	for i, p := range openPositions {
		openViews[i] = positionView(p, marks)
	}
	closedViews := make([]types.PaperPositionView, len(closed))
	for i, p := range closed {
		closedViews[i] = positionView(p, marks)
	}
	txViews := make([]types.PaperTransactionView, len(txs))
	for i, t := range txs {
		txViews[i] = types.PaperTransactionView{
			ID: t.ID, PositionID: t.PositionID, Type: string(t.Type), Asset: t.Asset,
			Amount: t.Amount, Description: t.Description, CreatedAt: t.CreatedAt,
		}
	}

	return &types.PortfolioDetailResponse{
		PortfolioSummary: summary,
		OpenPositions:    openViews,
		ClosedPositions:  closedViews,
		Transactions:     txViews,
	}, nil
}

func PaperSnapshots(ctx context.Context, svcCtx *svc.ServiceContext, req types.SnapshotSeriesRequest) (*types.SnapshotSeriesResponse, error) {
	days := req.Days
	if days <= 0 {
		days = 7
	}
	if days > 90 {
		days = 90
	}
	if svcCtx.PaperPortfoliosModel == nil {
		return &types.SnapshotSeriesResponse{Series: []types.OwnerSeries{}}, nil
	}

	portfolios, err := svcCtx.PaperPortfoliosModel.ListAll(ctx)
	if err != nil {
		return nil, apierr.Store("list portfolios failed", err)
	}
	since := nowMillis() - int64(days)*millisPerDay

	series := make([]types.OwnerSeries, 0, len(portfolios))
	for _, p := range portfolios {
		rows, err := svcCtx.PaperSnapshotsModel.Series(ctx, p.ID, since)
		if err != nil {
			return nil, apierr.Store("load snapshot series failed", err)
		}
		series = append(series, types.OwnerSeries{OwnerID: p.ID, Points: toEquityPoints(rows)})
	}
	return &types.SnapshotSeriesResponse{Series: series}, nil
}

func summarizePortfolio(p model.PaperPortfolioRow, open []model.PaperPositionRow, marks map[string]float64) types.PortfolioSummary {
	unrealized := 0.0
	for _, pos := range open {
		mark, ok := marks[pos.Asset]
		if !ok {
			mark = pos.EntryPrice
		}
		unrealized += priceReturnUsd(pos.Side == string(paper.SideLongPerp), pos.EntryPrice, mark, pos.SizeUsd)
	}
	openSizeUsd := 0.0
	for _, pos := range open {
		openSizeUsd += pos.SizeUsd
	}
	totalValue := p.CashBalance + openSizeUsd + unrealized
	return types.PortfolioSummary{
		ID: p.ID, StrategyName: p.StrategyName, CashBalance: p.CashBalance, InitialBalance: p.InitialBalance,
		TotalValue: totalValue, UnrealizedPnl: unrealized, PnlPct: pnlPct(totalValue, p.InitialBalance),
		OpenPositions: len(open), IsActive: p.IsActive,
	}
}

func positionView(p model.PaperPositionRow, marks map[string]float64) types.PaperPositionView {
	view := types.PaperPositionView{
		ID: p.ID, Asset: p.Asset, Side: p.Side, SizeUsd: p.SizeUsd, EntryPrice: p.EntryPrice,
		EntryRate8h: p.EntryRate8h, TotalFundingCollected: p.TotalFundingCollected,
		OpenedAt: p.OpenedAt, ClosedAt: p.ClosedAt, ExitPrice: p.ExitPrice, RealizedPnl: p.RealizedPnl,
	}
	if p.IsOpen {
		mark, ok := marks[p.Asset]
		if !ok {
			mark = p.EntryPrice
		}
		view.UnrealizedPnl = priceReturnUsd(p.Side == string(paper.SideLongPerp), p.EntryPrice, mark, p.SizeUsd)
	}
	return view
}
