package aitrader

import (
	"fmt"
	"sort"
	"strings"

	"hldesk-api/pkg/aggregator"
)

// buildMarketContext renders the top-20-by-open-interest asset table plus a
// portfolio summary as a single flat text block suitable for a chat prompt.
func buildMarketContext(result *aggregator.AggregatedResult, trader Trader, positions []Position) string {
	var b strings.Builder

	top := topByOpenInterest(result.Spreads, topNByOI)
	b.WriteString("Top assets by open interest:\n")
	for _, s := range top {
		b.WriteString(marketLine(s))
	}

	b.WriteString("\nPortfolio:\n")
	totalValue, unrealized := trader.CashBalance, 0.0
	spreadByAsset := make(map[string]aggregator.FundingSpread, len(result.Spreads))
	for _, s := range result.Spreads {
		spreadByAsset[s.Asset] = s
	}
	for _, p := range positions {
		mark := markPrice(spreadByAsset[p.Asset])
		pnl := positionUnrealizedPnl(p, mark)
		unrealized += pnl
		totalValue += p.SizeUsd + pnl

		rate := 0.0
		if sp, ok := spreadByAsset[p.Asset]; ok {
			rate = sp.Primary.Rate8h
		}
		b.WriteString(fmt.Sprintf(
			"- %s %s: entry=%.4f current=%.4f unrealizedPnl=%.2f fundingCollected=%.2f currentRate8h=%.6f\n",
			p.Asset, p.Direction, p.EntryPrice, mark, pnl, p.TotalFundingCollected, rate))
	}

	totalPnl := totalValue - 10000
	b.WriteString(fmt.Sprintf("cash=%.2f totalValue=%.2f totalPnlVsBaseline=%.2f\n", trader.CashBalance, totalValue, totalPnl))
	return b.String()
}

func marketLine(s aggregator.FundingSpread) string {
	mark := markPrice(s)
	change := 0.0
	if s.Primary.Change24h != nil {
		change = *s.Primary.Change24h
	}
	volume := 0.0
	if s.Primary.Volume24h != nil {
		volume = *s.Primary.Volume24h
	}
	oiMillions := openInterestOf(s) / 1_000_000
	return fmt.Sprintf(
		"- %s mark=%.4f change24h=%.4f volume24h=%.2f oiM=%.2f primaryRate8h=%.6f cexAvgRate8h=%.6f maxSpread=%.6f\n",
		s.Asset, mark, change, volume, oiMillions, s.Primary.Rate8h, cexAverage(s), s.MaxSpread)
}

func cexAverage(s aggregator.FundingSpread) float64 {
	if len(s.Cex) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range s.Cex {
		sum += c.Rate8h
	}
	return sum / float64(len(s.Cex))
}

func openInterestOf(s aggregator.FundingSpread) float64 {
	if s.Primary.OpenInterest == nil {
		return 0
	}
	return *s.Primary.OpenInterest
}

func markPrice(s aggregator.FundingSpread) float64 {
	if s.Primary.MarkPrice == nil {
		return 0
	}
	return *s.Primary.MarkPrice
}

func topByOpenInterest(spreads []aggregator.FundingSpread, n int) []aggregator.FundingSpread {
	sorted := make([]aggregator.FundingSpread, len(spreads))
	copy(sorted, spreads)
	sort.Slice(sorted, func(i, j int) bool { return openInterestOf(sorted[i]) > openInterestOf(sorted[j]) })
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

func positionUnrealizedPnl(p Position, mark float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	if p.Direction == DirectionLong {
		return (mark - p.EntryPrice) / p.EntryPrice * p.SizeUsd
	}
	return (p.EntryPrice - mark) / p.EntryPrice * p.SizeUsd
}
