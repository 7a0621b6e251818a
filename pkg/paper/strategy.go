package paper

import (
	"math"
	"sort"

	"hldesk-api/pkg/aggregator"
)

// candidate is one ranked entry opportunity produced by a strategy's
// candidate-selection function.
type candidate struct {
	Asset string
	Side  Side
	rank  float64 // sort key, strategy-specific meaning
}

// evaluateExit reports whether the strategy-specific exit rule (NOT the
// universal stop-loss, which the engine checks separately and first) fires
// for the given open position against the current spread.
func evaluateExit(strategy Strategy, cfg Config, spread aggregator.FundingSpread, pos *Position) bool {
	switch strategy {
	case StrategyNegativeFade:
		return spread.Primary.Rate8h > cfg.ExitRateThreshold(-0.01)
	case StrategyRegimeAdaptive:
		threshold := cfg.ExitRateThreshold(0.0001)
		if pos.Side == SideLongPerp {
			return spread.Primary.Rate8h > threshold
		}
		return spread.Primary.Rate8h < -threshold
	default: // aggressive, conservative, diversified
		return spread.MaxSpread < cfg.ExitSpreadThreshold(0.01)
	}
}

// entryCandidates selects and ranks entry opportunities for the strategy
// from the current spread list. The returned slice is already sorted
// best-first.
func entryCandidates(strategy Strategy, cfg Config, spreads []aggregator.FundingSpread) []candidate {
	switch strategy {
	case StrategyNegativeFade:
		return negativeFadeCandidates(cfg, spreads)
	case StrategyConservative:
		return conservativeCandidates(cfg, spreads)
	case StrategyDiversified:
		return diversifiedCandidates(cfg, spreads)
	case StrategyRegimeAdaptive:
		return regimeAdaptiveCandidates(cfg, spreads)
	default: // aggressive
		return aggressiveCandidates(cfg, spreads)
	}
}

func negativeFadeCandidates(cfg Config, spreads []aggregator.FundingSpread) []candidate {
	threshold := cfg.EnterRateThreshold(-0.05)
	var out []candidate
	for _, s := range spreads {
		if s.Primary.Rate8h < threshold {
			out = append(out, candidate{Asset: s.Asset, Side: SideLongPerp, rank: s.Primary.Rate8h})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].rank < out[j].rank }) // ascending rate8h
	return out
}

func conservativeCandidates(cfg Config, spreads []aggregator.FundingSpread) []candidate {
	threshold := cfg.EnterSpreadThreshold(0.05)
	allowed := toSet(cfg.AllowedAssets())
	var out []candidate
	for _, s := range spreads {
		if !allowed[s.Asset] {
			continue
		}
		if s.MaxSpread > threshold && s.Primary.Rate8h > 0 {
			out = append(out, candidate{Asset: s.Asset, Side: SideShortPerp, rank: s.MaxSpread})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].rank > out[j].rank }) // descending maxSpread
	return out
}

func diversifiedCandidates(cfg Config, spreads []aggregator.FundingSpread) []candidate {
	topN := cfg.TopNByOI()
	threshold := cfg.EnterSpreadThreshold(0.04)

	byOI := make([]aggregator.FundingSpread, len(spreads))
	copy(byOI, spreads)
	sort.Slice(byOI, func(i, j int) bool {
		return openInterest(byOI[i]) > openInterest(byOI[j])
	})
	if topN < len(byOI) {
		byOI = byOI[:topN]
	}

	var out []candidate
	for _, s := range byOI {
		if s.MaxSpread > threshold && s.Primary.Rate8h > 0 {
			out = append(out, candidate{Asset: s.Asset, Side: SideShortPerp, rank: s.MaxSpread})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].rank > out[j].rank })
	return out
}

func regimeAdaptiveCandidates(cfg Config, spreads []aggregator.FundingSpread) []candidate {
	posThreshold := cfg.PositiveRateThreshold()
	negThreshold := cfg.NegativeRateThreshold()

	var shortBucket, longBucket []candidate
	for _, s := range spreads {
		if s.Primary.Rate8h > posThreshold {
			shortBucket = append(shortBucket, candidate{Asset: s.Asset, Side: SideShortPerp, rank: math.Abs(s.Primary.Rate8h)})
		} else if s.Primary.Rate8h < -negThreshold {
			longBucket = append(longBucket, candidate{Asset: s.Asset, Side: SideLongPerp, rank: math.Abs(s.Primary.Rate8h)})
		}
	}
	sort.Slice(shortBucket, func(i, j int) bool { return shortBucket[i].rank > shortBucket[j].rank })
	sort.Slice(longBucket, func(i, j int) bool { return longBucket[i].rank > longBucket[j].rank })

	shortBest, longBest := bestRank(shortBucket), bestRank(longBucket)
	if shortBest >= longBest {
		return shortBucket
	}
	return longBucket
}

func aggressiveCandidates(cfg Config, spreads []aggregator.FundingSpread) []candidate {
	threshold := cfg.EnterSpreadThreshold(0.03)
	var out []candidate
	for _, s := range spreads {
		if s.MaxSpread > threshold && s.Primary.Rate8h > 0 {
			out = append(out, candidate{Asset: s.Asset, Side: SideShortPerp, rank: s.MaxSpread})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].rank > out[j].rank })
	return out
}

func openInterest(s aggregator.FundingSpread) float64 {
	if s.Primary.OpenInterest == nil {
		return 0
	}
	return *s.Primary.OpenInterest
}

func bestRank(cands []candidate) float64 {
	if len(cands) == 0 {
		return -1
	}
	return cands[0].rank
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, i := range items {
		set[i] = true
	}
	return set
}
