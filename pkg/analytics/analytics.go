// Package analytics computes risk-adjusted performance metrics from a
// series of mark-to-market totals.
package analytics

import (
	"math"

	"github.com/shopspring/decimal"
)

const hoursPerYear = 8760

// ComputeSharpeAndDrawdown derives the annualized Sharpe ratio and the
// maximum drawdown from an ascending series of hourly mark-to-market
// totals. Either result is nil when there isn't enough data to compute it
// meaningfully.
func ComputeSharpeAndDrawdown(values []float64) (sharpe, maxDrawdown *float64) {
	if len(values) < 2 {
		return nil, nil
	}

	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev <= 0 {
			continue
		}
		returns = append(returns, (values[i]-prev)/prev)
	}
	if len(returns) < 2 {
		return nil, nil
	}

	sharpe = computeSharpe(returns)
	dd := computeMaxDrawdown(values)
	maxDrawdown = &dd
	return sharpe, maxDrawdown
}

func computeSharpe(returns []float64) *float64 {
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)
	std := math.Sqrt(variance)
	if std == 0 {
		return nil
	}

	value := (mean / std) * math.Sqrt(hoursPerYear)
	return &value
}

// computeMaxDrawdown returns the largest peak-to-trough decline as a
// negative fraction, rounded to 5 decimal places (e.g. -0.05 for a 5%
// drawdown).
func computeMaxDrawdown(values []float64) float64 {
	peak := values[0]
	worst := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - v) / peak
		if dd > worst {
			worst = dd
		}
	}
	return round5(-worst)
}

// round5 rounds to 5 decimal places using shopspring/decimal rather than
// float64 scaling, so a reported figure doesn't carry binary-float
// artifacts.
func round5(v float64) float64 {
	rounded, _ := decimal.NewFromFloat(v).Round(5).Float64()
	return rounded
}
