package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A small known equity series with one drawdown leg, checked against a
// hand-computed Sharpe ratio and max drawdown.
func TestComputeSharpeAndDrawdownKnownSeries(t *testing.T) {
	values := []float64{10000, 10100, 10050, 10200, 10150}
	sharpe, maxDrawdown := ComputeSharpeAndDrawdown(values)

	require.NotNil(t, sharpe)
	require.NotNil(t, maxDrawdown)

	r1 := (10100.0 - 10000.0) / 10000.0
	r2 := (10050.0 - 10100.0) / 10100.0
	r3 := (10200.0 - 10050.0) / 10050.0
	r4 := (10150.0 - 10200.0) / 10200.0
	mean := (r1 + r2 + r3 + r4) / 4
	var variance float64
	for _, r := range []float64{r1, r2, r3, r4} {
		d := r - mean
		variance += d * d
	}
	variance /= 3
	std := math.Sqrt(variance)
	expectedSharpe := (mean / std) * math.Sqrt(hoursPerYear)

	assert.InDelta(t, expectedSharpe, *sharpe, 1e-6)
	assert.InDelta(t, -0.00495, *maxDrawdown, 1e-5)
}

func TestComputeSharpeAndDrawdownRequiresAtLeastTwoValues(t *testing.T) {
	sharpe, maxDrawdown := ComputeSharpeAndDrawdown([]float64{10000})
	assert.Nil(t, sharpe)
	assert.Nil(t, maxDrawdown)

	sharpe, maxDrawdown = ComputeSharpeAndDrawdown(nil)
	assert.Nil(t, sharpe)
	assert.Nil(t, maxDrawdown)
}

func TestComputeSharpeAndDrawdownRequiresAtLeastTwoReturns(t *testing.T) {
	// Only one valid prior value (the other is <= 0 and skipped), yielding
	// a single return — still fewer than 2, so both results are nil.
	sharpe, maxDrawdown := ComputeSharpeAndDrawdown([]float64{0, 100, 110})
	assert.Nil(t, sharpe)
	assert.Nil(t, maxDrawdown)
}

func TestComputeSharpeIsNilWhenStdDevIsZero(t *testing.T) {
	// Constant returns (+25% every step, exact in binary floating point) => zero variance.
	sharpe, maxDrawdown := ComputeSharpeAndDrawdown([]float64{10000, 12500, 15625, 19531.25})
	assert.Nil(t, sharpe)
	require.NotNil(t, maxDrawdown)
	assert.Equal(t, 0.0, *maxDrawdown) // monotonically increasing: no drawdown
}

func TestMaxDrawdownIsBoundedInRange(t *testing.T) {
	_, maxDrawdown := ComputeSharpeAndDrawdown([]float64{10000, 5000, 10000, 1, 10000})
	require.NotNil(t, maxDrawdown)
	assert.GreaterOrEqual(t, *maxDrawdown, -1.0)
	assert.LessOrEqual(t, *maxDrawdown, 0.0)
}
