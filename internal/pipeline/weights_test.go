package pipeline

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogScoreNonPositiveInputs(t *testing.T) {
	assert.True(t, math.IsInf(logScore(0.6, 0.4, 0, 100), -1))
	assert.True(t, math.IsInf(logScore(0.6, 0.4, 5, 0), -1))
	assert.True(t, math.IsInf(logScore(0.6, 0.4, -1, -1), -1))
	assert.False(t, math.IsInf(logScore(0.6, 0.4, 5, 100), -1))
}

func TestNormalizeScoresStableForHugeBalances(t *testing.T) {
	// Balances around 1e15 raw units: ln keeps them small, and subtracting
	// the max before exponentiating keeps the sum finite.
	lws := []float64{
		logScore(0.6, 0.4, 300, 1e15),
		logScore(0.6, 0.4, 200, 5e14),
		logScore(0.6, 0.4, 1, 1e15),
	}
	probs, weights := normalizeScores(lws)
	sum := 0.0
	for i, p := range probs {
		require.False(t, math.IsNaN(p), "prob %d is NaN", i)
		require.False(t, math.IsInf(weights[i], 0), "weight %d overflowed", i)
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, probs[0], probs[2], "longer holder should outrank same balance")
}

func TestNormalizeScoresUniformFallback(t *testing.T) {
	lws := []float64{math.Inf(-1), math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	probs, weights := normalizeScores(lws)
	for i := range probs {
		assert.InDelta(t, 0.25, probs[i], 1e-12)
		assert.Equal(t, 1.0, weights[i])
	}
}

func TestBasisPointsSumExactlyTenThousand(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{1, 2, 3, 7, 50, 100, 333} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			for trial := 0; trial < 200; trial++ {
				lws := make([]float64, n)
				wallets := make([]string, n)
				for i := range lws {
					lws[i] = rng.NormFloat64() * 10
					if rng.Intn(10) == 0 {
						lws[i] = math.Inf(-1)
					}
					wallets[i] = fmt.Sprintf("wallet%06d", i)
				}
				probs, _ := normalizeScores(lws)
				bps := basisPoints(probs, wallets)
				sum := 0
				for _, b := range bps {
					require.GreaterOrEqual(t, b, 0)
					sum += b
				}
				require.Equal(t, totalBps, sum)
			}
		})
	}
}

func TestBasisPointsSingleRecipient(t *testing.T) {
	bps := basisPoints([]float64{1.0}, []string{"w"})
	assert.Equal(t, []int{totalBps}, bps)
}

func TestBasisPointsRemainderTieBreakByWallet(t *testing.T) {
	// Three equal probabilities: floors are 3333 each, shortfall 1 goes to
	// the lowest wallet.
	probs := []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}
	wallets := []string{"bbb", "aaa", "ccc"}
	bps := basisPoints(probs, wallets)
	assert.Equal(t, 3333, bps[0])
	assert.Equal(t, 3334, bps[1], "tie goes to ascending wallet")
	assert.Equal(t, 3333, bps[2])
}

func TestBasisPointsEmpty(t *testing.T) {
	assert.Empty(t, basisPoints(nil, nil))
}
