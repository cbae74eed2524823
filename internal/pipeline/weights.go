package pipeline

import (
	"math"
	"sort"
)

const totalBps = 10000

// logScore computes the log-domain weighted score
// alpha*ln(holdingDays) + beta*ln(balance). Non-positive inputs yield
// negative infinity, which is a valid input to normalization.
func logScore(alpha, beta, holdingDays, balance float64) float64 {
	return alpha*safeLn(holdingDays) + beta*safeLn(balance)
}

func safeLn(x float64) float64 {
	if x <= 0 {
		return math.Inf(-1)
	}
	return math.Log(x)
}

// normalizeScores turns log-domain scores into probabilities via a
// numerically stable log-sum-exp: the maximum finite score is subtracted
// before exponentiating, so balances around 1e15 raw units cannot
// overflow. The returned weights are exp(lw - maxLw), a relative
// magnitude, not a probability. When no score is finite the distribution
// falls back to uniform.
func normalizeScores(lws []float64) (probs, weights []float64) {
	n := len(lws)
	probs = make([]float64, n)
	weights = make([]float64, n)
	if n == 0 {
		return probs, weights
	}

	maxLw := math.Inf(-1)
	for _, lw := range lws {
		if !math.IsInf(lw, -1) && lw > maxLw {
			maxLw = lw
		}
	}
	if math.IsInf(maxLw, -1) {
		for i := range probs {
			probs[i] = 1 / float64(n)
			weights[i] = 1
		}
		return probs, weights
	}

	var sum float64
	for i, lw := range lws {
		weights[i] = math.Exp(lw - maxLw)
		sum += weights[i]
	}
	for i := range probs {
		probs[i] = weights[i] / sum
	}
	return probs, weights
}

// basisPoints converts probabilities to integer basis points summing to
// exactly 10000: floor each p*10000, then hand the shortfall out one unit
// at a time to the largest fractional remainders, ties broken by ascending
// wallet. The wallet tie-break is load-bearing for reproducibility; do not
// swap it for a different stable sort.
func basisPoints(probs []float64, wallets []string) []int {
	n := len(probs)
	bps := make([]int, n)
	if n == 0 {
		return bps
	}
	fracs := make([]float64, n)
	sum := 0
	for i, p := range probs {
		raw := p * totalBps
		floor := math.Floor(raw)
		bps[i] = int(floor)
		fracs[i] = raw - floor
		sum += bps[i]
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if fracs[ia] != fracs[ib] {
			return fracs[ia] > fracs[ib]
		}
		return wallets[ia] < wallets[ib]
	})

	for sum < totalBps {
		for _, idx := range order {
			if sum == totalBps {
				break
			}
			bps[idx]++
			sum++
		}
	}
	// Floating-point drift could only push the floors over 10000 if the
	// probabilities summed above 1; walk it back from the smallest
	// remainders.
	for sum > totalBps {
		for i := len(order) - 1; i >= 0 && sum > totalBps; i-- {
			if bps[order[i]] > 0 {
				bps[order[i]]--
				sum--
			}
		}
	}
	return bps
}
