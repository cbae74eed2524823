package pipeline

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holder-rewards/internal/store"
)

func snapshotFixture(n int, snapTime int64, rng *rand.Rand) []store.Snapshot {
	snaps := make([]store.Snapshot, n)
	for i := range snaps {
		snaps[i] = store.Snapshot{
			EpochID:      "ep1",
			Wallet:       fmt.Sprintf("wallet%06d", i),
			Balance:      decimal.NewFromInt(rng.Int63n(1_000_000_000_000_000)),
			HoldingSince: snapTime - rng.Int63n(365*secondsPerDay),
		}
	}
	return snaps
}

func TestBuildRankingsSharesSumExactly(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	snapTime := int64(1_700_000_000)
	for _, n := range []int{1, 2, 10, 100} {
		ranks := buildRankings("ep1", snapshotFixture(n, snapTime, rng), snapTime, 0.6, 0.4)
		sum := 0
		for i, r := range ranks {
			require.Equal(t, i+1, r.Rank, "ranks are dense and 1-based")
			require.GreaterOrEqual(t, r.ShareBps, 0)
			sum += r.ShareBps
		}
		require.Equal(t, totalBps, sum, "n=%d", n)
	}
}

func TestBuildRankingsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	snapTime := int64(1_700_000_000)
	snaps := snapshotFixture(50, snapTime, rng)
	a := buildRankings("ep1", snaps, snapTime, 0.6, 0.4)
	b := buildRankings("ep1", snaps, snapTime, 0.6, 0.4)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Wallet, b[i].Wallet)
		assert.Equal(t, a[i].Rank, b[i].Rank)
		assert.Equal(t, a[i].ShareBps, b[i].ShareBps)
		assert.Equal(t, a[i].Weight, b[i].Weight)
	}
}

func TestBuildRankingsZeroDayHolder(t *testing.T) {
	snapTime := int64(1_700_000_000)
	snaps := []store.Snapshot{
		{Wallet: "aaa", Balance: decimal.NewFromInt(1000), HoldingSince: snapTime - 30*secondsPerDay},
		{Wallet: "bbb", Balance: decimal.NewFromInt(1000), HoldingSince: snapTime},
	}
	ranks := buildRankings("ep1", snaps, snapTime, 0.6, 0.4)
	assert.Equal(t, float64(0), ranks[1].HoldingDays)
	// ln(0) = -Inf score still gets a basis-point column that sums whole.
	assert.Equal(t, totalBps, ranks[0].ShareBps+ranks[1].ShareBps)
	assert.Greater(t, ranks[0].ShareBps, ranks[1].ShareBps)
}

func TestBuildRankingsSinceAfterSnapClampsToZero(t *testing.T) {
	snapTime := int64(1_700_000_000)
	snaps := []store.Snapshot{
		{Wallet: "aaa", Balance: decimal.NewFromInt(10), HoldingSince: snapTime + 500},
	}
	ranks := buildRankings("ep1", snaps, snapTime, 0.6, 0.4)
	require.Len(t, ranks, 1)
	assert.Equal(t, float64(0), ranks[0].HoldingDays)
	assert.Equal(t, totalBps, ranks[0].ShareBps, "single pathological holder still gets the whole pool")
}
