package pipeline

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocatePoolWorkedExamples(t *testing.T) {
	allocs, err := allocatePool(10, []Share{
		{Wallet: "a", Bps: 5000},
		{Wallet: "b", Bps: 3000},
		{Wallet: "c", Bps: 2000},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), allocs[0].Lamports)
	assert.Equal(t, int64(3), allocs[1].Lamports)
	assert.Equal(t, int64(2), allocs[2].Lamports)

	// Floors {3,3,3} leave 1 lamport; the 3334 bps row has the largest
	// remainder and takes it.
	allocs, err = allocatePool(10, []Share{
		{Wallet: "a", Bps: 3334},
		{Wallet: "b", Bps: 3333},
		{Wallet: "c", Bps: 3333},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), allocs[0].Lamports)
	assert.Equal(t, int64(3), allocs[1].Lamports)
	assert.Equal(t, int64(3), allocs[2].Lamports)
}

func TestAllocatePoolSumsExactly(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	pools := []int64{0, 1, 2, 9, 10, 99, 10000, 10007, 1_000_000_007, math.MaxInt64}
	for _, n := range []int{1, 2, 3, 17, 100} {
		for _, pool := range pools {
			t.Run(fmt.Sprintf("n=%d/pool=%d", n, pool), func(t *testing.T) {
				shares := randomShares(rng, n)
				allocs, err := allocatePool(pool, shares)
				require.NoError(t, err)
				var sum int64
				for _, a := range allocs {
					require.GreaterOrEqual(t, a.Lamports, int64(0))
					sum += a.Lamports
				}
				require.Equal(t, pool, sum)
			})
		}
	}
}

func TestAllocatePoolSmallerThanRecipients(t *testing.T) {
	// 3 lamports over 7 recipients: only the largest remainders get one.
	shares := make([]Share, 7)
	rem := totalBps
	for i := range shares {
		bps := totalBps / 7
		if i == len(shares)-1 {
			bps = rem
		}
		rem -= bps
		shares[i] = Share{Wallet: fmt.Sprintf("w%02d", i), Bps: bps}
	}
	allocs, err := allocatePool(3, shares)
	require.NoError(t, err)
	var sum int64
	for _, a := range allocs {
		sum += a.Lamports
	}
	assert.Equal(t, int64(3), sum)
}

func TestAllocatePoolRemainderTieBreakByWallet(t *testing.T) {
	// pool=10, equal 2500 bps each: floors 2,2,2,2 leave 2 lamports, all
	// remainders equal, so the two lowest wallets win.
	allocs, err := allocatePool(10, []Share{
		{Wallet: "ddd", Bps: 2500},
		{Wallet: "bbb", Bps: 2500},
		{Wallet: "aaa", Bps: 2500},
		{Wallet: "ccc", Bps: 2500},
	})
	require.NoError(t, err)
	byWallet := map[string]int64{}
	for _, a := range allocs {
		byWallet[a.Wallet] = a.Lamports
	}
	assert.Equal(t, int64(3), byWallet["aaa"])
	assert.Equal(t, int64(3), byWallet["bbb"])
	assert.Equal(t, int64(2), byWallet["ccc"])
	assert.Equal(t, int64(2), byWallet["ddd"])
}

func TestAllocatePoolRejectsBadInput(t *testing.T) {
	_, err := allocatePool(-1, []Share{{Wallet: "a", Bps: totalBps}})
	assert.Error(t, err)

	_, err = allocatePool(10, []Share{{Wallet: "a", Bps: 9999}})
	assert.Error(t, err, "shares must sum to 10000")

	_, err = allocatePool(10, []Share{{Wallet: "a", Bps: -1}, {Wallet: "b", Bps: 10001}})
	assert.Error(t, err)

	allocs, err := allocatePool(10, nil)
	require.NoError(t, err)
	assert.Empty(t, allocs, "zero recipients allocate nothing")
}

func randomShares(rng *rand.Rand, n int) []Share {
	cuts := make([]int, 0, n+1)
	cuts = append(cuts, 0, totalBps)
	for len(cuts) < n+1 {
		cuts = append(cuts, rng.Intn(totalBps+1))
	}
	sort.Ints(cuts)
	shares := make([]Share, n)
	for i := 0; i < n; i++ {
		shares[i] = Share{Wallet: fmt.Sprintf("wallet%04d", i), Bps: cuts[i+1] - cuts[i]}
	}
	return shares
}
