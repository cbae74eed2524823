package pipeline

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Share is one recipient's basis-point slice of a pool.
type Share struct {
	Wallet string
	Bps    int
}

// Alloc is one recipient's exact lamport amount.
type Alloc struct {
	Wallet   string
	Lamports int64
}

var bpsDivisor = decimal.NewFromInt(totalBps)

// allocatePool converts basis-point shares into exact integer lamport
// amounts summing to exactly pool: floor(pool*bps/10000) each, remainder
// handed out one lamport at a time to the rows with the largest
// (pool*bps) mod 10000, ties broken by ascending wallet. Decimal
// arithmetic keeps pool*bps exact for any int64 pool.
func allocatePool(pool int64, shares []Share) ([]Alloc, error) {
	if pool < 0 {
		return nil, fmt.Errorf("pool must be non-negative, got %d", pool)
	}
	if len(shares) == 0 {
		return []Alloc{}, nil
	}
	sumBps := 0
	for _, sh := range shares {
		if sh.Bps < 0 {
			return nil, fmt.Errorf("negative share %d for wallet %s", sh.Bps, sh.Wallet)
		}
		sumBps += sh.Bps
	}
	if sumBps != totalBps {
		return nil, fmt.Errorf("shares sum to %d basis points, want %d", sumBps, totalBps)
	}

	poolDec := decimal.NewFromInt(pool)
	out := make([]Alloc, len(shares))
	rems := make([]decimal.Decimal, len(shares))
	var allocated int64
	for i, sh := range shares {
		q, r := poolDec.Mul(decimal.NewFromInt(int64(sh.Bps))).QuoRem(bpsDivisor, 0)
		out[i] = Alloc{Wallet: sh.Wallet, Lamports: q.IntPart()}
		rems[i] = r
		allocated += out[i].Lamports
	}

	order := make([]int, len(shares))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if c := rems[ia].Cmp(rems[ib]); c != 0 {
			return c > 0
		}
		return shares[ia].Wallet < shares[ib].Wallet
	})

	for remainder := pool - allocated; remainder > 0; {
		for _, idx := range order {
			if remainder == 0 {
				break
			}
			out[idx].Lamports++
			remainder--
		}
	}
	return out, nil
}
