package store

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func sampleRankings(epochID string) []Ranking {
	return []Ranking{
		{EpochID: epochID, Wallet: "aaaWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin", Rank: 1, HoldingDays: 30, Balance: decimal.NewFromInt(900), Weight: 0.6, ShareBps: 6000},
		{EpochID: epochID, Wallet: "bbbWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin", Rank: 2, HoldingDays: 10, Balance: decimal.NewFromInt(100), Weight: 0.4, ShareBps: 4000},
	}
}

func TestInsertRankingsAllOrNothing(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	ep := mustCreateEpoch(t, st, ctx, 1)
	ranks := sampleRankings(ep.ID)
	if err := st.InsertRankings(ctx, ranks); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// A retried run with different numbers leaves the committed set whole.
	ranks[0].ShareBps = 9999
	if err := st.InsertRankings(ctx, ranks); !errors.Is(err, ErrRowsExist) {
		t.Fatalf("retry: got %v, want ErrRowsExist", err)
	}

	got, err := st.ListRankings(ctx, ep.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2", len(got))
	}
	if got[0].Rank != 1 || got[0].ShareBps != 6000 || got[1].Rank != 2 {
		t.Fatalf("unexpected rows: %+v", got)
	}
}

func TestInsertRankingsRollsBackOnFailure(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	ep := mustCreateEpoch(t, st, ctx, 2)
	ranks := sampleRankings(ep.ID)
	ranks[1].ShareBps = -1 // violates the bps check constraint
	if err := st.InsertRankings(ctx, ranks); err == nil {
		t.Fatal("expected constraint error")
	}

	n, err := st.CountRankings(ctx, ep.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("partial write survived, %d rows", n)
	}
}

func TestDistributionsInsertAndGet(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	ep := mustCreateEpoch(t, st, ctx, 3)
	dists := []Distribution{
		{EpochID: ep.ID, Wallet: "aaaWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin", AmountLamports: 600},
		{EpochID: ep.ID, Wallet: "bbbWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin", AmountLamports: 400},
	}
	if err := st.InsertDistributions(ctx, dists); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := st.InsertDistributions(ctx, dists); !errors.Is(err, ErrRowsExist) {
		t.Fatalf("retry: got %v, want ErrRowsExist", err)
	}

	d, err := st.GetDistribution(ctx, ep.ID, dists[1].Wallet)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.AmountLamports != 400 {
		t.Fatalf("amount = %d, want 400", d.AmountLamports)
	}
	if _, err := st.GetDistribution(ctx, ep.ID, "unknown"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing row: got %v, want ErrNotFound", err)
	}

	all, err := st.ListDistributions(ctx, ep.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var total int64
	for _, row := range all {
		total += row.AmountLamports
	}
	if total != 1000 {
		t.Fatalf("total = %d, want 1000", total)
	}
}

func TestStoreClock(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	if err := st.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	a, err := st.Now(ctx)
	if err != nil {
		t.Fatalf("now: %v", err)
	}
	b, err := st.Now(ctx)
	if err != nil {
		t.Fatalf("now: %v", err)
	}
	if b.Before(a) {
		t.Fatalf("db clock went backwards: %s then %s", a, b)
	}
}
