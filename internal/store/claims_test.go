package store

import (
	"errors"
	"testing"
	"time"
)

func TestReserveAndConfirmClaim(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	ep := mustCreateEpoch(t, st, ctx, 1)
	wallet := "7Np41oeYqPefeNQEHSv1UDhYrehxin3NStELsSKCT4K2"

	if err := st.ReserveClaim(ctx, ep.ID, wallet, 5000, ""); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := st.ReserveClaim(ctx, ep.ID, wallet, 5000, ""); !errors.Is(err, ErrClaimPending) {
		t.Fatalf("second reserve: got %v, want ErrClaimPending", err)
	}

	done, err := st.ConfirmClaim(ctx, ep.ID, wallet, "sig-abc")
	if err != nil || !done {
		t.Fatalf("confirm done=%v err=%v", done, err)
	}
	// Confirmation retry is a no-op and leaves the recorded reference alone.
	done, err = st.ConfirmClaim(ctx, ep.ID, wallet, "sig-other")
	if err != nil {
		t.Fatalf("confirm retry: %v", err)
	}
	if done {
		t.Fatal("confirm retry must not match rows")
	}
	c, err := st.GetClaim(ctx, ep.ID, wallet)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.Status != ClaimCompleted || c.TxRef == nil || *c.TxRef != "sig-abc" || c.CompletedAt == nil {
		t.Fatalf("unexpected claim: %+v", c)
	}

	if err := st.ReserveClaim(ctx, ep.ID, wallet, 5000, ""); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("reserve after completion: got %v, want ErrAlreadyClaimed", err)
	}
}

func TestReapStaleClaims(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	ep := mustCreateEpoch(t, st, ctx, 2)
	stale := "4fYNw3dojWmQ4dXtSGE9epjRGy9pFSx62YypT7avPYvA"
	fresh := "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"

	for _, w := range []string{stale, fresh} {
		if err := st.ReserveClaim(ctx, ep.ID, w, 100, ""); err != nil {
			t.Fatalf("reserve %s: %v", w, err)
		}
	}
	if _, err := st.Pool.Exec(ctx, `
		UPDATE claims SET created_at = now() - make_interval(secs => $2) WHERE wallet = $1
	`, stale, 1000); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	// Fresh pending claim survives a reap on its wallet.
	n, err := st.ReapStaleClaims(ctx, fresh, 15*time.Minute)
	if err != nil {
		t.Fatalf("reap fresh: %v", err)
	}
	if n != 0 {
		t.Fatalf("reaped %d fresh claims, want 0", n)
	}

	n, err = st.ReapStaleClaims(ctx, stale, 15*time.Minute)
	if err != nil {
		t.Fatalf("reap stale: %v", err)
	}
	if n != 1 {
		t.Fatalf("reaped %d, want 1", n)
	}
	if _, err := st.GetClaim(ctx, ep.ID, stale); !errors.Is(err, ErrNotFound) {
		t.Fatalf("stale claim should be gone, got %v", err)
	}
	// The wallet can reserve again after the reap.
	if err := st.ReserveClaim(ctx, ep.ID, stale, 100, ""); err != nil {
		t.Fatalf("re-reserve: %v", err)
	}
}

func TestReapSkipsCompletedClaims(t *testing.T) {
	st, ctx, cleanup := openStore(t)
	defer cleanup()

	ep := mustCreateEpoch(t, st, ctx, 3)
	wallet := "3yFwqXBfZY4jBVUafQ1YEXw189y2dN3V5sWHz4wrnUxd"

	if err := st.ReserveClaim(ctx, ep.ID, wallet, 77, ""); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if _, err := st.ConfirmClaim(ctx, ep.ID, wallet, "sig"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := st.Pool.Exec(ctx, `
		UPDATE claims SET created_at = now() - make_interval(secs => $2) WHERE wallet = $1
	`, wallet, 1000); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	n, err := st.ReapStaleClaims(ctx, wallet, time.Minute)
	if err != nil {
		t.Fatalf("reap: %v", err)
	}
	if n != 0 {
		t.Fatalf("reaped %d completed claims, want 0", n)
	}
}
