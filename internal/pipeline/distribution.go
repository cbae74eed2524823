package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"holder-rewards/internal/store"
)

// RunDistribution converts an epoch's basis-point shares into exact
// integer lamport amounts summing to the configured pool.
func (p *Pipeline) RunDistribution(ctx context.Context, seq *int64) Result {
	if p.cfg.PoolLamports <= 0 {
		return failed(fmt.Errorf("reward pool not configured (%d lamports)", p.cfg.PoolLamports))
	}
	epoch, res := p.resolveEpoch(ctx, seq, store.EpochRankingComputed)
	if res != nil {
		return *res
	}
	r := p.withRunLock(ctx, "distribution:"+epoch.ID, func() Result {
		return p.distributionLocked(ctx, epoch)
	})
	return r.withEpoch(epoch.ID, epoch.Seq)
}

func (p *Pipeline) distributionLocked(ctx context.Context, epoch *store.Epoch) Result {
	if epoch.Status != store.EpochRankingComputed {
		return skipped("wrong status " + epoch.Status)
	}
	count, err := p.store.CountDistributions(ctx, epoch.ID)
	if err != nil {
		return failed(err)
	}
	if count > 0 {
		return skipped("distributions exist")
	}

	ranks, err := p.store.ListRankings(ctx, epoch.ID)
	if err != nil {
		return failed(err)
	}
	if len(ranks) == 0 {
		return skipped("no ranking rows")
	}

	shares := make([]Share, len(ranks))
	for i, r := range ranks {
		shares[i] = Share{Wallet: r.Wallet, Bps: r.ShareBps}
	}
	allocs, err := allocatePool(p.cfg.PoolLamports, shares)
	if err != nil {
		return failed(fmt.Errorf("allocate pool: %w", err))
	}

	dists := make([]store.Distribution, len(allocs))
	var total int64
	for i, a := range allocs {
		dists[i] = store.Distribution{EpochID: epoch.ID, Wallet: a.Wallet, AmountLamports: a.Lamports}
		total += a.Lamports
	}
	if total != p.cfg.PoolLamports {
		// Unreachable given the floor/remainder arithmetic; never persist
		// a distribution that violates the pool invariant.
		return failed(fmt.Errorf("allocated %d lamports, want %d", total, p.cfg.PoolLamports))
	}

	if err := p.store.InsertDistributions(ctx, dists); err != nil {
		if errors.Is(err, store.ErrRowsExist) {
			return skipped("distributions exist")
		}
		return failed(fmt.Errorf("insert distributions: %w", err))
	}
	if _, err := p.store.TransitionEpoch(ctx, epoch.ID, store.EpochRankingComputed, store.EpochDistributionDryRun); err != nil {
		return failed(err)
	}

	log.Info().
		Int64("seq", epoch.Seq).
		Int("recipients", len(dists)).
		Int64("pool_lamports", p.cfg.PoolLamports).
		Msg("distribution computed")
	return applied(epoch.ID, epoch.Seq, int64(len(dists)))
}
