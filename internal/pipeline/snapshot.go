package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"holder-rewards/internal/chain"
	"holder-rewards/internal/store"
)

// RunSnapshot records the holder set for the period owning the current
// chain time, then finalizes the epoch. Idempotent end to end: any retry
// that finds committed snapshot rows, a live run lock, or an advanced
// epoch status skips instead of duplicating work.
func (p *Pipeline) RunSnapshot(ctx context.Context) Result {
	now, err := p.reader.CurrentTime(ctx)
	if err != nil {
		return failed(fmt.Errorf("chain time: %w", err))
	}
	period := PeriodFor(now, p.cfg.AnchorUnix, p.cfg.PeriodSeconds)
	epoch, res := p.getOrCreateEpoch(ctx, period)
	if res != nil {
		return *res
	}

	r := p.withRunLock(ctx, "snapshot:"+epoch.ID, func() Result {
		return p.snapshotLocked(ctx, epoch, now)
	})
	return r.withEpoch(epoch.ID, epoch.Seq)
}

func (p *Pipeline) snapshotLocked(ctx context.Context, epoch *store.Epoch, now int64) Result {
	// Guard: status plus committed rows. The rows check makes the stage
	// safe even if a previous run lost its lock mid-write.
	if epoch.Status != store.EpochDraft && epoch.Status != store.EpochSnapshotting {
		return skipped("wrong status " + epoch.Status)
	}
	count, err := p.store.CountSnapshots(ctx, epoch.ID)
	if err != nil {
		return failed(err)
	}
	if count > 0 {
		return skipped("snapshot rows exist")
	}
	if epoch.Status == store.EpochDraft {
		if _, err := p.store.TransitionEpoch(ctx, epoch.ID, store.EpochDraft, store.EpochSnapshotting); err != nil {
			return failed(err)
		}
	}

	accounts, err := p.reader.ListTokenAccounts(ctx, p.cfg.Mint)
	if err != nil {
		return failed(fmt.Errorf("list token accounts: %w", err))
	}
	obs := p.filterEligible(aggregateByOwner(accounts))

	runMarker, err := p.store.Now(ctx)
	if err != nil {
		return failed(err)
	}
	if err := p.store.UpsertHolderStates(ctx, obs, now); err != nil {
		return failed(fmt.Errorf("upsert holder states: %w", err))
	}
	swept, err := p.store.SweepNotSeen(ctx, runMarker, now)
	if err != nil {
		return failed(fmt.Errorf("sweep not-seen: %w", err))
	}
	if err := p.store.InsertSnapshots(ctx, epoch.ID, obs, now); err != nil {
		return failed(fmt.Errorf("insert snapshots: %w", err))
	}
	if _, err := p.store.FinalizeEpoch(ctx, epoch.ID, now); err != nil {
		return failed(err)
	}

	log.Info().
		Int64("seq", epoch.Seq).
		Int("holders", len(obs)).
		Int64("swept", swept).
		Msg("snapshot finalized")
	return applied(epoch.ID, epoch.Seq, int64(len(obs)))
}

// aggregateByOwner sums raw balances per owner; one owner may hold several
// underlying token accounts. Output is sorted by wallet ascending.
func aggregateByOwner(accounts []chain.TokenAccount) []store.HolderObservation {
	byOwner := make(map[string]decimal.Decimal, len(accounts))
	for _, a := range accounts {
		byOwner[a.Owner] = byOwner[a.Owner].Add(a.RawBalance)
	}
	out := make([]store.HolderObservation, 0, len(byOwner))
	for owner, bal := range byOwner {
		out = append(out, store.HolderObservation{Wallet: owner, Balance: bal})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Wallet < out[j].Wallet })
	return out
}

func (p *Pipeline) filterEligible(obs []store.HolderObservation) []store.HolderObservation {
	minBalance := decimal.NewFromInt(p.cfg.MinBalance)
	out := make([]store.HolderObservation, 0, len(obs))
	for _, o := range obs {
		if !o.Balance.IsPositive() {
			continue
		}
		if _, banned := p.excluded[o.Wallet]; banned {
			continue
		}
		if p.cfg.ValidateWallets && !looksStandardWallet(o.Wallet) {
			continue
		}
		if o.Balance.LessThan(minBalance) {
			continue
		}
		out = append(out, o)
	}
	return out
}
