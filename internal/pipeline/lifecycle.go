package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"

	"holder-rewards/internal/store"
)

// OpenClaims moves an epoch from distribution_dry_run to claim_open.
func (p *Pipeline) OpenClaims(ctx context.Context, seq int64) Result {
	return p.transition(ctx, seq, store.EpochDistributionDryRun, store.EpochClaimOpen)
}

// CloseClaims moves an epoch from claim_open to claim_closed.
func (p *Pipeline) CloseClaims(ctx context.Context, seq int64) Result {
	return p.transition(ctx, seq, store.EpochClaimOpen, store.EpochClaimClosed)
}

// Settle moves an epoch from claim_closed to settled.
func (p *Pipeline) Settle(ctx context.Context, seq int64) Result {
	return p.transition(ctx, seq, store.EpochClaimClosed, store.EpochSettled)
}

func (p *Pipeline) transition(ctx context.Context, seq int64, from, to string) Result {
	epoch, res := p.resolveEpoch(ctx, &seq, from)
	if res != nil {
		return *res
	}
	moved, err := p.store.TransitionEpoch(ctx, epoch.ID, from, to)
	if err != nil {
		return failed(err).withEpoch(epoch.ID, epoch.Seq)
	}
	if !moved {
		return skipped("wrong status " + epoch.Status).withEpoch(epoch.ID, epoch.Seq)
	}
	log.Info().Int64("seq", seq).Str("from", from).Str("to", to).Msg("epoch transitioned")
	return applied(epoch.ID, epoch.Seq, 1)
}
