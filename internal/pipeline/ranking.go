package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"holder-rewards/internal/store"
)

const secondsPerDay = 86400

// RunRanking selects the top-N snapshot rows of a finalized epoch and
// computes the exactly-normalized basis-point shares. When seq is nil the
// newest finalized epoch is used.
func (p *Pipeline) RunRanking(ctx context.Context, seq *int64) Result {
	epoch, res := p.resolveEpoch(ctx, seq, store.EpochFinalized)
	if res != nil {
		return *res
	}
	r := p.withRunLock(ctx, "ranking:"+epoch.ID, func() Result {
		return p.rankingLocked(ctx, epoch)
	})
	return r.withEpoch(epoch.ID, epoch.Seq)
}

func (p *Pipeline) rankingLocked(ctx context.Context, epoch *store.Epoch) Result {
	if epoch.Status != store.EpochFinalized {
		return skipped("wrong status " + epoch.Status)
	}
	count, err := p.store.CountRankings(ctx, epoch.ID)
	if err != nil {
		return failed(err)
	}
	if count > 0 {
		return skipped("rankings exist")
	}

	snaps, err := p.store.TopSnapshots(ctx, epoch.ID, p.cfg.TopN)
	if err != nil {
		return failed(err)
	}
	if len(snaps) == 0 {
		return skipped("no snapshot rows")
	}

	snapTime := epoch.EndsAt
	if epoch.FinalizedAt != nil {
		snapTime = *epoch.FinalizedAt
	}

	ranks := buildRankings(epoch.ID, snaps, snapTime, p.cfg.Alpha, p.cfg.Beta)
	if err := p.store.InsertRankings(ctx, ranks); err != nil {
		if errors.Is(err, store.ErrRowsExist) {
			return skipped("rankings exist")
		}
		return failed(fmt.Errorf("insert rankings: %w", err))
	}
	if _, err := p.store.TransitionEpoch(ctx, epoch.ID, store.EpochFinalized, store.EpochRankingComputed); err != nil {
		return failed(err)
	}

	log.Info().Int64("seq", epoch.Seq).Int("ranked", len(ranks)).Msg("ranking computed")
	return applied(epoch.ID, epoch.Seq, int64(len(ranks)))
}

// buildRankings scores snapshot rows already in rank order (holding
// duration desc, balance desc, wallet asc) and attaches exact basis-point
// shares. Deterministic: identical input yields identical output.
func buildRankings(epochID string, snaps []store.Snapshot, snapTime int64, alpha, beta float64) []store.Ranking {
	n := len(snaps)
	lws := make([]float64, n)
	days := make([]float64, n)
	wallets := make([]string, n)
	for i, sn := range snaps {
		held := snapTime - sn.HoldingSince
		if held < 0 {
			held = 0
		}
		days[i] = float64(held) / secondsPerDay
		lws[i] = logScore(alpha, beta, days[i], sn.Balance.InexactFloat64())
		wallets[i] = sn.Wallet
	}
	probs, weights := normalizeScores(lws)
	bps := basisPoints(probs, wallets)

	out := make([]store.Ranking, n)
	for i, sn := range snaps {
		out[i] = store.Ranking{
			EpochID:     epochID,
			Wallet:      sn.Wallet,
			Rank:        i + 1,
			HoldingDays: days[i],
			Balance:     sn.Balance,
			Weight:      weights[i],
			ShareBps:    bps[i],
		}
	}
	return out
}
