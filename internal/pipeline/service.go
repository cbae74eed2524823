package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"holder-rewards/internal/chain"
	"holder-rewards/internal/config"
	"holder-rewards/internal/funds"
	"holder-rewards/internal/store"
)

// Pipeline runs the epoch stages. Invocations are stateless and safe to
// trigger concurrently from any number of processes: all coordination goes
// through the store's named locks and idempotent accessors, never
// in-process mutexes.
type Pipeline struct {
	store    *store.Store
	reader   chain.Reader
	mover    funds.Mover
	cfg      config.PipelineConfig
	excluded map[string]struct{}
}

func New(st *store.Store, rd chain.Reader, mv funds.Mover, cfg config.PipelineConfig) *Pipeline {
	excluded := make(map[string]struct{}, len(cfg.ExcludedWallets))
	for _, w := range cfg.ExcludedWallets {
		excluded[w] = struct{}{}
	}
	return &Pipeline{store: st, reader: rd, mover: mv, cfg: cfg, excluded: excluded}
}

func (p *Pipeline) runLockMaxAge() time.Duration {
	return time.Duration(p.cfg.RunLockMaxAgeSecs) * time.Second
}

// withRunLock runs fn while holding the named run lock for key. A held
// lock is a skip, not an error.
func (p *Pipeline) withRunLock(ctx context.Context, key string, fn func() Result) Result {
	holder := uuid.NewString()
	if _, err := p.store.AcquireLock(ctx, key, holder, p.runLockMaxAge()); err != nil {
		if errors.Is(err, store.ErrLockHeld) {
			return skipped("already running")
		}
		return failed(fmt.Errorf("acquire %s: %w", key, err))
	}
	defer func() {
		if err := p.store.ReleaseLock(ctx, key); err != nil {
			log.Warn().Err(err).Str("lock_key", key).Msg("release run lock failed")
		}
	}()
	return fn()
}

// getOrCreateEpoch resolves the epoch row for a period, creating it under
// the per-sequence named lock with the unique index as the final backstop.
// The loser of a creation race re-reads and returns the winner's row.
func (p *Pipeline) getOrCreateEpoch(ctx context.Context, period Period) (*store.Epoch, *Result) {
	ep, err := p.store.GetEpochBySeq(ctx, period.Seq)
	if err == nil {
		return ep, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		r := failed(fmt.Errorf("read epoch %d: %w", period.Seq, err))
		return nil, &r
	}

	key := fmt.Sprintf("epoch:%d", period.Seq)
	maxAge := time.Duration(p.cfg.EpochLockMaxAgeSecs) * time.Second
	_, err = p.store.AcquireLock(ctx, key, uuid.NewString(), maxAge)
	if err != nil {
		if errors.Is(err, store.ErrLockHeld) {
			// in-flight creation by another caller; re-read once
			if ep, rerr := p.store.GetEpochBySeq(ctx, period.Seq); rerr == nil {
				return ep, nil
			}
			r := skipped("epoch creation in progress")
			return nil, &r
		}
		r := failed(fmt.Errorf("acquire %s: %w", key, err))
		return nil, &r
	}
	defer func() {
		_ = p.store.ReleaseLock(ctx, key)
	}()

	created, err := p.store.CreateEpoch(ctx, period.Seq, period.StartsAt, period.EndsAt)
	if err != nil {
		r := failed(fmt.Errorf("create epoch %d: %w", period.Seq, err))
		return nil, &r
	}
	if created {
		log.Info().Int64("seq", period.Seq).Msg("epoch created")
	}
	ep, err = p.store.GetEpochBySeq(ctx, period.Seq)
	if err != nil {
		r := failed(fmt.Errorf("reread epoch %d: %w", period.Seq, err))
		return nil, &r
	}
	return ep, nil
}

// resolveEpoch picks the stage's input epoch: an explicit sequence number,
// or the newest epoch sitting in wantStatus.
func (p *Pipeline) resolveEpoch(ctx context.Context, seq *int64, wantStatus string) (*store.Epoch, *Result) {
	var ep *store.Epoch
	var err error
	if seq != nil {
		ep, err = p.store.GetEpochBySeq(ctx, *seq)
	} else {
		ep, err = p.store.LatestEpochInStatus(ctx, wantStatus)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			r := skipped("no epoch in status " + wantStatus)
			return nil, &r
		}
		r := failed(err)
		return nil, &r
	}
	return ep, nil
}
