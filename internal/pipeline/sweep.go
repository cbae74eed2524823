package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"holder-rewards/internal/store"
)

// ErrTreasuryNotSet means the sweep destination is not configured.
var ErrTreasuryNotSet = errors.New("treasury_wallet_not_configured")

// RunSweep moves a source wallet's balance above the configured float to
// the treasury. The per-wallet single-flight lock guarantees at most one
// in-flight sweep per source regardless of scheduler concurrency or
// crashes; a crashed run's lock is taken over after the staleness window.
func (p *Pipeline) RunSweep(ctx context.Context, sourceWallet string) Result {
	if sourceWallet == "" {
		return failed(errors.New("source wallet required"))
	}
	if p.cfg.TreasuryWallet == "" {
		return failed(ErrTreasuryNotSet)
	}

	lockKey := "sweep:" + sourceWallet
	holder := uuid.NewString()
	maxAge := time.Duration(p.cfg.SweepLockMaxAgeSecs) * time.Second
	if _, err := p.store.AcquireLock(ctx, lockKey, holder, maxAge); err != nil {
		if errors.Is(err, store.ErrLockHeld) {
			return skipped("sweep in flight")
		}
		return failed(err)
	}
	defer func() {
		_ = p.store.ReleaseLock(ctx, lockKey)
	}()

	balance, err := p.reader.GetBalance(ctx, sourceWallet)
	if err != nil {
		return failed(fmt.Errorf("read balance: %w", err))
	}
	excess := int64(balance) - p.cfg.SweepKeepLamports
	if excess <= 0 {
		return skipped("nothing to sweep")
	}

	req, err := p.mover.BuildTransfer(ctx, sourceWallet, p.cfg.TreasuryWallet, excess)
	if err != nil {
		return failed(err)
	}
	txRef, err := p.mover.Submit(ctx, req)
	if err != nil {
		return failed(fmt.Errorf("%w: %v", ErrTransferFailed, err))
	}
	if err := p.store.SetLockTxRef(ctx, lockKey, holder, txRef); err != nil {
		log.Warn().Err(err).Str("wallet", sourceWallet).Msg("record sweep tx ref failed")
	}

	log.Info().
		Str("wallet", sourceWallet).
		Int64("swept_lamports", excess).
		Str("tx_ref", txRef).
		Msg("fee sweep submitted")
	return Result{Status: StatusApplied, Rows: 1}
}
