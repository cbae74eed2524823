package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"holder-rewards/internal/funds"
	"holder-rewards/internal/store"
)

var (
	ErrClaimNotOpen   = errors.New("claims_not_open")
	ErrNoDistribution = errors.New("no_distribution")
	ErrAmountMismatch = errors.New("amount_mismatch")
	ErrSourceNotSet   = errors.New("source_wallet_not_configured")
	ErrTransferFailed = errors.New("transfer_failed")
)

// RunPayoutDryRun builds unsigned transfer templates for an epoch's
// distribution rows, all pinned to one shared recent chain reference, for
// operator review. It never moves funds and never transitions state.
func (p *Pipeline) RunPayoutDryRun(ctx context.Context, seq *int64, includeTemplates bool) (Result, []funds.TransferRequest) {
	if p.cfg.RewardSourceWallet == "" {
		return failed(ErrSourceNotSet), nil
	}
	epoch, res := p.resolveEpoch(ctx, seq, store.EpochDistributionDryRun)
	if res != nil {
		return *res, nil
	}
	if epoch.Status != store.EpochDistributionDryRun && epoch.Status != store.EpochClaimOpen {
		return skipped("wrong status " + epoch.Status).withEpoch(epoch.ID, epoch.Seq), nil
	}

	dists, err := p.store.ListDistributions(ctx, epoch.ID)
	if err != nil {
		return failed(err).withEpoch(epoch.ID, epoch.Seq), nil
	}
	if len(dists) == 0 {
		return skipped("no distribution rows").withEpoch(epoch.ID, epoch.Seq), nil
	}

	ref, err := p.reader.RecentReference(ctx)
	if err != nil {
		return failed(fmt.Errorf("recent reference: %w", err)), nil
	}

	var templates []funds.TransferRequest
	if includeTemplates {
		templates = make([]funds.TransferRequest, 0, len(dists))
	}
	for _, d := range dists {
		if d.AmountLamports == 0 {
			continue
		}
		req, err := p.mover.BuildTransfer(ctx, p.cfg.RewardSourceWallet, d.Wallet, d.AmountLamports)
		if err != nil {
			return failed(fmt.Errorf("build transfer for %s: %w", d.Wallet, err)), nil
		}
		req.Reference = ref
		if includeTemplates {
			templates = append(templates, req)
		}
	}
	return applied(epoch.ID, epoch.Seq, int64(len(dists))), templates
}

// ReserveClaim is phase one of the two-phase claim: it reserves the
// (epoch, wallet) pair with a pending record, then submits the transfer
// while holding the wallet's single-flight lock. The pending record stays
// behind on submission failure; the reaper is the recovery path.
func (p *Pipeline) ReserveClaim(ctx context.Context, seq int64, wallet string, amount int64) (string, error) {
	if p.cfg.RewardSourceWallet == "" {
		return "", ErrSourceNotSet
	}
	epoch, err := p.store.GetEpochBySeq(ctx, seq)
	if err != nil {
		return "", err
	}
	if epoch.Status != store.EpochClaimOpen {
		return "", ErrClaimNotOpen
	}
	dist, err := p.store.GetDistribution(ctx, epoch.ID, wallet)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNoDistribution
		}
		return "", err
	}
	if dist.AmountLamports != amount {
		return "", ErrAmountMismatch
	}

	lockKey := "claim:" + wallet
	holder := uuid.NewString()
	maxAge := time.Duration(p.cfg.RunLockMaxAgeSecs) * time.Second
	if _, err := p.store.AcquireLock(ctx, lockKey, holder, maxAge); err != nil {
		return "", err
	}
	defer func() {
		_ = p.store.ReleaseLock(ctx, lockKey)
	}()

	if err := p.store.ReserveClaim(ctx, epoch.ID, wallet, amount, ""); err != nil {
		return "", err
	}

	req, err := p.mover.BuildTransfer(ctx, p.cfg.RewardSourceWallet, wallet, amount)
	if err != nil {
		return "", err
	}
	txRef, err := p.mover.Submit(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("wallet", wallet).Int64("seq", seq).Msg("claim transfer failed, pending record kept")
		return "", fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := p.store.SetLockTxRef(ctx, lockKey, holder, txRef); err != nil {
		log.Warn().Err(err).Str("wallet", wallet).Msg("record lock tx ref failed")
	}
	return txRef, nil
}

// ConfirmClaim is phase two: mark the pending record completed once the
// transfer is confirmed. A zero-row match is a no-op, so retries are
// idempotent.
func (p *Pipeline) ConfirmClaim(ctx context.Context, seq int64, wallet, txRef string) error {
	epoch, err := p.store.GetEpochBySeq(ctx, seq)
	if err != nil {
		return err
	}
	confirmed, err := p.store.ConfirmClaim(ctx, epoch.ID, wallet, txRef)
	if err != nil {
		return err
	}
	if confirmed {
		log.Info().Int64("seq", seq).Str("wallet", wallet).Str("tx_ref", txRef).Msg("claim completed")
	}
	return nil
}

// ReapStaleClaims deletes a wallet's pending claims older than olderThan
// that never got a confirmed reference, under the same named lock that
// guards claim creation for that wallet.
func (p *Pipeline) ReapStaleClaims(ctx context.Context, wallet string, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		olderThan = time.Duration(p.cfg.ClaimStaleSecs) * time.Second
	}
	lockKey := "claim:" + wallet
	maxAge := time.Duration(p.cfg.RunLockMaxAgeSecs) * time.Second
	if _, err := p.store.AcquireLock(ctx, lockKey, uuid.NewString(), maxAge); err != nil {
		return 0, err
	}
	defer func() {
		_ = p.store.ReleaseLock(ctx, lockKey)
	}()
	reaped, err := p.store.ReapStaleClaims(ctx, wallet, olderThan)
	if err != nil {
		return 0, err
	}
	if reaped > 0 {
		log.Info().Str("wallet", wallet).Int64("reaped", reaped).Msg("stale pending claims reaped")
	}
	return reaped, nil
}
