package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrClaimPending means a pending claim already reserves the pair.
	ErrClaimPending = errors.New("claim already pending")
	// ErrAlreadyClaimed means the pair has a completed claim.
	ErrAlreadyClaimed = errors.New("already claimed")
)

// ReserveClaim inserts a pending claim reserving (epoch, wallet). On
// conflict the existing row's status decides which error the caller gets,
// so "try again later" and "paid already" are distinguishable.
func (s *Store) ReserveClaim(ctx context.Context, epochID, wallet string, amount int64, txRef string) error {
	tag, err := s.Pool.Exec(ctx, `
		INSERT INTO claims (epoch_id, wallet, amount_lamports, status, tx_ref)
		VALUES ($1, $2, $3, 'pending', NULLIF($4, ''))
		ON CONFLICT (epoch_id, wallet) DO NOTHING
	`, epochID, wallet, amount, txRef)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	existing, err := s.GetClaim(ctx, epochID, wallet)
	if err != nil {
		return err
	}
	if existing.Status == ClaimCompleted {
		return ErrAlreadyClaimed
	}
	return ErrClaimPending
}

// ConfirmClaim marks a pending claim completed with the final transaction
// reference. A zero-row match is a silent no-op so confirmation retries are
// idempotent.
func (s *Store) ConfirmClaim(ctx context.Context, epochID, wallet, txRef string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE claims SET status = 'completed', tx_ref = $3, completed_at = now()
		WHERE epoch_id = $1 AND wallet = $2 AND status = 'pending'
	`, epochID, wallet, txRef)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ReapStaleClaims deletes pending claims for a wallet older than threshold
// that never got a confirmed reference, unblocking a retry after a failed
// transfer. Callers hold the wallet's named lock while reaping.
func (s *Store) ReapStaleClaims(ctx context.Context, wallet string, olderThan time.Duration) (int64, error) {
	tag, err := s.Pool.Exec(ctx, `
		DELETE FROM claims
		WHERE wallet = $1 AND status = 'pending' AND completed_at IS NULL
		  AND created_at < now() - make_interval(secs => $2)
	`, wallet, olderThan.Seconds())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) GetClaim(ctx context.Context, epochID, wallet string) (*Claim, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT epoch_id, wallet, amount_lamports, status, tx_ref, created_at, completed_at
		FROM claims WHERE epoch_id = $1 AND wallet = $2
	`, epochID, wallet)
	var c Claim
	if err := row.Scan(&c.EpochID, &c.Wallet, &c.AmountLamports, &c.Status, &c.TxRef, &c.CreatedAt, &c.CompletedAt); err != nil {
		return nil, mapNoRows(err)
	}
	return &c, nil
}

func (s *Store) ListClaims(ctx context.Context, epochID string) ([]Claim, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT epoch_id, wallet, amount_lamports, status, tx_ref, created_at, completed_at
		FROM claims WHERE epoch_id = $1 ORDER BY wallet ASC
	`, epochID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Claim{}
	for rows.Next() {
		var c Claim
		if err := rows.Scan(&c.EpochID, &c.Wallet, &c.AmountLamports, &c.Status, &c.TxRef, &c.CreatedAt, &c.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
