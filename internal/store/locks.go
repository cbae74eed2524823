package store

import (
	"context"
	"errors"
	"time"
)

// ErrLockHeld is returned when a named lock is held by a live holder.
var ErrLockHeld = errors.New("lock held")

// AcquireLock takes the named lock for holderID, or takes it over when the
// current holder's age exceeds maxAge (crash recovery). One statement does
// both, so two racing acquirers cannot both win a stale takeover. On
// failure the current holder's metadata is returned alongside ErrLockHeld.
// Acquisition never blocks; callers retry on a later scheduler tick.
func (s *Store) AcquireLock(ctx context.Context, key, holderID string, maxAge time.Duration) (*JobLock, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO job_locks (lock_key, holder_id, acquired_at, tx_ref)
		VALUES ($1, $2, now(), NULL)
		ON CONFLICT (lock_key) DO UPDATE
		SET holder_id = EXCLUDED.holder_id, acquired_at = now(), tx_ref = NULL
		WHERE job_locks.acquired_at < now() - make_interval(secs => $3)
		RETURNING lock_key, holder_id, acquired_at, tx_ref
	`, key, holderID, maxAge.Seconds())
	var l JobLock
	err := row.Scan(&l.LockKey, &l.HolderID, &l.AcquiredAt, &l.TxRef)
	if err == nil {
		return &l, nil
	}
	if mapNoRows(err) != ErrNotFound {
		return nil, err
	}
	holder, err := s.GetLock(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// holder released between statements; caller retries next tick
			return nil, ErrLockHeld
		}
		return nil, err
	}
	return holder, ErrLockHeld
}

// ReleaseLock drops the named lock unconditionally.
func (s *Store) ReleaseLock(ctx context.Context, key string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM job_locks WHERE lock_key = $1`, key)
	return err
}

// SetLockTxRef correlates an in-flight transaction with the lock holder.
func (s *Store) SetLockTxRef(ctx context.Context, key, holderID, txRef string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE job_locks SET tx_ref = $3 WHERE lock_key = $1 AND holder_id = $2
	`, key, holderID, txRef)
	return err
}

func (s *Store) GetLock(ctx context.Context, key string) (*JobLock, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT lock_key, holder_id, acquired_at, tx_ref FROM job_locks WHERE lock_key = $1
	`, key)
	var l JobLock
	if err := row.Scan(&l.LockKey, &l.HolderID, &l.AcquiredAt, &l.TxRef); err != nil {
		return nil, mapNoRows(err)
	}
	return &l, nil
}
