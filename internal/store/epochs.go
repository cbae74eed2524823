package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// CreateEpoch inserts a draft epoch for seq. Returns false when another
// caller already created the row; the unique index on seq is the backstop
// behind the per-sequence named lock.
func (s *Store) CreateEpoch(ctx context.Context, seq, startsAt, endsAt int64) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		INSERT INTO epochs (id, seq, starts_at, ends_at, status)
		VALUES ($1, $2, $3, $4, 'draft')
		ON CONFLICT (seq) DO NOTHING
	`, NewID(), seq, startsAt, endsAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) GetEpochBySeq(ctx context.Context, seq int64) (*Epoch, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, seq, starts_at, ends_at, status, finalized_at, created_at
		FROM epochs WHERE seq = $1
	`, seq)
	return scanEpoch(row)
}

func (s *Store) GetEpoch(ctx context.Context, id string) (*Epoch, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, seq, starts_at, ends_at, status, finalized_at, created_at
		FROM epochs WHERE id = $1
	`, id)
	return scanEpoch(row)
}

// LatestEpochInStatus returns the newest epoch currently in status.
func (s *Store) LatestEpochInStatus(ctx context.Context, status string) (*Epoch, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, seq, starts_at, ends_at, status, finalized_at, created_at
		FROM epochs WHERE status = $1 ORDER BY seq DESC LIMIT 1
	`, status)
	return scanEpoch(row)
}

func (s *Store) ListEpochs(ctx context.Context, limit, offset int) ([]Epoch, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, seq, starts_at, ends_at, status, finalized_at, created_at
		FROM epochs ORDER BY seq DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Epoch{}
	for rows.Next() {
		var e Epoch
		if err := rows.Scan(&e.ID, &e.Seq, &e.StartsAt, &e.EndsAt, &e.Status, &e.FinalizedAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// TransitionEpoch advances the lifecycle status, conditioned on the current
// status matching from. Zero rows affected means some other run got there
// first; callers treat false as "skipped", not an error.
func (s *Store) TransitionEpoch(ctx context.Context, id, from, to string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE epochs SET status = $3 WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// FinalizeEpoch moves snapshotting -> finalized and stamps the chain time
// the snapshot was taken at.
func (s *Store) FinalizeEpoch(ctx context.Context, id string, finalizedAt int64) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE epochs SET status = 'finalized', finalized_at = $2
		WHERE id = $1 AND status = 'snapshotting'
	`, id, finalizedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanEpoch(row pgx.Row) (*Epoch, error) {
	var e Epoch
	if err := row.Scan(&e.ID, &e.Seq, &e.StartsAt, &e.EndsAt, &e.Status, &e.FinalizedAt, &e.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}
