package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrRowsExist is returned by the all-or-nothing batch inserts when any row
// is already present for the epoch. Callers report "skipped", never partial
// writes.
var ErrRowsExist = errors.New("rows already exist for epoch")

// InsertRankings writes a complete ranking for an epoch in one transaction.
// If any ranking row already exists the whole write is aborted.
func (s *Store) InsertRankings(ctx context.Context, ranks []Ranking) error {
	if len(ranks) == 0 {
		return nil
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var c int
	if err := tx.QueryRow(ctx, `SELECT COUNT(1) FROM rankings WHERE epoch_id = $1`, ranks[0].EpochID).Scan(&c); err != nil {
		return err
	}
	if c > 0 {
		return ErrRowsExist
	}
	for _, r := range ranks {
		_, err := tx.Exec(ctx, `
			INSERT INTO rankings (epoch_id, wallet, rank, holding_days, balance, weight, share_bps)
			VALUES ($1, $2, $3, $4, $5::numeric, $6, $7)
		`, r.EpochID, r.Wallet, r.Rank, r.HoldingDays, r.Balance.String(), r.Weight, r.ShareBps)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) ListRankings(ctx context.Context, epochID string) ([]Ranking, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT epoch_id, wallet, rank, holding_days, balance::text, weight, share_bps, created_at
		FROM rankings WHERE epoch_id = $1 ORDER BY rank ASC
	`, epochID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Ranking{}
	for rows.Next() {
		var r Ranking
		var bal string
		if err := rows.Scan(&r.EpochID, &r.Wallet, &r.Rank, &r.HoldingDays, &bal, &r.Weight, &r.ShareBps, &r.CreatedAt); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(bal)
		if err != nil {
			return nil, err
		}
		r.Balance = d
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) CountRankings(ctx context.Context, epochID string) (int, error) {
	row := s.Pool.QueryRow(ctx, `SELECT COUNT(1) FROM rankings WHERE epoch_id = $1`, epochID)
	var c int
	if err := row.Scan(&c); err != nil {
		return 0, err
	}
	return c, nil
}
