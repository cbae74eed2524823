package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// InsertSnapshots bulk-inserts snapshot rows with conflict-ignore semantics,
// joining each wallet to its continuity "since" timestamp. A retried run
// cannot duplicate committed rows.
func (s *Store) InsertSnapshots(ctx context.Context, epochID string, obs []HolderObservation, asOf int64) error {
	if len(obs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, o := range obs {
		batch.Queue(`
			INSERT INTO snapshots (epoch_id, wallet, balance, holding_since)
			SELECT $1, $2, $3::numeric, COALESCE(h.holding_since, $4)
			FROM (SELECT 1) one
			LEFT JOIN holder_states h ON h.wallet = $2
			ON CONFLICT (epoch_id, wallet) DO NOTHING
		`, epochID, o.Wallet, o.Balance.String(), asOf)
	}
	res := s.Pool.SendBatch(ctx, batch)
	defer res.Close()
	for range obs {
		if _, err := res.Exec(); err != nil {
			return err
		}
	}
	return res.Close()
}

func (s *Store) CountSnapshots(ctx context.Context, epochID string) (int, error) {
	row := s.Pool.QueryRow(ctx, `SELECT COUNT(1) FROM snapshots WHERE epoch_id = $1`, epochID)
	var c int
	if err := row.Scan(&c); err != nil {
		return 0, err
	}
	return c, nil
}

// TopSnapshots returns the top limit rows ordered by holding duration
// descending (older since first), then balance descending, then wallet
// ascending. The wallet tie-break is the deterministic floor for ranking.
func (s *Store) TopSnapshots(ctx context.Context, epochID string, limit int) ([]Snapshot, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT epoch_id, wallet, balance::text, holding_since, created_at
		FROM snapshots WHERE epoch_id = $1
		ORDER BY holding_since ASC, balance DESC, wallet ASC
		LIMIT $2
	`, epochID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Snapshot{}
	for rows.Next() {
		var sn Snapshot
		var bal string
		if err := rows.Scan(&sn.EpochID, &sn.Wallet, &bal, &sn.HoldingSince, &sn.CreatedAt); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(bal)
		if err != nil {
			return nil, err
		}
		sn.Balance = d
		out = append(out, sn)
	}
	return out, rows.Err()
}
