package store

import "context"

// InsertDistributions writes a complete distribution for an epoch in one
// transaction, guarded the same way as InsertRankings.
func (s *Store) InsertDistributions(ctx context.Context, dists []Distribution) error {
	if len(dists) == 0 {
		return nil
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var c int
	if err := tx.QueryRow(ctx, `SELECT COUNT(1) FROM distributions WHERE epoch_id = $1`, dists[0].EpochID).Scan(&c); err != nil {
		return err
	}
	if c > 0 {
		return ErrRowsExist
	}
	for _, d := range dists {
		_, err := tx.Exec(ctx, `
			INSERT INTO distributions (epoch_id, wallet, amount_lamports)
			VALUES ($1, $2, $3)
		`, d.EpochID, d.Wallet, d.AmountLamports)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) ListDistributions(ctx context.Context, epochID string) ([]Distribution, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT epoch_id, wallet, amount_lamports, created_at
		FROM distributions WHERE epoch_id = $1 ORDER BY wallet ASC
	`, epochID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Distribution{}
	for rows.Next() {
		var d Distribution
		if err := rows.Scan(&d.EpochID, &d.Wallet, &d.AmountLamports, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) GetDistribution(ctx context.Context, epochID, wallet string) (*Distribution, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT epoch_id, wallet, amount_lamports, created_at
		FROM distributions WHERE epoch_id = $1 AND wallet = $2
	`, epochID, wallet)
	var d Distribution
	if err := row.Scan(&d.EpochID, &d.Wallet, &d.AmountLamports, &d.CreatedAt); err != nil {
		return nil, mapNoRows(err)
	}
	return &d, nil
}

func (s *Store) CountDistributions(ctx context.Context, epochID string) (int, error) {
	row := s.Pool.QueryRow(ctx, `SELECT COUNT(1) FROM distributions WHERE epoch_id = $1`, epochID)
	var c int
	if err := row.Scan(&c); err != nil {
		return 0, err
	}
	return c, nil
}
