package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// UpsertHolderStates records one observation per wallet. The "holding since"
// timestamp is reset to asOf when the wallet is new, when the observed
// balance is non-positive, or when it is strictly below the previous
// observation; otherwise it is kept. The decrease reset is deliberate
// policy: selling any part of the position restarts the clock.
func (s *Store) UpsertHolderStates(ctx context.Context, obs []HolderObservation, asOf int64) error {
	if len(obs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, o := range obs {
		batch.Queue(`
			INSERT INTO holder_states (wallet, holding_since, last_balance, updated_at)
			VALUES ($1, $2, $3::numeric, now())
			ON CONFLICT (wallet) DO UPDATE SET
				holding_since = CASE
					WHEN EXCLUDED.last_balance <= 0
					  OR EXCLUDED.last_balance < holder_states.last_balance
					THEN $2
					ELSE holder_states.holding_since
				END,
				last_balance = EXCLUDED.last_balance,
				updated_at   = now()
		`, o.Wallet, asOf, o.Balance.String())
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

// SweepNotSeen zeroes every holder row not touched since runStarted: a
// wallet absent from a snapshot run no longer counts as continuously
// holding. Returns the number of rows swept.
func (s *Store) SweepNotSeen(ctx context.Context, runStarted time.Time, asOf int64) (int64, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE holder_states
		SET last_balance = 0, holding_since = $2, updated_at = now()
		WHERE updated_at < $1 AND last_balance > 0
	`, runStarted, asOf)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) GetHolderState(ctx context.Context, wallet string) (*HolderState, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT wallet, holding_since, last_balance::text, updated_at
		FROM holder_states WHERE wallet = $1
	`, wallet)
	var h HolderState
	var bal string
	if err := row.Scan(&h.Wallet, &h.HoldingSince, &bal, &h.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	d, err := decimal.NewFromString(bal)
	if err != nil {
		return nil, err
	}
	h.LastBalance = d
	return &h, nil
}
