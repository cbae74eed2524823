package chain

import (
	"context"

	"github.com/shopspring/decimal"
)

// TokenAccount is one on-chain token holding decoded to its owner and raw
// balance. A single owner may appear more than once (multiple accounts).
type TokenAccount struct {
	Owner      string
	RawBalance decimal.Decimal
}

// Reader is the read-only chain dependency of the pipeline. It is
// side-effect free and needs no coordination between callers.
type Reader interface {
	// CurrentTime returns the chain clock as unix seconds.
	CurrentTime(ctx context.Context) (int64, error)
	// ListTokenAccounts returns every token holding for mint.
	ListTokenAccounts(ctx context.Context, mint string) ([]TokenAccount, error)
	// GetBalance returns the native balance of an address, in lamports.
	GetBalance(ctx context.Context, address string) (uint64, error)
	// RecentReference returns a recent blockhash for transfer templates.
	RecentReference(ctx context.Context) (string, error)
}
