package store

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EpochDraft              = "draft"
	EpochSnapshotting       = "snapshotting"
	EpochFinalized          = "finalized"
	EpochRankingComputed    = "ranking_computed"
	EpochDistributionDryRun = "distribution_dry_run"
	EpochClaimOpen          = "claim_open"
	EpochClaimClosed        = "claim_closed"
	EpochSettled            = "settled"
)

const (
	ClaimPending   = "pending"
	ClaimCompleted = "completed"
)

type Epoch struct {
	ID          string
	Seq         int64
	StartsAt    int64
	EndsAt      int64
	Status      string
	FinalizedAt *int64
	CreatedAt   time.Time
}

type HolderState struct {
	Wallet       string
	HoldingSince int64
	LastBalance  decimal.Decimal
	UpdatedAt    time.Time
}

// HolderObservation is one aggregated (wallet, balance) seen in a snapshot run.
type HolderObservation struct {
	Wallet  string
	Balance decimal.Decimal
}

type Snapshot struct {
	EpochID      string
	Wallet       string
	Balance      decimal.Decimal
	HoldingSince int64
	CreatedAt    time.Time
}

type Ranking struct {
	EpochID     string
	Wallet      string
	Rank        int
	HoldingDays float64
	Balance     decimal.Decimal
	Weight      float64
	ShareBps    int
	CreatedAt   time.Time
}

type Distribution struct {
	EpochID        string
	Wallet         string
	AmountLamports int64
	CreatedAt      time.Time
}

type Claim struct {
	EpochID        string
	Wallet         string
	AmountLamports int64
	Status         string
	TxRef          *string
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

type JobLock struct {
	LockKey    string
	HolderID   string
	AcquiredAt time.Time
	TxRef      *string
}
