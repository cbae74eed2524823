package config

import "github.com/caarlos0/env/v11"

type PipelineConfig struct {
	Mint string `env:"REWARD_MINT,required,notEmpty"`

	// Reward pool per epoch, in lamports.
	PoolLamports int64 `env:"REWARD_POOL_LAMPORTS" envDefault:"1000000000"`
	TopN         int   `env:"REWARD_TOP_N" envDefault:"100"`

	Alpha float64 `env:"SCORE_ALPHA" envDefault:"0.6"`
	Beta  float64 `env:"SCORE_BETA" envDefault:"0.4"`

	// Eligibility filters.
	MinBalance      int64    `env:"MIN_BALANCE_RAW" envDefault:"1"`
	ExcludedWallets []string `env:"EXCLUDED_WALLETS" envSeparator:","`
	ValidateWallets bool     `env:"VALIDATE_WALLETS" envDefault:"true"`

	// Period windows are PeriodSeconds long, aligned so that boundaries fall
	// on AnchorUnix plus a whole number of periods. The default anchor is
	// Monday 1970-01-05 00:00 UTC, giving Monday-to-Monday weeks.
	PeriodSeconds int64 `env:"PERIOD_SECONDS" envDefault:"604800"`
	AnchorUnix    int64 `env:"PERIOD_ANCHOR_UNIX" envDefault:"345600"`

	// Lock staleness windows, seconds.
	EpochLockMaxAgeSecs int64 `env:"EPOCH_LOCK_MAX_AGE_SECS" envDefault:"60"`
	RunLockMaxAgeSecs   int64 `env:"RUN_LOCK_MAX_AGE_SECS" envDefault:"600"`
	SweepLockMaxAgeSecs int64 `env:"SWEEP_LOCK_MAX_AGE_SECS" envDefault:"300"`

	// Pending claims older than this with no confirmed reference are
	// reapable.
	ClaimStaleSecs int64 `env:"CLAIM_STALE_SECS" envDefault:"900"`

	// Payout source and fee-sweep wallets.
	RewardSourceWallet string `env:"REWARD_SOURCE_WALLET"`
	TreasuryWallet     string `env:"TREASURY_WALLET"`
	// Lamports left behind on a swept wallet to keep it rent-exempt.
	SweepKeepLamports int64 `env:"SWEEP_KEEP_LAMPORTS" envDefault:"2000000"`
}

func LoadPipeline() (PipelineConfig, error) {
	var cfg PipelineConfig
	err := env.Parse(&cfg)
	return cfg, err
}
