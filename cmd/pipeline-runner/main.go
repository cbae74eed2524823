// pipeline-runner drives one pipeline stage and exits, so an external
// scheduler (cron, systemd timers) can own the cadence. Exit code 0 covers
// both applied and skipped outcomes; schedulers retry on the next tick
// either way.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"holder-rewards/internal/chain"
	"holder-rewards/internal/config"
	"holder-rewards/internal/funds"
	"holder-rewards/internal/logging"
	"holder-rewards/internal/pipeline"
	"holder-rewards/internal/store"
	"holder-rewards/migrations"

	"github.com/rs/zerolog/log"
)

func main() {
	stage := flag.String("stage", "", "stage to run: snapshot | ranking | distribution | payout-dry-run | open-claims | close-claims | settle | sweep")
	seq := flag.Int64("seq", -1, "epoch sequence (stages other than snapshot; -1 means latest eligible)")
	wallet := flag.String("wallet", "", "source wallet (sweep)")
	timeout := flag.Duration("timeout", 10*time.Minute, "stage deadline")
	flag.Parse()

	if *stage == "" {
		flag.Usage()
		os.Exit(2)
	}

	app, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(app.Log)
	cfg := app.Server

	st, err := store.New(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := st.Migrate(ctx, migrations.Init); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	reader := chain.NewRPCReader(cfg.RPCURL)
	mover := funds.NewCustodyMover(cfg.CustodyURL, cfg.CustodyAPIKey)
	pl := pipeline.New(st, reader, mover, app.Pipeline)

	var optSeq *int64
	if *seq >= 0 {
		optSeq = seq
	}

	var res pipeline.Result
	switch *stage {
	case "snapshot":
		res = pl.RunSnapshot(ctx)
	case "ranking":
		res = pl.RunRanking(ctx, optSeq)
	case "distribution":
		res = pl.RunDistribution(ctx, optSeq)
	case "payout-dry-run":
		res, _ = pl.RunPayoutDryRun(ctx, optSeq, false)
	case "open-claims":
		res = requireSeq(optSeq, func(s int64) pipeline.Result { return pl.OpenClaims(ctx, s) })
	case "close-claims":
		res = requireSeq(optSeq, func(s int64) pipeline.Result { return pl.CloseClaims(ctx, s) })
	case "settle":
		res = requireSeq(optSeq, func(s int64) pipeline.Result { return pl.Settle(ctx, s) })
	case "sweep":
		src := *wallet
		if src == "" {
			src = app.Pipeline.RewardSourceWallet
		}
		res = pl.RunSweep(ctx, src)
	default:
		fmt.Fprintf(os.Stderr, "unknown stage %q\n", *stage)
		os.Exit(2)
	}

	if res.Status == pipeline.StatusFailed {
		log.Error().Str("stage", *stage).Err(res.Err).Msg("stage failed")
		os.Exit(1)
	}
	ev := log.Info().Str("stage", *stage).Str("result", string(res.Status))
	if res.EpochID != "" {
		ev = ev.Str("epoch_id", res.EpochID).Int64("epoch_seq", res.EpochSeq)
	}
	if res.Rows > 0 {
		ev = ev.Int64("rows", res.Rows)
	}
	if res.Status == pipeline.StatusSkipped {
		ev = ev.Str("reason", res.Reason)
	}
	ev.Msg("stage done")
}

func requireSeq(seq *int64, run func(int64) pipeline.Result) pipeline.Result {
	if seq == nil {
		fmt.Fprintln(os.Stderr, "-seq is required for this stage")
		os.Exit(2)
	}
	return run(*seq)
}
