package main

import (
	"context"
	"net/http"
	"time"

	"holder-rewards/internal/chain"
	"holder-rewards/internal/config"
	"holder-rewards/internal/funds"
	"holder-rewards/internal/logging"
	"holder-rewards/internal/pipeline"
	"holder-rewards/internal/store"
	httptransport "holder-rewards/internal/transport/http"
	"holder-rewards/migrations"

	"github.com/rs/zerolog/log"
)

func main() {
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
	if err := st.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}
	if err := st.Migrate(context.Background(), migrations.Init); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	reader := chain.NewRPCReader(cfg.RPCURL)
	mover := funds.NewCustodyMover(cfg.CustodyURL, cfg.CustodyAPIKey)
	pl := pipeline.New(st, reader, mover, app.Pipeline)

	r := httptransport.NewRouter(st, pl, cfg)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}
