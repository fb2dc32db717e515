package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"blogsmith/internal/credits"
	"blogsmith/internal/di"
	"blogsmith/internal/http/handlers"
	httpapi "blogsmith/internal/http/httpapi"
	"blogsmith/internal/infra"
	"blogsmith/internal/jobstore"
	"blogsmith/internal/pipeline"
	"blogsmith/internal/validate"
)

// jobDrainTimeout bounds how long shutdown waits for running generations.
const jobDrainTimeout = 30 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backends, err := di.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect backends")
	}
	defer backends.Close()

	rawStore, err := backends.JobStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("job_store", cfg.JobStore).Msg("failed to open job store")
	}
	store := jobstore.NewPruning(rawStore, cfg.JobPruneGrace, logger)
	defer store.Close()

	jobs, err := backends.Pipeline(ctx, cfg, store, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure generation pipeline")
	}

	users, payments := backends.Repositories(cfg)
	gate := credits.NewService(users, logger)
	janitor := pipeline.NewJanitor(rawStore, cfg.JobStaleAfter, logger)

	app := &handlers.App{
		Jobs:            jobs,
		Credits:         gate,
		Janitor:         janitor,
		Validator:       validate.New(),
		Logger:          logger,
		CreditsRequired: cfg.CreditsRequired,
	}
	paymentSvc, err := di.Payments(cfg, payments, gate, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure payments")
	}
	if paymentSvc != nil {
		app.Payments = paymentSvc
	} else {
		logger.Warn().Msg("payments disabled: RAZORPAY_KEY_ID not set")
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:             logger,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMin,
	})
	server := infra.NewHTTPServer(cfg, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("job_store", cfg.JobStore).Str("credit_store", cfg.CreditStore).Msgf("API listening on :%s", cfg.Port)
		return server.Run(gctx, nil)
	})
	g.Go(func() error {
		return janitor.Run(gctx, cfg.JanitorInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("server stopped with error")
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), jobDrainTimeout)
	defer cancel()
	if err := jobs.Shutdown(drainCtx); err != nil {
		logger.Warn().Err(err).Msg("in-flight jobs did not finish before shutdown")
	}
	logger.Info().Msg("server stopped")
}
