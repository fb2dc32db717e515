// Command worker runs the job janitor against the configured job store,
// either once or on an interval.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"blogsmith/internal/di"
	"blogsmith/internal/infra"
	"blogsmith/internal/pipeline"
)

func main() {
	var (
		typeFlag     string
		dryRunFlag   bool
		statsFlag    bool
		loopFlag     bool
		intervalFlag time.Duration
	)
	flag.StringVar(&typeFlag, "type", string(pipeline.CleanupOld), "cleanup type: all (stale jobs of any status) or status")
	flag.BoolVar(&dryRunFlag, "dry-run", false, "report what would be deleted without deleting")
	flag.BoolVar(&statsFlag, "stats", false, "print job statistics and exit")
	flag.BoolVar(&loopFlag, "loop", false, "keep running a status cleanup every -interval")
	flag.DurationVar(&intervalFlag, "interval", 0, "loop interval (defaults to JANITOR_INTERVAL_SECONDS)")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}
	var logger infra.Logger = infra.NewLogger(cfg.AppEnv).With().Str("cmd", "worker").Logger()

	kind := pipeline.CleanupType(typeFlag)
	if kind != pipeline.CleanupOld && kind != pipeline.CleanupByStatus {
		exitWithError(fmt.Errorf("unsupported cleanup type %q", typeFlag))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backends, err := di.Connect(ctx, cfg, logger)
	if err != nil {
		exitWithError(err)
	}
	defer backends.Close()

	store, err := backends.JobStore(ctx, cfg)
	if err != nil {
		exitWithError(err)
	}
	if cfg.JobStore == infra.StoreMemory {
		logger.Warn().Msg("JOB_STORE=memory: this process sees only its own jobs")
	}
	janitor := pipeline.NewJanitor(store, cfg.JobStaleAfter, logger)

	switch {
	case statsFlag:
		stats, err := janitor.Stats(ctx)
		if err != nil {
			exitWithError(err)
		}
		printJSON(stats)
	case loopFlag:
		interval := intervalFlag
		if interval <= 0 {
			interval = cfg.JanitorInterval
		}
		if err := janitor.Run(ctx, interval); err != nil && !errors.Is(err, context.Canceled) {
			exitWithError(err)
		}
		logger.Info().Msg("worker: stopped")
	default:
		result, err := janitor.Cleanup(ctx, kind, dryRunFlag)
		if err != nil {
			exitWithError(err)
		}
		printJSON(result)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
