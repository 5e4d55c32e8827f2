package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/scheduling-engine/internal/appointment"
	"github.com/clinicdesk/scheduling-engine/internal/config"
	"github.com/clinicdesk/scheduling-engine/internal/db"
	"github.com/clinicdesk/scheduling-engine/internal/remote"
)

// sync-worker drains locally pending appointments to the remote
// clinical-record store. Failures are recorded per entity and retried on the
// next run.
func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "sync-worker").Logger()
	log.Info().Msg("sync-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}
	if cfg.RemoteBaseURL == "" {
		log.Fatal().Msg("REMOTE_BASE_URL is required for the sync worker")
	}

	log.Info().Str("env", cfg.Env).Dur("interval", cfg.SyncInterval).Msg("configured")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()

	pusher := &remote.Pusher{
		Store:  appointment.NewStore(appointment.NewPgCollection(pgPool, nil)),
		Client: remote.NewHTTPClient(cfg.RemoteBaseURL, cfg.RemoteToken),
		Log:    log,
	}

	// Run once at startup
	runOnce(rootCtx, pusher, log)

	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping sync worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, pusher, log)
		}
	}
}

func runOnce(ctx context.Context, pusher *remote.Pusher, log zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	start := time.Now()
	synced, err := pusher.Run(runCtx)
	if err != nil {
		log.Error().Err(err).Msg("sync run error")
		return
	}
	log.Info().Int("synced", synced).Dur("took", time.Since(start)).Msg("sync run complete")
}
