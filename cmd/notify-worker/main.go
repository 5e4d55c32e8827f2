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
	"github.com/clinicdesk/scheduling-engine/internal/notify"
	"github.com/clinicdesk/scheduling-engine/internal/patient"
	redisclient "github.com/clinicdesk/scheduling-engine/internal/redis"
)

// notify-worker periodically diffs the appointment set against every viewer's
// stored snapshot, so feeds stay current even while no client is polling.
func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "notify-worker").Logger()
	log.Info().Msg("notify-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	log.Info().Str("env", cfg.Env).Dur("interval", cfg.NotifyInterval).Msg("configured")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing redis")
		}
	}()

	store := appointment.NewStore(appointment.NewPgCollection(pgPool, nil))

	directory, err := patient.NewPgDirectory(pgPool, 512, log)
	if err != nil {
		log.Fatal().Err(err).Msg("patient directory init failed")
	}

	engine := notify.NewEngine(notify.NewRedisState(rdb), directory)
	engine.Cooldown = cfg.NotifyCooldown
	engine.FeedCap = cfg.FeedCap
	engine.Log = log

	// Run once at startup
	runOnce(rootCtx, store, engine, log)

	ticker := time.NewTicker(cfg.NotifyInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping notify worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, store, engine, log)
		}
	}
}

func runOnce(ctx context.Context, store *appointment.Store, engine *notify.Engine, log zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()

	appts, dropped, err := store.ListAll(runCtx)
	if err != nil {
		log.Error().Err(err).Msg("load appointments failed")
		return
	}
	if dropped > 0 {
		log.Warn().Int("dropped", dropped).Msg("malformed appointment records skipped")
	}

	emitted := 0
	for _, scope := range viewerScopes(appts) {
		out, err := engine.ComputeAndStore(runCtx, scope, appts)
		if err != nil {
			log.Error().Str("scope", scope.Key()).Err(err).Msg("diff run failed")
			continue
		}
		emitted += len(out)
	}

	log.Info().
		Int("appointments", len(appts)).
		Int("emitted", emitted).
		Dur("took", time.Since(start)).
		Msg("diff run complete")
}

// viewerScopes is the admin plus every therapist present in the data.
func viewerScopes(appts []appointment.Appointment) []notify.Scope {
	scopes := []notify.Scope{notify.AdminScope()}
	seen := make(map[string]struct{})
	for _, a := range appts {
		id := appointment.NormalizeTherapistID(a.TherapistID)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		scopes = append(scopes, notify.TherapistScope(id))
	}
	return scopes
}
