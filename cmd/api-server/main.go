package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/scheduling-engine/internal/api"
	"github.com/clinicdesk/scheduling-engine/internal/appointment"
	"github.com/clinicdesk/scheduling-engine/internal/clinichours"
	"github.com/clinicdesk/scheduling-engine/internal/config"
	"github.com/clinicdesk/scheduling-engine/internal/db"
	"github.com/clinicdesk/scheduling-engine/internal/notify"
	"github.com/clinicdesk/scheduling-engine/internal/patient"
	redisclient "github.com/clinicdesk/scheduling-engine/internal/redis"
)

const version = "0.3.0"

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "api-server").Logger()
	log.Info().Msg("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("configured")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()

	if err := db.EnsureSchema(rootCtx, pgPool); err != nil {
		log.Fatal().Err(err).Msg("schema error")
	}
	log.Info().Msg("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	coll := appointment.NewPgCollection(pgPool, func() {
		_ = redisclient.PublishChange(rdb, "appointments")
	})
	store := appointment.NewStore(coll)
	svc := appointment.NewService(store)
	if err := svc.Start(rootCtx); err != nil {
		log.Fatal().Err(err).Msg("initial appointment load failed")
	}

	directory, err := patient.NewPgDirectory(pgPool, 512, log)
	if err != nil {
		log.Fatal().Err(err).Msg("patient directory init failed")
	}

	engine := notify.NewEngine(notify.NewRedisState(rdb), directory)
	engine.Cooldown = cfg.NotifyCooldown
	engine.FeedCap = cfg.FeedCap
	engine.Log = log

	// Other processes announce storage writes; refresh the view so every
	// open client converges without polling.
	go func() {
		for key := range redisclient.WatchChanges(rootCtx, rdb) {
			if key != "appointments" {
				continue
			}
			if err := svc.Refresh(rootCtx); err != nil {
				log.Warn().Err(err).Msg("refresh on change announcement failed")
			}
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Service: svc,
		Store:   store,
		Engine:  engine,
		Gate: clinichours.Gate{
			OpenMinute:  cfg.ClinicOpenMinute,
			CloseMinute: cfg.ClinicCloseMinute,
		},
		PgPool:  pgPool,
		Redis:   rdb,
		Env:     cfg.Env,
		Version: version,
		Log:     log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
