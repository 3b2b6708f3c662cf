package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sekolahku/poin-api/internal/api"
	"github.com/sekolahku/poin-api/internal/approval"
	"github.com/sekolahku/poin-api/internal/config"
	"github.com/sekolahku/poin-api/internal/db"
	"github.com/sekolahku/poin-api/internal/jobs"
	"github.com/sekolahku/poin-api/internal/logging"
	"github.com/sekolahku/poin-api/internal/notify"
	"github.com/sekolahku/poin-api/internal/observability"
)

var release = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer lg.Closer()
	sugar := lg.Sugar

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, release)
	if err != nil {
		sugar.Warnw("sentry init failed", "err", err)
	}
	defer flush()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalw("db connect failed", "err", err)
	}
	defer func() { _ = database.Close() }()

	if err := db.Migrate(database); err != nil {
		sugar.Fatalw("migrate failed", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.SeedCategories(ctx, database); err != nil {
		sugar.Fatalw("seed failed", "err", err)
	}

	notifier := notify.New(database, sugar)
	engine := approval.NewEngine(database, notifier, sugar)
	server := api.New(cfg, database, engine, sugar)

	runner := jobs.New(ctx, sugar)
	runner.Every(time.Hour, "pending_reminder", jobs.PendingReminder(database, notifier))

	go func() {
		sugar.Infow("http listening", "addr", cfg.HTTPAddr)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("http server failed", "err", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("shutting down")

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shCtx); err != nil {
		sugar.Errorw("shutdown failed", "err", err)
	}
}
