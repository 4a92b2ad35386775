package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/config"
	"github.com/hamed0406/sitewatch/internal/httpapi"
	apimw "github.com/hamed0406/sitewatch/internal/httpapi/middleware"
	"github.com/hamed0406/sitewatch/internal/logging"
	"github.com/hamed0406/sitewatch/internal/monitoring"
	"github.com/hamed0406/sitewatch/internal/notify"
	"github.com/hamed0406/sitewatch/internal/repo"
	"github.com/hamed0406/sitewatch/internal/repo/memory"
	"github.com/hamed0406/sitewatch/internal/repo/postgres"
	"github.com/hamed0406/sitewatch/internal/repo/sqlite"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal(err)
	}
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(logging.Options{Dir: cfg.LogDir, Level: cfg.LogLevel, Console: cfg.LogConsole})
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("api_exit", zap.Error(err))
		log.Fatal(err)
	}
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (repo.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			return nil, multierr.Append(fmt.Errorf("migrate: %w", err), pg.Close())
		}
		return pg, nil
	case config.DriverSQLite:
		path := cfg.DatabaseURL
		if path == "" {
			path = "sitewatch.db"
		}
		return sqlite.New(ctx, path)
	}
	return memory.New(), nil
}

func notifiers(cfg config.Config, logger *zap.Logger) notify.Multi {
	var out notify.Multi
	if s := notify.NewSlack(cfg.SlackWebhookURL); s != nil {
		out = append(out, s)
	}
	tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
	if err != nil {
		logger.Warn("telegram_disabled", zap.Error(err))
	} else if tg != nil {
		out = append(out, tg)
	}
	return out
}

func run(cfg config.Config, logger *zap.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}
	logger.Info("store_open", zap.String("driver", string(cfg.Driver)))

	ctl := monitoring.New(logger, store, store)
	hub := httpapi.NewHub(logger, cfg.AllowedOrigins)
	ctl.Observe(hub.Observe)

	if ns := notifiers(cfg, logger); len(ns) > 0 {
		alerter := notify.NewAlerter(logger, ns, notify.AlerterConfig{
			AlertOnRecovery: cfg.AlertOnRecovery,
			Cooldown:        cfg.AlertCooldown,
		})
		ctl.Observe(alerter.Observe)
		go func() { _ = alerter.Run(ctx) }()
		logger.Info("alerter_started", zap.Int("notifiers", len(ns)))
	}

	if res := ctl.Start(ctx); !res.OK() {
		logger.Warn("controller_start_degraded", zap.String("op", string(res.Op)), zap.Error(res.Err))
	}

	api := httpapi.NewServer(logger, ctl, store, hub)
	keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(keys, cfg.AllowedOrigins, cfg.PublicRPM, cfg.PublicBurst, cfg.AdminRPM, cfg.AdminBurst),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err = <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	case <-ctx.Done():
		logger.Info("api_shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	hub.Close()
	err = multierr.Combine(err, srv.Shutdown(shutdownCtx), ctl.Close(), store.Close())
	return err
}
