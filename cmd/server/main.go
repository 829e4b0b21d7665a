package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/cfdalert/config"
	"github.com/alejandrodnm/cfdalert/internal/adapters/httpapi"
	"github.com/alejandrodnm/cfdalert/internal/adapters/storage"
	"github.com/alejandrodnm/cfdalert/internal/application/engine"
	"github.com/alejandrodnm/cfdalert/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	config.SetupLogger(cfg.Log, os.Stdout)

	var src ports.BarSource
	switch cfg.Scanner.Source {
	case "sqlite":
		store, err := storage.NewSQLiteBarStore(cfg.Storage.DSN, cfg.Retention())
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer store.Close()
		src = store
	default:
		src = storage.NewCSVSource(cfg.Scanner.DataDir)
	}

	api := &httpapi.API{Engine: engine.New(cfg.Thresholds), Source: src}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("server shutdown", "err", err)
		}
	}()

	slog.Info("starting API server", "addr", cfg.Server.Addr, "source", cfg.Scanner.Source)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server exited with error", "err", err)
		os.Exit(1)
	}
	slog.Info("server stopped cleanly")
}
