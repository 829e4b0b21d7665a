package main

// transfer.go — importación CSV → SQLite y exportación SQLite → CSV.

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alejandrodnm/cfdalert/config"
	"github.com/alejandrodnm/cfdalert/internal/adapters/storage"
	"github.com/alejandrodnm/cfdalert/internal/domain"
	"github.com/alejandrodnm/cfdalert/internal/ports"
)

func importCSV(ctx context.Context, dir string, cfg *config.Config) error {
	store, err := storage.NewSQLiteBarStore(cfg.Storage.DSN, 0)
	if err != nil {
		return err
	}
	defer store.Close()

	imported, err := transfer(ctx, storage.NewCSVSource(dir), store)
	if err != nil {
		return err
	}
	slog.Info("import complete", "imported", imported, "dsn", cfg.Storage.DSN)
	return nil
}

// transfer copia al store cada símbolo de src. Las series sin timestamp o
// inválidas se rechazan por símbolo; devuelve cuántos se guardaron.
func transfer(ctx context.Context, src ports.BarSource, dst ports.BarStore) (int, error) {
	symbols, err := src.Symbols(ctx)
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, sym := range symbols {
		s, err := src.LoadSeries(ctx, sym)
		if err != nil {
			slog.Warn("import: skip symbol", "symbol", sym, "err", err)
			continue
		}
		if !s.Timed {
			slog.Warn("import: skip series without timestamps", "symbol", sym)
			continue
		}
		if msg := domain.ValidateSeries(s); msg != "" {
			slog.Warn("import: skip invalid series", "symbol", sym, "reason", msg)
			continue
		}
		if err := dst.SaveBars(ctx, sym, s.Bars); err != nil {
			return imported, fmt.Errorf("import %s: %w", sym, err)
		}
		slog.Info("imported", "symbol", sym, "bars", s.Len())
		imported++
	}
	return imported, nil
}

func exportCSV(ctx context.Context, symbol string, cfg *config.Config) error {
	store, err := storage.NewSQLiteBarStore(cfg.Storage.DSN, 0)
	if err != nil {
		return err
	}
	defer store.Close()
	return export(ctx, store, symbol, os.Stdout)
}

func export(ctx context.Context, src ports.BarSource, symbol string, w io.Writer) error {
	s, err := src.LoadSeries(ctx, symbol)
	if err != nil {
		return err
	}
	if s.Empty() {
		return fmt.Errorf("no stored bars for %s", symbol)
	}
	return storage.WriteCSV(w, s)
}
