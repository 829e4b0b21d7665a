package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alejandrodnm/cfdalert/config"
	"github.com/alejandrodnm/cfdalert/internal/adapters/notify"
	"github.com/alejandrodnm/cfdalert/internal/adapters/storage"
	"github.com/alejandrodnm/cfdalert/internal/application/engine"
	"github.com/alejandrodnm/cfdalert/internal/application/scanner"
	"github.com/alejandrodnm/cfdalert/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one scan cycle and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full table with per-condition flags (default: compact 1-line)")
	detail := flag.Bool("detail", false, "print condition breakdown for top 3 symbols")
	source := flag.String("source", "", "bar source: csv|sqlite (overrides config)")
	scoreFile := flag.String("score", "", "score a single CSV file and exit")
	asJSON := flag.Bool("json", false, "with -score: print the score record as JSON")
	importDir := flag.String("import", "", "import every CSV in dir into the SQLite bar store and exit")
	exportSym := flag.String("export", "", "write the stored bars of a symbol as CSV to stdout and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *source != "" {
		cfg.Scanner.Source = *source
	}
	config.SetupLogger(cfg.Log, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eng := engine.New(cfg.Thresholds)
	notifier := notify.NewConsole(*table, *detail)

	switch {
	case *scoreFile != "":
		if err := scoreOne(*scoreFile, cfg, eng, notifier, *asJSON); err != nil {
			slog.Error("score failed", "err", err)
			os.Exit(1)
		}
		return
	case *importDir != "":
		if err := importCSV(ctx, *importDir, cfg); err != nil {
			slog.Error("import failed", "err", err)
			os.Exit(1)
		}
		return
	case *exportSym != "":
		if err := exportCSV(ctx, *exportSym, cfg); err != nil {
			slog.Error("export failed", "err", err)
			os.Exit(1)
		}
		return
	}

	slog.Info("cfdalert starting",
		"config", *configPath,
		"interval", cfg.ScanInterval(),
		"source", cfg.Scanner.Source,
		"once", *once,
		"score_threshold", cfg.Thresholds.ScoreThreshold,
	)

	src, closeSrc, err := openSource(cfg)
	if err != nil {
		slog.Error("failed to open bar source", "err", err, "source", cfg.Scanner.Source)
		os.Exit(1)
	}
	defer closeSrc()

	scanCfg := scanner.Config{
		ScanInterval:   cfg.ScanInterval(),
		Symbols:        cfg.Scanner.Symbols,
		NativeMinutes:  cfg.Scanner.NativeMinutes,
		Workers:        cfg.Scanner.Workers,
		LoadsPerSecond: cfg.Scanner.LoadsPerSecond,
		DryRun:         *once,
	}
	s := scanner.New(scanCfg, src, notifier, eng)

	if err := s.Run(ctx); err != nil {
		slog.Error("scanner exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("cfdalert stopped cleanly")
}

// openSource abre la fuente de velas configurada. El cierre es no-op para CSV.
func openSource(cfg *config.Config) (ports.BarSource, func(), error) {
	switch cfg.Scanner.Source {
	case "sqlite":
		store, err := storage.NewSQLiteBarStore(cfg.Storage.DSN, cfg.Retention())
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case "csv":
		return storage.NewCSVSource(cfg.Scanner.DataDir), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown source %q", cfg.Scanner.Source)
}

func scoreOne(path string, cfg *config.Config, eng *engine.Engine, notifier *notify.Console, asJSON bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	s, err := storage.ParseCSV(f)
	if err != nil {
		return err
	}
	rec := eng.Score(s, cfg.Scanner.NativeMinutes)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}
	symbol := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	notifier.PrintRecord(symbol, rec)
	return nil
}
