package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/alejandrodnm/cfdalert/internal/application/engine"
	"github.com/alejandrodnm/cfdalert/internal/domain"
	"github.com/alejandrodnm/cfdalert/internal/ports"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Config contiene la configuración del scanner.
type Config struct {
	ScanInterval   time.Duration
	Symbols        []string // vacío = todos los de la fuente
	NativeMinutes  int      // 0 = Thresholds.ResampleFreqMinutes
	Workers        int      // goroutines de carga y scoring (0 = NumCPU)
	LoadsPerSecond float64  // 0 = sin límite
	DryRun         bool
}

// Scanner es el orquestador del loop de escaneo.
type Scanner struct {
	cfg            Config
	source         ports.BarSource
	notifier       ports.Notifier
	engine         *engine.Engine
	limiter        *rate.Limiter
	previousAlerts map[string]string // símbolo → lado de alerta del ciclo anterior
}

// New crea un Scanner con todas las dependencias inyectadas.
func New(cfg Config, source ports.BarSource, notifier ports.Notifier, eng *engine.Engine) *Scanner {
	var limiter *rate.Limiter
	if cfg.LoadsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.LoadsPerSecond), max(1, int(cfg.LoadsPerSecond)))
	}
	return &Scanner{
		cfg:            cfg,
		source:         source,
		notifier:       notifier,
		engine:         eng,
		limiter:        limiter,
		previousAlerts: make(map[string]string),
	}
}

// Run ejecuta el loop de escaneo hasta que el contexto se cancele.
// Si cfg.DryRun está activo, solo ejecuta un ciclo.
func (s *Scanner) Run(ctx context.Context) error {
	slog.Info("scanner starting",
		"interval", s.cfg.ScanInterval,
		"dry_run", s.cfg.DryRun,
		"workers", s.cfg.Workers,
		"symbols", len(s.cfg.Symbols),
	)

	if err := s.runCycle(ctx); err != nil {
		slog.Error("scan cycle failed", "err", err)
		if s.cfg.DryRun {
			return err
		}
	}

	if s.cfg.DryRun {
		return nil
	}

	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scanner stopped")
			return nil
		case <-ticker.C:
			if err := s.runCycle(ctx); err != nil {
				slog.Error("scan cycle failed", "err", err)
			}
		}
	}
}

// RunOnce ejecuta exactamente un ciclo y devuelve las señales ordenadas.
func (s *Scanner) RunOnce(ctx context.Context) ([]domain.Signal, error) {
	return s.cycle(ctx, uuid.New().String())
}

// runCycle ejecuta un ciclo completo, emite alertas nuevas y notifica.
func (s *Scanner) runCycle(ctx context.Context) error {
	start := time.Now()
	cycleID := uuid.New().String()

	signals, err := s.cycle(ctx, cycleID)
	if err != nil {
		return err
	}

	s.emitNewAlerts(cycleID, signals)

	if err := s.notifier.Notify(ctx, signals); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	longs, shorts := countAlerts(signals)
	slog.Info("scan cycle complete",
		"cycle", cycleID,
		"symbols", len(signals),
		"alert_long", longs,
		"alert_short", shorts,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// cycle hace load → score concurrente → rank.
func (s *Scanner) cycle(ctx context.Context, cycleID string) ([]domain.Signal, error) {
	symbols := s.cfg.Symbols
	if len(symbols) == 0 {
		var err error
		symbols, err = s.source.Symbols(ctx)
		if err != nil {
			return nil, fmt.Errorf("scanner.cycle: list symbols: %w", err)
		}
	}
	symbols = uniqueSymbols(symbols)
	if len(symbols) == 0 {
		return nil, nil
	}

	series := loadSeriesConcurrent(ctx, s.source, s.limiter, symbols, s.cfg.Workers)

	jobs := make([]engine.Job, 0, len(series))
	for _, l := range series {
		if l.err != nil {
			slog.Warn("symbol skipped", "cycle", cycleID, "symbol", l.symbol, "err", l.err)
			continue
		}
		jobs = append(jobs, engine.Job{Symbol: l.symbol, Series: l.series, NativeMinutes: s.cfg.NativeMinutes})
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scanner.cycle: %w", err)
	}

	results := s.engine.ScoreBatch(ctx, jobs, s.cfg.Workers)

	now := time.Now().UTC()
	byJob := make(map[string]engine.Job, len(jobs))
	for _, j := range jobs {
		byJob[j.Symbol] = j
	}
	signals := make([]domain.Signal, 0, len(results))
	for _, r := range results {
		j := byJob[r.Symbol]
		sig := domain.Signal{
			Symbol:    r.Symbol,
			ScannedAt: now,
			Bars:      j.Series.Len(),
			Record:    r.Record,
		}
		if !j.Series.Empty() {
			sig.LastClose = j.Series.LastClose()
		}
		if !r.Record.Valid() {
			slog.Debug("symbol not scored", "cycle", cycleID, "symbol", r.Symbol, "reason", r.Record.Error)
		}
		signals = append(signals, sig)
	}

	return rankSignals(signals), nil
}

// emitNewAlerts registra un warning por cada alerta que no estaba activa en el
// ciclo anterior con el mismo lado.
func (s *Scanner) emitNewAlerts(cycleID string, signals []domain.Signal) {
	current := make(map[string]string, len(signals))

	for _, sig := range signals {
		side := sig.AlertSide()
		if side == "" {
			continue
		}
		current[sig.Symbol] = side

		if s.previousAlerts[sig.Symbol] == side {
			continue
		}

		slog.Warn("NEW ALERT",
			"cycle", cycleID,
			"symbol", sig.Symbol,
			"side", side,
			"long_score", sig.Record.LongScore,
			"short_score", sig.Record.ShortScore,
			"bias", sig.Record.Bias,
			"close", fmt.Sprintf("%.5g", sig.LastClose),
		)
	}

	s.previousAlerts = current
}

// rankSignals ordena: registros válidos primero, luego |bias| descendente,
// luego score máximo descendente y por último símbolo.
func rankSignals(signals []domain.Signal) []domain.Signal {
	sort.SliceStable(signals, func(i, j int) bool {
		a, b := signals[i].Record, signals[j].Record
		if a.Valid() != b.Valid() {
			return a.Valid()
		}
		if abs(a.Bias) != abs(b.Bias) {
			return abs(a.Bias) > abs(b.Bias)
		}
		if ma, mb := max(a.LongScore, a.ShortScore), max(b.LongScore, b.ShortScore); ma != mb {
			return ma > mb
		}
		return signals[i].Symbol < signals[j].Symbol
	})
	return signals
}

// uniqueSymbols quita duplicados conservando el orden de primera aparición.
// Los resultados se asocian a su serie por símbolo.
func uniqueSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if seen[sym] {
			slog.Debug("duplicate symbol ignored", "symbol", sym)
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out
}

func countAlerts(signals []domain.Signal) (longs, shorts int) {
	for _, s := range signals {
		if s.Record.AlertLong {
			longs++
		}
		if s.Record.AlertShort {
			shorts++
		}
	}
	return
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
