package scanner

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alejandrodnm/cfdalert/internal/application/engine"
	"github.com/alejandrodnm/cfdalert/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func series(n int, start float64) domain.Series {
	bars := make([]domain.Bar, n)
	for i := range bars {
		p := start + float64(i%7)*0.5
		bars[i] = domain.Bar{
			Time:  t0.Add(time.Duration(i) * 15 * time.Minute),
			Open:  p,
			High:  p + 1,
			Low:   p - 1,
			Close: p + 0.25,
		}
	}
	return domain.NewSeries(bars)
}

type fakeSource struct {
	mu     sync.Mutex
	series map[string]domain.Series
	loads  int
}

func (f *fakeSource) Symbols(context.Context) ([]string, error) {
	return []string{"EURUSD", "US30", "XAUUSD"}, nil
}

func (f *fakeSource) LoadSeries(_ context.Context, symbol string) (domain.Series, error) {
	f.mu.Lock()
	f.loads++
	f.mu.Unlock()
	s, ok := f.series[symbol]
	if !ok {
		return domain.Series{}, errors.New("no data")
	}
	return s, nil
}

type fakeNotifier struct {
	calls [][]domain.Signal
}

func (f *fakeNotifier) Notify(_ context.Context, signals []domain.Signal) error {
	f.calls = append(f.calls, signals)
	return nil
}

func newSource() *fakeSource {
	bad := series(30, 50)
	bad.Bars[3].Low = bad.Bars[3].High + 1
	return &fakeSource{series: map[string]domain.Series{
		"XAUUSD": series(120, 2000),
		"EURUSD": bad,
	}}
}

func TestRunOnce_ScoresAndRanks(t *testing.T) {
	src := newSource()
	s := New(Config{Workers: 2}, src, &fakeNotifier{}, engine.New(domain.DefaultThresholds()))

	signals, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	// US30 no tiene datos y se omite; EURUSD falla validación y va al final.
	require.Len(t, signals, 2)
	assert.Equal(t, "XAUUSD", signals[0].Symbol)
	assert.True(t, signals[0].Record.Valid())
	assert.Equal(t, 120, signals[0].Bars)
	assert.InDelta(t, series(120, 2000).LastClose(), signals[0].LastClose, 1e-9)

	assert.Equal(t, "EURUSD", signals[1].Symbol)
	assert.Contains(t, signals[1].Record.Error, "High < Low")
	assert.Equal(t, 3, src.loads)
}

func TestRunOnce_ConfiguredSymbolsOnly(t *testing.T) {
	src := newSource()
	s := New(Config{Symbols: []string{"XAUUSD"}, LoadsPerSecond: 100}, src, &fakeNotifier{}, engine.New(domain.DefaultThresholds()))

	signals, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, 1, src.loads)
}

func TestRun_DryRunNotifiesOnce(t *testing.T) {
	n := &fakeNotifier{}
	s := New(Config{DryRun: true}, newSource(), n, engine.New(domain.DefaultThresholds()))

	require.NoError(t, s.Run(context.Background()))
	require.Len(t, n.calls, 1)
	assert.Len(t, n.calls[0], 2)
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(Config{ScanInterval: time.Hour}, newSource(), &fakeNotifier{}, engine.New(domain.DefaultThresholds()))

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scanner did not stop")
	}
}

func TestEmitNewAlerts_OnlyChangesAreLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	alert := func(sym string, long, short bool) domain.Signal {
		rec := domain.NewScoreRecord()
		rec.AlertLong, rec.AlertShort = long, short
		return domain.Signal{Symbol: sym, Record: rec}
	}
	s := New(Config{}, newSource(), &fakeNotifier{}, engine.New(domain.DefaultThresholds()))

	s.emitNewAlerts("c1", []domain.Signal{alert("XAUUSD", true, false), alert("US30", false, false)})
	assert.Equal(t, 1, strings.Count(buf.String(), "NEW ALERT"))

	buf.Reset()
	s.emitNewAlerts("c2", []domain.Signal{alert("XAUUSD", true, false)})
	assert.NotContains(t, buf.String(), "NEW ALERT")

	buf.Reset()
	s.emitNewAlerts("c3", []domain.Signal{alert("XAUUSD", false, true), alert("US30", true, true)})
	assert.Equal(t, 2, strings.Count(buf.String(), "NEW ALERT"))
	assert.Contains(t, buf.String(), "side=both")
	assert.Equal(t, map[string]string{"XAUUSD": "short", "US30": "both"}, s.previousAlerts)
}

func TestRankSignals(t *testing.T) {
	mk := func(sym string, long, short int, errMsg string) domain.Signal {
		rec := domain.NewScoreRecord()
		rec.LongScore, rec.ShortScore, rec.Bias = long, short, long-short
		rec.Error = errMsg
		return domain.Signal{Symbol: sym, Record: rec}
	}
	ranked := rankSignals([]domain.Signal{
		mk("BAD", 0, 0, "Empty series"),
		mk("FLAT", 2, 2, ""),
		mk("SHORT", 0, 3, ""),
		mk("LONG", 5, 1, ""),
		mk("ALSO_FLAT", 1, 1, ""),
	})

	var order []string
	for _, s := range ranked {
		order = append(order, s.Symbol)
	}
	assert.Equal(t, []string{"LONG", "SHORT", "FLAT", "ALSO_FLAT", "BAD"}, order)
}

func TestRunOnce_DuplicateSymbolsScoredOnce(t *testing.T) {
	src := &fakeSource{series: map[string]domain.Series{
		"XAUUSD": series(120, 2000),
		"US30":   series(40, 30000),
	}}
	cfg := Config{Symbols: []string{"XAUUSD", "US30", "XAUUSD"}, Workers: 3}
	s := New(cfg, src, &fakeNotifier{}, engine.New(domain.DefaultThresholds()))

	signals, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, signals, 2)
	assert.Equal(t, 2, src.loads)

	bySymbol := map[string]domain.Signal{}
	for _, sig := range signals {
		bySymbol[sig.Symbol] = sig
	}
	assert.Equal(t, 120, bySymbol["XAUUSD"].Bars)
	assert.Equal(t, series(120, 2000).LastClose(), bySymbol["XAUUSD"].LastClose)
	assert.Equal(t, 40, bySymbol["US30"].Bars)
}

func TestUniqueSymbols(t *testing.T) {
	assert.Equal(t, []string{"B", "A", "C"}, uniqueSymbols([]string{"B", "A", "B", "C", "A"}))
	assert.Empty(t, uniqueSymbols(nil))
}
