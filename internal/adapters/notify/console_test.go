package notify_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/cfdalert/internal/adapters/notify"
	"github.com/alejandrodnm/cfdalert/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSignal(symbol string, long, short []string, threshold int) domain.Signal {
	rec := domain.NewScoreRecord()
	for _, n := range long {
		rec.LongConditions[n] = true
	}
	for _, n := range short {
		rec.ShortConditions[n] = true
	}
	rec.LongScore = len(long)
	rec.ShortScore = len(short)
	rec.Bias = rec.LongScore - rec.ShortScore
	rec.AlertLong = rec.LongScore >= threshold
	rec.AlertShort = rec.ShortScore >= threshold
	return domain.Signal{
		Symbol:    symbol,
		ScannedAt: time.Now(),
		Bars:      200,
		LastClose: 2034.5,
		Record:    rec,
	}
}

func sampleSignals() []domain.Signal {
	gold := makeSignal("XAUUSD",
		[]string{domain.CondTrend, domain.CondImpulseBreak, domain.CondZone, domain.CondFib},
		[]string{domain.CondSession}, 4)
	dow := makeSignal("US30", nil, []string{domain.CondStopMoney}, 4)
	bad := domain.Signal{Symbol: "BROKEN", Record: domain.FailedScoreRecord("Data validation failed: High < Low in some rows")}
	return []domain.Signal{gold, dow, bad}
}

func TestConsole_Notify_Compact(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false, false)

	require.NoError(t, n.Notify(context.Background(), sampleSignals()))

	out := buf.String()
	assert.Contains(t, out, "3 symbols → L:1 S:0 err:1")
	assert.Contains(t, out, "XAUUSD 4/1 +3 !LONG")
	assert.Contains(t, out, "US30 0/1 -1")
	assert.NotContains(t, out, "BROKEN")
}

func TestConsole_Notify_Table(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true, false)

	require.NoError(t, n.Notify(context.Background(), sampleSignals()))

	out := buf.String()
	assert.Contains(t, out, "XAUUSD")
	assert.Contains(t, out, "BROKEN")
	assert.Contains(t, out, "ERR")
	assert.Contains(t, out, "LONG")
	assert.Contains(t, out, "TR=trend")
}

func TestConsole_Notify_Detail(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false, true)

	require.NoError(t, n.Notify(context.Background(), sampleSignals()))

	out := buf.String()
	assert.Contains(t, out, "=== DETAIL ===")
	assert.Contains(t, out, "#1: XAUUSD  [long]")
	assert.Contains(t, out, "error: Data validation failed: High < Low in some rows")
}

func TestConsole_Notify_EmptyList(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true, false)

	require.NoError(t, n.Notify(context.Background(), nil))
	assert.Contains(t, buf.String(), "no symbols scored")
}

func TestConsole_PrintRecord(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false, false)

	n.PrintRecord("XAUUSD", sampleSignals()[0].Record)
	out := buf.String()
	assert.Contains(t, out, "impulse_break")
	assert.Contains(t, out, "XAUUSD: long 4 short 1 bias +3 alert_long=true alert_short=false")

	buf.Reset()
	n.PrintRecord("BAD", domain.FailedScoreRecord("Empty series"))
	assert.Equal(t, "BAD: error: Empty series\n", buf.String())
}
