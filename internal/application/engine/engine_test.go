package engine

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/alejandrodnm/cfdalert/internal/domain"
	"github.com/alejandrodnm/cfdalert/internal/domain/conditions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

// zigzag genera velas de 15m: sube 4, baja 2.
func zigzag(n int, start, step float64) domain.Series {
	pattern := []float64{1, 1, 1, 1, -1, -1}
	bars := make([]domain.Bar, n)
	c := start
	for i := range bars {
		o := c
		c = o + pattern[i%len(pattern)]*step
		b := domain.Bar{Time: t0.Add(time.Duration(i) * 15 * time.Minute), Open: o, Close: c}
		if c > o {
			b.High, b.Low = c+0.1*math.Abs(step), o
		} else {
			b.High, b.Low = o, c-0.1*math.Abs(step)
		}
		bars[i] = b
	}
	return domain.NewSeries(bars)
}

func assertWellFormed(t *testing.T, r domain.ScoreRecord, threshold int) {
	t.Helper()
	assert.GreaterOrEqual(t, r.LongScore, 0)
	assert.LessOrEqual(t, r.LongScore, 7)
	assert.GreaterOrEqual(t, r.ShortScore, 0)
	assert.LessOrEqual(t, r.ShortScore, 7)
	assert.Equal(t, r.LongScore-r.ShortScore, r.Bias)
	assert.Equal(t, r.LongScore >= threshold, r.AlertLong)
	assert.Equal(t, r.ShortScore >= threshold, r.AlertShort)
	require.Len(t, r.LongConditions, 7)
	require.Len(t, r.ShortConditions, 7)

	longs, shorts := 0, 0
	for _, n := range domain.ConditionNames() {
		if r.LongConditions[n] {
			longs++
		}
		if r.ShortConditions[n] {
			shorts++
		}
	}
	assert.Equal(t, r.LongScore, longs)
	assert.Equal(t, r.ShortScore, shorts)
}

func TestScore_InvariantsAcrossShapes(t *testing.T) {
	th := domain.DefaultThresholds()
	for _, s := range []domain.Series{
		zigzag(36, 100, 1),
		zigzag(200, 100, 0.25),
		zigzag(400, 300, -0.5),
		zigzag(12, 50, 0.1),
	} {
		r := Score(s, 15, th)
		assert.Empty(t, r.Error)
		assertWellFormed(t, r, th.ScoreThreshold)
	}
}

func TestScore_Idempotent(t *testing.T) {
	s := zigzag(200, 100, 0.25)
	e := New(domain.DefaultThresholds())
	assert.Equal(t, e.Score(s, 15), e.Score(s, 15))
	assert.Equal(t, e.Score(s, 15), Score(s, 15, domain.DefaultThresholds()))
}

func TestScore_ThreeBarsIsZeroWithoutError(t *testing.T) {
	r := Score(zigzag(3, 100, 1), 15, domain.DefaultThresholds())
	assert.Empty(t, r.Error)
	assert.Zero(t, r.LongScore)
	assert.Zero(t, r.ShortScore)
	assert.False(t, r.AlertLong)
}

func TestScore_HighBelowLowIsRejected(t *testing.T) {
	s := zigzag(40, 100, 1)
	s.Bars[7].High = s.Bars[7].Low - 1

	r := Score(s, 15, domain.DefaultThresholds())
	assert.Contains(t, r.Error, "High < Low")
	assert.Zero(t, r.LongScore)
	assert.Zero(t, r.ShortScore)
	assert.Zero(t, r.Bias)
	assert.False(t, r.AlertLong)
	assert.False(t, r.AlertShort)
}

func TestScore_NaNIsRejected(t *testing.T) {
	s := zigzag(40, 100, 1)
	s.Bars[20].Close = math.NaN()

	r := Score(s, 15, domain.DefaultThresholds())
	assert.NotEmpty(t, r.Error)
	assert.Zero(t, r.LongScore)
	assert.Zero(t, r.ShortScore)
}

func TestScore_EmptySeries(t *testing.T) {
	r := Score(domain.Series{}, 15, domain.DefaultThresholds())
	assert.Equal(t, "Empty series", r.Error)
}

// risingWithPullback: 33 velas de 15m con cierres siempre crecientes (+0.5) y
// mechas largas periódicas que marcan swings cada 5 velas, seguidas de un único
// retroceso de 2 velas hasta el 40% del último tramo (117.7 → 113.3).
func risingWithPullback() domain.Series {
	bars := make([]domain.Bar, 0, 35)
	c := 100.0
	for i := 0; i < 33; i++ {
		o := c
		c = o + 0.5
		hw, lw := 0.05, 0.05
		if i%5 == 2 {
			hw = 1.2
		}
		if i%5 == 4 {
			lw = 1.2
		}
		bars = append(bars, domain.Bar{Open: o, High: c + hw, Low: o - lw, Close: c})
	}
	for _, next := range []float64{116.2, 115.94} {
		bars = append(bars, domain.Bar{Open: c, High: c, Low: next - 0.05, Close: next})
		c = next
	}
	for i := range bars {
		bars[i].Time = t0.Add(time.Duration(i) * 15 * time.Minute)
	}
	return domain.NewSeries(bars)
}

func TestScore_SyntheticUptrendIsTrendLong(t *testing.T) {
	s := risingWithPullback()
	require.Equal(t, 35, s.Len())

	r := Score(s, 15, domain.DefaultThresholds())
	require.Empty(t, r.Error)
	assert.True(t, r.LongConditions[domain.CondTrend])
	assert.False(t, r.ShortConditions[domain.CondTrend])

	r = Score(zigzag(36, 100, 1), 15, domain.DefaultThresholds())
	assert.True(t, r.LongConditions[domain.CondTrend])
}

func TestScoreWith_ThresholdOnlyMovesAlerts(t *testing.T) {
	s := zigzag(200, 100, 0.25)
	e := New(domain.DefaultThresholds())
	base := e.Score(s, 15)

	th := e.Thresholds()
	th.ScoreThreshold = 0
	r := e.ScoreWith(s, 15, th)
	assert.Equal(t, base.LongScore, r.LongScore)
	assert.Equal(t, base.ShortScore, r.ShortScore)
	assert.True(t, r.AlertLong)
	assert.True(t, r.AlertShort)
	assert.Equal(t, 4, e.Thresholds().ScoreThreshold)
}

func TestDispatchViews(t *testing.T) {
	// 36 velas: 1h tiene 9 (< 10) y 4h tiene 3; todas caen a la base.
	s := zigzag(36, 100, 1)
	v := dispatchViews(s, 15, 10)
	assert.Equal(t, 36, v[domain.TFMid].Len())
	assert.Equal(t, 36, v[domain.TFCoarse].Len())

	// 200 velas: 1h = 50, 4h = 13.
	s = zigzag(200, 100, 0.25)
	v = dispatchViews(s, 15, 10)
	assert.Equal(t, 200, v[domain.TFBase].Len())
	assert.Equal(t, 50, v[domain.TFMid].Len())
	assert.Equal(t, 13, v[domain.TFCoarse].Len())

	// Intervalo nativo distinto de 15m: sin re-muestreo.
	v = dispatchViews(s, 60, 10)
	assert.Equal(t, 200, v[domain.TFMid].Len())
}

func TestEvaluate_NativeZeroUsesDefaultFrequency(t *testing.T) {
	s := zigzag(200, 100, 0.25)
	th := domain.DefaultThresholds()

	results, errMsg := Evaluate(s, 0, th)
	require.Empty(t, errMsg)
	require.Len(t, results, 7)
	assert.Equal(t, domain.TFCoarse, results[0].Timeframe)
	assert.Equal(t, 13, results[0].Bars)
	assert.Equal(t, 200, results[5].Bars)
}

func TestEvaluate_SkipsShortViews(t *testing.T) {
	results, errMsg := Evaluate(zigzag(4, 100, 1), 15, domain.DefaultThresholds())
	require.Empty(t, errMsg)
	for _, r := range results {
		assert.True(t, r.Skipped, r.Name)
		assert.Equal(t, domain.Outcome{}, r.Outcome)
	}
}

func TestEvaluate_FaultIsIsolated(t *testing.T) {
	conds := conditions.All()
	conds[1].Evaluate = func(domain.Series, domain.Thresholds) domain.Outcome {
		panic("index out of range")
	}
	conds[4].Evaluate = func(domain.Series, domain.Thresholds) domain.Outcome {
		return domain.Outcome{Long: true, Short: true}
	}

	th := domain.DefaultThresholds()
	results, errMsg := evaluate(zigzag(60, 100, 0.5), 15, th, conds)
	require.Empty(t, errMsg)
	require.Len(t, results, 7)

	assert.Error(t, results[1].Fault)
	assert.Equal(t, domain.Outcome{}, results[1].Outcome)
	assert.NoError(t, results[4].Fault)

	r := Aggregate(results, th.ScoreThreshold)
	assert.False(t, r.LongConditions[domain.CondImpulseBreak])
	assert.True(t, r.LongConditions[domain.CondZone])
	assert.True(t, r.ShortConditions[domain.CondZone])
	assertWellFormed(t, r, th.ScoreThreshold)
}

func TestAggregate(t *testing.T) {
	results := []Result{
		{Name: domain.CondTrend, Outcome: domain.Outcome{Long: true}},
		{Name: domain.CondImpulseBreak, Outcome: domain.Outcome{Long: true}},
		{Name: domain.CondStopHunt, Outcome: domain.Outcome{Long: true, Short: true}},
		{Name: domain.CondStopMoney, Outcome: domain.Outcome{Long: true}},
		{Name: domain.CondZone},
		{Name: domain.CondFib, Outcome: domain.Outcome{Short: true}},
		{Name: domain.CondSession},
	}
	r := Aggregate(results, 4)
	assert.Equal(t, 4, r.LongScore)
	assert.Equal(t, 2, r.ShortScore)
	assert.Equal(t, 2, r.Bias)
	assert.True(t, r.AlertLong)
	assert.False(t, r.AlertShort)
	assert.Equal(t, "long", r.Direction())
}

func TestScoreBatch_PreservesOrder(t *testing.T) {
	e := New(domain.DefaultThresholds())
	bad := zigzag(30, 100, 1)
	bad.Bars[2].Low = bad.Bars[2].High + 1

	jobs := []Job{
		{Symbol: "A", Series: zigzag(200, 100, 0.25), NativeMinutes: 15},
		{Symbol: "B", Series: bad, NativeMinutes: 15},
		{Symbol: "C", Series: zigzag(36, 100, 1), NativeMinutes: 15},
		{Symbol: "D", Series: zigzag(3, 100, 1), NativeMinutes: 15},
	}
	out := e.ScoreBatch(context.Background(), jobs, 3)
	require.Len(t, out, 4)
	for i, j := range jobs {
		assert.Equal(t, j.Symbol, out[i].Symbol)
		assert.Equal(t, e.Score(j.Series, 15), out[i].Record)
	}
	assert.NotEmpty(t, out[1].Record.Error)
}

func TestScoreBatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := New(domain.DefaultThresholds()).ScoreBatch(ctx, []Job{{Symbol: "A", Series: zigzag(40, 100, 1)}}, 1)
	assert.Empty(t, out)
}
