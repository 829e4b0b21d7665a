package overlay

import (
	"math"
	"sort"
	"testing"
	"time"

	"github.com/alejandrodnm/cfdalert/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

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

func TestBuild_FramesPerTimeframe(t *testing.T) {
	base := zigzag(200, 100, 0.25)
	mid, coarse, ok := domain.Views(base, 15)
	require.True(t, ok)

	data := Build(base, mid, coarse, nil, domain.DefaultThresholds())
	require.Contains(t, data, domain.TFBase)
	require.Contains(t, data, domain.TFMid)
	require.Contains(t, data, domain.TFCoarse)

	assert.Nil(t, data[domain.TFMid].Fib)
	assert.Nil(t, data[domain.TFCoarse].Fib)
	assert.Nil(t, data[domain.TFCoarse].ImpulseBars)
	assert.False(t, data[domain.TFMid].SessionBreakoutLong)
}

func TestBuild_SkipsShortAndEmptyViews(t *testing.T) {
	base := zigzag(36, 100, 1)
	data := Build(base, domain.Series{}, domain.NewSeries(base.Bars[32:]), nil, domain.DefaultThresholds())
	assert.Len(t, data, 1)
	assert.Contains(t, data, domain.TFBase)
}

func TestBuild_SwingsAndBlockingLevels(t *testing.T) {
	base := zigzag(36, 100, 1)
	f := Build(base, domain.Series{}, domain.Series{}, nil, domain.DefaultThresholds())[domain.TFBase]
	require.NotNil(t, f)
	require.NotEmpty(t, f.SwingHighs)
	require.NotEmpty(t, f.SwingLows)

	for _, p := range f.SwingHighs {
		assert.Equal(t, base.Bars[p.Index].High, p.Price)
		assert.Equal(t, base.Bars[p.Index].Time, p.Time)
	}
	for _, p := range f.SwingLows {
		assert.Equal(t, base.Bars[p.Index].Low, p.Price)
	}

	assert.LessOrEqual(t, len(f.BlockingHighs), 2)
	assert.LessOrEqual(t, len(f.BlockingLows), 2)
	assert.True(t, sort.IsSorted(sort.Reverse(sort.Float64Slice(f.BlockingHighs))))
	assert.True(t, sort.Float64sAreSorted(f.BlockingLows))

	// En tendencia alcista los bloqueos altos son los últimos swing highs.
	last := f.SwingHighs[len(f.SwingHighs)-1]
	assert.Equal(t, last.Price, f.BlockingHighs[0])
}

func TestBuild_SessionFlagsComeFromRecord(t *testing.T) {
	base := zigzag(200, 100, 0.25)
	mid, coarse, _ := domain.Views(base, 15)

	rec := domain.NewScoreRecord()
	rec.ShortConditions[domain.CondSession] = true

	data := Build(base, mid, coarse, &rec, domain.DefaultThresholds())
	assert.False(t, data[domain.TFMid].SessionBreakoutLong)
	assert.True(t, data[domain.TFMid].SessionBreakoutShort)
}

// zoneBars: 15 velas planas, una vela de impulso alcista y extra velas de
// retroceso.
func zoneBars(extra int) domain.Series {
	bars := make([]domain.Bar, 0, 16+extra)
	for i := 0; i < 15; i++ {
		bars = append(bars, domain.Bar{Open: 100, High: 100.3, Low: 99.9, Close: 100.2})
	}
	bars = append(bars, domain.Bar{Open: 100.2, High: 102.3, Low: 100.1, Close: 102.2})
	c := 102.2
	for i := 0; i < extra; i++ {
		bars = append(bars, domain.Bar{Open: c, High: c + 0.05, Low: c - 0.35, Close: c - 0.3})
		c -= 0.3
	}
	for i := range bars {
		bars[i].Time = t0.Add(time.Duration(i) * 15 * time.Minute)
	}
	return domain.NewSeries(bars)
}

func TestBuild_ZoneMatchesScoredZone(t *testing.T) {
	th := domain.DefaultThresholds()

	f := Build(zoneBars(3), domain.Series{}, domain.Series{}, nil, th)[domain.TFBase]
	require.NotNil(t, f.Zone)
	assert.Equal(t, "demand", f.Zone.Kind)
	assert.Equal(t, t0.Add(15*15*time.Minute), f.Zone.Start)
	assert.Equal(t, 102.3, f.Zone.High)

	// Impulso en la última vela: la condición no lo puntúa, no se dibuja.
	f = Build(zoneBars(0), domain.Series{}, domain.Series{}, nil, th)[domain.TFBase]
	require.NotNil(t, f)
	assert.Nil(t, f.Zone)
}

func TestTopLevels(t *testing.T) {
	highs := []Point{{Price: 3}, {Price: 9}, {Price: 5}}
	lows := []Point{{Price: 4}}
	h, l := topLevels(highs, lows, 2)
	assert.Equal(t, []float64{9, 5}, h)
	assert.Equal(t, []float64{4}, l)

	h, l = topLevels(nil, nil, 2)
	assert.Empty(t, h)
	assert.Empty(t, l)
}
