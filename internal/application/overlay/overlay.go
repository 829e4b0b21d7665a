// Package overlay reúne las coordenadas que una capa de visualización dibuja
// sobre cada timeframe: swings, niveles de bloqueo, zona, clusters de
// liquidez, objetivo de stop money y niveles fib. No puntúa ni recalcula scores.
package overlay

import (
	"sort"
	"time"

	"github.com/alejandrodnm/cfdalert/internal/domain"
	"github.com/alejandrodnm/cfdalert/internal/domain/conditions"
	"github.com/alejandrodnm/cfdalert/internal/domain/structural"
)

const (
	minFrameBars   = 5
	blockingLevels = 2
	impulseScan    = 15
)

// Point es un swing con su timestamp.
type Point struct {
	Index int       `json:"index"`
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// Zone es la zona de oferta/demanda de un timeframe.
type Zone struct {
	Kind  string    `json:"kind"` // demand | supply
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Cluster es un doble suelo/techo con su banda de retroceso.
type Cluster struct {
	Level    float64 `json:"level"`
	ZoneLow  float64 `json:"zone_low"`
	ZoneHigh float64 `json:"zone_high"`
}

// Target es el objetivo de liquidez de stop money.
type Target struct {
	Direction string  `json:"direction"` // long | short
	Level     float64 `json:"level"`
}

// Frame son los overlays de un timeframe. Los campos de impulso, clusters,
// objetivo y sesión solo se rellenan en 1h; Fib solo en 15m.
type Frame struct {
	SwingHighs    []Point   `json:"swing_highs"`
	SwingLows     []Point   `json:"swing_lows"`
	BlockingHighs []float64 `json:"blocking_highs"`
	BlockingLows  []float64 `json:"blocking_lows"`
	Zone          *Zone     `json:"zone,omitempty"`

	ImpulseBars          []int    `json:"impulse_bars,omitempty"`
	StopHuntDoubleBottom *Cluster `json:"stop_hunt_double_bottom,omitempty"`
	StopHuntDoubleTop    *Cluster `json:"stop_hunt_double_top,omitempty"`
	StopMoneyTarget      *Target  `json:"stop_money_target,omitempty"`
	SessionBreakoutLong  bool     `json:"session_breakout_long"`
	SessionBreakoutShort bool     `json:"session_breakout_short"`

	Fib *conditions.FibLevels `json:"fib,omitempty"`
}

// Data son los overlays indexados por timeframe. Un timeframe ausente o con
// menos de 5 velas no aparece.
type Data map[domain.Timeframe]*Frame

// Build calcula los overlays de base (15m), mid (1h) y coarse (4h).
// mid/coarse vacíos se omiten. rec es opcional y solo aporta los flags de
// ruptura de sesión.
func Build(base, mid, coarse domain.Series, rec *domain.ScoreRecord, t domain.Thresholds) Data {
	out := make(Data, 3)
	for _, v := range []struct {
		tf domain.Timeframe
		s  domain.Series
	}{
		{domain.TFCoarse, coarse},
		{domain.TFMid, mid},
		{domain.TFBase, base},
	} {
		if v.s.Len() < minFrameBars {
			continue
		}
		f := commonFrame(v.s, t)
		switch v.tf {
		case domain.TFMid:
			fillMid(f, v.s, rec, t)
		case domain.TFBase:
			if lv, ok := conditions.Levels(v.s, t); ok {
				f.Fib = &lv
			}
		}
		out[v.tf] = f
	}
	return out
}

func commonFrame(s domain.Series, t domain.Thresholds) *Frame {
	f := &Frame{
		SwingHighs: points(s, structural.SwingHighs(s, t.SwingLeft, t.SwingRight), func(b domain.Bar) float64 { return b.High }),
		SwingLows:  points(s, structural.SwingLows(s, t.SwingLeft, t.SwingRight), func(b domain.Bar) float64 { return b.Low }),
	}
	f.BlockingHighs, f.BlockingLows = topLevels(f.SwingHighs, f.SwingLows, blockingLevels)

	if z, ok := conditions.ActiveZone(s, t); ok {
		kind := "supply"
		if z.Demand {
			kind = "demand"
		}
		f.Zone = &Zone{
			Kind:  kind,
			High:  z.High,
			Low:   z.Low,
			Start: s.Bars[z.Index].Time,
			End:   s.Last().Time,
		}
	}
	return f
}

func fillMid(f *Frame, s domain.Series, rec *domain.ScoreRecord, t domain.Thresholds) {
	lookback := min(t.DoubleLookback, s.Len()-1)
	lt := t
	lt.DoubleLookback = lookback

	f.ImpulseBars = impulseBars(s, t)
	f.StopHuntDoubleBottom = liquidityCluster(s, 1, lt)
	f.StopHuntDoubleTop = liquidityCluster(s, -1, lt)

	state := structural.TrendState(s, lookback, t.SwingLeft, t.SwingRight)
	if level, ok := conditions.LiquidityTarget(s, state, lt); ok {
		dir := "long"
		if state == -1 {
			dir = "short"
		}
		f.StopMoneyTarget = &Target{Direction: dir, Level: level}
	}

	if rec != nil {
		f.SessionBreakoutLong = rec.LongConditions[domain.CondSession]
		f.SessionBreakoutShort = rec.ShortConditions[domain.CondSession]
	}
}

// liquidityCluster devuelve el doble suelo (state +1) o techo (state −1) con la
// banda de retroceso del último tramo.
func liquidityCluster(s domain.Series, state int, t domain.Thresholds) *Cluster {
	var c structural.Cluster
	var ok bool
	if state == 1 {
		c, ok = structural.DoubleBottom(s, t.DoubleTolerancePct, t.DoubleLookback, t.SwingLeft, t.SwingRight)
	} else {
		c, ok = structural.DoubleTop(s, t.DoubleTolerancePct, t.DoubleLookback, t.SwingLeft, t.SwingRight)
	}
	if !ok {
		return nil
	}
	sh, okH := structural.RecentSwingHigh(s, t.DoubleLookback, t.SwingLeft, t.SwingRight)
	sl, okL := structural.RecentSwingLow(s, t.DoubleLookback, t.SwingLeft, t.SwingRight)
	if !okH || !okL || sh <= sl {
		return nil
	}
	low, high := conditions.RetracementZone(sh, sl, state, t)
	return &Cluster{Level: c.Level, ZoneLow: low, ZoneHigh: high}
}

// impulseBars devuelve hasta ImpulseCandles índices de velas de impulso entre
// las últimas 15, de la más nueva a la más antigua.
func impulseBars(s domain.Series, t domain.Thresholds) []int {
	n := s.Len()
	if n < 10 {
		return nil
	}
	bodies := s.Bodies()
	avg := structural.RollingMeanBody(s, t.BodyAvgWindow, 3)
	var out []int
	for i := n - 1; i > max(n-impulseScan, 0) && len(out) < t.ImpulseCandles; i-- {
		if !structural.Positive(avg[i]) {
			continue
		}
		if bodies[i] >= avg[i]*t.ImpulseExtremeRatio ||
			(bodies[i] >= avg[i]*t.ImpulseBodyRatio && structural.SmallWick(s.Bars[i], t.WickToBodyMax)) {
			out = append(out, i)
		}
	}
	return out
}

func points(s domain.Series, idx []int, price func(domain.Bar) float64) []Point {
	out := make([]Point, 0, len(idx))
	for _, i := range idx {
		out = append(out, Point{Index: i, Time: s.Bars[i].Time, Price: price(s.Bars[i])})
	}
	return out
}

// topLevels devuelve los n swing highs más altos y los n swing lows más bajos.
func topLevels(highs, lows []Point, n int) (h, l []float64) {
	for _, p := range highs {
		h = append(h, p.Price)
	}
	for _, p := range lows {
		l = append(l, p.Price)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(h)))
	sort.Float64s(l)
	return h[:min(n, len(h))], l[:min(n, len(l))]
}
