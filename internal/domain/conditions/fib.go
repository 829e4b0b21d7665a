package conditions

import (
	"math"

	"github.com/alejandrodnm/cfdalert/internal/domain"
	"github.com/alejandrodnm/cfdalert/internal/domain/structural"
)

const (
	fibMinBars       = 20
	fibImpulseSearch = 25
	fibFallbackBars  = 20
)

// FibLevels son los niveles de retroceso de un tramo de impulso, medidos desde
// el high (setup short) y desde el low (setup long).
type FibLevels struct {
	High float64 `json:"high"`
	Low  float64 `json:"low"`

	FromHigh [3]float64 `json:"from_high"` // 0.5, 0.618, 0.88 por debajo del high
	FromLow  [3]float64 `json:"from_low"`  // 0.5, 0.618, 0.88 por encima del low
}

// ImpulseLeg devuelve el high/low del último tramo de impulso: desde la vela más
// reciente (en las últimas 24) con cuerpo ≥ media×ImpulseBodyRatio hasta el final.
// Sin impulso se usan los extremos de las últimas 20 velas.
func ImpulseLeg(s domain.Series, t domain.Thresholds) (high, low float64) {
	n := s.Len()
	bodies := s.Bodies()
	avg := structural.RollingMeanBody(s, t.BodyAvgWindow, bodyAvgMinPeriods)
	for i := n - 1; i > max(n-fibImpulseSearch, 0); i-- {
		if structural.Positive(avg[i]) && bodies[i] >= avg[i]*t.ImpulseBodyRatio {
			return s.MaxHigh(i), s.MinLow(i)
		}
	}
	from := max(n-fibFallbackBars, 0)
	return s.MaxHigh(from), s.MinLow(from)
}

// Levels calcula los niveles fib del último impulso; ok es false si el tramo
// no tiene rango.
func Levels(s domain.Series, t domain.Thresholds) (FibLevels, bool) {
	if s.Empty() {
		return FibLevels{}, false
	}
	high, low := ImpulseLeg(s, t)
	span := high - low
	if span <= 0 {
		return FibLevels{}, false
	}
	ratios := [3]float64{t.FibSecondary, t.FibPrimary, t.FibStopAt88}
	lv := FibLevels{High: high, Low: low}
	for i, r := range ratios {
		lv.FromHigh[i] = high - r*span
		lv.FromLow[i] = low + r*span
	}
	return lv, true
}

// Fib: precio en un nivel de retroceso del último impulso.
//
// Un lado dispara si el cierre está a ≤ tolerancia del 0.618, o del 0.5 con un
// R:R (entrada = cierre, stop = 0.88, objetivo = extremo del impulso) ≥ RRMin.
// El R:R se valida solo aquí.
func Fib(s domain.Series, t domain.Thresholds) domain.Outcome {
	var out domain.Outcome
	if !minLen(s, fibMinBars) {
		return out
	}
	lv, ok := Levels(s, t)
	if !ok {
		return out
	}
	current := s.LastClose()
	tol := (lv.High - lv.Low) * t.FibTolerancePct
	near := func(level float64) bool { return math.Abs(current-level) <= tol }

	// Retroceso bajando desde el high → setup short.
	rrShort, _ := domain.RiskReward(current, lv.FromHigh[2], lv.High, t.RRMin)
	out.Short = near(lv.FromHigh[1]) || (near(lv.FromHigh[0]) && rrShort)

	// Retroceso subiendo desde el low → setup long.
	rrLong, _ := domain.RiskReward(current, lv.FromLow[2], lv.Low, t.RRMin)
	out.Long = near(lv.FromLow[1]) || (near(lv.FromLow[0]) && rrLong)
	return out
}
