package conditions

import (
	"math"
	"time"

	"github.com/alejandrodnm/cfdalert/internal/domain"
	"github.com/alejandrodnm/cfdalert/internal/domain/structural"
)

const (
	sessionMinBars     = 24
	sessionDirLookback = 30
	sessionBodyWindow  = 20
)

// SessionHour devuelve la hora local de mercado (UTC + offset) de una vela.
func SessionHour(ts time.Time, offsetHours int) int {
	loc := time.FixedZone("market", offsetHours*3600)
	return ts.In(loc).Hour()
}

// AsiaRange devuelve el high/low de las velas dentro de la franja Asia.
func AsiaRange(s domain.Series, t domain.Thresholds) (high, low float64, ok bool) {
	high, low = math.Inf(-1), math.Inf(1)
	for _, b := range s.Bars {
		if t.SessionAsia.Contains(SessionHour(b.Time, t.SessionUTCOffsetHours)) {
			high = math.Max(high, b.High)
			low = math.Min(low, b.Low)
			ok = true
		}
	}
	return high, low, ok
}

// Session: ruptura del rango asiático durante la sesión EU o US.
//
// Requiere índice temporal y ≥24 velas. Long si el cierre supera el high de
// Asia, short si pierde el low. Se suprime si un movimiento fuerte (suma de
// cuerpos de las últimas velas > media × SessionMomentumRatio) rompe en contra
// de la dirección dominante.
func Session(s domain.Series, t domain.Thresholds) domain.Outcome {
	var out domain.Outcome
	if !minLen(s, sessionMinBars) || !s.Timed {
		return out
	}
	n := s.Len()
	lastHour := SessionHour(s.Last().Time, t.SessionUTCOffsetHours)
	if !t.SessionEU.Contains(lastHour) && !t.SessionUS.Contains(lastHour) {
		return out
	}

	asiaHigh, asiaLow, ok := AsiaRange(s, t)
	if !ok || asiaHigh-asiaLow <= 0 {
		return out
	}

	dir := structural.DominantDirection(s, min(sessionDirLookback, n-1), t.SwingLeft, t.SwingRight)
	if dir == structural.DirNone {
		return out
	}

	current := s.LastClose()
	breakUp := current > asiaHigh
	breakDown := current < asiaLow

	against := (dir == structural.DirUp && breakDown) || (dir == structural.DirDown && breakUp)
	if against && strongMove(s, t) {
		return out
	}
	out.Long = breakUp
	out.Short = breakDown
	return out
}

// strongMove compara la suma de cuerpos de las últimas k velas con la suma de
// la media móvil de 20 cuerpos en las k posiciones anteriores a la última.
// Las medias aún no definidas no suman.
func strongMove(s domain.Series, t domain.Thresholds) bool {
	n := s.Len()
	k := min(max(t.SessionMomentumBars, 1), n-1)
	bodies := s.Bodies()
	avg := structural.RollingMeanBody(s, sessionBodyWindow, sessionBodyWindow)

	recent := 0.0
	for _, b := range bodies[n-k:] {
		recent += b
	}
	baseline := 0.0
	for _, a := range avg[n-k-1 : n-1] {
		if !math.IsNaN(a) {
			baseline += a
		}
	}
	return recent > baseline*t.SessionMomentumRatio
}
