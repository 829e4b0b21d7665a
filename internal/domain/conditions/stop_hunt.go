package conditions

import (
	"github.com/alejandrodnm/cfdalert/internal/domain"
	"github.com/alejandrodnm/cfdalert/internal/domain/structural"
)

const liquidityMinBars = 15

// StopHunt: cluster de liquidez dentro de la zona de retroceso, antes del
// despliegue. No exige barrido ni ruptura del cluster.
//
// LONG: tendencia +1, retroceso en [RetraceMinStopHunt, RetraceMaxStopHunt],
// doble suelo en el lookback y precio dentro de la banda de retroceso.
// SHORT: tendencia −1, mismo rango, doble techo, precio en la banda.
func StopHunt(s domain.Series, t domain.Thresholds) domain.Outcome {
	var out domain.Outcome
	if !minLen(s, liquidityMinBars) {
		return out
	}
	lookback := t.DoubleLookback
	state := structural.TrendState(s, min(lookback, s.Len()-1), t.SwingLeft, t.SwingRight)
	if state == 0 {
		return out
	}

	sh, okH := structural.RecentSwingHigh(s, lookback, t.SwingLeft, t.SwingRight)
	sl, okL := structural.RecentSwingLow(s, lookback, t.SwingLeft, t.SwingRight)
	if !okH || !okL {
		return out
	}
	span := sh - sl
	if span <= 0 {
		return out
	}
	current := s.LastClose()

	zone, dir := retracementZone(sh, sl, state, t)
	depth, ok := structural.RetracementDepth(sh, sl, current, dir)
	if !ok || depth < t.RetraceMinStopHunt || depth > t.RetraceMaxStopHunt {
		return out
	}

	var found bool
	if state == 1 {
		_, found = structural.DoubleBottom(s, t.DoubleTolerancePct, lookback, t.SwingLeft, t.SwingRight)
	} else {
		_, found = structural.DoubleTop(s, t.DoubleTolerancePct, lookback, t.SwingLeft, t.SwingRight)
	}
	if !found || current < zone[0] || current > zone[1] {
		return out
	}
	out.Long = state == 1
	out.Short = state == -1
	return out
}

// retracementZone devuelve la banda [bajo, alto] de retroceso del tramo
// (sh, sl) según el estado de tendencia, y la dirección del tramo.
func retracementZone(sh, sl float64, state int, t domain.Thresholds) ([2]float64, structural.Direction) {
	span := sh - sl
	if state == 1 {
		return [2]float64{sh - t.RetraceMaxStopHunt*span, sh - t.RetraceMinStopHunt*span}, structural.DirUp
	}
	return [2]float64{sl + t.RetraceMinStopHunt*span, sl + t.RetraceMaxStopHunt*span}, structural.DirDown
}

// RetracementZone expone la banda de stop hunt para capas de overlay.
func RetracementZone(sh, sl float64, state int, t domain.Thresholds) (low, high float64) {
	z, _ := retracementZone(sh, sl, state, t)
	return z[0], z[1]
}
