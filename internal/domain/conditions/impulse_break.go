package conditions

import (
	"github.com/alejandrodnm/cfdalert/internal/domain"
	"github.com/alejandrodnm/cfdalert/internal/domain/structural"
)

const (
	impulseMinBars     = 15
	impulseExtremeBars = 3
	bodyAvgMinPeriods  = 3
)

// ImpulseBreak: impulso reciente que rompe estructura previa.
//
// Impulso = las últimas ImpulseCandles velas tienen cuerpo ≥ media×ImpulseBodyRatio
// y mechas pequeñas, o alguna de las últimas 3 tiene cuerpo > media×ImpulseExtremeRatio.
// Long si el último cierre supera el mayor swing high anterior a la ventana del
// impulso; short si queda por debajo del menor swing low anterior.
func ImpulseBreak(s domain.Series, t domain.Thresholds) domain.Outcome {
	var out domain.Outcome
	if !minLen(s, impulseMinBars) {
		return out
	}
	n := s.Len()
	k := min(max(t.ImpulseCandles, 1), n)
	bodies := s.Bodies()
	avg := structural.RollingMeanBody(s, t.BodyAvgWindow, bodyAvgMinPeriods)

	allLarge := true
	for i := n - k; i < n && allLarge; i++ {
		allLarge = bodies[i] >= avg[i]*t.ImpulseBodyRatio &&
			structural.SmallWick(s.Bars[i], t.WickToBodyMax)
	}
	oneExtreme := false
	for i := n - impulseExtremeBars; i < n; i++ {
		if bodies[i] > avg[i]*t.ImpulseExtremeRatio {
			oneExtreme = true
			break
		}
	}
	if !allLarge && !oneExtreme {
		return out
	}

	cutoff := n - k
	last := s.LastClose()

	var priorHigh, priorLow float64
	haveHigh, haveLow := false, false
	for _, i := range structural.SwingHighs(s, t.SwingLeft, t.SwingRight) {
		if i < cutoff && (!haveHigh || s.Bars[i].High > priorHigh) {
			priorHigh, haveHigh = s.Bars[i].High, true
		}
	}
	for _, i := range structural.SwingLows(s, t.SwingLeft, t.SwingRight) {
		if i < cutoff && (!haveLow || s.Bars[i].Low < priorLow) {
			priorLow, haveLow = s.Bars[i].Low, true
		}
	}

	out.Long = haveHigh && last > priorHigh
	out.Short = haveLow && last < priorLow
	return out
}
