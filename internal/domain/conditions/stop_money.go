package conditions

import (
	"github.com/alejandrodnm/cfdalert/internal/domain"
	"github.com/alejandrodnm/cfdalert/internal/domain/structural"
)

// StopMoney: existe un objetivo de liquidez por delante con espacio válido.
//
// LONG: tendencia +1, doble techo por encima del cierre, 0 < distancia ≤
// ATR×SpaceDistanceATRMult y ningún swing high del lookback por encima del objetivo.
// SHORT: tendencia −1, doble suelo por debajo, mismo espacio, ningún swing low
// por debajo. El bloqueo solo mira swings del mismo tipo que el objetivo.
func StopMoney(s domain.Series, t domain.Thresholds) domain.Outcome {
	var out domain.Outcome
	if !minLen(s, liquidityMinBars) {
		return out
	}
	lookback := t.DoubleLookback
	state := structural.TrendState(s, min(lookback, s.Len()-1), t.SwingLeft, t.SwingRight)
	if state == 0 {
		return out
	}

	atr, ok := structural.ATR(s, t.ATRPeriod)
	if !ok || atr <= 0 {
		return out
	}
	maxDistance := atr * t.SpaceDistanceATRMult

	target, ok := LiquidityTarget(s, state, t)
	if !ok {
		return out
	}
	current := s.LastClose()

	if state == 1 {
		distance := target - current
		if distance <= 0 || distance > maxDistance || blockedAbove(s, target, t) {
			return out
		}
		out.Long = true
		return out
	}

	distance := current - target
	if distance <= 0 || distance > maxDistance || blockedBelow(s, target, t) {
		return out
	}
	out.Short = true
	return out
}

// LiquidityTarget devuelve el nivel del doble techo por encima del cierre
// (state +1) o del doble suelo por debajo (state −1).
func LiquidityTarget(s domain.Series, state int, t domain.Thresholds) (float64, bool) {
	current := s.LastClose()
	switch state {
	case 1:
		c, ok := structural.DoubleTop(s, t.DoubleTolerancePct, t.DoubleLookback, t.SwingLeft, t.SwingRight)
		if ok && c.Level > current {
			return c.Level, true
		}
	case -1:
		c, ok := structural.DoubleBottom(s, t.DoubleTolerancePct, t.DoubleLookback, t.SwingLeft, t.SwingRight)
		if ok && c.Level < current {
			return c.Level, true
		}
	}
	return 0, false
}

func blockedAbove(s domain.Series, target float64, t domain.Thresholds) bool {
	idx := structural.InLookback(structural.SwingHighs(s, t.SwingLeft, t.SwingRight), s.Len(), t.DoubleLookback)
	for _, i := range idx {
		if s.Bars[i].High > target {
			return true
		}
	}
	return false
}

func blockedBelow(s domain.Series, target float64, t domain.Thresholds) bool {
	idx := structural.InLookback(structural.SwingLows(s, t.SwingLeft, t.SwingRight), s.Len(), t.DoubleLookback)
	for _, i := range idx {
		if s.Bars[i].Low < target {
			return true
		}
	}
	return false
}
