package conditions

import (
	"github.com/alejandrodnm/cfdalert/internal/domain"
	"github.com/alejandrodnm/cfdalert/internal/domain/structural"
)

const (
	zoneMinBars     = 10
	zoneMaxLookback = 30
)

// SupplyDemand es la zona definida por la última vela de impulso.
type SupplyDemand struct {
	Index  int
	High   float64
	Low    float64
	Demand bool // impulso alcista; false = zona de oferta
}

// FindZone busca, de la vela más nueva a la más antigua dentro de lookback, la
// primera vela de impulso: cuerpo ≥ media×ZoneImpulseBodyRatio y mechas pequeñas.
func FindZone(s domain.Series, lookback int, t domain.Thresholds) (SupplyDemand, bool) {
	n := s.Len()
	bodies := s.Bodies()
	avg := structural.RollingMeanBody(s, t.BodyAvgWindow, bodyAvgMinPeriods)
	for i := n - 1; i > max(n-lookback, 0); i-- {
		if !structural.Positive(avg[i]) || bodies[i] < avg[i]*t.ZoneImpulseBodyRatio {
			continue
		}
		b := s.Bars[i]
		if !structural.SmallWick(b, t.ZoneWickToBodyMax) {
			continue
		}
		return SupplyDemand{Index: i, High: b.High, Low: b.Low, Demand: b.Bullish()}, true
	}
	return SupplyDemand{}, false
}

// ActiveZone devuelve la zona que evalúa Zone: búsqueda en las últimas
// min(30, n−2) velas y vela de impulso distinta de la última.
func ActiveZone(s domain.Series, t domain.Thresholds) (SupplyDemand, bool) {
	if !minLen(s, zoneMinBars) {
		return SupplyDemand{}, false
	}
	n := s.Len()
	z, ok := FindZone(s, min(zoneMaxLookback, n-2), t)
	if !ok || z.Index >= n-1 {
		return SupplyDemand{}, false
	}
	return z, true
}

// Zone: revisita de la zona de oferta/demanda. Long si el impulso fue alcista y
// el cierre actual vuelve a la zona ± tolerancia; short si fue bajista.
// La vela de impulso no puede ser la última.
func Zone(s domain.Series, t domain.Thresholds) domain.Outcome {
	var out domain.Outcome
	z, ok := ActiveZone(s, t)
	if !ok {
		return out
	}

	tol := 0.0
	if span := z.High - z.Low; span > 0 {
		tol = span * t.ZoneRevisitTolerancePct
	}
	current := s.LastClose()
	if current < z.Low-tol || current > z.High+tol {
		return out
	}
	out.Long = z.Demand
	out.Short = !z.Demand
	return out
}
