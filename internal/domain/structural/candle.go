package structural

import (
	"math"

	"github.com/alejandrodnm/cfdalert/internal/domain"
)

// SmallWick indica que las mechas de la vela son pequeñas respecto al cuerpo:
// (range − body) ≤ body × ratio. Una vela sin cuerpo nunca cumple.
func SmallWick(b domain.Bar, ratio float64) bool {
	body := b.Body()
	if body <= 0 {
		return false
	}
	wick := b.Range() - body
	if wick < 0 {
		wick = 0
	}
	return wick <= body*ratio
}

// RollingMeanBody devuelve la media móvil del cuerpo sobre window velas.
// Las posiciones con menos de minPeriods cuerpos disponibles valen NaN.
func RollingMeanBody(s domain.Series, window, minPeriods int) []float64 {
	bodies := s.Bodies()
	out := make([]float64, len(bodies))
	sum := 0.0
	for i, b := range bodies {
		sum += b
		if i >= window {
			sum -= bodies[i-window]
		}
		count := min(i+1, window)
		if count < minPeriods {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(count)
	}
	return out
}

// Positive indica v > 0; NaN no es positivo.
func Positive(v float64) bool {
	return !math.IsNaN(v) && v > 0
}
