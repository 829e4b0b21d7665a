package structural

import (
	"math"

	"github.com/alejandrodnm/cfdalert/internal/domain"
)

// Cluster es un doble techo o doble suelo: dos swings del mismo tipo a menos de
// la tolerancia uno del otro. Level es el extremo del par (máx para techos,
// mín para suelos) e Index el índice del swing más reciente.
type Cluster struct {
	Level float64
	Index int
	First int
}

// DoubleTop busca un doble techo entre los dos swing highs más recientes de las
// últimas lookback velas. La tolerancia es tolPct × el rango de highs de toda
// la serie (1.0 si ese rango es cero).
func DoubleTop(s domain.Series, tolPct float64, lookback, left, right int) (Cluster, bool) {
	in := InLookback(SwingHighs(s, left, right), s.Len(), lookback)
	if len(in) < 2 {
		return Cluster{}, false
	}
	i1, i2 := in[len(in)-2], in[len(in)-1]
	h1, h2 := s.Bars[i1].High, s.Bars[i2].High
	span := s.MaxHigh(0) - minOf(s.Highs())
	if span == 0 {
		span = 1
	}
	if math.Abs(h1-h2) > span*tolPct {
		return Cluster{}, false
	}
	return Cluster{Level: math.Max(h1, h2), Index: i2, First: i1}, true
}

// DoubleBottom es el simétrico de DoubleTop sobre los swing lows.
func DoubleBottom(s domain.Series, tolPct float64, lookback, left, right int) (Cluster, bool) {
	in := InLookback(SwingLows(s, left, right), s.Len(), lookback)
	if len(in) < 2 {
		return Cluster{}, false
	}
	i1, i2 := in[len(in)-2], in[len(in)-1]
	l1, l2 := s.Bars[i1].Low, s.Bars[i2].Low
	span := maxOf(s.Lows()) - s.MinLow(0)
	if span == 0 {
		span = 1
	}
	if math.Abs(l1-l2) > span*tolPct {
		return Cluster{}, false
	}
	return Cluster{Level: math.Min(l1, l2), Index: i2, First: i1}, true
}

func minOf(v []float64) float64 {
	m := math.Inf(1)
	for _, x := range v {
		m = math.Min(m, x)
	}
	return m
}

func maxOf(v []float64) float64 {
	m := math.Inf(-1)
	for _, x := range v {
		m = math.Max(m, x)
	}
	return m
}
