// Package structural contiene las primitivas estructurales sin estado que usan
// las condiciones: swings, profundidad de retroceso, dirección dominante,
// ATR y geometría de vela. Todas operan sobre una única domain.Series.
package structural

import "github.com/alejandrodnm/cfdalert/internal/domain"

// SwingHighs devuelve los índices i (left ≤ i < n−right) cuyo high no es superado
// por las left velas anteriores ni por las right posteriores. Los empates
// confirman el swing.
func SwingHighs(s domain.Series, left, right int) []int {
	return swings(s, left, right, func(pivot, other domain.Bar) bool { return other.High <= pivot.High })
}

// SwingLows es el simétrico de SwingHighs sobre los lows.
func SwingLows(s domain.Series, left, right int) []int {
	return swings(s, left, right, func(pivot, other domain.Bar) bool { return other.Low >= pivot.Low })
}

func swings(s domain.Series, left, right int, holds func(pivot, other domain.Bar) bool) []int {
	n := s.Len()
	if n < left+right+1 {
		return nil
	}
	var idx []int
	for i := left; i < n-right; i++ {
		ok := true
		for j := 1; j <= left && ok; j++ {
			ok = holds(s.Bars[i], s.Bars[i-j])
		}
		for j := 1; j <= right && ok; j++ {
			ok = holds(s.Bars[i], s.Bars[i+j])
		}
		if ok {
			idx = append(idx, i)
		}
	}
	return idx
}

// InLookback filtra los índices que caen en las últimas lookback velas de una
// serie de longitud n.
func InLookback(idx []int, n, lookback int) []int {
	out := make([]int, 0, len(idx))
	for _, i := range idx {
		if i >= n-lookback {
			out = append(out, i)
		}
	}
	return out
}

// RecentSwingHigh devuelve el precio del swing high más reciente dentro de las
// últimas lookback velas.
func RecentSwingHigh(s domain.Series, lookback, left, right int) (float64, bool) {
	in := InLookback(SwingHighs(s, left, right), s.Len(), lookback)
	if len(in) == 0 {
		return 0, false
	}
	return s.Bars[in[len(in)-1]].High, true
}

// RecentSwingLow devuelve el precio del swing low más reciente dentro de las
// últimas lookback velas.
func RecentSwingLow(s domain.Series, lookback, left, right int) (float64, bool) {
	in := InLookback(SwingLows(s, left, right), s.Len(), lookback)
	if len(in) == 0 {
		return 0, false
	}
	return s.Bars[in[len(in)-1]].Low, true
}
