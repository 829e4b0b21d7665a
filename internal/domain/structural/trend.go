package structural

import "github.com/alejandrodnm/cfdalert/internal/domain"

// Direction es el sesgo estructural de una serie.
type Direction int

const (
	DirNone Direction = 0
	DirUp   Direction = 1
	DirDown Direction = -1
)

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	default:
		return "none"
	}
}

// RetracementDepth devuelve la fracción del tramo que el precio ha retrocedido.
// Tramo alcista (DirUp): (high − price) / span. Tramo bajista (DirDown):
// (price − low) / span. ok es false si span ≤ 0 o la dirección es DirNone.
// El resultado puede salir de [0,1] si el precio supera el tramo.
func RetracementDepth(legHigh, legLow, price float64, dir Direction) (float64, bool) {
	span := legHigh - legLow
	if span <= 0 {
		return 0, false
	}
	switch dir {
	case DirUp:
		return (legHigh - price) / span, true
	case DirDown:
		return (price - legLow) / span, true
	}
	return 0, false
}

// DominantDirection compara los dos swing highs y los dos swing lows más
// recientes dentro de lookback: DirUp si ambos pares suben estrictamente,
// DirDown si ambos bajan, DirNone en otro caso o si no hay al menos dos de cada.
func DominantDirection(s domain.Series, lookback, left, right int) Direction {
	highs := SwingHighs(s, left, right)
	lows := SwingLows(s, left, right)
	if len(highs) < 2 || len(lows) < 2 {
		return DirNone
	}
	highs = InLookback(highs, s.Len(), lookback)
	lows = InLookback(lows, s.Len(), lookback)
	if len(highs) < 2 || len(lows) < 2 {
		return DirNone
	}
	h1, h2 := s.Bars[highs[len(highs)-2]].High, s.Bars[highs[len(highs)-1]].High
	l1, l2 := s.Bars[lows[len(lows)-2]].Low, s.Bars[lows[len(lows)-1]].Low
	switch {
	case h2 > h1 && l2 > l1:
		return DirUp
	case h2 < h1 && l2 < l1:
		return DirDown
	}
	return DirNone
}

// TrendState devuelve +1, −1 o 0 a partir de DominantDirection.
func TrendState(s domain.Series, lookback, left, right int) int {
	return int(DominantDirection(s, lookback, left, right))
}
