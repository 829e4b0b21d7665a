package domain

import "math"

// ValidateSeries comprueba los invariantes OHLC de toda la serie.
// Devuelve un mensaje descriptivo que nombra la relación violada, o "" si es válida.
// El orden de las comprobaciones es estable: primero ordenación OHLC, luego NaN
// y por último precios no positivos.
func ValidateSeries(s Series) string {
	if s.Empty() {
		return "Empty series"
	}
	for _, b := range s.Bars {
		if math.IsInf(b.Open, 0) || math.IsInf(b.High, 0) || math.IsInf(b.Low, 0) || math.IsInf(b.Close, 0) {
			return "Data validation failed: non-finite value in OHLC"
		}
	}
	if anyBar(s, func(b Bar) bool { return b.High < b.Low }) {
		return "Data validation failed: High < Low in some rows"
	}
	if anyBar(s, func(b Bar) bool { return b.High < b.Open || b.High < b.Close }) {
		return "Data validation failed: High < Open or Close in some rows"
	}
	if anyBar(s, func(b Bar) bool { return b.Low > b.Open || b.Low > b.Close }) {
		return "Data validation failed: Low > Open or Close in some rows"
	}
	if anyBar(s, func(b Bar) bool {
		return math.IsNaN(b.Open) || math.IsNaN(b.High) || math.IsNaN(b.Low) || math.IsNaN(b.Close)
	}) {
		return "Data validation failed: NaN in OHLC"
	}
	if anyBar(s, func(b Bar) bool { return b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 }) {
		return "Data validation failed: Non-positive prices"
	}
	return ""
}

func anyBar(s Series, pred func(Bar) bool) bool {
	for _, b := range s.Bars {
		if pred(b) {
			return true
		}
	}
	return false
}
