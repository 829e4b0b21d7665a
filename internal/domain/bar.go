package domain

import (
	"math"
	"time"
)

// Bar es una vela OHLC de un intervalo.
type Bar struct {
	Time  time.Time `json:"time"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// Body devuelve el tamaño absoluto del cuerpo de la vela.
func (b Bar) Body() float64 {
	return math.Abs(b.Close - b.Open)
}

// Range devuelve high − low.
func (b Bar) Range() float64 {
	return b.High - b.Low
}

// Bullish indica cierre por encima de la apertura.
func (b Bar) Bullish() bool {
	return b.Close > b.Open
}

// Series es una secuencia cronológica de velas.
// Timed indica que cada Bar.Time es un timestamp real; una serie sin índice
// temporal (por ejemplo un CSV sin columna de tiempo) no se puede re-muestrear
// ni evaluar por sesión.
type Series struct {
	Bars  []Bar `json:"bars"`
	Timed bool  `json:"timed"`
}

// NewSeries crea una serie con índice temporal.
func NewSeries(bars []Bar) Series {
	return Series{Bars: bars, Timed: true}
}

// Len devuelve el número de velas.
func (s Series) Len() int { return len(s.Bars) }

// Empty indica que la serie no tiene velas.
func (s Series) Empty() bool { return len(s.Bars) == 0 }

// Last devuelve la última vela. Llamar solo con series no vacías.
func (s Series) Last() Bar { return s.Bars[len(s.Bars)-1] }

// LastClose devuelve el cierre de la última vela.
func (s Series) LastClose() float64 { return s.Last().Close }

// Highs, Lows y Closes extraen columnas.
func (s Series) Highs() []float64  { return column(s.Bars, func(b Bar) float64 { return b.High }) }
func (s Series) Lows() []float64   { return column(s.Bars, func(b Bar) float64 { return b.Low }) }
func (s Series) Closes() []float64 { return column(s.Bars, func(b Bar) float64 { return b.Close }) }

// Bodies devuelve |close − open| por vela.
func (s Series) Bodies() []float64 { return column(s.Bars, Bar.Body) }

// MaxHigh y MinLow devuelven los extremos de la serie desde el índice from.
func (s Series) MaxHigh(from int) float64 {
	m := math.Inf(-1)
	for _, b := range s.Bars[from:] {
		m = math.Max(m, b.High)
	}
	return m
}

func (s Series) MinLow(from int) float64 {
	m := math.Inf(1)
	for _, b := range s.Bars[from:] {
		m = math.Min(m, b.Low)
	}
	return m
}

func column(bars []Bar, f func(Bar) float64) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = f(b)
	}
	return out
}
