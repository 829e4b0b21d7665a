package domain

import "time"

// Intervalos de las vistas derivadas.
const (
	BaseMinutes  = 15
	MidBucket    = time.Hour
	CoarseBucket = 4 * time.Hour

	// MinResampleBars es el mínimo de velas base para derivar vistas.
	MinResampleBars = 16
)

// Timeframe identifica una de las tres vistas sobre las que corren las condiciones.
type Timeframe string

const (
	TFBase   Timeframe = "15m"
	TFMid    Timeframe = "1h"
	TFCoarse Timeframe = "4h"
)

// Resample agrega la serie en buckets de reloj de tamaño bucket:
// open = primera, high = máx, low = mín, close = última. Los buckets se alinean
// a múltiplos de bucket desde el epoch (UTC) y los buckets vacíos no aparecen.
//
// Requiere una serie con índice temporal en orden cronológico; en otro caso
// devuelve una serie vacía.
func Resample(s Series, bucket time.Duration) Series {
	if !s.Timed || bucket <= 0 || !chronological(s) {
		return Series{Timed: true}
	}

	out := make([]Bar, 0, len(s.Bars)/2+1)
	var cur Bar
	var curKey time.Time
	open := false
	for _, b := range s.Bars {
		key := b.Time.UTC().Truncate(bucket)
		if open && key.Equal(curKey) {
			cur.High = max(cur.High, b.High)
			cur.Low = min(cur.Low, b.Low)
			cur.Close = b.Close
			continue
		}
		if open {
			out = append(out, cur)
		}
		curKey = key
		cur = Bar{Time: key, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close}
		open = true
	}
	if open {
		out = append(out, cur)
	}
	return Series{Bars: out, Timed: true}
}

// Views deriva las vistas mid (1h) y coarse (4h) desde una serie base.
// Solo se derivan si nativeMinutes es 15, la serie tiene índice temporal y al
// menos MinResampleBars velas; si no, ok es false y ambas vistas están ausentes.
func Views(s Series, nativeMinutes int) (mid, coarse Series, ok bool) {
	if nativeMinutes != BaseMinutes || !s.Timed || s.Len() < MinResampleBars {
		return Series{}, Series{}, false
	}
	return Resample(s, MidBucket), Resample(s, CoarseBucket), true
}

func chronological(s Series) bool {
	for i := 1; i < len(s.Bars); i++ {
		if s.Bars[i].Time.Before(s.Bars[i-1].Time) {
			return false
		}
	}
	return true
}
