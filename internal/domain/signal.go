package domain

import "time"

// Signal es el resultado de puntuar un símbolo en un ciclo de escaneo.
type Signal struct {
	Symbol    string
	ScannedAt time.Time
	Bars      int
	LastClose float64
	Record    ScoreRecord
}

// AlertSide devuelve "long", "short", "both" o "" según las alertas activas.
func (s Signal) AlertSide() string {
	switch {
	case s.Record.AlertLong && s.Record.AlertShort:
		return "both"
	case s.Record.AlertLong:
		return "long"
	case s.Record.AlertShort:
		return "short"
	}
	return ""
}
