package domain

import (
	"fmt"
	"sort"
)

// SessionWindow es una franja horaria [Start, End) en horas locales del mercado.
// Si Start > End la franja cruza medianoche (p.ej. US 20→05).
type SessionWindow struct {
	Start int `yaml:"start" json:"start"`
	End   int `yaml:"end" json:"end"`
}

// Contains indica si la hora h (0–23) cae dentro de la franja.
func (w SessionWindow) Contains(h int) bool {
	if w.Start <= w.End {
		return w.Start <= h && h < w.End
	}
	return h >= w.Start || h < w.End
}

// Thresholds agrupa todos los umbrales del motor de scoring.
// Es un valor inmutable: el motor nunca lo modifica y los overrides por llamada
// trabajan sobre una copia (ver Override).
type Thresholds struct {
	// Scoring
	ScoreThreshold int     `yaml:"score_threshold" json:"score_threshold"` // alert_long/alert_short cuando score >= esto
	RRMin          float64 `yaml:"rr_min" json:"rr_min"`                   // R:R mínimo, solo dentro de fib

	// Re-muestreo 15m → 1h, 4h
	ResampleFreqMinutes int `yaml:"resample_freq_minutes" json:"resample_freq_minutes"`
	MinViewBars         int `yaml:"min_view_bars" json:"min_view_bars"`           // vista derivada más corta → se usa la base
	MinConditionBars    int `yaml:"min_condition_bars" json:"min_condition_bars"` // por debajo la condición no se evalúa

	// Trend
	RetraceMaxTrend float64 `yaml:"retrace_max_trend" json:"retrace_max_trend"`
	RetraceRange    float64 `yaml:"retrace_range" json:"retrace_range"`

	// Swings
	SwingLookback int `yaml:"swing_lookback" json:"swing_lookback"`
	SwingLeft     int `yaml:"swing_left" json:"swing_left"`
	SwingRight    int `yaml:"swing_right" json:"swing_right"`

	// Impulse break
	ImpulseCandles      int     `yaml:"impulse_candles" json:"impulse_candles"`
	ImpulseBodyRatio    float64 `yaml:"impulse_body_ratio" json:"impulse_body_ratio"`
	ImpulseExtremeRatio float64 `yaml:"impulse_extreme_ratio" json:"impulse_extreme_ratio"`
	WickToBodyMax       float64 `yaml:"wick_to_body_max" json:"wick_to_body_max"`
	BodyAvgWindow       int     `yaml:"body_avg_window" json:"body_avg_window"`

	// Stop hunt / stop money
	DoubleTolerancePct   float64 `yaml:"double_tolerance_pct" json:"double_tolerance_pct"`
	DoubleLookback       int     `yaml:"double_lookback" json:"double_lookback"`
	RetraceMinStopHunt   float64 `yaml:"retrace_min_stop_hunt" json:"retrace_min_stop_hunt"`
	RetraceMaxStopHunt   float64 `yaml:"retrace_max_stop_hunt" json:"retrace_max_stop_hunt"`
	SpaceDistanceATRMult float64 `yaml:"space_distance_atr_mult" json:"space_distance_atr_mult"`
	ATRPeriod            int     `yaml:"atr_period" json:"atr_period"`

	// Zone
	ZoneImpulseBodyRatio    float64 `yaml:"zone_impulse_body_ratio" json:"zone_impulse_body_ratio"`
	ZoneWickToBodyMax       float64 `yaml:"zone_wick_to_body_max" json:"zone_wick_to_body_max"`
	ZoneRevisitTolerancePct float64 `yaml:"zone_revisit_tolerance_pct" json:"zone_revisit_tolerance_pct"`

	// Fibonacci
	FibPrimary      float64 `yaml:"fib_primary" json:"fib_primary"`
	FibSecondary    float64 `yaml:"fib_secondary" json:"fib_secondary"`
	FibStopAt88     float64 `yaml:"fib_stop_at_88" json:"fib_stop_at_88"`
	FibTolerancePct float64 `yaml:"fib_tolerance_pct" json:"fib_tolerance_pct"`

	// Session (horas HKT, UTC+8)
	SessionUTCOffsetHours int           `yaml:"session_utc_offset_hours" json:"session_utc_offset_hours"`
	SessionAsia           SessionWindow `yaml:"session_asia" json:"session_asia"`
	SessionEU             SessionWindow `yaml:"session_eu" json:"session_eu"`
	SessionUS             SessionWindow `yaml:"session_us" json:"session_us"`
	SessionMomentumBars   int           `yaml:"session_momentum_bars" json:"session_momentum_bars"`
	SessionMomentumRatio  float64       `yaml:"session_momentum_ratio" json:"session_momentum_ratio"`
}

// DefaultThresholds devuelve los umbrales por defecto del motor.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ScoreThreshold: 4,
		RRMin:          1.3,

		ResampleFreqMinutes: 15,
		MinViewBars:         10,
		MinConditionBars:    5,

		RetraceMaxTrend: 0.618,
		RetraceRange:    0.7,

		SwingLookback: 5,
		SwingLeft:     2,
		SwingRight:    2,

		ImpulseCandles:      3,
		ImpulseBodyRatio:    1.5,
		ImpulseExtremeRatio: 2.0,
		WickToBodyMax:       0.5,
		BodyAvgWindow:       10,

		DoubleTolerancePct:   0.005,
		DoubleLookback:       20,
		RetraceMinStopHunt:   0.5,
		RetraceMaxStopHunt:   0.7,
		SpaceDistanceATRMult: 2.0,
		ATRPeriod:            20,

		ZoneImpulseBodyRatio:    1.2,
		ZoneWickToBodyMax:       0.5,
		ZoneRevisitTolerancePct: 0.01,

		FibPrimary:      0.618,
		FibSecondary:    0.5,
		FibStopAt88:     0.88,
		FibTolerancePct: 0.01,

		SessionUTCOffsetHours: 8,
		SessionAsia:           SessionWindow{Start: 5, End: 16},
		SessionEU:             SessionWindow{Start: 15, End: 24},
		SessionUS:             SessionWindow{Start: 20, End: 5},
		SessionMomentumBars:   5,
		SessionMomentumRatio:  1.2,
	}
}

// thresholdSetters mapea cada clave plana a su campo. Las claves coinciden con
// los tags yaml; las franjas de sesión se exponen como <franja>_start/_end.
var thresholdSetters = map[string]func(*Thresholds, float64){
	"score_threshold":            func(t *Thresholds, v float64) { t.ScoreThreshold = int(v) },
	"rr_min":                     func(t *Thresholds, v float64) { t.RRMin = v },
	"resample_freq_minutes":      func(t *Thresholds, v float64) { t.ResampleFreqMinutes = int(v) },
	"min_view_bars":              func(t *Thresholds, v float64) { t.MinViewBars = int(v) },
	"min_condition_bars":         func(t *Thresholds, v float64) { t.MinConditionBars = int(v) },
	"retrace_max_trend":          func(t *Thresholds, v float64) { t.RetraceMaxTrend = v },
	"retrace_range":              func(t *Thresholds, v float64) { t.RetraceRange = v },
	"swing_lookback":             func(t *Thresholds, v float64) { t.SwingLookback = int(v) },
	"swing_left":                 func(t *Thresholds, v float64) { t.SwingLeft = int(v) },
	"swing_right":                func(t *Thresholds, v float64) { t.SwingRight = int(v) },
	"impulse_candles":            func(t *Thresholds, v float64) { t.ImpulseCandles = int(v) },
	"impulse_body_ratio":         func(t *Thresholds, v float64) { t.ImpulseBodyRatio = v },
	"impulse_extreme_ratio":      func(t *Thresholds, v float64) { t.ImpulseExtremeRatio = v },
	"wick_to_body_max":           func(t *Thresholds, v float64) { t.WickToBodyMax = v },
	"body_avg_window":            func(t *Thresholds, v float64) { t.BodyAvgWindow = int(v) },
	"double_tolerance_pct":       func(t *Thresholds, v float64) { t.DoubleTolerancePct = v },
	"double_lookback":            func(t *Thresholds, v float64) { t.DoubleLookback = int(v) },
	"retrace_min_stop_hunt":      func(t *Thresholds, v float64) { t.RetraceMinStopHunt = v },
	"retrace_max_stop_hunt":      func(t *Thresholds, v float64) { t.RetraceMaxStopHunt = v },
	"space_distance_atr_mult":    func(t *Thresholds, v float64) { t.SpaceDistanceATRMult = v },
	"atr_period":                 func(t *Thresholds, v float64) { t.ATRPeriod = int(v) },
	"zone_impulse_body_ratio":    func(t *Thresholds, v float64) { t.ZoneImpulseBodyRatio = v },
	"zone_wick_to_body_max":      func(t *Thresholds, v float64) { t.ZoneWickToBodyMax = v },
	"zone_revisit_tolerance_pct": func(t *Thresholds, v float64) { t.ZoneRevisitTolerancePct = v },
	"fib_primary":                func(t *Thresholds, v float64) { t.FibPrimary = v },
	"fib_secondary":              func(t *Thresholds, v float64) { t.FibSecondary = v },
	"fib_stop_at_88":             func(t *Thresholds, v float64) { t.FibStopAt88 = v },
	"fib_tolerance_pct":          func(t *Thresholds, v float64) { t.FibTolerancePct = v },
	"session_utc_offset_hours":   func(t *Thresholds, v float64) { t.SessionUTCOffsetHours = int(v) },
	"session_asia_start":         func(t *Thresholds, v float64) { t.SessionAsia.Start = int(v) },
	"session_asia_end":           func(t *Thresholds, v float64) { t.SessionAsia.End = int(v) },
	"session_eu_start":           func(t *Thresholds, v float64) { t.SessionEU.Start = int(v) },
	"session_eu_end":             func(t *Thresholds, v float64) { t.SessionEU.End = int(v) },
	"session_us_start":           func(t *Thresholds, v float64) { t.SessionUS.Start = int(v) },
	"session_us_end":             func(t *Thresholds, v float64) { t.SessionUS.End = int(v) },
	"session_momentum_bars":      func(t *Thresholds, v float64) { t.SessionMomentumBars = int(v) },
	"session_momentum_ratio":     func(t *Thresholds, v float64) { t.SessionMomentumRatio = v },
}

// Override devuelve una copia de t con las claves dadas sobrescritas.
// Las claves no especificadas conservan su valor. Una clave desconocida es un error
// y no se aplica ningún cambio.
func (t Thresholds) Override(overrides map[string]float64) (Thresholds, error) {
	out := t
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		set, ok := thresholdSetters[k]
		if !ok {
			return t, fmt.Errorf("domain.Thresholds.Override: unknown key %q", k)
		}
		set(&out, overrides[k])
	}
	if err := out.Validate(); err != nil {
		return t, fmt.Errorf("domain.Thresholds.Override: %w", err)
	}
	return out, nil
}

// Validate comprueba los rangos que las primitivas necesitan para no indexar
// fuera de la serie. Lo usan tanto la configuración como los overrides.
func (t Thresholds) Validate() error {
	if t.ScoreThreshold < 0 || t.ScoreThreshold > len(ConditionNames()) {
		return fmt.Errorf("score_threshold %d out of range [0,%d]", t.ScoreThreshold, len(ConditionNames()))
	}
	if t.SwingLeft < 1 || t.SwingRight < 1 {
		return fmt.Errorf("swing_left/swing_right must be >= 1")
	}
	for _, p := range []struct {
		key string
		v   int
	}{
		{"swing_lookback", t.SwingLookback},
		{"impulse_candles", t.ImpulseCandles},
		{"body_avg_window", t.BodyAvgWindow},
		{"double_lookback", t.DoubleLookback},
		{"atr_period", t.ATRPeriod},
		{"session_momentum_bars", t.SessionMomentumBars},
	} {
		if p.v < 1 {
			return fmt.Errorf("%s must be >= 1, got %d", p.key, p.v)
		}
	}
	if t.MinViewBars < 0 || t.MinConditionBars < 0 || t.ResampleFreqMinutes < 0 {
		return fmt.Errorf("min_view_bars, min_condition_bars and resample_freq_minutes must be >= 0")
	}
	for name, w := range map[string]SessionWindow{"asia": t.SessionAsia, "eu": t.SessionEU, "us": t.SessionUS} {
		if w.Start < 0 || w.Start > 24 || w.End < 0 || w.End > 24 {
			return fmt.Errorf("session_%s hours must be within [0,24]", name)
		}
	}
	return nil
}

// ThresholdKeys devuelve las claves planas aceptadas por Override, ordenadas.
func ThresholdKeys() []string {
	keys := make([]string, 0, len(thresholdSetters))
	for k := range thresholdSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
