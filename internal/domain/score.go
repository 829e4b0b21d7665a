package domain

// Condition names en el orden fijo de evaluación. El orden y los nombres son
// contrato: los mapas LongConditions/ShortConditions se indexan por estos nombres.
const (
	CondTrend        = "trend"
	CondImpulseBreak = "impulse_break"
	CondStopHunt     = "stop_hunt"
	CondStopMoney    = "stop_money"
	CondZone         = "zone"
	CondFib          = "fib"
	CondSession      = "session"
)

// ConditionNames devuelve los siete nombres en orden de evaluación.
func ConditionNames() []string {
	return []string{
		CondTrend,
		CondImpulseBreak,
		CondStopHunt,
		CondStopMoney,
		CondZone,
		CondFib,
		CondSession,
	}
}

// Outcome es el resultado direccional de una condición. Long y Short no son
// excluyentes.
type Outcome struct {
	Long  bool `json:"long"`
	Short bool `json:"short"`
}

// ScoreRecord es el resultado de una llamada de scoring. Se crea nuevo en cada
// llamada y no se modifica después de devolverse.
type ScoreRecord struct {
	LongScore       int             `json:"long_score"`
	ShortScore      int             `json:"short_score"`
	Bias            int             `json:"bias"`
	LongConditions  map[string]bool `json:"long_conditions"`
	ShortConditions map[string]bool `json:"short_conditions"`
	AlertLong       bool            `json:"alert_long"`
	AlertShort      bool            `json:"alert_short"`
	Error           string          `json:"error,omitempty"`
}

// NewScoreRecord devuelve un registro a cero con todas las condiciones en false.
func NewScoreRecord() ScoreRecord {
	r := ScoreRecord{
		LongConditions:  make(map[string]bool, 7),
		ShortConditions: make(map[string]bool, 7),
	}
	for _, n := range ConditionNames() {
		r.LongConditions[n] = false
		r.ShortConditions[n] = false
	}
	return r
}

// FailedScoreRecord devuelve un registro a cero con el mensaje de error dado.
// Un Error no vacío significa "sin señal", nunca un resultado parcial.
func FailedScoreRecord(msg string) ScoreRecord {
	r := NewScoreRecord()
	r.Error = msg
	return r
}

// Valid indica que el registro no lleva error.
func (r ScoreRecord) Valid() bool { return r.Error == "" }

// Direction resume el registro: "long", "short" o "flat" según el bias.
func (r ScoreRecord) Direction() string {
	switch {
	case r.Bias > 0:
		return "long"
	case r.Bias < 0:
		return "short"
	default:
		return "flat"
	}
}
