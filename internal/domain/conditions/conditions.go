// Package conditions implementa las siete condiciones estructurales/conductuales.
// Cada condición recibe una serie y los umbrales y devuelve un domain.Outcome;
// con datos insuficientes o sin la estructura requerida devuelve {false,false}.
// Ninguna condición depende del resultado de otra.
package conditions

import "github.com/alejandrodnm/cfdalert/internal/domain"

// Evaluator es el contrato común de las condiciones.
type Evaluator func(s domain.Series, t domain.Thresholds) domain.Outcome

// Condition asocia un nombre estable, la vista sobre la que corre y su evaluador.
type Condition struct {
	Name      string
	Timeframe domain.Timeframe
	Evaluate  Evaluator
}

// registry fija el orden de evaluación. El orden forma parte del contrato
// de los mapas long_conditions/short_conditions.
var registry = [7]Condition{
	{Name: domain.CondTrend, Timeframe: domain.TFCoarse, Evaluate: Trend},
	{Name: domain.CondImpulseBreak, Timeframe: domain.TFMid, Evaluate: ImpulseBreak},
	{Name: domain.CondStopHunt, Timeframe: domain.TFMid, Evaluate: StopHunt},
	{Name: domain.CondStopMoney, Timeframe: domain.TFMid, Evaluate: StopMoney},
	{Name: domain.CondZone, Timeframe: domain.TFMid, Evaluate: Zone},
	{Name: domain.CondFib, Timeframe: domain.TFBase, Evaluate: Fib},
	{Name: domain.CondSession, Timeframe: domain.TFMid, Evaluate: Session},
}

// All devuelve una copia del registro en orden de evaluación.
func All() []Condition {
	out := registry
	return out[:]
}

// minLen es el guard común: serie vacía o más corta que n → sin señal.
func minLen(s domain.Series, n int) bool {
	return s.Len() >= n && n > 0
}
