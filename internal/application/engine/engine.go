// Package engine agrega las siete condiciones en un ScoreRecord.
//
// Flujo por llamada (sin estado entre llamadas):
// validar → derivar vistas → despachar cada condición a su vista →
// evaluar con aislamiento de fallos → agregar scores, bias y alertas.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/cfdalert/internal/domain"
	"github.com/alejandrodnm/cfdalert/internal/domain/conditions"
)

// Result es el resultado de una condición: un Outcome o un fallo capturado.
// Skipped indica que la vista asignada era demasiado corta y la condición no
// se invocó.
type Result struct {
	Name      string
	Timeframe domain.Timeframe
	Bars      int
	Outcome   domain.Outcome
	Skipped   bool
	Fault     error
}

// Engine puntúa series con unos umbrales por defecto fijados al crearlo.
// Es seguro para uso concurrente: no guarda estado mutable.
type Engine struct {
	thresholds domain.Thresholds
	conditions []conditions.Condition
}

// New crea un Engine con los umbrales dados.
func New(t domain.Thresholds) *Engine {
	return &Engine{thresholds: t, conditions: conditions.All()}
}

// Thresholds devuelve una copia de los umbrales por defecto del engine.
func (e *Engine) Thresholds() domain.Thresholds { return e.thresholds }

// Score puntúa la serie con los umbrales del engine.
// nativeMinutes = 0 usa Thresholds.ResampleFreqMinutes.
func (e *Engine) Score(s domain.Series, nativeMinutes int) domain.ScoreRecord {
	return e.ScoreWith(s, nativeMinutes, e.thresholds)
}

// ScoreWith puntúa la serie con umbrales específicos de esta llamada.
func (e *Engine) ScoreWith(s domain.Series, nativeMinutes int, t domain.Thresholds) domain.ScoreRecord {
	results, errMsg := evaluate(s, nativeMinutes, t, e.conditions)
	if errMsg != "" {
		return domain.FailedScoreRecord(errMsg)
	}
	return Aggregate(results, t.ScoreThreshold)
}

// Score es el punto de entrada funcional: puntúa s con los umbrales t.
func Score(s domain.Series, nativeMinutes int, t domain.Thresholds) domain.ScoreRecord {
	results, errMsg := evaluate(s, nativeMinutes, t, conditions.All())
	if errMsg != "" {
		return domain.FailedScoreRecord(errMsg)
	}
	return Aggregate(results, t.ScoreThreshold)
}

// Evaluate devuelve el detalle por condición. errMsg no vacío significa que la
// validación falló y results es nil.
func Evaluate(s domain.Series, nativeMinutes int, t domain.Thresholds) (results []Result, errMsg string) {
	return evaluate(s, nativeMinutes, t, conditions.All())
}

// ResampledViews expone las mismas vistas mid (1h) y coarse (4h) que usa el
// scoring, sin puntuar. ok es false si no se derivan.
func ResampledViews(s domain.Series, nativeMinutes int) (mid, coarse domain.Series, ok bool) {
	return domain.Views(s, nativeMinutes)
}

// Aggregate cuenta los outcomes y calcula bias y alertas.
func Aggregate(results []Result, threshold int) domain.ScoreRecord {
	r := domain.NewScoreRecord()
	for _, res := range results {
		r.LongConditions[res.Name] = res.Outcome.Long
		r.ShortConditions[res.Name] = res.Outcome.Short
		if res.Outcome.Long {
			r.LongScore++
		}
		if res.Outcome.Short {
			r.ShortScore++
		}
	}
	r.Bias = r.LongScore - r.ShortScore
	r.AlertLong = r.LongScore >= threshold
	r.AlertShort = r.ShortScore >= threshold
	return r
}

func evaluate(s domain.Series, nativeMinutes int, t domain.Thresholds, conds []conditions.Condition) ([]Result, string) {
	if msg := domain.ValidateSeries(s); msg != "" {
		return nil, msg
	}

	if nativeMinutes == 0 {
		nativeMinutes = t.ResampleFreqMinutes
	}
	views := dispatchViews(s, nativeMinutes, t.MinViewBars)

	results := make([]Result, 0, len(conds))
	for _, c := range conds {
		view := views[c.Timeframe]
		if view.Len() < t.MinConditionBars {
			results = append(results, Result{Name: c.Name, Timeframe: c.Timeframe, Bars: view.Len(), Skipped: true})
			continue
		}
		res := runIsolated(c, view, t)
		if res.Fault != nil {
			slog.Warn("condition faulted",
				"condition", c.Name,
				"timeframe", c.Timeframe,
				"bars", view.Len(),
				"err", res.Fault,
			)
		}
		results = append(results, res)
	}
	return results, ""
}

// dispatchViews asigna una serie a cada timeframe. Una vista derivada ausente o
// con menos de minViewBars velas se sustituye por la serie base.
func dispatchViews(s domain.Series, nativeMinutes, minViewBars int) map[domain.Timeframe]domain.Series {
	views := map[domain.Timeframe]domain.Series{
		domain.TFBase:   s,
		domain.TFMid:    s,
		domain.TFCoarse: s,
	}
	mid, coarse, ok := domain.Views(s, nativeMinutes)
	if !ok {
		return views
	}
	if mid.Len() >= minViewBars {
		views[domain.TFMid] = mid
	}
	if coarse.Len() >= minViewBars {
		views[domain.TFCoarse] = coarse
	}
	return views
}

// runIsolated ejecuta una condición capturando cualquier panic como Fault.
// Un fallo cuenta como {false,false} y nunca atraviesa el límite de la condición.
func runIsolated(c conditions.Condition, view domain.Series, t domain.Thresholds) (res Result) {
	res = Result{Name: c.Name, Timeframe: c.Timeframe, Bars: view.Len()}
	defer func() {
		if r := recover(); r != nil {
			res.Outcome = domain.Outcome{}
			res.Fault = fmt.Errorf("engine.runIsolated: %s: %v", c.Name, r)
		}
	}()
	res.Outcome = c.Evaluate(view, t)
	return res
}
