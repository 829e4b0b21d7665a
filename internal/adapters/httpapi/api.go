// Package httpapi expone el motor de scoring por HTTP.
//
// Rutas:
//
//	GET  /health
//	GET  /api/thresholds                 umbrales por defecto y claves de override
//	POST /api/score                      velas → ScoreRecord
//	POST /api/views                      velas → vistas 1h y 4h
//	POST /api/overlay                    velas → overlays por timeframe + ScoreRecord
//	GET  /api/symbols                    símbolos de la fuente configurada
//	GET  /api/symbols/{symbol}/score     puntúa la serie guardada de un símbolo
//	                                     (?from=&to= RFC3339 con un BarStore)
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alejandrodnm/cfdalert/internal/application/engine"
	"github.com/alejandrodnm/cfdalert/internal/application/overlay"
	"github.com/alejandrodnm/cfdalert/internal/domain"
	"github.com/alejandrodnm/cfdalert/internal/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 8 << 20

// ScoreRequest es el cuerpo de /api/score, /api/views y /api/overlay.
// Si ninguna vela trae timestamp la serie se trata como sin índice temporal.
type ScoreRequest struct {
	Symbol        string             `json:"symbol,omitempty"`
	Bars          []domain.Bar       `json:"bars"`
	NativeMinutes int                `json:"native_minutes,omitempty"`
	Thresholds    map[string]float64 `json:"thresholds,omitempty"`
}

// Series construye la serie del request.
func (r ScoreRequest) Series() domain.Series {
	timed := false
	for _, b := range r.Bars {
		if !b.Time.IsZero() {
			timed = true
			break
		}
	}
	return domain.Series{Bars: r.Bars, Timed: timed}
}

// ScoreResponse envuelve el ScoreRecord con el símbolo.
type ScoreResponse struct {
	Symbol string             `json:"symbol,omitempty"`
	Bars   int                `json:"bars"`
	Record domain.ScoreRecord `json:"record"`
}

// ViewsResponse devuelve las vistas re-muestreadas.
type ViewsResponse struct {
	Derived bool         `json:"derived"`
	Mid     []domain.Bar `json:"mid"`
	Coarse  []domain.Bar `json:"coarse"`
}

// OverlayResponse devuelve overlays y el ScoreRecord de la misma serie.
type OverlayResponse struct {
	Overlay overlay.Data       `json:"overlay"`
	Record  domain.ScoreRecord `json:"record"`
}

// API agrupa las dependencias de los handlers. Source es opcional.
type API struct {
	Engine *engine.Engine
	Source ports.BarSource
}

// Router monta las rutas con los middlewares de chi.
func (api *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": "healthy"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/thresholds", api.HandleThresholds)
		r.Post("/score", api.HandleScore)
		r.Post("/views", api.HandleViews)
		r.Post("/overlay", api.HandleOverlay)
		r.Get("/symbols", api.HandleSymbols)
		r.Get("/symbols/{symbol}/score", api.HandleSymbolScore)
	})
	return r
}

// HandleThresholds devuelve los umbrales por defecto del engine.
func (api *API) HandleThresholds(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"defaults": api.Engine.Thresholds(),
		"keys":     domain.ThresholdKeys(),
	})
}

// HandleScore puntúa las velas del cuerpo. Un error de validación de datos no
// es un error HTTP: va en record.error con estado 200.
func (api *API) HandleScore(w http.ResponseWriter, r *http.Request) {
	req, t, ok := api.decode(w, r)
	if !ok {
		return
	}
	rec := api.Engine.ScoreWith(req.Series(), req.NativeMinutes, t)
	WriteJSON(w, http.StatusOK, ScoreResponse{Symbol: req.Symbol, Bars: len(req.Bars), Record: rec})
}

// HandleViews devuelve las vistas 1h/4h que usaría el scoring.
func (api *API) HandleViews(w http.ResponseWriter, r *http.Request) {
	req, _, ok := api.decode(w, r)
	if !ok {
		return
	}
	mid, coarse, derived := engine.ResampledViews(req.Series(), req.NativeMinutes)
	resp := ViewsResponse{Derived: derived, Mid: []domain.Bar{}, Coarse: []domain.Bar{}}
	if derived {
		resp.Mid = mid.Bars
		resp.Coarse = coarse.Bars
	}
	WriteJSON(w, http.StatusOK, resp)
}

// HandleOverlay calcula los overlays de los tres timeframes.
func (api *API) HandleOverlay(w http.ResponseWriter, r *http.Request) {
	req, t, ok := api.decode(w, r)
	if !ok {
		return
	}
	s := req.Series()
	rec := api.Engine.ScoreWith(s, req.NativeMinutes, t)
	if !rec.Valid() {
		WriteError(w, http.StatusUnprocessableEntity, rec.Error)
		return
	}
	mid, coarse, _ := engine.ResampledViews(s, req.NativeMinutes)
	WriteJSON(w, http.StatusOK, OverlayResponse{
		Overlay: overlay.Build(s, mid, coarse, &rec, t),
		Record:  rec,
	})
}

// HandleSymbols lista los símbolos de la fuente.
func (api *API) HandleSymbols(w http.ResponseWriter, r *http.Request) {
	if api.Source == nil {
		WriteError(w, http.StatusNotFound, "no bar source configured")
		return
	}
	syms, err := api.Source.Symbols(r.Context())
	if err != nil {
		slog.Error("httpapi: list symbols", "err", err)
		WriteError(w, http.StatusInternalServerError, "failed to list symbols")
		return
	}
	if syms == nil {
		syms = []string{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"symbols": syms})
}

// HandleSymbolScore carga la serie de un símbolo y la puntúa con los umbrales
// por defecto. Con from/to solo se puntúa esa ventana; requiere un BarStore.
func (api *API) HandleSymbolScore(w http.ResponseWriter, r *http.Request) {
	if api.Source == nil {
		WriteError(w, http.StatusNotFound, "no bar source configured")
		return
	}
	symbol := chi.URLParam(r, "symbol")
	from, to, ranged, err := parseRange(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var s domain.Series
	if ranged {
		store, ok := api.Source.(ports.BarStore)
		if !ok {
			WriteError(w, http.StatusBadRequest, "bar source does not support time ranges")
			return
		}
		s, err = store.LoadRange(r.Context(), symbol, from, to)
	} else {
		s, err = api.Source.LoadSeries(r.Context(), symbol)
	}
	if err != nil || s.Empty() {
		if err != nil {
			slog.Warn("httpapi: load series", "symbol", symbol, "err", err)
		}
		WriteError(w, http.StatusNotFound, fmt.Sprintf("no bars for %s", symbol))
		return
	}
	rec := api.Engine.Score(s, 0)
	WriteJSON(w, http.StatusOK, ScoreResponse{Symbol: symbol, Bars: s.Len(), Record: rec})
}

// parseRange lee los parámetros from/to (RFC3339). Si falta to se usa ahora.
func parseRange(r *http.Request) (from, to time.Time, ranged bool, err error) {
	q := r.URL.Query()
	rawFrom, rawTo := q.Get("from"), q.Get("to")
	if rawFrom == "" && rawTo == "" {
		return from, to, false, nil
	}
	to = time.Now().UTC()
	if rawFrom != "" {
		if from, err = time.Parse(time.RFC3339, rawFrom); err != nil {
			return from, to, false, fmt.Errorf("invalid from: %v", err)
		}
	}
	if rawTo != "" {
		if to, err = time.Parse(time.RFC3339, rawTo); err != nil {
			return from, to, false, fmt.Errorf("invalid to: %v", err)
		}
	}
	if to.Before(from) {
		return from, to, false, fmt.Errorf("to is before from")
	}
	return from, to, true, nil
}

// decode lee el ScoreRequest y aplica los overrides de umbrales. Si falla ya
// ha escrito la respuesta de error.
func (api *API) decode(w http.ResponseWriter, r *http.Request) (ScoreRequest, domain.Thresholds, bool) {
	var req ScoreRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			WriteError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return req, domain.Thresholds{}, false
		}
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return req, domain.Thresholds{}, false
	}
	t, err := api.Engine.Thresholds().Override(req.Thresholds)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return req, domain.Thresholds{}, false
	}
	return req, t, true
}
