package api

import (
	"net/http"
	"time"
)

// QueryHandler serves the engine read operations.
type QueryHandler struct {
	deps Dependencies
	now  func() time.Time
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(deps Dependencies, now func() time.Time) *QueryHandler {
	return &QueryHandler{deps: deps, now: now}
}

// HandleStates handles GET /states. Without a date every event in scope is
// classified.
func (h *QueryHandler) HandleStates(w http.ResponseWriter, r *http.Request) {
	const op = "api.states"
	now, err := nowParam(r, h.now)
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	states, err := h.deps.States(r.Context(), scopeParam(r, h.deps, now, false), now)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"now": now, "states": states})
}

// HandleMobility handles GET /mobility?date=&start_hour=&end_hour=&resolution=.
func (h *QueryHandler) HandleMobility(w http.ResponseWriter, r *http.Request) {
	const op = "api.mobility"
	win := h.deps.Window()
	var err error
	if win.StartHour, err = intParam(r, "start_hour", win.StartHour); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if win.EndHour, err = intParam(r, "end_hour", win.EndHour); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if win.ResolutionMinutes, err = intParam(r, "resolution", win.ResolutionMinutes); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := h.deps.Mobility(r.Context(), scopeParam(r, h.deps, h.now(), true), &win)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleMobilityRange handles GET /mobility/range?date=&from=&to=.
func (h *QueryHandler) HandleMobilityRange(w http.ResponseWriter, r *http.Request) {
	const op = "api.mobility_range"
	win := h.deps.Window()
	from, err := intParam(r, "from", win.StartHour)
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	to, err := intParam(r, "to", min(win.EndHour, 23))
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	rng, err := h.deps.MobilityRange(r.Context(), scopeParam(r, h.deps, h.now(), true), from, to)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rng)
}

// HandleExplain handles GET /mobility/explain?date=&minute=.
func (h *QueryHandler) HandleExplain(w http.ResponseWriter, r *http.Request) {
	const op = "api.mobility_explain"
	minute, err := intParam(r, "minute", -1)
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	scope := scopeParam(r, h.deps, h.now(), true)
	reasons, err := h.deps.Explain(r.Context(), scope, minute)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": scope.Date, "minute": minute, "reasons": reasons})
}

// HandleCongestion handles GET /congestion?date=&region=&city=&competition=.
func (h *QueryHandler) HandleCongestion(w http.ResponseWriter, r *http.Request) {
	const op = "api.congestion"
	view, err := h.deps.Congestion(r.Context(), scopeParam(r, h.deps, h.now(), true))
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleRisk handles GET /risk?date=&lat=&lng=&radius_km=&region=. Without
// an anchor the result is all zero.
func (h *QueryHandler) HandleRisk(w http.ResponseWriter, r *http.Request) {
	const op = "api.risk"
	anchor, err := anchorParam(r)
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	radius, _, err := floatParam(r, "radius_km")
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := h.deps.Risk(r.Context(), scopeParam(r, h.deps, h.now(), true), anchor, radius)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}
