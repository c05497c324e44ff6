package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/fanpulse/internal/adapters/eventsource"
	service "github.com/okian/fanpulse/internal/app"
)

// maxBodyBytes bounds POST /events payloads.
const maxBodyBytes = 8 << 20

// EventsHandler handles ingestion and per-event reads.
type EventsHandler struct {
	deps Dependencies
	now  func() time.Time
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies, now func() time.Time) *EventsHandler {
	return &EventsHandler{deps: deps, now: now}
}

type ackResponse struct {
	Status string `json:"status"`
	service.IngestResult
}

// HandlePostEvents handles POST /events. The body is one record, an array
// of records or an {"events": [...]} envelope.
func (h *EventsHandler) HandlePostEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_events"

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	doc, err := eventsource.DecodeDocument(bytes.NewReader(body))
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if doc.Single && !doc.Events[0].Valid() {
		writeError(w, r, WrapKind(op, service.ErrInvalidEvent, errMissingFields))
		return
	}

	res, err := h.deps.Ingest(r.Context(), doc.Events)
	if errors.Is(err, service.ErrBackpressure) {
		// Records before the refused one are queued; report them.
		w.Header().Set("Retry-After", retryAfterSeconds)
		writeJSON(w, http.StatusTooManyRequests, ackResponse{Status: "backpressure", IngestResult: res})
		return
	}
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}

	switch {
	case res.Accepted > 0:
		writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", IngestResult: res})
	case res.Duplicates > 0:
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", IngestResult: res})
	default:
		writeJSON(w, http.StatusOK, ackResponse{Status: "rejected", IngestResult: res})
	}
}

// HandleGetEvent handles GET /events/{id}.
func (h *EventsHandler) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_event"
	view, err := h.deps.Event(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleGetState handles GET /events/{id}/state?now=&soon=.
func (h *EventsHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_state"
	now, err := nowParam(r, h.now)
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	soon, err := durationParam(r, "soon")
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := h.deps.EventState(r.Context(), chi.URLParam(r, "id"), now, soon)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}
