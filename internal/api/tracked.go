package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dallasopendata/incidents/internal/models"
	"github.com/dallasopendata/incidents/internal/query"
	"github.com/dallasopendata/incidents/internal/response"
	"github.com/dallasopendata/incidents/internal/schema"
	"github.com/dallasopendata/incidents/internal/tracker"
)

func trackedFilter(r *http.Request) models.TrackedCallFilter {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 0 {
		limit = 0
	}
	return models.TrackedCallFilter{
		Beat:  r.URL.Query().Get("beat"),
		Tag:   r.URL.Query().Get("tag"),
		Limit: limit,
	}
}

// TrackCall stores an active call for follow-up.
func (h *Handler) TrackCall(w http.ResponseWriter, r *http.Request) {
	var req models.TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Call) == 0 {
		writeError(w, http.StatusBadRequest, "Call is required")
		return
	}

	call, err := h.tracker.Track(r.Context(), response.Record(req.Call), req.Notes, req.Tags)
	if err != nil {
		writeFailure(w, err, "Track call")
		return
	}
	writeJSON(w, http.StatusCreated, call)
}

// ListTracked returns tracked calls, optionally by beat or tag.
func (h *Handler) ListTracked(w http.ResponseWriter, r *http.Request) {
	calls, err := h.tracker.List(r.Context(), trackedFilter(r))
	if err != nil {
		writeFailure(w, err, "List tracked calls")
		return
	}
	if calls == nil {
		calls = []*models.TrackedCall{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"calls": calls,
		"count": len(calls),
	})
}

// TrackedSummary tallies tracked calls.
func (h *Handler) TrackedSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.tracker.Summary(r.Context(), trackedFilter(r))
	if err != nil {
		writeFailure(w, err, "Summarize tracked calls")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// DeleteTracked stops tracking a call.
func (h *Handler) DeleteTracked(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "ID is required")
		return
	}

	if err := h.tracker.Untrack(r.Context(), id); err != nil {
		writeFailure(w, err, "Delete tracked call")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TrackedQueries generates historical queries for tracked calls, compiled
// against the police incidents dataset.
func (h *Handler) TrackedQueries(w http.ResponseWriter, r *http.Request) {
	daysAfter := tracker.DefaultDaysAfter
	if v := r.URL.Query().Get("days_after"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeFailure(w, &query.ValidationError{Field: "days_after", Value: v, Reason: "must be a non-negative integer"}, "Generate queries")
			return
		}
		daysAfter = n
	}
	perQuery, _ := strconv.Atoi(r.URL.Query().Get("query_limit"))

	queries, err := h.tracker.Queries(r.Context(), trackedFilter(r), daysAfter, perQuery)
	if err != nil {
		writeFailure(w, err, "Generate queries")
		return
	}

	s, err := schema.FromPreset(schema.PresetPoliceIncidents)
	if err != nil {
		writeFailure(w, err, "Generate queries")
		return
	}
	out := models.TrackedQueriesResponse{DaysAfter: daysAfter, Queries: queries}
	for _, q := range queries {
		compiled, err := h.compile(q, s)
		if err != nil {
			writeFailure(w, err, "Generate queries")
			return
		}
		out.Compiled = append(out.Compiled, compiled)
	}
	writeJSON(w, http.StatusOK, out)
}
