package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dallasopendata/incidents/internal/schema"
	"github.com/dallasopendata/incidents/internal/snapshot"
)

// ListSnapshots returns paginated snapshot metadata.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 20)

	infos, err := h.store.ListSnapshots(r.Context(), limit, offset)
	if err != nil {
		writeFailure(w, err, "List snapshots")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": infos,
		"limit":     limit,
		"offset":    offset,
	})
}

// LatestSnapshot returns the newest stored snapshot.
func (h *Handler) LatestSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.LatestSnapshot(r.Context())
	if err != nil {
		writeFailure(w, err, "Get snapshot")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GetSnapshot returns a snapshot by ID.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "ID is required")
		return
	}

	snap, err := h.store.GetSnapshot(r.Context(), id)
	if err != nil {
		writeFailure(w, err, "Get snapshot")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// SnapshotStats aggregates the most recent snapshots.
func (h *Handler) SnapshotStats(w http.ResponseWriter, r *http.Request) {
	n, _ := strconv.Atoi(r.URL.Query().Get("count"))
	if n <= 0 || n > 500 {
		n = 100
	}

	snaps, err := h.store.RecentSnapshots(r.Context(), n)
	if err != nil {
		writeFailure(w, err, "Snapshot stats")
		return
	}
	writeJSON(w, http.StatusOK, snapshot.Stats(snaps))
}

// CreateSnapshot fetches the configured active calls feed and stores a snapshot.
func (h *Handler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	s, err := schema.FromPreset(h.snapshots.Preset)
	if err != nil {
		writeFailure(w, err, "Build snapshot")
		return
	}
	fetcher, err := h.fetchers(s)
	if err != nil {
		writeFailure(w, err, "Build snapshot")
		return
	}

	builder := snapshot.NewBuilder(fetcher,
		snapshot.WithCategorizer(h.categorizer),
		snapshot.WithMetrics(h.metrics),
	)
	snap, err := builder.ActiveCalls(r.Context(), h.snapshots.Limit)
	if err != nil {
		writeFailure(w, err, "Build snapshot")
		return
	}
	if err := h.store.SaveSnapshot(r.Context(), snap); err != nil {
		writeFailure(w, err, "Save snapshot")
		return
	}

	writeJSON(w, http.StatusCreated, snap)
}
