// Package api provides HTTP API handlers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/dallasopendata/incidents/internal/config"
	"github.com/dallasopendata/incidents/internal/database"
	"github.com/dallasopendata/incidents/internal/models"
	"github.com/dallasopendata/incidents/internal/offense"
	"github.com/dallasopendata/incidents/internal/query"
	"github.com/dallasopendata/incidents/internal/response"
	"github.com/dallasopendata/incidents/internal/schema"
	"github.com/dallasopendata/incidents/internal/snapshot"
	"github.com/dallasopendata/incidents/internal/socrata"
	"github.com/dallasopendata/incidents/internal/telemetry"
	"github.com/dallasopendata/incidents/internal/tracker"
)

// Version is reported by the health endpoint.
var Version = "dev"

// maxBatch bounds the categorize batch size.
const maxBatch = 1000

// Fetcher runs queries against one dataset. *socrata.Client satisfies it.
type Fetcher interface {
	snapshot.Fetcher
	Collect(ctx context.Context, q *query.Query) (*response.Response, error)
}

// FetcherFactory opens a fetcher for a dataset schema.
type FetcherFactory func(s schema.Schema) (Fetcher, error)

// SocrataFactory builds portal clients configured from cfg.
func SocrataFactory(cfg config.DatasetConfig, m *telemetry.Metrics) FetcherFactory {
	return func(s schema.Schema) (Fetcher, error) {
		c, err := socrata.NewClient(s,
			socrata.WithAppToken(cfg.AppToken),
			socrata.WithTimeout(cfg.Timeout()),
			socrata.WithPageSize(cfg.PageSize),
			socrata.WithMetrics(m),
		)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Handler contains all HTTP handlers.
type Handler struct {
	store       database.Store
	tracker     *tracker.Tracker
	categorizer *offense.Categorizer
	compiler    *query.Compiler
	metrics     *telemetry.Metrics
	fetchers    FetcherFactory
	dataset     schema.Schema
	snapshots   config.SnapshotConfig
}

// NewHandler creates a new handler. The configured dataset is the default
// for requests that name neither a preset nor a schema.
func NewHandler(cfg *config.Config, store database.Store, metrics *telemetry.Metrics, fetchers FetcherFactory) (*Handler, error) {
	dataset, err := cfg.Dataset.Schema()
	if err != nil {
		return nil, err
	}
	if fetchers == nil {
		fetchers = SocrataFactory(cfg.Dataset, metrics)
	}
	categorizer := offense.Default()
	return &Handler{
		store:       store,
		tracker:     tracker.New(store),
		categorizer: categorizer,
		compiler:    query.NewCompiler(categorizer),
		metrics:     metrics,
		fetchers:    fetchers,
		dataset:     dataset,
		snapshots:   cfg.Snapshot,
	}, nil
}

// HealthCheck returns the service health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"version":   Version,
		"dataset":   h.dataset.DatasetID,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ListPresets returns the known dataset presets.
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"presets": schema.Presets(),
	})
}

// GetPreset returns one preset's schema.
func (h *Handler) GetPreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s, err := schema.FromPreset(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":                name,
		"schema":              s.Spec(),
		"supports_timestamps": s.SupportsTimestamps(),
		"has_division":        s.HasDivision(),
		"endpoint":            s.EndpointURL(string(query.FormatJSON)),
		"info":                s.Info(),
	})
}

// ListCategories returns the categories with their keywords and curated types.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	refs := snapshot.ReferencesFor(h.categorizer, time.Now())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories":       offense.Categories(),
		"offense_type_map": refs.OffenseTypeMap,
	})
}

// Categorize classifies one offense string or a batch.
func (h *Handler) Categorize(w http.ResponseWriter, r *http.Request) {
	var req models.CategorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	inputs := req.Offenses
	if req.Offense != "" {
		inputs = append([]string{req.Offense}, inputs...)
	}
	if len(inputs) == 0 {
		writeError(w, http.StatusBadRequest, "Offense or offenses is required")
		return
	}
	if len(inputs) > maxBatch {
		writeError(w, http.StatusBadRequest, "Too many offenses, maximum is "+strconv.Itoa(maxBatch))
		return
	}

	results := make([]models.CategorizeResult, 0, len(inputs))
	for _, in := range inputs {
		cat := h.categorizer.Categorize(in)
		h.metrics.ObserveCategory(string(cat))
		results = append(results, models.CategorizeResult{Offense: in, Category: cat})
	}

	if req.Offense != "" && len(req.Offenses) == 0 {
		writeJSON(w, http.StatusOK, results[0])
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

// SearchOffenses finds curated offense types containing a keyword.
func (h *Handler) SearchOffenses(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		writeError(w, http.StatusBadRequest, "Keyword is required")
		return
	}
	matches := h.categorizer.SearchByKeyword(keyword)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"keyword": keyword,
		"matches": matches,
		"count":   len(matches),
	})
}

// writeFailure maps a domain error onto a status code.
func writeFailure(w http.ResponseWriter, err error, action string) {
	var validation *query.ValidationError
	var cfgErr *schema.ConfigurationError
	var apiErr *socrata.APIError

	switch {
	case errors.As(err, &validation), errors.As(err, &cfgErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.As(err, &apiErr):
		log.Warn().Err(err).Int("status", apiErr.StatusCode).Msg(action + " rejected by portal")
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		log.Error().Err(err).Msg(action + " failed")
		writeError(w, http.StatusInternalServerError, action+" failed")
	}
}

func pagination(r *http.Request, defaultLimit int) (int, int) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = defaultLimit
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
