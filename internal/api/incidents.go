package api

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/dallasopendata/incidents/internal/models"
	"github.com/dallasopendata/incidents/internal/query"
	"github.com/dallasopendata/incidents/internal/response"
	"github.com/dallasopendata/incidents/internal/schema"
)

// resolveSchema picks the request's dataset: a preset, then an explicit
// schema, then the configured default.
func (h *Handler) resolveSchema(preset string, spec *schema.Spec) (schema.Schema, error) {
	switch {
	case preset != "":
		return schema.FromPreset(preset)
	case spec != nil:
		return spec.Build()
	}
	return h.dataset, nil
}

func (h *Handler) compile(q *query.Query, s schema.Schema) (models.CompileResponse, error) {
	compiled, err := h.compiler.Compile(q, s)
	if err != nil {
		return models.CompileResponse{}, err
	}
	h.metrics.ObserveCompile(s.DatasetID, compiled.Omitted)

	endpoint := s.EndpointURL(string(q.Format))
	out := models.CompileResponse{
		DatasetID: s.DatasetID,
		Endpoint:  endpoint,
		Where:     compiled.Where,
		Params:    compiled.Params,
		URL:       endpoint + "?" + compiled.Values().Encode(),
		Warnings:  omittedWarnings(compiled.Omitted),
	}
	return out, nil
}

func omittedWarnings(omitted []string) []models.Warning {
	var warnings []models.Warning
	for _, name := range omitted {
		warnings = append(warnings, models.Warning{
			Source:  name,
			Message: "filter not supported by this dataset and was dropped",
		})
	}
	return warnings
}

// Compile translates a query into SoQL without contacting the portal.
func (h *Handler) Compile(w http.ResponseWriter, r *http.Request) {
	req := models.CompileRequest{Query: query.Default()}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Query.Validate(); err != nil {
		writeFailure(w, err, "Compile")
		return
	}

	s, err := h.resolveSchema(req.Preset, req.Schema)
	if err != nil {
		writeFailure(w, err, "Compile")
		return
	}

	out, err := h.compile(&req.Query, s)
	if err != nil {
		writeFailure(w, err, "Compile")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Incidents compiles a query and fetches the matching records.
func (h *Handler) Incidents(w http.ResponseWriter, r *http.Request) {
	req := models.IncidentsRequest{CompileRequest: models.CompileRequest{Query: query.Default()}}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Query.Validate(); err != nil {
		writeFailure(w, err, "Fetch")
		return
	}

	s, err := h.resolveSchema(req.Preset, req.Schema)
	if err != nil {
		writeFailure(w, err, "Fetch")
		return
	}
	compiled, err := h.compile(&req.Query, s)
	if err != nil {
		writeFailure(w, err, "Fetch")
		return
	}

	fetcher, err := h.fetchers(s)
	if err != nil {
		writeFailure(w, err, "Fetch")
		return
	}

	var resp *response.Response
	if req.All {
		resp, err = fetcher.Collect(r.Context(), &req.Query)
	} else {
		resp, err = fetcher.Get(r.Context(), &req.Query)
	}
	if err != nil {
		writeFailure(w, err, "Fetch")
		return
	}

	summary := resp.Summary()
	writeJSON(w, http.StatusOK, models.IncidentsResponse{
		DatasetID:     s.DatasetID,
		Where:         compiled.Where,
		Format:        resp.Format,
		TotalReturned: resp.TotalReturned,
		HasGeometry:   resp.HasGeometry(),
		Data:          resp.Data,
		Summary:       &summary,
		Categories:    h.categoryTallies(resp, s),
		Demographics:  demographics(resp),
		Warnings:      compiled.Warnings,
	})
}

// demographics is nil unless some record carries a complainant column.
func demographics(resp *response.Response) map[string]map[string]int {
	breakdown := resp.DemographicBreakdown()
	for _, counts := range breakdown {
		if len(counts) > 0 {
			return breakdown
		}
	}
	return nil
}

func (h *Handler) categoryTallies(resp *response.Response, s schema.Schema) []models.Tally {
	field := s.OffenseField
	if field == "" {
		field = "nature_of_call"
	}
	counts := resp.CategoryCounts(h.categorizer, field)

	tallies := make([]models.Tally, 0, len(counts))
	for cat, n := range counts {
		tallies = append(tallies, models.Tally{Value: string(cat), Count: n})
	}
	sort.Slice(tallies, func(i, j int) bool {
		if tallies[i].Count != tallies[j].Count {
			return tallies[i].Count > tallies[j].Count
		}
		return tallies[i].Value < tallies[j].Value
	})
	return tallies
}
