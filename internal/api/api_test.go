package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dallasopendata/incidents/internal/config"
	"github.com/dallasopendata/incidents/internal/database"
	"github.com/dallasopendata/incidents/internal/models"
	"github.com/dallasopendata/incidents/internal/query"
	"github.com/dallasopendata/incidents/internal/response"
	"github.com/dallasopendata/incidents/internal/schema"
	"github.com/dallasopendata/incidents/internal/socrata"
	"github.com/dallasopendata/incidents/internal/telemetry"
)

type fakeFetcher struct {
	schema  schema.Schema
	records []response.Record
	err     error
	calls   *[]string
}

func (f *fakeFetcher) record(kind string) {
	if f.calls != nil {
		*f.calls = append(*f.calls, kind)
	}
}

func (f *fakeFetcher) Get(_ context.Context, q *query.Query) (*response.Response, error) {
	f.record("get")
	if f.err != nil {
		return nil, f.err
	}
	return response.New(f.records, q, f.schema), nil
}

func (f *fakeFetcher) Collect(_ context.Context, q *query.Query) (*response.Response, error) {
	f.record("collect")
	if f.err != nil {
		return nil, f.err
	}
	return response.New(f.records, q, f.schema), nil
}

func (f *fakeFetcher) Schema() schema.Schema { return f.schema }

type testServer struct {
	handler http.Handler
	store   *database.SQLiteStore
	metrics *telemetry.Metrics
	calls   []string
	records map[string][]response.Record
	err     error
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := database.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ts := &testServer{store: store, metrics: telemetry.New(), records: map[string][]response.Record{}}
	factory := func(s schema.Schema) (Fetcher, error) {
		return &fakeFetcher{schema: s, records: ts.records[s.DatasetID], err: ts.err, calls: &ts.calls}, nil
	}

	cfg := config.DefaultConfig()
	cfg.Server.EnableUI = true
	cfg.RateLimits.RequestsPerMinute = 0
	h, err := NewHandler(cfg, store, ts.metrics, factory)
	require.NoError(t, err)
	ts.handler = NewRouter(cfg, h, ts.metrics)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndRequestID(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "qv6i-rri7", body["dataset"])
}

func TestPresets(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/presets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Presets []schema.Descriptor `json:"presets"`
	}](t, rec)
	assert.Len(t, body.Presets, len(schema.PresetNames()))

	rec = ts.do(t, http.MethodGet, "/api/v1/presets/active_calls_all", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	preset := decode[map[string]any](t, rec)
	assert.Equal(t, false, preset["supports_timestamps"])
	assert.Equal(t, "https://www.dallasopendata.com/resource/9fxf-t2tr.json", preset["endpoint"])

	rec = ts.do(t, http.MethodGet, "/api/v1/presets/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategorize(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/categorize", models.CategorizeRequest{Offense: "ASSAULT (AGG) -DEADLY WEAPON"})
	require.Equal(t, http.StatusOK, rec.Code)
	single := decode[models.CategorizeResult](t, rec)
	assert.Equal(t, "assault", string(single.Category))

	rec = ts.do(t, http.MethodPost, "/api/v1/categorize", models.CategorizeRequest{Offenses: []string{"BMV", "", "SOMETHING ODD"}})
	require.Equal(t, http.StatusOK, rec.Code)
	batch := decode[struct {
		Results []models.CategorizeResult `json:"results"`
	}](t, rec)
	require.Len(t, batch.Results, 3)
	assert.Equal(t, "burglary", string(batch.Results[0].Category))
	assert.Equal(t, "other", string(batch.Results[1].Category))
	assert.Equal(t, "other", string(batch.Results[2].Category))

	rec = ts.do(t, http.MethodPost, "/api/v1/categorize", models.CategorizeRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/categorize", "{bad")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCategoriesAndOffenseSearch(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cats := decode[map[string]any](t, rec)
	assert.Len(t, cats["categories"], 15)

	rec = ts.do(t, http.MethodGet, "/api/v1/offenses/search?keyword=bmv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[map[string]any](t, rec)
	assert.Greater(t, found["count"], float64(0))

	rec = ts.do(t, http.MethodGet, "/api/v1/offenses/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompile(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name     string
		body     string
		status   int
		where    string
		warnings []string
	}{
		{
			name:   "default dataset",
			body:   `{"query": {"beats": ["241", 112], "limit": 50}}`,
			status: http.StatusOK,
			where:  "beat IN ('241', '112')",
		},
		{
			name:     "preset degrades unsupported filters",
			body:     `{"preset": "active_calls_all", "query": {"beats": ["241"], "date_range": {"start": "2024-01-01"}, "division": "CENTRAL"}}`,
			status:   http.StatusOK,
			where:    "beat IN ('241')",
			warnings: []string{"division", "date_range"},
		},
		{
			name:   "explicit schema",
			body:   `{"schema": {"dataset_id": "abcd-1234", "location_field": "location", "beat_field": "patrol_beat"}, "query": {"beats": ["9"]}}`,
			status: http.StatusOK,
			where:  "patrol_beat IN ('9')",
		},
		{
			name:   "omitted query keeps defaults",
			body:   `{"preset": "police_incidents"}`,
			status: http.StatusOK,
			where:  "",
		},
		{name: "invalid limit", body: `{"query": {"limit": 0}}`, status: http.StatusBadRequest},
		{name: "invalid geo", body: `{"query": {"geo": {"latitude": 91, "longitude": 0, "radius_meters": 10}}}`, status: http.StatusBadRequest},
		{name: "unknown category", body: `{"query": {"offense_category": "nope"}}`, status: http.StatusBadRequest},
		{name: "unknown preset", body: `{"preset": "nope"}`, status: http.StatusBadRequest},
		{name: "schema without location", body: `{"schema": {"dataset_id": "abcd-1234"}}`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/v1/compile", tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status != http.StatusOK {
				assert.Contains(t, decode[map[string]string](t, rec), "error")
				return
			}
			out := decode[models.CompileResponse](t, rec)
			assert.Equal(t, tt.where, out.Where)
			assert.Contains(t, out.URL, "%24limit=")
			var got []string
			for _, w := range out.Warnings {
				got = append(got, w.Source)
			}
			assert.Equal(t, tt.warnings, got)
		})
	}
}

func TestIncidents(t *testing.T) {
	ts := newTestServer(t)
	ts.records["qv6i-rri7"] = []response.Record{
		{"beat": "241", "offincident": "BMV", "ucr_offense": "BMV", "date1": "2024-01-05T00:00:00.000"},
		{"beat": "241", "offincident": "ASSAULT -BODILY INJURY ONLY", "ucr_offense": "ASSAULT", "date1": "2024-01-07T00:00:00.000"},
	}

	rec := ts.do(t, http.MethodPost, "/api/v1/incidents", `{"query": {"beats": ["241"]}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[models.IncidentsResponse](t, rec)
	assert.Equal(t, "qv6i-rri7", out.DatasetID)
	assert.Equal(t, "beat IN ('241')", out.Where)
	assert.Equal(t, 2, out.TotalReturned)
	require.NotNil(t, out.Summary)
	assert.Equal(t, "2024-01-05", out.Summary.DateRange.Earliest)
	assert.ElementsMatch(t, []models.Tally{{Value: "assault", Count: 1}, {Value: "burglary", Count: 1}}, out.Categories)
	assert.Equal(t, []string{"get"}, ts.calls)

	rec = ts.do(t, http.MethodPost, "/api/v1/incidents", `{"all": true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"get", "collect"}, ts.calls)
}

func TestIncidents_PortalError(t *testing.T) {
	ts := newTestServer(t)
	ts.err = &socrata.APIError{StatusCode: 400, Body: "bad soql"}

	rec := ts.do(t, http.MethodPost, "/api/v1/incidents", `{}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad soql")
}

func TestSnapshots(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/snapshots/latest", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ts.records["9fxf-t2tr"] = []response.Record{
		{"nature_of_call": "ASSAULT", "beat": "241", "location": "MAIN ST"},
		{"nature_of_call": "DISTURBANCE", "beat": "241"},
	}
	rec = ts.do(t, http.MethodPost, "/api/v1/snapshots", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.ActiveCallsSnapshot](t, rec)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "active_calls_all", created.Summary.Dataset)

	rec = ts.do(t, http.MethodGet, "/api/v1/snapshots/latest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[models.ActiveCallsSnapshot](t, rec).ID)

	rec = ts.do(t, http.MethodGet, "/api/v1/snapshots/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[models.ActiveCallsSnapshot](t, rec).Summary.TotalCalls)

	rec = ts.do(t, http.MethodGet, "/api/v1/snapshots/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/snapshots", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Snapshots []models.SnapshotInfo `json:"snapshots"`
	}](t, rec)
	require.Len(t, list.Snapshots, 1)

	rec = ts.do(t, http.MethodGet, "/api/v1/snapshots/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[models.SnapshotStats](t, rec)
	assert.Equal(t, 1, stats.Snapshots)
	assert.Equal(t, 2, stats.PeakCount)
}

func TestTracked(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/tracked", models.TrackRequest{
		Call:  map[string]any{"nature_of_call": "BURGLARY", "beat": "241", "location": "MAIN ST"},
		Notes: "residential",
		Tags:  []string{"property"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	call := decode[models.TrackedCall](t, rec)
	assert.Equal(t, "241", call.Beat)
	assert.Equal(t, []string{"property"}, call.Tags)

	rec = ts.do(t, http.MethodPost, "/api/v1/tracked", models.TrackRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/tracked?tag=property", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode[map[string]any](t, rec)["count"])

	rec = ts.do(t, http.MethodGet, "/api/v1/tracked/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[models.TrackedSummary](t, rec).TotalTracked)

	rec = ts.do(t, http.MethodGet, "/api/v1/tracked/queries?days_after=2", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	queries := decode[models.TrackedQueriesResponse](t, rec)
	assert.Equal(t, 2, queries.DaysAfter)
	require.Len(t, queries.Compiled, 1)
	day := call.CapturedAt.UTC().Format(time.DateOnly)
	assert.True(t, strings.HasPrefix(queries.Compiled[0].Where, "beat IN ('241') AND date1 >= '"+day))
	assert.Equal(t, 100, queries.Queries[0].Limit)

	rec = ts.do(t, http.MethodGet, "/api/v1/tracked/queries?days_after=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/v1/tracked/"+call.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodDelete, "/api/v1/tracked/"+call.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsAndIndex(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/api/v1/presets/police_incidents", nil)

	rec := ts.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/api/v1/presets/{name}"`)

	rec = ts.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dallas Incidents API")
}

func TestRateLimit(t *testing.T) {
	store, err := database.NewSQLiteStore(filepath.Join(t.TempDir(), "rl.db"))
	require.NoError(t, err)
	defer store.Close()

	cfg := config.DefaultConfig()
	cfg.RateLimits.RequestsPerMinute = 2
	h, err := NewHandler(cfg, store, nil, nil)
	require.NoError(t, err)
	router := NewRouter(cfg, h, nil)

	var codes []int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/presets", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "health is not rate limited")
}
