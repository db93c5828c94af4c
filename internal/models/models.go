// Package models defines the core data structures used throughout the application.
package models

import (
	"time"

	"github.com/dallasopendata/incidents/internal/offense"
	"github.com/dallasopendata/incidents/internal/query"
	"github.com/dallasopendata/incidents/internal/response"
	"github.com/dallasopendata/incidents/internal/schema"
)

// Tally is a value with its occurrence count.
type Tally struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ActiveCall is one row of an active calls snapshot, shaped for the static
// dashboard. Nullable columns are pointers so they encode as null.
type ActiveCall struct {
	CallNumber *string          `json:"call_number"` // unit number; the feed has no call id
	Nature     *string          `json:"nature"`
	Beat       *string          `json:"beat"`
	Address    *string          `json:"address"`
	Time       *string          `json:"time"` // always null, the feed has no timestamps
	Category   offense.Category `json:"category"`

	UnitNumber   *string `json:"unit_number"`
	Block        *string `json:"block"`
	Location     *string `json:"location"`
	NatureOfCall *string `json:"nature_of_call"`
}

// BeatCount is the number of active calls in a beat.
type BeatCount struct {
	Region *string `json:"region"`
	Beat   string  `json:"beat"`
	Count  int     `json:"count"`
}

// SnapshotSummary describes when and from where a snapshot was taken.
type SnapshotSummary struct {
	GeneratedAt time.Time `json:"generated_at"`
	TotalCalls  int       `json:"total_calls"`
	Dataset     string    `json:"dataset"`
	DatasetID   string    `json:"dataset_id"`
	Note        string    `json:"note,omitempty"`
}

// ActiveCallsSnapshot is the dashboard artifact built from one fetch of an
// active calls feed.
type ActiveCallsSnapshot struct {
	ID           string          `json:"id,omitempty"`
	Summary      SnapshotSummary `json:"summary"`
	ByRegionBeat []BeatCount     `json:"by_region_beat"`
	ByCategory   []Tally         `json:"by_category"`
	Calls        []ActiveCall    `json:"calls"`
}

// SnapshotInfo is the stored metadata of a snapshot without its calls.
type SnapshotInfo struct {
	ID          string    `json:"id"`
	Dataset     string    `json:"dataset"`
	DatasetID   string    `json:"dataset_id"`
	TotalCalls  int       `json:"total_calls"`
	GeneratedAt time.Time `json:"generated_at"`
}

// SnapshotStats aggregates call volume across stored snapshots.
type SnapshotStats struct {
	Snapshots    int     `json:"snapshots"`
	AverageCount float64 `json:"average_count"`
	PeakCount    int     `json:"peak_count"`
	// Durations maps a call key to how long it stayed on the feed, in seconds.
	Durations map[string]float64 `json:"durations,omitempty"`
}

// CategoryStats is the size of one category's rule entry.
type CategoryStats struct {
	Category     offense.Category `json:"category"`
	KeywordCount int              `json:"keyword_count"`
	TypeCount    int              `json:"type_count"`
}

// CategoryTypes lists one category's keywords and curated offense types.
type CategoryTypes struct {
	Category     offense.Category `json:"category"`
	Keywords     []string         `json:"keywords"`
	OffenseTypes []string         `json:"offense_types"`
}

// References is the static reference artifact: presets and the offense table.
type References struct {
	GeneratedAt       time.Time           `json:"generated_at"`
	Presets           []schema.Descriptor `json:"presets"`
	OffenseCategories []CategoryStats     `json:"offense_categories"`
	OffenseTypeMap    []CategoryTypes     `json:"offense_type_map"`
}

// TrackedCall is an active call captured for later lookup in historical data.
type TrackedCall struct {
	ID           string    `json:"id"`
	NatureOfCall string    `json:"nature_of_call"`
	Location     string    `json:"location"`
	Beat         string    `json:"beat"`
	Block        string    `json:"block,omitempty"`
	UnitNumber   string    `json:"unit_number,omitempty"`
	CapturedAt   time.Time `json:"captured_at"`
	Notes        string    `json:"notes,omitempty"`
	Tags         []string  `json:"tags"`
}

// TrackedSummary aggregates tracked calls.
type TrackedSummary struct {
	TotalTracked    int        `json:"total_tracked"`
	Beats           []Tally    `json:"beats"`
	CallTypes       []Tally    `json:"call_types"`
	Tags            []Tally    `json:"tags"`
	EarliestCapture *time.Time `json:"earliest_capture,omitempty"`
	LatestCapture   *time.Time `json:"latest_capture,omitempty"`
}

// TrackedCallFilter narrows ListTrackedCalls. Empty fields match everything.
type TrackedCallFilter struct {
	Beat  string
	Tag   string
	Limit int
}

// Warning represents a non-fatal issue during processing.
type Warning struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// CategorizeRequest is the body for the categorize endpoint. Either a single
// offense or a batch may be given.
type CategorizeRequest struct {
	Offense  string   `json:"offense,omitempty"`
	Offenses []string `json:"offenses,omitempty"`
}

// CategorizeResult pairs an input string with its category.
type CategorizeResult struct {
	Offense  string           `json:"offense"`
	Category offense.Category `json:"category"`
}

// CompileRequest selects a dataset by preset or explicit schema and carries
// the query to translate.
type CompileRequest struct {
	Preset string       `json:"preset,omitempty"`
	Schema *schema.Spec `json:"schema,omitempty"`
	Query  query.Query  `json:"query"`
}

// CompileResponse is the translated query.
type CompileResponse struct {
	DatasetID string        `json:"dataset_id"`
	Endpoint  string        `json:"endpoint"`
	Where     string        `json:"where"`
	Params    []query.Param `json:"params"`
	URL       string        `json:"url"`
	Warnings  []Warning     `json:"warnings,omitempty"`
}

// IncidentsRequest fetches records. With All set every page is retrieved.
type IncidentsRequest struct {
	CompileRequest
	All bool `json:"all,omitempty"`
}

// IncidentsResponse is the fetched data with derived views.
type IncidentsResponse struct {
	DatasetID     string                    `json:"dataset_id"`
	Where         string                    `json:"where"`
	Format        query.Format              `json:"format"`
	TotalReturned int                       `json:"total_returned"`
	HasGeometry   bool                      `json:"has_geometry"`
	Data          []response.Record         `json:"data"`
	Summary       *response.Summary         `json:"summary,omitempty"`
	Categories    []Tally                   `json:"categories,omitempty"`
	Demographics  map[string]map[string]int `json:"demographics,omitempty"`
	Warnings      []Warning                 `json:"warnings,omitempty"`
}

// TrackRequest captures an active call row.
type TrackRequest struct {
	Call  map[string]any `json:"call"`
	Notes string         `json:"notes,omitempty"`
	Tags  []string       `json:"tags,omitempty"`
}

// TrackedQueriesResponse is the set of historical queries for tracked calls.
type TrackedQueriesResponse struct {
	DaysAfter int               `json:"days_after"`
	Queries   []*query.Query    `json:"queries"`
	Compiled  []CompileResponse `json:"compiled,omitempty"`
}
