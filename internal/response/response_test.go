package response

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dallasopendata/incidents/internal/offense"
	"github.com/dallasopendata/incidents/internal/query"
	"github.com/dallasopendata/incidents/internal/schema"
)

func preset(t *testing.T, name string) schema.Schema {
	t.Helper()
	s, err := schema.FromPreset(name)
	require.NoError(t, err)
	return s
}

func incidents() []Record {
	return []Record{
		{
			"beat": "241", "division": "NORTHEAST", "ucr_offense": "THEFT/BMV",
			"offincident": "BMV", "nibrs_type": "LARCENY", "date1": "2024-03-02T00:00:00.000",
			"geocoded_column": map[string]any{"type": "Point", "coordinates": []any{-96.75, 32.85}},
		},
		{
			"beat": "241", "division": "NORTHEAST", "ucr_offense": "ASSAULT",
			"offincident": "ASSAULT (AGG) -DEADLY WEAPON", "date1": "2024-01-15T00:00:00.000",
			"geocoded_column": map[string]any{"latitude": "32.86", "longitude": "-96.74"},
		},
		{
			"beat": "112", "division": "CENTRAL", "ucr_offense": "theft/bmv",
			"offincident": "MURDER", "date1": "2024-06-30T00:00:00.000",
		},
		{
			"beat": nil, "division": "", "ucr_offense": "VANDALISM", "date1": "garbage",
		},
	}
}

func TestNew(t *testing.T) {
	q, err := query.New(query.WithFormat(query.FormatGeoJSON))
	require.NoError(t, err)

	data := incidents()
	r := New(data, q, preset(t, schema.PresetPoliceIncidents))
	assert.Equal(t, 4, r.TotalReturned)
	assert.Equal(t, query.FormatGeoJSON, r.Format)

	data[0] = Record{"beat": "999"}
	assert.Equal(t, "241", r.Data[0]["beat"], "response holds its own slice")

	empty := New(nil, nil, preset(t, schema.PresetActiveCallsAll))
	assert.NotNil(t, empty.Data)
	assert.Equal(t, query.FormatJSON, empty.Format)
	assert.False(t, empty.HasGeometry())
}

func TestHasGeometry_DependsOnSchema(t *testing.T) {
	calls := []Record{
		{"nature_of_call": "DISTURBANCE", "beat": "241", "location": nil},
		{"nature_of_call": "ALARM", "beat": "242", "location": "LBJ FWY / SKILLMAN ST"},
	}
	assert.True(t, New(calls, nil, preset(t, schema.PresetActiveCallsAll)).HasGeometry())
	assert.False(t, New(calls, nil, preset(t, schema.PresetPoliceIncidents)).HasGeometry())

	noLocation := []Record{{"beat": "241", "location": ""}}
	assert.False(t, New(noLocation, nil, preset(t, schema.PresetActiveCallsAll)).HasGeometry())

	feature := []Record{{"type": "Feature", "geometry": map[string]any{"type": "Point"}, "properties": map[string]any{}}}
	assert.True(t, New(feature, nil, preset(t, schema.PresetActiveCallsAll)).HasGeometry())
}

func TestUniqueValues(t *testing.T) {
	r := New(incidents(), nil, preset(t, schema.PresetPoliceIncidents))
	assert.Equal(t, []any{"241", "112"}, r.UniqueValues("beat"))
	assert.Equal(t, []any{"NORTHEAST", "CENTRAL"}, r.UniqueValues("division"))
	assert.Empty(t, r.UniqueValues("does_not_exist"))
}

func TestUniqueValues_GeoJSONProperties(t *testing.T) {
	data := []Record{
		{"type": "Feature", "properties": map[string]any{"beat": "241"}},
		{"type": "Feature", "properties": map[string]any{"beat": "241"}},
		{"type": "Feature", "properties": map[string]any{"beat": 242.0}},
	}
	r := New(data, nil, preset(t, schema.PresetPoliceIncidents))
	assert.Equal(t, []any{"241", 242.0}, r.UniqueValues("beat"))
}

func TestFilter_PreservesLinkageAndSource(t *testing.T) {
	q, err := query.New(query.WithBeats("241"))
	require.NoError(t, err)
	s := preset(t, schema.PresetPoliceIncidents)
	r := New(incidents(), q, s)

	f := r.Filter(func(rec Record) bool { return rec.String("beat") == "241" })
	assert.Equal(t, 2, f.TotalReturned)
	assert.Same(t, q, f.Query)
	assert.Equal(t, s.DatasetID, f.Schema.DatasetID)
	assert.Equal(t, 4, r.TotalReturned)
	assert.Len(t, r.Data, 4)

	none := r.Filter(func(Record) bool { return false })
	assert.NotNil(t, none.Data)
	assert.Zero(t, none.TotalReturned)
}

func TestFilterByOffense(t *testing.T) {
	r := New(incidents(), nil, preset(t, schema.PresetPoliceIncidents))
	assert.Equal(t, 2, r.FilterByOffense("Theft/BMV").TotalReturned)
}

func TestFilterByDate(t *testing.T) {
	r := New(incidents(), nil, preset(t, schema.PresetPoliceIncidents))

	f := r.FilterByDate(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 30, 15, 0, 0, 0, time.UTC))
	assert.Equal(t, 2, f.TotalReturned)
	assert.Equal(t, []any{"241", "112"}, f.UniqueValues("beat"))

	calls := New(incidents(), nil, preset(t, schema.PresetActiveCallsAll))
	assert.Zero(t, calls.FilterByDate(time.Time{}, time.Time{}).TotalReturned)
}

func TestCountByAndGroupBy(t *testing.T) {
	r := New(incidents(), nil, preset(t, schema.PresetPoliceIncidents))

	assert.Equal(t, map[string]int{"241": 2, "112": 1}, r.CountBy("beat"))
	assert.Equal(t, map[string]int{"NORTHEAST": 2, "CENTRAL": 1}, r.CountBy("division"))
	assert.Empty(t, r.CountBy("missing"))

	groups := r.GroupBy("beat")
	require.Len(t, groups["241"], 2)
	assert.Equal(t, "BMV", groups["241"][0]["offincident"])
}

func TestTopN(t *testing.T) {
	counts := map[string]int{"a": 1, "b": 3, "c": 3, "d": 2}
	assert.Equal(t, []Count{{"b", 3}, {"c", 3}}, TopN(counts, 2))
	assert.Len(t, TopN(counts, 0), 4)
	assert.Empty(t, TopN(nil, 3))
}

func TestCategoryCounts(t *testing.T) {
	r := New(incidents(), nil, preset(t, schema.PresetPoliceIncidents))
	counts := r.CategoryCounts(nil, "offincident")
	assert.Equal(t, 1, counts[offense.Burglary])
	assert.Equal(t, 1, counts[offense.Assault])
	assert.Equal(t, 1, counts[offense.Death])
	assert.Equal(t, 1, counts[offense.Other], "missing offense text falls back to other")
}

func TestSummary(t *testing.T) {
	r := New(incidents(), nil, preset(t, schema.PresetPoliceIncidents))
	s := r.Summary()

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.UniqueBeats)
	assert.Equal(t, 2, s.UniqueDivisions)
	assert.Equal(t, 4, s.UniqueOffenses, "offense tally is case-sensitive")
	assert.Equal(t, Count{"241", 2}, s.TopBeats[0])
	require.NotNil(t, s.DateRange)
	assert.Equal(t, "2024-01-15", s.DateRange.Earliest)
	assert.Equal(t, "2024-06-30", s.DateRange.Latest)
	require.NotNil(t, s.BoundingBox)
	assert.Equal(t, 32.85, s.BoundingBox.MinLat)
	assert.Equal(t, -96.74, s.BoundingBox.MaxLon)

	assert.Equal(t, Summary{}, New(nil, nil, preset(t, schema.PresetPoliceIncidents)).Summary())
}

func TestNearAndDistance(t *testing.T) {
	d := Distance(32.7767, -96.7970, 32.7767, -96.7970)
	assert.InDelta(t, 0, d, 1e-6)

	// One degree of latitude is roughly 111 km.
	assert.InDelta(t, 111195, Distance(32, -96, 33, -96), 50)

	r := New(incidents(), nil, preset(t, schema.PresetPoliceIncidents))
	near := r.Near(32.85, -96.75, 2000)
	assert.Equal(t, 2, near.TotalReturned)
	assert.Zero(t, r.Near(29.76, -95.37, 5000).TotalReturned)
}

func TestFeatures(t *testing.T) {
	r := New(incidents(), nil, preset(t, schema.PresetPoliceIncidents))
	fc := r.Features()

	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, [2]float64{-96.75, 32.85}, fc.Features[0].Geometry.Coordinates)
	assert.Equal(t, "241", fc.Features[0].Properties["beat"])
	assert.NotContains(t, fc.Features[0].Properties, "geocoded_column")
	assert.Contains(t, r.Data[0], "geocoded_column", "source record untouched")
}

func complainants() []Record {
	return []Record{
		{"comprace": "W", "compethnicity": "N", "compsex": "M", "offincident": "THEFT"},
		{"comprace": "B", "compethnicity": "N", "compsex": "F", "offincident": "THEFT"},
		{"comprace": "I", "compethnicity": "N", "compsex": "M", "offincident": "ASSAULT"},
		{"comprace": "w ", "compethnicity": "H", "compsex": "F", "offincident": "THEFT"},
		{"type": "Feature", "properties": map[string]any{"comprace": "A", "compsex": "M", "offincident": "ASSAULT"}},
		{"comprace": "z", "compethnicity": nil, "offincident": "BURGLARY"},
	}
}

func TestFilterByDemographics(t *testing.T) {
	r := New(complainants(), nil, preset(t, "police"))

	tests := []struct {
		name string
		d    query.Demographics
		want int
	}{
		{"no criteria", query.Demographics{}, 6},
		{"label resolves to its own code", query.Demographics{Race: "American Indian/Alaska Native"}, 1},
		{"asian is not american indian", query.Demographics{Race: "Asian"}, 1},
		{"code with raw value needing trim", query.Demographics{Race: "W", Sex: "female"}, 1},
		{"ethnicity", query.Demographics{Ethnicity: "Non-Hispanic"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.FilterByDemographics(tt.d)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.TotalReturned)
		})
	}

	got, err := r.FilterByDemographics(query.Demographics{Race: "American Indian"})
	require.Error(t, err)
	assert.Nil(t, got)

	_, err = r.FilterByDemographics(query.Demographics{Sex: "unspecified"})
	var verr *query.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "demographics.sex", verr.Field)
}

func TestCountByDemographic(t *testing.T) {
	r := New(complainants(), nil, preset(t, "police"))

	assert.Equal(t, map[string]int{
		"White": 2, "Black": 1, "American Indian/Alaska Native": 1, "Asian": 1, "Z": 1,
	}, r.CountByDemographic(query.FieldRace))
	assert.Equal(t, map[string]int{"Male": 3, "Female": 2}, r.CountByDemographic(query.FieldSex))

	breakdown := r.DemographicBreakdown()
	assert.Len(t, breakdown, 3)
	assert.Equal(t, map[string]int{"Non-Hispanic": 3, "Hispanic": 1}, breakdown["ethnicity"])
	assert.Equal(t, 2, breakdown["race"]["White"])
}

func TestDemographicPercentages(t *testing.T) {
	r := New(complainants(), nil, preset(t, "police"))

	pct := r.DemographicPercentages(query.FieldSex)
	assert.InDelta(t, 60.0, pct["Male"], 1e-9)
	assert.InDelta(t, 40.0, pct["Female"], 1e-9)

	empty := New(nil, nil, preset(t, "police"))
	assert.Empty(t, empty.DemographicPercentages(query.FieldRace))
}

func TestCrossTabulate(t *testing.T) {
	r := New(complainants(), nil, preset(t, "police"))

	assert.Equal(t, map[Pair]int{
		{First: "Non-Hispanic", Second: "Male"}:   2,
		{First: "Non-Hispanic", Second: "Female"}: 1,
		{First: "Hispanic", Second: "Female"}:     1,
	}, r.CrossTabulate(query.FieldEthnicity, query.FieldSex))
}

func TestCompareDemographicsByOffense(t *testing.T) {
	r := New(complainants(), nil, preset(t, "police"))

	assert.Equal(t, map[string]map[string]int{
		"THEFT": {"Male": 1, "Female": 2},
	}, r.CompareDemographicsByOffense("offincident", query.FieldSex, 1))

	got := r.CompareDemographicsByOffense("", query.FieldSex, 2)
	assert.Len(t, got, 2)
	assert.Equal(t, map[string]int{"Male": 2}, got["ASSAULT"])
	assert.NotContains(t, got, "BURGLARY")

	assert.Len(t, r.CompareDemographicsByOffense("offincident", query.FieldRace, 0), 3)
}

func TestDemographicSummary(t *testing.T) {
	r := New(complainants(), nil, preset(t, "police"))

	s := r.DemographicSummary()
	assert.Contains(t, s, "Demographic Analysis (6 incidents):")
	assert.Contains(t, s, "SEX:\n  Male: 3 (60.0%)\n  Female: 2 (40.0%)\n")
	assert.Contains(t, s, "  Z: 1 (16.7%)")
}
