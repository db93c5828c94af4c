package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dallasopendata/incidents/internal/models"
	"github.com/dallasopendata/incidents/internal/offense"
	"github.com/dallasopendata/incidents/internal/query"
	"github.com/dallasopendata/incidents/internal/response"
	"github.com/dallasopendata/incidents/internal/schema"
)

type fakeFetcher struct {
	schema  schema.Schema
	records []response.Record
	err     error
	gotQ    *query.Query
}

func (f *fakeFetcher) Get(_ context.Context, q *query.Query) (*response.Response, error) {
	f.gotQ = q
	if f.err != nil {
		return nil, f.err
	}
	return response.New(f.records, q, f.schema), nil
}

func (f *fakeFetcher) Schema() schema.Schema { return f.schema }

func activeCallsFetcher(t *testing.T, records ...response.Record) *fakeFetcher {
	t.Helper()
	s, err := schema.FromPreset(schema.PresetActiveCallsAll)
	require.NoError(t, err)
	return &fakeFetcher{schema: s, records: records}
}

var fixedNow = time.Date(2025, 6, 1, 14, 30, 15, 500, time.UTC)

func TestActiveCalls(t *testing.T) {
	f := activeCallsFetcher(t,
		response.Record{"nature_of_call": "ASSAULT", "beat": "241", "block": "1200", "location": "MAIN ST", "unit_number": "B241"},
		response.Record{"nature_of_call": "BURGLARY OF VEHICLE", "beat": " 112 ", "location": "ELM ST"},
		response.Record{"nature_of_call": "DISTURBANCE", "beat": "241"},
		response.Record{"nature": "LOUD MUSIC", "beat": "", "unit": "X1"},
		response.Record{"beat": "112"},
	)

	snap, err := NewBuilder(f, WithClock(func() time.Time { return fixedNow })).ActiveCalls(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, DefaultLimit, f.gotQ.Limit)

	assert.Equal(t, "active_calls_all", snap.Summary.Dataset)
	assert.Equal(t, "9fxf-t2tr", snap.Summary.DatasetID)
	assert.Equal(t, 5, snap.Summary.TotalCalls)
	assert.Equal(t, fixedNow.Truncate(time.Second), snap.Summary.GeneratedAt)
	assert.NotEmpty(t, snap.Summary.Note)

	assert.Equal(t, []models.BeatCount{
		{Beat: "112", Count: 2},
		{Beat: "241", Count: 2},
	}, snap.ByRegionBeat)

	require.Len(t, snap.Calls, 5)
	first := snap.Calls[0]
	assert.Equal(t, "B241", *first.CallNumber)
	assert.Equal(t, "ASSAULT", *first.Nature)
	assert.Equal(t, "1200 MAIN ST", *first.Address)
	assert.Nil(t, first.Time)
	assert.Equal(t, offense.Assault, first.Category)

	second := snap.Calls[1]
	assert.Equal(t, "112", *second.Beat)
	assert.Equal(t, "ELM ST", *second.Address)
	assert.Nil(t, second.CallNumber)
	assert.Equal(t, offense.Burglary, second.Category)

	fourth := snap.Calls[3]
	assert.Nil(t, fourth.Beat)
	assert.Nil(t, fourth.Address)
	assert.Equal(t, "LOUD MUSIC", *fourth.NatureOfCall)
	assert.Equal(t, "X1", *fourth.UnitNumber)

	last := snap.Calls[4]
	assert.Nil(t, last.Nature)
	assert.Equal(t, offense.Other, last.Category)

	total := 0
	for _, c := range snap.ByCategory {
		total += c.Count
	}
	assert.Equal(t, 5, total)
	assert.True(t, sort.SliceIsSorted(snap.ByCategory, func(i, j int) bool {
		a, b := snap.ByCategory[i], snap.ByCategory[j]
		return a.Count > b.Count || (a.Count == b.Count && a.Value < b.Value)
	}))
}

func TestActiveCalls_JSONShape(t *testing.T) {
	f := activeCallsFetcher(t, response.Record{"nature_of_call": "ASSAULT", "beat": "241"})
	snap, err := BuildActiveCalls(context.Background(), f, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, f.gotQ.Limit)

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	calls := decoded["calls"].([]any)
	call := calls[0].(map[string]any)
	for _, key := range []string{"call_number", "nature", "beat", "address", "time", "category"} {
		assert.Contains(t, call, key)
	}
	assert.Nil(t, call["time"])
	assert.Nil(t, call["call_number"])
	region := decoded["by_region_beat"].([]any)[0].(map[string]any)
	assert.Contains(t, region, "region")
	assert.Nil(t, region["region"])
}

func TestActiveCalls_FetchError(t *testing.T) {
	f := activeCallsFetcher(t)
	f.err = errors.New("portal down")
	_, err := BuildActiveCalls(context.Background(), f, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "portal down")
}

func TestActiveCalls_CustomSchemaName(t *testing.T) {
	s, err := schema.New("abcd-1234", "location", schema.WithName("Test Feed"))
	require.NoError(t, err)
	f := &fakeFetcher{schema: s}

	snap, err := BuildActiveCalls(context.Background(), f, 1)
	require.NoError(t, err)
	assert.Equal(t, "Test Feed", snap.Summary.Dataset)
	assert.Empty(t, snap.Calls)
	assert.Empty(t, snap.ByRegionBeat)
}

func TestReferences(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	refs := ReferencesFor(offense.Default(), now)

	assert.Equal(t, now, refs.GeneratedAt)
	assert.Len(t, refs.Presets, len(schema.PresetNames()))
	require.NotEmpty(t, refs.OffenseCategories)
	require.Equal(t, len(refs.OffenseCategories), len(refs.OffenseTypeMap))

	for i := range refs.OffenseTypeMap {
		if i > 0 {
			assert.Less(t, refs.OffenseTypeMap[i-1].Category, refs.OffenseTypeMap[i].Category)
		}
		entry := refs.OffenseTypeMap[i]
		assert.NotEqual(t, offense.Other, entry.Category)
		assert.True(t, sort.StringsAreSorted(entry.Keywords))
		assert.Equal(t, refs.OffenseCategories[i].Category, entry.Category)
		assert.Equal(t, len(entry.Keywords), refs.OffenseCategories[i].KeywordCount)
		assert.Equal(t, len(entry.OffenseTypes), refs.OffenseCategories[i].TypeCount)
	}
}

func TestReferences_CustomTable(t *testing.T) {
	c := offense.NewCategorizer([]offense.Rule{
		{Category: offense.Theft, Offenses: []string{"THEFT OF PROP"}, Keywords: []string{"theft", "shoplift"}},
		{Category: offense.Animal, Keywords: []string{"dog"}},
	})
	refs := ReferencesFor(c, time.Now())
	require.Len(t, refs.OffenseTypeMap, 1)
	assert.Equal(t, offense.Theft, refs.OffenseTypeMap[0].Category)
	assert.Equal(t, []string{"shoplift", "theft"}, refs.OffenseTypeMap[0].Keywords)
}

func TestStats(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	call := func(beat, loc, nature string) models.ActiveCall {
		return models.ActiveCall{Beat: &beat, Location: &loc, NatureOfCall: &nature}
	}
	snaps := []*models.ActiveCallsSnapshot{
		{
			Summary: models.SnapshotSummary{GeneratedAt: base, TotalCalls: 2},
			Calls:   []models.ActiveCall{call("241", "MAIN ST", "ASSAULT"), call("112", "ELM ST", "THEFT")},
		},
		{
			Summary: models.SnapshotSummary{GeneratedAt: base.Add(5 * time.Minute), TotalCalls: 3},
			Calls: []models.ActiveCall{
				call("241", "MAIN ST", "ASSAULT"), call("300", "OAK ST", "DISTURBANCE"), call("301", "PINE ST", "ALARM"),
			},
		},
		{
			Summary: models.SnapshotSummary{GeneratedAt: base.Add(15 * time.Minute), TotalCalls: 1},
			Calls:   []models.ActiveCall{call("241", "MAIN ST", "ASSAULT")},
		},
	}

	stats := Stats(snaps)
	assert.Equal(t, 3, stats.Snapshots)
	assert.InDelta(t, 2.0, stats.AverageCount, 1e-9)
	assert.Equal(t, 3, stats.PeakCount)
	assert.Equal(t, map[string]float64{"241_MAIN ST_ASSAULT": 900}, stats.Durations)
}

func TestStats_Empty(t *testing.T) {
	stats := Stats(nil)
	assert.Equal(t, 0, stats.Snapshots)
	assert.Zero(t, stats.AverageCount)
	assert.Zero(t, stats.PeakCount)
	assert.Empty(t, stats.Durations)
}

func TestWriteJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "docs", "data")
	path, err := WriteJSON(dir, "references.json", map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "references.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}\n", string(data))
}
