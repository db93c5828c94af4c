package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPreset(t *testing.T) {
	tests := []struct {
		name          string
		preset        string
		datasetID     string
		timestamps    bool
		division      bool
		extended      bool
		locationField string
	}{
		{"police incidents", "police_incidents", "qv6i-rri7", true, true, true, "geocoded_column"},
		{"northeast calls", "active_calls_northeast", "juse-v5tw", false, false, false, "location"},
		{"all calls", "active_calls_all", "9fxf-t2tr", false, false, false, "location"},
		{"case insensitive", "  Police_Incidents ", "qv6i-rri7", true, true, true, "geocoded_column"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := FromPreset(tt.preset)
			require.NoError(t, err)
			assert.Equal(t, tt.datasetID, s.DatasetID)
			assert.Equal(t, tt.timestamps, s.SupportsTimestamps())
			assert.Equal(t, tt.division, s.HasDivision())
			assert.Equal(t, tt.extended, s.ExtendedFilters)
			assert.Equal(t, tt.locationField, s.LocationField)
			assert.Equal(t, "beat", s.BeatField)
		})
	}
}

func TestFromPreset_Unknown(t *testing.T) {
	_, err := FromPreset("parking_tickets")
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "preset", cfgErr.Field)
	assert.Equal(t, "parking_tickets", cfgErr.Value)
	assert.Contains(t, err.Error(), "active_calls_all")
}

func TestFromPreset_ReturnsIndependentCopies(t *testing.T) {
	a, err := FromPreset(PresetActiveCallsAll)
	require.NoError(t, err)

	fields := a.Fields()
	fields[0] = "mutated"

	b, err := FromPreset(PresetActiveCallsAll)
	require.NoError(t, err)
	assert.Equal(t, "nature_of_call", b.Fields()[0])

	a.BeatField = "mutated"
	c, err := FromPreset(PresetActiveCallsAll)
	require.NoError(t, err)
	assert.Equal(t, "beat", c.BeatField, "changing a copy leaves the preset alone")
}

func TestValidate_SchemaLiteral(t *testing.T) {
	tests := []struct {
		name  string
		s     Schema
		field string
	}{
		{"missing dataset", Schema{LocationField: "loc", BeatField: "beat"}, "dataset_id"},
		{"missing location", Schema{DatasetID: "x", BeatField: "beat"}, "location_field"},
		{"missing beat", Schema{DatasetID: "x", LocationField: "loc"}, "beat_field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfgErr *ConfigurationError
			require.True(t, errors.As(tt.s.Validate(), &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
	assert.NoError(t, Schema{DatasetID: "x", LocationField: "loc", BeatField: "beat"}.Validate())
}

func TestNew(t *testing.T) {
	s, err := New("abcd-1234", "geo", WithDatetimeField("reported_at"))
	require.NoError(t, err)
	assert.Equal(t, DefaultBeatField, s.BeatField)
	assert.Equal(t, DefaultDomain, s.Domain)
	assert.True(t, s.SupportsTimestamps())
	assert.False(t, s.HasDivision())
	assert.True(t, s.HasField("anything"), "undeclared field set accepts every name")

	s, err = New("abcd-1234", "geo", WithBeatField(""), WithFields("geo", "beat"))
	require.NoError(t, err)
	assert.Equal(t, DefaultBeatField, s.BeatField)
	assert.True(t, s.HasField("beat"))
	assert.False(t, s.HasField("date1"))
}

func TestNew_RequiredFields(t *testing.T) {
	var cfgErr *ConfigurationError

	_, err := New("", "location")
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "dataset_id", cfgErr.Field)

	_, err = New("abcd-1234", " ")
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "location_field", cfgErr.Field)
}

func TestInfo(t *testing.T) {
	s, err := FromPreset(PresetPoliceIncidents)
	require.NoError(t, err)

	info := s.Info()
	assert.Contains(t, info, "Dataset: Police Incidents")
	assert.Contains(t, info, "Endpoint: https://www.dallasopendata.com/resource/qv6i-rri7")
	assert.Contains(t, info, "Timestamp Support: Yes")
	assert.Contains(t, info, "Datetime Field: date1")

	calls, err := FromPreset(PresetActiveCallsNortheast)
	require.NoError(t, err)
	assert.Contains(t, calls.Info(), "Timestamp Support: No")
	assert.NotContains(t, calls.Info(), "Datetime Field")
}

func TestEndpointURL(t *testing.T) {
	s, err := FromPreset(PresetActiveCallsAll)
	require.NoError(t, err)
	assert.Equal(t, "https://www.dallasopendata.com/resource/9fxf-t2tr.json", s.EndpointURL("json"))
}

func TestPresets(t *testing.T) {
	got := Presets()
	require.Len(t, got, 3)
	assert.Equal(t, "active_calls_all", got[0].Name)
	assert.Equal(t, "police_incidents", got[2].Name)
	assert.Equal(t, "historical", got[2].Kind)
}

func TestSpecBuild(t *testing.T) {
	s, err := Spec{Preset: "active_calls_all", Domain: "data.example.org"}.Build()
	require.NoError(t, err)
	assert.Equal(t, "9fxf-t2tr", s.DatasetID)
	assert.Equal(t, "data.example.org", s.Domain)

	s, err = Spec{
		DatasetID:       "abcd-1234",
		LocationField:   "geom",
		DivisionField:   "district",
		OffenseField:    "offense",
		ExtendedFilters: true,
		Fields:          []string{"geom", "beat"},
	}.Build()
	require.NoError(t, err)
	assert.Equal(t, DefaultBeatField, s.BeatField)
	assert.Equal(t, DefaultDomain, s.Domain)
	assert.True(t, s.HasDivision())
	assert.False(t, s.SupportsTimestamps())
	assert.True(t, s.ExtendedFilters)
	assert.False(t, s.HasField("offense"))

	_, err = Spec{LocationField: "geom"}.Build()
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "dataset_id", cfgErr.Field)

	_, err = Spec{Preset: "nope"}.Build()
	assert.Error(t, err)
}

func TestPresetFor(t *testing.T) {
	name, ok := PresetFor("9fxf-t2tr")
	require.True(t, ok)
	assert.Equal(t, PresetActiveCallsAll, name)

	_, ok = PresetFor("abcd-1234")
	assert.False(t, ok)
}
