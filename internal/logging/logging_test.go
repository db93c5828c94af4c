package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dallasopendata/incidents/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"", zerolog.InfoLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestSetupWriter_JSON(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	require.NoError(t, SetupWriter(config.LoggingConfig{Level: "warn", Format: "json"}, &buf))

	log.Info().Msg("Hidden")
	log.Warn().Str("dataset", "qv6i-rri7").Msg("Visible")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "qv6i-rri7", entry["dataset"])
	assert.Equal(t, "Visible", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestSetupWriter_Text(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	require.NoError(t, SetupWriter(config.LoggingConfig{Level: "info", Format: "text"}, &buf))
	log.Info().Msg("Portal client initialized")

	out := buf.String()
	assert.Contains(t, out, "Portal client initialized")
	assert.Contains(t, out, "| INFO")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestSetupWriter_BadLevel(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, SetupWriter(config.LoggingConfig{Level: "loud"}, &buf))
}
