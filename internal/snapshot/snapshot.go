// Package snapshot builds the static JSON artifacts served to the dashboard:
// active calls snapshots and the offense reference tables.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dallasopendata/incidents/internal/models"
	"github.com/dallasopendata/incidents/internal/offense"
	"github.com/dallasopendata/incidents/internal/query"
	"github.com/dallasopendata/incidents/internal/response"
	"github.com/dallasopendata/incidents/internal/schema"
	"github.com/dallasopendata/incidents/internal/telemetry"
)

// DefaultLimit is the number of active calls fetched per snapshot.
const DefaultLimit = 500

const activeCallsNote = "Active Calls dataset does not include timestamps; generated_at is when the snapshot was built."

// Fetcher retrieves one page of records. *socrata.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, q *query.Query) (*response.Response, error)
	Schema() schema.Schema
}

// Builder turns active calls feeds into snapshots.
type Builder struct {
	fetcher     Fetcher
	categorizer *offense.Categorizer
	metrics     *telemetry.Metrics
	now         func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithCategorizer replaces the default offense categorizer.
func WithCategorizer(c *offense.Categorizer) Option { return func(b *Builder) { b.categorizer = c } }

// WithMetrics records built snapshots.
func WithMetrics(m *telemetry.Metrics) Option { return func(b *Builder) { b.metrics = m } }

// WithClock overrides the time source used for generated_at.
func WithClock(now func() time.Time) Option { return func(b *Builder) { b.now = now } }

// NewBuilder creates a builder reading from f.
func NewBuilder(f Fetcher, opts ...Option) *Builder {
	b := &Builder{
		fetcher:     f,
		categorizer: offense.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildActiveCalls fetches up to limit active calls from f and shapes them
// into a snapshot with the default categorizer.
func BuildActiveCalls(ctx context.Context, f Fetcher, limit int) (*models.ActiveCallsSnapshot, error) {
	return NewBuilder(f).ActiveCalls(ctx, limit)
}

// ActiveCalls fetches up to limit calls and builds the snapshot.
func (b *Builder) ActiveCalls(ctx context.Context, limit int) (*models.ActiveCallsSnapshot, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	q, err := query.New(query.WithLimit(limit))
	if err != nil {
		return nil, err
	}

	resp, err := b.fetcher.Get(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active calls: %w", err)
	}

	s := b.fetcher.Schema()
	dataset, ok := schema.PresetFor(s.DatasetID)
	if !ok {
		dataset = s.Name
	}

	snap := b.FromRecords(resp.Data)
	snap.Summary.Dataset = dataset
	snap.Summary.DatasetID = s.DatasetID

	b.metrics.ObserveSnapshot(snap.Summary.TotalCalls)
	log.Info().
		Str("dataset", s.DatasetID).
		Int("calls", snap.Summary.TotalCalls).
		Int("beats", len(snap.ByRegionBeat)).
		Msg("Built active calls snapshot")
	return snap, nil
}

// FromRecords shapes raw active call rows into a snapshot. Dataset fields of
// the summary are left for the caller.
func (b *Builder) FromRecords(records []response.Record) *models.ActiveCallsSnapshot {
	calls := make([]models.ActiveCall, 0, len(records))
	byBeat := make(map[string]int)
	byCategory := make(map[string]int)

	for _, rec := range records {
		call := b.activeCall(rec)
		calls = append(calls, call)
		if call.Beat != nil {
			byBeat[*call.Beat]++
		}
		byCategory[string(call.Category)]++
	}

	beats := make([]models.BeatCount, 0, len(byBeat))
	for _, t := range sortedTallies(byBeat) {
		beats = append(beats, models.BeatCount{Beat: t.Value, Count: t.Count})
	}

	return &models.ActiveCallsSnapshot{
		Summary: models.SnapshotSummary{
			GeneratedAt: b.now().UTC().Truncate(time.Second),
			TotalCalls:  len(calls),
			Note:        activeCallsNote,
		},
		ByRegionBeat: beats,
		ByCategory:   sortedTallies(byCategory),
		Calls:        calls,
	}
}

func (b *Builder) activeCall(rec response.Record) models.ActiveCall {
	nature := firstOf(rec, "nature_of_call", "nature")
	block := firstOf(rec, "block")
	location := firstOf(rec, "location")
	unit := firstOf(rec, "unit_number", "unit")
	beat := firstOf(rec, "beat")

	var parts []string
	for _, p := range []*string{block, location} {
		if p != nil {
			parts = append(parts, strings.TrimSpace(*p))
		}
	}

	category := offense.Other
	if nature != nil {
		category = b.categorizer.Categorize(*nature)
	}

	return models.ActiveCall{
		CallNumber:   unit,
		Nature:       nature,
		Beat:         nonEmpty(beat),
		Address:      nonEmpty(strPtr(strings.Join(parts, " "))),
		Category:     category,
		UnitNumber:   unit,
		Block:        block,
		Location:     location,
		NatureOfCall: nature,
	}
}

// firstOf returns the first key holding a non-null value, as text.
func firstOf(rec response.Record, keys ...string) *string {
	for _, k := range keys {
		if v := rec.String(k); v != "" {
			return &v
		}
	}
	return nil
}

func nonEmpty(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func strPtr(s string) *string { return &s }

// sortedTallies orders counts by count descending, then value ascending.
func sortedTallies(counts map[string]int) []models.Tally {
	out := make([]models.Tally, 0, len(counts))
	for v, n := range counts {
		out = append(out, models.Tally{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// WriteJSON writes v as indented JSON to dir/name, creating dir if needed,
// and returns the written path.
func WriteJSON(dir, name string, v any) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("bytes", len(data)).Msg("Wrote artifact")
	return path, nil
}
