// Package tracker follows active calls of interest into historical incident data.
package tracker

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dallasopendata/incidents/internal/database"
	"github.com/dallasopendata/incidents/internal/models"
	"github.com/dallasopendata/incidents/internal/query"
	"github.com/dallasopendata/incidents/internal/response"
)

const (
	// DefaultDaysAfter is how far past the capture date historical searches reach.
	DefaultDaysAfter = 3
	// DefaultQueryLimit caps each generated historical query.
	DefaultQueryLimit = 100
)

// NewCall captures an active call row. The call is stamped with now and a
// fresh id; missing columns become empty strings.
func NewCall(rec response.Record, notes string, tags []string, now time.Time) *models.TrackedCall {
	if tags == nil {
		tags = []string{}
	}
	return &models.TrackedCall{
		ID:           uuid.New().String(),
		NatureOfCall: rec.String("nature_of_call"),
		Location:     rec.String("location"),
		Beat:         strings.TrimSpace(rec.String("beat")),
		Block:        rec.String("block"),
		UnitNumber:   rec.String("unit_number"),
		CapturedAt:   now.UTC(),
		Notes:        notes,
		Tags:         append([]string(nil), tags...),
	}
}

// SearchWindow returns the capture day and the day daysAfter later.
func SearchWindow(c *models.TrackedCall, daysAfter int) query.DateRange {
	day := truncateDay(c.CapturedAt)
	return query.DateRange{Start: day, End: day.AddDate(0, 0, daysAfter)}
}

// GenerateQueries builds one historical query per beat, spanning the earliest
// capture day through the latest capture day plus daysAfter. Beats appear in
// the order they were first seen.
func GenerateQueries(calls []*models.TrackedCall, daysAfter, limit int) []*query.Query {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	type window struct{ min, max time.Time }
	var order []string
	windows := make(map[string]*window)
	for _, c := range calls {
		day := truncateDay(c.CapturedAt)
		w, ok := windows[c.Beat]
		if !ok {
			windows[c.Beat] = &window{min: day, max: day}
			order = append(order, c.Beat)
			continue
		}
		if day.Before(w.min) {
			w.min = day
		}
		if day.After(w.max) {
			w.max = day
		}
	}

	queries := make([]*query.Query, 0, len(order))
	for _, beat := range order {
		w := windows[beat]
		q := query.Default()
		q.Limit = limit
		if beat != "" {
			q.Beats = query.BeatList{beat}
		}
		q.DateRange = &query.DateRange{Start: w.min, End: w.max.AddDate(0, 0, daysAfter)}
		queries = append(queries, &q)
	}
	return queries
}

// Summarize tallies tracked calls by beat, call type and tag.
func Summarize(calls []*models.TrackedCall) models.TrackedSummary {
	sum := models.TrackedSummary{
		TotalTracked: len(calls),
		Beats:        []models.Tally{},
		CallTypes:    []models.Tally{},
		Tags:         []models.Tally{},
	}
	if len(calls) == 0 {
		return sum
	}

	beats := newCounter()
	types := newCounter()
	tags := newCounter()
	earliest, latest := calls[0].CapturedAt, calls[0].CapturedAt
	for _, c := range calls {
		beats.add(c.Beat)
		types.add(c.NatureOfCall)
		for _, tag := range c.Tags {
			tags.add(tag)
		}
		if c.CapturedAt.Before(earliest) {
			earliest = c.CapturedAt
		}
		if c.CapturedAt.After(latest) {
			latest = c.CapturedAt
		}
	}

	sum.Beats = beats.tallies()
	sum.CallTypes = types.tallies()
	sum.Tags = tags.tallies()
	sum.EarliestCapture = &earliest
	sum.LatestCapture = &latest
	return sum
}

// FilterByTag returns the calls carrying tag.
func FilterByTag(calls []*models.TrackedCall, tag string) []*models.TrackedCall {
	var out []*models.TrackedCall
	for _, c := range calls {
		for _, t := range c.Tags {
			if t == tag {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// FilterByBeat returns the calls in beat.
func FilterByBeat(calls []*models.TrackedCall, beat string) []*models.TrackedCall {
	var out []*models.TrackedCall
	for _, c := range calls {
		if c.Beat == beat {
			out = append(out, c)
		}
	}
	return out
}

// Tracker persists tracked calls.
type Tracker struct {
	store database.Store
	now   func() time.Time
}

// New creates a tracker backed by store.
func New(store database.Store) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// Track captures rec and stores it.
func (t *Tracker) Track(ctx context.Context, rec response.Record, notes string, tags []string) (*models.TrackedCall, error) {
	call := NewCall(rec, notes, tags, t.now())
	if err := t.store.SaveTrackedCall(ctx, call); err != nil {
		return nil, err
	}
	log.Info().
		Str("id", call.ID).
		Str("beat", call.Beat).
		Str("nature", call.NatureOfCall).
		Msg("Tracking call")
	return call, nil
}

// TrackMatching stores every record keep accepts. A nil keep tracks all.
func (t *Tracker) TrackMatching(ctx context.Context, records []response.Record, keep func(response.Record) bool, notes string, tags []string) ([]*models.TrackedCall, error) {
	var tracked []*models.TrackedCall
	for _, rec := range records {
		if keep != nil && !keep(rec) {
			continue
		}
		call, err := t.Track(ctx, rec, notes, tags)
		if err != nil {
			return tracked, err
		}
		tracked = append(tracked, call)
	}
	return tracked, nil
}

// List returns stored calls narrowed by filter.
func (t *Tracker) List(ctx context.Context, filter models.TrackedCallFilter) ([]*models.TrackedCall, error) {
	return t.store.ListTrackedCalls(ctx, filter)
}

// Untrack removes a stored call.
func (t *Tracker) Untrack(ctx context.Context, id string) error {
	return t.store.DeleteTrackedCall(ctx, id)
}

// Queries generates historical queries for the stored calls matching filter.
func (t *Tracker) Queries(ctx context.Context, filter models.TrackedCallFilter, daysAfter, limit int) ([]*query.Query, error) {
	calls, err := t.store.ListTrackedCalls(ctx, filter)
	if err != nil {
		return nil, err
	}
	return GenerateQueries(calls, daysAfter, limit), nil
}

// Summary summarizes the stored calls matching filter.
func (t *Tracker) Summary(ctx context.Context, filter models.TrackedCallFilter) (models.TrackedSummary, error) {
	calls, err := t.store.ListTrackedCalls(ctx, filter)
	if err != nil {
		return models.TrackedSummary{}, err
	}
	return Summarize(calls), nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// counter tallies values in first-seen order, then sorts by count.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter { return &counter{counts: make(map[string]int)} }

func (c *counter) add(v string) {
	if _, ok := c.counts[v]; !ok {
		c.order = append(c.order, v)
	}
	c.counts[v]++
}

func (c *counter) tallies() []models.Tally {
	out := make([]models.Tally, 0, len(c.order))
	for _, v := range c.order {
		out = append(out, models.Tally{Value: v, Count: c.counts[v]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
