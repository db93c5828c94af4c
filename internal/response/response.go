// Package response wraps the records returned for a compiled query.
package response

import (
	"fmt"
	"strings"
	"time"

	"github.com/dallasopendata/incidents/internal/query"
	"github.com/dallasopendata/incidents/internal/schema"
)

// Record is one row as decoded from the portal. GeoJSON rows are features
// whose columns live under "properties".
type Record map[string]any

// Get looks a column up on the record itself, then in GeoJSON properties.
func (r Record) Get(field string) (any, bool) {
	if v, ok := r[field]; ok {
		return v, true
	}
	if props, ok := asMap(r["properties"]); ok {
		v, ok := props[field]
		return v, ok
	}
	return nil, false
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Record:
		return t, true
	}
	return nil, false
}

// String returns the column rendered as text, or "" if missing or null.
func (r Record) String(field string) string {
	v, ok := r.Get(field)
	if !ok {
		return ""
	}
	return valueString(v)
}

// Response is the read-only result of one query execution. Derived
// operations return new values and never modify Data.
type Response struct {
	Data          []Record      `json:"data"`
	TotalReturned int           `json:"total_returned"`
	Query         *query.Query  `json:"query,omitempty"`
	Format        query.Format  `json:"format"`
	Schema        schema.Schema `json:"-"`
}

// New wraps a copy of data.
func New(data []Record, q *query.Query, s schema.Schema) *Response {
	format := query.FormatJSON
	if q != nil && q.Format != "" {
		format = q.Format
	}
	d := append([]Record(nil), data...)
	if d == nil {
		d = []Record{}
	}
	return &Response{
		Data:          d,
		TotalReturned: len(d),
		Query:         q,
		Format:        format,
		Schema:        s,
	}
}

func (r *Response) derive(data []Record) *Response {
	return &Response{
		Data:          data,
		TotalReturned: len(data),
		Query:         r.Query,
		Format:        r.Format,
		Schema:        r.Schema,
	}
}

// HasGeometry reports whether any record carries a non-null value in the
// schema's location column or a GeoJSON geometry.
func (r *Response) HasGeometry() bool {
	for _, rec := range r.Data {
		if g, ok := rec["geometry"]; ok && g != nil {
			return true
		}
		if r.Schema.LocationField == "" {
			continue
		}
		if v, ok := rec.Get(r.Schema.LocationField); ok && !isNull(v) {
			return true
		}
	}
	return false
}

// UniqueValues returns the distinct non-null values of field in first-seen order.
func (r *Response) UniqueValues(field string) []any {
	seen := make(map[string]struct{})
	out := []any{}
	for _, rec := range r.Data {
		v, ok := rec.Get(field)
		if !ok || isNull(v) {
			continue
		}
		key := fmt.Sprintf("%T:%v", v, v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Filter returns a response restricted to records satisfying keep.
func (r *Response) Filter(keep func(Record) bool) *Response {
	out := []Record{}
	for _, rec := range r.Data {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return r.derive(out)
}

// FilterByOffense keeps records whose UCR offense equals offense, ignoring case.
func (r *Response) FilterByOffense(offense string) *Response {
	field := r.Schema.UCRField
	if field == "" {
		field = "ucr_offense"
	}
	return r.Filter(func(rec Record) bool {
		return strings.EqualFold(rec.String(field), offense)
	})
}

// FilterByDate keeps records whose datetime column falls within [start, end]
// by calendar day. Zero bounds are open. Schemas without a datetime column
// yield an empty response.
func (r *Response) FilterByDate(start, end time.Time) *Response {
	field := r.Schema.DatetimeField
	return r.Filter(func(rec Record) bool {
		if field == "" {
			return false
		}
		raw := rec.String(field)
		if raw == "" {
			return false
		}
		d, err := query.ParseDate(raw)
		if err != nil {
			return false
		}
		if !start.IsZero() && d.Before(truncateDay(start)) {
			return false
		}
		if !end.IsZero() && d.After(truncateDay(end)) {
			return false
		}
		return true
	})
}

// Near keeps records within radiusMeters of the given point.
func (r *Response) Near(lat, lon, radiusMeters float64) *Response {
	return r.Filter(func(rec Record) bool {
		p, ok := Coordinates(rec)
		return ok && Distance(lat, lon, p.Latitude, p.Longitude) <= radiusMeters
	})
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func isNull(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	}
	return false
}
