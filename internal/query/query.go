// Package query holds the schema-independent filter model and its SoQL compiler.
package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dallasopendata/incidents/internal/offense"
)

// DefaultLimit is the row cap applied when none is given.
const DefaultLimit = 1000

// Format is the response encoding requested from the portal.
type Format string

const (
	FormatJSON    Format = "json"
	FormatGeoJSON Format = "geojson"
	FormatCSV     Format = "csv"
)

// ParseFormat resolves a format name case-insensitively. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatGeoJSON, FormatCSV:
		return f, nil
	default:
		return "", &ValidationError{Field: "format", Value: s, Reason: "must be one of json, geojson, csv"}
	}
}

// ValidationError reports a query that violates a local invariant.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// DateRange bounds a query by calendar day. A zero bound is open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether neither bound is set.
func (d DateRange) IsZero() bool { return d.Start.IsZero() && d.End.IsZero() }

type dateRangeJSON struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// MarshalJSON encodes bounds as YYYY-MM-DD.
func (d DateRange) MarshalJSON() ([]byte, error) {
	var out dateRangeJSON
	if !d.Start.IsZero() {
		out.Start = d.Start.Format(time.DateOnly)
	}
	if !d.End.IsZero() {
		out.End = d.End.Format(time.DateOnly)
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts ISO-8601 dates or date-times for either bound.
func (d *DateRange) UnmarshalJSON(b []byte) error {
	var in dateRangeJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	r, err := NewDateRange(in.Start, in.End)
	if err != nil {
		return err
	}
	*d = r
	return nil
}

// NewDateRange parses two independently optional ISO-8601 strings.
func NewDateRange(start, end string) (DateRange, error) {
	var r DateRange
	var err error
	if start != "" {
		if r.Start, err = ParseDate(start); err != nil {
			return DateRange{}, &ValidationError{Field: "date_range.start", Value: start, Reason: "not an ISO-8601 date"}
		}
	}
	if end != "" {
		if r.End, err = ParseDate(end); err != nil {
			return DateRange{}, &ValidationError{Field: "date_range.end", Value: end, Reason: "not an ISO-8601 date"}
		}
	}
	return r, nil
}

var isoLayouts = []string{
	time.DateOnly,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseDate parses an ISO-8601 date or date-time and truncates it to the day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as ISO-8601 date", s)
}

// GeoQuery is a proximity filter around a point.
type GeoQuery struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters"`
}

// Demographics filters on complainant race, ethnicity and sex. Values may be
// full words ("White", "Hispanic", "Female") or the portal's one-letter codes.
type Demographics struct {
	Race      string `json:"race,omitempty"`
	Ethnicity string `json:"ethnicity,omitempty"`
	Sex       string `json:"sex,omitempty"`
}

func (d *Demographics) empty() bool {
	return d == nil || (d.Race == "" && d.Ethnicity == "" && d.Sex == "")
}

// BeatList is a set of beat identifiers. It decodes from JSON strings or numbers
// so ["241"] and [241] are the same filter.
type BeatList []string

// UnmarshalJSON accepts a mix of string and numeric beats.
func (b *BeatList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("beats: %w", err)
	}
	out := make(BeatList, 0, len(raw))
	for _, v := range raw {
		switch t := v.(type) {
		case string:
			out = append(out, t)
		case json.Number:
			out = append(out, numberBeat(t))
		case nil:
		default:
			return fmt.Errorf("beats: unsupported value %v", v)
		}
	}
	*b = out
	return nil
}

func numberBeat(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := n.Float64(); err == nil && f == math.Trunc(f) {
		return strconv.FormatInt(int64(f), 10)
	}
	return n.String()
}

// Query is a schema-independent set of filters. Build it with New, or
// decode it from JSON and call Validate.
type Query struct {
	Beats              BeatList         `json:"beats,omitempty"`
	Division           string           `json:"division,omitempty"`
	DateRange          *DateRange       `json:"date_range,omitempty"`
	NIBRSCodes         []string         `json:"nibrs_codes,omitempty"`
	NIBRSType          string           `json:"nibrs_type,omitempty"`
	NIBRSCrime         string           `json:"nibrs_crime,omitempty"`
	NIBRSCrimeCategory string           `json:"nibrs_crime_category,omitempty"`
	NIBRSCode          string           `json:"nibrs_code,omitempty"`
	UCROffense         string           `json:"ucr_offense,omitempty"`
	Demographics       *Demographics    `json:"demographics,omitempty"`
	OffenseCategory    offense.Category `json:"offense_category,omitempty"`
	OffenseKeyword     string           `json:"offense_keyword,omitempty"`
	Geo                *GeoQuery        `json:"geo,omitempty"`

	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
	OrderBy string   `json:"order_by,omitempty"`
	Select  []string `json:"select,omitempty"`
	Format  Format   `json:"format,omitempty"`

	// ExtraWhere is a raw SoQL predicate AND-ed in verbatim.
	ExtraWhere string `json:"extra_where,omitempty"`
	// Search is the portal's full-text $q parameter.
	Search string `json:"search,omitempty"`
}

// UnmarshalJSON applies the defaults before decoding so omitted fields keep them.
func (q *Query) UnmarshalJSON(b []byte) error {
	type plain Query
	p := plain(Default())
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*q = Query(p)
	return nil
}

// Default returns an empty query with the default limit and format.
func Default() Query {
	return Query{Limit: DefaultLimit, Format: FormatJSON}
}

// Option configures a Query built with New.
type Option func(*Query) error

// New builds a validated query.
func New(opts ...Option) (*Query, error) {
	q := Default()
	for _, opt := range opts {
		if err := opt(&q); err != nil {
			return nil, err
		}
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return &q, nil
}

// Validate checks the invariants that do not depend on a schema.
func (q *Query) Validate() error {
	if q.Limit <= 0 {
		return &ValidationError{Field: "limit", Value: strconv.Itoa(q.Limit), Reason: "must be greater than 0"}
	}
	if q.Offset < 0 {
		return &ValidationError{Field: "offset", Value: strconv.Itoa(q.Offset), Reason: "must not be negative"}
	}
	if q.Geo != nil {
		g := q.Geo
		if !(g.RadiusMeters > 0) {
			return &ValidationError{Field: "geo.radius_meters", Value: formatFloat(g.RadiusMeters), Reason: "must be greater than 0"}
		}
		if g.Latitude < -90 || g.Latitude > 90 {
			return &ValidationError{Field: "geo.latitude", Value: formatFloat(g.Latitude), Reason: "must be within [-90, 90]"}
		}
		if g.Longitude < -180 || g.Longitude > 180 {
			return &ValidationError{Field: "geo.longitude", Value: formatFloat(g.Longitude), Reason: "must be within [-180, 180]"}
		}
	}
	if _, err := q.Demographics.Codes(); err != nil {
		return err
	}
	if q.OffenseCategory != "" && !q.OffenseCategory.Valid() {
		return &ValidationError{
			Field:  "offense_category",
			Value:  string(q.OffenseCategory),
			Reason: "unknown category",
		}
	}
	if q.Format != "" {
		if _, err := ParseFormat(string(q.Format)); err != nil {
			return err
		}
	}
	return nil
}

// WithBeats filters on one or more beat identifiers.
func WithBeats(beats ...string) Option {
	return func(q *Query) error {
		q.Beats = append(q.Beats, beats...)
		return nil
	}
}

// WithBeatNumbers is WithBeats for numeric beat codes.
func WithBeatNumbers(beats ...int) Option {
	return func(q *Query) error {
		for _, b := range beats {
			q.Beats = append(q.Beats, strconv.Itoa(b))
		}
		return nil
	}
}

// WithDateRange sets a structured date range.
func WithDateRange(r DateRange) Option {
	return func(q *Query) error {
		if r.IsZero() {
			q.DateRange = nil
			return nil
		}
		q.DateRange = &r
		return nil
	}
}

// WithDates parses two independently optional ISO-8601 bounds.
func WithDates(start, end string) Option {
	return func(q *Query) error {
		r, err := NewDateRange(start, end)
		if err != nil {
			return err
		}
		return WithDateRange(r)(q)
	}
}

// WithGeo filters to a radius around a point.
func WithGeo(lat, lon, radiusMeters float64) Option {
	return func(q *Query) error {
		q.Geo = &GeoQuery{Latitude: lat, Longitude: lon, RadiusMeters: radiusMeters}
		return nil
	}
}

// WithDivision filters on a patrol division.
func WithDivision(division string) Option {
	return func(q *Query) error {
		q.Division = division
		return nil
	}
}

// WithNIBRSCodes filters on any of the given NIBRS codes.
func WithNIBRSCodes(codes ...string) Option {
	return func(q *Query) error {
		q.NIBRSCodes = append(q.NIBRSCodes, codes...)
		return nil
	}
}

// WithNIBRSType filters on the NIBRS offense type.
func WithNIBRSType(v string) Option {
	return func(q *Query) error { q.NIBRSType = v; return nil }
}

// WithNIBRSCrime filters on the NIBRS crime description.
func WithNIBRSCrime(v string) Option {
	return func(q *Query) error { q.NIBRSCrime = v; return nil }
}

// WithNIBRSCrimeCategory filters on the NIBRS crime category.
func WithNIBRSCrimeCategory(v string) Option {
	return func(q *Query) error { q.NIBRSCrimeCategory = v; return nil }
}

// WithNIBRSCode filters on a single NIBRS code.
func WithNIBRSCode(v string) Option {
	return func(q *Query) error { q.NIBRSCode = v; return nil }
}

// WithUCROffense filters on the UCR offense name.
func WithUCROffense(v string) Option {
	return func(q *Query) error { q.UCROffense = v; return nil }
}

// WithDemographics filters on complainant demographics.
func WithDemographics(d Demographics) Option {
	return func(q *Query) error {
		q.Demographics = &d
		return nil
	}
}

// WithOffenseCategory filters on the curated offense types of a category.
func WithOffenseCategory(c offense.Category) Option {
	return func(q *Query) error {
		q.OffenseCategory = c
		return nil
	}
}

// WithOffenseCategoryName is WithOffenseCategory for user input.
func WithOffenseCategoryName(name string) Option {
	return func(q *Query) error {
		c, ok := offense.ParseCategory(name)
		if !ok {
			return &ValidationError{Field: "offense_category", Value: name, Reason: "unknown category"}
		}
		q.OffenseCategory = c
		return nil
	}
}

// WithOffenseKeyword filters on a case-insensitive substring of the offense text.
func WithOffenseKeyword(kw string) Option {
	return func(q *Query) error { q.OffenseKeyword = kw; return nil }
}

// WithLimit caps the page size. It must be positive.
func WithLimit(n int) Option {
	return func(q *Query) error { q.Limit = n; return nil }
}

// WithOffset skips n records. It must not be negative.
func WithOffset(n int) Option {
	return func(q *Query) error { q.Offset = n; return nil }
}

// WithOrderBy sets a SoQL order clause such as "date1 DESC".
func WithOrderBy(order string) Option {
	return func(q *Query) error { q.OrderBy = order; return nil }
}

// WithSelect projects the result onto the given fields.
func WithSelect(fields ...string) Option {
	return func(q *Query) error {
		q.Select = append([]string(nil), fields...)
		return nil
	}
}

// WithFormat selects the response encoding.
func WithFormat(f Format) Option {
	return func(q *Query) error { q.Format = f; return nil }
}

// WithExtraWhere AND-s a raw SoQL predicate into the filter.
func WithExtraWhere(clause string) Option {
	return func(q *Query) error { q.ExtraWhere = clause; return nil }
}

// WithSearch sets full-text search terms.
func WithSearch(terms string) Option {
	return func(q *Query) error { q.Search = terms; return nil }
}

// Page returns a copy of q advanced to the given offset.
func (q *Query) Page(offset, limit int) *Query {
	c := *q
	c.Offset = offset
	if limit > 0 {
		c.Limit = limit
	}
	return &c
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
