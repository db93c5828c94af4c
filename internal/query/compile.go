package query

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dallasopendata/incidents/internal/offense"
	"github.com/dallasopendata/incidents/internal/schema"
)

// Columns only present on datasets with extended filters.
const (
	fieldNIBRS              = "nibrs"
	fieldNIBRSType          = "nibrs_type"
	fieldNIBRSCrime         = "nibrs_crime"
	fieldNIBRSCrimeCategory = "nibrs_crime_category"
	fieldNIBRSCode          = "nibrs_code"
)

// SoQL parameter names in the order they are emitted.
const (
	ParamSelect = "$select"
	ParamWhere  = "$where"
	ParamOrder  = "$order"
	ParamQ      = "$q"
	ParamLimit  = "$limit"
	ParamOffset = "$offset"
)

// Param is one SoQL request parameter.
type Param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Compiled is a query translated for one dataset.
type Compiled struct {
	// Where is the $where predicate, empty when nothing is filtered.
	Where  string  `json:"where"`
	Params []Param `json:"params"`
	// Omitted names the query filters the dataset could not express.
	Omitted []string `json:"omitted,omitempty"`
}

// Values returns the parameters for an HTTP query string.
func (c *Compiled) Values() url.Values {
	v := make(url.Values, len(c.Params))
	for _, p := range c.Params {
		v.Set(p.Name, p.Value)
	}
	return v
}

// Param returns the value of a named parameter.
func (c *Compiled) Param(name string) (string, bool) {
	for _, p := range c.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Compiler translates queries using a fixed categorizer table.
type Compiler struct {
	categorizer *offense.Categorizer
}

// NewCompiler returns a compiler that expands offense categories from c.
func NewCompiler(c *offense.Categorizer) *Compiler {
	if c == nil {
		c = offense.Default()
	}
	return &Compiler{categorizer: c}
}

var defaultCompiler = NewCompiler(nil)

// Compile translates q for s with the default offense table.
func Compile(q *Query, s schema.Schema) (*Compiled, error) {
	return defaultCompiler.Compile(q, s)
}

// Compile translates q into SoQL for s. Filters s cannot express are left
// out rather than reported; only an invalid schema is an error. Neither
// argument is modified.
func (c *Compiler) Compile(q *Query, s schema.Schema) (*Compiled, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if q == nil {
		d := Default()
		q = &d
	}

	b := &builder{}

	if beats := normalizeBeats(q.Beats); len(beats) > 0 {
		b.add(s.BeatField + " IN (" + quoteList(beats) + ")")
	}

	if q.Division != "" {
		if s.HasDivision() {
			b.add(s.DivisionField + " = " + quote(q.Division))
		} else {
			b.omit("division")
		}
	}

	if q.DateRange != nil && !q.DateRange.IsZero() {
		if s.SupportsTimestamps() {
			b.add(dateClause(s.DatetimeField, *q.DateRange))
		} else {
			b.omit("date_range")
		}
	}

	c.extended(b, q, s)

	if q.ExtraWhere != "" {
		b.add("(" + q.ExtraWhere + ")")
	}

	out := &Compiled{Where: strings.Join(b.clauses, " AND "), Omitted: b.omitted}

	if sel := selectFields(q.Select, s); len(sel) > 0 {
		out.Params = append(out.Params, Param{ParamSelect, strings.Join(sel, ",")})
	} else if len(q.Select) > 0 {
		out.Omitted = append(out.Omitted, "select")
	}
	if out.Where != "" {
		out.Params = append(out.Params, Param{ParamWhere, out.Where})
	}
	if q.OrderBy != "" {
		out.Params = append(out.Params, Param{ParamOrder, q.OrderBy})
	}
	if q.Search != "" {
		out.Params = append(out.Params, Param{ParamQ, q.Search})
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	out.Params = append(out.Params,
		Param{ParamLimit, strconv.Itoa(limit)},
		Param{ParamOffset, strconv.Itoa(offset)},
	)
	return out, nil
}

// extended emits the filters that need the full incident column set.
func (c *Compiler) extended(b *builder, q *Query, s schema.Schema) {
	requested := extendedRequested(q)
	if len(requested) == 0 {
		return
	}
	if !s.ExtendedFilters {
		b.omit(requested...)
		return
	}

	if codes := dedupe(q.NIBRSCodes); len(codes) > 0 {
		b.add(fieldNIBRS + " IN (" + quoteList(codes) + ")")
	}
	b.eq(fieldNIBRSType, q.NIBRSType)
	b.eq(fieldNIBRSCrime, q.NIBRSCrime)
	b.eq(fieldNIBRSCrimeCategory, q.NIBRSCrimeCategory)
	b.eq(fieldNIBRSCode, q.NIBRSCode)
	if q.UCROffense != "" {
		if s.UCRField != "" {
			b.eq(s.UCRField, q.UCROffense)
		} else {
			b.omit("ucr_offense")
		}
	}

	if d := q.Demographics; !d.empty() {
		for _, f := range DemographicFields() {
			v := d.value(f)
			if strings.TrimSpace(v) == "" {
				continue
			}
			// Unknown values would match nothing useful; drop them like any
			// other filter the dataset cannot express.
			if code, ok := f.Code(v); ok {
				b.prefix(string(f), code)
			} else {
				b.omit("demographics." + f.Name())
			}
		}
	}

	if q.OffenseCategory != "" {
		if clause := c.categoryClause(q.OffenseCategory, s); clause != "" {
			b.add(clause)
		} else {
			b.omit("offense_category")
		}
	}

	if q.OffenseKeyword != "" {
		if clause := keywordClause(q.OffenseKeyword, s); clause != "" {
			b.add(clause)
		} else {
			b.omit("offense_keyword")
		}
	}

	if g := q.Geo; g != nil {
		if g.RadiusMeters > 0 {
			b.add("within_circle(" + s.LocationField + ", " + formatFloat(g.Latitude) + ", " +
				formatFloat(g.Longitude) + ", " + formatFloat(g.RadiusMeters) + ")")
		} else {
			b.omit("geo")
		}
	}
}

func extendedRequested(q *Query) []string {
	var names []string
	if len(q.NIBRSCodes) > 0 {
		names = append(names, "nibrs_codes")
	}
	for _, f := range []struct{ name, v string }{
		{"nibrs_type", q.NIBRSType},
		{"nibrs_crime", q.NIBRSCrime},
		{"nibrs_crime_category", q.NIBRSCrimeCategory},
		{"nibrs_code", q.NIBRSCode},
		{"ucr_offense", q.UCROffense},
	} {
		if f.v != "" {
			names = append(names, f.name)
		}
	}
	if !q.Demographics.empty() {
		names = append(names, "demographics")
	}
	if q.OffenseCategory != "" {
		names = append(names, "offense_category")
	}
	if q.OffenseKeyword != "" {
		names = append(names, "offense_keyword")
	}
	if q.Geo != nil {
		names = append(names, "geo")
	}
	return names
}

// categoryClause ORs the curated offense strings of c against the offense
// column. The categorizer itself is never run here.
func (c *Compiler) categoryClause(cat offense.Category, s schema.Schema) string {
	if s.OffenseField == "" {
		return ""
	}
	offenses := c.categorizer.OffensesFor(cat)
	if len(offenses) == 0 {
		return ""
	}
	parts := make([]string, len(offenses))
	for i, o := range offenses {
		parts[i] = s.OffenseField + " = " + quote(o)
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func keywordClause(kw string, s schema.Schema) string {
	kw = strings.ToUpper(strings.TrimSpace(kw))
	if kw == "" {
		return ""
	}
	pattern := quote("%" + kw + "%")
	var parts []string
	for _, f := range []string{s.OffenseField, s.UCRField} {
		if f != "" {
			parts = append(parts, "upper("+f+") LIKE "+pattern)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func dateClause(field string, r DateRange) string {
	var parts []string
	if !r.Start.IsZero() {
		parts = append(parts, field+" >= "+quote(r.Start.Format(time.DateOnly)+"T00:00:00.000"))
	}
	if !r.End.IsZero() {
		parts = append(parts, field+" <= "+quote(r.End.Format(time.DateOnly)+"T23:59:59.999"))
	}
	return strings.Join(parts, " AND ")
}

func selectFields(fields []string, s schema.Schema) []string {
	var out []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" && s.HasField(f) {
			out = append(out, f)
		}
	}
	return out
}

// normalizeBeats trims beats, strips leading zeros from numeric codes and
// removes duplicates while keeping first-seen order.
func normalizeBeats(beats []string) []string {
	norm := make([]string, 0, len(beats))
	for _, b := range beats {
		b = strings.TrimSpace(b)
		if n, err := strconv.Atoi(b); err == nil && n >= 0 {
			b = strconv.Itoa(n)
		}
		norm = append(norm, b)
	}
	return dedupe(norm)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// quote renders a SoQL string literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteList(values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = quote(v)
	}
	return strings.Join(parts, ", ")
}

type builder struct {
	clauses []string
	omitted []string
}

func (b *builder) add(clause string) {
	if clause != "" {
		b.clauses = append(b.clauses, clause)
	}
}

func (b *builder) omit(names ...string) {
	b.omitted = append(b.omitted, names...)
}

func (b *builder) eq(field, value string) {
	if value != "" {
		b.add(field + " = " + quote(value))
	}
}

func (b *builder) prefix(field, code string) {
	if code != "" {
		b.add("upper(" + field + ") LIKE " + quote(code+"%"))
	}
}
