package response

import (
	"fmt"
	"strings"

	"github.com/dallasopendata/incidents/internal/query"
)

// FilterByDemographics keeps records whose complainant columns start with
// the code of every criterion set on d. Blank criteria match everything;
// values no field knows are rejected.
func (r *Response) FilterByDemographics(d query.Demographics) (*Response, error) {
	codes, err := d.Codes()
	if err != nil {
		return nil, err
	}
	return r.Filter(func(rec Record) bool {
		for f, code := range codes {
			v := strings.ToUpper(strings.TrimSpace(rec.String(string(f))))
			if !strings.HasPrefix(v, code) {
				return false
			}
		}
		return true
	}), nil
}

// CountByDemographic tallies records by the readable label of f. Records
// with no value are not counted.
func (r *Response) CountByDemographic(f query.DemographicField) map[string]int {
	counts := make(map[string]int)
	for _, rec := range r.Data {
		if label := f.Label(rec.String(string(f))); label != "" {
			counts[label]++
		}
	}
	return counts
}

// DemographicBreakdown counts every demographic column, keyed by field name.
func (r *Response) DemographicBreakdown() map[string]map[string]int {
	out := make(map[string]map[string]int, 3)
	for _, f := range query.DemographicFields() {
		out[f.Name()] = r.CountByDemographic(f)
	}
	return out
}

// DemographicPercentages is CountByDemographic as shares of 100. A response
// with no values for f yields an empty map.
func (r *Response) DemographicPercentages(f query.DemographicField) map[string]float64 {
	counts := r.CountByDemographic(f)
	total := 0
	for _, c := range counts {
		total += c
	}
	out := make(map[string]float64, len(counts))
	if total == 0 {
		return out
	}
	for v, c := range counts {
		out[v] = float64(c) / float64(total) * 100
	}
	return out
}

// Pair is a cell of a two-way demographic table.
type Pair struct {
	First  string `json:"first"`
	Second string `json:"second"`
}

// CrossTabulate counts label pairs of f1 and f2 over records carrying both.
func (r *Response) CrossTabulate(f1, f2 query.DemographicField) map[Pair]int {
	counts := make(map[Pair]int)
	for _, rec := range r.Data {
		a := f1.Label(rec.String(string(f1)))
		b := f2.Label(rec.String(string(f2)))
		if a == "" || b == "" {
			continue
		}
		counts[Pair{First: a, Second: b}]++
	}
	return counts
}

// CompareDemographicsByOffense breaks down f for the topN most frequent
// values of offenseField. Ties rank by offense text; topN <= 0 keeps all.
func (r *Response) CompareDemographicsByOffense(offenseField string, f query.DemographicField, topN int) map[string]map[string]int {
	if offenseField == "" {
		offenseField = "offincident"
	}
	groups := r.GroupBy(offenseField)
	sizes := make(map[string]int, len(groups))
	for o, recs := range groups {
		sizes[o] = len(recs)
	}
	out := make(map[string]map[string]int)
	for _, c := range TopN(sizes, topN) {
		out[c.Value] = r.derive(groups[c.Value]).CountByDemographic(f)
	}
	return out
}

// DemographicSummary renders the breakdown as text, most frequent first.
func (r *Response) DemographicSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Demographic Analysis (%d incidents):\n", len(r.Data))
	for _, f := range query.DemographicFields() {
		counts := r.CountByDemographic(f)
		total := 0
		for _, c := range counts {
			total += c
		}
		fmt.Fprintf(&b, "\n%s:\n", strings.ToUpper(f.Name()))
		for _, c := range TopN(counts, 0) {
			fmt.Fprintf(&b, "  %s: %d (%.1f%%)\n", c.Value, c.Count, float64(c.Count)/float64(total)*100)
		}
	}
	return b.String()
}
