package response

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dallasopendata/incidents/internal/offense"
	"github.com/dallasopendata/incidents/internal/query"
)

// Count is one entry of a ranked tally.
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CountBy tallies records by the text of field. Missing and null values are
// not counted.
func (r *Response) CountBy(field string) map[string]int {
	counts := make(map[string]int)
	for _, rec := range r.Data {
		if v := rec.String(field); v != "" {
			counts[v]++
		}
	}
	return counts
}

// GroupBy buckets records by the text of field, preserving record order
// inside each bucket. Records missing the field are left out.
func (r *Response) GroupBy(field string) map[string][]Record {
	groups := make(map[string][]Record)
	for _, rec := range r.Data {
		if v := rec.String(field); v != "" {
			groups[v] = append(groups[v], rec)
		}
	}
	return groups
}

// TopN ranks counts descending, breaking ties by value. n <= 0 returns all.
func TopN(counts map[string]int, n int) []Count {
	out := make([]Count, 0, len(counts))
	for v, c := range counts {
		out = append(out, Count{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// CategoryCounts categorizes the text of field on every record.
func (r *Response) CategoryCounts(c *offense.Categorizer, field string) map[offense.Category]int {
	if c == nil {
		c = offense.Default()
	}
	counts := make(map[offense.Category]int)
	for _, rec := range r.Data {
		counts[c.Categorize(rec.String(field))]++
	}
	return counts
}

// Summary is an overview of a response.
type Summary struct {
	Total           int          `json:"total"`
	UniqueBeats     int          `json:"unique_beats"`
	UniqueDivisions int          `json:"unique_divisions"`
	UniqueOffenses  int          `json:"unique_offenses"`
	TopBeats        []Count      `json:"top_beats"`
	TopDivisions    []Count      `json:"top_divisions"`
	TopOffenses     []Count      `json:"top_offenses"`
	TopNIBRSTypes   []Count      `json:"top_nibrs_types"`
	DateRange       *DayRange    `json:"date_range,omitempty"`
	BoundingBox     *BoundingBox `json:"bounding_box,omitempty"`
}

// DayRange is the earliest and latest calendar day seen.
type DayRange struct {
	Earliest string `json:"earliest"`
	Latest   string `json:"latest"`
}

// Summary counts records by beat, division, offense and NIBRS type, and
// reports the date span and extent of the data.
func (r *Response) Summary() Summary {
	s := Summary{Total: len(r.Data)}
	if s.Total == 0 {
		return s
	}

	beatField := r.Schema.BeatField
	if beatField == "" {
		beatField = "beat"
	}
	beats := r.CountBy(beatField)
	divisions := r.CountBy(orDefault(r.Schema.DivisionField, "division"))
	offenses := r.CountBy(orDefault(r.Schema.UCRField, "ucr_offense"))
	nibrsTypes := r.CountBy("nibrs_type")

	s.UniqueBeats = len(beats)
	s.UniqueDivisions = len(divisions)
	s.UniqueOffenses = len(offenses)
	s.TopBeats = TopN(beats, 5)
	s.TopDivisions = TopN(divisions, 5)
	s.TopOffenses = TopN(offenses, 10)
	s.TopNIBRSTypes = TopN(nibrsTypes, 5)

	if field := r.Schema.DatetimeField; field != "" {
		var earliest, latest time.Time
		for _, rec := range r.Data {
			raw := rec.String(field)
			if raw == "" {
				continue
			}
			d, err := query.ParseDate(raw)
			if err != nil {
				continue
			}
			if earliest.IsZero() || d.Before(earliest) {
				earliest = d
			}
			if latest.IsZero() || d.After(latest) {
				latest = d
			}
		}
		if !earliest.IsZero() {
			s.DateRange = &DayRange{
				Earliest: earliest.Format(time.DateOnly),
				Latest:   latest.Format(time.DateOnly),
			}
		}
	}

	if box, ok := r.Bounds(); ok {
		s.BoundingBox = &box
	}
	return s
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func valueString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}
