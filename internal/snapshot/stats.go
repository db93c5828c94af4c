package snapshot

import (
	"github.com/dallasopendata/incidents/internal/models"
)

// Stats aggregates call volume over snapshots taken of the same feed.
//
// Durations estimate how long a call stayed on the feed: the span between the
// first and last snapshot it appeared in. Calls are identified by beat,
// location and nature since the feed has no call id. Calls seen only once
// have no estimate.
func Stats(snaps []*models.ActiveCallsSnapshot) models.SnapshotStats {
	stats := models.SnapshotStats{Durations: map[string]float64{}}
	if len(snaps) == 0 {
		return stats
	}

	type span struct {
		first, last int64
		seen        int
	}
	spans := make(map[string]*span)
	total := 0

	for _, snap := range snaps {
		count := snap.Summary.TotalCalls
		total += count
		if count > stats.PeakCount {
			stats.PeakCount = count
		}

		at := snap.Summary.GeneratedAt.UnixNano()
		for _, call := range snap.Calls {
			key := callKey(call)
			sp, ok := spans[key]
			if !ok {
				spans[key] = &span{first: at, last: at, seen: 1}
				continue
			}
			sp.seen++
			if at < sp.first {
				sp.first = at
			}
			if at > sp.last {
				sp.last = at
			}
		}
	}

	stats.Snapshots = len(snaps)
	stats.AverageCount = float64(total) / float64(len(snaps))
	for key, sp := range spans {
		if sp.seen > 1 {
			stats.Durations[key] = float64(sp.last-sp.first) / 1e9
		}
	}
	return stats
}

func callKey(c models.ActiveCall) string {
	return deref(c.Beat) + "_" + deref(c.Location) + "_" + deref(c.NatureOfCall)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
