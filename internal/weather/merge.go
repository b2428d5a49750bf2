package weather

import "sort"

// DefaultMaxRows is the retention window used when none is configured.
const DefaultMaxRows = 1000

// MergeStats describes how a merge changed the dataset.
type MergeStats struct {
	Existing   int  `json:"existing"`
	Incoming   int  `json:"incoming"`
	Inserted   int  `json:"inserted"`
	Updated    int  `json:"updated"`
	Unchanged  int  `json:"unchanged"`
	Duplicates int  `json:"duplicates"` // rows dropped because a later row had the same key
	Combined   int  `json:"combined"`   // row count before truncation
	Evicted    int  `json:"evicted"`
	Changed    bool `json:"changed"`
}

// Merge upserts incoming into existing by dedup key, sorts by local time and
// keeps the maxRows most recent rows. Incoming rows always replace stored rows
// with the same key. Neither input slice is modified.
func Merge(existing, incoming []Entry, maxRows int) ([]Entry, MergeStats) {
	stats := MergeStats{Existing: len(existing), Incoming: len(incoming)}
	ordered := sort.SliceIsSorted(existing, func(i, j int) bool {
		return existing[i].LocalDatetime.Before(existing[j].LocalDatetime)
	})

	existing, dupExisting := dedupe(existing)
	incoming, dupIncoming := dedupe(incoming)
	stats.Duplicates = dupExisting + dupIncoming

	stored := make(map[string]Entry, len(existing))
	for _, e := range existing {
		stored[e.DedupKey] = e
	}

	replaced := make(map[string]struct{}, len(incoming))
	for _, e := range incoming {
		replaced[e.DedupKey] = struct{}{}
		old, ok := stored[e.DedupKey]
		switch {
		case !ok:
			stats.Inserted++
		case sameForecast(old, e):
			stats.Unchanged++
		default:
			stats.Updated++
		}
	}

	combined := make([]Entry, 0, len(existing)+len(incoming))
	for _, e := range existing {
		if _, ok := replaced[e.DedupKey]; !ok {
			combined = append(combined, e)
		}
	}
	combined = append(combined, incoming...)
	SortByLocalTime(combined)
	stats.Combined = len(combined)

	if maxRows > 0 && len(combined) > maxRows {
		stats.Evicted = len(combined) - maxRows
		combined = combined[stats.Evicted:]
	}

	// Rows inserted and evicted in the same merge leave the file as it was.
	stats.Changed = dupExisting > 0 || !ordered || !sameRows(existing, combined)
	return combined, stats
}

func sameRows(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !sameForecast(a[i], b[i]) {
			return false
		}
	}
	return true
}

// dedupe keeps the last row for every key, preserving first-seen order.
func dedupe(entries []Entry) ([]Entry, int) {
	index := make(map[string]int, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if i, ok := index[e.DedupKey]; ok {
			out[i] = e
			continue
		}
		index[e.DedupKey] = len(out)
		out = append(out, e)
	}
	return out, len(entries) - len(out)
}

// EnsureKeys recomputes dedup keys that are missing or were written by an
// older key scheme. It returns how many rows were rewritten.
func EnsureKeys(entries []Entry) int {
	migrated := 0
	for i := range entries {
		e := &entries[i]
		want := DedupKey(e.LocalDatetime)
		if e.DedupKey != want {
			Derive(e)
			migrated++
			continue
		}
		if e.Date.IsZero() {
			Derive(e)
		}
	}
	return migrated
}
