package weather

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Normalizer turns flattened records into schema entries.
type Normalizer struct {
	// Now stamps fetch_time; defaults to time.Now.
	Now func() time.Time
}

// NewNormalizer returns a Normalizer using the wall clock.
func NewNormalizer() *Normalizer {
	return &Normalizer{Now: time.Now}
}

// Normalize selects and renames the schema columns of every record, parses
// timestamps, derives hour/date/dedup_key and sorts by local time. The whole
// batch shares one fetch_time.
func (n *Normalizer) Normalize(records []Record) ([]Entry, error) {
	if len(records) == 0 {
		return nil, nil
	}

	required := SourceColumns()
	for i, r := range records {
		if missing := missingColumns(r, required); len(missing) > 0 {
			return nil, &SchemaError{Where: fmt.Sprintf("record %d", i), Missing: missing}
		}
	}

	now := time.Now
	if n != nil && n.Now != nil {
		now = n.Now
	}
	fetched := now()

	entries := make([]Entry, 0, len(records))
	for i, r := range records {
		var e Entry
		for _, f := range Schema {
			if f.Source == "" {
				continue
			}
			if err := f.Assign(&e, r[f.Source]); err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
		}
		e.FetchTime = fetched
		Derive(&e)

		if err := validate.Struct(e); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		entries = append(entries, e)
	}

	SortByLocalTime(entries)
	return entries, nil
}

// Derive fills hour, date and dedup_key from the local timestamp.
func Derive(e *Entry) {
	lt := e.LocalDatetime
	e.Hour = lt.Hour()
	e.Date = time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.UTC)
	e.DedupKey = DedupKey(lt)
}

// SortByLocalTime orders entries ascending by local timestamp, keeping the
// relative order of equal timestamps.
func SortByLocalTime(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LocalDatetime.Before(entries[j].LocalDatetime)
	})
}
