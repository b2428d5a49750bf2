package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/i474232898/forecast-collector/internal/weather"
)

var (
	// ErrNotFound is returned when no dataset was persisted for a region yet.
	ErrNotFound = weather.ErrNotFound
	// ErrCorrupt is returned when a persisted dataset cannot be decoded.
	ErrCorrupt = weather.ErrCorrupt
)

// Encode writes entries as CSV: a header of schema column names followed by
// one row per entry, without an index column.
func Encode(w io.Writer, entries []weather.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(weather.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(weather.Schema))
	for i := range entries {
		for j, f := range weather.Schema {
			row[j] = f.Format(&entries[i])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Decode reads a dataset written by Encode or by the older layout that used
// the raw API column names. Unknown columns are ignored. Rows keep the dedup
// key found in the file; callers recompute missing or legacy keys with
// weather.EnsureKeys.
func Decode(r io.Reader) ([]weather.Entry, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrCorrupt, err)
	}

	fields := make([]*weather.Field, len(header))
	hasLocal := false
	for i, col := range header {
		col = strings.TrimPrefix(col, "\ufeff")
		f, ok := weather.Lookup(col)
		if !ok {
			continue
		}
		fields[i] = &f
		if f.Name == "local_datetime" {
			hasLocal = true
		}
	}
	if !hasLocal {
		return nil, fmt.Errorf("%w: missing local_datetime column", ErrCorrupt)
	}

	var entries []weather.Entry
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}

		var e weather.Entry
		for i, cell := range rec {
			if fields[i] == nil {
				continue
			}
			if err := fields[i].AssignCell(&e, cell); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrCorrupt, line, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}
