package weather

import (
	"encoding/json"
	"fmt"
	"sort"
)

// DecodeDocument parses a forecast response body. The top-level location and
// series keys must be present; either may be empty.
func DecodeDocument(body []byte) (*Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrFetch, err)
	}

	var missing []string
	for _, key := range []string{"lokasi", "data"} {
		if _, ok := raw[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Where: "response", Missing: missing}
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrFetch, err)
	}
	return &doc, nil
}

// Flatten produces one record per forecast entry, each carrying the location
// fields. Entry fields win on key collision. Order follows the document:
// series, then period, then entry.
func Flatten(doc *Document) []Record {
	if doc == nil || len(doc.Location) == 0 || len(doc.Series) == 0 {
		return nil
	}

	var records []Record
	for _, series := range doc.Series {
		for _, period := range series.Periods {
			for _, entry := range period {
				row := make(Record, len(doc.Location)+len(entry))
				for k, v := range doc.Location {
					row[k] = v
				}
				for k, v := range entry {
					row[k] = v
				}
				records = append(records, row)
			}
		}
	}
	return records
}

// missingColumns lists the required columns absent from r, sorted.
func missingColumns(r Record, required []string) []string {
	var missing []string
	for _, col := range required {
		if _, ok := r[col]; !ok {
			missing = append(missing, col)
		}
	}
	sort.Strings(missing)
	return missing
}
