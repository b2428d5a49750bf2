package weather

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/i474232898/forecast-collector/internal/common"
)

// Kind is the semantic type of a schema column.
type Kind int

const (
	KindString Kind = iota
	KindFloat
	KindInt
	KindTimestamp
	KindLocalTimestamp
	KindDate
)

// Layouts used when writing timestamps.
const (
	LocalLayout = "2006-01-02 15:04:05"
	DateLayout  = "2006-01-02"
)

// timestampLayouts are tried in order when parsing timestamp-like values.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	DateLayout,
}

// Field declares one persisted column.
type Field struct {
	// Name is the canonical column name in the dataset.
	Name string
	// Source is the API column it is taken from; empty for derived columns.
	Source string
	// Aliases are column names written by older dataset layouts.
	Aliases []string
	Kind    Kind

	get func(e *Entry) any
	set func(e *Entry, v any) error
}

// Format renders the field value of e for a delimited file.
func (f Field) Format(e *Entry) string {
	return formatValue(f.Kind, f.get(e))
}

// Assign parses raw (a JSON value or a text cell) into the field of e.
func (f Field) Assign(e *Entry, raw any) error {
	return f.set(e, raw)
}

// AssignCell is Assign for a stored dataset cell. Blank timestamp cells stay
// zero, since Encode writes unknown times that way; only local_datetime is
// required.
func (f Field) AssignCell(e *Entry, cell string) error {
	if strings.TrimSpace(cell) == "" && (f.Kind == KindTimestamp || f.Kind == KindDate) {
		return nil
	}
	return f.set(e, cell)
}

// Schema is the ordered list of persisted columns. Both normalization and
// the dataset codec are driven from it.
var Schema = []Field{
	stringField("province", "provinsi", func(e *Entry) *string { return &e.Province }),
	stringField("city", "kotkab", func(e *Entry) *string { return &e.City }),
	stringField("district", "kecamatan", func(e *Entry) *string { return &e.District }),
	stringField("village", "desa", func(e *Entry) *string { return &e.Village }),
	floatField("longitude", "lon", func(e *Entry) *float64 { return &e.Lon }),
	floatField("latitude", "lat", func(e *Entry) *float64 { return &e.Lat }),
	timeField("datetime", "datetime", KindTimestamp, func(e *Entry) *time.Time { return &e.Datetime }),
	timeField("utc_datetime", "utc_datetime", KindTimestamp, func(e *Entry) *time.Time { return &e.UTCDatetime }),
	timeField("local_datetime", "local_datetime", KindLocalTimestamp, func(e *Entry) *time.Time { return &e.LocalDatetime }),
	timeField("analysis_date", "analysis_date", KindTimestamp, func(e *Entry) *time.Time { return &e.AnalysisDate }),
	floatField("temperature", "t", func(e *Entry) *float64 { return &e.Temperature }),
	floatField("humidity", "hu", func(e *Entry) *float64 { return &e.Humidity }),
	floatField("wind_speed", "ws", func(e *Entry) *float64 { return &e.WindSpeed }),
	stringField("wind_direction", "wd", func(e *Entry) *string { return &e.WindDirection }),
	floatField("wind_degree", "wd_deg", func(e *Entry) *float64 { return &e.WindDegree }),
	floatField("cloud_cover", "tcc", func(e *Entry) *float64 { return &e.CloudCover }),
	floatField("precipitation", "tp", func(e *Entry) *float64 { return &e.Precipitation }),
	intField("weather_code", "weather", func(e *Entry) *int { return &e.WeatherCode }),
	stringField("weather_description", "weather_desc", func(e *Entry) *string { return &e.WeatherDescription }),
	floatField("visibility", "vs", func(e *Entry) *float64 { return &e.Visibility }),
	intField("hour", "", func(e *Entry) *int { return &e.Hour }),
	timeField("date", "", KindDate, func(e *Entry) *time.Time { return &e.Date }),
	timeField("fetch_time", "", KindTimestamp, func(e *Entry) *time.Time { return &e.FetchTime }),
	withAliases(stringField("dedup_key", "", func(e *Entry) *string { return &e.DedupKey }), "unique_key"),
}

// Columns returns the canonical column names in order.
func Columns() []string {
	cols := make([]string, len(Schema))
	for i, f := range Schema {
		cols[i] = f.Name
	}
	return cols
}

// SourceColumns returns the API columns required to build an Entry.
func SourceColumns() []string {
	var cols []string
	for _, f := range Schema {
		if f.Source != "" {
			cols = append(cols, f.Source)
		}
	}
	return cols
}

// Lookup finds a field by canonical name, source name or legacy alias.
func Lookup(column string) (Field, bool) {
	column = strings.TrimSpace(column)
	for _, f := range Schema {
		if f.Name == column || (f.Source != "" && f.Source == column) {
			return f, true
		}
		for _, a := range f.Aliases {
			if a == column {
				return f, true
			}
		}
	}
	return Field{}, false
}

// MustLookup is Lookup for names known at compile time.
func MustLookup(column string) Field {
	f, ok := Lookup(column)
	if !ok {
		panic("weather: unknown schema column " + column)
	}
	return f
}

func withAliases(f Field, aliases ...string) Field {
	f.Aliases = append(f.Aliases, aliases...)
	return f
}

func stringField(name, source string, ptr func(*Entry) *string) Field {
	return Field{
		Name: name, Source: source, Kind: KindString,
		get: func(e *Entry) any { return *ptr(e) },
		set: func(e *Entry, v any) error {
			*ptr(e) = asString(v)
			return nil
		},
	}
}

func floatField(name, source string, ptr func(*Entry) *float64) Field {
	return Field{
		Name: name, Source: source, Kind: KindFloat,
		get: func(e *Entry) any { return *ptr(e) },
		set: func(e *Entry, v any) error {
			f, err := asFloat(v)
			if err != nil {
				return fmt.Errorf("column %s: %w", name, err)
			}
			*ptr(e) = f
			return nil
		},
	}
}

func intField(name, source string, ptr func(*Entry) *int) Field {
	return Field{
		Name: name, Source: source, Kind: KindInt,
		get: func(e *Entry) any { return *ptr(e) },
		set: func(e *Entry, v any) error {
			f, err := asFloat(v)
			if err != nil {
				return fmt.Errorf("column %s: %w", name, err)
			}
			*ptr(e) = int(math.Round(f))
			return nil
		},
	}
}

func timeField(name, source string, kind Kind, ptr func(*Entry) *time.Time) Field {
	return Field{
		Name: name, Source: source, Kind: kind,
		get: func(e *Entry) any { return *ptr(e) },
		set: func(e *Entry, v any) error {
			s := asString(v)
			if s == "" && source == "" {
				// Derived columns may be absent in older files.
				return nil
			}
			t, err := ParseTimestamp(s)
			if err != nil {
				return &TimestampError{Column: name, Value: s, Err: err}
			}
			if kind == KindLocalTimestamp || kind == KindDate {
				*ptr(e) = naive(t)
			} else {
				*ptr(e) = t.UTC()
			}
			return nil
		},
	}
}

// ParseTimestamp parses s using the known layouts. Values without a zone come
// back as UTC; values with a zone keep it so the wall clock survives.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// naive drops the zone of t, keeping its wall clock.
func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// DedupKey derives the merge key from a local timestamp: its canonical text
// form with whitespace, hyphens and colons removed.
func DedupKey(local time.Time) string {
	return common.Strip(local.Format(LocalLayout), func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == ':'
	})
}

func formatValue(kind Kind, v any) string {
	switch kind {
	case KindFloat:
		return strconv.FormatFloat(v.(float64), 'f', -1, 64)
	case KindInt:
		return strconv.Itoa(v.(int))
	case KindTimestamp:
		t := v.(time.Time)
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339Nano)
	case KindLocalTimestamp:
		t := v.(time.Time)
		if t.IsZero() {
			return ""
		}
		return t.Format(LocalLayout)
	case KindDate:
		t := v.(time.Time)
		if t.IsZero() {
			return ""
		}
		return t.Format(DateLayout)
	default:
		return asString(v)
	}
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func asFloat(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		x = strings.TrimSpace(x)
		if x == "" {
			return 0, nil
		}
		return strconv.ParseFloat(x, 64)
	default:
		return 0, fmt.Errorf("unsupported numeric value %v (%T)", v, v)
	}
}
