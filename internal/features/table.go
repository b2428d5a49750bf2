// Package features turns a merged forecast dataset into the numeric matrix
// consumed by downstream models, using a transform fitted elsewhere.
package features

import (
	"strconv"
	"time"

	"github.com/i474232898/forecast-collector/internal/weather"
)

// Columns are the feature columns handed to the transform, in order.
var Columns = []string{
	"hour",
	"day_of_week",
	"month",
	"temperature",
	"humidity",
	"wind_speed",
	"cloud_cover",
	"precipitation",
	"weather_description",
}

// categorical columns hold text; every other feature column is numeric.
var categorical = map[string]bool{"weather_description": true}

// Table is a column-oriented view of the feature columns.
type Table struct {
	Rows        int
	Numeric     map[string][]float64
	Categorical map[string][]string
}

// Derive builds the feature table from entries. day_of_week counts from
// Monday (0) to Sunday (6); month runs from 1 to 12. Both use the local
// wall clock.
func Derive(entries []weather.Entry) *Table {
	t := &Table{
		Rows:        len(entries),
		Numeric:     make(map[string][]float64),
		Categorical: make(map[string][]string),
	}
	for _, c := range Columns {
		if categorical[c] {
			t.Categorical[c] = make([]string, len(entries))
		} else {
			t.Numeric[c] = make([]float64, len(entries))
		}
	}

	for i, e := range entries {
		t.Numeric["hour"][i] = float64(e.LocalDatetime.Hour())
		t.Numeric["day_of_week"][i] = float64(DayOfWeek(e.LocalDatetime))
		t.Numeric["month"][i] = float64(e.LocalDatetime.Month())
		t.Numeric["temperature"][i] = e.Temperature
		t.Numeric["humidity"][i] = e.Humidity
		t.Numeric["wind_speed"][i] = e.WindSpeed
		t.Numeric["cloud_cover"][i] = e.CloudCover
		t.Numeric["precipitation"][i] = e.Precipitation
		t.Categorical["weather_description"][i] = e.WeatherDescription
	}
	return t
}

// DayOfWeek returns the weekday of t with Monday as 0.
func DayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// text returns column values as strings; numeric values are formatted.
func (t *Table) text(column string) ([]string, bool) {
	if vals, ok := t.Categorical[column]; ok {
		return vals, true
	}
	nums, ok := t.Numeric[column]
	if !ok {
		return nil, false
	}
	out := make([]string, len(nums))
	for i, v := range nums {
		out[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return out, true
}
