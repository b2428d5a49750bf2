package weather

import (
	"time"
)

// Entry is one normalized forecast row for one local timestamp at one village.
// Field order and persisted column names are declared in Schema.
type Entry struct {
	Province string  `json:"province"`
	City     string  `json:"city"`
	District string  `json:"district"`
	Village  string  `json:"village"`
	Lon      float64 `json:"longitude"`
	Lat      float64 `json:"latitude"`

	Datetime      time.Time `json:"datetime"`
	UTCDatetime   time.Time `json:"utc_datetime"`
	LocalDatetime time.Time `json:"local_datetime" validate:"required"` // naive wall clock, kept in UTC
	AnalysisDate  time.Time `json:"analysis_date"`

	Temperature        float64 `json:"temperature"`
	Humidity           float64 `json:"humidity"`
	WindSpeed          float64 `json:"wind_speed"`
	WindDirection      string  `json:"wind_direction"`
	WindDegree         float64 `json:"wind_degree"`
	CloudCover         float64 `json:"cloud_cover"`
	Precipitation      float64 `json:"precipitation"`
	WeatherCode        int     `json:"weather_code"`
	WeatherDescription string  `json:"weather_description"`
	Visibility         float64 `json:"visibility"`

	Hour      int       `json:"hour" validate:"gte=0,lte=23"`
	Date      time.Time `json:"date"`
	FetchTime time.Time `json:"fetch_time"`
	DedupKey  string    `json:"dedup_key" validate:"required"`
}

// sameForecast reports whether two entries carry the same forecast content.
// FetchTime is ignored: re-fetching an unchanged forecast is not a change.
func sameForecast(a, b Entry) bool {
	return a.forecastContent() == b.forecastContent()
}

func (e Entry) forecastContent() Entry {
	e.FetchTime = time.Time{}
	for _, t := range []*time.Time{&e.Datetime, &e.UTCDatetime, &e.LocalDatetime, &e.AnalysisDate, &e.Date} {
		*t = t.UTC()
	}
	return e
}

// Record is one flattened forecast entry keyed by raw API column name.
type Record map[string]any

// Document is the decoded forecast response: a single location and its forecast series.
type Document struct {
	Location Record   `json:"lokasi"`
	Series   []Series `json:"data"`
}

// Series holds the forecast periods of one series item; each period is a list of entries.
type Series struct {
	Periods [][]Record `json:"cuaca"`
}

// Result describes the outcome of one Update run for a region.
type Result struct {
	Region  string
	RunID   string
	Fetched int
	Stats   MergeStats
	Written bool
	Dataset []Entry
}
