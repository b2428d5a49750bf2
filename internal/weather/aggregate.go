package weather

import "time"

// Summary describes a retained dataset: its span and averaged conditions.
type Summary struct {
	Rows   int       `json:"rows"`
	Oldest time.Time `json:"oldest"`
	Newest time.Time `json:"newest"`
	Span   string    `json:"span"`

	AvgTemperature   float64        `json:"avgTemperature"`
	AvgHumidity      float64        `json:"avgHumidity"`
	AvgWindSpeed     float64        `json:"avgWindSpeed"`
	TotalPrecip      float64        `json:"totalPrecipitation"`
	DominantWeather  string         `json:"dominantWeather"`
	WeatherBreakdown map[string]int `json:"weatherBreakdown,omitempty"`
}

// Summarize aggregates a dataset ordered by local time. Numeric fields are
// averaged; the dominant weather description is picked by majority (earliest
// seen wins ties).
func Summarize(entries []Entry) Summary {
	if len(entries) == 0 {
		return Summary{}
	}

	var (
		sumTemp     float64
		sumHumidity float64
		sumWind     float64
		sumPrecip   float64
	)

	counts := make(map[string]int)
	var order []string

	for _, e := range entries {
		sumTemp += e.Temperature
		sumHumidity += e.Humidity
		sumWind += e.WindSpeed
		sumPrecip += e.Precipitation

		if _, seen := counts[e.WeatherDescription]; !seen {
			order = append(order, e.WeatherDescription)
		}
		counts[e.WeatherDescription]++
	}

	n := float64(len(entries))

	// Pick majority description.
	best := ""
	bestCount := 0
	for _, desc := range order {
		if counts[desc] > bestCount {
			bestCount = counts[desc]
			best = desc
		}
	}

	oldest := entries[0].LocalDatetime
	newest := entries[len(entries)-1].LocalDatetime

	return Summary{
		Rows:             len(entries),
		Oldest:           oldest,
		Newest:           newest,
		Span:             newest.Sub(oldest).String(),
		AvgTemperature:   sumTemp / n,
		AvgHumidity:      sumHumidity / n,
		AvgWindSpeed:     sumWind / n,
		TotalPrecip:      sumPrecip,
		DominantWeather:  best,
		WeatherBreakdown: counts,
	}
}
