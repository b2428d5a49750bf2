package store

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/forecast-collector/internal/weather"
)

var fetchedAt = time.Date(2024, 12, 3, 1, 15, 0, 0, time.UTC)

func sampleEntries(n int) []weather.Entry {
	start := time.Date(2024, 12, 3, 7, 0, 0, 0, time.UTC)
	out := make([]weather.Entry, n)
	for i := range out {
		local := start.Add(time.Duration(3*i) * time.Hour)
		e := weather.Entry{
			Province:           "Banten",
			City:               "Kota Tangerang",
			District:           "Karawaci",
			Village:            "Karawaci Baru",
			Lon:                106.6176,
			Lat:                -6.1755,
			Datetime:           local.Add(-7 * time.Hour),
			UTCDatetime:        local.Add(-7 * time.Hour),
			LocalDatetime:      local,
			AnalysisDate:       time.Date(2024, 12, 3, 0, 0, 0, 0, time.UTC),
			Temperature:        26.5 + float64(i),
			Humidity:           83,
			WindSpeed:          5.3,
			WindDirection:      "W",
			WindDegree:         270,
			CloudCover:         100,
			Precipitation:      0.2,
			WeatherCode:        61,
			WeatherDescription: "Hujan Ringan",
			Visibility:         9443,
			FetchTime:          fetchedAt,
		}
		weather.Derive(&e)
		out[i] = e
	}
	return out
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	entries := sampleEntries(4)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, entries))

	header, _, _ := strings.Cut(buf.String(), "\n")
	assert.Equal(t, strings.Join(weather.Columns(), ","), header)

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, entries, decoded)
}

// legacyDataset is a file in the layout the first collector wrote: API
// columns renamed, no utc_datetime or analysis_date, keys in the old scheme.
const legacyDataset = `provinsi,kotkab,kecamatan,desa,lon,lat,datetime,local_datetime,temperature,humidity,wind_speed,wind_direction,wind_degree,cloud_cover,precipitation,weather,weather_description,visibility,hour,date,fetch_time,unique_key
Banten,Kota Tangerang,Karawaci,Karawaci Baru,106.6176,-6.1755,2024-12-03 00:00:00+00:00,2024-12-03 07:00:00,26,83,5.3,W,270,100,0.2,61,Hujan Ringan,9443,7,2024-12-03,2024-12-03 01:15:00.123456,2024-12-03 07:00:00_7
Banten,Kota Tangerang,Karawaci,Karawaci Baru,106.6176,-6.1755,2024-12-03 03:00:00+00:00,2024-12-03 10:00:00,29,70,4.1,SW,225,60,0,3,Berawan,10000,10,2024-12-03,2024-12-03 01:15:00.123456,2024-12-03 10:00:00_10
`

func TestDecodeLegacyLayout(t *testing.T) {
	entries, err := Decode(strings.NewReader(legacyDataset))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	e := entries[0]
	assert.Equal(t, "Karawaci Baru", e.Village)
	assert.Equal(t, 26.0, e.Temperature)
	assert.Equal(t, 61, e.WeatherCode)
	assert.Equal(t, "Hujan Ringan", e.WeatherDescription)
	assert.Equal(t, time.Date(2024, 12, 3, 7, 0, 0, 0, time.UTC), e.LocalDatetime)
	assert.Equal(t, time.Date(2024, 12, 3, 0, 0, 0, 0, time.UTC), e.Datetime)
	assert.True(t, e.UTCDatetime.IsZero())
	assert.True(t, e.AnalysisDate.IsZero())
	assert.Equal(t, time.Date(2024, 12, 3, 1, 15, 0, 123456000, time.UTC), e.FetchTime)
	assert.Equal(t, "2024-12-03 07:00:00_7", e.DedupKey)

	assert.Equal(t, 2, weather.EnsureKeys(entries))
	assert.Equal(t, "20241203070000", entries[0].DedupKey)
	assert.Equal(t, "20241203100000", entries[1].DedupKey)
}

func TestDecodeBlankTimestamps(t *testing.T) {
	body := "local_datetime,utc_datetime,analysis_date,date,fetch_time\n2024-12-03 07:00:00,,,,\n"
	entries, err := Decode(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].UTCDatetime.IsZero())
	assert.True(t, entries[0].FetchTime.IsZero())

	_, err = Decode(strings.NewReader("local_datetime,temperature\n,26\n"))
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestDecodeEmpty(t *testing.T) {
	entries, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = Decode(strings.NewReader(strings.Join(weather.Columns(), ",") + "\n"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDecodeCorrupt(t *testing.T) {
	cases := map[string]string{
		"no local time column": "province,temperature\nBanten,26\n",
		"bad local time":       "local_datetime,temperature\nsoon,26\n",
		"bad number":           "local_datetime,temperature\n2024-12-03 07:00:00,warm\n",
		"ragged row":           "local_datetime,temperature\n2024-12-03 07:00:00\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCorrupt))
		})
	}
}
