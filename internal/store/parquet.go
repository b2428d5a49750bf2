package store

import (
	"context"
	"fmt"
	"io"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/i474232898/forecast-collector/internal/weather"
)

// parquetRow is the columnar layout of one dataset row. Timestamps are stored
// as milliseconds; local_datetime keeps its wall clock.
type parquetRow struct {
	Province           string  `parquet:"name=province, type=BYTE_ARRAY, convertedtype=UTF8"`
	City               string  `parquet:"name=city, type=BYTE_ARRAY, convertedtype=UTF8"`
	District           string  `parquet:"name=district, type=BYTE_ARRAY, convertedtype=UTF8"`
	Village            string  `parquet:"name=village, type=BYTE_ARRAY, convertedtype=UTF8"`
	Lon                float64 `parquet:"name=longitude, type=DOUBLE"`
	Lat                float64 `parquet:"name=latitude, type=DOUBLE"`
	UTCDatetime        int64   `parquet:"name=utc_datetime, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	LocalDatetime      int64   `parquet:"name=local_datetime, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	AnalysisDate       int64   `parquet:"name=analysis_date, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Temperature        float64 `parquet:"name=temperature, type=DOUBLE"`
	Humidity           float64 `parquet:"name=humidity, type=DOUBLE"`
	WindSpeed          float64 `parquet:"name=wind_speed, type=DOUBLE"`
	WindDirection      string  `parquet:"name=wind_direction, type=BYTE_ARRAY, convertedtype=UTF8"`
	WindDegree         float64 `parquet:"name=wind_degree, type=DOUBLE"`
	CloudCover         float64 `parquet:"name=cloud_cover, type=DOUBLE"`
	Precipitation      float64 `parquet:"name=precipitation, type=DOUBLE"`
	WeatherCode        int32   `parquet:"name=weather_code, type=INT32"`
	WeatherDescription string  `parquet:"name=weather_description, type=BYTE_ARRAY, convertedtype=UTF8"`
	Visibility         float64 `parquet:"name=visibility, type=DOUBLE"`
	Hour               int32   `parquet:"name=hour, type=INT32"`
	FetchTime          int64   `parquet:"name=fetch_time, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	DedupKey           string  `parquet:"name=dedup_key, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func toParquetRow(e weather.Entry) parquetRow {
	return parquetRow{
		Province:           e.Province,
		City:               e.City,
		District:           e.District,
		Village:            e.Village,
		Lon:                e.Lon,
		Lat:                e.Lat,
		UTCDatetime:        e.UTCDatetime.UnixMilli(),
		LocalDatetime:      e.LocalDatetime.UnixMilli(),
		AnalysisDate:       e.AnalysisDate.UnixMilli(),
		Temperature:        e.Temperature,
		Humidity:           e.Humidity,
		WindSpeed:          e.WindSpeed,
		WindDirection:      e.WindDirection,
		WindDegree:         e.WindDegree,
		CloudCover:         e.CloudCover,
		Precipitation:      e.Precipitation,
		WeatherCode:        int32(e.WeatherCode),
		WeatherDescription: e.WeatherDescription,
		Visibility:         e.Visibility,
		Hour:               int32(e.Hour),
		FetchTime:          e.FetchTime.UnixMilli(),
		DedupKey:           e.DedupKey,
	}
}

// ParquetExporter writes a snapshot of the merged dataset as a parquet file
// next to the CSV. It runs as a weather.Sink.
type ParquetExporter struct {
	path PathFunc
}

// NewParquetExporter creates an exporter writing to the files named by path.
func NewParquetExporter(path PathFunc) *ParquetExporter {
	return &ParquetExporter{path: path}
}

func (p *ParquetExporter) Name() string { return "parquet" }

func (p *ParquetExporter) Consume(ctx context.Context, region string, dataset []weather.Entry) error {
	return p.Export(ctx, region, dataset)
}

// Export replaces the parquet snapshot for region with dataset.
func (p *ParquetExporter) Export(ctx context.Context, region string, dataset []weather.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return WriteAtomic(p.path(region), func(w io.Writer) error {
		return writeParquet(w, dataset)
	})
}

func writeParquet(w io.Writer, dataset []weather.Entry) (err error) {
	pw, err := writer.NewParquetWriterFromWriter(w, new(parquetRow), 4)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range dataset {
		if err := pw.Write(toParquetRow(dataset[i])); err != nil {
			return fmt.Errorf("write parquet row %d: %w", i, err)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parquet writer panicked during WriteStop: %v", r)
		}
	}()
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalize parquet file: %w", err)
	}
	return nil
}
