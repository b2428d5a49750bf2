package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/forecast-collector/internal/config"
	"github.com/i474232898/forecast-collector/internal/store"
	"github.com/i474232898/forecast-collector/internal/weather"
)

var validate = validator.New()

func init() {
	_ = validate.RegisterValidation("region", func(fl validator.FieldLevel) bool {
		return config.RegionPattern.MatchString(fl.Field().String())
	})
}

// ForecastReader reads the retained dataset of a region.
type ForecastReader interface {
	GetLatest(ctx context.Context, region string) (weather.Entry, error)
	GetRange(ctx context.Context, region string, from, to time.Time) ([]weather.Entry, error)
	GetDataset(ctx context.Context, region string) ([]weather.Entry, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service ForecastReader) {
	v1 := app.Group("/api/v1")

	v1.Get("/forecast/latest", func(c *fiber.Ctx) error {
		q, err := parseRegionQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		entry, err := service.GetLatest(c.UserContext(), q.Region)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no forecast data for requested region")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read forecast data")
		}

		return c.JSON(entry)
	})

	v1.Get("/forecast/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		entries, err := service.GetRange(c.UserContext(), req.Region.Region, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no forecast history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read forecast history")
		}

		return c.JSON(fiber.Map{
			"region":  req.Region.Region,
			"from":    req.From.Format(weather.LocalLayout),
			"to":      req.To.Format(weather.LocalLayout),
			"entries": entries,
		})
	})

	v1.Get("/forecast/summary", func(c *fiber.Ctx) error {
		q, err := parseRegionQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		entries, err := service.GetDataset(c.UserContext(), q.Region)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no forecast data for requested region")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read forecast data")
		}

		return c.JSON(fiber.Map{
			"region":  q.Region,
			"summary": weather.Summarize(entries),
		})
	})
}

// regionQuery holds the query parameter identifying a region.
type regionQuery struct {
	Region string `validate:"required,region"`
}

func parseRegionQuery(c *fiber.Ctx) (regionQuery, error) {
	q := regionQuery{Region: c.Query("region")}

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

// historyQuery holds query parameters for the history endpoint. From and To
// are local wall-clock times.
type historyQuery struct {
	Region regionQuery
	From   time.Time `validate:"required"`
	To     time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	q, err := parseRegionQuery(c)
	if err != nil {
		return err
	}
	h.Region = q

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime accepts RFC3339, unix seconds or "YYYY-MM-DD HH:MM:SS". The wall
// clock of the value is kept and its zone dropped; unix seconds are read in UTC.
func parseTime(s string) (time.Time, error) {
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	for _, layout := range []string{time.RFC3339, weather.LocalLayout} {
		if ts, err := time.Parse(layout, s); err == nil {
			return time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), ts.Second(), ts.Nanosecond(), time.UTC), nil
		}
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339, unix seconds or YYYY-MM-DD HH:MM:SS")
}
