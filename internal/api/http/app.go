package httpapi

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// AppName is reported by the health endpoint.
const AppName = "forecast-collector"

// NewApp builds the Fiber app serving the read API, health and metrics.
// metrics may be nil.
func NewApp(service ForecastReader, metrics http.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               AppName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": AppName,
		})
	})

	if metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metrics))
	}

	RegisterRoutes(app, service)
	return app
}
