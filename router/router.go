package router

import (
	"errors"
	"time"

	"github.com/loanflow-dev/loanflow/config"
	"github.com/loanflow-dev/loanflow/middleware"
	ratelimiter "github.com/loanflow-dev/loanflow/pkg/rate-limiter"
	"github.com/loanflow-dev/loanflow/pkg/telemetry"
	"github.com/loanflow-dev/loanflow/presenter"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func NewRouter(
	presenter presenter.Presenter,
	tel *telemetry.OpenTelemetry,
	cfg *config.Config,
	limiter *ratelimiter.RateLimiter,
) *fiber.App {

	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: ErrorCustomHandler(tel.Log),
	})

	// 1. Recovery from panics
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	// 2. Security headers
	app.Use(helmet.New())
	// 3. CORS; the form is served from this process so defaults suffice
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${ip} ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(otelfiber.Middleware(
		otelfiber.WithTracerProvider(tel.TracerProvider),
		otelfiber.WithPropagators(otel.GetTextMapPropagator()),
	))

	if cfg.REQUESTS_METRIC {
		zap.L().Info("Enabling HTTP request metrics middleware")
		app.Use(middleware.NewOtelMiddleware().Handle())
	} else {
		zap.L().Info("HTTP request metrics middleware is disabled")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":      "healthy",
			"service":     cfg.SERVICE_NAME,
			"version":     cfg.SERVICE_VERSION,
			"environment": cfg.ENVIRONMENT,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	app.Get("/", presenter.PagesPresenter.Index)

	api := app.Group("/api")

	api.Use(limiter.RateLimitMiddleware())

	api.Post("/validate", presenter.LoanPresenter.Validate)
	api.Post("/calculate", presenter.LoanPresenter.Calculate)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Not found",
		})
	})

	return app
}

// ErrorCustomHandler maps unhandled errors to the generic error envelope.
// Anything without an explicit fiber status surfaces as a plain 500 so the
// response stays availability-first rather than diagnostic.
func ErrorCustomHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Server error"

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			if code != fiber.StatusInternalServerError {
				message = e.Message
			}
		}

		log.Error("Request error occured",
			zap.Error(err),
			zap.String("path", c.Path()),
			zap.String("method", c.Method()),
			zap.Int("status_code", code),
		)

		return c.Status(code).JSON(fiber.Map{
			"error": message,
		})
	}
}
