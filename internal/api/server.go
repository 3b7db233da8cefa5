// Package api serves the upload form, the analysis endpoint and report
// downloads over HTTP.
package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/insightdelivered/statement-insights/internal/logger"
	"github.com/insightdelivered/statement-insights/internal/session"
	"github.com/insightdelivered/statement-insights/internal/worker"
)

// formOverhead is added to the upload limit for the multipart framing and
// the other form fields.
const formOverhead = 1 << 20

// Options configures the HTTP app.
type Options struct {
	Version        string
	MaxUploadBytes int
	// RateLimitRPS <= 0 disables rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// New builds the fiber app with middleware and routes.
func New(an Analyzer, sessions *session.Store, pool *worker.Pool, log zerolog.Logger, opts Options) *fiber.App {
	bodyLimit := fiber.DefaultBodyLimit
	if opts.MaxUploadBytes > 0 {
		bodyLimit = opts.MaxUploadBytes + formOverhead
	}

	app := fiber.New(fiber.Config{
		AppName:               "statement-insights",
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(RequestLogger(log))
	app.Use(recover.New())
	if opts.RateLimitRPS > 0 {
		burst := opts.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		app.Use(RateLimit(rate.NewLimiter(rate.Limit(opts.RateLimitRPS), burst), log))
	}

	h := &Handler{
		analyzer:  an,
		sessions:  sessions,
		pool:      pool,
		maxUpload: int64(opts.MaxUploadBytes),
		version:   opts.Version,
	}
	h.RegisterRoutes(app)
	return app
}

// RequestLogger tags each request with an id, puts a request-scoped logger
// in the user context and logs the outcome.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		id := c.Get(fiber.HeaderXRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, id)

		reqLog := log.With().Str("request_id", id).Logger()
		c.SetUserContext(logger.WithContext(c.UserContext(), reqLog))

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		event := reqLog.Info()
		if status >= fiber.StatusInternalServerError {
			event = reqLog.Error().Err(err)
		}
		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("request")
		return err
	}
}

// RateLimit rejects requests with 429 once limiter runs dry.
func RateLimit(limiter *rate.Limiter, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !limiter.Allow() {
			log.Warn().
				Str("method", c.Method()).
				Str("path", c.Path()).
				Str("ip", c.IP()).
				Msg("rate limit exceeded")
			return writeError(c, fiber.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again shortly.")
		}
		return c.Next()
	}
}
