package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"webhook-analytics-service/internal/platform/logger"
)

// New builds the Fiber app with request logging and a per-request
// deadline on the user context. Params and headers are copied out of the
// request buffer; they outlive the handler in span attributes.
func New(log *logger.Logger, requestTimeout time.Duration) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "webhook-analytics-service",
		Immutable:             true,
		ReadTimeout:           requestTimeout,
		WriteTimeout:          requestTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})
	app.Use(RequestLogger(log))
	if requestTimeout > 0 {
		app.Use(Timeout(requestTimeout))
	}
	return app
}

// RequestLogger logs one line per request at a level derived from the
// response status.
func RequestLogger(log *logger.Logger) fiber.Handler {
	log = log.With("component", "http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Let the error handler set the status before it is logged.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(http.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		kv := []interface{}{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("request", kv...)
		case status >= http.StatusBadRequest:
			log.Warn("request", kv...)
		default:
			log.Info("request", kv...)
		}
		return nil
	}
}

// Timeout attaches a deadline to the context handlers pass downstream.
func Timeout(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := http.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= http.StatusInternalServerError {
			log.Error("unhandled request error", "path", c.Path(), "error", err)
		}
		return c.Status(code).JSON(fiber.Map{"error": http.StatusText(code)})
	}
}
