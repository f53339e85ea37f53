package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"webhook-analytics-service/internal/platform/logger"
)

func observed() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logger.FromZap(zap.New(core)), logs
}

func TestRequestLogger_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		path      string
		wantLevel zapcore.Level
		wantCode  int
	}{
		{"/ok", zapcore.InfoLevel, http.StatusOK},
		{"/bad", zapcore.WarnLevel, http.StatusBadRequest},
		{"/boom", zapcore.ErrorLevel, http.StatusInternalServerError},
		{"/missing", zapcore.WarnLevel, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			log, logs := observed()
			app := New(log, time.Second)
			app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
			app.Get("/bad", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusBadRequest) })
			app.Get("/boom", func(c *fiber.Ctx) error { return fiber.ErrInternalServerError })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil), -1)
			if err != nil {
				t.Fatalf("app.Test error: %v", err)
			}
			if resp.StatusCode != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, resp.StatusCode)
			}

			entries := logs.FilterMessage("request").All()
			if len(entries) != 1 {
				t.Fatalf("expected one request log, got %d", len(entries))
			}
			if entries[0].Level != tt.wantLevel {
				t.Fatalf("expected level %v, got %v", tt.wantLevel, entries[0].Level)
			}
			if entries[0].ContextMap()["path"] != tt.path {
				t.Fatalf("unexpected fields: %v", entries[0].ContextMap())
			}
		})
	}
}

func TestTimeout_SetsDeadline(t *testing.T) {
	app := New(logger.NewNop(), 2*time.Second)
	var hasDeadline bool
	app.Get("/", func(c *fiber.Ctx) error {
		_, hasDeadline = c.UserContext().Deadline()
		return c.SendStatus(http.StatusOK)
	})

	if _, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1); err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	if !hasDeadline {
		t.Fatalf("expected the user context to carry a deadline")
	}
}

func TestNew_ValuesDoNotAliasRequestBuffer(t *testing.T) {
	app := New(logger.NewNop(), time.Second)
	if !app.Config().Immutable {
		t.Fatalf("expected an immutable app")
	}

	var kept []string
	app.Post("/webhooks/:platform", func(c *fiber.Ctx) error {
		kept = append(kept, c.Params("platform"))
		return c.SendStatus(http.StatusOK)
	})

	for _, p := range []string{"shopify", "woocomm"} {
		if _, err := app.Test(httptest.NewRequest(http.MethodPost, "/webhooks/"+p, nil), -1); err != nil {
			t.Fatalf("app.Test error: %v", err)
		}
	}
	if kept[0] != "shopify" || kept[1] != "woocomm" {
		t.Fatalf("expected params to survive their request, got %v", kept)
	}
}
