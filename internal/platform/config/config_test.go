package config

import (
	"strings"
	"testing"
	"time"

	"webhook-analytics-service/internal/analytics/core/domain"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envFrom(map[string]string{
		"POSTGRES_DSN": "postgres://localhost/db",
		"MONGO_URI":    "mongodb://localhost:27017",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.BucketStore != StoreMongo || cfg.MongoDatabase != "analytics" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.RollupPeriods) != 1 || cfg.RollupPeriods[0] != domain.PeriodDaily {
		t.Fatalf("expected daily rollups by default, got %v", cfg.RollupPeriods)
	}
	if cfg.StripeTolerance != 5*time.Minute {
		t.Fatalf("expected 5m stripe tolerance, got %v", cfg.StripeTolerance)
	}
	if cfg.ClickHouse.Enabled() {
		t.Fatalf("clickhouse must be disabled without a host")
	}
}

func TestFromEnv_SecretsAndPeriods(t *testing.T) {
	cfg, err := FromEnv(envFrom(map[string]string{
		"POSTGRES_DSN":           "postgres://localhost/db",
		"BUCKET_STORE":           "memory",
		"ROLLUP_PERIODS":         "hourly, daily,monthly",
		"WEBHOOK_SECRET_STRIPE":  "whsec_1",
		"WEBHOOK_SECRET_TWITTER": "tw",
		"CLICKHOUSE_HOST":        "ch",
		"CLICKHOUSE_NATIVE_PORT": "9440",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Secret("stripe") != "whsec_1" || cfg.Secret("Twitter") != "tw" || cfg.Secret("facebook") != "" {
		t.Fatalf("unexpected secrets: %v", cfg.WebhookSecrets)
	}
	if len(cfg.RollupPeriods) != 3 {
		t.Fatalf("expected 3 periods, got %v", cfg.RollupPeriods)
	}
	if cfg.ClickHouse.Port != 9440 {
		t.Fatalf("expected port 9440, got %d", cfg.ClickHouse.Port)
	}
}

func TestFromEnv_CollectsAllErrors(t *testing.T) {
	_, err := FromEnv(envFrom(map[string]string{
		"BUCKET_STORE":            "mongo",
		"ROLLUP_PERIODS":          "minutely",
		"REQUEST_TIMEOUT_SECONDS": "soon",
	}))
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, want := range []string{"POSTGRES_DSN", "MONGO_URI", "ROLLUP_PERIODS", "REQUEST_TIMEOUT_SECONDS"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected error to mention %s, got %v", want, err)
		}
	}
}

func TestFromEnv_UnknownStore(t *testing.T) {
	_, err := FromEnv(envFrom(map[string]string{
		"POSTGRES_DSN": "postgres://localhost/db",
		"BUCKET_STORE": "dynamo",
	}))
	if err == nil || !strings.Contains(err.Error(), "BUCKET_STORE") {
		t.Fatalf("expected BUCKET_STORE error, got %v", err)
	}
}

func TestFromEnv_Tracing(t *testing.T) {
	cfg, err := FromEnv(envFrom(map[string]string{
		"POSTGRES_DSN":                "postgres://localhost/db",
		"BUCKET_STORE":                "memory",
		"OTEL_ENABLED":                "true",
		"OTEL_EXPORTER_OTLP_ENDPOINT": "collector:4318",
		"OTEL_EXPORTER_OTLP_INSECURE": "1",
		"OTEL_EXPORTER_OTLP_HEADERS":  "api-key=abc, x-team = core ,broken,=v",
		"OTEL_SAMPLER_RATIO":          "0.5",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tr := cfg.Tracing
	if !tr.Enabled || !tr.Insecure || tr.Endpoint != "collector:4318" || tr.SampleRatio != 0.5 {
		t.Fatalf("unexpected tracing config: %+v", tr)
	}
	if len(tr.Headers) != 2 || tr.Headers["api-key"] != "abc" || tr.Headers["x-team"] != "core" {
		t.Fatalf("unexpected headers: %v", tr.Headers)
	}
}

func TestFromEnv_TracingDefaults(t *testing.T) {
	cfg, err := FromEnv(envFrom(map[string]string{
		"POSTGRES_DSN": "postgres://localhost/db",
		"BUCKET_STORE": "memory",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Tracing.Enabled || cfg.Tracing.Headers != nil || cfg.Tracing.SampleRatio != 0.1 {
		t.Fatalf("unexpected tracing defaults: %+v", cfg.Tracing)
	}
}

func TestSampleRatio(t *testing.T) {
	cases := map[string]float64{"": 0.1, "abc": 0.1, "0.5": 0.5, "-1": 0, "3": 1}
	for in, want := range cases {
		if got := sampleRatio(in); got != want {
			t.Fatalf("sampleRatio(%q): expected %v, got %v", in, want, got)
		}
	}
}

func TestIsProduction(t *testing.T) {
	cases := map[string]bool{"production": true, "prod": true, "development": false, "staging": false}
	for env, want := range cases {
		c := &Config{Env: env}
		if got := c.IsProduction(); got != want {
			t.Fatalf("IsProduction(%q): expected %v, got %v", env, want, got)
		}
	}
}
