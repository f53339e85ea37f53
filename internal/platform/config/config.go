package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"webhook-analytics-service/internal/analytics/core/domain"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Sources with a dedicated secret variable WEBHOOK_SECRET_<SOURCE>.
var secretSources = []string{"facebook", "instagram", "twitter", "linkedin", "stripe", "internal", "generic"}

type ClickHouse struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

// Enabled reports whether a receipt sink is configured.
func (c ClickHouse) Enabled() bool {
	return c.Host != ""
}

// Tracing holds the OTEL_* exporter settings.
type Tracing struct {
	Enabled     bool
	Endpoint    string
	Insecure    bool
	Headers     map[string]string
	SampleRatio float64
}

type Config struct {
	HTTPAddr       string
	Env            string
	RequestTimeout time.Duration

	PostgresDSN   string
	MongoURI      string
	MongoDatabase string
	BucketStore   string
	RollupPeriods []domain.Period

	WebhookSecrets      map[string]string
	FacebookVerifyToken string
	StripeTolerance     time.Duration

	RedisAddr      string
	RollupCacheTTL time.Duration

	ClickHouse ClickHouse
	Tracing    Tracing
}

// Load reads a .env file when present and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the config from a lookup function and validates it.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	var errs []error
	seconds := func(key string, def int) time.Duration {
		raw := get(key, strconv.Itoa(def))
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errs = append(errs, fmt.Errorf("%s: invalid seconds %q", key, raw))
			return time.Duration(def) * time.Second
		}
		return time.Duration(n) * time.Second
	}

	cfg := &Config{
		HTTPAddr:            get("HTTP_ADDR", ":8080"),
		Env:                 get("APP_ENV", "development"),
		RequestTimeout:      seconds("REQUEST_TIMEOUT_SECONDS", 10),
		PostgresDSN:         get("POSTGRES_DSN", ""),
		MongoURI:            get("MONGO_URI", ""),
		MongoDatabase:       get("MONGO_DATABASE", "analytics"),
		BucketStore:         strings.ToLower(get("BUCKET_STORE", StoreMongo)),
		WebhookSecrets:      map[string]string{},
		FacebookVerifyToken: get("FACEBOOK_VERIFY_TOKEN", ""),
		StripeTolerance:     seconds("STRIPE_TOLERANCE_SECONDS", 300),
		RedisAddr:           get("REDIS_ADDR", ""),
		RollupCacheTTL:      seconds("ROLLUP_CACHE_TTL_SECONDS", 30),
		ClickHouse: ClickHouse{
			Host:     get("CLICKHOUSE_HOST", ""),
			Database: get("CLICKHOUSE_DB_NAME", "default"),
			Username: get("CLICKHOUSE_USERNAME", "default"),
			Password: get("CLICKHOUSE_PASSWORD", ""),
		},
		Tracing: Tracing{
			Enabled:     flag(get("OTEL_ENABLED", "")),
			Endpoint:    get("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:    flag(get("OTEL_EXPORTER_OTLP_INSECURE", "")),
			Headers:     parseHeaders(get("OTEL_EXPORTER_OTLP_HEADERS", "")),
			SampleRatio: sampleRatio(get("OTEL_SAMPLER_RATIO", "")),
		},
	}

	for _, src := range secretSources {
		if v := get("WEBHOOK_SECRET_"+strings.ToUpper(src), ""); v != "" {
			cfg.WebhookSecrets[src] = v
		}
	}

	periods, err := domain.ParsePeriods(get("ROLLUP_PERIODS", string(domain.PeriodDaily)))
	if err != nil {
		errs = append(errs, fmt.Errorf("ROLLUP_PERIODS: %w", err))
	}
	cfg.RollupPeriods = periods

	if cfg.ClickHouse.Enabled() {
		raw := get("CLICKHOUSE_NATIVE_PORT", "9000")
		port, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("CLICKHOUSE_NATIVE_PORT: invalid port %q", raw))
		}
		cfg.ClickHouse.Port = port
	}

	if cfg.PostgresDSN == "" {
		errs = append(errs, errors.New("POSTGRES_DSN is not set"))
	}
	switch cfg.BucketStore {
	case StoreMongo:
		if cfg.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is not set"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("BUCKET_STORE: unknown store %q", cfg.BucketStore))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func flag(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// sampleRatio clamps OTEL_SAMPLER_RATIO to [0,1], defaulting to 0.1.
func sampleRatio(raw string) float64 {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0.1
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// parseHeaders reads "k1=v1,k2=v2".
func parseHeaders(raw string) map[string]string {
	headers := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		k, v := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		if k == "" || v == "" {
			continue
		}
		headers[k] = v
	}
	if len(headers) == 0 {
		return nil
	}
	return headers
}

// Secret returns the webhook secret for source, empty when unset.
func (c *Config) Secret(source string) string {
	return c.WebhookSecrets[strings.ToLower(source)]
}

// IsProduction reports whether APP_ENV selects the production logger.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}
