package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/draw"
)

type Config struct {
	API       APIConfig
	Normalize NormalizeConfig
	Tracing   TracingConfig
	RateLimit RateLimitConfig
}

type APIConfig struct {
	Addr         string
	MaxBodyBytes int64
}

type NormalizeConfig struct {
	MaxDimension  int
	Interpolation string
}

// Interpolator resolves the configured interpolation name, falling back to
// Catmull-Rom for unknown names.
func (n NormalizeConfig) Interpolator() draw.Interpolator {
	switch strings.ToLower(strings.TrimSpace(n.Interpolation)) {
	case "nearest", "nearestneighbor":
		return draw.NearestNeighbor
	case "approxbilinear":
		return draw.ApproxBiLinear
	case "bilinear":
		return draw.BiLinear
	default:
		return draw.CatmullRom
	}
}

type TracingConfig struct {
	ServiceName  string
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool
}

// RateLimitConfig gates POST /v1/normalize behind a redis token bucket.
// Each request costs one token per CostUnitBytes of upload.
type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Capacity      int
	Window        time.Duration
	CostUnitBytes int64
	SubjectHeader string
}

func Load() Config {
	return Config{
		API: APIConfig{
			Addr:         env("UPRIGHT_API_ADDR", ":8080"),
			MaxBodyBytes: int64(envInt("UPRIGHT_MAX_BODY_BYTES", 32<<20)),
		},
		Normalize: NormalizeConfig{
			MaxDimension:  envPositiveInt("UPRIGHT_MAX_DIMENSION", 1280),
			Interpolation: env("UPRIGHT_INTERPOLATION", "catmullrom"),
		},
		Tracing: TracingConfig{
			ServiceName:  env("UPRIGHT_SERVICE_NAME", "upright"),
			Exporter:     env("UPRIGHT_TRACE_EXPORTER", "none"),
			OTLPEndpoint: env("UPRIGHT_OTLP_ENDPOINT", ""),
			OTLPInsecure: envBool("UPRIGHT_OTLP_INSECURE", true),
		},
		RateLimit: RateLimitConfig{
			Enabled:       envBool("UPRIGHT_RATE_LIMIT_ENABLED", false),
			RedisAddr:     env("UPRIGHT_REDIS_ADDR", "127.0.0.1:6379"),
			RedisPassword: env("UPRIGHT_REDIS_PASSWORD", ""),
			RedisDB:       envInt("UPRIGHT_REDIS_DB", 0),
			Capacity:      envPositiveInt("UPRIGHT_RATE_LIMIT_CAPACITY", 120),
			Window:        envDuration("UPRIGHT_RATE_LIMIT_WINDOW", time.Minute),
			CostUnitBytes: int64(envPositiveInt("UPRIGHT_RATE_LIMIT_COST_UNIT_BYTES", 1<<20)),
			SubjectHeader: env("UPRIGHT_RATE_LIMIT_SUBJECT_HEADER", "X-API-Key"),
		},
	}
}

func env(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envPositiveInt(key string, fallback int) int {
	if v := envInt(key, fallback); v > 0 {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
