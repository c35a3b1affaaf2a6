package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration settings for the quote service.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - HealthPort: The port for the monitoring server (/healthz, /metrics).
// - HTTPPort: The port for the quote API.
// - ProviderType: The route provider to use (google, nominatim, visicom).
// - APIKey: The API key for the provider (required for Google and Visicom).
// - RateLimit: Requests per second allowed towards the provider.
// - ProviderTimeout: Upper bound for a single provider call.
// - Workers: The number of concurrent workers for batch geocoding.
// - Database: Optional PostgreSQL settings; an empty host disables the geocode cache and profiles.
// - RedisAddr: Optional Redis address; empty disables the route cache.
// - SessionIdleTTL: How long an unused quote session is kept.
// - PricingFile: Optional YAML/JSON file with pricing defaults.
type Config struct {
	Env             string         // Env is the current environment: local, dev, prod.
	HealthPort      int            // HealthPort is the monitoring server port.
	HTTPPort        int            // HTTPPort is the quote API port.
	ProviderType    string         // ProviderType specifies which route provider to use.
	APIKey          string         // The API key for accessing external services.
	RateLimit       int            // Requests per second towards the provider.
	ProviderTimeout time.Duration  // Upper bound for a single provider call.
	Language        string         // Preferred language of resolved addresses.
	Region          string         // Region bias for geocoding.
	OSRMURL         string         // OSRM server for the OpenStreetMap providers.
	AddrPrefix      string         // Address prefix for more accurate geocoding
	Workers         int            // The number of concurrent batch workers.
	Database        PostgresConfig // Database holds the postgres database configuration
	RedisAddr       string         // Redis address or redis:// URL.
	RouteCacheTTL   time.Duration  // Lifetime of cached routes.
	SessionIdleTTL  time.Duration  // Quote sessions idle for longer are dropped.
	PricingFile     string         // Optional pricing defaults file.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// Enabled reports whether a database host was configured.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

// MustLoad reads .env (when present) and the process environment and returns the service configuration.
// It panics on malformed values.
func MustLoad() *Config {
	_ = godotenv.Load()

	healthPort, err := strconv.Atoi(setDefaultEnv("HAULAGE_HEALTH_PORT", "8080"))
	if err != nil {
		panic("failed to parse port for monitoring server from configuration")
	}

	httpPort, err := strconv.Atoi(setDefaultEnv("HAULAGE_HTTP_PORT", "8081"))
	if err != nil {
		panic("failed to parse port for API server from configuration")
	}

	rateLimit, err := strconv.Atoi(setDefaultEnv("HAULAGE_RATE_LIMIT", "50"))
	if err != nil {
		panic("failed to parse rate limit from configuration, must be an integer types")
	}

	timeout, err := time.ParseDuration(setDefaultEnv("HAULAGE_PROVIDER_TIMEOUT", "10s"))
	if err != nil {
		panic("failed to parse provider timeout from configuration")
	}

	workers, err := strconv.Atoi(setDefaultEnv("HAULAGE_WORKERS", "4"))
	if err != nil {
		panic("failed to parse workers from configuration, must be an integer types")
	}

	cacheTTL, err := time.ParseDuration(setDefaultEnv("HAULAGE_ROUTE_CACHE_TTL", "24h"))
	if err != nil {
		panic("failed to parse route cache ttl from configuration")
	}

	sessionTTL, err := time.ParseDuration(setDefaultEnv("HAULAGE_SESSION_IDLE_TTL", "30m"))
	if err != nil {
		panic("failed to parse session idle ttl from configuration")
	}

	return &Config{
		Env:             setDefaultEnv("HAULAGE_ENV", "production"),
		HealthPort:      healthPort,
		HTTPPort:        httpPort,
		ProviderType:    setDefaultEnv("HAULAGE_PROVIDER_TYPE", "google"),
		APIKey:          os.Getenv("HAULAGE_PROVIDER_KEY"),
		RateLimit:       rateLimit,
		ProviderTimeout: timeout,
		Language:        setDefaultEnv("HAULAGE_LANGUAGE", "pt-BR"),
		Region:          setDefaultEnv("HAULAGE_REGION", "br"),
		OSRMURL:         os.Getenv("HAULAGE_OSRM_URL"),
		AddrPrefix:      setDefaultEnv("HAULAGE_ADDRESS_PREFIX", ""),
		Workers:         workers,
		Database: PostgresConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     setDefaultEnv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USERNAME"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
		},
		RedisAddr:      os.Getenv("HAULAGE_REDIS_ADDR"),
		RouteCacheTTL:  cacheTTL,
		SessionIdleTTL: sessionTTL,
		PricingFile:    os.Getenv("HAULAGE_PRICING_FILE"),
	}
}

func setDefaultEnv(key, override string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = override
	}

	return value
}
