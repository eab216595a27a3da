// Package config loads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Storage  StorageConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Tracing  TracingConfig
	Report   ReportConfig
}

type ServerConfig struct {
	HTTPPort       string
	GRPCPort       string
	Environment    string
	ServiceName    string
	LogLevel       string
	RequestTimeout time.Duration
	// TrustedProxies may set X-Forwarded-For. Requests from any other peer
	// are identified by their socket address.
	TrustedProxies []netip.Prefix
}

// IsDevelopment reports whether console logging should be used.
func (s ServerConfig) IsDevelopment() bool {
	return s.Environment == "" || s.Environment == "development"
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	LockTimeout     time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type StorageConfig struct {
	// Driver is "postgres" or "memory".
	Driver string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type RedisConfig struct {
	Addr               string
	Password           string
	DB                 int
	InventoryCacheTTL  time.Duration
	LoginRateLimit     int
	LoginRateLimitSpan time.Duration
}

// Enabled is false when no address is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type TracingConfig struct {
	Enabled        bool
	JaegerEndpoint string
}

type ReportConfig struct {
	// ChromeBin is empty to let rod download or locate a browser.
	ChromeBin    string
	ImageBaseURL string
	PDFEnabled   bool
	PDFTimeout   time.Duration
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only.
func FromEnv() (*Config, error) {
	proxies, err := parsePrefixes(splitList(getEnv("TRUSTED_PROXIES", "")))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			HTTPPort:       getEnv("HTTP_PORT", "8080"),
			GRPCPort:       getEnv("GRPC_PORT", "9090"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "insumos-service"),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			RequestTimeout: getDuration("REQUEST_TIMEOUT", 15*time.Second),
			TrustedProxies: proxies,
		},
		Postgres: PostgresConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "insumos"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			LockTimeout:     getDuration("DB_LOCK_TIMEOUT", 5*time.Second),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Storage: StorageConfig{
			Driver: getEnv("STORAGE_DRIVER", "postgres"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			TTL:    getDuration("JWT_TTL", 24*time.Hour),
		},
		Redis: RedisConfig{
			Addr:               getEnv("REDIS_ADDR", ""),
			Password:           getEnv("REDIS_PASSWORD", ""),
			DB:                 getInt("REDIS_DB", 0),
			InventoryCacheTTL:  getDuration("INVENTORY_CACHE_TTL", 10*time.Minute),
			LoginRateLimit:     getInt("LOGIN_RATE_LIMIT", 10),
			LoginRateLimitSpan: getDuration("LOGIN_RATE_LIMIT_WINDOW", time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "insumos-events"),
		},
		Tracing: TracingConfig{
			Enabled:        getBool("TRACING_ENABLED", false),
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
		},
		Report: ReportConfig{
			ChromeBin:    getEnv("CHROME_BIN", ""),
			ImageBaseURL: getEnv("REPORT_IMAGE_BASE_URL", ""),
			PDFEnabled:   getBool("REPORT_PDF_ENABLED", true),
			PDFTimeout:   getDuration("REPORT_PDF_TIMEOUT", 30*time.Second),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("STORAGE_DRIVER must be postgres or memory, got %q", c.Storage.Driver)
	}
	if c.JWT.Secret == "" {
		if c.Server.IsDevelopment() {
			c.JWT.Secret = "dev-secret-change-me"
		} else {
			return fmt.Errorf("JWT_SECRET is required outside development")
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parsePrefixes accepts CIDRs and bare addresses.
func parsePrefixes(values []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(values))
	for _, v := range values {
		if prefix, err := netip.ParsePrefix(v); err == nil {
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: invalid address %q", v)
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}
