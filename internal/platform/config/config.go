package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures process-wide configuration.
type Server struct {
	Addr           string
	Environment    string
	LogLevel       string
	RequestTimeout time.Duration
	TrustProxy     bool

	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Auth      AuthConfig
	Tenancy   TenancyConfig
	Catalog   CatalogConfig
	RateLimit RateLimitConfig
	Bootstrap BootstrapConfig
}

// DatabaseConfig configures the Postgres pool. An empty URL selects the in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the optional Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures domain event publishing. Empty brokers disables it.
type KafkaConfig struct {
	Brokers         string
	EventsTopic     string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
}

// AuthConfig configures bearer token validation.
type AuthConfig struct {
	JWTSigningKey string
	Issuer        string
	Audience      string
	TokenTTL      time.Duration
}

// TenancyConfig configures tenant resolution.
type TenancyConfig struct {
	PlatformDomain        string
	ReservedSubdomains    []string
	ActivityTouchInterval time.Duration
}

// CatalogConfig configures the property catalog.
type CatalogConfig struct {
	MaxPageSize       int
	CountListViews    bool
	AnalyticsTimeout  time.Duration
	FeaturedListLimit int
}

// RateLimitConfig sets per-IP request budgets. Zero disables a class.
type RateLimitConfig struct {
	Enabled        bool
	AuthPerMinute  int
	WritePerMinute int
}

// BootstrapConfig seeds a super admin at startup when both admin fields are
// set. SeedDemo additionally creates a demo tenant outside production.
type BootstrapConfig struct {
	AdminEmail    string
	AdminPassword string

	SeedDemo          bool
	DemoAdminEmail    string
	DemoAdminPassword string
}

const defaultSigningKey = "dev-secret-key-change-in-production"

// LoadDotEnv reads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		_ = godotenv.Load(f) //nolint:errcheck // best effort; env vars remain the source of truth
	}
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:           getString("ESTATEHUB_ADDR", ":8080"),
		Environment:    getString("ESTATEHUB_ENV", "development"),
		LogLevel:       getString("LOG_LEVEL", "info"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 15*time.Second),
		TrustProxy:     getBool("TRUST_PROXY", false),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:         os.Getenv("KAFKA_BROKERS"),
			EventsTopic:     getString("KAFKA_EVENTS_TOPIC", "estatehub.events"),
			Acks:            getString("KAFKA_ACKS", "all"),
			Retries:         getInt("KAFKA_RETRIES", 3),
			DeliveryTimeout: getDuration("KAFKA_DELIVERY_TIMEOUT", 30*time.Second),
		},
		Auth: AuthConfig{
			JWTSigningKey: getString("JWT_SIGNING_KEY", defaultSigningKey),
			Issuer:        getString("JWT_ISSUER", "estatehub"),
			Audience:      getString("JWT_AUDIENCE", "estatehub-api"),
			TokenTTL:      getDuration("TOKEN_TTL", 12*time.Hour),
		},
		Tenancy: TenancyConfig{
			PlatformDomain:        strings.ToLower(strings.TrimSpace(os.Getenv("PLATFORM_DOMAIN"))),
			ReservedSubdomains:    getList("RESERVED_SUBDOMAINS", []string{"www", "api"}),
			ActivityTouchInterval: getDuration("ACTIVITY_TOUCH_INTERVAL", time.Minute),
		},
		Catalog: CatalogConfig{
			MaxPageSize:       getInt("MAX_PAGE_SIZE", 100),
			CountListViews:    getBool("ANALYTICS_COUNT_LIST_VIEWS", false),
			AnalyticsTimeout:  getDuration("ANALYTICS_TIMEOUT", 5*time.Second),
			FeaturedListLimit: 12,
		},
		RateLimit: RateLimitConfig{
			Enabled:        getBool("RATE_LIMIT_ENABLED", true),
			AuthPerMinute:  getInt("RATE_LIMIT_AUTH_PER_MINUTE", 10),
			WritePerMinute: getInt("RATE_LIMIT_WRITE_PER_MINUTE", 120),
		},
		Bootstrap: BootstrapConfig{
			AdminEmail:    os.Getenv("BOOTSTRAP_ADMIN_EMAIL"),
			AdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),

			SeedDemo:          getBool("SEED_DEMO_DATA", false),
			DemoAdminEmail:    getString("DEMO_ADMIN_EMAIL", "demo@estatehub.local"),
			DemoAdminPassword: getString("DEMO_ADMIN_PASSWORD", "demo-password"),
		},
	}
}

// IsProduction reports whether the server runs with production settings.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

// UsesDefaultSigningKey reports whether the development JWT key is in use.
func (s Server) UsesDefaultSigningKey() bool {
	return s.Auth.JWTSigningKey == defaultSigningKey
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
