package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// CookieModeSameOrigin issues SameSite=Lax cookies.
	CookieModeSameOrigin = "same-origin"
	// CookieModeCrossOrigin issues SameSite=None; Secure cookies for embedded use.
	CookieModeCrossOrigin = "cross-origin"

	maxAdminSessionTTL = 24 * time.Hour
	generatedSecretLen = 32
)

// ErrMissingSessionSecret is returned when no signing secret is available outside development.
var ErrMissingSessionSecret = errors.New("AUTH_SESSION_SECRET must be set in production")

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	CORS         CORSConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters. It is read once at start-up
// and treated as immutable afterwards.
type AuthConfig struct {
	UserAccessToken        string
	AdminAccessToken       string
	ServiceAccessToken     string
	SessionSecret          string
	LoginTokenTTLSeconds   int
	UserSessionTTLMinutes  int
	AdminSessionTTLMinutes int
	CookieMode             string
	SecureCookies          bool
	AdminUsername          string
	AdminPassword          string
	BcryptCost             int
	ExchangeSingleUse      bool
	// SessionSecretGenerated is set when AUTH_SESSION_SECRET was empty and a
	// random secret was made for this process only.
	SessionSecretGenerated bool
}

// CORSConfig lists origins allowed to call the API with credentials.
type CORSConfig struct {
	AllowedOrigins []string
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "gift-portal"),
			Env:                   env,
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			// Hosting platforms sometimes append a newline to secrets.
			UserAccessToken:        strings.TrimSpace(os.Getenv("USER_ACCESS_TOKEN")),
			AdminAccessToken:       strings.TrimSpace(os.Getenv("ADMIN_ACCESS_TOKEN")),
			ServiceAccessToken:     strings.TrimSpace(os.Getenv("SERVICE_ACCESS_TOKEN")),
			SessionSecret:          strings.TrimSpace(os.Getenv("AUTH_SESSION_SECRET")),
			LoginTokenTTLSeconds:   getEnvAsInt("AUTH_LOGIN_TOKEN_TTL_SECONDS", 300),
			UserSessionTTLMinutes:  getEnvAsInt("AUTH_USER_SESSION_TTL_MINUTES", 8*60),
			AdminSessionTTLMinutes: getEnvAsInt("AUTH_ADMIN_SESSION_TTL_MINUTES", 24*60),
			CookieMode:             getEnv("AUTH_COOKIE_MODE", CookieModeSameOrigin),
			SecureCookies:          getEnvAsBool("AUTH_SECURE_COOKIES", env == "production"),
			AdminUsername:          getEnv("ADMIN_USERNAME", "admin"),
			AdminPassword:          os.Getenv("ADMIN_PASSWORD"),
			BcryptCost:             getEnvAsInt("AUTH_BCRYPT_COST", 12),
			ExchangeSingleUse:      getEnvAsBool("AUTH_EXCHANGE_SINGLE_USE", false),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	if cfg.Auth.SessionSecret == "" && !cfg.App.IsProduction() {
		secret, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		cfg.Auth.SessionSecret = secret
		cfg.Auth.SessionSecretGenerated = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run safely with.
// Missing portal tokens are tolerated: verification fails closed and logs.
func (c *Config) Validate() error {
	if c.Auth.SessionSecret == "" {
		return ErrMissingSessionSecret
	}
	switch c.Auth.CookieMode {
	case CookieModeSameOrigin, CookieModeCrossOrigin:
	default:
		return fmt.Errorf("invalid AUTH_COOKIE_MODE %q", c.Auth.CookieMode)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsProduction reports whether the service runs in the production environment.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// LoginTokenTTL is the lifetime of login exchange tokens.
func (a AuthConfig) LoginTokenTTL() time.Duration {
	if a.LoginTokenTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(a.LoginTokenTTLSeconds) * time.Second
}

// UserSessionTTL is the lifetime of user session cookies.
func (a AuthConfig) UserSessionTTL() time.Duration {
	if a.UserSessionTTLMinutes <= 0 {
		return 8 * time.Hour
	}
	return time.Duration(a.UserSessionTTLMinutes) * time.Minute
}

// AdminSessionTTL is the lifetime of admin session cookies, capped at 24h.
func (a AuthConfig) AdminSessionTTL() time.Duration {
	if a.AdminSessionTTLMinutes <= 0 {
		return maxAdminSessionTTL
	}
	ttl := time.Duration(a.AdminSessionTTLMinutes) * time.Minute
	if ttl > maxAdminSessionTTL {
		return maxAdminSessionTTL
	}
	return ttl
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func randomSecret() (string, error) {
	buf := make([]byte, generatedSecretLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
