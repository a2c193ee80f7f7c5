package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Identity provider names accepted in IDENTITY_PROVIDERS
const (
	IdentityProviderLocal   = "local"
	IdentityProviderHTTPAPI = "http_api"
)

// Rate limit store constants
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

// Log format constants
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

type Config struct {
	// Server settings
	ServerAddr  string
	BaseURL     string
	Environment string // "production" or "development"

	// Logging
	LogLevel  string
	LogFormat string // "json" or "console"

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string // Database connection string (DSN or path)

	// Access token settings
	JWTSecret     string
	JWTExpiration time.Duration

	// Session settings (OAuth state cookie), required when OAuth is enabled
	SessionSecret string

	// Identity providers
	IdentityProviders       []string // "local", "http_api"
	DefaultIdentityProvider string

	// HTTP API identity provider
	HTTPAPIURL                string
	HTTPAPITimeout            time.Duration
	HTTPAPIInsecureSkipVerify bool
	HTTPAPIAuthMode           string // Authentication mode: "none", "simple", or "hmac"
	HTTPAPIAuthSecret         string // Shared secret for authentication
	HTTPAPIAuthHeader         string // Custom header name for simple mode (default: "X-API-Secret")
	HTTPAPIMaxRetries         int    // Maximum retry attempts (default: 3)
	HTTPAPIRetryDelay         time.Duration
	HTTPAPIMaxRetryDelay      time.Duration

	// GitHub OAuth
	GitHubOAuthEnabled     bool
	GitHubClientID         string
	GitHubClientSecret     string
	GitHubOAuthRedirectURL string
	GitHubOAuthScopes      []string

	// Gitea OAuth
	GiteaOAuthEnabled     bool
	GiteaURL              string
	GiteaClientID         string
	GiteaClientSecret     string
	GiteaOAuthRedirectURL string
	GiteaOAuthScopes      []string

	// OAuth HTTP Client Settings
	OAuthTimeout time.Duration // HTTP client timeout for OAuth requests (default: 15s)

	// Rate limiting
	EnableRateLimit bool
	RateLimitStore  string // "memory" or "redis"
	LoginRateLimit  int    // requests per minute on POST /api/login
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	// Metrics
	MetricsEnabled bool
	MetricsToken   string // Bearer token for /metrics, empty disables auth
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", "login.db")
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	baseURL := strings.TrimSuffix(getEnv("BASE_URL", "http://localhost:8080"), "/")

	return &Config{
		ServerAddr:  getEnv("SERVER_ADDR", ":8080"),
		BaseURL:     baseURL,
		Environment: getEnv("ENVIRONMENT", "production"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", LogFormatJSON),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTExpiration: time.Duration(getEnvInt("JWT_EXPIRE_MINUTES", 30)) * time.Minute,
		SessionSecret: getEnv("SESSION_SECRET", ""),

		IdentityProviders: getEnvSlice(
			"IDENTITY_PROVIDERS",
			[]string{IdentityProviderLocal},
		),
		DefaultIdentityProvider: getEnv("DEFAULT_IDENTITY_PROVIDER", ""),

		HTTPAPIURL:                getEnv("HTTP_API_URL", ""),
		HTTPAPITimeout:            getEnvDuration("HTTP_API_TIMEOUT", 10*time.Second),
		HTTPAPIInsecureSkipVerify: getEnvBool("HTTP_API_INSECURE_SKIP_VERIFY", false),
		HTTPAPIAuthMode:           getEnv("HTTP_API_AUTH_MODE", "none"),
		HTTPAPIAuthSecret:         getEnv("HTTP_API_AUTH_SECRET", ""),
		HTTPAPIAuthHeader:         getEnv("HTTP_API_AUTH_HEADER", "X-API-Secret"),
		HTTPAPIMaxRetries:         getEnvInt("HTTP_API_MAX_RETRIES", 3),
		HTTPAPIRetryDelay:         getEnvDuration("HTTP_API_RETRY_DELAY", 1*time.Second),
		HTTPAPIMaxRetryDelay:      getEnvDuration("HTTP_API_MAX_RETRY_DELAY", 10*time.Second),

		GitHubOAuthEnabled: getEnvBool("GITHUB_OAUTH_ENABLED", false),
		GitHubClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
		GitHubOAuthRedirectURL: getEnv(
			"GITHUB_REDIRECT_URL",
			baseURL+"/oauth/github/callback",
		),
		GitHubOAuthScopes: getEnvSlice("GITHUB_SCOPES", []string{"user:email"}),

		GiteaOAuthEnabled: getEnvBool("GITEA_OAUTH_ENABLED", false),
		GiteaURL:          getEnv("GITEA_URL", ""),
		GiteaClientID:     getEnv("GITEA_CLIENT_ID", ""),
		GiteaClientSecret: getEnv("GITEA_CLIENT_SECRET", ""),
		GiteaOAuthRedirectURL: getEnv(
			"GITEA_REDIRECT_URL",
			baseURL+"/oauth/gitea/callback",
		),
		GiteaOAuthScopes: getEnvSlice("GITEA_SCOPES", []string{"read:user"}),

		OAuthTimeout: getEnvDuration("OAUTH_TIMEOUT", 15*time.Second),

		EnableRateLimit: getEnvBool("ENABLE_RATE_LIMIT", true),
		RateLimitStore:  getEnv("RATE_LIMIT_STORE", RateLimitStoreMemory),
		LoginRateLimit:  getEnvInt("LOGIN_RATE_LIMIT", 10),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", false),
		MetricsToken:   getEnv("METRICS_TOKEN", ""),
	}
}

// IsProduction reports whether ENVIRONMENT is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate checks for inconsistent settings. All problems are reported at once.
func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWTExpiration <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRE_MINUTES must be positive"))
	}

	if len(c.IdentityProviders) == 0 {
		errs = append(errs, errors.New("IDENTITY_PROVIDERS must name at least one provider"))
	}
	for _, name := range c.IdentityProviders {
		switch name {
		case IdentityProviderLocal:
		case IdentityProviderHTTPAPI:
			if c.HTTPAPIURL == "" {
				errs = append(errs, errors.New("IDENTITY_PROVIDERS includes http_api but HTTP_API_URL is empty"))
			}
		default:
			errs = append(errs, fmt.Errorf("invalid IDENTITY_PROVIDERS value: %q", name))
		}
	}
	if c.DefaultIdentityProvider != "" &&
		!slices.Contains(c.IdentityProviders, c.DefaultIdentityProvider) {
		errs = append(errs, fmt.Errorf(
			"DEFAULT_IDENTITY_PROVIDER %q is not listed in IDENTITY_PROVIDERS",
			c.DefaultIdentityProvider,
		))
	}

	if (c.GitHubOAuthEnabled || c.GiteaOAuthEnabled) && c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required when OAuth login is enabled"))
	}
	if c.GiteaOAuthEnabled && c.GiteaURL == "" {
		errs = append(errs, errors.New("GITEA_OAUTH_ENABLED requires GITEA_URL"))
	}

	switch c.RateLimitStore {
	case RateLimitStoreMemory:
	case RateLimitStoreRedis:
		if c.EnableRateLimit && c.RedisAddr == "" {
			errs = append(errs, errors.New(`RATE_LIMIT_STORE="redis" requires REDIS_ADDR`))
		}
	default:
		errs = append(errs, fmt.Errorf(
			"invalid RATE_LIMIT_STORE value: %q (must be %q or %q)",
			c.RateLimitStore, RateLimitStoreMemory, RateLimitStoreRedis,
		))
	}

	switch c.LogFormat {
	case LogFormatJSON, LogFormatConsole:
	default:
		errs = append(errs, fmt.Errorf("invalid LOG_FORMAT value: %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		if parts := splitAndTrim(value, ","); len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
