package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MinSessionSecret is the shortest accepted HS256 signing secret.
const MinSessionSecret = 32

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 10s
	RequestTimeout  time.Duration // per-request timeout for plain HTTP routes

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	PublicURL     string // ex: "https://markd.domain.ext", used for the OAuth redirect and origin checks
	SecureCookies bool   // derived from PublicURL scheme unless MARKD_SECURE_COOKIES is set

	// Postgres (record store)
	DatabaseURL     string        // ex: "postgres://markd:***@db:5432/markd?sslmode=disable"
	DBMaxConns      int32         // pool max connections
	DBMinConns      int32         // pool min connections
	DBMaxConnLife   time.Duration // max connection lifetime
	DBMaxConnIdle   time.Duration // max connection idle time
	DBEnsureSchema  bool          // create the bookmarks table at startup

	// Redis (sessions, OAuth state, change feed)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisPoolSize         int           // Redis connection pool size

	// Connection retry, shared by Redis and Postgres
	ConnectTimeout time.Duration // total time to retry connecting (ex: 30s)
	RetryInterval  time.Duration // initial wait between retries (ex: 2s, grows exponentially)
	RetryMaxWait   time.Duration // max wait between retries (ex: 10s)
	PingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	WarnThreshold  int           // warn after this many attempts

	// OAuth identity provider (defaults: Google)
	OAuthClientID     string
	OAuthClientSecret string
	OAuthAuthURL      string
	OAuthTokenURL     string
	OAuthUserInfoURL  string
	OAuthScopes       []string
	OAuthStateTTL     time.Duration

	// Sessions
	SessionSecret        string
	SessionTTL           time.Duration
	SessionRefreshWindow time.Duration

	// Live views
	LivePingInterval time.Duration
	LiveReadTimeout  time.Duration
	LiveWriteTimeout time.Duration
	LiveMaxInFlight  int
	AllowedOrigins   []string // extra origins allowed to open live views

	// Auth rate limit (per client IP)
	AuthRateBurst     int
	AuthRatePerMinute int

	HealthInterval time.Duration // how often backing components are probed

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict ops endpoints to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

func Load() *Config {
	loadEnvFile(getenv("MARKD_ENV_FILE", ".env"))

	publicURL := requirePublicURL("MARKD_PUBLIC_URL")

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("MARKD_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("MARKD_SHUTDOWN_TIMEOUT", 10*time.Second),
		RequestTimeout:  mustDuration("MARKD_REQUEST_TIMEOUT", 10*time.Second),

		// Logging
		LogLevel:  getenv("MARKD_LOG_LEVEL", "info"),
		PrettyLog: mustBool("MARKD_PRETTY_LOG", false),

		PublicURL:     strings.TrimRight(publicURL.String(), "/"),
		SecureCookies: mustBool("MARKD_SECURE_COOKIES", publicURL.Scheme == "https"),

		// Postgres settings
		DatabaseURL:     requireEnv("MARKD_DATABASE_URL"),
		DBMaxConns:      int32(getenvInt("MARKD_DB_MAX_CONNS", 10)),
		DBMinConns:      int32(getenvInt("MARKD_DB_MIN_CONNS", 1)),
		DBMaxConnLife:   mustDuration("MARKD_DB_MAX_CONN_LIFETIME", time.Hour),
		DBMaxConnIdle:   mustDuration("MARKD_DB_MAX_CONN_IDLE", 30*time.Minute),
		DBEnsureSchema:  mustBool("MARKD_DB_ENSURE_SCHEMA", true),

		// Redis settings
		RedisAddr:             requireEnv("MARKD_REDIS_ADDR"),
		RedisUser:             getenv("MARKD_REDIS_USERNAME", ""),
		RedisPasswordRequired: mustBool("MARKD_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("MARKD_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("MARKD_REDIS_DB", 0),
		RedisDT:               mustDuration("MARKD_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("MARKD_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("MARKD_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisPoolSize:         getenvInt("MARKD_REDIS_POOL_SIZE", 10),

		// Retry settings
		ConnectTimeout: mustDuration("MARKD_CONNECT_TIMEOUT", 30*time.Second),
		RetryInterval:  mustDuration("MARKD_RETRY_INTERVAL", 2*time.Second),
		RetryMaxWait:   mustDuration("MARKD_RETRY_MAX_WAIT", 10*time.Second),
		PingTimeout:    mustDuration("MARKD_PING_TIMEOUT", 5*time.Second),
		WarnThreshold:  getenvInt("MARKD_WARN_THRESHOLD", 3),

		// OAuth settings
		OAuthClientID:     requireEnv("MARKD_OAUTH_CLIENT_ID"),
		OAuthClientSecret: requireEnv("MARKD_OAUTH_CLIENT_SECRET"),
		OAuthAuthURL:      getenv("MARKD_OAUTH_AUTH_URL", "https://accounts.google.com/o/oauth2/auth"),
		OAuthTokenURL:     getenv("MARKD_OAUTH_TOKEN_URL", "https://oauth2.googleapis.com/token"),
		OAuthUserInfoURL:  getenv("MARKD_OAUTH_USERINFO_URL", "https://openidconnect.googleapis.com/v1/userinfo"),
		OAuthScopes:       splitAndTrim(getenv("MARKD_OAUTH_SCOPES", "openid,email,profile")),
		OAuthStateTTL:     mustDuration("MARKD_OAUTH_STATE_TTL", 10*time.Minute),

		// Session settings
		SessionSecret:        requireSecret("MARKD_SESSION_SECRET", MinSessionSecret),
		SessionTTL:           mustDuration("MARKD_SESSION_TTL", 7*24*time.Hour),
		SessionRefreshWindow: mustDuration("MARKD_SESSION_REFRESH_WINDOW", 24*time.Hour),

		// Live view settings
		LivePingInterval: mustDuration("MARKD_LIVE_PING_INTERVAL", 30*time.Second),
		LiveReadTimeout:  mustDuration("MARKD_LIVE_READ_TIMEOUT", 75*time.Second),
		LiveWriteTimeout: mustDuration("MARKD_LIVE_WRITE_TIMEOUT", 10*time.Second),
		LiveMaxInFlight:  getenvInt("MARKD_LIVE_MAX_IN_FLIGHT", 4),
		AllowedOrigins:   parseList(getenv("MARKD_ALLOWED_ORIGINS", "")),

		// Rate limit
		AuthRateBurst:     getenvInt("MARKD_AUTH_RATE_BURST", 10),
		AuthRatePerMinute: getenvInt("MARKD_AUTH_RATE_PER_MIN", 20),

		HealthInterval: mustDuration("MARKD_HEALTH_INTERVAL", 15*time.Second),

		// Access restrictions
		AllowedHosts: parseList(getenv("MARKD_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseList(getenv("MARKD_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("MARKD_TRUST_PROXY", false),
	}

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: MARKD_REDIS_PASSWORD is required when MARKD_REDIS_PASSWORD_REQUIRED=true")
	}
	if cfg.SessionTTL <= 0 {
		panic("❌ FATAL: MARKD_SESSION_TTL must be positive")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to log.
func (c *Config) Redacted() Config {
	cp := *c
	cp.RedisPassword = redact(cp.RedisPassword)
	cp.RedisUser = redact(cp.RedisUser)
	cp.OAuthClientSecret = redact(cp.OAuthClientSecret)
	cp.SessionSecret = redact(cp.SessionSecret)
	cp.DatabaseURL = redactURL(cp.DatabaseURL)
	return cp
}

// RedirectURL is the OAuth callback registered with the provider.
func (c *Config) RedirectURL() string {
	return c.PublicURL + "/auth/callback"
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadEnvFile(path string) {
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(fmt.Sprintf("❌ FATAL: Cannot load env file %s: %v", path, err))
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireSecret(key string, minLen int) string {
	v := requireEnv(key)
	if len(v) < minLen {
		panic(fmt.Sprintf("❌ FATAL: %s must be at least %d bytes", key, minLen))
	}
	return v
}

func requirePublicURL(key string) *url.URL {
	v := requireEnv(key)
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		panic(fmt.Sprintf("❌ FATAL: Invalid URL for %s: %s", key, v))
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	return splitAndTrim(s)
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "***REDACTED***"
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***REDACTED***"
	}
	return u.Redacted()
}
