package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		wantPanic bool
	}{
		{name: "variable set", key: "MARKD_TEST_VAR", value: "test_value"},
		{name: "variable not set", key: "MARKD_TEST_VAR_MISSING", wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestRequireSecret(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantPanic bool
	}{
		{name: "long enough", value: strings.Repeat("s", MinSessionSecret)},
		{name: "too short", value: "short", wantPanic: true},
		{name: "missing", value: "", wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MARKD_TEST_SECRET", tt.value)

			defer func() {
				r := recover()
				if tt.wantPanic && r == nil {
					t.Errorf("requireSecret() should have panicked")
				}
				if !tt.wantPanic && r != nil {
					t.Errorf("requireSecret() panicked: %v", r)
				}
			}()

			requireSecret("MARKD_TEST_SECRET", MinSessionSecret)
		})
	}
}

func TestRequirePublicURL(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		want      string
		wantPanic bool
	}{
		{name: "https", value: "https://markd.domain.ext", want: "https://markd.domain.ext"},
		{name: "trailing slash and query dropped", value: "http://localhost:8080/?x=1", want: "http://localhost:8080"},
		{name: "no scheme", value: "markd.domain.ext", wantPanic: true},
		{name: "ftp scheme", value: "ftp://markd.domain.ext", wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MARKD_TEST_URL", tt.value)

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requirePublicURL() should have panicked")
					}
				}()
			}

			u := requirePublicURL("MARKD_TEST_URL")
			if !tt.wantPanic && u.String() != tt.want {
				t.Errorf("requirePublicURL() = %v, want %v", u, tt.want)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected []string
	}{
		{name: "single value", value: "value1", expected: []string{"value1"}},
		{name: "multiple values", value: "value1, value2, value3", expected: []string{"value1", "value2", "value3"}},
		{name: "quotes and blanks", value: `"a", ,'b'`, expected: []string{"a", "b"}},
		{name: "empty", value: "", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitAndTrim(tt.value)
			if len(result) != len(tt.expected) {
				t.Fatalf("splitAndTrim() = %v, want %v", result, tt.expected)
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("splitAndTrim()[%d] = %v, want %v", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{name: "valid duration", value: "5s", def: time.Second, expected: 5 * time.Second},
		{name: "invalid duration uses default", value: "invalid", def: 10 * time.Second, expected: 10 * time.Second},
		{name: "missing variable uses default", value: "", def: 15 * time.Second, expected: 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MARKD_TEST_DURATION", tt.value)

			result := mustDuration("MARKD_TEST_DURATION", tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      bool
		expected bool
	}{
		{name: "true value", value: "true", def: false, expected: true},
		{name: "false value", value: "false", def: true, expected: false},
		{name: "invalid value uses default", value: "invalid", def: true, expected: true},
		{name: "missing variable uses default", value: "", def: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MARKD_TEST_BOOL", tt.value)

			result := mustBool("MARKD_TEST_BOOL", tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("MARKD_ENV_FILE", "")
	t.Setenv("MARKD_PUBLIC_URL", "https://markd.domain.ext/")
	t.Setenv("MARKD_DATABASE_URL", "postgres://markd:hunter2@db:5432/markd")
	t.Setenv("MARKD_REDIS_ADDR", "localhost:6379")
	t.Setenv("MARKD_OAUTH_CLIENT_ID", "client")
	t.Setenv("MARKD_OAUTH_CLIENT_SECRET", "client-secret")
	t.Setenv("MARKD_SESSION_SECRET", strings.Repeat("k", MinSessionSecret))
}

func TestLoad(t *testing.T) {
	setRequired(t)
	t.Setenv("MARKD_ALLOWED_CIDRS", "10.0.0.0/8, 127.0.0.1")

	cfg := Load()

	if cfg.PublicURL != "https://markd.domain.ext" {
		t.Errorf("PublicURL = %q", cfg.PublicURL)
	}
	if cfg.RedirectURL() != "https://markd.domain.ext/auth/callback" {
		t.Errorf("RedirectURL() = %q", cfg.RedirectURL())
	}
	if !cfg.SecureCookies {
		t.Error("SecureCookies should default to true for https")
	}
	if cfg.SessionTTL != 7*24*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if len(cfg.AllowedCIDRS) != 2 {
		t.Errorf("AllowedCIDRS = %v", cfg.AllowedCIDRS)
	}
	if len(cfg.OAuthScopes) != 3 {
		t.Errorf("OAuthScopes = %v", cfg.OAuthScopes)
	}
}

func TestLoad_RedisPasswordRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("MARKD_REDIS_PASSWORD_REQUIRED", "true")
	t.Setenv("MARKD_REDIS_PASSWORD", "")

	defer func() {
		if r := recover(); r == nil {
			t.Error("Load() should have panicked without a redis password")
		}
	}()
	Load()
}

func TestLoad_EnvFile(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), ".env")
	content := "MARKD_LIVE_MAX_IN_FLIGHT=9\nMARKD_REDIS_ADDR=from-file:6379\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("MARKD_ENV_FILE", path)
	// Unset so the file value is visible; t.Setenv restores it afterwards.
	t.Setenv("MARKD_LIVE_MAX_IN_FLIGHT", "")
	if err := os.Unsetenv("MARKD_LIVE_MAX_IN_FLIGHT"); err != nil {
		t.Fatal(err)
	}

	cfg := Load()

	if cfg.LiveMaxInFlight != 9 {
		t.Errorf("LiveMaxInFlight = %d, want 9 from env file", cfg.LiveMaxInFlight)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q, env must win over the file", cfg.RedisAddr)
	}
}

func TestRedacted(t *testing.T) {
	setRequired(t)
	t.Setenv("MARKD_REDIS_PASSWORD", "pw")

	r := Load().Redacted()

	for name, v := range map[string]string{
		"SessionSecret":     r.SessionSecret,
		"OAuthClientSecret": r.OAuthClientSecret,
		"RedisPassword":     r.RedisPassword,
	} {
		if v != "***REDACTED***" {
			t.Errorf("%s = %q, want redacted", name, v)
		}
	}
	if strings.Contains(r.DatabaseURL, "hunter2") {
		t.Errorf("DatabaseURL leaked password: %s", r.DatabaseURL)
	}
}
