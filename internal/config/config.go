// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// envPrefix namespaces every environment variable read by the server.
const envPrefix = "BOOKBUDDY_"

// Config holds the application configuration.
type Config struct {
	App         AppConfig
	Logger      LoggerConfig
	Storage     StorageConfig
	Server      ServerConfig
	Auth        AuthConfig
	Mail        MailConfig
	OpenLibrary OpenLibraryConfig
	Web         WebConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// IsDevelopment reports whether the server runs in development mode.
func (a AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
	// Format is "json" or "text". Empty picks JSON in production.
	Format string
}

// StorageConfig holds on-disk locations.
type StorageConfig struct {
	// DataPath holds the database, search index, cache and uploaded avatars.
	DataPath string
}

// DatabasePath returns the SQLite database file path.
func (s StorageConfig) DatabasePath() string {
	return filepath.Join(s.DataPath, "bookbuddy.db")
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	BaseURL      string        // Public URL used in emailed links
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	DrainTimeout time.Duration // Graceful shutdown limit (default: 30s)

	// TrustedProxies lists the IPs or CIDRs of reverse proxies whose
	// X-Forwarded-For and X-Real-IP headers are believed. Empty trusts none.
	TrustedProxies []string
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// Key is the 32-byte secret for PASETO reset tokens and cookie signing.
	// Set by auth.LoadOrGenerateKey during bootstrap.
	Key []byte

	SessionDuration   time.Duration // default 720h
	ResetTokenTTL     time.Duration // default 1h
	DeletedUserRetain time.Duration // soft-deleted users are purged after this (default 720h)
	CleanupInterval   time.Duration // housekeeping cadence (default 1h)
	SecureCookies     bool          // set Secure on cookies (default: true outside development)

	// Per-IP limits on login and password-reset submissions.
	LoginRatePerMinute int
	LoginBurst         int
}

// MailConfig holds outbound email configuration.
// When Host is empty, emails are logged instead of sent.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	StartTLS bool
}

// Enabled reports whether an SMTP server is configured.
func (m MailConfig) Enabled() bool {
	return m.Host != ""
}

// OpenLibraryConfig holds metadata enrichment configuration.
type OpenLibraryConfig struct {
	Enabled  bool
	BaseURL  string
	CoverURL string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// WebConfig holds HTML rendering configuration.
type WebConfig struct {
	// TemplateDir loads templates from disk and reloads them on change.
	// Empty means the embedded templates are used.
	TemplateDir string
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("bookbuddy", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "Log format (json, text; default depends on env)")
	dataPath := fs.String("data-path", "", "Base path for database, index and uploads")

	// Server flags
	serverPort := fs.String("port", "", "Server port (default: 8080)")
	baseURL := fs.String("base-url", "", "Public base URL (default: http://localhost:{port})")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	// Auth flags
	sessionDuration := fs.String("session-duration", "", "Session lifetime (e.g., 720h)")
	resetTTL := fs.String("reset-token-ttl", "", "Password reset token lifetime (e.g., 1h)")

	// Mail flags
	smtpHost := fs.String("smtp-host", "", "SMTP server host (empty logs emails instead)")

	templateDir := fs.String("template-dir", "", "Load templates from disk and hot reload them")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Missing .env is fine; existing environment variables win over it.
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level:  getConfigValue(*logLevel, "LOG_LEVEL", "info"),
			Format: getConfigValue(*logFormat, "LOG_FORMAT", ""),
		},
		Storage: StorageConfig{
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*serverPort, "PORT", "8080"),
			BaseURL:        getConfigValue(*baseURL, "BASE_URL", ""),
			TrustedProxies: splitList(getConfigValue("", "TRUSTED_PROXIES", "")),
		},
		Auth: AuthConfig{
			LoginRatePerMinute: getIntConfigValue("", "LOGIN_RATE_PER_MINUTE", 10),
			LoginBurst:         getIntConfigValue("", "LOGIN_BURST", 5),
		},
		Mail: MailConfig{
			Host:     getConfigValue(*smtpHost, "SMTP_HOST", ""),
			Port:     getIntConfigValue("", "SMTP_PORT", 587),
			Username: getConfigValue("", "SMTP_USERNAME", ""),
			Password: getConfigValue("", "SMTP_PASSWORD", ""),
			From:     getConfigValue("", "SMTP_FROM", "no-reply@bookbuddy.local"),
			FromName: getConfigValue("", "SMTP_FROM_NAME", "BookBuddy"),
			StartTLS: getBoolConfigValue("", "SMTP_STARTTLS", true),
		},
		OpenLibrary: OpenLibraryConfig{
			Enabled:  getBoolConfigValue("", "OPENLIBRARY_ENABLED", true),
			BaseURL:  getConfigValue("", "OPENLIBRARY_URL", "https://openlibrary.org"),
			CoverURL: getConfigValue("", "OPENLIBRARY_COVER_URL", "https://covers.openlibrary.org"),
		},
		Web: WebConfig{
			TemplateDir: getConfigValue(*templateDir, "TEMPLATE_DIR", ""),
		},
	}

	durations := []struct {
		flagValue string
		envKey    string
		def       string
		dest      *time.Duration
	}{
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{"", "SERVER_DRAIN_TIMEOUT", "30s", &cfg.Server.DrainTimeout},
		{*sessionDuration, "SESSION_DURATION", "720h", &cfg.Auth.SessionDuration},
		{*resetTTL, "RESET_TOKEN_TTL", "1h", &cfg.Auth.ResetTokenTTL},
		{"", "DELETED_USER_RETENTION", "720h", &cfg.Auth.DeletedUserRetain},
		{"", "CLEANUP_INTERVAL", "1h", &cfg.Auth.CleanupInterval},
		{"", "OPENLIBRARY_TIMEOUT", "8s", &cfg.OpenLibrary.Timeout},
		{"", "OPENLIBRARY_CACHE_TTL", "24h", &cfg.OpenLibrary.CacheTTL},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", strings.ToLower(d.envKey), raw, err)
		}
		*d.dest = parsed
	}

	cfg.Auth.SecureCookies = getBoolConfigValue("", "SECURE_COOKIES", !cfg.App.IsDevelopment())

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = "http://localhost:" + cfg.Server.Port
	}
	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if cfg.Web.TemplateDir != "" {
		expanded, err := expandPath(cfg.Web.TemplateDir, "")
		if err != nil {
			return nil, fmt.Errorf("invalid template dir: %w", err)
		}
		cfg.Web.TemplateDir = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}
	switch c.Logger.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logger.Format)
	}

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base URL: %q", c.Server.BaseURL)
	}

	if c.Auth.SessionDuration <= 0 {
		return errors.New("session duration must be positive")
	}
	if c.Auth.ResetTokenTTL <= 0 {
		return errors.New("reset token TTL must be positive")
	}
	if c.Auth.LoginRatePerMinute <= 0 || c.Auth.LoginBurst <= 0 {
		return errors.New("login rate limit and burst must be positive")
	}

	for _, proxy := range c.Server.TrustedProxies {
		if _, err := ParseProxy(proxy); err != nil {
			return fmt.Errorf("invalid trusted proxy %q: %w", proxy, err)
		}
	}

	if c.Mail.Enabled() && c.Mail.From == "" {
		return errors.New("SMTP_FROM is required when SMTP_HOST is set")
	}

	return nil
}

// ParseProxy parses a trusted proxy entry, either a single IP or a CIDR.
func ParseProxy(s string) (netip.Prefix, error) {
	if strings.Contains(s, "/") {
		prefix, err := netip.ParsePrefix(s)
		return prefix.Masked(), err
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath defaults the data path to ~/BookBuddy.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "BookBuddy")

	expanded, err := expandPath(c.Storage.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
// envKey is looked up with the BOOKBUDDY_ prefix.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envValue := os.Getenv(envPrefix + envKey); envValue != "" {
		return envValue
	}

	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}
