// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Data      DataConfig
	Corpus    CorpusConfig
	Server    ServerConfig
	Auth      AuthConfig
	Google    GoogleConfig
	RateLimit RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds persistent storage configuration.
type DataConfig struct {
	// BasePath holds heyrat.db and the token key file.
	BasePath string
}

// DatabasePath returns the SQLite database file path.
func (d DataConfig) DatabasePath() string {
	return filepath.Join(d.BasePath, "heyrat.db")
}

// KeyPath returns the path of the access token key file.
func (d DataConfig) KeyPath() string {
	return filepath.Join(d.BasePath, "auth.key")
}

// CorpusConfig holds poetry corpus configuration.
type CorpusConfig struct {
	Path  string
	Watch bool
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string
	PublicURL    string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key for access tokens (32 bytes).
	AccessTokenKey      []byte
	AccessTokenDuration time.Duration
	CookieSecure        bool
	// DevLogin enables passwordless email login. Never enable in production.
	DevLogin bool
}

// GoogleConfig holds Google OAuth client configuration.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// Enabled reports whether Google login is configured.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// RateLimitConfig holds per-client request budgets.
type RateLimitConfig struct {
	AuthPerMinute  int
	WritePerMinute int
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("heyrat", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for the database and key file")
	corpusPath := fs.String("corpus-path", "", "Directory holding the poetry corpus")
	corpusWatch := fs.String("corpus-watch", "", "Reload the corpus when files change (default: false)")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	publicURL := fs.String("public-url", "", "Externally visible base URL")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (e.g., 168h)")
	devLogin := fs.String("dev-login", "", "Enable passwordless development login")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists. Variables already in the environment win.
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Corpus: CorpusConfig{
			Path:  getConfigValue(*corpusPath, "CORPUS_PATH", "data"),
			Watch: getBoolConfigValue(*corpusWatch, "CORPUS_WATCH", false),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			PublicURL:   strings.TrimRight(getConfigValue(*publicURL, "SERVER_PUBLIC_URL", ""), "/"),
			CORSOrigins: splitList(getConfigValue("", "CORS_ALLOWED_ORIGINS", "")),
		},
		Auth: AuthConfig{
			AccessTokenKey: nil, // Set by auth.LoadOrGenerateKey during startup.
			CookieSecure:   getBoolConfigValue("", "COOKIE_SECURE", false),
			DevLogin:       getBoolConfigValue(*devLogin, "AUTH_DEV_LOGIN", false),
		},
		Google: GoogleConfig{
			ClientID:     getConfigValue("", "GOOGLE_CLIENT_ID", ""),
			ClientSecret: getConfigValue("", "GOOGLE_CLIENT_SECRET", ""),
			CallbackURL:  getConfigValue("", "GOOGLE_CALLBACK_URL", ""),
		},
		RateLimit: RateLimitConfig{
			AuthPerMinute:  getIntConfigValue("", "RATE_LIMIT_AUTH_PER_MINUTE", 20),
			WritePerMinute: getIntConfigValue("", "RATE_LIMIT_WRITE_PER_MINUTE", 60),
		},
	}

	durations := []struct {
		flagValue, envKey, def string
		dst                    *time.Duration
	}{
		{*accessTokenDuration, "ACCESS_TOKEN_DURATION", "168h", &cfg.Auth.AccessTokenDuration},
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if cfg.Google.CallbackURL == "" && cfg.Server.PublicURL != "" {
		cfg.Google.CallbackURL = cfg.Server.PublicURL + "/auth/google/callback"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
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

	if c.Data.BasePath == "" {
		return errors.New("data path cannot be empty after expansion")
	}
	if c.Corpus.Path == "" {
		return errors.New("CORPUS_PATH is required")
	}

	if c.Server.PublicURL != "" {
		if _, err := url.ParseRequestURI(c.Server.PublicURL); err != nil {
			return fmt.Errorf("invalid SERVER_PUBLIC_URL: %w", err)
		}
	}

	if c.Auth.AccessTokenDuration <= 0 {
		return errors.New("ACCESS_TOKEN_DURATION must be positive")
	}

	if c.Auth.DevLogin && c.IsProduction() {
		return errors.New("AUTH_DEV_LOGIN cannot be enabled in production")
	}

	if (c.Google.ClientID == "") != (c.Google.ClientSecret == "") {
		return errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set together")
	}
	if c.Google.Enabled() && c.Google.CallbackURL == "" {
		return errors.New("GOOGLE_CALLBACK_URL (or SERVER_PUBLIC_URL) is required for Google login")
	}

	if c.RateLimit.AuthPerMinute <= 0 || c.RateLimit.WritePerMinute <= 0 {
		return errors.New("rate limits must be positive")
	}

	return nil
}

func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	dataPath, err := expandPath(c.Data.BasePath, filepath.Join(homeDir, ".heyrat"))
	if err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}
	c.Data.BasePath = dataPath

	corpusPath, err := expandPath(c.Corpus.Path, "")
	if err != nil {
		return fmt.Errorf("invalid corpus path: %w", err)
	}
	c.Corpus.Path = corpusPath

	return nil
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

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
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
	result, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return result
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads KEY=value pairs from a .env file without overriding
// variables already present in the environment.
func loadEnvFile(path string) error {
	return godotenv.Load(path)
}
