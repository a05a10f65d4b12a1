package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings holds the runtime configuration for the uploader.
// All values can be overridden with GPHOTOS_-prefixed environment
// variables, eg GPHOTOS_API_BASE_URL or GPHOTOS_MAX_RETRIES.
type Settings struct {
	// APIBaseURL is the REST root of the Photos Library API.
	APIBaseURL string

	// AuthHost and AuthPort describe the local callback listener used
	// during the interactive OAuth flow.
	AuthHost string
	AuthPort int

	// MaxRetries is the total number of attempts for the raw upload
	// phase; RetryDelay is the fixed pause between attempts.
	MaxRetries int
	RetryDelay time.Duration

	LogLevel string
}

const (
	defaultAPIBaseURL = "https://photoslibrary.googleapis.com/v1"
	defaultAuthHost   = "localhost"
	defaultAuthPort   = 8080
	defaultMaxRetries = 3
	defaultRetryDelay = 5 // seconds
	defaultLogLevel   = "INFO"
)

// AuthSuccessMessage is shown in the browser once the OAuth callback
// has been received.
const AuthSuccessMessage = "The auth flow is complete; you may close this window."

// Scopes are the OAuth scopes requested during authentication.
var Scopes = []string{
	"https://www.googleapis.com/auth/photoslibrary",
	"https://www.googleapis.com/auth/photoslibrary.sharing",
}

// Load reads settings from the environment, falling back to defaults.
func Load() Settings {
	v := viper.New()
	v.SetEnvPrefix("GPHOTOS")
	v.AutomaticEnv()

	v.SetDefault("api_base_url", defaultAPIBaseURL)
	v.SetDefault("auth_host", defaultAuthHost)
	v.SetDefault("auth_port", defaultAuthPort)
	v.SetDefault("max_retries", defaultMaxRetries)
	v.SetDefault("retry_delay", defaultRetryDelay)
	v.SetDefault("log_level", defaultLogLevel)

	return Settings{
		APIBaseURL: v.GetString("api_base_url"),
		AuthHost:   v.GetString("auth_host"),
		AuthPort:   v.GetInt("auth_port"),
		MaxRetries: v.GetInt("max_retries"),
		RetryDelay: time.Duration(v.GetInt("retry_delay")) * time.Second,
		LogLevel:   v.GetString("log_level"),
	}
}

// SlogLevel maps the configured LogLevel string to a slog.Level.
func (s Settings) SlogLevel() (slog.Level, error) {
	switch strings.ToUpper(s.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO", "":
		return slog.LevelInfo, nil
	case "WARNING", "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s.LogLevel)
}

func (s Settings) Validate() error {
	if s.APIBaseURL == "" {
		return fmt.Errorf("api_base_url must not be empty")
	}
	if s.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1, got %d", s.MaxRetries)
	}
	if s.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must not be negative")
	}
	if s.AuthPort < 0 || s.AuthPort > 65535 {
		return fmt.Errorf("auth_port %d out of range", s.AuthPort)
	}
	if _, err := s.SlogLevel(); err != nil {
		return err
	}
	return nil
}
