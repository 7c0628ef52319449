package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sguter90/sensorcharts/pkg/connection"
	"github.com/sirupsen/logrus"
)

const (
	defaultAPIURL     = "http://localhost:8000/api/v1/"
	defaultServerPort = "8059"
)

// DefaultAllowedOrigins is used when SERVER_ALLOWED_ORIGINS is not set
var DefaultAllowedOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
}

// Config holds runtime configuration for the sensorcharts binary
type Config struct {
	APIURL         string
	AccessToken    string
	ServerPort     string
	AllowedOrigins []string
	Connection     connection.Options
	KindsFile      string
	LogLevel       logrus.Level
}

// Load reads configuration from environment variables (optionally .env)
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{
		APIURL:      getEnv("MONITOR_API_URL", defaultAPIURL),
		AccessToken: getEnv("MONITOR_ACCESS_TOKEN", ""),
		ServerPort:  getEnv("SERVER_PORT", defaultServerPort),
		KindsFile:   getEnv("MONITOR_KINDS_FILE", ""),
		Connection:  connection.DefaultOptions(),
	}

	cfg.AllowedOrigins = ParseOrigins(getEnv("SERVER_ALLOWED_ORIGINS", ""))

	var err error
	if cfg.Connection.BaseDelay, err = getDuration("MONITOR_RECONNECT_BASE", cfg.Connection.BaseDelay); err != nil {
		return cfg, err
	}
	if cfg.Connection.MaxDelay, err = getDuration("MONITOR_RECONNECT_MAX", cfg.Connection.MaxDelay); err != nil {
		return cfg, err
	}
	if cfg.Connection.ConnectTimeout, err = getDuration("MONITOR_CONNECT_TIMEOUT", cfg.Connection.ConnectTimeout); err != nil {
		return cfg, err
	}

	if v := getEnv("MONITOR_RECONNECT_ATTEMPTS", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("invalid MONITOR_RECONNECT_ATTEMPTS: %q", v)
		}
		cfg.Connection.MaxAttempts = n
	}

	failFast := getEnv("MONITOR_FAIL_FAST", "")
	cfg.Connection.FailFast = failFast == "1" || strings.EqualFold(failFast, "true")

	cfg.LogLevel = logrus.InfoLevel
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		level, err := logrus.ParseLevel(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = level
	}

	if cfg.Connection.MaxDelay < cfg.Connection.BaseDelay {
		return cfg, fmt.Errorf("MONITOR_RECONNECT_MAX (%s) must not be below MONITOR_RECONNECT_BASE (%s)",
			cfg.Connection.MaxDelay, cfg.Connection.BaseDelay)
	}

	return cfg, nil
}

// ParseOrigins splits a comma-separated origin list, falling back to the defaults
func ParseOrigins(value string) []string {
	var origins []string
	for _, origin := range strings.Split(value, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return append([]string(nil), DefaultAllowedOrigins...)
	}
	return origins
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return defaultValue, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
