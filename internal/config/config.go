package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// UI modes.
const (
	UIModeTerminal = "terminal"
	UIModeWeb      = "web"
)

// DefaultCity is looked up when the city input is blank.
const DefaultCity = "Pittsburgh"

// Config holds client configuration loaded from .env, YAML and the environment.
type Config struct {
	// WeatherAPIKey may be empty; each lookup then reports a config error.
	WeatherAPIKey     string
	WeatherAPIURL     string
	WeatherAPITimeout time.Duration // 0 keeps the transport default

	DefaultCity   string
	CityMaxLength int // 0 disables the input length check

	UIMode           string
	UIAddr           string
	StatusTimeFormat string

	ShutdownTimeout time.Duration

	LogLevel  string
	LogOutput string
}

type fileConfig struct {
	WeatherAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"weather_api"`

	UI struct {
		Mode             string `yaml:"mode"`
		Addr             string `yaml:"addr"`
		DefaultCity      string `yaml:"default_city"`
		CityMaxLength    int    `yaml:"city_max_length"`
		StatusTimeFormat string `yaml:"status_time_format"`
	} `yaml:"ui"`

	Log struct {
		Level  string `yaml:"level"`
		Output string `yaml:"output"`
	} `yaml:"log"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`
}

type secretsFile struct {
	WeatherAPIKey string `yaml:"weather_api_key"`
}

// envOverrides take precedence over the YAML file.
type envOverrides struct {
	EnvName       string `envconfig:"ENV_NAME" default:"dev"`
	WeatherAPIKey string `envconfig:"WEATHER_API_KEY"`
	WeatherAPIURL string `envconfig:"WEATHER_API_URL"`
	DefaultCity   string `envconfig:"WEATHER_DEFAULT_CITY"`
	UIMode        string `envconfig:"UI_MODE"`
	UIAddr        string `envconfig:"UI_ADDR"`
	LogLevel      string `envconfig:"LOG_LEVEL"`
	LogOutput     string `envconfig:"LOG_OUTPUT"`
}

// Load reads configuration relative to the working directory. See LoadFrom.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	return LoadFrom(cwd)
}

// LoadFrom loads dir/.env (without overriding variables already set), then the optional
// dir/config/{ENV_NAME}.yaml (default dev), then environment overrides. The API key comes
// from WEATHER_API_KEY or dir/config/secrets.yaml. A missing key is not an error.
func LoadFrom(dir string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read .env file: %w", err)
	}

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	var fc fileConfig
	configPath := filepath.Join(dir, "config", env.EnvName+".yaml")
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	cfg.WeatherAPIKey = strings.TrimSpace(env.WeatherAPIKey)
	if cfg.WeatherAPIKey == "" {
		key, err := loadAPIKeyFromSecrets(filepath.Join(dir, "config", "secrets.yaml"))
		if err != nil {
			return nil, err
		}
		cfg.WeatherAPIKey = key
	}

	cfg.WeatherAPIURL = firstNonEmpty(env.WeatherAPIURL, fc.WeatherAPI.URL, "http://api.weatherstack.com/current")
	cfg.WeatherAPITimeout = parseDurationOrZero(fc.WeatherAPI.Timeout, 0)

	cfg.DefaultCity = firstNonEmpty(env.DefaultCity, fc.UI.DefaultCity, DefaultCity)
	// 0 leaves the length to the provider; a positive value rejects longer input.
	cfg.CityMaxLength = fc.UI.CityMaxLength
	if cfg.CityMaxLength < 0 {
		cfg.CityMaxLength = 0
	}

	cfg.UIMode = strings.ToLower(firstNonEmpty(env.UIMode, fc.UI.Mode, UIModeTerminal))
	cfg.UIAddr = firstNonEmpty(env.UIAddr, fc.UI.Addr, "127.0.0.1:8080")
	cfg.StatusTimeFormat = firstNonEmpty(fc.UI.StatusTimeFormat, "03:04 PM")

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 5*time.Second)

	// The terminal shares stderr with the UI, so it logs only warnings unless asked.
	defaultLevel := "INFO"
	if cfg.UIMode == UIModeTerminal {
		defaultLevel = "WARN"
	}
	cfg.LogLevel = strings.ToUpper(firstNonEmpty(env.LogLevel, fc.Log.Level, defaultLevel))
	cfg.LogOutput = firstNonEmpty(env.LogOutput, fc.Log.Output, "stderr")

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadAPIKeyFromSecrets(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read secrets file: %w", err)
	}
	var sec secretsFile
	if err := yaml.Unmarshal(data, &sec); err != nil {
		return "", fmt.Errorf("parse secrets file: %w", err)
	}
	return strings.TrimSpace(sec.WeatherAPIKey), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Returns zero or negative durations as-is (caller should handle fallback).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
func validate(cfg *Config) error {
	if cfg.WeatherAPITimeout < 0 {
		return fmt.Errorf("weather_api.timeout must not be negative")
	}
	switch cfg.UIMode {
	case UIModeTerminal, UIModeWeb:
		// valid
	default:
		return fmt.Errorf("ui.mode must be terminal or web, got %q", cfg.UIMode)
	}
	if cfg.CityMaxLength > 0 && len([]rune(cfg.DefaultCity)) > cfg.CityMaxLength {
		return fmt.Errorf("ui.default_city is longer than ui.city_max_length (%d)", cfg.CityMaxLength)
	}
	return nil
}
