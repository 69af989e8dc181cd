package config

import (
	"strings"

	flag "github.com/spf13/pflag"
)

// ApplyFlags overrides cfg with command-line flags and re-validates it. Flags win over
// the environment and the YAML file. Returns flag.ErrHelp when -h/--help was given.
func ApplyFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("weatherdesk", flag.ContinueOnError)
	mode := fs.StringP("ui-mode", "m", cfg.UIMode, "front-end: terminal or web")
	addr := fs.String("addr", cfg.UIAddr, "listen address in web mode")
	city := fs.StringP("city", "c", cfg.DefaultCity, "city looked up when the input is blank")
	level := fs.String("log-level", cfg.LogLevel, "DEBUG, INFO, WARN or ERROR")
	timeout := fs.Duration("timeout", cfg.WeatherAPITimeout, "Weatherstack request timeout (0 keeps the transport default)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.UIMode = strings.ToLower(strings.TrimSpace(*mode))
	cfg.UIAddr = strings.TrimSpace(*addr)
	cfg.DefaultCity = strings.TrimSpace(*city)
	cfg.LogLevel = strings.ToUpper(strings.TrimSpace(*level))
	cfg.WeatherAPITimeout = *timeout
	if cfg.DefaultCity == "" {
		cfg.DefaultCity = DefaultCity
	}
	return validate(cfg)
}
