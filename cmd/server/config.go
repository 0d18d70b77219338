package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/kitchen-engine/menu"
)

// Config is the server configuration. Defaults come from the environment
// (KITCHEN_*), flags override them.
type Config struct {
	Port              int
	DBPath            string
	LogLevel          string
	LogFormat         string
	Rounding          menu.Rounding
	Seed              bool
	MonitorInterval   time.Duration
	LowStockThreshold decimal.Decimal
	AllowedOrigins    []string
}

// loadConfig reads configuration from getenv and args (without the program
// name).
func loadConfig(args []string, getenv func(string) string) (Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	port, err := strconv.Atoi(env("KITCHEN_PORT", "8080"))
	if err != nil {
		return Config{}, fmt.Errorf("KITCHEN_PORT: %w", err)
	}
	seed, err := strconv.ParseBool(env("KITCHEN_SEED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("KITCHEN_SEED: %w", err)
	}
	interval, err := time.ParseDuration(env("KITCHEN_MONITOR_INTERVAL", "1m"))
	if err != nil {
		return Config{}, fmt.Errorf("KITCHEN_MONITOR_INTERVAL: %w", err)
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var cfg Config
	var rounding, threshold, origins string
	fs.IntVar(&cfg.Port, "port", port, "HTTP server port")
	fs.StringVar(&cfg.DBPath, "db", env("KITCHEN_DB", "kitchen.db"), "SQLite database path (\":memory:\" for in-memory)")
	fs.StringVar(&cfg.LogLevel, "log-level", env("KITCHEN_LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", env("KITCHEN_LOG_FORMAT", "json"), "log format (json, console)")
	fs.StringVar(&rounding, "vat-rounding", env("KITCHEN_VAT_ROUNDING", string(menu.RoundHalfAwayFromZero)), "VAT rounding (half-away-from-zero, half-even)")
	fs.BoolVar(&cfg.Seed, "seed", seed, "seed the house menus when the database is empty")
	fs.DurationVar(&cfg.MonitorInterval, "monitor-interval", interval, "stock monitor interval (0 disables)")
	fs.StringVar(&threshold, "low-stock", env("KITCHEN_LOW_STOCK", "5"), "low-stock threshold")
	fs.StringVar(&origins, "cors-origins", env("KITCHEN_CORS_ORIGINS", ""), "comma-separated CORS origins")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Rounding, err = menu.ParseRounding(rounding); err != nil {
		return Config{}, err
	}
	if cfg.LowStockThreshold, err = decimal.NewFromString(threshold); err != nil {
		return Config{}, fmt.Errorf("low-stock threshold %q: %w", threshold, err)
	}
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}
	return cfg, cfg.Validate()
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("db path is empty"))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if c.MonitorInterval < 0 {
		errs = append(errs, fmt.Errorf("monitor interval %s is negative", c.MonitorInterval))
	}
	if c.LowStockThreshold.IsNegative() {
		errs = append(errs, fmt.Errorf("low-stock threshold %s is negative", c.LowStockThreshold))
	}
	return errors.Join(errs...)
}
