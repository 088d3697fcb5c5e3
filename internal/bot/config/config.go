// Package config handles configuration for the bot: defaults, an optional
// JSON file, environment variables and command-line flags, applied in that
// order so later sources win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/diarybot/internal/bot/sharedstore"
	"github.com/dmitrijs2005/diarybot/internal/bot/transport"
	"github.com/dmitrijs2005/diarybot/internal/common"
	"github.com/dmitrijs2005/diarybot/internal/logging"
)

// PlaceholderToken is the value shipped in sample .env files.
const PlaceholderToken = "your_bot_token_here"

// Config holds runtime settings for the bot.
//
// Fields:
//   - Token: Bot API credential. Required.
//   - APIURL: base URL of the web application (auth bridge).
//   - TelegramAPIURL: Bot API base URL, overridable for local test servers.
//   - Transport: "http" (manual long-poll) or "botapi" (library-managed).
//   - DatabasePath: local SQLite file.
//   - SharedDriver / SharedDSN: the web application's database.
//   - StrictDedup: skip already-present entries when pulling.
//   - PollTimeout / RetryBackoff: long-poll wait and fetch error backoff.
//   - HealthAddr: listen address for /health and /status; empty disables it.
//   - LogLevel / LogFormat: slog level and "json" or "text"; empty format
//     means text on a terminal and JSON otherwise.
//   - Timezone: IANA name deciding which day "today" is for new entries.
type Config struct {
	Token          string
	APIURL         string
	TelegramAPIURL string
	Transport      string
	DatabasePath   string
	SharedDriver   string
	SharedDSN      string
	StrictDedup    bool
	PollTimeout    time.Duration
	RetryBackoff   time.Duration
	HealthAddr     string
	LogLevel       string
	LogFormat      string
	Timezone       string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.APIURL = "http://localhost:3001"
	c.TelegramAPIURL = transport.DefaultBaseURL
	c.Transport = transport.KindHTTP
	c.DatabasePath = "diary_bot.db"
	c.SharedDriver = sharedstore.DriverSQLite
	c.SharedDSN = "diary.db"
	c.StrictDedup = false
	c.PollTimeout = 10 * time.Second
	c.RetryBackoff = 5 * time.Second
	c.HealthAddr = ""
	c.LogLevel = "info"
	c.LogFormat = ""
	c.Timezone = "UTC"
}

// Validate reports every problem that would stop the bot from starting.
func (c *Config) Validate() error {
	var errs []error

	switch strings.TrimSpace(c.Token) {
	case "":
		errs = append(errs, common.ErrMissingToken)
	case PlaceholderToken:
		errs = append(errs, common.ErrPlaceholderToken)
	}
	if c.Transport != transport.KindHTTP && c.Transport != transport.KindBotAPI {
		errs = append(errs, fmt.Errorf("unknown transport %q", c.Transport))
	}
	if !sharedstore.Supported(c.SharedDriver) {
		errs = append(errs, fmt.Errorf("unsupported shared store driver %q", c.SharedDriver))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database path is empty"))
	}
	if c.PollTimeout <= 0 {
		errs = append(errs, fmt.Errorf("poll timeout must be positive, got %s", c.PollTimeout))
	}
	if c.RetryBackoff <= 0 {
		errs = append(errs, fmt.Errorf("retry backoff must be positive, got %s", c.RetryBackoff))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "" && c.LogFormat != "json" && c.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("bad timezone %q: %w", c.Timezone, err))
	}

	return errors.Join(errs...)
}

// Location returns the configured time zone, UTC if it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load builds a Config from defaults, the JSON file named by -c/-config or
// DIARYBOT_CONFIG, the environment and finally the flags in args.
func Load(args []string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args, getenv); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, getenv); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load over the process arguments and environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], os.Getenv)
}
