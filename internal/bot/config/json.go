package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/diarybot/internal/flagx"
	"github.com/dmitrijs2005/diarybot/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept both
// "5s" strings and integer nanoseconds. Absent keys leave the current value.
type JsonConfig struct {
	Token          string         `json:"telegram_bot_token"`
	APIURL         string         `json:"api_url"`
	TelegramAPIURL string         `json:"telegram_api_url"`
	Transport      string         `json:"transport"`
	DatabasePath   string         `json:"database_path"`
	SharedDriver   string         `json:"shared_driver"`
	SharedDSN      string         `json:"shared_dsn"`
	StrictDedup    *bool          `json:"strict_dedup"`
	PollTimeout    timex.Duration `json:"poll_timeout"`
	RetryBackoff   timex.Duration `json:"retry_backoff"`
	HealthAddr     string         `json:"health_addr"`
	LogLevel       string         `json:"log_level"`
	LogFormat      string         `json:"log_format"`
	Timezone       string         `json:"timezone"`
}

// parseJson overlays the JSON file, if any. The path comes from -c/-config
// in args, else from DIARYBOT_CONFIG.
func parseJson(config *Config, args []string, getenv func(string) string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		path = getenv("DIARYBOT_CONFIG")
	}
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.Token, c.Token)
	setString(&config.APIURL, c.APIURL)
	setString(&config.TelegramAPIURL, c.TelegramAPIURL)
	setString(&config.Transport, c.Transport)
	setString(&config.DatabasePath, c.DatabasePath)
	setString(&config.SharedDriver, c.SharedDriver)
	setString(&config.SharedDSN, c.SharedDSN)
	if c.StrictDedup != nil {
		config.StrictDedup = *c.StrictDedup
	}
	if c.PollTimeout.Duration != 0 {
		config.PollTimeout = c.PollTimeout.Duration
	}
	if c.RetryBackoff.Duration != 0 {
		config.RetryBackoff = c.RetryBackoff.Duration
	}
	setString(&config.HealthAddr, c.HealthAddr)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.Timezone, c.Timezone)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
