package config

import (
	"fmt"
	"strconv"
	"time"
)

// parseEnv overlays environment variables. Unset or empty variables are
// ignored.
//
//	TELEGRAM_BOT_TOKEN          bot credential
//	API_URL                     web application base URL
//	DIARYBOT_TELEGRAM_API_URL   Bot API base URL
//	DIARYBOT_TRANSPORT          http | botapi
//	DIARYBOT_DB                 local SQLite path
//	DIARYBOT_SHARED_DRIVER      sqlite | pgx | postgres
//	DIARYBOT_SHARED_DSN         shared store DSN
//	DIARYBOT_STRICT_DEDUP       bool
//	DIARYBOT_POLL_TIMEOUT       duration, e.g. 10s
//	DIARYBOT_RETRY_BACKOFF      duration
//	DIARYBOT_HEALTH_ADDR        e.g. :8081
//	DIARYBOT_LOG_LEVEL          debug | info | warn | error
//	DIARYBOT_LOG_FORMAT         json | text
//	DIARYBOT_TIMEZONE           IANA zone name
func parseEnv(config *Config, getenv func(string) string) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"TELEGRAM_BOT_TOKEN", &config.Token},
		{"API_URL", &config.APIURL},
		{"DIARYBOT_TELEGRAM_API_URL", &config.TelegramAPIURL},
		{"DIARYBOT_TRANSPORT", &config.Transport},
		{"DIARYBOT_DB", &config.DatabasePath},
		{"DIARYBOT_SHARED_DRIVER", &config.SharedDriver},
		{"DIARYBOT_SHARED_DSN", &config.SharedDSN},
		{"DIARYBOT_HEALTH_ADDR", &config.HealthAddr},
		{"DIARYBOT_LOG_LEVEL", &config.LogLevel},
		{"DIARYBOT_LOG_FORMAT", &config.LogFormat},
		{"DIARYBOT_TIMEZONE", &config.Timezone},
	}
	for _, s := range strs {
		setString(s.dst, getenv(s.key))
	}

	if v := getenv("DIARYBOT_STRICT_DEDUP"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DIARYBOT_STRICT_DEDUP: %w", err)
		}
		config.StrictDedup = b
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"DIARYBOT_POLL_TIMEOUT", &config.PollTimeout},
		{"DIARYBOT_RETRY_BACKOFF", &config.RetryBackoff},
	}
	for _, d := range durations {
		v := getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}
