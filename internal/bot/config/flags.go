package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/diarybot/internal/flagx"
)

// parseFlags overlays command-line flags.
//
// Supported flags (short forms):
//
//	-d string   local SQLite path
//	-s string   shared store driver
//	-n string   shared store DSN
//	-m string   transport (http | botapi)
//	-a string   health endpoint address
//	-l string   log level
//	-f string   log format
//	-w string   web application base URL
//	-z string   time zone
//	-p int      long-poll timeout, seconds
//	-b int      fetch retry backoff, seconds
//
// Args are filtered with flagx.FilterArgs first so -c/-config and unknown
// flags do not make parsing fail. The token is deliberately not a flag.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-d", "-s", "-n", "-m", "-a", "-l", "-f", "-w", "-z", "-p", "-b"})

	fs := flag.NewFlagSet("diarybot", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.DatabasePath, "d", config.DatabasePath, "local database path")
	fs.StringVar(&config.SharedDriver, "s", config.SharedDriver, "shared store driver")
	fs.StringVar(&config.SharedDSN, "n", config.SharedDSN, "shared store DSN")
	fs.StringVar(&config.Transport, "m", config.Transport, "transport: http or botapi")
	fs.StringVar(&config.HealthAddr, "a", config.HealthAddr, "health endpoint address")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format: json or text")
	fs.StringVar(&config.APIURL, "w", config.APIURL, "web application base URL")
	fs.StringVar(&config.Timezone, "z", config.Timezone, "time zone for entry dates")

	pollTimeout := fs.Int("p", int(config.PollTimeout.Seconds()), "long-poll timeout (in seconds)")
	retryBackoff := fs.Int("b", int(config.RetryBackoff.Seconds()), "retry backoff (in seconds)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Seconds only replace the durations when given, so sub-second values
	// from JSON or the environment survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "p":
			config.PollTimeout = time.Duration(*pollTimeout) * time.Second
		case "b":
			config.RetryBackoff = time.Duration(*retryBackoff) * time.Second
		}
	})
	return nil
}
