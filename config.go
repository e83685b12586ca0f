// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

package alive

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"git.sr.ht/~shulhan/alive/liveness"
)

// EnvConfig is the environment variable that contains the path to default
// configuration file.
const EnvConfig = `ALIVE_CONFIG`

// Duration is the [time.Duration] that can be written as string, for
// example "1m30s", in the configuration file.
type Duration time.Duration

// UnmarshalText parse the text using [time.ParseDuration].
func (dur *Duration) UnmarshalText(text []byte) (err error) {
	var v time.Duration
	v, err = time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*dur = Duration(v)
	return nil
}

// MarshalText return the duration as string.
func (dur Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(dur).String()), nil
}

// Config is the content of configuration file in TOML format.
// Field with zero value is not set, the default from
// [liveness.DefaultOptions] is used instead.
//
// Example of configuration file,
//
//	concurrency = 10
//	timeout = "5s"
//	max_attempts = 4
//	suggest = true
//	ignore_status = "403"
//	history = "/var/lib/alive/history.db"
type Config struct {
	UserAgent    string `toml:"user_agent"`
	IgnoreStatus string `toml:"ignore_status"`

	// History is the path to SQLite database for storing each run.
	History string `toml:"history"`

	Timeout       Duration `toml:"timeout"`
	BaseDelay     Duration `toml:"base_delay"`
	MaxDelay      Duration `toml:"max_delay"`
	SearchTimeout Duration `toml:"search_timeout"`

	RateLimit float64 `toml:"rate_limit"`

	Concurrency    int `toml:"concurrency"`
	MaxAttempts    int `toml:"max_attempts"`
	MaxSuggestions int `toml:"max_suggestions"`

	Suggest  bool `toml:"suggest"`
	Insecure bool `toml:"insecure"`
}

// LoadConfig load the configuration from TOML file.
// If the path is empty, it use the value of environment variable
// [EnvConfig].
// If both is empty, it return empty Config without error.
func LoadConfig(path string) (cfg *Config, err error) {
	var logp = `LoadConfig`

	cfg = &Config{}
	if path == `` {
		path = os.Getenv(EnvConfig)
	}
	if path == `` {
		return cfg, nil
	}

	var md toml.MetaData
	md, err = toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf(`%s: %w`, logp, err)
	}

	var undecoded = md.Undecoded()
	if len(undecoded) != 0 {
		return nil, fmt.Errorf(`%s: %s: unknown key %q`, logp, path,
			undecoded[0].String())
	}
	return cfg, nil
}

// Options return the [liveness.Options] with default values replaced by
// the non-zero field in cfg.
func (cfg *Config) Options() (opts liveness.Options) {
	opts = liveness.DefaultOptions()

	if cfg.UserAgent != `` {
		opts.UserAgent = cfg.UserAgent
	}
	opts.IgnoreStatus = cfg.IgnoreStatus
	if cfg.Timeout != 0 {
		opts.Timeout = time.Duration(cfg.Timeout)
	}
	if cfg.BaseDelay != 0 {
		opts.BaseDelay = time.Duration(cfg.BaseDelay)
	}
	if cfg.MaxDelay != 0 {
		opts.MaxDelay = time.Duration(cfg.MaxDelay)
	}
	if cfg.SearchTimeout != 0 {
		opts.SearchTimeout = time.Duration(cfg.SearchTimeout)
	}
	opts.RateLimit = cfg.RateLimit
	if cfg.Concurrency != 0 {
		opts.Concurrency = cfg.Concurrency
	}
	if cfg.MaxAttempts != 0 {
		opts.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.MaxSuggestions != 0 {
		opts.MaxSuggestions = cfg.MaxSuggestions
	}
	opts.Suggest = cfg.Suggest
	opts.Insecure = cfg.Insecure
	return opts
}
