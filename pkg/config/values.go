package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/glorpus-work/lhamgr/pkg/errors"
)

// Keys lists the configuration keys understood by GetValue and SetValue.
var Keys = []string{
	"write_dir",
	"read_dirs",
	"index_url",
	"repositories",
	"http_timeout",
	"lock_timeout",
	"index_refresh_interval",
	"log_level",
}

// SetValue sets a configuration value by key. List values (read_dirs,
// repositories) are given comma separated; durations use time.ParseDuration
// syntax. The result is validated.
func (c *Config) SetValue(key, value string) error {
	next := *c
	next.ReadDirs = append([]string(nil), c.ReadDirs...)
	next.Repositories = append([]string(nil), c.Repositories...)

	switch key {
	case "write_dir":
		next.WriteDir = strings.TrimSpace(value)
	case "read_dirs":
		next.ReadDirs = splitList(value)
	case "index_url":
		next.IndexURL = strings.TrimSpace(value)
	case "repositories":
		next.Repositories = splitList(value)
	case "http_timeout", "lock_timeout", "index_refresh_interval":
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: invalid duration for %s: %q", errors.ErrConfigValidation, key, value)
		}
		switch key {
		case "http_timeout":
			next.Settings.HTTPTimeout = d
		case "lock_timeout":
			next.Settings.LockTimeout = d
		default:
			next.Settings.IndexRefreshInterval = d
		}
	case "log_level":
		next.Settings.LogLevel = strings.ToLower(strings.TrimSpace(value))
	default:
		return fmt.Errorf("%w: %s", errors.ErrUnknownConfigKey, key)
	}

	if err := next.normalize(); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// GetValue returns the value of key as a string, in the format SetValue accepts.
func (c *Config) GetValue(key string) (string, error) {
	switch key {
	case "write_dir":
		return c.WriteDir, nil
	case "read_dirs":
		return strings.Join(c.ReadDirs, ","), nil
	case "index_url":
		return c.IndexURL, nil
	case "repositories":
		return strings.Join(c.Repositories, ","), nil
	case "http_timeout":
		return c.Settings.HTTPTimeout.String(), nil
	case "lock_timeout":
		return c.Settings.LockTimeout.String(), nil
	case "index_refresh_interval":
		return c.Settings.IndexRefreshInterval.String(), nil
	case "log_level":
		return c.Settings.LogLevel, nil
	default:
		return "", fmt.Errorf("%w: %s", errors.ErrUnknownConfigKey, key)
	}
}

func splitList(value string) []string {
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
