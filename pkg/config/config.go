// Package config resolves and persists the lhamgr configuration: where PDF
// sets are cached, which extra directories are searched, and which remote
// repositories and index are used to acquire missing data.
//
// The configuration is a YAML file in the per-user configuration directory.
// It is synthesized with defaults on first use, honoring the
// LHAPDF_DATA_PATH/LHAPATH override, and is read strictly afterwards: unknown
// keys are rejected.
package config

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/lhamgr/pkg/errors"
	"github.com/glorpus-work/lhamgr/pkg/fsutil"
	"github.com/glorpus-work/lhamgr/pkg/lhapdf"
)

// Config represents the application configuration.
type Config struct {
	// WriteDir is the only directory lhamgr modifies. Empty means read-only mode.
	WriteDir string `yaml:"write_dir,omitempty"`

	// ReadDirs are searched after WriteDir and never written.
	ReadDirs []string `yaml:"read_dirs"`

	// IndexURL is the location of pdfsets.index.
	IndexURL string `yaml:"index_url"`

	// Repositories are base URLs tried in order for <name>.tar.gz.
	Repositories []string `yaml:"repositories"`

	Settings Settings `yaml:"settings"`
}

// Settings represents general application settings.
type Settings struct {
	// Network settings
	HTTPTimeout time.Duration `yaml:"http_timeout"` // 0 disables the timeout

	// Locking
	LockTimeout time.Duration `yaml:"lock_timeout"` // 0 waits forever

	// Index refresh policy
	IndexRefreshInterval time.Duration `yaml:"index_refresh_interval"` // 0 refreshes on every miss

	// Output settings
	LogLevel string `yaml:"log_level"` // debug, info, warn, error
}

// Default configuration values.
const (
	// DefaultIndexURL is the index published by the LHAPDF project.
	DefaultIndexURL = "https://lhapdfsets.web.cern.ch/current/pdfsets.index"

	// DefaultRepository is the primary LHAPDF set repository.
	DefaultRepository = "https://lhapdfsets.web.cern.ch/current/"

	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultLogLevel is used when the config does not name one.
	DefaultLogLevel = "info"

	// ConfigFileName is the file name inside the lhamgr config directory.
	ConfigFileName = "config.yaml"

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// DefaultSettings returns the settings used for keys absent from the file.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: DefaultHTTPTimeout,
		LogLevel:    DefaultLogLevel,
	}
}

// DefaultConfig returns a configuration with sensible defaults: the platform
// data directory as write directory, no read directories, and the LHAPDF
// project's index and repository.
func DefaultConfig() (*Config, error) {
	dataDir, err := fsutil.GetDataDir()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrConfigDirectory, err)
	}
	return &Config{
		WriteDir:     dataDir,
		ReadDirs:     []string{},
		IndexURL:     DefaultIndexURL,
		Repositories: []string{DefaultRepository},
		Settings:     DefaultSettings(),
	}, nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := fsutil.GetConfigDir()
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrConfigDirectory, err)
	}
	return filepath.Join(configDir, ConfigFileName), nil
}

// LoadConfig loads configuration from a file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader parses and validates configuration YAML. Keys that are
// not part of Config are an error.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	config := Config{Settings: DefaultSettings()}
	if len(bytes.TrimSpace(data)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&config); err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrConfigParse, err)
		}
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// SaveConfig atomically replaces the file at path with the configuration.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	data, err := c.ToYAML()
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(absPath, bytes.NewReader(data), fsutil.FileModeDefault); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrConfigFileCreate, err)
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(YAMLIndent)
	if err := encoder.Encode(c); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrConfigEncode, err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrConfigEncode, err)
	}
	return buf.Bytes(), nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if err := validateURL("index_url", c.IndexURL); err != nil {
		return err
	}
	for i, repo := range c.Repositories {
		if err := validateURL(fmt.Sprintf("repositories[%d]", i), repo); err != nil {
			return err
		}
	}
	for i, dir := range c.ReadDirs {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("%w: %w: read_dirs[%d] is empty", errors.ErrConfigValidation, errors.ErrInvalidDirectory, i)
		}
	}
	return validateSettings(c.Settings)
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %w: %s must be an absolute http(s) URL, got %q", errors.ErrConfigValidation, errors.ErrInvalidURL, field, raw)
	}
	return nil
}

func validateSettings(s Settings) error {
	durations := []struct {
		name  string
		value time.Duration
	}{
		{"http_timeout", s.HTTPTimeout},
		{"lock_timeout", s.LockTimeout},
		{"index_refresh_interval", s.IndexRefreshInterval},
	}
	for _, d := range durations {
		if d.value < 0 {
			return fmt.Errorf("%w: %w: %s", errors.ErrConfigValidation, errors.ErrNegativeDuration, d.name)
		}
	}
	if !validLogLevels[strings.ToLower(s.LogLevel)] {
		return fmt.Errorf("%w: %w", errors.ErrConfigValidation, errors.ErrInvalidLogLevelWithDetails(s.LogLevel))
	}
	return nil
}

// normalize fills in defaults and makes directories absolute.
func (c *Config) normalize() error {
	if c.IndexURL == "" {
		c.IndexURL = DefaultIndexURL
	}
	if c.ReadDirs == nil {
		c.ReadDirs = []string{}
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = DefaultLogLevel
	}

	if c.WriteDir != "" {
		abs, err := filepath.Abs(c.WriteDir)
		if err != nil {
			return fmt.Errorf("%w: %w: %w", errors.ErrConfigValidation, errors.ErrInvalidDirectory, err)
		}
		c.WriteDir = abs
	}
	for i, dir := range c.ReadDirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("%w: %w: %w", errors.ErrConfigValidation, errors.ErrInvalidDirectory, err)
		}
		c.ReadDirs[i] = abs
	}
	return nil
}

// applyEnvOverride replaces the directories with the search path from the
// environment, if one is set: the first entry becomes the write directory and
// the rest become read directories.
func (c *Config) applyEnvOverride(lookupEnv func(string) (string, bool)) bool {
	for _, key := range []string{lhapdf.DataPathEnv, lhapdf.LegacyDataPathEnv} {
		value, ok := lookupEnv(key)
		if !ok {
			continue
		}
		dirs := lhapdf.SplitSearchPath(value)
		if len(dirs) == 0 {
			continue
		}
		c.WriteDir = dirs[0]
		c.ReadDirs = append([]string{}, dirs[1:]...)
		return true
	}
	return false
}

// ReadOnly reports whether no write directory is configured.
func (c *Config) ReadOnly() bool {
	return c.WriteDir == ""
}

// SearchPath returns the write directory (if any) followed by the read directories.
func (c *Config) SearchPath() []string {
	out := make([]string, 0, len(c.ReadDirs)+1)
	if c.WriteDir != "" {
		out = append(out, c.WriteDir)
	}
	return append(out, c.ReadDirs...)
}

// ExportEnv publishes the search path in LHAPDF_DATA_PATH so the numeric
// library resolves files in the same directories.
func (c *Config) ExportEnv() error {
	return os.Setenv(lhapdf.DataPathEnv, strings.Join(c.SearchPath(), ":"))
}
