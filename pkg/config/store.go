package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/glorpus-work/lhamgr/internal/logger"
	"github.com/glorpus-work/lhamgr/pkg/errors"
	"github.com/glorpus-work/lhamgr/pkg/fsutil"
)

// Store resolves the configuration once and hands out the same value to every
// caller. It is safe for concurrent use.
type Store struct {
	path      string
	lookupEnv func(string) (string, bool)
	defaults  func() (*Config, error)
	exportEnv bool

	mu  sync.Mutex
	cfg *Config
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLookupEnv replaces os.LookupEnv for the directory override.
func WithLookupEnv(fn func(string) (string, bool)) StoreOption {
	return func(s *Store) { s.lookupEnv = fn }
}

// WithDefaults replaces DefaultConfig as the source of synthesized values.
func WithDefaults(fn func() (*Config, error)) StoreOption {
	return func(s *Store) { s.defaults = fn }
}

// WithoutEnvExport stops Get from setting LHAPDF_DATA_PATH.
func WithoutEnvExport() StoreOption {
	return func(s *Store) { s.exportEnv = false }
}

// NewStore creates a store for the config file at path. An empty path selects
// GetDefaultConfigPath when the configuration is first needed.
func NewStore(path string, opts ...StoreOption) *Store {
	s := &Store{
		path:      path,
		lookupEnv: os.LookupEnv,
		defaults:  DefaultConfig,
		exportEnv: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the config file path, resolving the default if necessary.
func (s *Store) Path() (string, error) {
	if s.path != "" {
		return s.path, nil
	}
	return GetDefaultConfigPath()
}

// Get returns the configuration, initializing it on the first successful call.
//
// When the file does not exist, defaults plus the environment override are
// written with create-if-not-exists semantics; if another process created the
// file first, its content is used instead. A failed initialization is not
// remembered, so a later Get tries again.
//
// After initialization the search path is exported to LHAPDF_DATA_PATH.
func (s *Store) Get() (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg != nil {
		return s.cfg, nil
	}

	cfg, err := s.load()
	if err != nil {
		return nil, err
	}
	if s.exportEnv {
		if err := cfg.ExportEnv(); err != nil {
			return nil, fmt.Errorf("%w: export search path: %w", errors.ErrConfig, err)
		}
	}
	s.cfg = cfg
	return cfg, nil
}

func (s *Store) load() (*Config, error) {
	path, err := s.Path()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err == nil {
		return LoadConfig(path)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidConfigPath, err)
	}

	cfg, err := s.defaults()
	if err != nil {
		return nil, err
	}
	if cfg.applyEnvOverride(s.lookupEnv) {
		logger.Debug("Using search path from environment", logger.Fields{"write_dir": cfg.WriteDir, "read_dirs": cfg.ReadDirs})
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	data, err := cfg.ToYAML()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), fsutil.DirModeDefault); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrConfigDirectory, err)
	}

	err = fsutil.CreateExclusive(path, data, fsutil.FileModeDefault)
	switch {
	case err == nil:
		logger.Debug("Created configuration file", logger.Fields{"path": path})
		return cfg, nil
	case os.IsExist(err):
		logger.Debug("Configuration file created concurrently, reading it", logger.Fields{"path": path})
		return LoadConfig(path)
	default:
		return nil, fmt.Errorf("%w: %w", errors.ErrConfigFileCreate, err)
	}
}
