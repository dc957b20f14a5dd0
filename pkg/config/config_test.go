package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/lhamgr/pkg/errors"
	"github.com/glorpus-work/lhamgr/pkg/fsutil"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	cfg, err := DefaultConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Settings.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.Settings.HTTPTimeout)
	assert.Zero(t, cfg.Settings.LockTimeout)
	assert.Zero(t, cfg.Settings.IndexRefreshInterval)
	assert.Equal(t, DefaultIndexURL, cfg.IndexURL)
	assert.Equal(t, []string{DefaultRepository}, cfg.Repositories)
	assert.Equal(t, fsutil.AppName, filepath.Base(cfg.WriteDir))
	assert.Empty(t, cfg.ReadDirs)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	configContent := `write_dir: /data/lhapdf
read_dirs:
  - /cvmfs/sft.cern.ch/lcg/external/lhapdfsets/current
index_url: https://example.com/pdfsets.index
repositories:
  - https://mirror.example.com/sets
  - https://lhapdfsets.web.cern.ch/current/
settings:
  log_level: debug
  lock_timeout: 2m
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), fsutil.FileModeDefault))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, filepath.Clean("/data/lhapdf"), cfg.WriteDir)
	assert.Len(t, cfg.ReadDirs, 1)
	assert.Equal(t, "https://example.com/pdfsets.index", cfg.IndexURL)
	assert.Equal(t, []string{"https://mirror.example.com/sets", "https://lhapdfsets.web.cern.ch/current/"}, cfg.Repositories)
	assert.Equal(t, "debug", cfg.Settings.LogLevel)
	assert.Equal(t, 2*time.Minute, cfg.Settings.LockTimeout)
	assert.Equal(t, DefaultHTTPTimeout, cfg.Settings.HTTPTimeout, "absent keys keep their defaults")
	assert.False(t, cfg.ReadOnly())
}

func TestLoadConfig_ReadOnlyMode(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader(`read_dirs: [/opt/sets]
index_url: https://example.com/pdfsets.index
repositories: []
`))
	require.NoError(t, err)
	assert.True(t, cfg.ReadOnly())
	assert.Equal(t, []string{filepath.Clean("/opt/sets")}, cfg.SearchPath())
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		sentinel error
	}{
		{
			name:     "unknown top-level key",
			content:  "write_dir: /x\ncache_ttl: 1h\n",
			sentinel: errors.ErrConfigParse,
		},
		{
			name:     "unknown settings key",
			content:  "settings:\n  color_output: true\n",
			sentinel: errors.ErrConfigParse,
		},
		{
			name:     "malformed yaml",
			content:  "repositories: [unterminated\n",
			sentinel: errors.ErrConfigParse,
		},
		{
			name:     "bad repository scheme",
			content:  "repositories: [ftp://example.com/sets]\n",
			sentinel: errors.ErrInvalidURL,
		},
		{
			name:     "relative index url",
			content:  "index_url: pdfsets.index\n",
			sentinel: errors.ErrInvalidURL,
		},
		{
			name:     "empty read dir",
			content:  "read_dirs: ['']\n",
			sentinel: errors.ErrInvalidDirectory,
		},
		{
			name:     "negative duration",
			content:  "settings:\n  http_timeout: -1s\n",
			sentinel: errors.ErrNegativeDuration,
		},
		{
			name:     "bad log level",
			content:  "settings:\n  log_level: trace\n",
			sentinel: errors.ErrInvalidLogLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfigFromReader(strings.NewReader(tt.content))
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.ErrorIs(t, err, errors.ErrConfig)
		})
	}
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.ErrorIs(t, err, errors.ErrEmptyConfigPath)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	cfg := &Config{
		WriteDir:     filepath.Join(t.TempDir(), "sets"),
		ReadDirs:     []string{},
		IndexURL:     DefaultIndexURL,
		Repositories: []string{DefaultRepository},
		Settings:     DefaultSettings(),
	}
	cfg.Settings.IndexRefreshInterval = 10 * time.Minute

	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.SaveConfig(configPath))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "index_refresh_interval: 10m0s")

	loaded, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSaveConfig_EmptyPath(t *testing.T) {
	cfg := &Config{}
	assert.ErrorIs(t, cfg.SaveConfig(""), errors.ErrEmptyConfigPath)
}

func TestSearchPathAndExportEnv(t *testing.T) {
	t.Setenv("LHAPDF_DATA_PATH", "")
	cfg := &Config{WriteDir: "/w", ReadDirs: []string{"/r1", "/r2"}}
	assert.Equal(t, []string{"/w", "/r1", "/r2"}, cfg.SearchPath())

	require.NoError(t, cfg.ExportEnv())
	assert.Equal(t, "/w:/r1:/r2", os.Getenv("LHAPDF_DATA_PATH"))
}

func TestApplyEnvOverride(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		applied  bool
		writeDir string
		readDirs []string
	}{
		{
			name:     "primary variable",
			env:      map[string]string{"LHAPDF_DATA_PATH": "/a::/b:/c", "LHAPATH": "/legacy"},
			applied:  true,
			writeDir: "/a",
			readDirs: []string{"/b", "/c"},
		},
		{
			name:     "legacy variable",
			env:      map[string]string{"LHAPATH": "/legacy"},
			applied:  true,
			writeDir: "/legacy",
			readDirs: []string{},
		},
		{
			name:     "empty primary falls through",
			env:      map[string]string{"LHAPDF_DATA_PATH": "::", "LHAPATH": "/legacy:/ro"},
			applied:  true,
			writeDir: "/legacy",
			readDirs: []string{"/ro"},
		},
		{
			name:     "nothing set",
			env:      map[string]string{},
			applied:  false,
			writeDir: "/default",
			readDirs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{WriteDir: "/default", ReadDirs: []string{}}
			applied := cfg.applyEnvOverride(func(k string) (string, bool) {
				v, ok := tt.env[k]
				return v, ok
			})
			assert.Equal(t, tt.applied, applied)
			assert.Equal(t, tt.writeDir, cfg.WriteDir)
			assert.Equal(t, tt.readDirs, cfg.ReadDirs)
		})
	}
}

func TestGetSetValue(t *testing.T) {
	cfg := &Config{
		WriteDir:     "/w",
		ReadDirs:     []string{},
		IndexURL:     DefaultIndexURL,
		Repositories: []string{DefaultRepository},
		Settings:     DefaultSettings(),
	}

	require.NoError(t, cfg.SetValue("repositories", "https://a.example/sets, https://b.example/sets"))
	assert.Equal(t, []string{"https://a.example/sets", "https://b.example/sets"}, cfg.Repositories)

	require.NoError(t, cfg.SetValue("lock_timeout", "45s"))
	v, err := cfg.GetValue("lock_timeout")
	require.NoError(t, err)
	assert.Equal(t, "45s", v)

	require.NoError(t, cfg.SetValue("log_level", "DEBUG"))
	assert.Equal(t, "debug", cfg.Settings.LogLevel)

	require.NoError(t, cfg.SetValue("write_dir", ""))
	assert.True(t, cfg.ReadOnly())

	for _, key := range Keys {
		_, err := cfg.GetValue(key)
		assert.NoError(t, err, key)
	}
}

func TestSetValue_RejectsInvalid(t *testing.T) {
	cfg := &Config{IndexURL: DefaultIndexURL, Settings: DefaultSettings()}
	before := *cfg

	assert.ErrorIs(t, cfg.SetValue("index_url", "not a url"), errors.ErrInvalidURL)
	assert.ErrorIs(t, cfg.SetValue("http_timeout", "soon"), errors.ErrConfigValidation)
	assert.ErrorIs(t, cfg.SetValue("http_timeout", "-5s"), errors.ErrNegativeDuration)
	assert.ErrorIs(t, cfg.SetValue("color_output", "true"), errors.ErrUnknownConfigKey)
	_, err := cfg.GetValue("color_output")
	assert.ErrorIs(t, err, errors.ErrUnknownConfigKey)

	assert.Equal(t, before, *cfg, "failed updates leave the config untouched")
}

func TestGetDefaultConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path, err := GetDefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, ConfigFileName, filepath.Base(path))
	assert.Equal(t, fsutil.AppName, filepath.Base(filepath.Dir(path)))
}
