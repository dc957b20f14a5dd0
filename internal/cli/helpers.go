// Package cli implements the lhamgr commands.
package cli

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/glorpus-work/lhamgr/internal/logger"
	"github.com/glorpus-work/lhamgr/pkg/config"
	"github.com/glorpus-work/lhamgr/pkg/lhapdf"
	"github.com/glorpus-work/lhamgr/pkg/manager"
)

// These variables will be set by the main package
var (
	ConfigPath *string
	Verbose    *bool
	NoColor    *bool
	LogFormat  *string
)

// SetupLogging configures the logger from the global flags.
func SetupLogging() {
	level := config.DefaultLogLevel
	if Verbose != nil && *Verbose {
		level = "debug"
	}
	format := logger.FormatText
	if LogFormat != nil && *LogFormat == string(logger.FormatJSON) {
		format = logger.FormatJSON
	}
	logger.InitLogger(level, format)
	logger.SetNoColor(NoColor != nil && *NoColor)
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		// An empty path makes the store report a descriptive error when the
		// configuration is actually needed.
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}

// loadConfig resolves the configuration, creating the file on first use, and
// applies its log level unless --verbose was given.
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewStore(getConfigPath()).Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if Verbose == nil || !*Verbose {
		format := logger.FormatText
		if LogFormat != nil && *LogFormat == string(logger.FormatJSON) {
			format = logger.FormatJSON
		}
		logger.InitLogger(cfg.Settings.LogLevel, format)
	}
	return cfg, nil
}

// loadManager builds a manager over the file-backed library. Download
// progress bars are drawn on stderr when it is a terminal; the returned stop
// function must be called before printing results.
func loadManager(cmd *cobra.Command) (*manager.Manager, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	opts := []manager.Option{}
	stop := func() {}
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bars := newProgressBars(cmd.ErrOrStderr())
		opts = append(opts, manager.WithProgress(bars.Wrap))
		stop = bars.Wait
	}

	mgr, err := manager.New(cfg, lhapdf.NewFileLibrary(), opts...)
	if err != nil {
		stop()
		return nil, nil, fmt.Errorf("failed to create manager: %w", err)
	}
	return mgr, stop, nil
}
