// Package errors defines the error taxonomy shared by the lhamgr packages.
// Errors are sentinel values that callers match with errors.Is; context is
// added with Wrap and Wrapf as the error travels up the call stack.
package errors

import "fmt"

// Config errors are returned while resolving, reading or persisting the
// configuration. Every one of them wraps ErrConfig.
var (
	ErrConfig = fmt.Errorf("configuration error")

	ErrEmptyConfigPath   = fmt.Errorf("%w: config file path cannot be empty", ErrConfig)
	ErrInvalidConfigPath = fmt.Errorf("%w: invalid config file path", ErrConfig)
	ErrConfigParse       = fmt.Errorf("%w: failed to parse config", ErrConfig)
	ErrConfigValidation  = fmt.Errorf("%w: invalid configuration", ErrConfig)
	ErrConfigEncode      = fmt.Errorf("%w: failed to encode config", ErrConfig)
	ErrConfigDirectory   = fmt.Errorf("%w: failed to resolve config directory", ErrConfig)
	ErrConfigFileCreate  = fmt.Errorf("%w: failed to create config file", ErrConfig)
	ErrConfigFileRename  = fmt.Errorf("%w: failed to rename temporary config file", ErrConfig)
	ErrConfigFileExists  = fmt.Errorf("%w: configuration file already exists (use --force to overwrite)", ErrConfig)
	ErrUnknownConfigKey  = fmt.Errorf("%w: unknown configuration key", ErrConfig)
	ErrInvalidLogLevel   = fmt.Errorf("%w: invalid log level", ErrConfig)
	ErrInvalidURL        = fmt.Errorf("%w: invalid URL", ErrConfig)
	ErrInvalidDirectory  = fmt.Errorf("%w: invalid directory", ErrConfig)
	ErrNegativeDuration  = fmt.Errorf("%w: duration cannot be negative", ErrConfig)
)

// Acquisition errors.
var (
	// ErrLock is returned when a lock file cannot be created, acquired or released.
	ErrLock = fmt.Errorf("lock error")

	// ErrReadOnly is returned when new data is needed but no write directory is configured.
	ErrReadOnly = fmt.Errorf("read-only cache, cannot acquire new data")

	// ErrNetwork is returned for transport failures other than a clean "not found".
	ErrNetwork = fmt.Errorf("network error")

	// ErrNotFound is returned by the download client for a 404 response.
	ErrNotFound = fmt.Errorf("remote resource not found")

	// ErrNotFoundRemotely is returned when every repository answered "not found".
	ErrNotFoundRemotely = fmt.Errorf("not found in any repository")

	// ErrInstall is returned when a downloaded archive cannot be installed.
	ErrInstall = fmt.Errorf("failed to install dataset")

	// ErrInvalidPath is returned when a file or directory path is invalid.
	ErrInvalidPath = fmt.Errorf("invalid path")
)

// Lookup errors.
var (
	ErrUnknownID      = fmt.Errorf("unknown identifier")
	ErrInvalidSetName = fmt.Errorf("invalid set name")
	ErrInvalidMember  = fmt.Errorf("invalid member index")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ErrNotFoundRemotelyWithName reports that no repository serves the dataset.
func ErrNotFoundRemotelyWithName(name string) error {
	return fmt.Errorf("could not acquire dataset '%s': %w", name, ErrNotFoundRemotely)
}

// ErrUnknownIDWithValue reports a numeric ID that the index does not map.
func ErrUnknownIDWithValue(id int) error {
	return fmt.Errorf("did not find PDF with LHAID = %d: %w", id, ErrUnknownID)
}

// ErrInvalidSetNameWithValue reports a dataset name that cannot be used as a directory.
func ErrInvalidSetNameWithValue(name string) error {
	return fmt.Errorf("%w: '%s'", ErrInvalidSetName, name)
}

// ErrInvalidLogLevelWithDetails is a helper to create a wrapped error with the invalid level and valid options.
func ErrInvalidLogLevelWithDetails(level string) error {
	return fmt.Errorf("%w: '%s', must be one of: debug, info, warn, error", ErrInvalidLogLevel, level)
}
