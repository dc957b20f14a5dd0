package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/glorpus-work/lhamgr/internal/logger"
	"github.com/glorpus-work/lhamgr/pkg/lock"
)

// Operation renders cache operations for the command line.
type Operation struct {
	manager Manager
	locks   lock.Locker
}

// NewOperation creates a new cache operation instance.
func NewOperation(manager Manager, locks lock.Locker) *Operation {
	return &Operation{
		manager: manager,
		locks:   locks,
	}
}

// Clean removes stale temporary files and reports what was freed.
func (op *Operation) Clean(ctx context.Context) (string, error) {
	logger.Debug("Cleaning cache", logger.Fields{"dir": op.manager.GetDirectory()})

	result, err := op.manager.Clean(ctx, op.locks)
	if err != nil {
		return "", fmt.Errorf("failed to clean cache: %w", err)
	}

	if len(result.Removed) == 0 {
		return "No files were removed from the cache.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Successfully cleaned cache. Freed %s of disk space.", formatBytes(result.TotalFreed))
	for _, path := range result.Removed {
		fmt.Fprintf(&b, "\n- %s", path)
	}
	return b.String(), nil
}

// GetInfo returns information about the cache.
func (op *Operation) GetInfo() (string, error) {
	info, err := op.manager.GetInfo()
	if err != nil {
		return "", fmt.Errorf("failed to get cache info: %w", err)
	}

	directory := info.Directory
	if directory == "" {
		directory = "(none, read-only)"
	}
	readDirs := "(none)"
	if len(info.ReadDirs) > 0 {
		readDirs = strings.Join(info.ReadDirs, ", ")
	}
	indexState := "missing"
	if info.IndexPresent {
		indexState = "updated " + humanize.Time(info.IndexUpdated)
	}

	return fmt.Sprintf(`Cache Information:
  Directory:    %s
  Read Dirs:    %s
  Total Size:   %s (%d files)
  PDF Sets:     %d
  Index:        %s
  Leftovers:    %d`,
		directory,
		readDirs,
		formatBytes(info.TotalSize),
		info.Files,
		info.Sets,
		indexState,
		info.Leftovers,
	), nil
}

// List returns the installed sets per search directory.
func (op *Operation) List() (string, error) {
	locations, err := op.manager.ListSets()
	if err != nil {
		return "", fmt.Errorf("failed to list sets: %w", err)
	}
	if len(locations) == 0 {
		return "No search directories configured.", nil
	}

	var b strings.Builder
	for i, loc := range locations {
		if i > 0 {
			b.WriteString("\n")
		}
		mode := "read-only"
		if loc.Writable {
			mode = "writable"
		}
		fmt.Fprintf(&b, "%s (%s, %d sets)", loc.Dir, mode, len(loc.Sets))
		for _, name := range loc.Sets {
			fmt.Fprintf(&b, "\n  %s", name)
		}
	}
	return b.String(), nil
}

// GetDirectory returns the cache directory path.
func (op *Operation) GetDirectory() string {
	return op.manager.GetDirectory()
}

// formatBytes converts bytes to a human-readable string.
func formatBytes(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}
