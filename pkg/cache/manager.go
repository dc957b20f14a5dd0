// Package cache inspects and maintains the on-disk PDF set cache: the write
// directory written by lhamgr and the read-only directories searched after it.
package cache

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/glorpus-work/lhamgr/internal/logger"
	pkgerrors "github.com/glorpus-work/lhamgr/pkg/errors"
	"github.com/glorpus-work/lhamgr/pkg/fetch"
	"github.com/glorpus-work/lhamgr/pkg/fsutil"
	"github.com/glorpus-work/lhamgr/pkg/index"
	"github.com/glorpus-work/lhamgr/pkg/lock"
)

// DefaultManager implements the Manager interface for cache operations.
type DefaultManager struct {
	writeDir string
	readDirs []string
}

var _ Manager = (*DefaultManager)(nil)

// NewManager creates a new cache manager. An empty writeDir is read-only mode.
func NewManager(writeDir string, readDirs []string) *DefaultManager {
	return &DefaultManager{
		writeDir: writeDir,
		readDirs: append([]string(nil), readDirs...),
	}
}

// GetDirectory returns the write directory, or "" in read-only mode.
func (cm *DefaultManager) GetDirectory() string {
	return cm.writeDir
}

// Writable reports whether new data can be installed.
func (cm *DefaultManager) Writable() bool {
	return cm.writeDir != ""
}

// EnsureLayout creates the write directory and the default lhapdf.conf. An
// lhapdf.conf that already exists is left alone.
func (cm *DefaultManager) EnsureLayout() error {
	if cm.writeDir == "" {
		return pkgerrors.ErrReadOnly
	}
	if err := os.MkdirAll(cm.writeDir, fsutil.DirModeDefault); err != nil {
		return fmt.Errorf("%w: %w", ErrCacheDirectory, err)
	}

	path := filepath.Join(cm.writeDir, ConfFileName)
	err := fsutil.CreateExclusive(path, []byte(DefaultConf), fsutil.FileModeDefault)
	if err == nil {
		logger.Debug("Created default LHAPDF configuration", logger.Fields{"path": path})
		return nil
	}
	if stderrors.Is(err, fs.ErrExist) {
		return nil
	}
	return pkgerrors.Wrapf(err, "could not create %s", path)
}

// IsInstalled reports whether <write_dir>/<name>/<name>.info exists. Sets in
// read directories are not considered: they are never written.
func (cm *DefaultManager) IsInstalled(name string) bool {
	if cm.writeDir == "" || fetch.ValidateName(name) != nil {
		return false
	}
	return isSetDir(cm.writeDir, name)
}

func isSetDir(dir, name string) bool {
	st, err := os.Stat(filepath.Join(dir, name, name+".info"))
	return err == nil && st.Mode().IsRegular()
}

// ListSets returns the sets of every search directory, write directory
// first. Missing directories are reported with no sets.
func (cm *DefaultManager) ListSets() ([]Location, error) {
	var locations []Location
	if cm.writeDir != "" {
		loc, err := listDir(cm.writeDir, true)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	for _, dir := range cm.readDirs {
		loc, err := listDir(dir, false)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, nil
}

func listDir(dir string, writable bool) (Location, error) {
	loc := Location{Dir: dir, Writable: writable}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return loc, nil
	}
	if err != nil {
		return loc, fmt.Errorf("%w: %s: %w", ErrCacheDirectory, dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if isSetDir(dir, e.Name()) {
			loc.Sets = append(loc.Sets, e.Name())
		}
	}
	sort.Strings(loc.Sets)
	return loc, nil
}

// GetInfo returns information about the write directory.
func (cm *DefaultManager) GetInfo() (*Info, error) {
	info := &Info{
		Directory: cm.writeDir,
		ReadDirs:  append([]string(nil), cm.readDirs...),
	}
	if cm.writeDir == "" {
		return info, nil
	}

	size, files, err := fsutil.DirSize(cm.writeDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheInfo, err)
	}
	info.TotalSize = size
	info.Files = files

	loc, err := listDir(cm.writeDir, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheInfo, err)
	}
	info.Sets = len(loc.Sets)

	leftovers, err := cm.leftovers()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheInfo, err)
	}
	for _, paths := range leftovers {
		info.Leftovers += len(paths)
	}

	if st, err := os.Stat(filepath.Join(cm.writeDir, index.FileName)); err == nil {
		info.IndexPresent = true
		info.IndexUpdated = st.ModTime()
	}
	return info, nil
}

// Clean removes what interrupted installs and index refreshes left behind in
// the write directory. Each leftover is removed while holding the lock of the
// resource that created it, so an install in progress is never disturbed.
// Installed sets are never removed.
func (cm *DefaultManager) Clean(ctx context.Context, locks lock.Locker) (*CleanResult, error) {
	if cm.writeDir == "" {
		return nil, pkgerrors.ErrReadOnly
	}

	leftovers, err := cm.leftovers()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheClean, err)
	}

	resources := make([]string, 0, len(leftovers))
	for r := range leftovers {
		resources = append(resources, r)
	}
	sort.Strings(resources)

	result := &CleanResult{}
	for _, resource := range resources {
		err := locks.WithLock(ctx, resource, func() error {
			for _, path := range leftovers[resource] {
				// Gone already when the owner finished between listing and locking.
				if _, err := os.Lstat(path); os.IsNotExist(err) {
					continue
				}
				size, _, err := fsutil.DirSize(path)
				if err != nil {
					return err
				}
				if err := os.RemoveAll(path); err != nil {
					return err
				}
				result.TotalFreed += size
				result.Removed = append(result.Removed, path)
			}
			return nil
		})
		if err != nil {
			return result, fmt.Errorf("%w: %s: %w", ErrCacheClean, resource, err)
		}
	}

	logger.Debug("Cleaned cache", logger.Fields{"dir": cm.writeDir, "removed": len(result.Removed), "freed": result.TotalFreed})
	return result, nil
}

// leftovers maps lock resources to the stale temporary entries they own.
func (cm *DefaultManager) leftovers() (map[string][]string, error) {
	entries, err := os.ReadDir(cm.writeDir)
	if os.IsNotExist(err) {
		return map[string][]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	found := make(map[string][]string)
	for _, e := range entries {
		if resource, ok := leftoverResource(e.Name()); ok {
			found[resource] = append(found[resource], filepath.Join(cm.writeDir, e.Name()))
		}
	}
	return found, nil
}

// leftoverResource recognizes the temporary names used by the fetcher and the
// index updater and returns the lock resource guarding them.
func leftoverResource(entry string) (string, bool) {
	if !strings.HasPrefix(entry, ".") {
		return "", false
	}
	if strings.HasPrefix(entry, "."+index.FileName+".tmp-") {
		return index.Resource, true
	}
	rest := entry[1:]
	for _, infix := range []string{fetch.StagingInfix, fetch.DownloadInfix} {
		if i := strings.LastIndex(rest, infix); i > 0 {
			name := rest[:i]
			if fetch.ValidateName(name) == nil {
				return name, true
			}
		}
	}
	return "", false
}
