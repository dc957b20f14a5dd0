// Package fetch downloads a PDF set from the configured repositories and
// installs it into the cache write directory.
//
// Installation is atomic towards readers: the archive is unpacked into a
// hidden staging directory next to the target and renamed into place, so
// <write_dir>/<name> either does not exist or is complete. Fetch must run
// while holding the lock for the set name.
package fetch

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/lhamgr/internal/logger"
	"github.com/glorpus-work/lhamgr/pkg/archive"
	"github.com/glorpus-work/lhamgr/pkg/download"
	pkgerrors "github.com/glorpus-work/lhamgr/pkg/errors"
	"github.com/glorpus-work/lhamgr/pkg/fsutil"
)

const (
	// ArchiveSuffix is appended to the set name to form the remote file name.
	ArchiveSuffix = ".tar.gz"

	// StagingInfix marks staging directories: .<name>.partial-<random>.
	StagingInfix = ".partial-"

	// DownloadInfix marks temporary archives: .<name>.download-<random>.tar.gz.
	DownloadInfix = ".download-"
)

// DownloadPattern is the os.CreateTemp pattern for the archive of name.
func DownloadPattern(name string) string {
	return "." + name + DownloadInfix + "*" + ArchiveSuffix
}

// StagingPattern is the os.MkdirTemp pattern for staging directories of name.
func StagingPattern(name string) string {
	return "." + name + StagingInfix + "*"
}

// Extractor unpacks an archive into a directory.
type Extractor interface {
	ExtractAll(ctx context.Context, archivePath, destDir string) error
}

// Fetcher acquires sets from an ordered list of repositories.
type Fetcher struct {
	writeDir     string
	repositories []string
	client       download.Downloader
	extractor    Extractor
	progress     download.ProgressFunc
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithProgress reports download progress through fn.
func WithProgress(fn download.ProgressFunc) Option {
	return func(f *Fetcher) { f.progress = fn }
}

// WithExtractor replaces the tar.gz extractor.
func WithExtractor(e Extractor) Option {
	return func(f *Fetcher) { f.extractor = e }
}

// New creates a fetcher that installs into writeDir. An empty writeDir makes
// every Fetch fail with errors.ErrReadOnly.
func New(writeDir string, repositories []string, client download.Downloader, opts ...Option) *Fetcher {
	f := &Fetcher{
		writeDir:     writeDir,
		repositories: append([]string(nil), repositories...),
		client:       client,
		extractor:    archive.NewManager(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ValidateName checks that name can be used as a single directory name.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return pkgerrors.ErrInvalidSetNameWithValue(name)
	}
	return nil
}

// ArchiveURL joins a repository base URL and the archive name of a set.
func ArchiveURL(repository, name string) string {
	return strings.TrimSuffix(repository, "/") + "/" + name + ArchiveSuffix
}

// Fetch downloads and installs the set name.
//
// Repositories are tried in order. A 404 moves on to the next repository;
// any other failure aborts with an error matching errors.ErrNetwork. When
// every repository answers 404 the error matches errors.ErrNotFoundRemotely.
func (f *Fetcher) Fetch(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if f.writeDir == "" {
		return pkgerrors.ErrReadOnly
	}
	if err := os.MkdirAll(f.writeDir, fsutil.DirModeDefault); err != nil {
		return pkgerrors.Wrapf(err, "could not create write dir %s", f.writeDir)
	}

	for _, repo := range f.repositories {
		src := ArchiveURL(repo, name)
		logger.Debug("Trying repository", logger.Fields{"set": name, "url": src})

		tmpPath, err := f.client.Download(ctx, download.Request{
			URL:      src,
			Dir:      f.writeDir,
			Pattern:  DownloadPattern(name),
			Label:    name,
			Progress: f.progress,
		})
		if err != nil {
			if stderrors.Is(err, pkgerrors.ErrNotFound) {
				logger.Debug("Set not found in repository", logger.Fields{"set": name, "url": src})
				continue
			}
			if !stderrors.Is(err, pkgerrors.ErrNetwork) {
				err = fmt.Errorf("%w: %w", pkgerrors.ErrNetwork, err)
			}
			return fmt.Errorf("could not download dataset '%s': %w", name, err)
		}

		err = f.install(ctx, name, tmpPath)
		_ = os.Remove(tmpPath)
		if err != nil {
			return err
		}
		logger.Info("Installed PDF set", logger.Fields{"set": name, "url": src, "dir": filepath.Join(f.writeDir, name)})
		return nil
	}

	return pkgerrors.ErrNotFoundRemotelyWithName(name)
}

// install unpacks archivePath into a staging directory and renames the set
// directory into <writeDir>/<name>.
func (f *Fetcher) install(ctx context.Context, name, archivePath string) error {
	staging, err := os.MkdirTemp(f.writeDir, StagingPattern(name))
	if err != nil {
		return fmt.Errorf("%w: create staging dir: %w", pkgerrors.ErrInstall, err)
	}
	defer func() { _ = os.RemoveAll(staging) }()

	if err := f.extractor.ExtractAll(ctx, archivePath, staging); err != nil {
		return fmt.Errorf("%w: extract %s: %w", pkgerrors.ErrInstall, name, err)
	}

	// Repository archives hold a single top-level <name>/ directory; accept
	// flat archives too.
	src := filepath.Join(staging, name)
	if st, err := os.Stat(src); err != nil || !st.IsDir() {
		src = staging
	}
	if !fsutil.Exists(filepath.Join(src, name+".info")) {
		return fmt.Errorf("%w: archive for '%s' has no %s.info", pkgerrors.ErrInstall, name, name)
	}

	target := filepath.Join(f.writeDir, name)
	if err := f.moveAside(name, target); err != nil {
		return err
	}
	if err := os.Rename(src, target); err != nil {
		return fmt.Errorf("%w: rename into %s: %w", pkgerrors.ErrInstall, target, err)
	}
	return nil
}

// moveAside clears an existing target, typically one left behind by an
// interrupted install or created by hand without an info file. A directory is
// first renamed to a hidden staging name so it disappears atomically.
func (f *Fetcher) moveAside(name, target string) error {
	st, err := os.Lstat(target)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", pkgerrors.ErrInstall, target, err)
	}

	logger.Warn("Replacing existing set directory", logger.Fields{"dir": target, "complete": fsutil.Exists(filepath.Join(target, name+".info"))})
	if !st.IsDir() {
		if err := os.Remove(target); err != nil {
			return fmt.Errorf("%w: remove %s: %w", pkgerrors.ErrInstall, target, err)
		}
		return nil
	}

	old, err := os.MkdirTemp(f.writeDir, StagingPattern(name))
	if err != nil {
		return fmt.Errorf("%w: create staging dir: %w", pkgerrors.ErrInstall, err)
	}
	defer func() { _ = os.RemoveAll(old) }()
	if err := os.Rename(target, filepath.Join(old, name)); err != nil {
		return fmt.Errorf("%w: move aside %s: %w", pkgerrors.ErrInstall, target, err)
	}
	return nil
}
