// Package index keeps the numeric LHAPDF ID index (pdfsets.index) in the cache
// write directory up to date and resolves IDs through it.
package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glorpus-work/lhamgr/internal/logger"
	"github.com/glorpus-work/lhamgr/pkg/download"
	pkgerrors "github.com/glorpus-work/lhamgr/pkg/errors"
	"github.com/glorpus-work/lhamgr/pkg/fsutil"
)

const (
	// FileName is the index file name inside the write directory.
	FileName = "pdfsets.index"

	// Resource is the lock resource guarding the index file.
	Resource = "pdfsets"

	tempPattern = "." + FileName + ".tmp-*"
)

// Updater downloads the index into the write directory.
type Updater struct {
	writeDir string
	indexURL string
	client   download.Downloader
	progress download.ProgressFunc
}

var _ Refresher = (*Updater)(nil)

// NewUpdater creates an updater for <writeDir>/pdfsets.index.
func NewUpdater(writeDir, indexURL string, client download.Downloader) *Updater {
	return &Updater{writeDir: writeDir, indexURL: indexURL, client: client}
}

// SetProgress reports index download progress through fn.
func (u *Updater) SetProgress(fn download.ProgressFunc) { u.progress = fn }

// Path returns the location of the index file.
func (u *Updater) Path() string {
	if u.writeDir == "" {
		return ""
	}
	return filepath.Join(u.writeDir, FileName)
}

// Refresh downloads the index and atomically replaces the local copy.
// Readers see either the old or the new file. Callers hold the index lock.
func (u *Updater) Refresh(ctx context.Context) error {
	if u.writeDir == "" {
		return pkgerrors.ErrReadOnly
	}

	start := time.Now()
	tmpPath, err := u.client.Download(ctx, download.Request{
		URL:      u.indexURL,
		Dir:      u.writeDir,
		Pattern:  tempPattern,
		Label:    FileName,
		Progress: u.progress,
	})
	if err != nil {
		return fmt.Errorf("could not refresh %s: %w", FileName, err)
	}
	defer func() { _ = os.Remove(tmpPath) }()

	if err := os.Chmod(tmpPath, fsutil.FileModeDefault); err != nil {
		return pkgerrors.Wrap(err, "could not set index permissions")
	}
	if err := os.Rename(tmpPath, u.Path()); err != nil {
		return pkgerrors.Wrapf(err, "could not replace %s", u.Path())
	}

	logger.Debug("Refreshed index", logger.Fields{"url": u.indexURL, "path": u.Path(), "took": time.Since(start).String()})
	return nil
}

// Age returns the time since the index file was last replaced.
func (u *Updater) Age() (time.Duration, error) {
	if u.writeDir == "" {
		return 0, pkgerrors.ErrReadOnly
	}
	st, err := os.Stat(u.Path())
	if err != nil {
		return 0, err
	}
	return time.Since(st.ModTime()), nil
}
