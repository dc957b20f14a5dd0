// Package lock provides named, cross-process exclusive locks backed by lock
// files in the cache write directory.
//
// A lock is an advisory flock(2) (LockFileEx on Windows) on
// <dir>/<resource>.lock. Every WithLock call opens its own file description,
// so the lock excludes goroutines of the same process as well as other
// processes. Lock files are created on demand and never removed.
package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glorpus-work/lhamgr/internal/logger"
	pkgerrors "github.com/glorpus-work/lhamgr/pkg/errors"
	"github.com/glorpus-work/lhamgr/pkg/fsutil"
)

const (
	// Suffix is appended to the resource name to form the lock file name.
	Suffix = ".lock"

	defaultMinBackoff = 5 * time.Millisecond
	defaultMaxBackoff = 250 * time.Millisecond
)

// Locker runs a critical section while holding the lock for a resource.
type Locker interface {
	WithLock(ctx context.Context, resource string, fn func() error) error
}

// Manager hands out locks below one directory.
type Manager struct {
	dir        string
	timeout    time.Duration
	minBackoff time.Duration
	maxBackoff time.Duration
}

var _ Locker = (*Manager)(nil)

// Option configures a Manager.
type Option func(*Manager)

// WithTimeout bounds how long WithLock waits for a contended lock.
// Zero waits until the context is done.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// WithBackoff sets the polling interval bounds used while waiting.
func WithBackoff(minBackoff, maxBackoff time.Duration) Option {
	return func(m *Manager) {
		if minBackoff > 0 {
			m.minBackoff = minBackoff
		}
		if maxBackoff >= m.minBackoff {
			m.maxBackoff = maxBackoff
		}
	}
}

// New creates a lock manager for dir. An empty dir means read-only mode, in
// which WithLock refuses to run anything.
func New(dir string, opts ...Option) *Manager {
	m := &Manager{
		dir:        dir,
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dir returns the directory holding the lock files.
func (m *Manager) Dir() string { return m.dir }

// Path returns the lock file path for resource.
func (m *Manager) Path(resource string) string {
	return filepath.Join(m.dir, resource+Suffix)
}

// WithLock runs fn while holding the exclusive lock for resource. The lock is
// released when fn returns, including when it panics. Errors from fn are
// returned unchanged; failures to create, acquire or release the lock match
// errors.ErrLock.
func (m *Manager) WithLock(ctx context.Context, resource string, fn func() error) (err error) {
	if m.dir == "" {
		return pkgerrors.ErrReadOnly
	}
	if err := validateResource(resource); err != nil {
		return err
	}
	if err := os.MkdirAll(m.dir, fsutil.DirModeDefault); err != nil {
		return fmt.Errorf("%w: create lock dir %s: %w", pkgerrors.ErrLock, m.dir, err)
	}

	path := m.Path(resource)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, fsutil.FileModeDefault)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", pkgerrors.ErrLock, path, err)
	}
	defer func() { _ = f.Close() }()

	if err := m.acquire(ctx, f, resource); err != nil {
		return err
	}
	defer func() {
		if uerr := unlockFile(f); uerr != nil && err == nil {
			err = fmt.Errorf("%w: release %s: %w", pkgerrors.ErrLock, path, uerr)
		}
	}()

	return fn()
}

func (m *Manager) acquire(ctx context.Context, f *os.File, resource string) error {
	ok, err := tryLockFile(f)
	if err != nil {
		return fmt.Errorf("%w: acquire %s: %w", pkgerrors.ErrLock, f.Name(), err)
	}
	if ok {
		return nil
	}

	logger.Debug("Waiting for lock", logger.Fields{"resource": resource, "path": f.Name()})
	start := time.Now()

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	backoff := m.minBackoff
	timer := time.NewTimer(backoff)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: waiting for %s after %s: %w", pkgerrors.ErrLock, resource, time.Since(start).Round(time.Millisecond), ctx.Err())
		case <-timer.C:
		}

		ok, err := tryLockFile(f)
		if err != nil {
			return fmt.Errorf("%w: acquire %s: %w", pkgerrors.ErrLock, f.Name(), err)
		}
		if ok {
			logger.Debug("Acquired lock", logger.Fields{"resource": resource, "waited": time.Since(start).String()})
			return nil
		}

		backoff = min(backoff*2, m.maxBackoff)
		timer.Reset(backoff)
	}
}

func validateResource(resource string) error {
	if resource == "" || resource == "." || resource == ".." || strings.ContainsAny(resource, `/\`) {
		return fmt.Errorf("%w: invalid resource name %q", pkgerrors.ErrLock, resource)
	}
	return nil
}
