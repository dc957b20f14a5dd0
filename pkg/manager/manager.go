// Package manager wraps the numeric library so that calls failing for lack of
// data acquire that data and retry once.
//
// Every library call is matched against the "missing data" failure. A miss
// for a set triggers a download of that set, a miss for a numeric ID triggers
// a refresh of the ID index. Either acquisition runs under the cross-process
// lock of its resource, after which the library call is repeated exactly once
// and its outcome returned unchanged.
package manager

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/glorpus-work/lhamgr/internal/logger"
	"github.com/glorpus-work/lhamgr/pkg/cache"
	"github.com/glorpus-work/lhamgr/pkg/config"
	"github.com/glorpus-work/lhamgr/pkg/download"
	pkgerrors "github.com/glorpus-work/lhamgr/pkg/errors"
	"github.com/glorpus-work/lhamgr/pkg/fetch"
	"github.com/glorpus-work/lhamgr/pkg/index"
	"github.com/glorpus-work/lhamgr/pkg/lhapdf"
	"github.com/glorpus-work/lhamgr/pkg/lock"
)

// SupportedLibraryVersions is the library range whose error wording the
// missing-data classification is known to match.
const SupportedLibraryVersions = lhapdf.SupportedVersions

// libraryMu serializes every call into the library. The library keeps
// process-global state, so one mutex is shared by all managers.
var libraryMu sync.Mutex

// Manager coordinates library calls with data acquisition.
type Manager struct {
	cfg       *config.Config
	lib       lhapdf.Library
	cache     *cache.DefaultManager
	locks     *lock.Manager
	fetcher   Fetcher
	refresher index.Refresher
	resolver  *index.Resolver
	hooks     Hooks

	progress    download.ProgressFunc
	httpTimeout time.Duration
	userAgent   string

	sets singleflight.Group
}

// Option configures a Manager.
type Option func(*Manager)

// WithFetcher replaces the HTTP dataset fetcher.
func WithFetcher(f Fetcher) Option {
	return func(m *Manager) { m.fetcher = f }
}

// WithRefresher replaces the HTTP index updater.
func WithRefresher(r index.Refresher) Option {
	return func(m *Manager) { m.refresher = r }
}

// WithHooks sets progress callbacks.
func WithHooks(h Hooks) Option {
	return func(m *Manager) { m.hooks = h }
}

// WithProgress reports download progress of sets and the index through fn.
func WithProgress(fn download.ProgressFunc) Option {
	return func(m *Manager) { m.progress = fn }
}

// WithHTTPTimeout overrides settings.http_timeout.
func WithHTTPTimeout(d time.Duration) Option {
	return func(m *Manager) { m.httpTimeout = d }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(m *Manager) { m.userAgent = ua }
}

// librarySource exposes the library's index to the resolver under libraryMu.
type librarySource struct {
	lib lhapdf.Library
}

func (s librarySource) LookupPDF(id int) (string, int, bool) {
	libraryMu.Lock()
	defer libraryMu.Unlock()
	return s.lib.LookupPDF(id)
}

func (s librarySource) ResetIndex() {
	libraryMu.Lock()
	defer libraryMu.Unlock()
	s.lib.ResetIndex()
}

// New wires a manager from cfg. In read-only mode (no write directory) the
// manager never touches the network.
func New(cfg *config.Config, lib lhapdf.Library, opts ...Option) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: configuration is required", pkgerrors.ErrConfig)
	}
	if lib == nil {
		return nil, errors.New("library is required")
	}

	m := &Manager{
		cfg:         cfg,
		lib:         lib,
		httpTimeout: cfg.Settings.HTTPTimeout,
		userAgent:   download.DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(m)
	}

	client := download.NewClient(m.httpTimeout, m.userAgent)
	if m.fetcher == nil {
		m.fetcher = fetch.New(cfg.WriteDir, cfg.Repositories, client, fetch.WithProgress(m.progress))
	}
	if m.refresher == nil {
		u := index.NewUpdater(cfg.WriteDir, cfg.IndexURL, client)
		u.SetProgress(m.progress)
		m.refresher = u
	}

	m.locks = lock.New(cfg.WriteDir, lock.WithTimeout(cfg.Settings.LockTimeout))
	m.cache = cache.NewManager(cfg.WriteDir, cfg.ReadDirs)
	m.resolver = index.NewResolver(librarySource{lib: lib}, m.refresher, m.locks,
		index.WithRefreshInterval(cfg.Settings.IndexRefreshInterval))

	if m.cache.Writable() {
		if err := m.cache.EnsureLayout(); err != nil {
			return nil, err
		}
	}
	m.checkVersion()
	return m, nil
}

func (m *Manager) checkVersion() {
	libraryMu.Lock()
	v := m.lib.Version()
	libraryMu.Unlock()

	ok, err := lhapdf.IsSupportedVersion(v)
	if err != nil || !ok {
		logger.Warn("Unsupported LHAPDF version, missing data may not be detected", logger.Fields{
			"version":   v,
			"supported": SupportedLibraryVersions,
		})
	}
}

// Config returns the configuration the manager was built from.
func (m *Manager) Config() *config.Config { return m.cfg }

// Cache returns the cache inspector for the configured directories.
func (m *Manager) Cache() cache.Manager { return m.cache }

// Locks returns the lock manager guarding the write directory.
func (m *Manager) Locks() lock.Locker { return m.locks }

// LookupPDF resolves a numeric LHAPDF ID to a set name and member. A miss
// refreshes the index once. ok is false with a nil error when the ID is
// unknown even after the refresh. In read-only mode a miss fails with
// errors.ErrReadOnly.
func (m *Manager) LookupPDF(ctx context.Context, id int) (name string, member int, ok bool, err error) {
	emit(m.hooks, Event{Phase: "resolving", ID: strconv.Itoa(id)})
	e, ok, err := m.resolver.Resolve(ctx, id)
	if err != nil {
		m.report(Attempt{Resource: index.Resource, Outcome: classify(err), Err: err})
		return "", 0, false, err
	}
	return e.Name, e.Member, ok, nil
}

// RefreshIndex replaces the local index unconditionally.
func (m *Manager) RefreshIndex(ctx context.Context) error {
	emit(m.hooks, Event{Phase: "refreshing", ID: index.Resource})
	err := m.resolver.Refresh(ctx)
	outcome := OutcomeRefreshed
	if err != nil {
		outcome = classify(err)
	}
	m.report(Attempt{Resource: index.Resource, Outcome: outcome, Err: err})
	return err
}

// MkPDF opens one member of set, fetching the set when it is not installed.
func (m *Manager) MkPDF(ctx context.Context, set string, member int) (*lhapdf.PDF, error) {
	return withSet(ctx, m, set, func() (*lhapdf.PDF, error) {
		return m.lib.MkPDF(set, member)
	})
}

// NewPDFSet opens the metadata of set, fetching the set when it is not
// installed.
func (m *Manager) NewPDFSet(ctx context.Context, set string) (*lhapdf.PDFSet, error) {
	return withSet(ctx, m, set, func() (*lhapdf.PDFSet, error) {
		return m.lib.NewPDFSet(set)
	})
}

// MkPDFs opens every member of set.
func (m *Manager) MkPDFs(ctx context.Context, set string) ([]*lhapdf.PDF, error) {
	s, err := m.NewPDFSet(ctx, set)
	if err != nil {
		return nil, err
	}
	pdfs := make([]*lhapdf.PDF, 0, s.Size())
	for member := 0; member < s.Size(); member++ {
		pdf, err := m.MkPDF(ctx, set, member)
		if err != nil {
			return nil, err
		}
		pdfs = append(pdfs, pdf)
	}
	return pdfs, nil
}

// MkPDFByID opens the member mapped to a numeric LHAPDF ID.
func (m *Manager) MkPDFByID(ctx context.Context, id int) (*lhapdf.PDF, error) {
	name, member, ok, err := m.LookupPDF(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.ErrUnknownIDWithValue(id)
	}
	return m.MkPDF(ctx, name, member)
}

// MkPDFByNmem opens "<set>/<member>". Without "/<member>" member 0 is used.
func (m *Manager) MkPDFByNmem(ctx context.Context, setNmem string) (*lhapdf.PDF, error) {
	set, member, err := ParseSetNmem(setNmem)
	if err != nil {
		return nil, err
	}
	return m.MkPDF(ctx, set, member)
}

// ParseSetNmem splits "<set>/<member>" at the first slash.
func ParseSetNmem(setNmem string) (string, int, error) {
	set, nmem, found := strings.Cut(setNmem, "/")
	if !found {
		return setNmem, 0, nil
	}
	member, err := strconv.ParseInt(nmem, 10, 32)
	if err != nil {
		reason := err
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			reason = numErr.Err
		}
		return "", 0, fmt.Errorf("%w: problem while parsing member index = %s: '%v'", pkgerrors.ErrInvalidMember, nmem, reason)
	}
	return set, int(member), nil
}

// SetVerbosity sets the library's global verbosity.
func (m *Manager) SetVerbosity(level int) {
	libraryMu.Lock()
	defer libraryMu.Unlock()
	m.lib.SetVerbosity(level)
}

// Verbosity returns the library's global verbosity.
func (m *Manager) Verbosity() int {
	libraryMu.Lock()
	defer libraryMu.Unlock()
	return m.lib.Verbosity()
}

func (m *Manager) report(a Attempt) {
	phase := "done"
	if a.Err != nil {
		phase = "error"
	}
	emit(m.hooks, Event{Phase: phase, ID: a.Resource, Msg: string(a.Outcome), Attempt: &a})
}
