package index

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/lhamgr/pkg/download"
	pkgerrors "github.com/glorpus-work/lhamgr/pkg/errors"
	"github.com/glorpus-work/lhamgr/pkg/lhapdf"
	"github.com/glorpus-work/lhamgr/pkg/lock"
	"github.com/glorpus-work/lhamgr/test/testutil"
)

// fakeSource serves lookups from a map that a refresh can swap in.
type fakeSource struct {
	mu      sync.Mutex
	entries map[int]Entry
	next    map[int]Entry
	resets  int
	lookups int
}

func (s *fakeSource) LookupPDF(id int) (string, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	e, ok := s.entries[id]
	return e.Name, e.Member, ok
}

func (s *fakeSource) ResetIndex() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
	if s.next != nil {
		s.entries = s.next
	}
}

// countingRefresher counts refreshes.
type countingRefresher struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (r *countingRefresher) Refresh(context.Context) error {
	r.calls.Add(1)
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	return r.err
}

func TestResolver_HitDoesNotRefresh(t *testing.T) {
	src := &fakeSource{entries: map[int]Entry{324900: {Name: "ExampleSet"}}}
	ref := &countingRefresher{}
	r := NewResolver(src, ref, lock.New(t.TempDir()))

	e, ok, err := r.Resolve(context.Background(), 324900)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Entry{Name: "ExampleSet", Member: 0}, e)
	assert.Zero(t, ref.calls.Load())
	assert.Zero(t, src.resets)
}

func TestResolver_MissRefreshesOnceAndRetries(t *testing.T) {
	src := &fakeSource{
		entries: map[int]Entry{},
		next:    map[int]Entry{324901: {Name: "ExampleSet", Member: 1}},
	}
	ref := &countingRefresher{}
	r := NewResolver(src, ref, lock.New(t.TempDir()))

	e, ok, err := r.Resolve(context.Background(), 324901)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Entry{Name: "ExampleSet", Member: 1}, e)
	assert.Equal(t, int32(1), ref.calls.Load())
	assert.Equal(t, 1, src.resets)
	assert.Equal(t, 2, src.lookups)
}

func TestResolver_ExactlyOneRefreshOnSecondMiss(t *testing.T) {
	src := &fakeSource{entries: map[int]Entry{}}
	ref := &countingRefresher{}
	r := NewResolver(src, ref, lock.New(t.TempDir()))

	e, ok, err := r.Resolve(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Entry{}, e)
	assert.Equal(t, int32(1), ref.calls.Load())
	assert.Equal(t, 2, src.lookups)
}

func TestResolver_RefreshErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	src := &fakeSource{entries: map[int]Entry{}}
	ref := &countingRefresher{err: boom}
	r := NewResolver(src, ref, lock.New(t.TempDir()))

	_, ok, err := r.Resolve(context.Background(), 42)
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, src.resets, "index must not be invalidated after a failed refresh")
}

func TestResolver_ReadOnly(t *testing.T) {
	src := &fakeSource{entries: map[int]Entry{}}
	ref := &countingRefresher{}
	r := NewResolver(src, ref, lock.New(""))

	_, ok, err := r.Resolve(context.Background(), 42)
	assert.False(t, ok)
	assert.ErrorIs(t, err, pkgerrors.ErrReadOnly)
	assert.Zero(t, ref.calls.Load())
}

func TestResolver_RefreshInterval(t *testing.T) {
	src := &fakeSource{entries: map[int]Entry{}}
	ref := &countingRefresher{}
	r := NewResolver(src, ref, lock.New(t.TempDir()), WithRefreshInterval(time.Hour))

	for i := 0; i < 3; i++ {
		_, ok, err := r.Resolve(context.Background(), 42+i)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, int32(1), ref.calls.Load())
}

func TestResolver_ZeroIntervalRefreshesEveryMiss(t *testing.T) {
	src := &fakeSource{entries: map[int]Entry{}}
	ref := &countingRefresher{}
	r := NewResolver(src, ref, lock.New(t.TempDir()), WithRefreshInterval(0))

	for i := 0; i < 3; i++ {
		_, _, err := r.Resolve(context.Background(), 42)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), ref.calls.Load())
}

func TestResolver_ConcurrentMissesShareRefresh(t *testing.T) {
	src := &fakeSource{entries: map[int]Entry{}}
	ref := &countingRefresher{delay: 200 * time.Millisecond}
	r := NewResolver(src, ref, lock.New(t.TempDir()))

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, _, err := r.Resolve(context.Background(), 42)
			assert.NoError(t, err)
		}()
	}
	close(start)
	wg.Wait()

	assert.Less(t, ref.calls.Load(), int32(8))
}

func TestResolver_ResetUnderLock(t *testing.T) {
	locks := lock.New(t.TempDir())
	src := &fakeSource{entries: map[int]Entry{}}
	var resetHeld bool
	probe := &probeSource{fakeSource: src, onReset: func() {
		// A second holder must not be able to take the index lock while the
		// memoized index is dropped.
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		err := locks.WithLock(ctx, Resource, func() error { return nil })
		resetHeld = errors.Is(err, pkgerrors.ErrLock)
	}}
	r := NewResolver(probe, &countingRefresher{}, locks)

	_, _, err := r.Resolve(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, resetHeld)
}

type probeSource struct {
	*fakeSource
	onReset func()
}

func (p *probeSource) ResetIndex() {
	p.onReset()
	p.fakeSource.ResetIndex()
}

func TestResolver_FileLibraryEndToEnd(t *testing.T) {
	srv := testutil.NewRepoServer(t)
	srv.Put("/pdfsets.index", testutil.IndexContent("1000 OtherSet", "324900 ExampleSet"))

	writeDir := t.TempDir()
	lib := lhapdf.NewFileLibrary(lhapdf.WithPaths(writeDir))
	u := NewUpdater(writeDir, srv.URL+"/pdfsets.index", download.NewClient(5*time.Second, ""))
	r := NewResolver(lib, u, lock.New(writeDir))

	e, ok, err := r.Resolve(context.Background(), 324900)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Entry{Name: "ExampleSet", Member: 0}, e)
	assert.Equal(t, 1, srv.TotalHits())

	// Idempotent: the second call is served from the memoized index.
	e2, ok, err := r.Resolve(context.Background(), 324900)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, e, e2)
	assert.Equal(t, 1, srv.TotalHits())

	e3, ok, err := r.Resolve(context.Background(), 1003)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Entry{Name: "OtherSet", Member: 3}, e3)
	assert.Equal(t, 1, srv.TotalHits())
}

func TestResolver_FileLibraryUnknownID(t *testing.T) {
	srv := testutil.NewRepoServer(t)
	srv.Put("/pdfsets.index", testutil.IndexContent("1000 OtherSet"))

	writeDir := t.TempDir()
	lib := lhapdf.NewFileLibrary(lhapdf.WithPaths(writeDir))
	u := NewUpdater(writeDir, srv.URL+"/pdfsets.index", download.NewClient(5*time.Second, ""))
	r := NewResolver(lib, u, lock.New(writeDir))

	_, ok, err := r.Resolve(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, srv.Hits("/pdfsets.index"))
}
