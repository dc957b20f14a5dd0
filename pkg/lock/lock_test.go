package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/glorpus-work/lhamgr/pkg/errors"
)

func TestWithLock_ReadOnly(t *testing.T) {
	called := false
	err := New("").WithLock(context.Background(), "CT18NNLO", func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, pkgerrors.ErrReadOnly)
	assert.False(t, called)
}

func TestWithLock_InvalidResource(t *testing.T) {
	m := New(t.TempDir())
	for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
		t.Run(name, func(t *testing.T) {
			err := m.WithLock(context.Background(), name, func() error { return nil })
			assert.ErrorIs(t, err, pkgerrors.ErrLock)
		})
	}
}

func TestWithLock_ReturnsCriticalSectionError(t *testing.T) {
	m := New(t.TempDir())
	sentinel := errors.New("boom")
	err := m.WithLock(context.Background(), "pdfsets", func() error { return sentinel })
	assert.Same(t, sentinel, err)
	assert.FileExists(t, m.Path("pdfsets"), "lock files are kept")
}

func TestWithLock_MutualExclusion(t *testing.T) {
	m := New(t.TempDir(), WithBackoff(time.Millisecond, 5*time.Millisecond))

	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.WithLock(context.Background(), "ExampleSet", func() error {
				n := inside.Add(1)
				if n > maxSeen.Load() {
					maxSeen.Store(n)
				}
				time.Sleep(5 * time.Millisecond)
				inside.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxSeen.Load())
}

func TestWithLock_DifferentResourcesDoNotBlock(t *testing.T) {
	m := New(t.TempDir())
	err := m.WithLock(context.Background(), "A", func() error {
		done := make(chan error, 1)
		go func() {
			done <- m.WithLock(context.Background(), "B", func() error { return nil })
		}()
		select {
		case err := <-done:
			return err
		case <-time.After(2 * time.Second):
			return errors.New("lock B blocked behind lock A")
		}
	})
	assert.NoError(t, err)
}

func holdLock(t *testing.T, m *Manager, resource string) (release func()) {
	t.Helper()
	acquired := make(chan struct{})
	releaseCh := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.WithLock(context.Background(), resource, func() error {
			close(acquired)
			<-releaseCh
			return nil
		})
	}()
	<-acquired
	return func() {
		close(releaseCh)
		<-done
	}
}

func TestWithLock_Timeout(t *testing.T) {
	dir := t.TempDir()
	release := holdLock(t, New(dir), "pdfsets")
	defer release()

	waiter := New(dir, WithTimeout(50*time.Millisecond), WithBackoff(time.Millisecond, 10*time.Millisecond))
	called := false
	err := waiter.WithLock(context.Background(), "pdfsets", func() error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrLock)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)
}

func TestWithLock_ContextCanceled(t *testing.T) {
	dir := t.TempDir()
	release := holdLock(t, New(dir), "ExampleSet")
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := New(dir).WithLock(ctx, "ExampleSet", func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithLock_WaiterProceedsAfterRelease(t *testing.T) {
	dir := t.TempDir()
	release := holdLock(t, New(dir), "ExampleSet")

	result := make(chan error, 1)
	go func() {
		result <- New(dir, WithBackoff(time.Millisecond, 5*time.Millisecond)).
			WithLock(context.Background(), "ExampleSet", func() error { return nil })
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-result:
		t.Fatal("waiter must block while the lock is held")
	default:
	}

	release()
	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter did not acquire the released lock")
	}
}

func TestWithLock_ReleasedOnPanic(t *testing.T) {
	m := New(t.TempDir(), WithTimeout(time.Second))
	assert.Panics(t, func() {
		_ = m.WithLock(context.Background(), "ExampleSet", func() error { panic("critical section failed") })
	})
	assert.NoError(t, m.WithLock(context.Background(), "ExampleSet", func() error { return nil }))
}
