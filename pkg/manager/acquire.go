package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/glorpus-work/lhamgr/internal/logger"
	pkgerrors "github.com/glorpus-work/lhamgr/pkg/errors"
	"github.com/glorpus-work/lhamgr/pkg/fetch"
	"github.com/glorpus-work/lhamgr/pkg/lhapdf"
)

// IsMissingData reports whether err is the library's "no info file for set"
// failure. The structured kind is checked first; the exact message is the
// fallback for libraries that only report text.
func IsMissingData(err error, set string) bool {
	if err == nil {
		return false
	}
	var le *lhapdf.Error
	if errors.As(err, &le) && le.Kind == lhapdf.KindInfoNotFound {
		return le.Set == set
	}
	return err.Error() == fmt.Sprintf(lhapdf.InfoNotFoundFormat, set)
}

// callLibrary runs fn while holding the library mutex.
func callLibrary[T any](fn func() (T, error)) (T, error) {
	libraryMu.Lock()
	defer libraryMu.Unlock()
	return fn()
}

// withSet runs call, and when it fails for lack of set acquires the set and
// runs call once more. Any other failure, and the retry's outcome, is
// returned as is.
func withSet[T any](ctx context.Context, m *Manager, set string, call func() (T, error)) (T, error) {
	v, err := callLibrary(call)
	if err == nil || !IsMissingData(err, set) {
		return v, err
	}

	logger.Debug("PDF set missing, acquiring", logger.Fields{"set": set})
	if _, aerr := m.EnsureSet(ctx, set); aerr != nil {
		var zero T
		return zero, fmt.Errorf("%w: %w", aerr, err)
	}

	emit(m.hooks, Event{Phase: "retrying", ID: set})
	return callLibrary(call)
}

// EnsureSet makes sure set is installed in the write directory. Concurrent
// calls in this process share one attempt, other processes are excluded by
// the set's lock, and a set that appeared while waiting is not fetched again.
func (m *Manager) EnsureSet(ctx context.Context, set string) (Outcome, error) {
	if err := fetch.ValidateName(set); err != nil {
		m.report(Attempt{Resource: set, Outcome: OutcomeFailed, Err: err})
		return OutcomeFailed, err
	}
	if !m.cache.Writable() {
		err := pkgerrors.ErrReadOnly
		m.report(Attempt{Resource: set, Outcome: OutcomeReadOnly, Err: err})
		return OutcomeReadOnly, err
	}
	if m.cache.IsInstalled(set) {
		m.report(Attempt{Resource: set, Outcome: OutcomeAlreadyPresent})
		return OutcomeAlreadyPresent, nil
	}

	v, err, shared := m.sets.Do(set, func() (interface{}, error) {
		outcome := OutcomeFailed
		err := m.locks.WithLock(ctx, set, func() error {
			if m.cache.IsInstalled(set) {
				outcome = OutcomeAlreadyPresent
				return nil
			}
			emit(m.hooks, Event{Phase: "fetching", ID: set})
			if err := m.fetcher.Fetch(ctx, set); err != nil {
				return err
			}
			outcome = OutcomeFetched
			return nil
		})
		if err != nil {
			outcome = classify(err)
		}
		return outcome, err
	})
	outcome, _ := v.(Outcome)
	if shared {
		logger.Debug("Joined in-flight acquisition", logger.Fields{"set": set, "outcome": string(outcome)})
	}

	m.report(Attempt{Resource: set, Outcome: outcome, Err: err})
	return outcome, err
}

func classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeFetched
	case errors.Is(err, pkgerrors.ErrReadOnly):
		return OutcomeReadOnly
	case errors.Is(err, pkgerrors.ErrNotFoundRemotely):
		return OutcomeNotFoundRemotely
	case errors.Is(err, pkgerrors.ErrNetwork):
		return OutcomeNetworkError
	default:
		return OutcomeFailed
	}
}
