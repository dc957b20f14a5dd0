package index

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/glorpus-work/lhamgr/internal/logger"
	"github.com/glorpus-work/lhamgr/pkg/lock"
)

// Resolver maps numeric IDs to (set, member). A miss refreshes the index once
// and retries the lookup once.
type Resolver struct {
	source  Source
	updater Refresher
	locks   lock.Locker
	limiter *rate.Limiter
	group   singleflight.Group
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithRefreshInterval allows at most one refresh per interval. Misses during
// the quiet period are final without contacting the network. Zero disables
// the limit.
func WithRefreshInterval(interval time.Duration) ResolverOption {
	return func(r *Resolver) {
		if interval > 0 {
			r.limiter = rate.NewLimiter(rate.Every(interval), 1)
		} else {
			r.limiter = nil
		}
	}
}

// NewResolver creates a resolver. source must be safe to call from the
// resolver's goroutine; the caller is responsible for serializing library access.
func NewResolver(source Source, updater Refresher, locks lock.Locker, opts ...ResolverOption) *Resolver {
	r := &Resolver{source: source, updater: updater, locks: locks}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve looks id up. A second miss after a refresh is a normal "unknown ID"
// result: ok is false and err is nil. err is non-nil only when the refresh
// itself failed, for example with errors.ErrReadOnly when there is no write
// directory.
func (r *Resolver) Resolve(ctx context.Context, id int) (Entry, bool, error) {
	if name, member, ok := r.source.LookupPDF(id); ok {
		return Entry{Name: name, Member: member}, true, nil
	}

	if r.limiter != nil && !r.limiter.Allow() {
		logger.Debug("Index refresh suppressed by rate limit", logger.Fields{"id": id})
		return Entry{}, false, nil
	}

	if err := r.Refresh(ctx); err != nil {
		return Entry{}, false, err
	}

	name, member, ok := r.source.LookupPDF(id)
	if !ok {
		logger.Debug("ID not in refreshed index", logger.Fields{"id": id})
		return Entry{}, false, nil
	}
	return Entry{Name: name, Member: member}, true, nil
}

// Refresh replaces the index under the index lock and then drops the
// library's memoized copy, still under the lock, so no reader re-memoizes
// the old file. Concurrent in-process callers share one refresh.
func (r *Resolver) Refresh(ctx context.Context) error {
	_, err, shared := r.group.Do(Resource, func() (interface{}, error) {
		return nil, r.locks.WithLock(ctx, Resource, func() error {
			if err := r.updater.Refresh(ctx); err != nil {
				return err
			}
			r.source.ResetIndex()
			return nil
		})
	})
	if shared {
		logger.Debug("Joined in-flight index refresh")
	}
	return err
}
