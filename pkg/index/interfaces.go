package index

import (
	"context"
)

// Source is the library-side view of the index: a memoized lookup plus a way
// to drop the memoized copy.
type Source interface {
	LookupPDF(id int) (name string, member int, ok bool)
	ResetIndex()
}

// Refresher replaces the on-disk index with a fresh copy.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Entry is the result of resolving a numeric ID.
type Entry struct {
	Name   string
	Member int
}
