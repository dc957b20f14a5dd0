package cache

import (
	"context"
	"time"

	"github.com/glorpus-work/lhamgr/pkg/lock"
)

// Manager defines the interface for cache inspection and maintenance.
type Manager interface {
	EnsureLayout() error
	IsInstalled(name string) bool
	Writable() bool
	ListSets() ([]Location, error)
	GetInfo() (*Info, error)
	Clean(ctx context.Context, locks lock.Locker) (*CleanResult, error)
	GetDirectory() string
}

// Location is one directory of the search path and the sets found in it.
type Location struct {
	Dir      string
	Writable bool
	Sets     []string
}

// CleanResult contains information about what was cleaned.
type CleanResult struct {
	Removed    []string
	TotalFreed int64
}

// Info represents cache information.
type Info struct {
	Directory    string
	ReadDirs     []string
	TotalSize    int64
	Files        int
	Sets         int
	Leftovers    int
	IndexPresent bool
	IndexUpdated time.Time
}
