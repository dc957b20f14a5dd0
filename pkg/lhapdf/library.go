//go:generate mockgen -destination=./mocks/library.go -package=mocks . Library

// Package lhapdf defines the boundary to the numeric PDF library and ships a
// file-backed implementation of it.
//
// The managed layer never interprets PDF data itself. It only needs to open
// sets and members, resolve numeric IDs through the library's memoized index,
// and toggle the library's global verbosity. Library captures exactly that.
package lhapdf

import "github.com/hashicorp/go-version"

// Library is the numeric library as seen by the acquisition layer.
//
// Implementations may hold process-global state (verbosity, the memoized
// index) and are not required to be safe for concurrent use; callers
// serialize access.
type Library interface {
	// LookupPDF resolves a numeric LHAPDF ID to a set name and member number
	// using the library's index. ok is false when the index has no mapping.
	LookupPDF(id int) (name string, member int, ok bool)

	// MkPDF opens one member of a set. A set without an info file on the
	// search path fails with an error matching ErrInfoNotFound.
	MkPDF(set string, member int) (*PDF, error)

	// NewPDFSet opens the set-level metadata. Failure modes match MkPDF.
	NewPDFSet(set string) (*PDFSet, error)

	// ResetIndex drops the memoized index so the next LookupPDF re-reads it
	// from disk.
	ResetIndex()

	SetVerbosity(level int)
	Verbosity() int

	// Version reports the library release, e.g. "6.5.4".
	Version() string
}

// SupportedVersions is the range of library releases whose "missing data"
// error text matches InfoNotFoundFormat.
const SupportedVersions = ">= 6.2.0, < 7.0.0"

// IsSupportedVersion reports whether v lies in SupportedVersions.
func IsSupportedVersion(v string) (bool, error) {
	parsed, err := version.NewVersion(v)
	if err != nil {
		return false, err
	}
	constraints, err := version.NewConstraint(SupportedVersions)
	if err != nil {
		return false, err
	}
	return constraints.Check(parsed), nil
}
