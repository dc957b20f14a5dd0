package lhapdf

import (
	"errors"
	"fmt"
)

// InfoNotFoundFormat is the exact wording the library uses when a set has no
// info file on the search path. The argument is the set name.
const InfoNotFoundFormat = "Info file not found for PDF set '%s'"

// ErrorKind classifies library failures.
type ErrorKind int

const (
	// KindInfoNotFound means the set is not installed anywhere on the search path.
	KindInfoNotFound ErrorKind = iota + 1
	// KindMemberRange means the member number is outside the set.
	KindMemberRange
	// KindDataNotFound means the info file exists but a member data file does not.
	KindDataNotFound
	// KindRead means a file exists but could not be read or parsed.
	KindRead
)

func (k ErrorKind) String() string {
	switch k {
	case KindInfoNotFound:
		return "info-not-found"
	case KindMemberRange:
		return "member-range"
	case KindDataNotFound:
		return "data-not-found"
	case KindRead:
		return "read"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Sentinels matched by (*Error).Is.
var (
	ErrInfoNotFound = errors.New("info file not found")
	ErrMemberRange  = errors.New("member out of range")
	ErrDataNotFound = errors.New("data file not found")
	ErrRead         = errors.New("read error")
)

// Error is a library failure. Its message reproduces the library's wording.
type Error struct {
	Kind   ErrorKind
	Set    string
	Member int
	Path   string
	Err    error
}

// NewInfoNotFoundError returns the error for a set without an info file.
func NewInfoNotFoundError(set string) *Error {
	return &Error{Kind: KindInfoNotFound, Set: set}
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInfoNotFound:
		return fmt.Sprintf(InfoNotFoundFormat, e.Set)
	case KindMemberRange:
		return fmt.Sprintf("PDF %s/%d is out of the member range of set %s", e.Set, e.Member, e.Set)
	case KindDataNotFound:
		return fmt.Sprintf("Data file not found for PDF set '%s' member %d", e.Set, e.Member)
	default:
		if e.Err != nil {
			return fmt.Sprintf("Failed to read %s: %v", e.Path, e.Err)
		}
		return fmt.Sprintf("Failed to read %s", e.Path)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInfoNotFound:
		return e.Kind == KindInfoNotFound
	case ErrMemberRange:
		return e.Kind == KindMemberRange
	case ErrDataNotFound:
		return e.Kind == KindDataNotFound
	case ErrRead:
		return e.Kind == KindRead
	}
	return false
}
