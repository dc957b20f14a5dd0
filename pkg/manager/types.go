package manager

import (
	"context"
)

// Fetcher is the subset of the dataset fetcher used by the manager.
type Fetcher interface {
	Fetch(ctx context.Context, name string) error
}

// Outcome is the result of one acquisition attempt.
type Outcome string

const (
	OutcomeFetched          Outcome = "fetched"
	OutcomeRefreshed        Outcome = "refreshed"
	OutcomeAlreadyPresent   Outcome = "already-present"
	OutcomeNotFoundRemotely Outcome = "not-found-remotely"
	OutcomeNetworkError     Outcome = "network-error"
	OutcomeReadOnly         Outcome = "read-only"
	OutcomeFailed           Outcome = "failed"
)

// Attempt records one acquisition of a set or of the index.
type Attempt struct {
	Resource string
	Outcome  Outcome
	Err      error
}

// Event represents a simple progress notification.
type Event struct {
	Phase   string // resolving|refreshing|fetching|retrying|done|error
	ID      string // set name or LHAPDF ID
	Msg     string
	Attempt *Attempt // set for done and error
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}
