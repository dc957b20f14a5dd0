package download

import (
	"context"
	"io"
)

// Downloader fetches one remote resource into a local temporary file.
// It is the seam used by the dataset fetcher and the index updater, so tests
// can substitute a counting or failing implementation.
type Downloader interface {
	// Download performs a GET for req.URL and stores the body in a new file
	// inside req.Dir. It returns the path of that file; the caller owns it and
	// must rename or remove it.
	//
	// A 404 response yields an error matching errors.ErrNotFound and leaves no
	// file behind. Every other failure matches errors.ErrNetwork.
	Download(ctx context.Context, req Request) (string, error)
}

// Request describes one download.
type Request struct {
	URL      string       // source URL
	Dir      string       // directory for the temporary file. Must be absolute.
	Pattern  string       // os.CreateTemp pattern; defaults to ".download-*"
	Label    string       // human readable name for progress reporting
	Progress ProgressFunc // optional
}

// ProgressFunc wraps the response body of a download so its consumption can be
// reported. size is the Content-Length, or -1 when unknown.
type ProgressFunc func(label string, size int64, body io.Reader) io.Reader
