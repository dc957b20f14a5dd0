// Package download implements the HTTP GET plumbing shared by dataset and index
// acquisition: one request, status classification and a temp-file sink.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	pkgerrors "github.com/glorpus-work/lhamgr/pkg/errors"
	"github.com/glorpus-work/lhamgr/pkg/fsutil"
)

const (
	// DefaultUserAgent is sent with every request unless overridden.
	DefaultUserAgent = "lhamgr/1.0"

	// DefaultTempPattern names temporary download files. The cache cleaner
	// recognizes leftovers by this prefix.
	DefaultTempPattern = ".download-*"
)

// Client is a plain HTTP downloader.
type Client struct {
	client    *http.Client
	userAgent string
}

var _ Downloader = (*Client)(nil)

// NewClient creates a download client with the given timeout and user agent.
// A zero timeout disables the client-side deadline.
func NewClient(timeout time.Duration, userAgent string) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Download implements Downloader.
func (c *Client) Download(ctx context.Context, req Request) (string, error) {
	if req.Dir == "" || !filepath.IsAbs(req.Dir) {
		return "", fmt.Errorf("download dir must be absolute: %s: %w", req.Dir, pkgerrors.ErrInvalidPath)
	}
	if err := os.MkdirAll(req.Dir, fsutil.DirModeDefault); err != nil {
		return "", pkgerrors.Wrap(err, "could not create download dir")
	}

	resp, err := c.doRequest(ctx, req.URL)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var body io.Reader = resp.Body
	if req.Progress != nil {
		body = req.Progress(req.Label, resp.ContentLength, resp.Body)
	}

	pattern := req.Pattern
	if pattern == "" {
		pattern = DefaultTempPattern
	}
	return writeBodyToTemp(body, req.Dir, pattern, req.URL)
}

func (c *Client) doRequest(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w: %w", rawURL, pkgerrors.ErrNetwork, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w: %w", rawURL, pkgerrors.ErrNetwork, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp, nil
	case resp.StatusCode == http.StatusNotFound:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %w", rawURL, pkgerrors.ErrNotFound)
	default:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("GET %s: unexpected status code %d: %w", rawURL, resp.StatusCode, pkgerrors.ErrNetwork)
	}
}

func writeBodyToTemp(body io.Reader, dir, pattern, rawURL string) (string, error) {
	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", pkgerrors.Wrap(err, "could not create temp file")
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("reading body of %s: %w: %w", rawURL, pkgerrors.ErrNetwork, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", pkgerrors.Wrap(err, "could not sync file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", pkgerrors.Wrap(err, "could not close file")
	}
	return tmpPath, nil
}
