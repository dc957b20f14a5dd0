package download

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/glorpus-work/lhamgr/pkg/errors"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name       string
		timeout    time.Duration
		userAgent  string
		expectedUA string
	}{
		{
			name:       "default user agent",
			timeout:    time.Second,
			expectedUA: "lhamgr/1.0",
		},
		{
			name:       "custom user agent",
			timeout:    2 * time.Second,
			userAgent:  "test-agent/1.0",
			expectedUA: "test-agent/1.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.timeout, tt.userAgent)
			require.NotNil(t, c)
			assert.Equal(t, tt.timeout, c.client.Timeout)
			assert.Equal(t, tt.expectedUA, c.userAgent)
		})
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestDownload(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		expectedErr error
	}{
		{name: "ok", status: http.StatusOK, body: "payload"},
		{name: "not found", status: http.StatusNotFound, expectedErr: pkgerrors.ErrNotFound},
		{name: "server error", status: http.StatusInternalServerError, expectedErr: pkgerrors.ErrNetwork},
		{name: "forbidden", status: http.StatusForbidden, expectedErr: pkgerrors.ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUA string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUA = r.Header.Get("User-Agent")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			dir := t.TempDir()
			path, err := NewClient(time.Second, "").Download(context.Background(), Request{
				URL: srv.URL + "/Set.tar.gz",
				Dir: dir,
			})
			assert.Equal(t, DefaultUserAgent, gotUA)

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
				if tt.expectedErr == pkgerrors.ErrNotFound {
					assert.False(t, errors.Is(err, pkgerrors.ErrNetwork))
				}
				assert.Empty(t, listDir(t, dir), "no temp file may remain")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, dir, filepath.Dir(path))
			assert.Contains(t, filepath.Base(path), ".download-")
			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(content))
		})
	}
}

func TestDownload_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(time.Second, "").Download(context.Background(), Request{URL: url, Dir: t.TempDir()})
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrNetwork)
}

func TestDownload_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient(time.Second, "").Download(ctx, Request{URL: srv.URL, Dir: t.TempDir()})
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrNetwork)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDownload_RelativeDir(t *testing.T) {
	_, err := NewClient(time.Second, "").Download(context.Background(), Request{URL: "http://example.invalid", Dir: "relative"})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidPath)
}

func TestDownload_ProgressAndPattern(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	var (
		gotLabel string
		gotSize  int64
		counted  bytes.Buffer
	)
	progress := func(label string, size int64, body io.Reader) io.Reader {
		gotLabel, gotSize = label, size
		return io.TeeReader(body, &counted)
	}

	dir := t.TempDir()
	path, err := NewClient(time.Second, "").Download(context.Background(), Request{
		URL:      srv.URL,
		Dir:      dir,
		Pattern:  ".pdfsets.index.tmp-*",
		Label:    "pdfsets.index",
		Progress: progress,
	})
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), ".pdfsets.index.tmp-")
	assert.Equal(t, "pdfsets.index", gotLabel)
	assert.Equal(t, int64(10), gotSize)
	assert.Equal(t, "0123456789", counted.String())
}
