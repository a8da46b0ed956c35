package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_OpenLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survey.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o644))

	src := NewSource(Options{})
	rc, err := src.Open(context.Background(), path)
	require.NoError(t, err)
	defer rc.Close() //nolint:errcheck

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))
}

func TestSource_OpenMissingFile(t *testing.T) {
	src := NewSource(Options{})
	_, err := src.Open(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.csv")
}

func TestSource_OpenHTTP(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("remote,data\n"))
	}))
	defer ts.Close()

	src := NewSource(Options{})
	rc, err := src.Open(context.Background(), ts.URL+"/survey.csv")
	require.NoError(t, err)
	defer rc.Close() //nolint:errcheck

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "remote,data\n", string(data))
}

func TestSource_OpenHTTPFailureNamesSource(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	src := NewSource(Options{MaxRetries: 1})
	_, err := src.Open(context.Background(), ts.URL+"/missing.csv")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "missing.csv")
}

func TestSource_OpenUnsupportedScheme(t *testing.T) {
	src := NewSource(Options{})
	_, err := src.Open(context.Background(), "gopher://example.com/file")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scheme")
}

func TestSource_LocalizeLocalPassthrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wards.zip")
	require.NoError(t, os.WriteFile(path, []byte("zip"), 0o644))

	src := NewSource(Options{})
	got, cleanup, err := src.Localize(context.Background(), path, "")

	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.Nil(t, cleanup)
}

func TestSource_LocalizeHTTPDownloads(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer ts.Close()

	src := NewSource(Options{})
	path, cleanup, err := src.Localize(context.Background(), ts.URL+"/wards.zip", t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, cleanup)
	defer cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.Equal(t, ".zip", filepath.Ext(path))
}

func TestHTTPFetcher_RetriesServerErrors(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	f := NewHTTPFetcher(Options{MaxRetries: 3})
	rc, err := f.Download(context.Background(), ts.URL)
	require.NoError(t, err)
	defer rc.Close() //nolint:errcheck

	data, _ := io.ReadAll(rc)
	assert.Equal(t, "ok", string(data))
	assert.Equal(t, 3, calls)
}
