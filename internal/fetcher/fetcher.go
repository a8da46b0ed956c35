// Package fetcher acquires and parses the two guide inputs (survey export and
// ward boundaries) from local paths, HTTP(S), or FTP sources.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/rotisserie/eris"
)

// Fetcher downloads remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// Options configures source fetching.
type Options struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	// HostRate is the per-host request rate for HTTP sources.
	HostRate float64
}

// Source dispatches on a source string: plain paths and file:// URLs open the
// local file, http(s):// and ftp:// download. Failures carry the offending
// source so initialization errors name the file that broke startup.
type Source struct {
	http *HTTPFetcher
	ftp  *FTPFetcher
}

// NewSource creates a Source with the given fetch options.
func NewSource(opts Options) *Source {
	return &Source{
		http: NewHTTPFetcher(opts),
		ftp:  NewFTPFetcher(opts),
	}
}

// Open returns a reader over the source contents.
func (s *Source) Open(ctx context.Context, source string) (io.ReadCloser, error) {
	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" || u.Scheme == "file" {
		path := source
		if err == nil && u.Scheme == "file" {
			path = u.Path
		}
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil, eris.Wrapf(openErr, "fetch: open %s", source)
		}
		return f, nil
	}

	switch u.Scheme {
	case "http", "https":
		return s.http.Download(ctx, source)
	case "ftp":
		return s.ftp.Download(ctx, source)
	default:
		return nil, eris.Errorf("fetch: unsupported scheme %q in %s", u.Scheme, source)
	}
}

// Localize materializes the source as a local file and returns its path.
// Sources already on disk are returned as-is with cleanup = nil; remote
// sources are downloaded to dir and cleanup removes the temp file. Formats
// that need random access (XLSX, zipped shapefiles) go through here.
func (s *Source) Localize(ctx context.Context, source string, dir string) (path string, cleanup func(), err error) {
	u, parseErr := url.Parse(source)
	if parseErr != nil || u.Scheme == "" || u.Scheme == "file" {
		path = source
		if parseErr == nil && u.Scheme == "file" {
			path = u.Path
		}
		if _, statErr := os.Stat(path); statErr != nil {
			return "", nil, eris.Wrapf(statErr, "fetch: stat %s", source)
		}
		return path, nil, nil
	}

	tmp, err := os.CreateTemp(dir, "voterguide-*"+extOf(u.Path))
	if err != nil {
		return "", nil, eris.Wrap(err, "fetch: create temp file")
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	switch u.Scheme {
	case "http", "https":
		_, err = s.http.DownloadToFile(ctx, source, tmpPath)
	case "ftp":
		_, err = s.ftp.DownloadToFile(ctx, source, tmpPath)
	default:
		err = eris.Errorf("fetch: unsupported scheme %q in %s", u.Scheme, source)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return "", nil, err
	}

	return tmpPath, func() { _ = os.Remove(tmpPath) }, nil
}

func extOf(p string) string {
	for i := len(p) - 1; i >= 0 && p[i] != '/'; i-- {
		if p[i] == '.' {
			return p[i:]
		}
	}
	return ""
}
