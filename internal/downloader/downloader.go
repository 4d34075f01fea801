package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/billmal071/libgendl/internal/logging"
)

// bufferSize is the read size of the copy loop
const bufferSize = 32 * 1024

// Progress is reported after every chunk written to disk
type Progress struct {
	Written int64
	// Total is the expected size, 0 when the server didn't say
	Total int64
	Path  string
}

// Known reports whether the total size is known
func (p Progress) Known() bool {
	return p.Total > 0
}

// Percent returns written/total in percent, or 0 when the total is unknown
func (p Progress) Percent() float64 {
	if !p.Known() {
		return 0
	}
	return float64(p.Written) / float64(p.Total) * 100
}

// SavedFile describes a finished download
type SavedFile struct {
	Path string
	Name string
	Size int64
}

// Options configures a Downloader
type Options struct {
	Client    *http.Client
	Dir       string
	UserAgent string
	Retry     RetryConfig
	// Indicator, if set, runs while the body is copied
	Indicator Indicator
	Logger    *logrus.Entry
}

// Downloader streams files to a directory
type Downloader struct {
	client    *http.Client
	dir       string
	userAgent string
	retry     RetryConfig
	indicator Indicator
	log       *logrus.Entry
}

// New creates a new downloader
func New(opts Options) *Downloader {
	client := opts.Client
	if client == nil {
		client = &http.Client{
			Timeout: 0, // No timeout for downloads
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConns:          10,
				IdleConnTimeout:       30 * time.Second,
				ResponseHeaderTimeout: 60 * time.Second,
				DisableCompression:    true,
			},
		}
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	retry := opts.Retry
	if retry.MaxAttempts < 1 {
		retry = NoRetry
	}

	log := opts.Logger
	if log == nil {
		log = logging.For("download")
	}

	return &Downloader{
		client:    client,
		dir:       dir,
		userAgent: opts.UserAgent,
		retry:     retry,
		indicator: opts.Indicator,
		log:       log,
	}
}

// Download GETs url and writes the body into the download directory. The
// file is named from Content-Disposition, else fallbackName. Existing files
// are never overwritten. On a broken stream the partial file stays on disk.
func (d *Downloader) Download(ctx context.Context, url, fallbackName string, onProgress func(Progress)) (*SavedFile, error) {
	log := d.log.WithField("url", url)

	resp, err := d.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	name := ParseFilename(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = cleanName(fallbackName)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: no file name for %s", ErrIO, url)
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	path := filepath.Join(d.dir, name)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileExists, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer file.Close()

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}
	log.WithFields(logrus.Fields{"path": path, "size": total}).Debug("Writing file")

	written, err := d.copy(file, resp.Body, Progress{Total: total, Path: path}, onProgress)
	if err != nil {
		log.WithError(err).WithField("written", written).Warn("Download interrupted, partial file left on disk")
		return nil, err
	}

	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	return &SavedFile{Path: path, Name: name, Size: written}, nil
}

// get issues the file request, retrying before any byte has been written
func (d *Downloader) get(ctx context.Context, url string) (*http.Response, error) {
	var resp *http.Response

	err := RetryOperation(ctx, d.retry, func(attempt int) (int, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return 0, err
		}
		if d.userAgent != "" {
			req.Header.Set("User-Agent", d.userAgent)
		}

		if attempt > 0 {
			d.log.WithField("attempt", attempt+1).Debug("Retrying download request")
		}

		r, err := d.client.Do(req)
		if err != nil {
			return 0, err
		}
		if r.StatusCode < 200 || r.StatusCode > 299 {
			r.Body.Close()
			return r.StatusCode, fmt.Errorf("server returned %s", r.Status)
		}

		resp = r
		return r.StatusCode, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return resp, nil
}

// copy moves body into file chunk by chunk, reporting progress after each
func (d *Downloader) copy(file io.Writer, body io.Reader, p Progress, onProgress func(Progress)) (int64, error) {
	if d.indicator != nil {
		d.indicator.Start()
		defer d.indicator.Stop()
	}

	buf := make([]byte, bufferSize)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, err := file.Write(buf[:n]); err != nil {
				return p.Written, fmt.Errorf("%w: %v", ErrIO, err)
			}
			p.Written += int64(n)
			if onProgress != nil {
				onProgress(p)
			}
		}

		if readErr == io.EOF {
			return p.Written, nil
		}
		if readErr != nil {
			return p.Written, fmt.Errorf("%w: %v", ErrTransport, readErr)
		}
	}
}
