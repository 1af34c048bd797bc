package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Config holds fetcher configuration.
type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// Mirror is a secondary snapshot store consulted before the origin.
// *storage.Client satisfies it.
type Mirror interface {
	HasArchive(ctx context.Context, filename string) (bool, error)
	DownloadArchive(ctx context.Context, filename, dest string) error
	UploadArchive(ctx context.Context, filename, src string) error
}

// FetchError reports a failed archive download.
type FetchError struct {
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher downloads archive snapshots once and reuses them afterwards.
type Fetcher struct {
	config     Config
	httpClient *http.Client
	mirror     Mirror
}

// New creates a new Fetcher. mirror may be nil.
func New(config Config, mirror Mirror) *Fetcher {
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "docsearch/1.0"
	}
	return &Fetcher{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		mirror: mirror,
	}
}

// EnsureLocal makes sure an archive snapshot exists at dest.
// An existing file is trusted as is: it is never validated or refreshed.
func (f *Fetcher) EnsureLocal(ctx context.Context, archiveURL, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if _, err := os.Stat(dest); err == nil {
		slog.Debug("archive already present", "path", dest)
		return nil
	}

	name := filepath.Base(dest)

	if f.mirror != nil {
		ok, err := f.mirror.HasArchive(ctx, name)
		if err != nil {
			slog.Warn("snapshot mirror unavailable", "error", err)
		} else if ok {
			if err := f.mirror.DownloadArchive(ctx, name, dest); err != nil {
				slog.Warn("failed to restore archive from mirror", "error", err)
			} else {
				slog.Info("archive restored from mirror", "path", dest)
				return nil
			}
		}
	}

	if err := f.download(ctx, archiveURL, dest); err != nil {
		return err
	}

	if f.mirror != nil {
		if err := f.mirror.UploadArchive(ctx, name, dest); err != nil {
			slog.Warn("failed to mirror archive", "error", err)
		}
	}

	return nil
}

// download streams the archive into a temporary file and renames it into place,
// so an interrupted transfer never leaves a file that would suppress the next attempt.
func (f *Fetcher) download(ctx context.Context, archiveURL, dest string) error {
	slog.Info("downloading archive", "url", archiveURL, "path", dest)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, nil)
	if err != nil {
		return &FetchError{URL: archiveURL, Err: err}
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return &FetchError{URL: archiveURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &FetchError{
			URL:        archiveURL,
			StatusCode: resp.StatusCode,
			Err:        errors.New(resp.Status),
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.part")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		return &FetchError{URL: archiveURL, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to move archive into place: %w", err)
	}

	slog.Info("archive downloaded", "bytes", n, "duration", time.Since(start))
	return nil
}
