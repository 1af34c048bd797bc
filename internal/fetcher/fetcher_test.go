package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetcher_DownloadsOnce(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/zip")
		w.Write([]byte("archive bytes"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "data", "repo.zip")
	f := New(Config{Timeout: time.Second}, nil)

	for i := 0; i < 2; i++ {
		if err := f.EnsureLocal(t.Context(), server.URL, dest); err != nil {
			t.Fatalf("EnsureLocal() call %d error = %v", i+1, err)
		}
	}

	if got := requests.Load(); got != 1 {
		t.Errorf("server received %d requests, want 1", got)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("archive not written: %v", err)
	}
	if string(data) != "archive bytes" {
		t.Errorf("archive content = %q", data)
	}
}

func TestFetcher_ExistingFileSkipsNetwork(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "repo.zip")
	if err := os.WriteFile(dest, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := New(Config{}, nil)
	// Unroutable URL: any network access would fail the call.
	if err := f.EnsureLocal(t.Context(), "http://127.0.0.1:1/never", dest); err != nil {
		t.Fatalf("EnsureLocal() error = %v", err)
	}

	data, _ := os.ReadFile(dest)
	if string(data) != "stale" {
		t.Errorf("existing archive should be left untouched, got %q", data)
	}
}

func TestFetcher_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"not found", http.StatusNotFound},
		{"server error", http.StatusInternalServerError},
		{"not modified", http.StatusNotModified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			dest := filepath.Join(t.TempDir(), "repo.zip")
			err := New(Config{Timeout: time.Second}, nil).EnsureLocal(t.Context(), server.URL, dest)

			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("EnsureLocal() error = %v, want *FetchError", err)
			}
			if fetchErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", fetchErr.StatusCode, tt.status)
			}
			if _, err := os.Stat(dest); !os.IsNotExist(err) {
				t.Error("no archive should be written on failure")
			}
		})
	}
}

func TestFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	dest := filepath.Join(t.TempDir(), "repo.zip")
	err := New(Config{Timeout: 50 * time.Millisecond}, nil).EnsureLocal(t.Context(), server.URL, dest)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("EnsureLocal() error = %v, want *FetchError", err)
	}
	if fetchErr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 for timeout", fetchErr.StatusCode)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("no archive should be written on timeout")
	}
}

func TestFetcher_SetsUserAgent(t *testing.T) {
	var receivedUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedUA = r.Header.Get("User-Agent")
		w.Write([]byte("zip"))
	}))
	defer server.Close()

	f := New(Config{UserAgent: "docsearch-test/1.0"}, nil)
	if err := f.EnsureLocal(t.Context(), server.URL, filepath.Join(t.TempDir(), "a.zip")); err != nil {
		t.Fatalf("EnsureLocal() error = %v", err)
	}

	if receivedUA != "docsearch-test/1.0" {
		t.Errorf("User-Agent = %q, want %q", receivedUA, "docsearch-test/1.0")
	}
}

// fakeMirror is an in-memory Mirror.
type fakeMirror struct {
	objects  map[string][]byte
	uploads  int
	statErr  error
	uploadFn func() error
}

func (m *fakeMirror) HasArchive(_ context.Context, filename string) (bool, error) {
	if m.statErr != nil {
		return false, m.statErr
	}
	_, ok := m.objects[filename]
	return ok, nil
}

func (m *fakeMirror) DownloadArchive(_ context.Context, filename, dest string) error {
	return os.WriteFile(dest, m.objects[filename], 0o644)
}

func (m *fakeMirror) UploadArchive(_ context.Context, filename, src string) error {
	m.uploads++
	if m.uploadFn != nil {
		return m.uploadFn()
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	m.objects[filename] = data
	return nil
}

func TestFetcher_MirrorHitSkipsOrigin(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte("origin"))
	}))
	defer server.Close()

	mirror := &fakeMirror{objects: map[string][]byte{"repo.zip": []byte("mirrored")}}
	dest := filepath.Join(t.TempDir(), "repo.zip")

	if err := New(Config{}, mirror).EnsureLocal(t.Context(), server.URL, dest); err != nil {
		t.Fatalf("EnsureLocal() error = %v", err)
	}

	if requests.Load() != 0 {
		t.Errorf("origin should not be contacted on mirror hit")
	}
	data, _ := os.ReadFile(dest)
	if string(data) != "mirrored" {
		t.Errorf("archive content = %q, want mirrored bytes", data)
	}
}

func TestFetcher_MirrorMissUploadsAfterDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("origin"))
	}))
	defer server.Close()

	mirror := &fakeMirror{objects: map[string][]byte{}}
	dest := filepath.Join(t.TempDir(), "repo.zip")

	if err := New(Config{}, mirror).EnsureLocal(t.Context(), server.URL, dest); err != nil {
		t.Fatalf("EnsureLocal() error = %v", err)
	}

	if string(mirror.objects["repo.zip"]) != "origin" {
		t.Errorf("mirror should hold the downloaded archive, got %q", mirror.objects["repo.zip"])
	}
}

func TestFetcher_MirrorFailuresAreNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("origin"))
	}))
	defer server.Close()

	mirror := &fakeMirror{
		objects:  map[string][]byte{},
		statErr:  errors.New("connection refused"),
		uploadFn: func() error { return errors.New("bucket gone") },
	}
	dest := filepath.Join(t.TempDir(), "repo.zip")

	if err := New(Config{}, mirror).EnsureLocal(t.Context(), server.URL, dest); err != nil {
		t.Fatalf("EnsureLocal() error = %v", err)
	}
	if mirror.uploads != 1 {
		t.Errorf("uploads = %d, want 1", mirror.uploads)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("archive should be written: %v", err)
	}
}
