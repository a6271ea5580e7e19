package download

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestDownload_Success(t *testing.T) {
	content := strings.Repeat("zoom recording bytes ", 1000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			t.Errorf("expected bearer token on download request, got %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(content))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "intro.mp4")
	manager := NewManager(Config{ChunkSize: 1024})

	var updates int32
	result, err := manager.Download(context.Background(), Request{
		URL:         server.URL,
		Destination: dest,
		AuthToken:   "tok-123",
		FileSize:    int64(len(content)),
	}, func(update ProgressUpdate) {
		atomic.AddInt32(&updates, 1)
	})
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}

	if result.BytesDownloaded != int64(len(content)) {
		t.Errorf("expected %d bytes, got %d", len(content), result.BytesDownloaded)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("failed to read downloaded file: %v", err)
	}
	if string(data) != content {
		t.Error("downloaded content does not match source")
	}
	if atomic.LoadInt32(&updates) == 0 {
		t.Error("expected at least one progress update")
	}
}

func TestDownload_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "intro.mp4")
	manager := NewManager(Config{})

	_, err := manager.Download(context.Background(), Request{URL: server.URL, Destination: dest}, nil)
	if err == nil {
		t.Fatal("expected error for 401 response, got nil")
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("expected no file created for failed HTTP status")
	}
}

func TestDownload_TruncatedStreamLeavesPartialFile(t *testing.T) {
	content := strings.Repeat("x", 64*1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Advertise the full size but cut the stream short
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(content)))
		w.Write([]byte(content[:16*1024]))
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
		if hijacker, ok := w.(http.Hijacker); ok {
			conn, _, err := hijacker.Hijack()
			if err == nil {
				conn.Close()
			}
		}
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "intro.mp4")
	manager := NewManager(Config{ChunkSize: 4096})

	_, err := manager.Download(context.Background(), Request{
		URL:         server.URL,
		Destination: dest,
		FileSize:    int64(len(content)),
	}, nil)
	if err == nil {
		t.Fatal("expected error for truncated stream, got nil")
	}

	info, statErr := os.Stat(dest)
	if statErr != nil {
		t.Fatalf("expected partial file left in place, got: %v", statErr)
	}
	if info.Size() == 0 || info.Size() >= int64(len(content)) {
		t.Errorf("expected partial file, got %d of %d bytes", info.Size(), len(content))
	}
}

func TestDownload_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1048576")
		w.Write(make([]byte, 1024))
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
		time.Sleep(5 * time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	dest := filepath.Join(t.TempDir(), "intro.mp4")
	manager := NewManager(Config{ChunkSize: 512})

	_, err := manager.Download(ctx, Request{URL: server.URL, Destination: dest}, nil)
	if err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
}

func TestDownload_ConcurrentLimit(t *testing.T) {
	var active, peak int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := atomic.AddInt32(&active, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if current <= old || atomic.CompareAndSwapInt32(&peak, old, current) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		w.Write([]byte("data"))
	}))
	defer server.Close()

	dir := t.TempDir()
	manager := NewManager(Config{ConcurrentLimit: 2})

	done := make(chan error, 6)
	for i := 0; i < 6; i++ {
		go func(i int) {
			_, err := manager.Download(context.Background(), Request{
				URL:         server.URL,
				Destination: filepath.Join(dir, fmt.Sprintf("file-%d.mp4", i)),
			}, nil)
			done <- err
		}(i)
	}
	for i := 0; i < 6; i++ {
		if err := <-done; err != nil {
			t.Errorf("download %d failed: %v", i, err)
		}
	}

	if got := atomic.LoadInt32(&peak); got > 2 {
		t.Errorf("expected at most 2 concurrent downloads, saw %d", got)
	}
}
