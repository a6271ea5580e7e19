// Package download provides the streaming download manager for zoom-to-vimeo
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Manager defines the interface for download operations
type Manager interface {
	Download(ctx context.Context, req Request, progressCallback ProgressCallback) (*Result, error)
}

// Config holds configuration for the download manager
type Config struct {
	ConcurrentLimit int           // Maximum number of concurrent downloads
	ChunkSize       int           // Size of each download chunk in bytes
	UserAgent       string        // User agent string for HTTP requests
	Timeout         time.Duration // HTTP request timeout
}

// Request represents a single download request
type Request struct {
	URL         string // Source URL to download from
	Destination string // Local file path to save to
	AuthToken   string // Bearer token sent with the request
	FileSize    int64  // Expected file size in bytes, zero when unknown
}

// ProgressUpdate reports bytes written so far for one download
type ProgressUpdate struct {
	Destination     string
	BytesDownloaded int64
	TotalBytes      int64
}

// ProgressCallback is called as download progress changes
type ProgressCallback func(update ProgressUpdate)

// Result represents the outcome of a completed download
type Result struct {
	Destination     string
	BytesDownloaded int64
	Duration        time.Duration
}

// managerImpl implements the Manager interface
type managerImpl struct {
	config     Config
	httpClient *http.Client
	semaphore  chan struct{}
	mutex      sync.Mutex
}

// NewManager creates a new download manager with the given configuration
func NewManager(config Config) Manager {
	if config.ConcurrentLimit <= 0 {
		config.ConcurrentLimit = 5
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = 64 * 1024
	}
	if config.UserAgent == "" {
		config.UserAgent = "zoom-to-vimeo/1.0"
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Minute
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	return &managerImpl{
		config:     config,
		httpClient: httpClient,
		semaphore:  make(chan struct{}, config.ConcurrentLimit),
	}
}

// Download streams the recording to its destination. There is no resume: a
// failed transfer leaves the partial file behind and the caller decides
// what to do with it; the next attempt always starts from byte zero.
func (dm *managerImpl) Download(ctx context.Context, req Request, progressCallback ProgressCallback) (*Result, error) {
	select {
	case dm.semaphore <- struct{}{}:
		defer func() { <-dm.semaphore }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	startTime := time.Now()

	if err := os.MkdirAll(filepath.Dir(req.Destination), 0755); err != nil {
		return nil, fmt.Errorf("failed to create destination directory: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "GET", req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("User-Agent", dm.config.UserAgent)
	if req.AuthToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.AuthToken)
	}

	resp, err := dm.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	totalBytes := req.FileSize
	if totalBytes == 0 && resp.ContentLength > 0 {
		totalBytes = resp.ContentLength
	}

	file, err := os.OpenFile(req.Destination, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	buffer := make([]byte, dm.config.ChunkSize)
	var totalDownloaded int64

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		n, readErr := resp.Body.Read(buffer)
		if n > 0 {
			written, writeErr := file.Write(buffer[:n])
			if writeErr != nil {
				return nil, fmt.Errorf("failed to write to file: %w", writeErr)
			}
			totalDownloaded += int64(written)

			if progressCallback != nil {
				progressCallback(ProgressUpdate{
					Destination:     req.Destination,
					BytesDownloaded: totalDownloaded,
					TotalBytes:      totalBytes,
				})
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read response body: %w", readErr)
		}
	}

	if totalBytes > 0 && totalDownloaded < totalBytes {
		return nil, fmt.Errorf("truncated download: got %d of %d bytes", totalDownloaded, totalBytes)
	}

	if err := file.Sync(); err != nil {
		return nil, fmt.Errorf("failed to sync file: %w", err)
	}

	return &Result{
		Destination:     req.Destination,
		BytesDownloaded: totalDownloaded,
		Duration:        time.Since(startTime),
	}, nil
}
