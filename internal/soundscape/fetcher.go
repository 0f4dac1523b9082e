package soundscape

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultMaxSize bounds a downloaded track
const DefaultMaxSize = 32 << 20

// Fetcher resolves background tracks to local files, downloading catalog
// tracks into a cache directory on first use
type Fetcher struct {
	client   *resty.Client
	cacheDir string
	maxSize  int64
}

// NewFetcher creates a fetcher caching into cacheDir
func NewFetcher(cacheDir string, timeout time.Duration, maxSize int64, userAgent string) *Fetcher {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "audio/*")
	return &Fetcher{client: client, cacheDir: cacheDir, maxSize: maxSize}
}

// Fetch returns the local path of track. None resolves to "". Upload
// resolves to uploadPath, which must exist.
func (f *Fetcher) Fetch(ctx context.Context, track Track, uploadPath string) (string, error) {
	switch track.Key {
	case None:
		return "", nil
	case Upload:
		if uploadPath == "" {
			return "", fmt.Errorf("no file given for custom background track")
		}
		info, err := os.Stat(uploadPath)
		if err != nil {
			return "", fmt.Errorf("failed to open custom track: %w", err)
		}
		if info.IsDir() {
			return "", fmt.Errorf("custom track %s is a directory", uploadPath)
		}
		return uploadPath, nil
	}

	if track.URL == "" {
		return "", fmt.Errorf("track %s has no source", track.Key)
	}

	dest := filepath.Join(f.cacheDir, track.Key+path.Ext(track.URL))
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		return dest, nil
	}

	if err := f.download(ctx, track.URL, dest); err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", track.Label, err)
	}
	return dest, nil
}

// download streams url into dest through a temp file
func (f *Fetcher) download(ctx context.Context, url, dest string) error {
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != 200 {
		return fmt.Errorf("HTTP %d", resp.StatusCode())
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(strings.ToLower(contentType), "audio/") &&
		!strings.HasPrefix(contentType, "application/octet-stream") {
		return fmt.Errorf("non-audio content type: %s", contentType)
	}

	if err := os.MkdirAll(f.cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(f.cacheDir, ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	// Read one byte past the limit to detect oversized tracks
	n, err := io.Copy(tmp, io.LimitReader(body, f.maxSize+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	if n > f.maxSize {
		return fmt.Errorf("track exceeds %d bytes", f.maxSize)
	}
	if n == 0 {
		return fmt.Errorf("empty response")
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to save track: %w", err)
	}
	return nil
}
