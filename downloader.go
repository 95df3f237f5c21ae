package ccwalker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/commoncrawl-ingest/ccwalker/dnscache"
)

// archiveBaseURL is the Common Crawl data root that archive file names from
// the manifest are resolved against.
const archiveBaseURL = "https://data.commoncrawl.org/"

// HTTPDownloader downloads archive files over HTTP(S) into a scratch
// directory. Every request goes to the same host, so the transport's dialer
// caches DNS resolutions instead of re-resolving per download.
type HTTPDownloader struct {
	client     *http.Client
	scratchDir string
	baseURL    string
}

// NewHTTPDownloader builds an HTTPDownloader that writes into scratchDir,
// creating it if necessary. dnsCacheSize bounds the dialer's DNS cache.
func NewHTTPDownloader(scratchDir string, dnsCacheSize int) (*HTTPDownloader, error) {
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating scratch dir %s: %w", scratchDir, err)
	}

	dial, err := dnscache.Dial(nil, dnsCacheSize)
	if err != nil {
		return nil, fmt.Errorf("building cached dialer: %w", err)
	}

	transport := &http.Transport{
		Dial:                dial,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}

	return &HTTPDownloader{
		client:     &http.Client{Transport: transport},
		scratchDir: scratchDir,
		baseURL:    archiveBaseURL,
	}, nil
}

// Download fetches fileName from archiveBaseURL into d.scratchDir, returning
// the local path. Progress is reported against the response's
// Content-Length; when the server omits it the bar runs without a total
// rather than failing the download.
func (d *HTTPDownloader) Download(ctx context.Context, fileName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+fileName, nil)
	if err != nil {
		return "", err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", fileName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("downloading %s: unexpected status %s", fileName, resp.Status)
	}

	localPath := filepath.Join(d.scratchDir, filepath.Base(fileName))
	out, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("creating local file for %s: %w", fileName, err)
	}
	defer out.Close()

	bar := progressbar.DefaultBytes(resp.ContentLength, fmt.Sprintf("downloading %s", filepath.Base(fileName)))
	if _, err := io.Copy(io.MultiWriter(out, bar), resp.Body); err != nil {
		return "", fmt.Errorf("writing %s: %w", localPath, err)
	}

	return localPath, nil
}

// DownloadRange fetches length bytes of fileName starting at offset, using
// an HTTP Range request. Archive indexes give a record's byte offset and
// compressed length, which lets a caller pull one record without fetching
// the whole multi-gigabyte file.
func (d *HTTPDownloader) DownloadRange(ctx context.Context, fileName string, offset, length int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+fileName, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("range-downloading %s: %w", fileName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("range-downloading %s: unexpected status %s", fileName, resp.Status)
	}

	return io.ReadAll(io.LimitReader(resp.Body, length))
}
