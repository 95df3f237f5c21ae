package ccwalker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func newTestDownloader(t *testing.T, handler http.Handler) *HTTPDownloader {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	d, err := NewHTTPDownloader(t.TempDir(), 8)
	if err != nil {
		t.Fatalf("NewHTTPDownloader failed: %v", err)
	}
	d.baseURL = srv.URL + "/"
	return d
}

func TestDownloadWritesArchiveToScratchDir(t *testing.T) {
	contents := []byte("pretend this is a gzipped WARC")
	d := newTestDownloader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/crawl-data/a.warc.gz" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(contents)
	}))

	localPath, err := d.Download(context.Background(), "crawl-data/a.warc.gz")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}

	got, err := os.ReadFile(localPath)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(got) != string(contents) {
		t.Errorf("downloaded contents mismatch: got %q", got)
	}
}

func TestDownloadRejectsNon2xxStatus(t *testing.T) {
	d := newTestDownloader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))

	if _, err := d.Download(context.Background(), "crawl-data/missing.warc.gz"); err == nil {
		t.Error("expected an error for a 403 response")
	}
}

func TestDownloadRangeSendsRangeHeader(t *testing.T) {
	var gotRange string
	d := newTestDownloader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.Header.Get("Range")
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("0123456789"))
	}))

	data, err := d.DownloadRange(context.Background(), "crawl-data/a.warc.gz", 100, 10)
	if err != nil {
		t.Fatalf("DownloadRange failed: %v", err)
	}
	if gotRange != "bytes=100-109" {
		t.Errorf("expected Range header bytes=100-109, got %q", gotRange)
	}
	if len(data) != 10 {
		t.Errorf("expected 10 bytes, got %d", len(data))
	}
}
