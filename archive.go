package ccwalker

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/klauspost/compress/gzip"
	"github.com/nlnwa/gowarc"
	"github.com/schollz/progressbar/v3"
)

// ArchiveResult is the Archive Reader's output for one WARC file: every
// ingestible page extracted, plus throughput counters for the caller to log
// or report.
type ArchiveResult struct {
	Pages          []*Webpage
	RecordsRead    int
	RecordsMatched int
}

// ArchiveReaderOptions configures one ReadArchive call.
type ArchiveReaderOptions struct {
	Whitelist     *DomainWhitelist
	Dictionary    *LemmaDictionary
	HostCache     *lru.Cache
	ProgressEvery int
	ShowProgress  bool
}

// ReadArchive streams the gzip-compressed WARC file at path, keeping only
// response records whose WARC-Target-URI host is present in opts.Whitelist,
// and runs each kept record through ParseRecord. The whitelist check runs
// before the HTML parse, so a record on an unlisted host costs only a URL
// parse. Record parse failures are logged and the record skipped. A WARC
// framing error that the lenient decoder policies do not absorb ends the
// read: it is logged, the records after it are not read, and the pages
// gathered so far are returned without an error. Only a failure to open the
// archive itself is returned as an error.
func ReadArchive(path string, opts ArchiveReaderOptions) (*ArchiveResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("opening gzip stream for %s: %w", path, err)
	}
	// Common Crawl archives are concatenated per-record gzip members.
	gz.Multistream(true)
	defer gz.Close()

	unmarshaler := gowarc.NewUnmarshaler(
		gowarc.WithSpecViolationPolicy(gowarc.ErrIgnore),
		gowarc.WithSyntaxErrorPolicy(gowarc.ErrIgnore),
	)
	br := bufio.NewReaderSize(gz, 1024*1024)

	var bar *progressbar.ProgressBar
	if opts.ShowProgress {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription(fmt.Sprintf("processing %s", path)),
			progressbar.OptionSetItsString("records"),
		)
	}

	result := &ArchiveResult{}
	progressEvery := opts.ProgressEvery
	if progressEvery <= 0 {
		progressEvery = 1000
	}

	for {
		rec, _, _, err := unmarshaler.Unmarshal(br)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.WithError(err).WithField("archive", path).Warn("WARC stream ended with a framing error")
			}
			break
		}
		result.RecordsRead++

		if rec.Type() == gowarc.Response {
			targetURI := headerValue(rec, gowarc.WarcTargetURI)
			host, ok := extractHost(targetURI, opts.HostCache)
			if ok && opts.Whitelist.Contains(host) {
				result.RecordsMatched++

				page, err := ParseRecord(rec, opts.Dictionary)
				if err != nil {
					log.WithError(err).WithField("url", targetURI).Warn("failed to parse WARC record")
				} else if page != nil && page.Ingestible() {
					result.Pages = append(result.Pages, page)
				}
			}
		}
		_ = rec.Close()

		if bar != nil && result.RecordsRead%progressEvery == 0 {
			_ = bar.Add(progressEvery)
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}

	return result, nil
}

// newHostCache builds the LRU cache ReadArchive uses to memoize
// target-URI-to-host extraction, sized by Config.Archive.HostCacheSize.
func newHostCache(size int) (*lru.Cache, error) {
	if size <= 0 {
		size = 1
	}
	return lru.New(size)
}

// extractHost parses targetURI and returns its lowercased hostname, caching
// the outcome in cache when provided. Only the URL-parse-to-host step is
// cached; the whitelist itself is a plain map lookup.
func extractHost(targetURI string, cache *lru.Cache) (string, bool) {
	if targetURI == "" {
		return "", false
	}
	if cache != nil {
		if cached, ok := cache.Get(targetURI); ok {
			host, ok := cached.(string)
			return host, ok && host != ""
		}
	}

	u, err := url.Parse(targetURI)
	host := ""
	if err == nil {
		host = strings.ToLower(u.Hostname())
	}
	if cache != nil {
		cache.Add(targetURI, host)
	}
	return host, host != ""
}
