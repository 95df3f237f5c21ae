package cmd

import (
	"context"
	"errors"
	"os"
	"testing"

	ccwalker "github.com/commoncrawl-ingest/ccwalker"
)

type fakeStore struct {
	pending  []string
	upserted [][]*ccwalker.Webpage
	marked   []string
	closed   bool
}

func (f *fakeStore) UpsertPages(ctx context.Context, pages []*ccwalker.Webpage) error {
	f.upserted = append(f.upserted, pages)
	return nil
}

func (f *fakeStore) FetchFilesToProcess(ctx context.Context, limit int) ([]string, error) {
	return f.pending, nil
}

func (f *fakeStore) MarkFileProcessed(ctx context.Context, fileName string) error {
	f.marked = append(f.marked, fileName)
	return nil
}

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}

type fakeDownloader struct {
	path string
	err  error
}

func (f *fakeDownloader) Download(ctx context.Context, fileName string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.path, nil
}

func TestSetStoreOverride(t *testing.T) {
	defer func() { commander.Store = nil }()

	fs := &fakeStore{}
	SetStore(fs)
	if commander.Store != fs {
		t.Error("SetStore did not update commander.Store")
	}
}

func TestSetDownloaderOverride(t *testing.T) {
	defer func() { commander.Downloader = nil }()

	fd := &fakeDownloader{}
	SetDownloader(fd)
	if commander.Downloader != fd {
		t.Error("SetDownloader did not update commander.Downloader")
	}
}

func TestStreamsDefaultsAreInstalledOnce(t *testing.T) {
	old := Streams(CommanderStreams{})
	defer Streams(old)

	initCommand()
	if commander.Streams.Printf == nil || commander.Streams.Errorf == nil || commander.Streams.Exit == nil {
		t.Fatal("initCommand did not install default streams")
	}
}

func TestStreamsOverrideIsPreserved(t *testing.T) {
	var exitCode int
	old := Streams(CommanderStreams{
		Printf: func(string, ...interface{}) {},
		Errorf: func(string, ...interface{}) {},
		Exit:   func(code int) { exitCode = code },
	})
	defer Streams(old)

	initCommand()
	fatalf("boom")
	if exitCode != 1 {
		t.Errorf("expected fatalf to exit with 1, got %d", exitCode)
	}
}

func TestRunIngestSwallowsPerArchiveErrors(t *testing.T) {
	fs := &fakeStore{pending: []string{"a.warc.gz", "b.warc.gz"}}
	deps := &dependencies{
		store:      fs,
		downloader: &fakeDownloader{err: errors.New("no network in test")},
	}

	// Every download fails; runIngest should still return nil since a
	// single archive's failure must not abort the run.
	if err := runIngest(context.Background(), deps); err != nil {
		t.Fatalf("expected runIngest to swallow per-archive errors, got %v", err)
	}
	if len(fs.marked) != 0 {
		t.Errorf("expected no archives marked processed after download failures, got %v", fs.marked)
	}
}

func TestLoadManifestSkipsBlankLines(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/warc.paths"
	contents := "crawl-data/a.warc.gz\n\ncrawl-data/b.warc.gz\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	names, err := loadManifest(path)
	if err != nil {
		t.Fatalf("loadManifest failed: %v", err)
	}
	if len(names) != 2 || names[0] != "crawl-data/a.warc.gz" || names[1] != "crawl-data/b.warc.gz" {
		t.Errorf("unexpected manifest contents: %v", names)
	}
}
