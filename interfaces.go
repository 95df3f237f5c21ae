package ccwalker

import "context"

// Store is the persistence contract: everything the orchestrator needs to
// commit a batch of parsed pages and to track which archive files have
// already been ingested.
type Store interface {
	// UpsertPages writes every ingestible page in pages: it upserts the
	// global vocabulary, inserts or updates each website row, and replaces
	// that site's keyword and link associations.
	UpsertPages(ctx context.Context, pages []*Webpage) error

	// FetchFilesToProcess returns up to limit archive file names not yet
	// marked processed. limit <= 0 means no limit.
	FetchFilesToProcess(ctx context.Context, limit int) ([]string, error)

	// MarkFileProcessed records that fileName has been fully ingested.
	MarkFileProcessed(ctx context.Context, fileName string) error

	Close() error
}

// Downloader fetches one archive file into a local path for ReadArchive to
// stream.
type Downloader interface {
	Download(ctx context.Context, fileName string) (localPath string, err error)
}

// ProgressObserver receives coarse-grained progress events as the
// orchestrator works through the manifest. Implementors must not block;
// statusweb's in-memory observer buffers events instead of doing I/O on
// the calling goroutine.
type ProgressObserver interface {
	ArchiveStarted(fileName string)
	ArchiveCompleted(fileName string, pagesIngested int, err error)
}
