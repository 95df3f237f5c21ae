package ccwalker

import (
	"context"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/commoncrawl-ingest/ccwalker/semaphore"
)

// Orchestrator drives the whole pipeline: for each archive file name it
// downloads the archive, reads and parses it, persists the results, marks
// the file processed and deletes the local copy, bounding how many files
// are in flight at once.
type Orchestrator struct {
	Downloader    Downloader
	Store         Store
	Whitelist     *DomainWhitelist
	Dictionary    *LemmaDictionary
	HostCacheSize int
	ProgressEvery int
	Observer      ProgressObserver
	MaxConcurrent int
}

// Run processes every file name in fileNames. A single archive's failure
// must not abort the run: errors from individual files are reported to the
// Observer and logged, not returned. Run only returns an error when ctx is
// canceled.
func (o *Orchestrator) Run(ctx context.Context, fileNames []string) error {
	concurrency := o.MaxConcurrent
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := semaphore.New(concurrency)

	// errgroup.Group (without a WithContext-derived context) is used purely
	// as goroutine bookkeeping, not error propagation: one archive's
	// failure must never cancel its siblings, so processFile always
	// returns nil and reports its own failure through the Observer.
	var g errgroup.Group
	for _, fileName := range fileNames {
		if ctx.Err() != nil {
			break
		}
		sem.Acquire()
		fileName := fileName
		g.Go(func() error {
			defer sem.Release()
			o.processFile(ctx, fileName)
			return nil
		})
	}
	_ = g.Wait()

	return ctx.Err()
}

func (o *Orchestrator) processFile(ctx context.Context, fileName string) {
	if o.Observer != nil {
		o.Observer.ArchiveStarted(fileName)
	}

	pages, err := o.processFileErr(ctx, fileName)
	if o.Observer != nil {
		o.Observer.ArchiveCompleted(fileName, pages, err)
	}
	if err != nil {
		log.WithError(err).WithField("archive", fileName).Error("failed to process archive")
	}
}

func (o *Orchestrator) processFileErr(ctx context.Context, fileName string) (int, error) {
	localPath, err := o.Downloader.Download(ctx, fileName)
	if err != nil {
		return 0, err
	}
	defer func() {
		// Cleanup failures don't affect correctness; the file is just
		// scratch space once the archive's fate is recorded.
		if err := os.Remove(localPath); err != nil {
			log.WithError(err).WithField("path", localPath).Warn("failed to delete local archive file")
		}
	}()

	hostCache, err := newHostCache(o.HostCacheSize)
	if err != nil {
		return 0, err
	}

	result, err := ReadArchive(localPath, ArchiveReaderOptions{
		Whitelist:     o.Whitelist,
		Dictionary:    o.Dictionary,
		HostCache:     hostCache,
		ProgressEvery: o.ProgressEvery,
		ShowProgress:  true,
	})
	if err != nil {
		return 0, err
	}

	if len(result.Pages) > 0 {
		if err := o.Store.UpsertPages(ctx, result.Pages); err != nil {
			return 0, err
		}
	}

	if err := o.Store.MarkFileProcessed(ctx, fileName); err != nil {
		return len(result.Pages), err
	}

	return len(result.Pages), nil
}
