/*
Package cmd provides the ccwalker CLI entry point.

This package makes it easy to build custom ccwalker binaries that swap in
their own Store, Downloader, or ProgressObserver. A binary using every
default requires simply:

	func main() {
		cmd.Execute()
	}

To override the persistence layer (for embedding ccwalker against a
different store, or in tests):

	func main() {
		cmd.SetStore(myStore)
		cmd.Execute()
	}

cmd.Execute() blocks until the ingest run completes. On SIGINT or SIGTERM it
starts no further archives and returns once the archives already in flight
have stopped.
*/
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	ccwalker "github.com/commoncrawl-ingest/ccwalker"
	"github.com/commoncrawl-ingest/ccwalker/statusweb"
	"github.com/commoncrawl-ingest/ccwalker/store"
)

//
// P U B L I C
//

// SetStore overrides the persistence layer used by the run command.
func SetStore(s ccwalker.Store) {
	commander.Store = s
}

// SetDownloader overrides the archive downloader used by the run command.
func SetDownloader(d ccwalker.Downloader) {
	commander.Downloader = d
}

// SetObserver overrides the progress observer used by the run command.
func SetObserver(o ccwalker.ProgressObserver) {
	commander.Observer = o
}

// CommanderStreams holds the i/o functions the test harness can spoof: (a)
// the test harness rewires stdout/stderr in ways that can interact
// strangely with a real os.Exit, and (b) there is no clean way to spoof
// os.Exit other than this layer of indirection.
type CommanderStreams struct {
	Printf func(format string, args ...interface{})
	Errorf func(format string, args ...interface{})
	Exit   func(status int)
}

// Streams sets the global CommanderStreams object, returning the previous
// value so callers (tests) can restore it.
func Streams(cstream CommanderStreams) CommanderStreams {
	old := commander.Streams
	commander.Streams = cstream
	return old
}

// Execute runs the command specified on the command line.
func Execute() {
	commander.Execute()
}

//
// P R I V A T E
//

var commander struct {
	*cobra.Command
	Store      ccwalker.Store
	Downloader ccwalker.Downloader
	Observer   ccwalker.ProgressObserver
	Streams    CommanderStreams
}

// configPath is set by the --config flag.
var configPath string

// noStatus is set by the --no-status flag.
var noStatus bool

func initCommand() {
	if configPath != "" {
		if err := ccwalker.ReadConfigFile(configPath); err != nil {
			panic(err.Error())
		}
	}

	if commander.Streams.Printf == nil {
		commander.Streams.Printf = func(format string, args ...interface{}) {
			fmt.Printf(format, args...)
		}
	}
	if commander.Streams.Errorf == nil {
		commander.Streams.Errorf = func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format, args...)
		}
	}
	if commander.Streams.Exit == nil {
		commander.Streams.Exit = func(status int) {
			os.Exit(status)
		}
	}
}

func fatalf(format string, args ...interface{}) {
	errorf := commander.Streams.Errorf
	exit := commander.Streams.Exit
	errorf(format+"\n", args...)
	exit(1)
}

// dependencies bundles everything one ingest run needs, whether built from
// defaults or supplied via the Set* override hooks.
type dependencies struct {
	store      ccwalker.Store
	downloader ccwalker.Downloader
	observer   ccwalker.ProgressObserver
	whitelist  *ccwalker.DomainWhitelist
	dictionary *ccwalker.LemmaDictionary
}

// resolveDependencies builds whatever the commander's override hooks didn't
// already set, reading the bootstrap resources (domain list, lemma
// dictionary) and opening the Postgres store. A missing bootstrap resource
// is fatal.
func resolveDependencies(ctx context.Context) (*dependencies, error) {
	whitelist, err := ccwalker.LoadDomainWhitelist(ccwalker.Config.DomainListPath, ccwalker.Config.DomainWhitelist)
	if err != nil {
		return nil, fmt.Errorf("loading domain whitelist: %w", err)
	}
	dict, err := ccwalker.LoadLemmaDictionary(ccwalker.Config.DictionaryPath)
	if err != nil {
		return nil, fmt.Errorf("loading lemma dictionary: %w", err)
	}

	deps := &dependencies{
		whitelist:  whitelist,
		dictionary: dict,
		store:      commander.Store,
		downloader: commander.Downloader,
		observer:   commander.Observer,
	}

	if deps.store == nil {
		databaseURL, err := ccwalker.RequireDatabaseURL()
		if err != nil {
			return nil, err
		}
		pg, err := store.NewPgStore(ctx, databaseURL, ccwalker.Config.Store.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		deps.store = pg
	}

	if deps.downloader == nil {
		dl, err := ccwalker.NewHTTPDownloader(ccwalker.Config.ScratchDir, ccwalker.Config.Archive.HostCacheSize)
		if err != nil {
			return nil, fmt.Errorf("building downloader: %w", err)
		}
		deps.downloader = dl
	}

	return deps, nil
}

// loadManifest reads path (warc.paths) as newline-delimited archive paths,
// skipping blank lines.
func loadManifest(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		names = append(names, line)
	}
	return names, scanner.Err()
}

// runIngest seeds the work queue from the manifest file, fetches whatever
// is still pending, and drives the Orchestrator over it.
func runIngest(ctx context.Context, deps *dependencies) error {
	if seeder, ok := deps.store.(interface {
		SeedManifest(context.Context, []string) error
	}); ok {
		names, err := loadManifest(ccwalker.Config.ManifestPath)
		if err != nil {
			return fmt.Errorf("reading manifest %s: %w", ccwalker.Config.ManifestPath, err)
		}
		if err := seeder.SeedManifest(ctx, names); err != nil {
			return fmt.Errorf("seeding manifest: %w", err)
		}
	}

	pending, err := deps.store.FetchFilesToProcess(ctx, 0)
	if err != nil {
		return fmt.Errorf("fetching pending archives: %w", err)
	}
	logrus.Infof("%d archive(s) pending", len(pending))

	concurrency := ccwalker.Config.Orchestrator.MaxConcurrentArchives
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	orch := &ccwalker.Orchestrator{
		Downloader:    deps.downloader,
		Store:         deps.store,
		Whitelist:     deps.whitelist,
		Dictionary:    deps.dictionary,
		HostCacheSize: ccwalker.Config.Archive.HostCacheSize,
		ProgressEvery: ccwalker.Config.Archive.ProgressEvery,
		Observer:      deps.observer,
		MaxConcurrent: concurrency,
	}

	return orch.Run(ctx, pending)
}

// startStatusServer launches the statusweb dashboard in the background
// against model, returning a shutdown func. Binding failures are logged,
// not fatal: losing the dashboard must not stop an ingest run.
func startStatusServer(model *statusweb.Model) func(context.Context) error {
	statusweb.BuildRender("statusweb/templates")
	router := statusweb.NewRouter(model)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", ccwalker.Config.Status.Port),
		Handler: router,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Warn("statusweb server stopped")
		}
	}()
	return srv.Shutdown
}

func init() {
	root := &cobra.Command{
		Use:   "ccwalker",
		Short: "ingest Common Crawl WARC archives into a ranked-domain keyword index",
		Run: func(cmd *cobra.Command, args []string) {
			initCommand()
			printf := commander.Streams.Printf

			ctx, cancel := context.WithCancel(context.Background())
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sig
				printf("received interrupt, waiting for in-flight archives to finish...\n")
				cancel()
			}()

			deps, err := resolveDependencies(ctx)
			if err != nil {
				fatalf("failed to start: %v", err)
				return
			}
			defer deps.store.Close()

			var shutdownStatus func(context.Context) error
			if !noStatus {
				model := statusweb.NewModel()
				if deps.observer == nil {
					deps.observer = model
				}
				shutdownStatus = startStatusServer(model)
			}

			start := time.Now()
			if err := runIngest(ctx, deps); err != nil && ctx.Err() == nil {
				fatalf("ingest run failed: %v", err)
			}
			printf("ingest run finished in %s\n", time.Since(start).Round(time.Second))

			if shutdownStatus != nil {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				_ = shutdownStatus(shutdownCtx)
			}
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a ccwalker.yaml config file to load")
	root.Flags().BoolVar(&noStatus, "no-status", false, "do not start the statusweb dashboard")

	commander.Command = root
}
