// Command ccwalker ingests Common Crawl WARC archives into a ranked-domain
// keyword index. See package cmd for the override hooks available to
// embedders.
package main

import "github.com/commoncrawl-ingest/ccwalker/cmd"

func main() {
	cmd.Execute()
}
