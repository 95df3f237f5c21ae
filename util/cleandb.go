package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	ccwalker "github.com/commoncrawl-ingest/ccwalker"
	"github.com/commoncrawl-ingest/ccwalker/store"
)

func init() {
	UtilCommand.AddCommand(&cleandbCommand)
}

var cleandbCommand = cobra.Command{
	Use:   "cleandb",
	Short: "Drop and recreate the websites/keywords/archive_files schema",
	Long: `cleandb drops every table ccwalker owns (websites, keywords,
website_keywords, website_links, archive_files) and reapplies the DDL in
store.Schema. This is a development tool: it discards every ingested page
and the entire work queue, so it is never run as part of a normal ingest.
`,
	Run: cleandbFunc,
}

func cleandbFunc(cmd *cobra.Command, args []string) {
	if ConfigPath != "" {
		if err := ccwalker.ReadConfigFile(ConfigPath); err != nil {
			panic(err.Error())
		}
	}

	databaseURL, err := ccwalker.RequireDatabaseURL()
	if err != nil {
		panic(err.Error())
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		panic(fmt.Sprintf("failed connecting to database: %v", err))
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, store.DropSchema); err != nil {
		panic(fmt.Sprintf("failed dropping schema: %v", err))
	}
	if _, err := pool.Exec(ctx, store.Schema); err != nil {
		panic(fmt.Sprintf("failed reapplying schema: %v", err))
	}

	fmt.Println("schema reset")
}
