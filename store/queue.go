package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SeedManifest inserts every name in names into archive_files that isn't
// already present, leaving existing rows (and their processed flag)
// untouched, so re-seeding from the same manifest never resurrects a
// finished archive.
func (s *PgStore) SeedManifest(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, name := range names {
		batch.Queue(`INSERT INTO archive_files (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range names {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("seeding archive manifest: %w", err)
		}
	}
	return nil
}

// FetchFilesToProcess returns up to limit archive names not yet processed.
// limit <= 0 means no limit.
func (s *PgStore) FetchFilesToProcess(ctx context.Context, limit int) ([]string, error) {
	query := `SELECT name FROM archive_files WHERE processed = FALSE ORDER BY name`
	var rows pgx.Rows
	var err error
	if limit > 0 {
		rows, err = s.pool.Query(ctx, query+` LIMIT $1`, limit)
	} else {
		rows, err = s.pool.Query(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching pending archive files: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// MarkFileProcessed sets the processed flag for fileName after its pages
// have been durably persisted.
func (s *PgStore) MarkFileProcessed(ctx context.Context, fileName string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE archive_files SET processed = TRUE, processed_at = now() WHERE name = $1
	`, fileName)
	if err != nil {
		return fmt.Errorf("marking %s processed: %w", fileName, err)
	}
	return nil
}
