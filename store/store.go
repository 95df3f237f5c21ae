// Package store owns the Postgres schema and the batched upsert protocol
// that turns parsed pages into website and keyword rows, plus the
// archive_files work queue.
package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/commoncrawl-ingest/ccwalker"
)

// DeadlockErrorCode is the Postgres SQLSTATE for a detected deadlock, the
// one error class the vocabulary upsert retries rather than fails on.
const DeadlockErrorCode = "40P01"

// PgStore is the Postgres-backed Store implementation.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore connects to databaseURL with a pool sized to maxConns and
// ensures the schema exists.
func NewPgStore(ctx context.Context, databaseURL string, maxConns int32) (*PgStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if _, err := pool.Exec(ctx, Schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &PgStore{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *PgStore) Close() error {
	s.pool.Close()
	return nil
}

// UpsertPages writes every ingestible page in pages: it first batch-upserts
// the global keyword vocabulary and gets back keyword ids, then for each
// page upserts the website row and rewrites its keyword and link
// associations. The vocabulary goes in before any website_keywords row so
// every keyword_id the per-page inserts reference already exists.
func (s *PgStore) UpsertPages(ctx context.Context, pages []*ccwalker.Webpage) error {
	ingestible := make([]*ccwalker.Webpage, 0, len(pages))
	for _, p := range pages {
		if p.Ingestible() {
			ingestible = append(ingestible, p)
		}
	}
	if len(ingestible) == 0 {
		return nil
	}

	keywordCounts := make(map[string]int)
	for _, page := range ingestible {
		seen := make(map[string]bool, len(page.Lemmas))
		for _, lemma := range page.Lemmas {
			word := ccwalker.TruncateKeyword(lemma)
			if !seen[word] {
				seen[word] = true
				keywordCounts[word]++
			}
		}
	}

	keywordIDs, err := s.upsertVocabulary(ctx, keywordCounts)
	if err != nil {
		return fmt.Errorf("upserting vocabulary: %w", err)
	}

	for _, page := range ingestible {
		if err := s.upsertWebpage(ctx, page, keywordIDs); err != nil {
			return fmt.Errorf("upserting webpage %s: %w", page.URL, err)
		}
	}

	return nil
}

// upsertVocabulary batch-inserts the distinct keywords in counts, where
// counts[word] is the number of pages in the batch containing word, adding
// that number to documents_containing_word on conflict, and returns
// word -> id. The whole
// batch runs inside a transaction retried on deadlock with linear backoff:
// attempt n sleeps base*n, base drawn once per call from [100ms, 500ms).
// The keywords table is the contention point across concurrent archive
// workers, so the jittered base keeps retries from re-colliding in step.
func (s *PgStore) upsertVocabulary(ctx context.Context, counts map[string]int) (map[string]int32, error) {
	words := make([]string, 0, len(counts))
	for word := range counts {
		words = append(words, word)
	}

	ids := make(map[string]int32, len(words))

	var placeholders []string
	args := make([]interface{}, len(words))
	for i, word := range words {
		placeholders = append(placeholders, fmt.Sprintf("($%d, %d)", i+1, counts[word]))
		args[i] = word
	}
	query := fmt.Sprintf(
		`INSERT INTO keywords (word, documents_containing_word) VALUES %s
		ON CONFLICT (word) DO UPDATE SET documents_containing_word = keywords.documents_containing_word + EXCLUDED.documents_containing_word
		RETURNING id, word`,
		strings.Join(placeholders, ", "),
	)

	backoffBase := time.Duration(100+rand.Intn(400)) * time.Millisecond

	err := withDeadlockRetry(ctx, backoffBase, func() error {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		pending := make(map[string]int32, len(words))
		for rows.Next() {
			var id int32
			var word string
			if err := rows.Scan(&id, &word); err != nil {
				rows.Close()
				return err
			}
			pending[word] = id
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rows.Close()

		if err := tx.Commit(ctx); err != nil {
			return err
		}
		for word, id := range pending {
			ids[word] = id
		}
		return nil
	})

	return ids, err
}

// upsertWebpage upserts one website row, then replaces its keyword and link
// associations. The five statements run as independent pool calls, not one
// transaction; a crash mid-sequence leaves the site with partial child rows
// until the archive is retried.
func (s *PgStore) upsertWebpage(ctx context.Context, page *ccwalker.Webpage, keywordIDs map[string]int32) error {
	var websiteID int32
	err := s.pool.QueryRow(ctx, `
		INSERT INTO websites (title, description, url, word_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (url) DO UPDATE
			SET title = EXCLUDED.title,
				description = EXCLUDED.description,
				word_count = EXCLUDED.word_count
		RETURNING id
	`, page.Title, page.Description, page.URL, len(page.Lemmas)).Scan(&websiteID)
	if err != nil {
		return fmt.Errorf("upserting website row: %w", err)
	}

	if _, err := s.pool.Exec(ctx, `DELETE FROM website_keywords WHERE website_id = $1`, websiteID); err != nil {
		return fmt.Errorf("clearing old keywords: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM website_links WHERE source_website_id = $1`, websiteID); err != nil {
		return fmt.Errorf("clearing old links: %w", err)
	}

	occurrences := make(map[string]int)
	for _, lemma := range page.Lemmas {
		occurrences[ccwalker.TruncateKeyword(lemma)]++
	}

	if err := s.insertWebsiteKeywords(ctx, websiteID, occurrences, keywordIDs); err != nil {
		return fmt.Errorf("inserting website keywords: %w", err)
	}
	if err := s.insertWebsiteLinks(ctx, websiteID, page.Links); err != nil {
		return fmt.Errorf("inserting website links: %w", err)
	}
	return nil
}

func (s *PgStore) insertWebsiteKeywords(ctx context.Context, websiteID int32, occurrences map[string]int, keywordIDs map[string]int32) error {
	var placeholders []string
	var args []interface{}
	i := 0
	for word, count := range occurrences {
		keywordID, ok := keywordIDs[word]
		if !ok {
			continue
		}
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d)", i*3+1, i*3+2, i*3+3))
		args = append(args, keywordID, websiteID, count)
		i++
	}
	if len(placeholders) == 0 {
		return nil
	}

	query := fmt.Sprintf(
		`INSERT INTO website_keywords (keyword_id, website_id, keyword_occurrences) VALUES %s`,
		strings.Join(placeholders, ", "),
	)
	_, err := s.pool.Exec(ctx, query, args...)
	return err
}

func (s *PgStore) insertWebsiteLinks(ctx context.Context, websiteID int32, links []string) error {
	if len(links) == 0 {
		return nil
	}

	var placeholders []string
	var args []interface{}
	for i, link := range links {
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d)", i*2+1, i*2+2))
		args = append(args, websiteID, link)
	}

	query := fmt.Sprintf(
		`INSERT INTO website_links (source_website_id, target_website) VALUES %s
		ON CONFLICT (source_website_id, target_website) DO NOTHING`,
		strings.Join(placeholders, ", "),
	)
	_, err := s.pool.Exec(ctx, query, args...)
	return err
}

// withDeadlockRetry runs fn, retrying on a DeadlockErrorCode failure with a
// linearly increasing delay of backoffBase * attempt. Retries on deadlock
// are unbounded; any other error returns immediately. The only way out of a
// deadlock-only retry loop is context cancellation.
func withDeadlockRetry(ctx context.Context, backoffBase time.Duration, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !isDeadlock(err) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoffBase * time.Duration(attempt)):
		}
	}
}

func isDeadlock(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == DeadlockErrorCode
}
