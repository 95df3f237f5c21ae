package store

// Schema is the DDL applied on store startup and by the admin CLI's reset
// command: a websites table keyed by url, a global keywords vocabulary, a
// website_keywords join table carrying per-site term frequency, a
// website_links edge table, and an archive_files work queue.
const Schema = `
CREATE TABLE IF NOT EXISTS websites (
	id          SERIAL PRIMARY KEY,
	url         TEXT NOT NULL UNIQUE,
	title       TEXT NOT NULL,
	description TEXT NOT NULL,
	word_count  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS keywords (
	id                        SERIAL PRIMARY KEY,
	word                      TEXT NOT NULL UNIQUE,
	documents_containing_word INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS website_keywords (
	website_id          INTEGER NOT NULL REFERENCES websites(id) ON DELETE CASCADE,
	keyword_id          INTEGER NOT NULL REFERENCES keywords(id) ON DELETE CASCADE,
	keyword_occurrences INTEGER NOT NULL,
	PRIMARY KEY (website_id, keyword_id)
);

CREATE TABLE IF NOT EXISTS website_links (
	source_website_id INTEGER NOT NULL REFERENCES websites(id) ON DELETE CASCADE,
	target_website     TEXT NOT NULL,
	PRIMARY KEY (source_website_id, target_website)
);

CREATE TABLE IF NOT EXISTS archive_files (
	name         TEXT PRIMARY KEY,
	processed    BOOLEAN NOT NULL DEFAULT FALSE,
	processed_at TIMESTAMPTZ
);
`

// DropSchema reverses Schema, used by the admin CLI's reset command.
const DropSchema = `
DROP TABLE IF EXISTS website_links;
DROP TABLE IF EXISTS website_keywords;
DROP TABLE IF EXISTS keywords;
DROP TABLE IF EXISTS websites;
DROP TABLE IF EXISTS archive_files;
`
