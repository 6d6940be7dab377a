package store

// schemaSQL is the base DDL. Later changes go into migrations.
const schemaSQL = `
-- One row per (archive content, parse options) pair
CREATE TABLE IF NOT EXISTS parse_results (
    cache_key TEXT PRIMARY KEY,
    content_hash TEXT NOT NULL,
    options_hash TEXT NOT NULL,
    title TEXT,
    slide_count INTEGER NOT NULL DEFAULT 0,
    total_slides INTEGER NOT NULL DEFAULT 0,
    result JSON NOT NULL,
    size_bytes INTEGER NOT NULL DEFAULT 0,
    hit_count INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL,
    accessed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_parse_results_content ON parse_results(content_hash);
`
