package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB with testmorph-specific helpers.
type DB struct {
	*sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// migrate runs all schema migrations.
func (d *DB) migrate() error {
	_, err := d.Exec(schema)
	return err
}

// schema contains the full database schema. New tables are added here.
const schema = `
CREATE TABLE IF NOT EXISTS conversion_cases (
    input_hash TEXT PRIMARY KEY,
    input_code TEXT NOT NULL,
    output_code TEXT NOT NULL DEFAULT '',
    strategy TEXT NOT NULL,
    success INTEGER NOT NULL DEFAULT 0,
    confidence REAL NOT NULL DEFAULT 0,
    execution_time REAL NOT NULL DEFAULT 0,
    context TEXT NOT NULL DEFAULT '{}',
    pattern_id TEXT,
    feedback_score REAL,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cases_created ON conversion_cases(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_cases_successful ON conversion_cases(success, confidence DESC, created_at DESC);

CREATE TABLE IF NOT EXISTS learned_patterns (
    id TEXT PRIMARY KEY,
    input_signature TEXT NOT NULL,
    output_signature TEXT NOT NULL DEFAULT '',
    success_rate REAL NOT NULL DEFAULT 0,
    usage_count INTEGER NOT NULL DEFAULT 0,
    avg_confidence REAL NOT NULL DEFAULT 0,
    context_conditions TEXT NOT NULL DEFAULT '{}',
    last_updated TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_patterns_signature ON learned_patterns(input_signature);

CREATE TABLE IF NOT EXISTS strategy_performance (
    strategy TEXT NOT NULL,
    context_bucket TEXT NOT NULL,
    attempts INTEGER NOT NULL DEFAULT 0,
    successes INTEGER NOT NULL DEFAULT 0,
    avg_confidence REAL NOT NULL DEFAULT 0,
    avg_execution_time REAL NOT NULL DEFAULT 0,
    last_updated TEXT NOT NULL,
    PRIMARY KEY (strategy, context_bucket)
);

CREATE TABLE IF NOT EXISTS reflections (
    id TEXT PRIMARY KEY,
    cause TEXT NOT NULL,
    success_rate REAL NOT NULL DEFAULT 0,
    avg_confidence REAL NOT NULL DEFAULT 0,
    avg_execution_time REAL NOT NULL DEFAULT 0,
    pattern_usage_rate REAL NOT NULL DEFAULT 0,
    avg_feedback REAL NOT NULL DEFAULT 0,
    insights TEXT NOT NULL DEFAULT '[]',
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reflections_created ON reflections(created_at DESC);

CREATE TABLE IF NOT EXISTS improvement_actions (
    id TEXT PRIMARY KEY,
    reflection_id TEXT NOT NULL REFERENCES reflections(id) ON DELETE CASCADE,
    insight_kind TEXT NOT NULL,
    action TEXT NOT NULL,
    priority INTEGER NOT NULL DEFAULT 1,
    status TEXT NOT NULL DEFAULT 'planned' CHECK(status IN ('planned','in_progress','completed','abandoned')),
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_actions_status ON improvement_actions(status);
`
