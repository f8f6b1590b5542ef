package storage

import "time"

// SessionRecord represents a row in the sessions table
type SessionRecord struct {
	SessionID    string    `db:"session_id"`
	InitialFEN   string    `db:"initial_fen"`
	CreatedAtUTC time.Time `db:"created_at_utc"`
}

// SearchRecord represents a row in the searches table. SessionID is empty
// for one-shot analysis requests.
type SearchRecord struct {
	SearchID    int64     `db:"search_id"`
	SessionID   string    `db:"session_id"`
	FEN         string    `db:"fen"`
	BestMove    string    `db:"best_move"`
	Score       int       `db:"score"`
	Depth       int       `db:"depth"`
	Nodes       int64     `db:"nodes"`
	ElapsedMs   int64     `db:"elapsed_ms"`
	CacheSize   int       `db:"cache_size"`
	SearchedUTC time.Time `db:"searched_utc"`
}

// Schema defines the SQLite database structure
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	initial_fen TEXT NOT NULL,
	created_at_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS searches (
	search_id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL DEFAULT '',
	fen TEXT NOT NULL,
	best_move TEXT NOT NULL,
	score INTEGER NOT NULL,
	depth INTEGER NOT NULL,
	nodes INTEGER NOT NULL DEFAULT 0,
	elapsed_ms INTEGER NOT NULL DEFAULT 0,
	cache_size INTEGER NOT NULL DEFAULT 0,
	searched_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_searches_session_id ON searches(session_id);
CREATE INDEX IF NOT EXISTS idx_searches_fen ON searches(fen);
`
