package store

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("not found")

// Store handles all database operations
type Store struct {
	db *sql.DB
}

// New creates a new Store with SQLite backend
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Serialized upserts for the same co-occurrence edge rely on a single
	// writer connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS topics (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		slug TEXT NOT NULL UNIQUE,
		parent_topic_id TEXT REFERENCES topics(id),
		aliases TEXT,
		keywords TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS topic_motivations (
		topic_id TEXT REFERENCES topics(id),
		motivation TEXT NOT NULL,
		score REAL NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (topic_id, motivation)
	);

	CREATE TABLE IF NOT EXISTS creators (
		id TEXT PRIMARY KEY,
		platform TEXT NOT NULL,
		platform_id TEXT NOT NULL,
		username TEXT NOT NULL,
		display_name TEXT,
		follower_count INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(platform, platform_id)
	);

	CREATE TABLE IF NOT EXISTS content (
		id TEXT PRIMARY KEY,
		platform TEXT NOT NULL,
		platform_id TEXT NOT NULL,
		creator_id TEXT REFERENCES creators(id),
		content_type TEXT NOT NULL,
		text_content TEXT,
		engagement_likes INTEGER DEFAULT 0,
		engagement_comments INTEGER DEFAULT 0,
		engagement_shares INTEGER DEFAULT 0,
		engagement_views INTEGER DEFAULT 0,
		published_at DATETIME,
		collected_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(platform, platform_id)
	);

	CREATE TABLE IF NOT EXISTS content_topics (
		content_id TEXT REFERENCES content(id) ON DELETE CASCADE,
		topic_id TEXT REFERENCES topics(id) ON DELETE CASCADE,
		confidence REAL NOT NULL,
		PRIMARY KEY (content_id, topic_id)
	);

	CREATE TABLE IF NOT EXISTS topic_cooccurrences (
		topic_a_id TEXT REFERENCES topics(id),
		topic_b_id TEXT REFERENCES topics(id),
		frequency INTEGER DEFAULT 1,
		last_seen DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (topic_a_id, topic_b_id)
	);

	CREATE TABLE IF NOT EXISTS creator_topic_history (
		creator_id TEXT REFERENCES creators(id),
		topic_id TEXT REFERENCES topics(id),
		period_start TEXT NOT NULL,
		content_count INTEGER DEFAULT 0,
		PRIMARY KEY (creator_id, topic_id, period_start)
	);

	CREATE TABLE IF NOT EXISTS flows (
		id TEXT PRIMARY KEY,
		from_topic_id TEXT REFERENCES topics(id),
		to_topic_id TEXT REFERENCES topics(id),
		strength REAL NOT NULL,
		confidence REAL NOT NULL,
		motivation TEXT,
		signals TEXT NOT NULL,
		detected_at DATETIME NOT NULL,
		valid_until DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS alerts (
		id TEXT PRIMARY KEY,
		alert_type TEXT NOT NULL,
		topic_id TEXT REFERENCES topics(id),
		flow_id TEXT REFERENCES flows(id),
		message TEXT NOT NULL,
		read INTEGER DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_content_platform ON content(platform, published_at);
	CREATE INDEX IF NOT EXISTS idx_content_creator ON content(creator_id, published_at);
	CREATE INDEX IF NOT EXISTS idx_content_topics_topic ON content_topics(topic_id);
	CREATE INDEX IF NOT EXISTS idx_cooccurrences_b ON topic_cooccurrences(topic_b_id);
	CREATE INDEX IF NOT EXISTS idx_history_period ON creator_topic_history(period_start);
	CREATE INDEX IF NOT EXISTS idx_flows_valid ON flows(valid_until);
	CREATE INDEX IF NOT EXISTS idx_alerts_created ON alerts(topic_id, alert_type, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}
