package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// InsertTopic adds a topic to the vocabulary. Name and slug are unique.
func (s *Store) InsertTopic(t *Topic) error {
	aliasesJSON, _ := json.Marshal(t.Aliases)
	keywordsJSON, _ := json.Marshal(t.Keywords)

	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO topics (id, name, slug, parent_topic_id, aliases, keywords, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Name, t.Slug, t.ParentTopicID, string(aliasesJSON), string(keywordsJSON), t.CreatedAt)

	return err
}

// CountTopics returns the vocabulary size
func (s *Store) CountTopics() (int64, error) {
	var n int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM topics`).Scan(&n)
	return n, err
}

// GetTopic returns a single topic with its tagged-content count
func (s *Store) GetTopic(id string) (*Topic, error) {
	row := s.db.QueryRow(`
		SELECT t.id, t.name, t.slug, t.parent_topic_id, t.aliases, t.keywords, t.created_at,
			(SELECT COUNT(*) FROM content_topics WHERE topic_id = t.id)
		FROM topics t WHERE t.id = ?
	`, id)

	t, err := scanTopic(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// ListTopics returns topics ordered by tagged-content count
func (s *Store) ListTopics(limit, offset int) ([]Topic, error) {
	rows, err := s.db.Query(`
		SELECT t.id, t.name, t.slug, t.parent_topic_id, t.aliases, t.keywords, t.created_at,
			COUNT(ct.content_id) AS content_count
		FROM topics t
		LEFT JOIN content_topics ct ON t.id = ct.topic_id
		GROUP BY t.id
		ORDER BY content_count DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTopics(rows)
}

// SearchTopics matches topics by name or slug substring
func (s *Store) SearchTopics(query string) ([]Topic, error) {
	term := "%" + query + "%"
	rows, err := s.db.Query(`
		SELECT t.id, t.name, t.slug, t.parent_topic_id, t.aliases, t.keywords, t.created_at, 0
		FROM topics t
		WHERE t.name LIKE ? OR t.slug LIKE ?
		LIMIT 20
	`, term, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTopics(rows)
}

// TopicIDs returns the set of known topic ids. Detection cycles use it to
// skip candidates that reference a since-removed topic.
func (s *Store) TopicIDs() (map[string]bool, error) {
	rows, err := s.db.Query(`SELECT id FROM topics`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// TopicNames returns id -> display name for the whole vocabulary
func (s *Store) TopicNames() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT id, name FROM topics`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTopic(row rowScanner) (*Topic, error) {
	var t Topic
	var aliasesJSON, keywordsJSON sql.NullString

	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.ParentTopicID,
		&aliasesJSON, &keywordsJSON, &t.CreatedAt, &t.ContentCount)
	if err != nil {
		return nil, err
	}

	if aliasesJSON.Valid {
		json.Unmarshal([]byte(aliasesJSON.String), &t.Aliases)
	}
	if keywordsJSON.Valid {
		json.Unmarshal([]byte(keywordsJSON.String), &t.Keywords)
	}
	return &t, nil
}

func scanTopics(rows *sql.Rows) ([]Topic, error) {
	var topics []Topic
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		topics = append(topics, *t)
	}
	return topics, rows.Err()
}
