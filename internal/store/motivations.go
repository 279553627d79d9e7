package store

import (
	"database/sql"
	"time"
)

// UpsertTopicMotivation overwrites the score for one (topic, motivation)
// pair. Scores are recomputed wholesale by the classifier, never
// accumulated across runs.
func (s *Store) UpsertTopicMotivation(topicID, motivation string, score float64) error {
	_, err := s.db.Exec(`
		INSERT INTO topic_motivations (topic_id, motivation, score, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(topic_id, motivation) DO UPDATE SET
			score = excluded.score,
			updated_at = excluded.updated_at
	`, topicID, motivation, score, time.Now().UTC())
	return err
}

// TopicMotivations returns a topic's motivation scores, highest first
func (s *Store) TopicMotivations(topicID string) ([]TopicMotivation, error) {
	rows, err := s.db.Query(`
		SELECT topic_id, motivation, score, updated_at
		FROM topic_motivations
		WHERE topic_id = ?
		ORDER BY score DESC, motivation ASC
	`, topicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []TopicMotivation
	for rows.Next() {
		var m TopicMotivation
		if err := rows.Scan(&m.TopicID, &m.Motivation, &m.Score, &m.UpdatedAt); err != nil {
			return nil, err
		}
		scores = append(scores, m)
	}
	return scores, rows.Err()
}

// TopMotivation returns a topic's dominant motivation label and score.
// Ties break alphabetically on the label so the result is deterministic.
func (s *Store) TopMotivation(topicID string) (string, float64, error) {
	var label string
	var score float64
	err := s.db.QueryRow(`
		SELECT motivation, score FROM topic_motivations
		WHERE topic_id = ?
		ORDER BY score DESC, motivation ASC
		LIMIT 1
	`, topicID).Scan(&label, &score)
	if err == sql.ErrNoRows {
		return "", 0, ErrNotFound
	}
	return label, score, err
}
