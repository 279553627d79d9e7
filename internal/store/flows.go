package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SaveCycleResults persists a detection cycle's accepted flows and derived
// alerts in one transaction: a failed cycle must leave no partial flow set.
func (s *Store) SaveCycleResults(flows []Flow, alerts []Alert) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, f := range flows {
		signalsJSON, err := json.Marshal(f.Signals)
		if err != nil {
			return fmt.Errorf("marshal signals for flow %s: %w", f.ID, err)
		}

		_, err = tx.Exec(`
			INSERT INTO flows (id, from_topic_id, to_topic_id, strength, confidence,
				motivation, signals, detected_at, valid_until)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, f.ID, f.FromTopicID, f.ToTopicID, f.Strength, f.Confidence,
			f.Motivation, string(signalsJSON), f.DetectedAt.UTC(), f.ValidUntil.UTC())
		if err != nil {
			return fmt.Errorf("insert flow %s: %w", f.ID, err)
		}
	}

	for _, a := range alerts {
		_, err = tx.Exec(`
			INSERT INTO alerts (id, alert_type, topic_id, flow_id, message, read, created_at)
			VALUES (?, ?, ?, ?, ?, 0, ?)
		`, a.ID, a.AlertType, a.TopicID, a.FlowID, a.Message, a.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("insert alert %s: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// ActiveFlows returns flows that are still within their validity window,
// optionally filtered to a minimum confidence, strongest first. Expired
// flows are excluded by filter, never deleted.
func (s *Store) ActiveFlows(now time.Time, minConfidence float64) ([]Flow, error) {
	rows, err := s.db.Query(`
		SELECT id, from_topic_id, to_topic_id, strength, confidence,
			motivation, signals, detected_at, valid_until
		FROM flows
		WHERE valid_until > ? AND confidence >= ?
		ORDER BY confidence DESC, strength DESC, detected_at DESC
	`, now.UTC(), minConfidence)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFlows(rows)
}

// FlowsForPair returns the full detection history of a directed pair,
// newest first, including expired rows.
func (s *Store) FlowsForPair(fromTopicID, toTopicID string) ([]Flow, error) {
	rows, err := s.db.Query(`
		SELECT id, from_topic_id, to_topic_id, strength, confidence,
			motivation, signals, detected_at, valid_until
		FROM flows
		WHERE from_topic_id = ? AND to_topic_id = ?
		ORDER BY detected_at DESC
	`, fromTopicID, toTopicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFlows(rows)
}

func scanFlows(rows *sql.Rows) ([]Flow, error) {
	var flows []Flow
	for rows.Next() {
		var f Flow
		var signalsJSON string

		err := rows.Scan(&f.ID, &f.FromTopicID, &f.ToTopicID, &f.Strength, &f.Confidence,
			&f.Motivation, &signalsJSON, &f.DetectedAt, &f.ValidUntil)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(signalsJSON), &f.Signals); err != nil {
			return nil, fmt.Errorf("decode signals for flow %s: %w", f.ID, err)
		}
		flows = append(flows, f)
	}
	return flows, rows.Err()
}
