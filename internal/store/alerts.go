package store

import (
	"database/sql"
	"time"
)

// UnreadAlerts returns unread alerts, newest first
func (s *Store) UnreadAlerts() ([]Alert, error) {
	rows, err := s.db.Query(`
		SELECT id, alert_type, topic_id, flow_id, message, read, created_at
		FROM alerts
		WHERE read = 0
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// ListAlerts returns recent alerts regardless of read state
func (s *Store) ListAlerts(limit int) ([]Alert, error) {
	rows, err := s.db.Query(`
		SELECT id, alert_type, topic_id, flow_id, message, read, created_at
		FROM alerts
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// MarkAlertRead flips the read flag, the only mutation alerts allow
func (s *Store) MarkAlertRead(id string) error {
	res, err := s.db.Exec(`UPDATE alerts SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecentAlertExists reports whether a (topic, alert type) alert was created
// at or after since. The lifecycle manager uses it to avoid alerting twice
// for the same evolving situation within the dedup window.
func (s *Store) RecentAlertExists(topicID, alertType string, since time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM alerts
			WHERE topic_id = ? AND alert_type = ? AND created_at >= ?
		)
	`, topicID, alertType, since.UTC()).Scan(&exists)
	return exists, err
}

func scanAlerts(rows *sql.Rows) ([]Alert, error) {
	var alerts []Alert
	for rows.Next() {
		var a Alert
		var readInt int64

		err := rows.Scan(&a.ID, &a.AlertType, &a.TopicID, &a.FlowID, &a.Message, &readInt, &a.CreatedAt)
		if err != nil {
			return nil, err
		}

		a.Read = readInt != 0
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
