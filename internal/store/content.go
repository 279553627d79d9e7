package store

import (
	"database/sql"
	"time"
)

// ContentExists checks whether an item was already collected
func (s *Store) ContentExists(platform, platformID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM content WHERE platform = ? AND platform_id = ?)
	`, platform, platformID).Scan(&exists)
	return exists, err
}

// InsertContent stores a newly collected item
func (s *Store) InsertContent(c *Content) error {
	if c.CollectedAt.IsZero() {
		c.CollectedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO content (id, platform, platform_id, creator_id, content_type, text_content,
			engagement_likes, engagement_comments, engagement_shares, engagement_views,
			published_at, collected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Platform, c.PlatformID, c.CreatorID, c.ContentType, c.TextContent,
		c.Likes, c.Comments, c.Shares, c.Views, c.PublishedAt, c.CollectedAt)

	return err
}

// RefreshEngagement updates the counters of an already collected item.
// Everything else about stored content is immutable.
func (s *Store) RefreshEngagement(platform, platformID string, likes, comments, shares, views int64) error {
	_, err := s.db.Exec(`
		UPDATE content SET engagement_likes = ?, engagement_comments = ?,
			engagement_shares = ?, engagement_views = ?
		WHERE platform = ? AND platform_id = ?
	`, likes, comments, shares, views, platform, platformID)
	return err
}

// LinkContentTopic associates a content item with an extracted topic.
// Last write wins for a repeated (content, topic) pair.
func (s *Store) LinkContentTopic(contentID, topicID string, confidence float64) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO content_topics (content_id, topic_id, confidence)
		VALUES (?, ?, ?)
	`, contentID, topicID, confidence)
	return err
}

// ListContent returns recently collected items
func (s *Store) ListContent(limit, offset int) ([]Content, error) {
	rows, err := s.db.Query(`
		SELECT id, platform, platform_id, creator_id, content_type, text_content,
			engagement_likes, engagement_comments, engagement_shares, engagement_views,
			published_at, collected_at
		FROM content
		ORDER BY collected_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanContent(rows)
}

// ContentByTopic returns items tagged with a topic, newest first
func (s *Store) ContentByTopic(topicID string, limit int) ([]Content, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.platform, c.platform_id, c.creator_id, c.content_type, c.text_content,
			c.engagement_likes, c.engagement_comments, c.engagement_shares, c.engagement_views,
			c.published_at, c.collected_at
		FROM content c
		JOIN content_topics ct ON c.id = ct.content_id
		WHERE ct.topic_id = ?
		ORDER BY c.collected_at DESC
		LIMIT ?
	`, topicID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanContent(rows)
}

func scanContent(rows *sql.Rows) ([]Content, error) {
	var items []Content
	for rows.Next() {
		var c Content
		err := rows.Scan(&c.ID, &c.Platform, &c.PlatformID, &c.CreatorID, &c.ContentType,
			&c.TextContent, &c.Likes, &c.Comments, &c.Shares, &c.Views,
			&c.PublishedAt, &c.CollectedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// GetOrCreateCreator resolves a creator by platform identity, creating the
// row on first sight and refreshing the display name/followers otherwise.
func (s *Store) GetOrCreateCreator(c *Creator) (string, error) {
	var id string
	err := s.db.QueryRow(`
		SELECT id FROM creators WHERE platform = ? AND platform_id = ?
	`, c.Platform, c.PlatformID).Scan(&id)

	switch {
	case err == nil:
		if c.DisplayName != "" || c.FollowerCount > 0 {
			_, err = s.db.Exec(`
				UPDATE creators SET display_name = ?, follower_count = ?, updated_at = CURRENT_TIMESTAMP
				WHERE id = ?
			`, c.DisplayName, c.FollowerCount, id)
		}
		return id, err
	case err == sql.ErrNoRows:
		_, err = s.db.Exec(`
			INSERT INTO creators (id, platform, platform_id, username, display_name, follower_count)
			VALUES (?, ?, ?, ?, ?, ?)
		`, c.ID, c.Platform, c.PlatformID, c.Username, c.DisplayName, c.FollowerCount)
		return c.ID, err
	default:
		return "", err
	}
}

// Stats summarizes the corpus for dashboard surfaces
func (s *Store) Stats(now time.Time) (*Stats, error) {
	var st Stats

	queries := []struct {
		dest *int64
		q    string
	}{
		{&st.TotalContent, `SELECT COUNT(*) FROM content`},
		{&st.TotalTopics, `SELECT COUNT(*) FROM topics`},
		{&st.TotalCreators, `SELECT COUNT(*) FROM creators`},
	}
	for _, q := range queries {
		if err := s.db.QueryRow(q.q).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	err := s.db.QueryRow(`SELECT COUNT(*) FROM content WHERE collected_at > ?`,
		now.AddDate(0, 0, -7)).Scan(&st.ContentLast7Days)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRow(`SELECT COUNT(*) FROM flows WHERE valid_until > ?`, now).Scan(&st.ActiveFlows)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT t.name, COUNT(ct.content_id) AS count
		FROM topics t
		JOIN content_topics ct ON t.id = ct.topic_id
		GROUP BY t.id
		ORDER BY count DESC
		LIMIT 10
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var tc TopicCount
		if err := rows.Scan(&tc.Name, &tc.Count); err != nil {
			return nil, err
		}
		st.TopTopics = append(st.TopTopics, tc)
	}

	return &st, rows.Err()
}
