package store

import "time"

// historyBucket is the fixed period size for creator topic history
const historyBucketLayout = "2006-01-02"

// BumpCreatorTopicHistory increments the creator's per-topic content count
// for the daily bucket containing publishedAt. Buckets are append-only
// facts; counts only ever grow.
func (s *Store) BumpCreatorTopicHistory(creatorID, topicID string, publishedAt time.Time) error {
	bucket := publishedAt.UTC().Format(historyBucketLayout)

	_, err := s.db.Exec(`
		INSERT INTO creator_topic_history (creator_id, topic_id, period_start, content_count)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(creator_id, topic_id, period_start) DO UPDATE SET
			content_count = content_count + 1
	`, creatorID, topicID, bucket)

	return err
}

// CreatorTopicCounts aggregates per-creator per-topic content counts over
// [from, to). Used by the pivot detector's windowed comparison.
func (s *Store) CreatorTopicCounts(from, to time.Time) ([]CreatorTopicCount, error) {
	rows, err := s.db.Query(`
		SELECT creator_id, topic_id, SUM(content_count)
		FROM creator_topic_history
		WHERE period_start >= ? AND period_start < ?
		GROUP BY creator_id, topic_id
	`, from.UTC().Format(historyBucketLayout), to.UTC().Format(historyBucketLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []CreatorTopicCount
	for rows.Next() {
		var c CreatorTopicCount
		if err := rows.Scan(&c.CreatorID, &c.TopicID, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
