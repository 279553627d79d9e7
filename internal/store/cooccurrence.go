package store

import (
	"fmt"
	"strings"
	"time"
)

// RecordCooccurrence upserts the canonical edge for every unordered pair in
// topicIDs. New edges start at frequency 1; existing edges are incremented
// and their last-seen advanced (never regressed) to observedAt. A set with
// fewer than two topics is a no-op. Each pair is a single atomic upsert, so
// concurrent ingestion of the same edge stays consistent.
func (s *Store) RecordCooccurrence(topicIDs []string, observedAt time.Time) error {
	if len(topicIDs) < 2 {
		return nil
	}
	observedAt = observedAt.UTC()

	for i := 0; i < len(topicIDs); i++ {
		for j := i + 1; j < len(topicIDs); j++ {
			a, b := canonicalPair(topicIDs[i], topicIDs[j])
			if a == b {
				continue
			}

			_, err := s.db.Exec(`
				INSERT INTO topic_cooccurrences (topic_a_id, topic_b_id, frequency, last_seen)
				VALUES (?, ?, 1, ?)
				ON CONFLICT(topic_a_id, topic_b_id) DO UPDATE SET
					frequency = frequency + 1,
					last_seen = MAX(last_seen, excluded.last_seen)
			`, a, b, observedAt)
			if err != nil {
				return fmt.Errorf("upsert edge (%s,%s): %w", a, b, err)
			}
		}
	}
	return nil
}

// canonicalPair orders two topic ids so the lower-sorting id is stored
// first, guaranteeing one row per unordered pair.
func canonicalPair(x, y string) (string, string) {
	if x < y {
		return x, y
	}
	return y, x
}

// EdgeFrequency returns the cumulative frequency of a pair's edge, with
// zero for pairs that never co-occurred.
func (s *Store) EdgeFrequency(x, y string) (int64, error) {
	a, b := canonicalPair(x, y)
	var freq int64
	err := s.db.QueryRow(`
		SELECT COALESCE(SUM(frequency), 0) FROM topic_cooccurrences
		WHERE topic_a_id = ? AND topic_b_id = ?
	`, a, b).Scan(&freq)
	return freq, err
}

// RelatedTopics walks the co-occurrence graph from a start topic with an
// iterative depth-limited frontier expansion, returning reachable topics
// with their hop distance and the weight of the edge that discovered them.
// Results are ordered by (depth asc, weight desc). maxDepth is clamped to 2.
func (s *Store) RelatedTopics(topicID string, maxDepth int) ([]RelatedTopic, error) {
	if maxDepth < 1 {
		maxDepth = 1
	}
	if maxDepth > 2 {
		maxDepth = 2
	}

	visited := map[string]bool{topicID: true}
	frontier := []string{topicID}
	var results []RelatedTopic

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		neighbors, err := s.adjacentTo(frontier)
		if err != nil {
			return nil, err
		}

		var next []string
		for _, n := range neighbors {
			if visited[n.TopicID] {
				continue
			}
			visited[n.TopicID] = true
			n.Depth = depth
			results = append(results, n)
			next = append(next, n.TopicID)
		}
		frontier = next
	}

	// Frontier expansion already yields depth-ascending order; settle
	// weight order within each depth.
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j-1].Depth == results[j].Depth &&
			results[j-1].Weight < results[j].Weight; j-- {
			results[j-1], results[j] = results[j], results[j-1]
		}
	}

	return results, nil
}

// adjacentTo returns the neighbors of a set of topics with edge weights,
// strongest edges first so stronger discoveries win within a depth.
func (s *Store) adjacentTo(topicIDs []string) ([]RelatedTopic, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(topicIDs)), ",")
	args := make([]any, 0, 2*len(topicIDs))
	for _, id := range topicIDs {
		args = append(args, id)
	}
	for _, id := range topicIDs {
		args = append(args, id)
	}

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT n.topic_id, t.name, n.weight FROM (
			SELECT topic_b_id AS topic_id, frequency AS weight
			FROM topic_cooccurrences WHERE topic_a_id IN (%s)
			UNION ALL
			SELECT topic_a_id AS topic_id, frequency AS weight
			FROM topic_cooccurrences WHERE topic_b_id IN (%s)
		) n
		JOIN topics t ON t.id = n.topic_id
		ORDER BY n.weight DESC
	`, placeholders, placeholders), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var neighbors []RelatedTopic
	for rows.Next() {
		var n RelatedTopic
		if err := rows.Scan(&n.TopicID, &n.Name, &n.Weight); err != nil {
			return nil, err
		}
		neighbors = append(neighbors, n)
	}
	return neighbors, rows.Err()
}

// PairCountsBetween sums joint topic tags per canonical pair over a window
// of content publish times. The co-occurrence edge row is cumulative and
// cannot be windowed, so windowed comparisons recount from the jointly
// tagged items; the two agree because both are fed by the same capped tag
// set at ingest.
func (s *Store) PairCountsBetween(from, to time.Time) ([]PairCount, error) {
	rows, err := s.db.Query(`
		SELECT ct1.topic_id, ct2.topic_id, COUNT(*)
		FROM content_topics ct1
		JOIN content_topics ct2
			ON ct1.content_id = ct2.content_id AND ct1.topic_id < ct2.topic_id
		JOIN content c ON c.id = ct1.content_id
		WHERE c.published_at >= ? AND c.published_at < ?
		GROUP BY ct1.topic_id, ct2.topic_id
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []PairCount
	for rows.Next() {
		var p PairCount
		if err := rows.Scan(&p.TopicA, &p.TopicB, &p.Count); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}
