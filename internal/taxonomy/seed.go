package taxonomy

import (
	"fmt"
	"log"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/trendr-app/trendr/internal/store"
)

// Seed installs the default topic vocabulary and its motivation scores into
// an empty database. A database that already has topics is left alone.
func Seed(s *store.Store) error {
	count, err := s.CountTopics()
	if err != nil {
		return fmt.Errorf("count topics: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, dt := range defaultTopics {
		t := &store.Topic{
			ID:       uuid.NewString(),
			Name:     dt.Name,
			Slug:     Slugify(dt.Name),
			Keywords: dt.Keywords,
		}
		if err := s.InsertTopic(t); err != nil {
			return fmt.Errorf("seed topic %s: %w", dt.Name, err)
		}

		if err := ScoreMotivations(s, t); err != nil {
			return fmt.Errorf("score motivations for %s: %w", dt.Name, err)
		}
	}

	log.Printf("[taxonomy] Seeded %d default topics", len(defaultTopics))
	return nil
}

// ScoreMotivations recomputes and overwrites a topic's motivation scores
// from its keyword list. This stands in for the external motivation
// classifier; the engine only ever reads the persisted scores.
func ScoreMotivations(s *store.Store, t *store.Topic) error {
	for label, vocab := range motivationKeywords {
		matches := 0
		for _, kw := range t.Keywords {
			for _, mk := range vocab {
				if kw == mk {
					matches++
					break
				}
			}
		}

		if matches == 0 {
			continue
		}

		score := 0.25 * float64(matches)
		if score > 1.0 {
			score = 1.0
		}

		if err := s.UpsertTopicMotivation(t.ID, label, score); err != nil {
			return err
		}
	}
	return nil
}

// Slugify normalizes a topic name into its URL-safe slug
func Slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}
	}

	parts := strings.FieldsFunc(b.String(), func(r rune) bool { return r == '-' })
	return strings.Join(parts, "-")
}
