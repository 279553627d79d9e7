package taxonomy

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/trendr-app/trendr/internal/store"
)

// confidencePerMention is how much confidence one keyword mention is worth;
// confidence saturates at 1.0.
const confidencePerMention = 0.2

// Extractor tags raw text with topics by whole-word keyword matching. It is
// the in-repo stand-in for the external topic extractor: the engine never
// sees text, only the (topic, confidence) pairs this produces.
type Extractor struct {
	topics []topicMatcher
	limit  int
}

type topicMatcher struct {
	id       string
	name     string
	patterns []*regexp.Regexp
}

// NewExtractor compiles keyword matchers for the current vocabulary. The
// extractor holds a snapshot; rebuild it after adding topics. limit caps
// how many tags a single item may carry (bounding pair explosion in the
// co-occurrence graph).
func NewExtractor(s *store.Store, limit int) (*Extractor, error) {
	topics, err := s.ListTopics(1000, 0)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}

	e := &Extractor{limit: limit}
	for _, t := range topics {
		m := topicMatcher{id: t.ID, name: t.Name}
		for _, kw := range t.Keywords {
			p, err := regexp.Compile(`\b` + regexp.QuoteMeta(strings.ToLower(kw)) + `\b`)
			if err != nil {
				return nil, fmt.Errorf("keyword %q of topic %s: %w", kw, t.Name, err)
			}
			m.patterns = append(m.patterns, p)
		}
		e.topics = append(e.topics, m)
	}

	return e, nil
}

// Extract returns topic tags for a text, strongest first, capped at the
// extractor's limit.
func (e *Extractor) Extract(text string) []store.TopicTag {
	normalized := strings.ToLower(text)

	var tags []store.TopicTag
	for _, t := range e.topics {
		mentions := 0
		for _, p := range t.patterns {
			mentions += len(p.FindAllStringIndex(normalized, -1))
		}
		if mentions == 0 {
			continue
		}

		confidence := confidencePerMention * float64(mentions)
		if confidence > 1.0 {
			confidence = 1.0
		}
		tags = append(tags, store.TopicTag{TopicID: t.id, Confidence: confidence})
	}

	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Confidence != tags[j].Confidence {
			return tags[i].Confidence > tags[j].Confidence
		}
		return tags[i].TopicID < tags[j].TopicID
	})

	if len(tags) > e.limit {
		tags = tags[:e.limit]
	}
	return tags
}
