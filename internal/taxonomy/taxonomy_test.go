package taxonomy

import (
	"path/filepath"
	"testing"

	"github.com/trendr-app/trendr/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSeed(t *testing.T) {
	s := newTestStore(t)

	if err := Seed(s); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	count, err := s.CountTopics()
	if err != nil {
		t.Fatalf("CountTopics failed: %v", err)
	}
	if count != int64(len(defaultTopics)) {
		t.Errorf("Expected %d topics, got %d", len(defaultTopics), count)
	}

	// Seeded topics carry motivation scores.
	topics, err := s.ListTopics(100, 0)
	if err != nil {
		t.Fatalf("ListTopics failed: %v", err)
	}
	scored := 0
	for _, topic := range topics {
		if _, _, err := s.TopMotivation(topic.ID); err == nil {
			scored++
		}
	}
	if scored == 0 {
		t.Error("Expected seeded topics to have motivation scores")
	}
}

func TestSeedIdempotent(t *testing.T) {
	s := newTestStore(t)

	// A populated database is left alone.
	err := s.InsertTopic(&store.Topic{ID: "custom", Name: "Custom", Slug: "custom"})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := Seed(s); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	count, err := s.CountTopics()
	if err != nil {
		t.Fatalf("CountTopics failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Seed should not touch a populated database, got %d topics", count)
	}
}

func TestExtract(t *testing.T) {
	s := newTestStore(t)
	if err := Seed(s); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	e, err := NewExtractor(s, 5)
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}

	names, err := s.TopicNames()
	if err != nil {
		t.Fatalf("TopicNames failed: %v", err)
	}

	tags := e.Extract("Just bought more bitcoin, crypto is the future of my portfolio")
	if len(tags) < 2 {
		t.Fatalf("Expected at least 2 tags, got %+v", tags)
	}

	// Two mentions (bitcoin, crypto) beat one (portfolio), so
	// Cryptocurrency leads.
	if names[tags[0].TopicID] != "Cryptocurrency" {
		t.Errorf("Expected Cryptocurrency first, got %s", names[tags[0].TopicID])
	}
	if tags[0].Confidence != 0.4 {
		t.Errorf("Two mentions should score 0.4, got %v", tags[0].Confidence)
	}

	found := false
	for _, tag := range tags {
		if names[tag.TopicID] == "Stocks & Investing" {
			found = true
			if tag.Confidence != 0.2 {
				t.Errorf("One mention should score 0.2, got %v", tag.Confidence)
			}
		}
	}
	if !found {
		t.Errorf("Expected Stocks & Investing tag, got %+v", tags)
	}
}

func TestExtractWholeWords(t *testing.T) {
	s := newTestStore(t)
	if err := Seed(s); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	e, err := NewExtractor(s, 5)
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}

	// "maintain" contains "ai" but must not match it.
	tags := e.Extract("we maintain our garden every weekend")
	if len(tags) != 0 {
		t.Errorf("Substring matches must not tag, got %+v", tags)
	}

	tags = e.Extract("AI is changing everything")
	if len(tags) != 1 {
		t.Fatalf("Expected exactly one tag, got %+v", tags)
	}
}

func TestExtractConfidenceCap(t *testing.T) {
	s := newTestStore(t)
	if err := Seed(s); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	e, err := NewExtractor(s, 5)
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}

	// Six mentions would be 1.2; confidence saturates at 1.0.
	tags := e.Extract("bitcoin bitcoin bitcoin crypto crypto ethereum")
	if len(tags) != 1 {
		t.Fatalf("Expected 1 tag, got %+v", tags)
	}
	if tags[0].Confidence != 1.0 {
		t.Errorf("Expected capped confidence 1.0, got %v", tags[0].Confidence)
	}
}

func TestExtractLimit(t *testing.T) {
	s := newTestStore(t)
	if err := Seed(s); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	e, err := NewExtractor(s, 2)
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}

	// Text touching four topics gets cut to the two strongest tags.
	tags := e.Extract("bitcoin crypto blockchain fitness gym stock startup")
	if len(tags) != 2 {
		t.Fatalf("Expected limit of 2 tags, got %d: %+v", len(tags), tags)
	}
	if tags[0].Confidence < tags[1].Confidence {
		t.Errorf("Tags must be strongest first: %+v", tags)
	}
}

func TestExtractEmptyText(t *testing.T) {
	s := newTestStore(t)
	if err := Seed(s); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	e, err := NewExtractor(s, 5)
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}

	if tags := e.Extract(""); len(tags) != 0 {
		t.Errorf("Empty text should yield no tags, got %+v", tags)
	}
}

func TestScoreMotivations(t *testing.T) {
	s := newTestStore(t)

	topic := &store.Topic{
		ID:       "t-1",
		Name:     "Custom Finance",
		Slug:     "custom-finance",
		Keywords: []string{"invest", "dividend", "portfolio", "unrelated"},
	}
	if err := s.InsertTopic(topic); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := ScoreMotivations(s, topic); err != nil {
		t.Fatalf("ScoreMotivations failed: %v", err)
	}

	label, score, err := s.TopMotivation("t-1")
	if err != nil {
		t.Fatalf("TopMotivation failed: %v", err)
	}
	if label != MotivationWealth {
		t.Errorf("Expected wealth_accumulation, got %s", label)
	}
	// Three overlapping keywords at 0.25 each.
	if score != 0.75 {
		t.Errorf("Expected score 0.75, got %v", score)
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Cryptocurrency", "cryptocurrency"},
		{"Stocks & Investing", "stocks-investing"},
		{"Fitness & Health", "fitness-health"},
		{"  spaced  out  ", "spaced-out"},
		{"Web3.0", "web3-0"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
