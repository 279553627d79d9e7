package engine

import (
	"testing"

	"github.com/trendr-app/trendr/internal/store"
)

func scoreMotivation(t *testing.T, s *store.Store, topicID, label string, score float64) {
	t.Helper()
	if err := s.UpsertTopicMotivation(topicID, label, score); err != nil {
		t.Fatalf("Failed to score motivation: %v", err)
	}
}

func TestFindMotivationBridges(t *testing.T) {
	e, s := newTestEngine(t)
	seedTopic(t, s, "t-a", "alpha")
	seedTopic(t, s, "t-b", "beta")

	scoreMotivation(t, s, "t-a", "mastery", 0.6)
	scoreMotivation(t, s, "t-b", "mastery", 0.4)

	pivots := []pivotSignal{{CreatorID: "cr1", FromTopic: "t-a", ToTopic: "t-b", Weight: 0.5}}

	bridges, err := e.findMotivationBridges(pivots, nil)
	if err != nil {
		t.Fatalf("Bridge detection failed: %v", err)
	}

	sig, ok := bridges[[2]string{"t-a", "t-b"}]
	if !ok {
		t.Fatalf("Expected bridge for (t-a, t-b), got %+v", bridges)
	}
	if sig.Label != "mastery" {
		t.Errorf("Expected mastery label, got %s", sig.Label)
	}
	if sig.Weight != 0.5 {
		t.Errorf("Expected mean weight 0.5, got %v", sig.Weight)
	}
}

func TestFindMotivationBridgesLabelMismatch(t *testing.T) {
	e, s := newTestEngine(t)
	seedTopic(t, s, "t-a", "alpha")
	seedTopic(t, s, "t-b", "beta")

	scoreMotivation(t, s, "t-a", "mastery", 0.8)
	scoreMotivation(t, s, "t-b", "escapism", 0.8)

	edges := []edgeSignal{{TopicA: "t-a", TopicB: "t-b", Weight: 0.7}}

	bridges, err := e.findMotivationBridges(nil, edges)
	if err != nil {
		t.Fatalf("Bridge detection failed: %v", err)
	}
	if len(bridges) != 0 {
		t.Errorf("Different dominant labels must not bridge, got %+v", bridges)
	}
}

func TestFindMotivationBridgesFloor(t *testing.T) {
	e, s := newTestEngine(t)
	seedTopic(t, s, "t-a", "alpha")
	seedTopic(t, s, "t-b", "beta")

	// One side exactly at the floor: strictly-above is required.
	scoreMotivation(t, s, "t-a", "mastery", 0.9)
	scoreMotivation(t, s, "t-b", "mastery", 0.3)

	edges := []edgeSignal{{TopicA: "t-a", TopicB: "t-b", Weight: 0.7}}

	bridges, err := e.findMotivationBridges(nil, edges)
	if err != nil {
		t.Fatalf("Bridge detection failed: %v", err)
	}
	if len(bridges) != 0 {
		t.Errorf("Floor score must not bridge, got %+v", bridges)
	}
}

func TestFindMotivationBridgesUnscoredTopic(t *testing.T) {
	e, s := newTestEngine(t)
	seedTopic(t, s, "t-a", "alpha")
	seedTopic(t, s, "t-b", "beta")

	// t-b has no motivation data at all; absence of data is absence of
	// signal, not an error.
	scoreMotivation(t, s, "t-a", "mastery", 0.9)

	edges := []edgeSignal{{TopicA: "t-a", TopicB: "t-b", Weight: 0.7}}

	bridges, err := e.findMotivationBridges(nil, edges)
	if err != nil {
		t.Fatalf("Bridge detection failed: %v", err)
	}
	if len(bridges) != 0 {
		t.Errorf("Unscored topic must not bridge, got %+v", bridges)
	}
}

func TestFindMotivationBridgesCandidatePairsOnly(t *testing.T) {
	e, s := newTestEngine(t)
	seedTopic(t, s, "t-a", "alpha")
	seedTopic(t, s, "t-b", "beta")
	seedTopic(t, s, "t-c", "gamma")

	// All three topics share a motivation, but only the (a,b) pair was
	// surfaced by another detector.
	for _, id := range []string{"t-a", "t-b", "t-c"} {
		scoreMotivation(t, s, id, "mastery", 0.7)
	}

	edges := []edgeSignal{{TopicA: "t-a", TopicB: "t-b", Weight: 0.7}}

	bridges, err := e.findMotivationBridges(nil, edges)
	if err != nil {
		t.Fatalf("Bridge detection failed: %v", err)
	}
	if len(bridges) != 1 {
		t.Fatalf("Expected only the surfaced pair, got %+v", bridges)
	}
	if _, ok := bridges[[2]string{"t-a", "t-b"}]; !ok {
		t.Errorf("Expected bridge for (t-a, t-b), got %+v", bridges)
	}
}

func TestFindMotivationBridgesCanonicalKey(t *testing.T) {
	e, s := newTestEngine(t)
	seedTopic(t, s, "t-a", "alpha")
	seedTopic(t, s, "t-b", "beta")

	scoreMotivation(t, s, "t-a", "mastery", 0.6)
	scoreMotivation(t, s, "t-b", "mastery", 0.6)

	// A pivot in the b -> a direction still keys the bridge canonically.
	pivots := []pivotSignal{{CreatorID: "cr1", FromTopic: "t-b", ToTopic: "t-a", Weight: 0.5}}

	bridges, err := e.findMotivationBridges(pivots, nil)
	if err != nil {
		t.Fatalf("Bridge detection failed: %v", err)
	}
	if _, ok := bridges[[2]string{"t-a", "t-b"}]; !ok {
		t.Errorf("Expected canonical key (t-a, t-b), got %+v", bridges)
	}
}
