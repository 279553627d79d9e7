package report

import (
	"strings"
	"testing"
	"time"

	"github.com/trendr-app/trendr/internal/store"
)

func sampleFlow(id, from, to string, confidence float64) store.Flow {
	now := time.Now()
	return store.Flow{
		ID:          id,
		FromTopicID: from,
		ToTopicID:   to,
		Confidence:  confidence,
		Strength:    confidence,
		Signals: []store.FlowSignal{
			{Type: store.SignalCooccurrence, Weight: 0.6, Evidence: "co-occurrence 42 recent vs 20 baseline"},
		},
		DetectedAt: now,
		ValidUntil: now.AddDate(0, 0, 30),
	}
}

func TestBuildDigest(t *testing.T) {
	b, err := New(20)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	motivation := "mastery"
	flow := sampleFlow("f1", "t-a", "t-b", 0.72)
	flow.Motivation = &motivation

	names := map[string]string{"t-a": "Crypto & Web3", "t-b": "Luxury Watches"}

	d, err := b.Build([]store.Flow{flow}, names)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if !strings.Contains(d.Subject, "1 detected") {
		t.Errorf("Subject should count flows: %s", d.Subject)
	}
	for _, want := range []string{"Crypto &amp; Web3", "Luxury Watches", "72%", "mastery"} {
		if !strings.Contains(d.HTMLBody, want) {
			t.Errorf("HTML body missing %q", want)
		}
	}
	for _, want := range []string{"Crypto & Web3 -> Luxury Watches", "confidence 72%", "mastery"} {
		if !strings.Contains(d.PlainBody, want) {
			t.Errorf("Plain body missing %q", want)
		}
	}
	if len(d.FlowIDs) != 1 || d.FlowIDs[0] != "f1" {
		t.Errorf("Expected flow ids [f1], got %+v", d.FlowIDs)
	}
}

func TestBuildDigestUnknownTopicFallsBackToID(t *testing.T) {
	b, err := New(20)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	d, err := b.Build([]store.Flow{sampleFlow("f1", "t-x", "t-y", 0.5)}, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !strings.Contains(d.PlainBody, "t-x") || !strings.Contains(d.PlainBody, "t-y") {
		t.Errorf("Expected raw ids in body: %s", d.PlainBody)
	}
}

func TestBuildDigestMaxFlows(t *testing.T) {
	b, err := New(2)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	flows := []store.Flow{
		sampleFlow("f1", "t-a", "t-b", 0.9),
		sampleFlow("f2", "t-b", "t-c", 0.8),
		sampleFlow("f3", "t-c", "t-a", 0.7),
	}

	d, err := b.Build(flows, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(d.FlowIDs) != 2 {
		t.Errorf("Expected digest capped at 2 flows, got %d", len(d.FlowIDs))
	}
	if strings.Contains(d.PlainBody, "f3") || strings.Contains(d.PlainBody, "t-c -> t-a") {
		t.Errorf("Weakest flow should be cut: %s", d.PlainBody)
	}
}

func TestBuildDigestEmpty(t *testing.T) {
	b, err := New(20)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := b.Build(nil, nil); err == nil {
		t.Error("Expected error for empty flow set")
	}
}
