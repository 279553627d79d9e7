package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/trendr-app/trendr/internal/store"
)

func makeFlow(id, from, to string, confidence float64, signals ...store.FlowSignal) store.Flow {
	return store.Flow{
		ID:          id,
		FromTopicID: from,
		ToTopicID:   to,
		Confidence:  confidence,
		Strength:    confidence,
		Signals:     signals,
		DetectedAt:  cycleTime,
		ValidUntil:  cycleTime.AddDate(0, 0, 30),
	}
}

func TestDeriveAlertsHighConfidence(t *testing.T) {
	e, s := newTestEngine(t)
	seedTopic(t, s, "t-a", "alpha")
	seedTopic(t, s, "t-b", "beta")

	flows := []store.Flow{makeFlow("f1", "t-a", "t-b", 0.7)}

	alerts, err := e.deriveAlerts(flows, cycleTime)
	if err != nil {
		t.Fatalf("deriveAlerts failed: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("Expected 1 alert, got %d", len(alerts))
	}
	a := alerts[0]
	if a.AlertType != store.AlertAttentionFlow {
		t.Errorf("Expected attention_flow, got %s", a.AlertType)
	}
	if a.TopicID == nil || *a.TopicID != "t-b" {
		t.Errorf("Alert should key on the destination topic, got %+v", a.TopicID)
	}
	if a.FlowID == nil || *a.FlowID != "f1" {
		t.Errorf("Alert should reference the flow, got %+v", a.FlowID)
	}
	// Message uses display names, not ids.
	if !strings.Contains(a.Message, "alpha") || !strings.Contains(a.Message, "beta") {
		t.Errorf("Message should name both topics: %s", a.Message)
	}
}

func TestDeriveAlertsSharpPivot(t *testing.T) {
	e, s := newTestEngine(t)
	seedTopic(t, s, "t-a", "alpha")
	seedTopic(t, s, "t-b", "beta")

	// Below the confidence bar, but the driving pivot is sharp enough.
	flows := []store.Flow{makeFlow("f1", "t-a", "t-b", 0.5,
		store.FlowSignal{Type: store.SignalCreatorPivot, Weight: 0.85},
	)}

	alerts, err := e.deriveAlerts(flows, cycleTime)
	if err != nil {
		t.Fatalf("deriveAlerts failed: %v", err)
	}
	if len(alerts) != 1 || alerts[0].AlertType != store.AlertSharpPivot {
		t.Fatalf("Expected sharp_pivot alert, got %+v", alerts)
	}
}

func TestDeriveAlertsQuietFlow(t *testing.T) {
	e, s := newTestEngine(t)
	seedTopic(t, s, "t-a", "alpha")
	seedTopic(t, s, "t-b", "beta")

	// Neither threshold reached: no alert, but the flow itself is fine.
	flows := []store.Flow{makeFlow("f1", "t-a", "t-b", 0.5,
		store.FlowSignal{Type: store.SignalCreatorPivot, Weight: 0.5},
		store.FlowSignal{Type: store.SignalCooccurrence, Weight: 0.9},
	)}

	alerts, err := e.deriveAlerts(flows, cycleTime)
	if err != nil {
		t.Fatalf("deriveAlerts failed: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("Expected no alerts, got %+v", alerts)
	}
}

func TestDeriveAlertsThresholdBoundaries(t *testing.T) {
	e, s := newTestEngine(t)
	seedTopic(t, s, "t-a", "alpha")
	seedTopic(t, s, "t-b", "beta")

	// Confidence exactly at the threshold does not alert (strictly above),
	// pivot weight exactly at its threshold does (at or above).
	cases := []struct {
		name string
		flow store.Flow
		want int
	}{
		{"confidence at bar", makeFlow("f1", "t-a", "t-b", 0.6), 0},
		{"pivot at bar", makeFlow("f2", "t-a", "t-b", 0.5,
			store.FlowSignal{Type: store.SignalCreatorPivot, Weight: 0.8}), 1},
	}
	for _, tc := range cases {
		alerts, err := e.deriveAlerts([]store.Flow{tc.flow}, cycleTime)
		if err != nil {
			t.Fatalf("%s: deriveAlerts failed: %v", tc.name, err)
		}
		if len(alerts) != tc.want {
			t.Errorf("%s: expected %d alerts, got %d", tc.name, tc.want, len(alerts))
		}
	}
}

func TestDeriveAlertsInBatchDedup(t *testing.T) {
	e, s := newTestEngine(t)
	seedTopic(t, s, "t-a", "alpha")
	seedTopic(t, s, "t-b", "beta")
	seedTopic(t, s, "t-c", "gamma")

	// Two flows into the same topic produce one alert; a different
	// destination still alerts.
	flows := []store.Flow{
		makeFlow("f1", "t-a", "t-b", 0.9),
		makeFlow("f2", "t-c", "t-b", 0.8),
		makeFlow("f3", "t-a", "t-c", 0.7),
	}

	alerts, err := e.deriveAlerts(flows, cycleTime)
	if err != nil {
		t.Fatalf("deriveAlerts failed: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("Expected 2 alerts, got %d: %+v", len(alerts), alerts)
	}
	if *alerts[0].TopicID != "t-b" || *alerts[1].TopicID != "t-c" {
		t.Errorf("Unexpected alert topics: %+v", alerts)
	}
	// The first (highest-confidence) flow won the dedup slot.
	if *alerts[0].FlowID != "f1" {
		t.Errorf("Expected f1 to carry the t-b alert, got %s", *alerts[0].FlowID)
	}
}

func TestDeriveAlertsCrossCycleDedup(t *testing.T) {
	e, s := newTestEngine(t)
	seedTopic(t, s, "t-a", "alpha")
	seedTopic(t, s, "t-b", "beta")

	topicID := "t-b"
	prior := []store.Alert{{
		ID:        "a-prior",
		AlertType: store.AlertAttentionFlow,
		TopicID:   &topicID,
		Message:   "earlier alert",
		CreatedAt: cycleTime.Add(-6 * time.Hour),
	}}
	if err := s.SaveCycleResults(nil, prior); err != nil {
		t.Fatalf("Failed to seed prior alert: %v", err)
	}

	flows := []store.Flow{makeFlow("f1", "t-a", "t-b", 0.9)}

	alerts, err := e.deriveAlerts(flows, cycleTime)
	if err != nil {
		t.Fatalf("deriveAlerts failed: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("Expected dedup against prior alert, got %+v", alerts)
	}

	// A different alert type for the same topic is not suppressed.
	sharp := []store.Flow{makeFlow("f2", "t-a", "t-b", 0.5,
		store.FlowSignal{Type: store.SignalCreatorPivot, Weight: 0.95},
	)}
	alerts, err = e.deriveAlerts(sharp, cycleTime)
	if err != nil {
		t.Fatalf("deriveAlerts failed: %v", err)
	}
	if len(alerts) != 1 || alerts[0].AlertType != store.AlertSharpPivot {
		t.Errorf("Expected sharp_pivot to pass dedup, got %+v", alerts)
	}
}

func TestSharpestPivot(t *testing.T) {
	signals := []store.FlowSignal{
		{Type: store.SignalCooccurrence, Weight: 0.95},
		{Type: store.SignalCreatorPivot, Weight: 0.4},
		{Type: store.SignalCreatorPivot, Weight: 0.7},
	}
	if got := sharpestPivot(signals); got != 0.7 {
		t.Errorf("Expected 0.7, got %v", got)
	}
	if got := sharpestPivot(nil); got != 0 {
		t.Errorf("Expected 0 for no signals, got %v", got)
	}
}
