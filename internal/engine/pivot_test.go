package engine

import (
	"testing"
)

func TestDetectCreatorPivots(t *testing.T) {
	e, s := newTestEngine(t)
	seedTopic(t, s, "t-a", "alpha")
	seedTopic(t, s, "t-b", "beta")

	// cr1 historically posted about alpha (10); in the recent window beta
	// appeared at 20 (> 1.5 * 10).
	bumpHistory(t, s, "cr1", "t-a", 10, cycleTime.AddDate(0, 0, -60))
	bumpHistory(t, s, "cr1", "t-b", 20, cycleTime.AddDate(0, 0, -10))

	signals, err := e.detectCreatorPivots(cycleTime)
	if err != nil {
		t.Fatalf("Pivot detection failed: %v", err)
	}

	if len(signals) != 1 {
		t.Fatalf("Expected 1 pivot signal, got %d: %+v", len(signals), signals)
	}
	p := signals[0]
	if p.CreatorID != "cr1" || p.FromTopic != "t-a" || p.ToTopic != "t-b" {
		t.Errorf("Expected cr1 pivot t-a -> t-b, got %+v", p)
	}

	// weight = min(20/10, 3.0) / 3.0
	want := (20.0 / 10.0) / 3.0
	if diff := p.Weight - want; diff < -0.001 || diff > 0.001 {
		t.Errorf("Expected weight %v, got %v", want, p.Weight)
	}
	if p.Recent != 20 || p.Baseline != 10 {
		t.Errorf("Expected recent 20 baseline 10, got %+v", p)
	}
}

func TestDetectCreatorPivotsBelowRatio(t *testing.T) {
	e, s := newTestEngine(t)
	seedTopic(t, s, "t-a", "alpha")
	seedTopic(t, s, "t-b", "beta")

	// 14 recent on the new topic against 10 historical on the old one: not
	// beyond 1.5x (14 <= 15), so the shift is not significant.
	bumpHistory(t, s, "cr1", "t-a", 10, cycleTime.AddDate(0, 0, -60))
	bumpHistory(t, s, "cr1", "t-b", 14, cycleTime.AddDate(0, 0, -10))

	signals, err := e.detectCreatorPivots(cycleTime)
	if err != nil {
		t.Fatalf("Pivot detection failed: %v", err)
	}
	if len(signals) != 0 {
		t.Errorf("Expected no signals at the ratio boundary, got %+v", signals)
	}
}

func TestDetectCreatorPivotsSustainedTopic(t *testing.T) {
	e, s := newTestEngine(t)
	seedTopic(t, s, "t-a", "alpha")
	seedTopic(t, s, "t-b", "beta")

	// Recent beta (5) clears 1.5x the old topic's count (2) but not 1.5x
	// beta's own history (10): the creator never left beta, so no pivot.
	bumpHistory(t, s, "cr1", "t-a", 2, cycleTime.AddDate(0, 0, -60))
	bumpHistory(t, s, "cr1", "t-b", 10, cycleTime.AddDate(0, 0, -60))
	bumpHistory(t, s, "cr1", "t-b", 5, cycleTime.AddDate(0, 0, -10))

	signals, err := e.detectCreatorPivots(cycleTime)
	if err != nil {
		t.Fatalf("Pivot detection failed: %v", err)
	}
	if len(signals) != 0 {
		t.Errorf("Sustained topic should not pivot, got %+v", signals)
	}
}

func TestDetectCreatorPivotsNewCreator(t *testing.T) {
	e, s := newTestEngine(t)
	seedTopic(t, s, "t-a", "alpha")
	seedTopic(t, s, "t-b", "beta")

	// A creator with recent activity but no history has nothing to pivot
	// from.
	bumpHistory(t, s, "cr-new", "t-b", 20, cycleTime.AddDate(0, 0, -5))

	signals, err := e.detectCreatorPivots(cycleTime)
	if err != nil {
		t.Fatalf("Pivot detection failed: %v", err)
	}
	if len(signals) != 0 {
		t.Errorf("New creator should emit nothing, got %+v", signals)
	}
}

func TestDetectCreatorPivotsNewTopic(t *testing.T) {
	e, s := newTestEngine(t)
	seedTopic(t, s, "t-a", "alpha")
	seedTopic(t, s, "t-b", "beta")

	// A zero historical count on the new topic still pivots once the recent
	// count clears 1.5x the old topic's history (13 > 12).
	bumpHistory(t, s, "cr1", "t-a", 8, cycleTime.AddDate(0, 0, -45))
	bumpHistory(t, s, "cr1", "t-b", 13, cycleTime.AddDate(0, 0, -3))

	signals, err := e.detectCreatorPivots(cycleTime)
	if err != nil {
		t.Fatalf("Pivot detection failed: %v", err)
	}
	if len(signals) != 1 {
		t.Fatalf("Expected 1 signal, got %d", len(signals))
	}

	// weight = min(13/8, 3.0) / 3.0
	want := (13.0 / 8.0) / 3.0
	if diff := signals[0].Weight - want; diff < -0.001 || diff > 0.001 {
		t.Errorf("Expected weight %v, got %v", want, signals[0].Weight)
	}
}

func TestDetectCreatorPivotsWeightCap(t *testing.T) {
	e, s := newTestEngine(t)
	seedTopic(t, s, "t-a", "alpha")
	seedTopic(t, s, "t-b", "beta")

	// 40 recent over 10 historical on the old topic would be ratio 4; the
	// cap normalizes it to weight 1.0.
	bumpHistory(t, s, "cr1", "t-a", 10, cycleTime.AddDate(0, 0, -60))
	bumpHistory(t, s, "cr1", "t-b", 40, cycleTime.AddDate(0, 0, -10))

	signals, err := e.detectCreatorPivots(cycleTime)
	if err != nil {
		t.Fatalf("Pivot detection failed: %v", err)
	}
	if len(signals) != 1 {
		t.Fatalf("Expected 1 signal, got %d", len(signals))
	}
	if signals[0].Weight != 1.0 {
		t.Errorf("Expected capped weight 1.0, got %v", signals[0].Weight)
	}
}

func TestDetectCreatorPivotsFanOut(t *testing.T) {
	e, s := newTestEngine(t)
	for _, id := range []string{"t-a", "t-b", "t-c"} {
		seedTopic(t, s, id, id)
	}

	// Two historical topics both yield a pivot signal toward the new one
	// (10 clears 1.5x both 6 and 3).
	bumpHistory(t, s, "cr1", "t-a", 6, cycleTime.AddDate(0, 0, -60))
	bumpHistory(t, s, "cr1", "t-b", 3, cycleTime.AddDate(0, 0, -60))
	bumpHistory(t, s, "cr1", "t-c", 10, cycleTime.AddDate(0, 0, -10))

	signals, err := e.detectCreatorPivots(cycleTime)
	if err != nil {
		t.Fatalf("Pivot detection failed: %v", err)
	}
	if len(signals) != 2 {
		t.Fatalf("Expected 2 signals (one per old topic), got %d: %+v", len(signals), signals)
	}

	// Deterministic order: sorted by from-topic.
	if signals[0].FromTopic != "t-a" || signals[1].FromTopic != "t-b" {
		t.Errorf("Expected t-a then t-b, got %+v", signals)
	}
	if signals[0].ToTopic != "t-c" || signals[1].ToTopic != "t-c" {
		t.Errorf("Both signals should point to t-c: %+v", signals)
	}
}
