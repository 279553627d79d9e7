package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trendr-app/trendr/internal/store"
)

// deriveAlerts creates at most one alert per accepted flow: high-confidence
// flows alert as attention flows, and flows driven by a very sharp creator
// pivot alert even below that bar. Alerts are deduplicated per (topic,
// alert type) against the rolling window, both across cycles and within
// this batch, so an evolving situation alerts once a day.
func (e *Engine) deriveAlerts(flows []store.Flow, now time.Time) ([]store.Alert, error) {
	a := e.cfg.Alerts
	since := now.Add(-time.Duration(a.DedupWindowHours) * time.Hour)

	names, err := e.store.TopicNames()
	if err != nil {
		return nil, fmt.Errorf("load topic names: %w", err)
	}
	name := func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return id
	}

	inBatch := make(map[[2]string]bool)
	var alerts []store.Alert

	for i := range flows {
		f := &flows[i]

		alertType := ""
		switch {
		case f.Confidence > a.ConfidenceThreshold:
			alertType = store.AlertAttentionFlow
		case sharpestPivot(f.Signals) >= a.SharpPivotWeight:
			alertType = store.AlertSharpPivot
		default:
			continue
		}

		dedupKey := [2]string{f.ToTopicID, alertType}
		if inBatch[dedupKey] {
			continue
		}
		exists, err := e.store.RecentAlertExists(f.ToTopicID, alertType, since)
		if err != nil {
			return nil, fmt.Errorf("check alert dedup: %w", err)
		}
		if exists {
			continue
		}
		inBatch[dedupKey] = true

		var message string
		switch alertType {
		case store.AlertAttentionFlow:
			message = fmt.Sprintf("Attention flowing from %s to %s (confidence %.0f%%)",
				name(f.FromTopicID), name(f.ToTopicID), f.Confidence*100)
		case store.AlertSharpPivot:
			message = fmt.Sprintf("Creators are pivoting sharply from %s to %s",
				name(f.FromTopicID), name(f.ToTopicID))
		}

		topicID := f.ToTopicID
		flowID := f.ID
		alerts = append(alerts, store.Alert{
			ID:        uuid.NewString(),
			AlertType: alertType,
			TopicID:   &topicID,
			FlowID:    &flowID,
			Message:   message,
			CreatedAt: now,
		})
	}

	return alerts, nil
}

// sharpestPivot returns the strongest creator-pivot weight among a flow's
// contributing signals, or zero when none contributed.
func sharpestPivot(signals []store.FlowSignal) float64 {
	var sharpest float64
	for _, s := range signals {
		if s.Type == store.SignalCreatorPivot && s.Weight > sharpest {
			sharpest = s.Weight
		}
	}
	return sharpest
}
