package engine

import (
	"fmt"
	"sort"
	"time"
)

// edgeSignal marks a topic pair whose co-occurrence rate in the recent
// window outgrew the baseline window. Pairs are canonical (TopicA < TopicB)
// and the signal itself is undirected.
type edgeSignal struct {
	TopicA     string
	TopicB     string
	Weight     float64
	ChangeRate float64
	Recent     int64
	Baseline   int64
}

// detectEdgeStrengthening compares windowed joint-tag sums per pair. A pair
// emits when its change rate exceeds the configured threshold; any recent
// activity over a zero baseline counts as emergence. Pairs with no recent
// activity never emit; decline is not flow emergence.
func (e *Engine) detectEdgeStrengthening(now time.Time) ([]edgeSignal, error) {
	d := e.cfg.Detection

	recentFrom := now.AddDate(0, 0, -d.EdgeRecentDays)
	baselineFrom := now.AddDate(0, 0, -d.EdgeBaselineDays)

	recentPairs, err := e.store.PairCountsBetween(recentFrom, now.Add(time.Hour))
	if err != nil {
		return nil, fmt.Errorf("recent window: %w", err)
	}
	baselinePairs, err := e.store.PairCountsBetween(baselineFrom, recentFrom)
	if err != nil {
		return nil, fmt.Errorf("baseline window: %w", err)
	}

	baseline := make(map[[2]string]int64, len(baselinePairs))
	for _, p := range baselinePairs {
		baseline[[2]string{p.TopicA, p.TopicB}] = p.Count
	}

	var signals []edgeSignal
	for _, p := range recentPairs {
		base := baseline[[2]string{p.TopicA, p.TopicB}]

		change := float64(p.Count-base) / float64(max64(base, 1))
		if change <= d.EdgeChangeThreshold {
			continue
		}

		weight := change
		if weight > d.EdgeWeightCap {
			weight = d.EdgeWeightCap
		}

		signals = append(signals, edgeSignal{
			TopicA:     p.TopicA,
			TopicB:     p.TopicB,
			Weight:     weight / d.EdgeWeightCap,
			ChangeRate: change,
			Recent:     p.Count,
			Baseline:   base,
		})
	}

	sort.Slice(signals, func(i, j int) bool {
		if signals[i].TopicA != signals[j].TopicA {
			return signals[i].TopicA < signals[j].TopicA
		}
		return signals[i].TopicB < signals[j].TopicB
	})

	return signals, nil
}
