package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/trendr-app/trendr/internal/store"
)

// pivotSignal marks a creator shifting output from one topic to another
// between the historical and recent windows.
type pivotSignal struct {
	CreatorID string
	FromTopic string
	ToTopic   string
	Weight    float64
	Recent    int64
	Baseline  int64
}

// detectCreatorPivots compares each creator's per-topic content counts
// across two disjoint windows. A pivot fires for (creator, old -> new) when
// the creator had historical output on old and their recent output on new
// beats pivotRatio times both the historical count on old and the historical
// count on new itself (the latter may be zero, so a brand new topic still
// pivots as long as there is something to pivot from). Creators with no
// historical activity at all emit nothing.
func (e *Engine) detectCreatorPivots(now time.Time) ([]pivotSignal, error) {
	d := e.cfg.Detection

	recentFrom := now.AddDate(0, 0, -d.PivotRecentDays)
	historicalFrom := now.AddDate(0, 0, -d.PivotHistoricalDays)

	recentCounts, err := e.store.CreatorTopicCounts(recentFrom, now.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("recent window: %w", err)
	}
	historicalCounts, err := e.store.CreatorTopicCounts(historicalFrom, recentFrom)
	if err != nil {
		return nil, fmt.Errorf("historical window: %w", err)
	}

	recent := groupByCreator(recentCounts)
	historical := groupByCreator(historicalCounts)

	var signals []pivotSignal
	for creatorID, recentTopics := range recent {
		historicalTopics, ok := historical[creatorID]
		if !ok {
			// Nothing to pivot from.
			continue
		}

		for newTopic, recentCount := range recentTopics {
			if float64(recentCount) <= d.PivotRatio*float64(historicalTopics[newTopic]) {
				continue
			}

			for oldTopic, oldCount := range historicalTopics {
				if oldTopic == newTopic || oldCount == 0 {
					continue
				}
				// The shift must also be significant relative to the topic
				// being pivoted away from.
				if float64(recentCount) <= d.PivotRatio*float64(oldCount) {
					continue
				}

				ratio := float64(recentCount) / float64(max64(oldCount, 1))
				if ratio > d.PivotWeightCap {
					ratio = d.PivotWeightCap
				}

				signals = append(signals, pivotSignal{
					CreatorID: creatorID,
					FromTopic: oldTopic,
					ToTopic:   newTopic,
					Weight:    ratio / d.PivotWeightCap,
					Recent:    recentCount,
					Baseline:  oldCount,
				})
			}
		}
	}

	sort.Slice(signals, func(i, j int) bool {
		a, b := signals[i], signals[j]
		if a.FromTopic != b.FromTopic {
			return a.FromTopic < b.FromTopic
		}
		if a.ToTopic != b.ToTopic {
			return a.ToTopic < b.ToTopic
		}
		return a.CreatorID < b.CreatorID
	})

	return signals, nil
}

func groupByCreator(counts []store.CreatorTopicCount) map[string]map[string]int64 {
	grouped := make(map[string]map[string]int64)
	for _, c := range counts {
		topics, ok := grouped[c.CreatorID]
		if !ok {
			topics = make(map[string]int64)
			grouped[c.CreatorID] = topics
		}
		topics[c.TopicID] += c.Count
	}
	return grouped
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
