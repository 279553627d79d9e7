package engine

import (
	"errors"
	"fmt"

	"github.com/trendr-app/trendr/internal/store"
)

// motivationSignal marks a topic pair sharing the same dominant motivation
// label with both scores above the floor. Undirected, keyed canonically.
type motivationSignal struct {
	Label  string
	Weight float64
}

// findMotivationBridges checks shared motivations only for pairs already
// implicated by a pivot or edge signal, which bounds the search to surfaced
// candidates instead of the full topic cross-product.
func (e *Engine) findMotivationBridges(pivots []pivotSignal, edges []edgeSignal) (map[[2]string]motivationSignal, error) {
	floor := e.cfg.Detection.MotivationFloor

	pairs := make(map[[2]string]bool)
	for _, p := range pivots {
		pairs[canonical(p.FromTopic, p.ToTopic)] = true
	}
	for _, s := range edges {
		pairs[[2]string{s.TopicA, s.TopicB}] = true
	}

	// Each topic's top motivation is looked up once per cycle.
	type topScore struct {
		label string
		score float64
		ok    bool
	}
	cache := make(map[string]topScore)
	top := func(topicID string) (topScore, error) {
		if ts, ok := cache[topicID]; ok {
			return ts, nil
		}
		label, score, err := e.store.TopMotivation(topicID)
		if errors.Is(err, store.ErrNotFound) {
			// No motivation data is absence of signal, not an error.
			ts := topScore{}
			cache[topicID] = ts
			return ts, nil
		}
		if err != nil {
			return topScore{}, err
		}
		ts := topScore{label: label, score: score, ok: true}
		cache[topicID] = ts
		return ts, nil
	}

	bridges := make(map[[2]string]motivationSignal)
	for pair := range pairs {
		a, err := top(pair[0])
		if err != nil {
			return nil, fmt.Errorf("top motivation for %s: %w", pair[0], err)
		}
		b, err := top(pair[1])
		if err != nil {
			return nil, fmt.Errorf("top motivation for %s: %w", pair[1], err)
		}

		if !a.ok || !b.ok || a.label != b.label {
			continue
		}
		if a.score <= floor || b.score <= floor {
			continue
		}

		bridges[pair] = motivationSignal{
			Label:  a.label,
			Weight: (a.score + b.score) / 2,
		}
	}

	return bridges, nil
}

func canonical(x, y string) [2]string {
	if x < y {
		return [2]string{x, y}
	}
	return [2]string{y, x}
}
