package engine

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trendr-app/trendr/internal/store"
)

// candidate is a directed (from, to) pair accumulating contributing signals
// before scoring.
type candidate struct {
	From       string
	To         string
	Signals    []store.FlowSignal
	Motivation *string
}

// fuse groups signals into directed candidates. Pivot signals carry their
// own direction (old -> new). Undirected signals attach to every candidate
// already surfaced for their pair; a pair nothing directed has touched
// becomes a weak bidirectional candidate carried in both orientations.
func (e *Engine) fuse(pivots []pivotSignal, edges []edgeSignal, bridges map[[2]string]motivationSignal) []candidate {
	byDir := make(map[[2]string]*candidate)
	var order [][2]string

	get := func(from, to string) *candidate {
		key := [2]string{from, to}
		if c, ok := byDir[key]; ok {
			return c
		}
		c := &candidate{From: from, To: to}
		byDir[key] = c
		order = append(order, key)
		return c
	}

	for _, p := range pivots {
		c := get(p.FromTopic, p.ToTopic)
		c.Signals = append(c.Signals, store.FlowSignal{
			Type:   store.SignalCreatorPivot,
			Weight: p.Weight,
			Evidence: fmt.Sprintf("creator %s: recent %d on new topic vs historical %d on old",
				p.CreatorID, p.Recent, p.Baseline),
		})
	}

	// attach adds an undirected signal to the pair's existing candidates,
	// or opens both directions when the pair is new.
	attach := func(a, b string, sig store.FlowSignal, label *string) {
		targets := make([]*candidate, 0, 2)
		if c, ok := byDir[[2]string{a, b}]; ok {
			targets = append(targets, c)
		}
		if c, ok := byDir[[2]string{b, a}]; ok {
			targets = append(targets, c)
		}
		if len(targets) == 0 {
			targets = append(targets, get(a, b), get(b, a))
		}
		for _, c := range targets {
			c.Signals = append(c.Signals, sig)
			if label != nil {
				c.Motivation = label
			}
		}
	}

	for _, s := range edges {
		attach(s.TopicA, s.TopicB, store.FlowSignal{
			Type:   store.SignalCooccurrence,
			Weight: s.Weight,
			Evidence: fmt.Sprintf("co-occurrence %d recent vs %d baseline (+%.0f%%)",
				s.Recent, s.Baseline, s.ChangeRate*100),
		}, nil)
	}

	for pair, b := range bridges {
		label := b.Label
		attach(pair[0], pair[1], store.FlowSignal{
			Type:     store.SignalMotivationMatch,
			Weight:   b.Weight,
			Evidence: fmt.Sprintf("shared dominant motivation %q", b.Label),
		}, &label)
	}

	candidates := make([]candidate, 0, len(order))
	for _, key := range order {
		candidates = append(candidates, *byDir[key])
	}
	return candidates
}

// scoreAndAccept computes confidence and strength for each candidate and
// keeps those above the acceptance threshold. Confidence is the
// class-weighted sum of signal weights with an exclusive multi-class bonus,
// clamped to [0,1]; strength is the strongest single signal. Candidates
// referencing unknown topics are skipped without aborting the cycle, and
// sub-threshold candidates are discarded silently (filtering, not failure).
func (e *Engine) scoreAndAccept(candidates []candidate, knownTopics map[string]bool, now time.Time) []store.Flow {
	d := e.cfg.Detection

	classWeights := map[string]float64{
		store.SignalCreatorPivot:    d.PivotClassWeight,
		store.SignalCooccurrence:    d.EdgeClassWeight,
		store.SignalMotivationMatch: d.MotivationClassWeight,
	}

	var flows []store.Flow
	for _, c := range candidates {
		if !knownTopics[c.From] || !knownTopics[c.To] {
			log.Printf("[engine] Skipping candidate %s -> %s: unknown topic reference", c.From, c.To)
			continue
		}

		var confidence, strength float64
		classes := make(map[string]bool, 3)
		for _, sig := range c.Signals {
			confidence += sig.Weight * classWeights[sig.Type]
			classes[sig.Type] = true
			if sig.Weight > strength {
				strength = sig.Weight
			}
		}

		switch len(classes) {
		case 2:
			confidence *= d.TwoClassBonus
		case 3:
			confidence *= d.ThreeClassBonus
		}
		if confidence > 1 {
			confidence = 1
		}

		if confidence <= d.MinConfidence {
			continue
		}

		flows = append(flows, store.Flow{
			ID:          uuid.NewString(),
			FromTopicID: c.From,
			ToTopicID:   c.To,
			Strength:    strength,
			Confidence:  confidence,
			Motivation:  c.Motivation,
			Signals:     c.Signals,
			DetectedAt:  now,
			ValidUntil:  now.AddDate(0, 0, d.FlowValidityDays),
		})
	}

	// Deterministic ordering; ties break on the pair ids.
	sort.Slice(flows, func(i, j int) bool {
		a, b := flows[i], flows[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Strength != b.Strength {
			return a.Strength > b.Strength
		}
		if a.FromTopicID != b.FromTopicID {
			return a.FromTopicID < b.FromTopicID
		}
		return a.ToTopicID < b.ToTopicID
	})

	return flows
}
