// Package engine implements the flow inference engine: it reads the
// accumulated co-occurrence graph, creator topic history and motivation
// scores, detects three independent weak signals (creator pivots,
// strengthening edges, motivation bridges), fuses them into
// confidence-scored attention flows, and derives alerts.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/trendr-app/trendr/internal/config"
	"github.com/trendr-app/trendr/internal/store"
)

// ErrCycleInProgress is returned when a detection cycle is triggered while
// another is still running. Overlapping triggers are dropped, not queued.
var ErrCycleInProgress = errors.New("detection cycle already in progress")

// Engine owns the detection pipeline and its run state.
type Engine struct {
	store *store.Store
	cfg   *config.Config
	run   runState
}

// runState tracks whether a cycle is in flight plus the last outcome. It is
// owned by the engine instance (not a package global) so independent
// engines can run side by side in tests.
type runState struct {
	mu        sync.Mutex
	running   bool
	lastRunAt time.Time
	lastErr   string
}

func (r *runState) begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return false
	}
	r.running = true
	return true
}

func (r *runState) end(at time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	r.lastRunAt = at
	if err != nil {
		r.lastErr = err.Error()
	} else {
		r.lastErr = ""
	}
}

// RunStatus is a snapshot of the engine's run state.
type RunStatus struct {
	Running   bool      `json:"running"`
	LastRunAt time.Time `json:"last_run_at"`
	LastError string    `json:"last_error,omitempty"`
}

// New creates an engine over the given store and configuration.
func New(s *store.Store, cfg *config.Config) *Engine {
	return &Engine{store: s, cfg: cfg}
}

// Status reports whether a cycle is running and how the last one went.
func (e *Engine) Status() RunStatus {
	e.run.mu.Lock()
	defer e.run.mu.Unlock()
	return RunStatus{
		Running:   e.run.running,
		LastRunAt: e.run.lastRunAt,
		LastError: e.run.lastErr,
	}
}

// CycleResult is the outcome of one detection cycle.
type CycleResult struct {
	Flows     []store.Flow  `json:"flows"`
	Alerts    []store.Alert `json:"alerts"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// RunDetectionCycle runs one full detection pass over the accumulated data
// and returns the newly accepted flows. Safe to call repeatedly; a call
// that overlaps a running cycle returns ErrCycleInProgress.
func (e *Engine) RunDetectionCycle(ctx context.Context) (*CycleResult, error) {
	return e.RunDetectionCycleAt(ctx, time.Now().UTC())
}

// RunDetectionCycleAt is RunDetectionCycle with an explicit reference time
// for the detection windows.
func (e *Engine) RunDetectionCycleAt(ctx context.Context, now time.Time) (*CycleResult, error) {
	if !e.run.begin() {
		return nil, ErrCycleInProgress
	}

	result, err := e.cycle(ctx, now)
	if err != nil {
		// Technical detail stays in the log; callers and the run status
		// surface the summary.
		log.Printf("[engine] Detection cycle failed: %v", err)
		err = fmt.Errorf("detection failed at %s: %s",
			now.Format(time.RFC3339), summarize(err))
	}
	e.run.end(now, err)

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) cycle(ctx context.Context, now time.Time) (*CycleResult, error) {
	started := time.Now()

	if err := e.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detection config: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	knownTopics, err := e.store.TopicIDs()
	if err != nil {
		return nil, &storageErr{"topic load", err}
	}
	if len(knownTopics) == 0 {
		return nil, fmt.Errorf("topic taxonomy is empty; seed it before detecting")
	}

	// Step 1: the three independent signal detectors.
	pivots, err := e.detectCreatorPivots(now)
	if err != nil {
		return nil, &storageErr{"pivot detection", err}
	}
	log.Printf("[engine] %d creator pivot signals", len(pivots))

	edges, err := e.detectEdgeStrengthening(now)
	if err != nil {
		return nil, &storageErr{"edge detection", err}
	}
	log.Printf("[engine] %d edge strengthening signals", len(edges))

	bridges, err := e.findMotivationBridges(pivots, edges)
	if err != nil {
		return nil, &storageErr{"motivation bridges", err}
	}
	log.Printf("[engine] %d motivation bridge signals", len(bridges))

	// Step 2: fuse into directed candidates and score.
	candidates := e.fuse(pivots, edges, bridges)
	flows := e.scoreAndAccept(candidates, knownTopics, now)
	log.Printf("[engine] %d/%d candidates accepted as flows", len(flows), len(candidates))

	// Step 3: derive alerts and persist the batch atomically.
	alerts, err := e.deriveAlerts(flows, now)
	if err != nil {
		return nil, &storageErr{"alert derivation", err}
	}

	if err := e.store.SaveCycleResults(flows, alerts); err != nil {
		return nil, &storageErr{"result persistence", err}
	}

	result := &CycleResult{
		Flows:     flows,
		Alerts:    alerts,
		StartedAt: now,
		Duration:  time.Since(started),
	}

	if path, err := store.SaveSnapshot(store.SnapshotCycle, result); err == nil {
		log.Printf("[engine] Cycle snapshot saved to %s", path)
	}

	log.Printf("[engine] Cycle done in %v: %d flows, %d alerts",
		result.Duration, len(flows), len(alerts))
	return result, nil
}

// storageErr tags a persistence-layer failure with the cycle stage it hit.
// The raw error goes to the log only.
type storageErr struct {
	stage string
	err   error
}

func (e *storageErr) Error() string { return e.stage + ": " + e.err.Error() }
func (e *storageErr) Unwrap() error { return e.err }

// summarize keeps user-facing failure text free of raw storage errors.
func summarize(err error) string {
	var se *storageErr
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cycle interrupted"
	case errors.As(err, &se):
		return "storage error during " + se.stage
	default:
		msg := err.Error()
		if len(msg) > 120 {
			msg = msg[:120] + "..."
		}
		return msg
	}
}
