// Package metrics defines the observability events emitted by the action
// queue and the triage pipeline, and the sink interface adapters implement.
package metrics

import (
	"time"

	"github.com/fraudops/fieldkit/core/model"
)

// ActionResult is one delivery attempt outcome for a queued action.
type ActionResult struct {
	ActionID  string
	Kind      model.ActionKind
	CaseID    string
	Retries   int
	Completed bool
	// Failed is set when the action froze in the failed state, either by
	// exhausting its retries or by a permanent delivery error.
	Failed   bool
	Error    string
	Duration time.Duration
	Time     time.Time
}

// QueueDepth is a snapshot of the queue taken after a drain pass.
type QueueDepth struct {
	Pending    int
	Processing int
	Failed     int
	Time       time.Time
}

// TriageEvent summarizes one score/cluster/allocate pass.
type TriageEvent struct {
	Alerts   int
	Clusters int
	Assigned int
	Time     time.Time
}

// Sink records queue and triage events for observability purposes.
type Sink interface {
	RecordActionResults(results []ActionResult) error
	RecordQueueDepth(d QueueDepth) error
	RecordTriage(ev TriageEvent) error
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) RecordActionResults([]ActionResult) error { return nil }
func (NopSink) RecordQueueDepth(QueueDepth) error        { return nil }
func (NopSink) RecordTriage(TriageEvent) error           { return nil }
