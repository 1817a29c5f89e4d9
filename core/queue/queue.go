// Package queue implements the reliable action queue: field commands
// (freeze, dispatch, message, outcome, evidence) submitted once are
// delivered at least once despite transient connectivity loss, with the
// durable store as the source of truth for pending work.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fraudops/fieldkit/core/connectivity"
	"github.com/fraudops/fieldkit/core/events"
	"github.com/fraudops/fieldkit/core/faults"
	"github.com/fraudops/fieldkit/core/logger"
	"github.com/fraudops/fieldkit/core/metrics"
	"github.com/fraudops/fieldkit/core/model"
	"github.com/fraudops/fieldkit/core/storage"
	"github.com/fraudops/fieldkit/internal/eventbus"
)

// Executor delivers one field command to its remote endpoint. Failures
// must be classified through the faults package: transient failures are
// rescheduled, everything else freezes the action as failed.
type Executor interface {
	Execute(ctx context.Context, a model.Action) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, a model.Action) error

func (f ExecutorFunc) Execute(ctx context.Context, a model.Action) error { return f(ctx, a) }

// Config tunes the queue.
type Config struct {
	// MaxRetries is the retry ceiling per action. Once reached the action
	// freezes in the failed state for operator inspection.
	MaxRetries int `json:"max_retries"`
	// StorageKey is the durable-store key holding the serialized queue.
	StorageKey string `json:"storage_key"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.StorageKey == "" {
		c.StorageKey = "fieldkit:action_queue"
	}
}

// Status reports queue depth per state for UI and telemetry.
type Status struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
}

// Queue is the reliable action queue. Every mutation of the in-memory list
// is followed by a full-list persist before the operation completes; a
// crash between mutation and persist can lose the most recent state change.
// There is no incremental log.
type Queue struct {
	mu      sync.Mutex
	actions []model.Action

	execs map[model.ActionKind]Executor
	store storage.Store
	conn  connectivity.Checker
	log   logger.Logger
	sink  metrics.Sink
	bus   eventbus.EventBus
	cfg   Config

	draining bool
	// rerun records a drain trigger that arrived mid-drain; the running
	// drain loops once more after finishing instead of dropping it.
	rerun bool
}

// New creates a Queue. Nil sink, bus and log are allowed.
func New(cfg Config, store storage.Store, conn connectivity.Checker, log logger.Logger, sink metrics.Sink, bus eventbus.EventBus) *Queue {
	cfg.SetDefaults()
	if log == nil {
		log = logger.Nop{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if conn == nil {
		conn = connectivity.Static(true)
	}
	return &Queue{
		execs: make(map[model.ActionKind]Executor),
		store: store,
		conn:  conn,
		log:   log,
		sink:  sink,
		bus:   bus,
		cfg:   cfg,
	}
}

// RegisterExecutor binds an executor to an action kind.
func (q *Queue) RegisterExecutor(kind model.ActionKind, exec Executor) {
	q.mu.Lock()
	q.execs[kind] = exec
	q.mu.Unlock()
}

// Restore loads the persisted queue. Actions caught mid-processing by a
// crash are reset to pending so they are attempted again.
func (q *Queue) Restore() error {
	data, err := q.store.Load(q.cfg.StorageKey)
	if err != nil {
		return faults.Storage("queue restore", err)
	}
	if data == nil {
		return nil
	}
	var actions []model.Action
	if err := json.Unmarshal(data, &actions); err != nil {
		return faults.Storage("queue restore", err)
	}
	for i := range actions {
		if actions[i].Status == model.ActionProcessing {
			actions[i].Status = model.ActionPending
		}
	}
	q.mu.Lock()
	q.actions = actions
	q.mu.Unlock()
	q.log.Infof("restored %d queued actions", len(actions))
	return nil
}

// Enqueue records the action durably and, if the network is believed
// reachable, runs a drain pass before returning. The returned flag is true
// when the action was stored for later because the device is offline.
func (q *Queue) Enqueue(ctx context.Context, a model.Action) (queued bool, err error) {
	if err := a.Validate(); err != nil {
		return false, faults.Wrap(faults.KindValidation, "enqueue", err)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.Status = model.ActionPending
	a.Retries = 0
	a.LastError = ""

	q.mu.Lock()
	q.actions = append(q.actions, a)
	q.persistLocked()
	q.mu.Unlock()

	q.publish(events.ActionEvent{ActionID: a.ID, Kind: a.Kind, CaseID: a.CaseID, Status: a.Status, Time: time.Now()})
	q.log.Debugw("action enqueued", map[string]any{"action_id": a.ID, "kind": string(a.Kind), "case_id": a.CaseID})

	if !q.conn.IsOnline() {
		q.log.Infof("offline: action %s queued for later", a.ID)
		return true, nil
	}
	return false, q.Drain(ctx)
}

// Drain processes every pending action in FIFO order, each fully completing
// before the next begins. Only one drain runs at a time; a trigger arriving
// mid-drain schedules one extra pass instead of being dropped.
func (q *Queue) Drain(ctx context.Context) error {
	q.mu.Lock()
	if q.draining {
		q.rerun = true
		q.mu.Unlock()
		return nil
	}
	q.draining = true
	q.mu.Unlock()

	for {
		q.drainPass(ctx)
		q.mu.Lock()
		if q.rerun {
			q.rerun = false
			q.mu.Unlock()
			continue
		}
		q.draining = false
		q.mu.Unlock()
		return nil
	}
}

// drainPass attempts each action that was pending when the pass started.
// Actions rescheduled by a transient failure wait for the next drain.
func (q *Queue) drainPass(ctx context.Context) {
	q.mu.Lock()
	ids := make([]string, 0, len(q.actions))
	for _, a := range q.actions {
		if a.Status == model.ActionPending {
			ids = append(ids, a.ID)
		}
	}
	q.mu.Unlock()

	var results []metrics.ActionResult
	processed, completed, failed := 0, 0, 0
	for _, id := range ids {
		res, ok := q.processOne(ctx, id)
		if !ok {
			continue
		}
		processed++
		if res.Completed {
			completed++
		} else if res.Failed {
			failed++
		}
		results = append(results, res)
	}

	if len(results) > 0 {
		if err := q.sink.RecordActionResults(results); err != nil {
			q.log.Warnf("record action results: %v", err)
		}
	}
	st := q.Status()
	if err := q.sink.RecordQueueDepth(metrics.QueueDepth{Pending: st.Pending, Processing: st.Processing, Failed: st.Failed, Time: time.Now()}); err != nil {
		q.log.Warnf("record queue depth: %v", err)
	}
	q.publish(events.DrainEvent{Processed: processed, Completed: completed, Failed: failed, Time: time.Now()})
}

// processOne runs a single action through the state machine. The mutex is
// released around the executor call; the single-flight drain guard keeps
// list order stable for pending work.
func (q *Queue) processOne(ctx context.Context, id string) (metrics.ActionResult, bool) {
	q.mu.Lock()
	idx := q.indexLocked(id)
	if idx < 0 || q.actions[idx].Status != model.ActionPending {
		q.mu.Unlock()
		return metrics.ActionResult{}, false
	}
	q.actions[idx].Status = model.ActionProcessing
	q.persistLocked()
	a := q.actions[idx]
	exec := q.execs[a.Kind]
	q.mu.Unlock()

	var err error
	start := time.Now()
	if exec == nil {
		err = faults.Permanent("drain", fmt.Errorf("no executor registered for kind %q", a.Kind))
	} else {
		err = exec.Execute(ctx, a)
	}
	duration := time.Since(start)

	q.mu.Lock()
	idx = q.indexLocked(id)
	if idx < 0 {
		q.mu.Unlock()
		return metrics.ActionResult{}, false
	}
	res := metrics.ActionResult{ActionID: a.ID, Kind: a.Kind, CaseID: a.CaseID, Duration: duration, Time: time.Now()}
	var ev events.ActionEvent
	switch {
	case err == nil:
		q.actions = append(q.actions[:idx], q.actions[idx+1:]...)
		res.Completed = true
		ev = events.ActionEvent{ActionID: a.ID, Kind: a.Kind, CaseID: a.CaseID, Status: model.ActionCompleted, Time: time.Now()}
	case faults.KindOf(err) == faults.KindTransient:
		q.actions[idx].Retries++
		res.Retries = q.actions[idx].Retries
		res.Error = err.Error()
		if q.actions[idx].Retries >= q.cfg.MaxRetries {
			q.actions[idx].Status = model.ActionFailed
			q.actions[idx].LastError = err.Error()
			res.Failed = true
		} else {
			q.actions[idx].Status = model.ActionPending
		}
		ev = events.ActionEvent{ActionID: a.ID, Kind: a.Kind, CaseID: a.CaseID, Status: q.actions[idx].Status, Retries: q.actions[idx].Retries, Err: err, Time: time.Now()}
	default:
		// Permanent, validation or unclassified failures freeze the action
		// without consuming retries.
		q.actions[idx].Status = model.ActionFailed
		q.actions[idx].LastError = err.Error()
		res.Retries = q.actions[idx].Retries
		res.Failed = true
		res.Error = err.Error()
		ev = events.ActionEvent{ActionID: a.ID, Kind: a.Kind, CaseID: a.CaseID, Status: model.ActionFailed, Retries: q.actions[idx].Retries, Err: err, Time: time.Now()}
	}
	q.persistLocked()
	q.mu.Unlock()

	if err != nil {
		q.log.Warnf("action %s (%s) delivery failed: %v", a.ID, a.Kind, err)
	} else {
		q.log.Infof("action %s (%s) delivered", a.ID, a.Kind)
	}
	q.publish(ev)
	return res, true
}

// Status returns queue depth counts per state.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	var st Status
	for _, a := range q.actions {
		switch a.Status {
		case model.ActionPending:
			st.Pending++
		case model.ActionProcessing:
			st.Processing++
		case model.ActionFailed:
			st.Failed++
		}
	}
	st.Total = len(q.actions)
	return st
}

// FailedActions returns a copy of the actions frozen in the failed state.
func (q *Queue) FailedActions() []model.Action {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []model.Action
	for _, a := range q.actions {
		if a.Status == model.ActionFailed {
			out = append(out, a)
		}
	}
	return out
}

// RetryFailed resets every failed action to pending with a fresh retry
// counter and runs a drain.
func (q *Queue) RetryFailed(ctx context.Context) error {
	q.mu.Lock()
	reset := 0
	for i := range q.actions {
		if q.actions[i].Status == model.ActionFailed {
			q.actions[i].Status = model.ActionPending
			q.actions[i].Retries = 0
			q.actions[i].LastError = ""
			reset++
		}
	}
	if reset > 0 {
		q.persistLocked()
	}
	q.mu.Unlock()
	if reset == 0 {
		return nil
	}
	q.log.Infof("reset %d failed actions for retry", reset)
	return q.Drain(ctx)
}

func (q *Queue) indexLocked(id string) int {
	for i, a := range q.actions {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// persistLocked writes the full list to the durable store. Persistence
// failure does not abort the in-memory mutation that triggered it.
func (q *Queue) persistLocked() {
	data, err := json.Marshal(q.actions)
	if err != nil {
		q.log.Errorf("queue marshal: %v", err)
		return
	}
	if err := q.store.Save(q.cfg.StorageKey, data); err != nil {
		q.log.Warnf("queue persist: %v", err)
	}
}

func (q *Queue) publish(e eventbus.Event) {
	if q.bus != nil {
		q.bus.Publish(e)
	}
}
