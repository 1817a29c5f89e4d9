// Package events defines the lifecycle events published on the eventbus
// for UI and telemetry subscribers.
package events

import (
	"time"

	"github.com/fraudops/fieldkit/core/model"
)

// ActionEvent reports a queued action changing state.
type ActionEvent struct {
	ActionID string
	Kind     model.ActionKind
	CaseID   string
	Status   model.ActionStatus
	Retries  int
	Err      error
	Time     time.Time
}

// DrainEvent reports the completion of one drain pass.
type DrainEvent struct {
	Processed int
	Completed int
	Failed    int
	Time      time.Time
}
