package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActionKind identifies the field command carried by a queued action.
type ActionKind string

const (
	ActionFreeze   ActionKind = "freeze"
	ActionDispatch ActionKind = "dispatch"
	ActionMessage  ActionKind = "message"
	ActionOutcome  ActionKind = "outcome"
	ActionEvidence ActionKind = "evidence"
)

// ActionStatus tracks a queued action through the delivery state machine.
type ActionStatus string

const (
	ActionPending    ActionStatus = "pending"
	ActionProcessing ActionStatus = "processing"
	ActionCompleted  ActionStatus = "completed"
	ActionFailed     ActionStatus = "failed"
)

// Action is a field command recorded for reliable, at-least-once delivery.
// Completed actions are removed from the durable queue; failed actions stay
// frozen in the queue for operator inspection and manual retry.
type Action struct {
	ID        string          `json:"id"`
	Kind      ActionKind      `json:"kind" validate:"required"`
	CaseID    string          `json:"case_id" validate:"required"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Retries   int             `json:"retries"`
	Status    ActionStatus    `json:"status"`
	LastError string          `json:"last_error,omitempty"`
}

// Validate checks the action's required fields and kind.
func (a Action) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("invalid action: %w", err)
	}
	switch a.Kind {
	case ActionFreeze, ActionDispatch, ActionMessage, ActionOutcome, ActionEvidence:
		return nil
	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
}
