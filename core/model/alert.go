package model

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// AlertStatus tracks the lifecycle of a fraud alert.
type AlertStatus string

const (
	AlertActive    AlertStatus = "active"
	AlertAssigned  AlertStatus = "assigned"
	AlertResolved  AlertStatus = "resolved"
	AlertDismissed AlertStatus = "dismissed"
)

// Location is a geographic point with an optional free-text address.
type Location struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Address   string  `json:"address,omitempty"`
}

// Alert represents a fraud incident produced by the upstream prediction
// pipeline. The risk score, amount and time window are inputs to the
// priority scorer; this package never computes a risk score itself.
type Alert struct {
	ID       string  `json:"id" validate:"required"`
	Category string  `json:"category"`
	// RiskScore is the model-predicted fraud probability in [0,1].
	// A missing score is treated as zero.
	RiskScore float64 `json:"risk_score" validate:"gte=0,lte=1"`
	// Amount is the monetary value at risk, in the account currency.
	Amount   float64   `json:"amount" validate:"gte=0"`
	Location *Location `json:"location,omitempty"`
	// CashOutMinutes is the predicted number of minutes until the fraudster
	// can cash out. Nil means no predicted window (unbounded).
	CashOutMinutes *float64    `json:"cash_out_minutes,omitempty"`
	Status         AlertStatus `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	// RequiredSpecialization, when set, restricts which units may be
	// assigned to this alert.
	RequiredSpecialization string `json:"required_specialization,omitempty"`
}

// HasLocation reports whether the alert carries usable coordinates.
func (a Alert) HasLocation() bool { return a.Location != nil }

// Validate checks that the alert is well formed.
func (a Alert) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("invalid alert: %w", err)
	}
	if a.Location != nil {
		if err := validate.Struct(*a.Location); err != nil {
			return fmt.Errorf("invalid alert location: %w", err)
		}
	}
	return nil
}

// PriorityLevel buckets a priority score into operator-facing urgency bands.
type PriorityLevel string

const (
	LevelCritical PriorityLevel = "critical"
	LevelHigh     PriorityLevel = "high"
	LevelMedium   PriorityLevel = "medium"
	LevelLow      PriorityLevel = "low"
)

// ScoredAlert is an Alert annotated with derived urgency fields. The
// derived fields are recomputed on every scoring pass and are never
// persisted independently of the source alert.
type ScoredAlert struct {
	Alert
	// Score is the 0-100 urgency score.
	Score int `json:"score"`
	// Level is the score bucketed at the 80/60/40 thresholds.
	Level PriorityLevel `json:"level"`
	// DistanceKm is the haversine distance from the requesting user,
	// when a requester location was supplied.
	DistanceKm *float64 `json:"distance_km,omitempty"`
	// RecommendedAction is advisory text keyed off the alert category.
	RecommendedAction string `json:"recommended_action,omitempty"`
}
