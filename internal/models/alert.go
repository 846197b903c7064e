package models

import (
	"time"

	"github.com/google/uuid"
)

// AlertType classifies what condition raised an alert.
type AlertType string

const (
	AlertHighIntensity     AlertType = "HighIntensity"
	AlertAnomalyDetected   AlertType = "AnomalyDetected"
	AlertPredictedCritical AlertType = "PredictedCritical"
)

// Severity is totally ordered: High > Medium > Low.
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// Rank maps a severity to its position in the ordering. Unknown values rank
// below Low.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Alert is a classified threshold crossing tied to one event timestamp.
// At most one active alert may exist per (type, event time) pair.
type Alert struct {
	ID             uuid.UUID  `json:"id"`
	Type           AlertType  `json:"alert_type"`
	Severity       Severity   `json:"severity"`
	Message        string     `json:"message"`
	ThresholdValue float64    `json:"threshold_value"`
	ActualValue    float64    `json:"actual_value"`
	EventTime      time.Time  `json:"event_time"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

// ActionKind discriminates alert engine outcomes.
type ActionKind string

const (
	ActionCreate  ActionKind = "create"
	ActionResolve ActionKind = "resolve"
	ActionNoOp    ActionKind = "noop"
)

// Action is one alert engine decision for the persistence boundary to apply.
type Action struct {
	Kind    ActionKind `json:"kind"`
	Alert   *Alert     `json:"alert,omitempty"`    // set for Create
	AlertID uuid.UUID  `json:"alert_id,omitempty"` // set for Resolve and NoOp
}
