package models

import (
	"time"

	"github.com/google/uuid"
)

// Coefficient is the Pearson correlation of one covariate against the target.
type Coefficient struct {
	Value      float64 `json:"value"`
	SampleSize int     `json:"sample_size"`
	Degenerate bool    `json:"degenerate,omitempty"` // zero variance in either series
	Defined    bool    `json:"defined"`              // false when too few usable pairs
}

// CorrelationResult maps covariate name to its coefficient. Derived data,
// recomputed on demand; never the source of truth.
type CorrelationResult struct {
	TargetField  string                 `json:"target_field"`
	Coefficients map[string]Coefficient `json:"coefficients"`
	ComputedAt   time.Time              `json:"computed_at"`
}

// Cluster owns a centroid in raw feature space and its membership count.
// Clusters are rebuilt from scratch on every clustering run.
type Cluster struct {
	ID       int       `json:"id"`
	Centroid []float64 `json:"centroid"`
	Size     int       `json:"size"`
}

// Assignment records which cluster an observation landed in.
type Assignment struct {
	ObservationID uuid.UUID `json:"observation_id"`
	ClusterID     int       `json:"cluster_id"`
}

// Anomaly flags one reading outside its rolling baseline.
type Anomaly struct {
	ObservationID uuid.UUID `json:"observation_id"`
	Timestamp     time.Time `json:"timestamp"`
	Value         float64   `json:"value"`
	BaselineMean  float64   `json:"baseline_mean"`
	Deviation     float64   `json:"deviation"` // sigma distance from the baseline mean
}

// Forecast is a projected SEP intensity value. Append-only.
type Forecast struct {
	ID                 uuid.UUID `json:"id"`
	PredictedFor       time.Time `json:"predicted_for"`
	PredictedIntensity float64   `json:"predicted_intensity"`
	Confidence         float64   `json:"confidence"` // in [0,1]
	ModelVersion       string    `json:"model_version"`
	CreatedAt          time.Time `json:"created_at"`
}
