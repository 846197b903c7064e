// Package alerts turns observations and forecasts into classified alert
// actions. The engine is pure: it returns Create/Resolve/NoOp decisions and
// leaves applying them to the persistence boundary.
package alerts

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"solar-analytics/internal/models"
)

// minAnomalyBaseline is the smallest rolling window that gives a usable
// mean/std baseline.
const minAnomalyBaseline = 5

// Thresholds holds the configured alert bands.
type Thresholds struct {
	High         float64 // intensity above this is High severity
	Medium       float64 // intensity in [Medium, High] is Medium severity
	AnomalySigma float64 // standard deviations beyond which a reading is anomalous
}

// Engine evaluates readings against thresholds and an active-alert set.
type Engine struct {
	thresholds Thresholds
}

// NewEngine constructs an alert Engine with the given bands.
func NewEngine(t Thresholds) *Engine {
	return &Engine{thresholds: t}
}

// EvaluateObservation checks one observation against the HighIntensity bands
// and, when recent history is deep enough, the anomaly baseline. Evaluation
// is idempotent: an equivalent active alert (same type and event time) yields
// NoOp instead of a duplicate Create, and active alerts whose condition no
// longer holds are resolved.
func (e *Engine) EvaluateObservation(obs models.Observation, recent []models.Observation, active []models.Alert) []models.Action {
	var actions []models.Action

	// HighIntensity bands; the higher band strictly wins.
	switch {
	case obs.SepIntensity > e.thresholds.High:
		actions = append(actions, e.decide(active, models.AlertHighIntensity, obs.Timestamp, models.SeverityHigh,
			e.thresholds.High, obs.SepIntensity,
			fmt.Sprintf("High SEP intensity: %.2f exceeds threshold %.2f", obs.SepIntensity, e.thresholds.High)))
	case obs.SepIntensity >= e.thresholds.Medium:
		actions = append(actions, e.decide(active, models.AlertHighIntensity, obs.Timestamp, models.SeverityMedium,
			e.thresholds.Medium, obs.SepIntensity,
			fmt.Sprintf("Elevated SEP intensity: %.2f exceeds threshold %.2f", obs.SepIntensity, e.thresholds.Medium)))
	default:
		actions = append(actions, resolveType(active, models.AlertHighIntensity)...)
	}

	actions = append(actions, e.evaluateAnomaly(obs, recent, active)...)
	return actions
}

// EvaluateForecast raises PredictedCritical when a forecast crosses the high
// band, keyed on the predicted-for timestamp. A calm forecast resolves only
// the alert tied to its own predicted-for time: it says nothing about sibling
// horizons that still flag.
func (e *Engine) EvaluateForecast(fc models.Forecast, active []models.Alert) []models.Action {
	if fc.PredictedIntensity > e.thresholds.High {
		return []models.Action{e.decide(active, models.AlertPredictedCritical, fc.PredictedFor, models.SeverityHigh,
			e.thresholds.High, fc.PredictedIntensity,
			fmt.Sprintf("Forecast SEP intensity %.2f for %s exceeds critical threshold %.2f",
				fc.PredictedIntensity, fc.PredictedFor.Format(time.RFC3339), e.thresholds.High))}
	}
	return resolveTypeAt(active, models.AlertPredictedCritical, fc.PredictedFor)
}

// evaluateAnomaly compares the reading against the rolling mean/std of the
// recent window, with severity scaled by how many sigma bands the deviation
// crosses.
func (e *Engine) evaluateAnomaly(obs models.Observation, recent []models.Observation, active []models.Alert) []models.Action {
	if len(recent) < minAnomalyBaseline {
		// No usable baseline means the anomaly condition cannot hold.
		return resolveType(active, models.AlertAnomalyDetected)
	}

	values := make([]float64, len(recent))
	for i := range recent {
		values[i] = recent[i].SepIntensity
	}
	mean, std := stat.MeanStdDev(values, nil)
	if std == 0 {
		if obs.SepIntensity == mean {
			return resolveType(active, models.AlertAnomalyDetected)
		}
		// Flat baseline: any departure is off-scale in sigma terms.
		return []models.Action{e.decide(active, models.AlertAnomalyDetected, obs.Timestamp, models.SeverityHigh,
			mean, obs.SepIntensity,
			fmt.Sprintf("Anomalous SEP intensity: %.2f departs from flat baseline %.2f", obs.SepIntensity, mean))}
	}

	z := (obs.SepIntensity - mean) / std
	if z < 0 {
		z = -z
	}
	if z <= e.thresholds.AnomalySigma {
		return resolveType(active, models.AlertAnomalyDetected)
	}

	severity := models.SeverityLow
	switch {
	case z > 2*e.thresholds.AnomalySigma:
		severity = models.SeverityHigh
	case z > 1.5*e.thresholds.AnomalySigma:
		severity = models.SeverityMedium
	}

	return []models.Action{e.decide(active, models.AlertAnomalyDetected, obs.Timestamp, severity,
		mean+e.thresholds.AnomalySigma*std, obs.SepIntensity,
		fmt.Sprintf("Anomalous SEP intensity: %.2f is %.1f sigma from rolling mean %.2f", obs.SepIntensity, z, mean))}
}

// ScanAnomalies walks the series with a trailing rolling window of size
// window and flags every reading beyond the configured sigma band of its
// window's mean. Readings without enough preceding history are skipped.
func (e *Engine) ScanAnomalies(observations []models.Observation, window int) []models.Anomaly {
	var anomalies []models.Anomaly
	for i := range observations {
		start := 0
		if window > 0 && i-window > 0 {
			start = i - window
		}
		recent := observations[start:i]
		if len(recent) < minAnomalyBaseline {
			continue
		}

		values := make([]float64, len(recent))
		for j := range recent {
			values[j] = recent[j].SepIntensity
		}
		mean, std := stat.MeanStdDev(values, nil)
		if std == 0 {
			continue
		}
		z := (observations[i].SepIntensity - mean) / std
		if z < 0 {
			z = -z
		}
		if z <= e.thresholds.AnomalySigma {
			continue
		}

		anomalies = append(anomalies, models.Anomaly{
			ObservationID: observations[i].ID,
			Timestamp:     observations[i].Timestamp,
			Value:         observations[i].SepIntensity,
			BaselineMean:  mean,
			Deviation:     z,
		})
	}
	return anomalies
}

// decide enforces the at-most-one-active invariant: if an equivalent active
// alert exists the outcome is NoOp, otherwise a Create.
func (e *Engine) decide(active []models.Alert, typ models.AlertType, event time.Time, severity models.Severity,
	threshold, actual float64, message string) models.Action {
	if existing := findActive(active, typ, event); existing != nil {
		return models.Action{Kind: models.ActionNoOp, AlertID: existing.ID}
	}
	return models.Action{
		Kind: models.ActionCreate,
		Alert: &models.Alert{
			ID:             uuid.New(),
			Type:           typ,
			Severity:       severity,
			Message:        message,
			ThresholdValue: threshold,
			ActualValue:    actual,
			EventTime:      event,
			IsActive:       true,
			CreatedAt:      time.Now().UTC(),
		},
	}
}

// resolveType emits Resolve for every active alert of the type whose
// condition no longer holds on this evaluation.
func resolveType(active []models.Alert, typ models.AlertType) []models.Action {
	var actions []models.Action
	for i := range active {
		if active[i].Type == typ && active[i].IsActive {
			actions = append(actions, models.Action{Kind: models.ActionResolve, AlertID: active[i].ID})
		}
	}
	return actions
}

// resolveTypeAt emits Resolve only for the active alerts of the type tied to
// this event time.
func resolveTypeAt(active []models.Alert, typ models.AlertType, event time.Time) []models.Action {
	var actions []models.Action
	for i := range active {
		if active[i].Type == typ && active[i].IsActive && active[i].EventTime.Equal(event) {
			actions = append(actions, models.Action{Kind: models.ActionResolve, AlertID: active[i].ID})
		}
	}
	return actions
}

func findActive(active []models.Alert, typ models.AlertType, event time.Time) *models.Alert {
	for i := range active {
		if active[i].Type == typ && active[i].IsActive && active[i].EventTime.Equal(event) {
			return &active[i]
		}
	}
	return nil
}
