// Package orchestrator sequences the analysis engines over one immutable
// observation snapshot and bundles their outputs into a report for the
// API/persistence boundary.
package orchestrator

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"

	"solar-analytics/internal/alerts"
	"solar-analytics/internal/analysis"
	"solar-analytics/internal/logging"
	"solar-analytics/internal/models"
)

// Report section names.
const (
	SectionCorrelation = "correlation"
	SectionClustering  = "clustering"
	SectionForecast    = "forecast"
	SectionAlerts      = "alerts"
)

// Params are the recognized pipeline options.
type Params struct {
	Clusters      int               `json:"clusters"`
	Horizon       int               `json:"horizon"`
	Window        int               `json:"window"` // lookback for correlation and forecasting
	TargetField   string            `json:"target_field"`
	FeatureFields []string          `json:"feature_fields"`
	Thresholds    alerts.Thresholds `json:"thresholds"`
}

// SectionStatus reports one engine's outcome within a run.
type SectionStatus struct {
	Status string `json:"status"` // "ok", "error", or "skipped"
	Error  string `json:"error,omitempty"`
}

// Report bundles everything one pipeline run produced. Sections that failed
// carry an error status; the rest of the report remains valid.
type Report struct {
	Correlations *models.CorrelationResult `json:"correlations,omitempty"`
	Assignments  []models.Assignment       `json:"assignments,omitempty"`
	Clusters     []models.Cluster          `json:"clusters,omitempty"`
	Forecasts    []models.Forecast         `json:"forecasts,omitempty"`
	AlertActions []models.Action           `json:"alert_actions,omitempty"`
	Sections     map[string]SectionStatus  `json:"sections"`
	GeneratedAt  time.Time                 `json:"generated_at"`
}

// Orchestrator runs the pipeline and caches reports per snapshot identity
// and parameters.
type Orchestrator struct {
	logger *logging.Logger

	mu    sync.Mutex
	cache map[uint64]*Report
}

// New constructs an Orchestrator.
func New(logger *logging.Logger) *Orchestrator {
	return &Orchestrator{
		logger: logger,
		cache:  make(map[uint64]*Report),
	}
}

// Run executes correlation, clustering, forecasting, and alert evaluation
// over the snapshot. Correlation and clustering have no data dependency and
// run concurrently; alert evaluation runs last against the active set the
// caller captured once at evaluation start. A failed engine degrades its
// section instead of aborting the run.
func (o *Orchestrator) Run(ctx context.Context, snapshot []models.Observation, active []models.Alert, p Params) *Report {
	key := cacheKey(snapshot, active, p)

	o.mu.Lock()
	if cached, ok := o.cache[key]; ok {
		o.mu.Unlock()
		o.logger.Debugf("Pipeline cache hit for %d observations", len(snapshot))
		return cached
	}
	o.mu.Unlock()

	report := &Report{
		Sections:    make(map[string]SectionStatus, 4),
		GeneratedAt: time.Now().UTC(),
	}
	windowed := lastN(snapshot, p.Window)

	var wg sync.WaitGroup
	var corrResult models.CorrelationResult
	var corrErr error
	var assignments []models.Assignment
	var clusters []models.Cluster
	var clusterErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		corrResult, corrErr = analysis.Compute(windowed, p.TargetField)
	}()
	go func() {
		defer wg.Done()
		assignments, clusters, clusterErr = analysis.Assign(snapshot, p.Clusters, p.FeatureFields)
	}()
	wg.Wait()

	if corrErr != nil {
		o.logger.Warnf("Correlation engine failed: %v", corrErr)
		report.Sections[SectionCorrelation] = SectionStatus{Status: "error", Error: corrErr.Error()}
	} else {
		report.Correlations = &corrResult
		report.Sections[SectionCorrelation] = SectionStatus{Status: "ok"}
	}

	if clusterErr != nil {
		o.logger.Warnf("Clustering engine failed: %v", clusterErr)
		report.Sections[SectionClustering] = SectionStatus{Status: "error", Error: clusterErr.Error()}
	} else {
		report.Assignments = assignments
		report.Clusters = clusters
		report.Sections[SectionClustering] = SectionStatus{Status: "ok"}
	}

	if ctx.Err() != nil {
		report.Sections[SectionForecast] = SectionStatus{Status: "skipped", Error: ctx.Err().Error()}
		report.Sections[SectionAlerts] = SectionStatus{Status: "skipped", Error: ctx.Err().Error()}
		return report
	}

	forecasts, fcErr := analysis.Predict(windowed, p.Horizon)
	if fcErr != nil {
		o.logger.Warnf("Forecasting engine failed: %v", fcErr)
		report.Sections[SectionForecast] = SectionStatus{Status: "error", Error: fcErr.Error()}
	} else {
		report.Forecasts = forecasts
		report.Sections[SectionForecast] = SectionStatus{Status: "ok"}
	}

	// Alert evaluation runs last: PredictedCritical needs the forecasts.
	engine := alerts.NewEngine(p.Thresholds)
	var actions []models.Action
	if len(snapshot) > 0 {
		latest := snapshot[len(snapshot)-1]
		baseline := lastN(snapshot[:len(snapshot)-1], p.Window)
		actions = append(actions, engine.EvaluateObservation(latest, baseline, active)...)
	}
	for i := range forecasts {
		actions = append(actions, engine.EvaluateForecast(forecasts[i], active)...)
	}
	report.AlertActions = dedupeResolves(actions)
	report.Sections[SectionAlerts] = SectionStatus{Status: "ok"}

	o.mu.Lock()
	o.cache[key] = report
	o.mu.Unlock()

	return report
}

// Invalidate drops every cached report, e.g. after new observations arrive.
func (o *Orchestrator) Invalidate() {
	o.mu.Lock()
	o.cache = make(map[uint64]*Report)
	o.mu.Unlock()
}

// dedupeResolves drops repeated Resolve actions for the same alert so one
// report never asks the boundary to resolve an alert twice.
func dedupeResolves(actions []models.Action) []models.Action {
	seen := make(map[uuid.UUID]bool)
	out := make([]models.Action, 0, len(actions))
	for _, a := range actions {
		if a.Kind == models.ActionResolve {
			if seen[a.AlertID] {
				continue
			}
			seen[a.AlertID] = true
		}
		out = append(out, a)
	}
	return out
}

// cacheKey fingerprints the snapshot identity, the active-alert set, and the
// parameters. Reports are only reused for a byte-identical situation.
func cacheKey(snapshot []models.Observation, active []models.Alert, p Params) uint64 {
	h := fnv.New64a()
	for i := range snapshot {
		h.Write(snapshot[i].ID[:])
		writeInt(h, snapshot[i].Timestamp.UnixNano())
	}
	for i := range active {
		h.Write(active[i].ID[:])
	}
	writeInt(h, int64(p.Clusters))
	writeInt(h, int64(p.Horizon))
	writeInt(h, int64(p.Window))
	h.Write([]byte(p.TargetField))
	for _, f := range p.FeatureFields {
		h.Write([]byte(f))
	}
	writeInt(h, int64(p.Thresholds.High*1000))
	writeInt(h, int64(p.Thresholds.Medium*1000))
	writeInt(h, int64(p.Thresholds.AnomalySigma*1000))
	return h.Sum64()
}

func writeInt(h interface{ Write([]byte) (int, error) }, v int64) {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	h.Write(buf[:])
}

// lastN returns the trailing n elements, or everything when n is zero or
// exceeds the slice.
func lastN(observations []models.Observation, n int) []models.Observation {
	if n <= 0 || n >= len(observations) {
		return observations
	}
	return observations[len(observations)-n:]
}
