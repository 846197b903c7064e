package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solar-analytics/internal/alerts"
	"solar-analytics/internal/logging"
	"solar-analytics/internal/models"
)

func f64(v float64) *float64 { return &v }

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.New(t.TempDir(), "error")
	require.NoError(t, err)
	return logger
}

func testParams() Params {
	return Params{
		Clusters:      2,
		Horizon:       3,
		Window:        30,
		TargetField:   models.FieldIntensity,
		FeatureFields: []string{models.FieldIntensity, models.FieldTemperature},
		Thresholds:    alerts.Thresholds{High: 5.0, Medium: 4.0, AnomalySigma: 2.0},
	}
}

func snapshot(n int) []models.Observation {
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	observations := make([]models.Observation, n)
	for i := range observations {
		intensity := 1.0 + 0.3*float64(i)
		observations[i] = models.Observation{
			ID:           uuid.NewSHA1(uuid.NameSpaceOID, []byte{byte(i)}),
			Timestamp:    base.AddDate(0, 0, i),
			SepIntensity: intensity,
			Temperature:  f64(10 + intensity),
			IceExtent:    f64(100 - intensity),
		}
	}
	return observations
}

func TestRunProducesAllSections(t *testing.T) {
	o := New(testLogger(t))

	report := o.Run(context.Background(), snapshot(12), nil, testParams())

	for _, section := range []string{SectionCorrelation, SectionClustering, SectionForecast, SectionAlerts} {
		assert.Equal(t, "ok", report.Sections[section].Status, section)
	}
	require.NotNil(t, report.Correlations)
	assert.Len(t, report.Assignments, 12)
	assert.Len(t, report.Clusters, 2)
	assert.Len(t, report.Forecasts, 3)
}

func TestRunIsDeterministicAcrossOrchestrators(t *testing.T) {
	obs := snapshot(12)
	p := testParams()

	first := New(testLogger(t)).Run(context.Background(), obs, nil, p)
	second := New(testLogger(t)).Run(context.Background(), obs, nil, p)

	assert.Equal(t, first.Correlations.Coefficients, second.Correlations.Coefficients)
	assert.Equal(t, first.Assignments, second.Assignments)
	assert.Equal(t, first.Clusters, second.Clusters)
}

func TestRunDegradesOnForecastFailure(t *testing.T) {
	o := New(testLogger(t))

	// Two observations: enough for correlation and clustering, too little
	// history for forecasting.
	report := o.Run(context.Background(), snapshot(2), nil, testParams())

	assert.Equal(t, "ok", report.Sections[SectionCorrelation].Status)
	assert.Equal(t, "ok", report.Sections[SectionClustering].Status)
	assert.Equal(t, "error", report.Sections[SectionForecast].Status)
	assert.NotEmpty(t, report.Sections[SectionForecast].Error)
	assert.Equal(t, "ok", report.Sections[SectionAlerts].Status)
	assert.Empty(t, report.Forecasts)
}

func TestRunCachesPerSnapshotAndInvalidates(t *testing.T) {
	o := New(testLogger(t))
	obs := snapshot(12)
	p := testParams()

	first := o.Run(context.Background(), obs, nil, p)
	second := o.Run(context.Background(), obs, nil, p)
	assert.Same(t, first, second)

	o.Invalidate()
	third := o.Run(context.Background(), obs, nil, p)
	assert.NotSame(t, first, third)

	// Different parameters miss the cache.
	p.Clusters = 3
	fourth := o.Run(context.Background(), obs, nil, p)
	assert.NotSame(t, third, fourth)
}

func TestDedupeResolvesKeepsOneResolvePerAlert(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	actions := []models.Action{
		{Kind: models.ActionResolve, AlertID: first},
		{Kind: models.ActionNoOp, AlertID: second},
		{Kind: models.ActionResolve, AlertID: first},
		{Kind: models.ActionResolve, AlertID: second},
		{Kind: models.ActionResolve, AlertID: first},
	}

	out := dedupeResolves(actions)
	require.Len(t, out, 3)
	assert.Equal(t, models.ActionResolve, out[0].Kind)
	assert.Equal(t, first, out[0].AlertID)
	assert.Equal(t, models.ActionNoOp, out[1].Kind)
	assert.Equal(t, models.ActionResolve, out[2].Kind)
	assert.Equal(t, second, out[2].AlertID)
}

func TestRunEvaluatesLatestObservationAndForecasts(t *testing.T) {
	o := New(testLogger(t))
	obs := snapshot(12)
	// Spike the latest reading over the high band.
	obs[len(obs)-1].SepIntensity = 6.2

	report := o.Run(context.Background(), obs, nil, testParams())

	var highCreates int
	for _, a := range report.AlertActions {
		if a.Kind == models.ActionCreate && a.Alert.Type == models.AlertHighIntensity {
			highCreates++
			assert.Equal(t, 6.2, a.Alert.ActualValue)
		}
	}
	assert.Equal(t, 1, highCreates)
}
