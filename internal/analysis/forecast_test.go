package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solar-analytics/internal/models"
)

func trendObservations(n int, step time.Duration) []models.Observation {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	observations := make([]models.Observation, n)
	for i := range observations {
		observations[i] = models.Observation{
			Timestamp:    base.Add(step * time.Duration(i)),
			SepIntensity: float64(i + 1),
		}
	}
	return observations
}

func TestPredictExtendsLinearTrend(t *testing.T) {
	observations := trendObservations(5, 24*time.Hour)

	forecasts, err := Predict(observations, 3)
	require.NoError(t, err)
	require.Len(t, forecasts, 3)

	last := observations[len(observations)-1]
	for i, fc := range forecasts {
		assert.InDelta(t, float64(6+i), fc.PredictedIntensity, 1e-9)
		assert.Equal(t, last.Timestamp.Add(24*time.Hour*time.Duration(i+1)), fc.PredictedFor)
		assert.Contains(t, fc.ModelVersion, "step24h")
	}
}

func TestPredictConfidenceStrictlyDecreasesWithHorizon(t *testing.T) {
	observations := trendObservations(10, time.Hour)
	// Perturb the series so the fit is imperfect.
	observations[2].SepIntensity += 0.7
	observations[6].SepIntensity -= 0.4

	forecasts, err := Predict(observations, 5)
	require.NoError(t, err)

	for i := 1; i < len(forecasts); i++ {
		assert.Less(t, forecasts[i].Confidence, forecasts[i-1].Confidence)
	}
	for _, fc := range forecasts {
		assert.GreaterOrEqual(t, fc.Confidence, 0.0)
		assert.LessOrEqual(t, fc.Confidence, 1.0)
	}
}

func TestPredictUsesMedianGapForIrregularSeries(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	// Gaps: 1h, 1h, 5h, 1h, 1h -> median 1h.
	offsets := []time.Duration{0, time.Hour, 2 * time.Hour, 7 * time.Hour, 8 * time.Hour, 9 * time.Hour}
	observations := make([]models.Observation, len(offsets))
	for i, off := range offsets {
		observations[i] = models.Observation{
			Timestamp:    base.Add(off),
			SepIntensity: float64(i),
		}
	}

	forecasts, err := Predict(observations, 2)
	require.NoError(t, err)
	require.Len(t, forecasts, 2)

	last := observations[len(observations)-1].Timestamp
	assert.Equal(t, last.Add(time.Hour), forecasts[0].PredictedFor)
	assert.Equal(t, last.Add(2*time.Hour), forecasts[1].PredictedFor)
	assert.Contains(t, forecasts[0].ModelVersion, "step1h")
}

func TestPredictInsufficientHistory(t *testing.T) {
	_, err := Predict(trendObservations(2, time.Hour), 3)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestPredictRejectsUnorderedInput(t *testing.T) {
	observations := trendObservations(5, time.Hour)
	observations[1], observations[3] = observations[3], observations[1]

	_, err := Predict(observations, 2)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestPredictDoesNotMutateInput(t *testing.T) {
	observations := trendObservations(5, time.Hour)
	before := make([]models.Observation, len(observations))
	copy(before, observations)

	_, err := Predict(observations, 4)
	require.NoError(t, err)
	assert.Equal(t, before, observations)
}
