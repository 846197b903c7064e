package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solar-analytics/internal/models"
)

func f64(v float64) *float64 { return &v }

func linearObservations(n int) []models.Observation {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	observations := make([]models.Observation, n)
	for i := range observations {
		intensity := float64(i + 1)
		observations[i] = models.Observation{
			Timestamp:    base.AddDate(0, 0, i),
			SepIntensity: intensity,
			Temperature:  f64(2*intensity + 1), // perfectly linear
			IceExtent:    f64(-intensity),      // perfectly anti-linear
			OzoneLevel:   f64(7.5),             // zero variance
		}
	}
	return observations
}

func TestComputePerfectLinearCorrelation(t *testing.T) {
	result, err := Compute(linearObservations(10), models.FieldIntensity)
	require.NoError(t, err)

	temp := result.Coefficients[models.FieldTemperature]
	require.True(t, temp.Defined)
	assert.InDelta(t, 1.0, temp.Value, 1e-9)
	assert.Equal(t, 10, temp.SampleSize)

	ice := result.Coefficients[models.FieldIceExtent]
	require.True(t, ice.Defined)
	assert.InDelta(t, -1.0, ice.Value, 1e-9)
}

func TestComputeZeroVarianceIsDegenerate(t *testing.T) {
	result, err := Compute(linearObservations(10), models.FieldIntensity)
	require.NoError(t, err)

	ozone := result.Coefficients[models.FieldOzone]
	require.True(t, ozone.Defined)
	assert.True(t, ozone.Degenerate)
	assert.Zero(t, ozone.Value)
}

func TestComputePairwiseComplete(t *testing.T) {
	observations := linearObservations(10)
	// Knock out kp_index everywhere but one observation and temperature on
	// two observations: different covariates end up with different sample
	// sizes without failing the call.
	observations[3].KpIndex = f64(4.0)
	observations[0].Temperature = nil
	observations[1].Temperature = nil

	result, err := Compute(observations, models.FieldIntensity)
	require.NoError(t, err)

	kp := result.Coefficients[models.FieldKpIndex]
	assert.False(t, kp.Defined)
	assert.Equal(t, 1, kp.SampleSize)

	temp := result.Coefficients[models.FieldTemperature]
	require.True(t, temp.Defined)
	assert.Equal(t, 8, temp.SampleSize)
	assert.InDelta(t, 1.0, temp.Value, 1e-9)
}

func TestComputeTooFewObservations(t *testing.T) {
	_, err := Compute(linearObservations(1), models.FieldIntensity)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestComputeDoesNotMutateInput(t *testing.T) {
	observations := linearObservations(5)
	before := make([]models.Observation, len(observations))
	copy(before, observations)

	_, err := Compute(observations, models.FieldIntensity)
	require.NoError(t, err)
	assert.Equal(t, before, observations)
}
