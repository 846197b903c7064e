package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"solar-analytics/internal/models"
)

const (
	// minHistory is the smallest usable fit window.
	minHistory = 3
	// horizonDecay shrinks confidence for each step further out.
	horizonDecay = 0.9
)

// Predict fits a least-squares linear trend to the time-ordered observations
// and projects SEP intensity forward horizon steps. The step between
// consecutive forecasts is the median gap of the input series, which also
// handles irregular sampling; the chosen step is recorded in the model
// version tag. Input is read-only.
func Predict(observations []models.Observation, horizon int) ([]models.Forecast, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: horizon must be positive, got %d", ErrInvalidParameter, horizon)
	}
	if len(observations) < minHistory {
		return nil, fmt.Errorf("%w: need at least %d observations, got %d",
			ErrInsufficientHistory, minHistory, len(observations))
	}
	for i := 1; i < len(observations); i++ {
		if observations[i].Timestamp.Before(observations[i-1].Timestamp) {
			return nil, fmt.Errorf("%w: observations must be ordered by timestamp", ErrInvalidParameter)
		}
	}

	t0 := observations[0].Timestamp
	xs := make([]float64, len(observations))
	ys := make([]float64, len(observations))
	for i := range observations {
		xs[i] = observations[i].Timestamp.Sub(t0).Seconds()
		ys[i] = observations[i].SepIntensity
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	step := medianGap(observations)
	if step <= 0 {
		// Duplicate timestamps give a zero gap; fall back to daily sampling.
		step = 24 * time.Hour
	}
	base := baseConfidence(xs, ys, intercept, slope)

	version := fmt.Sprintf("linear-v1/w%d/step%s", len(observations), step)
	last := observations[len(observations)-1].Timestamp
	now := time.Now().UTC()

	forecasts := make([]models.Forecast, horizon)
	for i := 0; i < horizon; i++ {
		target := last.Add(step * time.Duration(i+1))
		x := target.Sub(t0).Seconds()
		forecasts[i] = models.Forecast{
			ID:                 uuid.New(),
			PredictedFor:       target,
			PredictedIntensity: intercept + slope*x,
			Confidence:         base * math.Pow(horizonDecay, float64(i)),
			ModelVersion:       version,
			CreatedAt:          now,
		}
	}
	return forecasts, nil
}

// baseConfidence rates the fit quality in (0,1]: 1 for a perfect fit,
// shrinking as residual variance grows relative to observed variance.
func baseConfidence(xs, ys []float64, intercept, slope float64) float64 {
	var residSum float64
	for i := range xs {
		r := ys[i] - (intercept + slope*xs[i])
		residSum += r * r
	}
	residVar := residSum / float64(len(xs))
	obsVar := stat.Variance(ys, nil)
	if obsVar == 0 {
		// Flat series: the trend is exact.
		return 1
	}
	return 1 / (1 + residVar/obsVar)
}

// medianGap infers the sampling interval as the median spacing between
// consecutive timestamps.
func medianGap(observations []models.Observation) time.Duration {
	gaps := make([]time.Duration, 0, len(observations)-1)
	for i := 1; i < len(observations); i++ {
		gaps = append(gaps, observations[i].Timestamp.Sub(observations[i-1].Timestamp))
	}
	sort.Slice(gaps, func(a, b int) bool { return gaps[a] < gaps[b] })
	mid := len(gaps) / 2
	if len(gaps)%2 == 0 {
		return (gaps[mid-1] + gaps[mid]) / 2
	}
	return gaps[mid]
}
