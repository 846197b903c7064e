package analysis

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"solar-analytics/internal/models"
)

// Compute calculates the Pearson correlation of every covariate against
// targetField. Pairs are pairwise-complete: an observation missing a value
// for one covariate is excluded only from that covariate's coefficient, so
// different covariates may use different sample sizes. Pure function: the
// snapshot is never mutated.
func Compute(observations []models.Observation, targetField string) (models.CorrelationResult, error) {
	if len(observations) < 2 {
		return models.CorrelationResult{}, fmt.Errorf("%w: need at least 2 observations, got %d",
			ErrInsufficientData, len(observations))
	}

	result := models.CorrelationResult{
		TargetField:  targetField,
		Coefficients: make(map[string]models.Coefficient, len(models.CovariateFields)),
		ComputedAt:   time.Now().UTC(),
	}

	for _, field := range models.CovariateFields {
		if field == targetField {
			continue
		}
		result.Coefficients[field] = correlate(observations, targetField, field)
	}

	return result, nil
}

// correlate computes one covariate's coefficient over its usable pairs.
func correlate(observations []models.Observation, targetField, field string) models.Coefficient {
	xs := make([]float64, 0, len(observations))
	ys := make([]float64, 0, len(observations))
	for i := range observations {
		x, okX := observations[i].Field(targetField)
		y, okY := observations[i].Field(field)
		if !okX || !okY {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}

	n := len(xs)
	if n < 2 {
		// Too few usable pairs for this covariate; reported as undefined
		// rather than failing the whole call.
		return models.Coefficient{SampleSize: n, Defined: false}
	}

	if stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return models.Coefficient{Value: 0, SampleSize: n, Degenerate: true, Defined: true}
	}

	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return models.Coefficient{Value: 0, SampleSize: n, Degenerate: true, Defined: true}
	}

	return models.Coefficient{Value: r, SampleSize: n, Defined: true}
}
