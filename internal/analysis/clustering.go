package analysis

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"solar-analytics/internal/models"
)

// maxKMeansIterations bounds the assignment loop on pathological input.
const maxKMeansIterations = 100

// Assign partitions observations into k clusters over featureFields using
// standardized k-means. Initialization is deterministic (rows sorted by their
// standardized feature sum, centroids seeded at even spread), so identical
// input always produces identical assignments. Observations missing any
// feature value are left unassigned. Cluster centroids are reported in raw
// feature space.
func Assign(observations []models.Observation, k int, featureFields []string) ([]models.Assignment, []models.Cluster, error) {
	if k <= 0 {
		return nil, nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidParameter, k)
	}
	if len(featureFields) == 0 {
		return nil, nil, fmt.Errorf("%w: no feature fields given", ErrInvalidParameter)
	}

	// Collect complete feature rows.
	rows := make([][]float64, 0, len(observations))
	rowObs := make([]int, 0, len(observations))
	for i := range observations {
		row := make([]float64, len(featureFields))
		complete := true
		for j, field := range featureFields {
			v, ok := observations[i].Field(field)
			if !ok {
				complete = false
				break
			}
			row[j] = v
		}
		if complete {
			rows = append(rows, row)
			rowObs = append(rowObs, i)
		}
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: no observations with complete features", ErrInsufficientData)
	}

	// Fewer rows than clusters: each point becomes its own cluster.
	if k > len(rows) {
		k = len(rows)
	}

	std, means, stds := standardize(rows, len(featureFields))
	centroids := seedCentroids(std, k)

	assignment := make([]int, len(std))
	for i := range assignment {
		assignment[i] = -1
	}

	for iter := 0; iter < maxKMeansIterations; iter++ {
		changed := false
		for i, row := range std {
			best := nearestCentroid(row, centroids)
			if assignment[i] != best {
				assignment[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		// Recompute centroids as member means; reseed empties from the row
		// farthest from their previous centroid so no cluster stays empty.
		counts := make([]int, k)
		next := make([][]float64, k)
		for c := range next {
			next[c] = make([]float64, len(featureFields))
		}
		for i, c := range assignment {
			counts[c]++
			floats.Add(next[c], std[i])
		}
		for c := range next {
			if counts[c] == 0 {
				copy(next[c], std[farthestRow(std, centroids[c])])
				continue
			}
			floats.Scale(1/float64(counts[c]), next[c])
		}
		centroids = next
	}

	// Duplicate rows can leave a cluster empty at convergence: a reseeded
	// centroid lands on a row that ties toward a lower-index cluster. Hand
	// each empty cluster one row from the largest cluster and refresh the
	// member means.
	counts := make([]int, k)
	for _, c := range assignment {
		counts[c]++
	}
	moved := false
	for c := range counts {
		if counts[c] > 0 {
			continue
		}
		donor, row := donorRow(std, assignment, centroids, counts)
		assignment[row] = c
		counts[donor]--
		counts[c]++
		moved = true
	}
	if moved {
		for c := range centroids {
			for j := range centroids[c] {
				centroids[c][j] = 0
			}
		}
		for i, c := range assignment {
			floats.Add(centroids[c], std[i])
		}
		for c := range centroids {
			floats.Scale(1/float64(counts[c]), centroids[c])
		}
	}

	assignments := make([]models.Assignment, len(std))
	clusters := make([]models.Cluster, k)
	for c := range clusters {
		clusters[c] = models.Cluster{
			ID:       c,
			Centroid: destandardize(centroids[c], means, stds),
		}
	}
	for i, c := range assignment {
		assignments[i] = models.Assignment{
			ObservationID: observations[rowObs[i]].ID,
			ClusterID:     c,
		}
		clusters[c].Size++
	}

	return assignments, clusters, nil
}

// standardize scales each feature column to zero mean and unit variance so no
// single feature dominates the distance metric.
func standardize(rows [][]float64, dims int) (std [][]float64, means, stds []float64) {
	means = make([]float64, dims)
	stds = make([]float64, dims)
	col := make([]float64, len(rows))
	for j := 0; j < dims; j++ {
		for i := range rows {
			col[i] = rows[i][j]
		}
		means[j], stds[j] = stat.MeanStdDev(col, nil)
	}

	std = make([][]float64, len(rows))
	for i := range rows {
		std[i] = make([]float64, dims)
		for j := 0; j < dims; j++ {
			if stds[j] == 0 {
				// Constant feature carries no distance information.
				continue
			}
			std[i][j] = (rows[i][j] - means[j]) / stds[j]
		}
	}
	return std, means, stds
}

func destandardize(centroid, means, stds []float64) []float64 {
	raw := make([]float64, len(centroid))
	for j := range centroid {
		raw[j] = means[j] + centroid[j]*stds[j]
	}
	return raw
}

// seedCentroids picks k starting centroids spread evenly across the rows
// ordered by their standardized feature sum. No randomness: reruns over the
// same snapshot yield the same seeds.
func seedCentroids(std [][]float64, k int) [][]float64 {
	order := make([]int, len(std))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return floats.Sum(std[order[a]]) < floats.Sum(std[order[b]])
	})

	centroids := make([][]float64, k)
	for c := 0; c < k; c++ {
		pos := 0
		if k > 1 {
			pos = c * (len(std) - 1) / (k - 1)
		}
		centroids[c] = make([]float64, len(std[0]))
		copy(centroids[c], std[order[pos]])
	}
	return centroids
}

// nearestCentroid returns the index of the closest centroid by Euclidean
// distance, lowest index winning ties.
func nearestCentroid(row []float64, centroids [][]float64) int {
	best := 0
	bestDist := floats.Distance(row, centroids[0], 2)
	for c := 1; c < len(centroids); c++ {
		if d := floats.Distance(row, centroids[c], 2); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

// donorRow picks the most populated cluster and its member farthest from
// that cluster's centroid. The donor always has at least two members when
// some other cluster is empty and the row count is at least k.
func donorRow(std [][]float64, assignment []int, centroids [][]float64, counts []int) (int, int) {
	donor := 0
	for c := 1; c < len(counts); c++ {
		if counts[c] > counts[donor] {
			donor = c
		}
	}
	row, rowDist := -1, 0.0
	for i, c := range assignment {
		if c != donor {
			continue
		}
		if d := floats.Distance(std[i], centroids[donor], 2); row == -1 || d > rowDist {
			row, rowDist = i, d
		}
	}
	return donor, row
}

// farthestRow returns the index of the row farthest from centroid.
func farthestRow(std [][]float64, centroid []float64) int {
	far := 0
	farDist := floats.Distance(std[0], centroid, 2)
	for i := 1; i < len(std); i++ {
		if d := floats.Distance(std[i], centroid, 2); d > farDist {
			far = i
			farDist = d
		}
	}
	return far
}
