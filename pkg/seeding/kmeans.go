package seeding

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/gilchrisn/gae-clustering/pkg/cluster"
	"github.com/gilchrisn/gae-clustering/pkg/graph"
)

// KMeansSeeder clusters the embedding rows directly: Lloyd iterations with
// k-means++ initialization, multiple seeded restarts keeping the lowest
// within-cluster sum of squares, and empty-cluster reinitialization from the
// farthest point. Centroids are the final cluster means.
type KMeansSeeder struct {
	config Config
}

// NewKMeansSeeder creates a k-means seeder with the given configuration
func NewKMeansSeeder(config Config) *KMeansSeeder {
	if config.MaxIterations <= 0 {
		config.MaxIterations = 100
	}
	if config.NumRestarts <= 0 {
		config.NumRestarts = 1
	}
	if config.ConvergenceThreshold <= 0 {
		config.ConvergenceThreshold = 1e-6
	}
	return &KMeansSeeder{config: config}
}

// Seed clusters Z into k groups and returns the cluster means. Fails with
// ErrNonFiniteEmbeddings if Z contains NaN or Inf entries.
func (s *KMeansSeeder) Seed(g *graph.Graph, Z *mat.Dense, k int) (*cluster.Centroids, error) {
	if err := validateSeedInput(g, Z, k); err != nil {
		return nil, err
	}
	if !matIsFinite(Z) {
		return nil, ErrNonFiniteEmbeddings
	}

	var best *mat.Dense
	bestObjective := math.Inf(1)

	for restart := 0; restart < s.config.NumRestarts; restart++ {
		rng := rand.New(rand.NewSource(s.config.RandomSeed + int64(restart)))
		centroids, objective := s.runLloyd(Z, k, rng)
		if objective < bestObjective {
			bestObjective = objective
			best = centroids
		}
	}

	return cluster.NewCentroids(best), nil
}

// runLloyd executes one k-means run and returns the centroids with the final
// within-cluster sum of squares
func (s *KMeansSeeder) runLloyd(Z *mat.Dense, k int, rng *rand.Rand) (*mat.Dense, float64) {
	n, dim := Z.Dims()

	// Squared norms stay fixed; distances use ||x||^2 + ||c||^2 - 2*(x.c)
	xNorms := make([]float64, n)
	for i := 0; i < n; i++ {
		row := Z.RawRowView(i)
		xNorms[i] = floats.Dot(row, row)
	}

	centroids := s.initPlusPlus(Z, xNorms, k, rng)
	cNorms := centroidNorms(centroids)

	assignments := make([]int, n)
	counts := make([]int, k)
	prevObjective := math.Inf(1)
	var objective float64

	for iter := 0; iter < s.config.MaxIterations; iter++ {
		// Assignment step
		for j := range counts {
			counts[j] = 0
		}
		objective = 0
		for i := 0; i < n; i++ {
			row := Z.RawRowView(i)
			minDist := math.Inf(1)
			minJ := 0
			for j := 0; j < k; j++ {
				dist := xNorms[i] + cNorms[j] - 2*floats.Dot(row, centroids.RawRowView(j))
				if dist < 0 {
					dist = 0
				}
				if dist < minDist {
					minDist = dist
					minJ = j
				}
			}
			assignments[i] = minJ
			counts[minJ]++
			objective += minDist
		}

		if !math.IsInf(prevObjective, 1) {
			improvement := (prevObjective - objective) / math.Max(objective, 1e-12)
			if improvement >= 0 && improvement < s.config.ConvergenceThreshold {
				break
			}
		}
		prevObjective = objective

		// Update step: centroids become cluster means
		next := mat.NewDense(k, dim, nil)
		for i := 0; i < n; i++ {
			floats.Add(next.RawRowView(assignments[i]), Z.RawRowView(i))
		}
		for j := 0; j < k; j++ {
			if counts[j] > 0 {
				floats.Scale(1.0/float64(counts[j]), next.RawRowView(j))
			}
		}
		centroids = next

		s.reinitializeEmptyClusters(Z, xNorms, centroids, assignments, counts)
		cNorms = centroidNorms(centroids)
	}

	return centroids, objective
}

// initPlusPlus picks initial centroids with k-means++: the first uniformly,
// each following one sampled proportionally to its squared distance from the
// nearest centroid chosen so far
func (s *KMeansSeeder) initPlusPlus(Z *mat.Dense, xNorms []float64, k int, rng *rand.Rand) *mat.Dense {
	n, dim := Z.Dims()
	centroids := mat.NewDense(k, dim, nil)

	first := rng.Intn(n)
	centroids.SetRow(0, Z.RawRowView(first))

	distances := make([]float64, n)
	for i := range distances {
		distances[i] = math.Inf(1)
	}

	for c := 1; c < k; c++ {
		prev := centroids.RawRowView(c - 1)
		prevNorm := floats.Dot(prev, prev)

		var total float64
		for i := 0; i < n; i++ {
			dist := xNorms[i] + prevNorm - 2*floats.Dot(Z.RawRowView(i), prev)
			if dist < 0 {
				dist = 0
			}
			if dist < distances[i] {
				distances[i] = dist
			}
			total += distances[i]
		}

		// All points coincide with a centroid already
		if total == 0 {
			centroids.SetRow(c, Z.RawRowView(rng.Intn(n)))
			continue
		}

		target := rng.Float64() * total
		var cumulative float64
		selected := n - 1
		for i, d := range distances {
			cumulative += d
			if cumulative >= target {
				selected = i
				break
			}
		}
		centroids.SetRow(c, Z.RawRowView(selected))
	}

	return centroids
}

// reinitializeEmptyClusters moves every empty centroid onto the point
// farthest from its assigned centroid
func (s *KMeansSeeder) reinitializeEmptyClusters(Z *mat.Dense, xNorms []float64, centroids *mat.Dense, assignments []int, counts []int) {
	k, _ := centroids.Dims()
	n, _ := Z.Dims()

	for j := 0; j < k; j++ {
		if counts[j] != 0 {
			continue
		}

		maxDist := -1.0
		maxIdx := 0
		for i := 0; i < n; i++ {
			c := centroids.RawRowView(assignments[i])
			dist := xNorms[i] + floats.Dot(c, c) - 2*floats.Dot(Z.RawRowView(i), c)
			if dist > maxDist {
				maxDist = dist
				maxIdx = i
			}
		}
		centroids.SetRow(j, Z.RawRowView(maxIdx))
	}
}

func centroidNorms(centroids *mat.Dense) []float64 {
	k, _ := centroids.Dims()
	norms := make([]float64, k)
	for j := 0; j < k; j++ {
		row := centroids.RawRowView(j)
		norms[j] = floats.Dot(row, row)
	}
	return norms
}

func matIsFinite(m *mat.Dense) bool {
	for _, v := range m.RawMatrix().Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
