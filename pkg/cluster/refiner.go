package cluster

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Refiner moves centroid positions by explicit gradient steps. Centroids
// start as artifacts of a discrete seeding step, so they sit outside the
// primary optimizer's parameter set; the refiner is the post-backward hook
// that lets them track the clustering loss anyway. The orchestrator decides
// when refinement applies (never on the first interaction, never on a
// zero-loss epoch).
type Refiner struct {
	StepSize float64
}

// NewRefiner creates a refiner with the given step size
func NewRefiner(stepSize float64) *Refiner {
	return &Refiner{StepSize: stepSize}
}

// Refine applies one in-place gradient descent step to every centroid.
// Empty centroid sets and nil gradients are a no-op.
func (r *Refiner) Refine(centroids *Centroids, dCentroids *mat.Dense) {
	k := centroids.K()
	if k == 0 || dCentroids == nil {
		return
	}

	for j := 0; j < k; j++ {
		floats.AddScaled(centroids.Vector(j), -r.StepSize, dCentroids.RawRowView(j))
	}
}
