package encoder

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// lossEpsilon guards the logs against exact 0 and 1 probabilities
const lossEpsilon = 1e-15

// ReconstructionLoss scores how well inner products of the embeddings
// recover the graph's edges: binary cross-entropy over the given positive
// edges plus an equal number of uniformly sampled non-edges. Returns the
// loss and its gradient with respect to the embeddings.
func (g *GAE) ReconstructionLoss(Z *mat.Dense, edges [][2]int) (float64, *mat.Dense, error) {
	if Z == nil {
		return 0, nil, fmt.Errorf("encoder: reconstruction loss needs embeddings")
	}
	n, dim := Z.Dims()
	if len(edges) == 0 {
		return 0, nil, fmt.Errorf("encoder: reconstruction loss needs at least one edge")
	}
	for _, e := range edges {
		if e[0] < 0 || e[0] >= n || e[1] < 0 || e[1] >= n {
			return 0, nil, fmt.Errorf("encoder: edge (%d,%d) out of range for %d nodes", e[0], e[1], n)
		}
	}

	dZ := mat.NewDense(n, dim, nil)

	present := make(map[[2]int]bool, len(edges))
	for _, e := range edges {
		present[e] = true
	}

	var posLoss float64
	posScale := 1.0 / float64(len(edges))
	for _, e := range edges {
		zi, zj := Z.RawRowView(e[0]), Z.RawRowView(e[1])
		s := sigmoid(floats.Dot(zi, zj))
		posLoss -= math.Log(s + lossEpsilon)
		coeff := -(1 - s) * posScale
		floats.AddScaled(dZ.RawRowView(e[0]), coeff, zj)
		floats.AddScaled(dZ.RawRowView(e[1]), coeff, zi)
	}
	posLoss *= posScale

	var negLoss float64
	negatives := g.sampleNegativeEdges(n, len(edges), present)
	if len(negatives) > 0 {
		negScale := 1.0 / float64(len(negatives))
		for _, e := range negatives {
			zi, zj := Z.RawRowView(e[0]), Z.RawRowView(e[1])
			s := sigmoid(floats.Dot(zi, zj))
			negLoss -= math.Log(1 - s + lossEpsilon)
			coeff := s * negScale
			floats.AddScaled(dZ.RawRowView(e[0]), coeff, zj)
			floats.AddScaled(dZ.RawRowView(e[1]), coeff, zi)
		}
		negLoss *= negScale
	}

	return posLoss + negLoss, dZ, nil
}

// sampleNegativeEdges draws up to count node pairs that are neither
// self-loops nor present edges. Dense graphs may yield fewer than count;
// the attempt budget keeps complete graphs from looping forever.
func (g *GAE) sampleNegativeEdges(n, count int, present map[[2]int]bool) [][2]int {
	if n < 2 {
		return nil
	}

	negatives := make([][2]int, 0, count)
	budget := 10 * count
	for attempt := 0; attempt < budget && len(negatives) < count; attempt++ {
		i := g.rng.Intn(n)
		j := g.rng.Intn(n)
		if i == j || present[[2]int{i, j}] || present[[2]int{j, i}] {
			continue
		}
		negatives = append(negatives, [2]int{i, j})
	}
	return negatives
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
