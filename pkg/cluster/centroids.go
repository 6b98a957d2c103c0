// Package cluster implements the soft-assignment machinery for deep
// clustering: soft assignments Q under a Student's t kernel, the sharpened
// target distribution P, the KL clustering loss with its gradients, and
// gradient-driven centroid refinement.
//
// The canonical loss is KL(P||Q) averaged over nodes: non-negative,
// zero exactly when Q equals P, and differentiable in both the embeddings
// and the centroid positions.
package cluster

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Centroids is an ordered set of cluster centers in embedding space. The
// zero value and nil both behave as the empty set, which is the degenerate
// result of a failed seeding step.
type Centroids struct {
	vectors *mat.Dense // k x dim
}

// NewCentroids wraps a k x dim matrix of centroid positions
func NewCentroids(vectors *mat.Dense) *Centroids {
	return &Centroids{vectors: vectors}
}

// EmptyCentroids returns the degenerate empty centroid set
func EmptyCentroids() *Centroids {
	return &Centroids{}
}

// FromRows gathers the embedding rows of the given nodes as centroid
// positions, preserving order
func FromRows(Z *mat.Dense, nodes []int) (*Centroids, error) {
	rows, dim := Z.Dims()
	vectors := mat.NewDense(len(nodes), dim, nil)
	for i, node := range nodes {
		if node < 0 || node >= rows {
			return nil, fmt.Errorf("node index %d out of range [0, %d)", node, rows)
		}
		vectors.SetRow(i, Z.RawRowView(node))
	}
	return &Centroids{vectors: vectors}, nil
}

// K returns the number of centroids, 0 for the empty set
func (c *Centroids) K() int {
	if c == nil || c.vectors == nil {
		return 0
	}
	k, _ := c.vectors.Dims()
	return k
}

// Dim returns the embedding dimensionality, 0 for the empty set
func (c *Centroids) Dim() int {
	if c == nil || c.vectors == nil {
		return 0
	}
	_, dim := c.vectors.Dims()
	return dim
}

// Vector returns centroid j's position as a raw row view
func (c *Centroids) Vector(j int) []float64 {
	return c.vectors.RawRowView(j)
}

// Matrix exposes the underlying k x dim position matrix
func (c *Centroids) Matrix() *mat.Dense {
	if c == nil {
		return nil
	}
	return c.vectors
}

// Clone creates a deep copy of the centroid set
func (c *Centroids) Clone() *Centroids {
	if c == nil || c.vectors == nil {
		return EmptyCentroids()
	}
	return &Centroids{vectors: mat.DenseCopyOf(c.vectors)}
}
