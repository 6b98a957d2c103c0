package cluster

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ComputeQ returns the soft assignment of every embedding row to every
// centroid under a Student's t kernel with one degree of freedom:
//
//	q_ij proportional to 1 / (1 + ||z_i - mu_j||^2)
//
// rows normalized to sum to 1. An empty centroid set yields nil, the
// degenerate assignment callers must check for.
func ComputeQ(centroids *Centroids, Z *mat.Dense) *mat.Dense {
	k := centroids.K()
	if k == 0 {
		return nil
	}

	n, _ := Z.Dims()
	Q := mat.NewDense(n, k, nil)

	for i := 0; i < n; i++ {
		zi := Z.RawRowView(i)
		for j := 0; j < k; j++ {
			Q.Set(i, j, 1.0/(1.0+squaredDistance(zi, centroids.Vector(j))))
		}
		row := Q.RawRowView(i)
		floats.Scale(1.0/floats.Sum(row), row)
	}

	return Q
}

// ComputeP sharpens Q into the target distribution:
//
//	p_ij proportional to q_ij^2 / f_j,  f_j = sum_i q_ij
//
// rows renormalized to sum to 1. Squaring amplifies high-confidence
// assignments while the column mass f_j counters large-cluster bias.
// A nil Q yields nil.
func ComputeP(Q *mat.Dense) *mat.Dense {
	if Q == nil {
		return nil
	}

	n, k := Q.Dims()

	// Column mass
	f := make([]float64, k)
	for i := 0; i < n; i++ {
		floats.Add(f, Q.RawRowView(i))
	}

	P := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			q := Q.At(i, j)
			if f[j] > 0 {
				P.Set(i, j, q*q/f[j])
			}
		}
		row := P.RawRowView(i)
		floats.Scale(1.0/floats.Sum(row), row)
	}

	return P
}

// Loss returns the clustering loss KL(P||Q) averaged over nodes: the
// expected information lost when Q approximates the target P. It is 0 when
// Q equals P elementwise and 0 when either distribution is absent (P not
// yet computed, or Q degenerate).
func Loss(Q, P *mat.Dense) float64 {
	if Q == nil || P == nil {
		return 0
	}

	n, k := Q.Dims()
	pn, pk := P.Dims()
	if n != pn || k != pk {
		panic(mat.ErrShape)
	}

	var loss float64
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			p := P.At(i, j)
			if p <= 0 {
				continue
			}
			loss += p * math.Log(p/Q.At(i, j))
		}
	}

	return loss / float64(n)
}

// Gradients returns the derivatives of the averaged KL loss with respect to
// the embeddings and the centroid positions, holding P fixed:
//
//	dL/dz_i  =  (2/n) * sum_j s_ij (p_ij - q_ij)(z_i - mu_j)
//	dL/dmu_j = -(2/n) * sum_i s_ij (p_ij - q_ij)(z_i - mu_j)
//
// with s_ij = 1/(1 + ||z_i - mu_j||^2). The embedding term joins the encoder
// backward pass; the centroid term drives the Refiner. Degenerate inputs
// (nil Q or P, empty centroids) yield nil gradients.
func Gradients(Q, P, Z *mat.Dense, centroids *Centroids) (*mat.Dense, *mat.Dense) {
	k := centroids.K()
	if Q == nil || P == nil || k == 0 {
		return nil, nil
	}

	n, dim := Z.Dims()
	dZ := mat.NewDense(n, dim, nil)
	dCentroids := mat.NewDense(k, dim, nil)
	scale := 2.0 / float64(n)

	for i := 0; i < n; i++ {
		zi := Z.RawRowView(i)
		dzi := dZ.RawRowView(i)
		for j := 0; j < k; j++ {
			mu := centroids.Vector(j)
			s := 1.0 / (1.0 + squaredDistance(zi, mu))
			coef := scale * s * (P.At(i, j) - Q.At(i, j))
			dmu := dCentroids.RawRowView(j)
			for d := 0; d < dim; d++ {
				diff := zi[d] - mu[d]
				dzi[d] += coef * diff
				dmu[d] -= coef * diff
			}
		}
	}

	return dZ, dCentroids
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
