package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// pairedEmbeddings returns four points forming two tight pairs around the
// two fixture centroids
func pairedEmbeddings() *mat.Dense {
	return mat.NewDense(4, 2, []float64{
		0.0, 0.0,
		0.1, 0.0,
		5.0, 5.0,
		5.1, 5.0,
	})
}

func pairedCentroids() *Centroids {
	return NewCentroids(mat.NewDense(2, 2, []float64{
		0.0, 0.0,
		5.0, 5.0,
	}))
}

func TestComputeQ(t *testing.T) {
	t.Run("RowsSumToOne", func(t *testing.T) {
		Q := ComputeQ(pairedCentroids(), pairedEmbeddings())
		require.NotNil(t, Q)

		n, _ := Q.Dims()
		for i := 0; i < n; i++ {
			assert.InDelta(t, 1.0, mat.Sum(Q.RowView(i)), 1e-12, "row %d", i)
		}
	})

	t.Run("PrefersNearCentroid", func(t *testing.T) {
		Q := ComputeQ(pairedCentroids(), pairedEmbeddings())
		require.NotNil(t, Q)

		assert.Greater(t, Q.At(0, 0), Q.At(0, 1))
		assert.Greater(t, Q.At(1, 0), Q.At(1, 1))
		assert.Greater(t, Q.At(2, 1), Q.At(2, 0))
		assert.Greater(t, Q.At(3, 1), Q.At(3, 0))
	})

	t.Run("EquidistantIsUniform", func(t *testing.T) {
		Z := mat.NewDense(1, 2, []float64{2.5, 2.5})
		Q := ComputeQ(pairedCentroids(), Z)
		require.NotNil(t, Q)

		assert.InDelta(t, 0.5, Q.At(0, 0), 1e-12)
		assert.InDelta(t, 0.5, Q.At(0, 1), 1e-12)
	})

	t.Run("EmptyCentroidsAreDegenerate", func(t *testing.T) {
		assert.Nil(t, ComputeQ(EmptyCentroids(), pairedEmbeddings()))
		assert.Nil(t, ComputeQ(nil, pairedEmbeddings()))
	})
}

func TestComputeP(t *testing.T) {
	t.Run("RowsSumToOne", func(t *testing.T) {
		Q := ComputeQ(pairedCentroids(), pairedEmbeddings())
		P := ComputeP(Q)
		require.NotNil(t, P)

		n, _ := P.Dims()
		for i := 0; i < n; i++ {
			assert.InDelta(t, 1.0, mat.Sum(P.RowView(i)), 1e-12, "row %d", i)
		}
	})

	t.Run("SharpensAssignments", func(t *testing.T) {
		Q := mat.NewDense(4, 2, []float64{
			0.9, 0.1,
			0.9, 0.1,
			0.1, 0.9,
			0.1, 0.9,
		})
		P := ComputeP(Q)
		require.NotNil(t, P)

		// Squaring pushes confident assignments closer to 1
		assert.Greater(t, P.At(0, 0), Q.At(0, 0))
		assert.Greater(t, P.At(2, 1), Q.At(2, 1))
	})

	t.Run("NilIsNil", func(t *testing.T) {
		assert.Nil(t, ComputeP(nil))
	})
}

func TestLoss(t *testing.T) {
	t.Run("ZeroAtEquality", func(t *testing.T) {
		cases := []*mat.Dense{
			mat.NewDense(2, 2, []float64{0.5, 0.5, 0.5, 0.5}),
			mat.NewDense(2, 2, []float64{0.9, 0.1, 0.2, 0.8}),
			ComputeQ(pairedCentroids(), pairedEmbeddings()),
		}
		for _, Q := range cases {
			assert.Zero(t, Loss(Q, Q))
		}
	})

	t.Run("NonNegative", func(t *testing.T) {
		Q := ComputeQ(pairedCentroids(), pairedEmbeddings())
		P := ComputeP(Q)
		assert.GreaterOrEqual(t, Loss(Q, P), 0.0)
	})

	t.Run("KnownValue", func(t *testing.T) {
		Q := mat.NewDense(1, 2, []float64{0.5, 0.5})
		P := mat.NewDense(1, 2, []float64{0.8, 0.2})

		// 0.8*ln(0.8/0.5) + 0.2*ln(0.2/0.5)
		assert.InDelta(t, 0.192745, Loss(Q, P), 1e-6)
	})

	t.Run("AbsentDistributionsAreZero", func(t *testing.T) {
		Q := mat.NewDense(1, 2, []float64{0.5, 0.5})
		assert.Zero(t, Loss(Q, nil))
		assert.Zero(t, Loss(nil, Q))
	})
}

func TestGradients(t *testing.T) {
	t.Run("MatchesFiniteDifferences", func(t *testing.T) {
		Z := mat.NewDense(3, 2, []float64{
			0.5, 1.2,
			2.0, 0.3,
			1.0, 1.0,
		})
		centroids := NewCentroids(mat.NewDense(2, 2, []float64{
			0.0, 0.0,
			2.0, 1.0,
		}))

		Q := ComputeQ(centroids, Z)
		P := ComputeP(Q)
		dZ, dCentroids := Gradients(Q, P, Z, centroids)
		require.NotNil(t, dZ)
		require.NotNil(t, dCentroids)

		const h = 1e-6

		lossAt := func(z *mat.Dense, c *Centroids) float64 {
			return Loss(ComputeQ(c, z), P)
		}

		n, dim := Z.Dims()
		for i := 0; i < n; i++ {
			for d := 0; d < dim; d++ {
				orig := Z.At(i, d)
				Z.Set(i, d, orig+h)
				plus := lossAt(Z, centroids)
				Z.Set(i, d, orig-h)
				minus := lossAt(Z, centroids)
				Z.Set(i, d, orig)

				numeric := (plus - minus) / (2 * h)
				assert.InDelta(t, numeric, dZ.At(i, d), 1e-5, "dZ[%d][%d]", i, d)
			}
		}

		for j := 0; j < centroids.K(); j++ {
			for d := 0; d < dim; d++ {
				orig := centroids.Matrix().At(j, d)
				centroids.Matrix().Set(j, d, orig+h)
				plus := lossAt(Z, centroids)
				centroids.Matrix().Set(j, d, orig-h)
				minus := lossAt(Z, centroids)
				centroids.Matrix().Set(j, d, orig)

				numeric := (plus - minus) / (2 * h)
				assert.InDelta(t, numeric, dCentroids.At(j, d), 1e-5, "dCentroids[%d][%d]", j, d)
			}
		}
	})

	t.Run("DegenerateInputsAreNil", func(t *testing.T) {
		Z := pairedEmbeddings()
		Q := ComputeQ(pairedCentroids(), Z)

		dZ, dC := Gradients(nil, nil, Z, pairedCentroids())
		assert.Nil(t, dZ)
		assert.Nil(t, dC)

		dZ, dC = Gradients(Q, ComputeP(Q), Z, EmptyCentroids())
		assert.Nil(t, dZ)
		assert.Nil(t, dC)
	})
}

func TestRefiner(t *testing.T) {
	t.Run("AppliesDescentStep", func(t *testing.T) {
		centroids := NewCentroids(mat.NewDense(2, 2, []float64{
			1.0, 1.0,
			2.0, 2.0,
		}))
		grad := mat.NewDense(2, 2, []float64{
			0.5, -1.0,
			0.0, 2.0,
		})

		NewRefiner(0.1).Refine(centroids, grad)

		assert.InDelta(t, 0.95, centroids.Matrix().At(0, 0), 1e-12)
		assert.InDelta(t, 1.10, centroids.Matrix().At(0, 1), 1e-12)
		assert.InDelta(t, 2.00, centroids.Matrix().At(1, 0), 1e-12)
		assert.InDelta(t, 1.80, centroids.Matrix().At(1, 1), 1e-12)
	})

	t.Run("EmptySetIsNoOp", func(t *testing.T) {
		r := NewRefiner(0.1)
		r.Refine(EmptyCentroids(), nil)
		r.Refine(nil, mat.NewDense(1, 1, []float64{1}))
	})
}
