package encoder

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/gilchrisn/gae-clustering/pkg/optim"
)

// attentionLayer is a single-head graph attention layer. Each node
// aggregates the projected features of its neighborhood (self-loop included)
// under softmax attention scored by learned source and destination vectors
// plus a scalar edge-weight term.
type attentionLayer struct {
	weight  *optim.Param // inDim x outDim projection
	attSrc  *optim.Param // 1 x outDim, scores the message source
	attDst  *optim.Param // 1 x outDim, scores the aggregating node
	attEdge *optim.Param // 1 x 1, scores the edge weight
	slope   float64      // leaky ReLU negative slope on attention logits
	relu    bool         // ReLU the aggregated output

	// forward cache consumed by backward
	input *mat.Dense  // layer input, not owned
	proj  *mat.Dense  // input * weight
	raw   [][]float64 // attention logits before leaky ReLU
	alpha [][]float64 // attention after softmax, rows sum to 1
	act   *mat.Dense  // layer output
}

func newAttentionLayer(prefix string, inDim, outDim int, slope float64, relu bool, rng *rand.Rand) *attentionLayer {
	l := &attentionLayer{
		weight:  optim.NewParam(prefix+".weight", inDim, outDim),
		attSrc:  optim.NewParam(prefix+".att_src", 1, outDim),
		attDst:  optim.NewParam(prefix+".att_dst", 1, outDim),
		attEdge: optim.NewParam(prefix+".att_edge", 1, 1),
		slope:   slope,
		relu:    relu,
	}
	glorotInit(l.weight.Value, inDim, outDim, rng)
	glorotInit(l.attSrc.Value, outDim, 1, rng)
	glorotInit(l.attDst.Value, outDim, 1, rng)
	return l
}

// glorotInit fills m with uniform values in [-limit, limit] where
// limit = sqrt(6 / (fanIn + fanOut))
func glorotInit(m *mat.Dense, fanIn, fanOut int, rng *rand.Rand) {
	limit := math.Sqrt(6.0 / float64(fanIn+fanOut))
	data := m.RawMatrix().Data
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * limit
	}
}

func (l *attentionLayer) params() []*optim.Param {
	return []*optim.Param{l.weight, l.attSrc, l.attDst, l.attEdge}
}

// forward computes the layer output and caches every intermediate needed by
// backward. targets[i] lists the message sources for node i with the
// self-loop last; edgeWeights is parallel to targets.
func (l *attentionLayer) forward(H *mat.Dense, targets [][]int, edgeWeights [][]float64) *mat.Dense {
	n, _ := H.Dims()
	_, outDim := l.weight.Value.Dims()

	proj := mat.NewDense(n, outDim, nil)
	proj.Mul(H, l.weight.Value)

	aSrc := l.attSrc.Value.RawRowView(0)
	aDst := l.attDst.Value.RawRowView(0)
	aEdge := l.attEdge.Value.At(0, 0)

	raw := make([][]float64, n)
	alpha := make([][]float64, n)
	out := mat.NewDense(n, outDim, nil)

	for i := 0; i < n; i++ {
		dstScore := floats.Dot(aDst, proj.RawRowView(i))

		logits := make([]float64, len(targets[i]))
		scores := make([]float64, len(targets[i]))
		maxScore := math.Inf(-1)
		for t, j := range targets[i] {
			logits[t] = dstScore + floats.Dot(aSrc, proj.RawRowView(j)) + aEdge*edgeWeights[i][t]
			s := logits[t]
			if s < 0 {
				s *= l.slope
			}
			scores[t] = s
			if s > maxScore {
				maxScore = s
			}
		}
		raw[i] = logits

		var total float64
		for t := range scores {
			scores[t] = math.Exp(scores[t] - maxScore)
			total += scores[t]
		}
		for t := range scores {
			scores[t] /= total
		}
		alpha[i] = scores

		row := out.RawRowView(i)
		for t, j := range targets[i] {
			floats.AddScaled(row, scores[t], proj.RawRowView(j))
		}
		if l.relu {
			for d := range row {
				if row[d] < 0 {
					row[d] = 0
				}
			}
		}
	}

	l.input = H
	l.proj = proj
	l.raw = raw
	l.alpha = alpha
	l.act = out
	return out
}

// backward accumulates parameter gradients from dOut and returns the
// gradient with respect to the layer input. Must follow a forward call on
// the same structure.
func (l *attentionLayer) backward(dOut *mat.Dense, targets [][]int, edgeWeights [][]float64) *mat.Dense {
	n, outDim := l.proj.Dims()

	aSrc := l.attSrc.Value.RawRowView(0)
	aDst := l.attDst.Value.RawRowView(0)
	gradSrc := l.attSrc.Grad.RawRowView(0)
	gradDst := l.attDst.Grad.RawRowView(0)
	var gradEdge float64

	dProj := mat.NewDense(n, outDim, nil)
	dPre := make([]float64, outDim)

	for i := 0; i < n; i++ {
		copy(dPre, dOut.RawRowView(i))
		if l.relu {
			act := l.act.RawRowView(i)
			for d := range dPre {
				if act[d] <= 0 {
					dPre[d] = 0
				}
			}
		}

		alpha := l.alpha[i]
		dAlpha := make([]float64, len(alpha))
		for t, j := range targets[i] {
			dAlpha[t] = floats.Dot(dPre, l.proj.RawRowView(j))
			floats.AddScaled(dProj.RawRowView(j), alpha[t], dPre)
		}

		// softmax then leaky ReLU backward
		dot := floats.Dot(alpha, dAlpha)
		for t, j := range targets[i] {
			dLogit := alpha[t] * (dAlpha[t] - dot)
			if l.raw[i][t] < 0 {
				dLogit *= l.slope
			}
			floats.AddScaled(gradDst, dLogit, l.proj.RawRowView(i))
			floats.AddScaled(gradSrc, dLogit, l.proj.RawRowView(j))
			gradEdge += dLogit * edgeWeights[i][t]
			floats.AddScaled(dProj.RawRowView(i), dLogit, aDst)
			floats.AddScaled(dProj.RawRowView(j), dLogit, aSrc)
		}
	}

	l.attEdge.Grad.Set(0, 0, l.attEdge.Grad.At(0, 0)+gradEdge)

	var dWeight mat.Dense
	dWeight.Mul(l.input.T(), dProj)
	l.weight.Grad.Add(l.weight.Grad, &dWeight)

	_, inDim := l.input.Dims()
	dInput := mat.NewDense(n, inDim, nil)
	dInput.Mul(dProj, l.weight.Value.T())
	return dInput
}
