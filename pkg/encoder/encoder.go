// Package encoder implements the graph autoencoder: a two-layer attention
// message-passing encoder producing node embeddings, paired with an
// inner-product edge decoder for the reconstruction loss. Forward and
// backward passes are explicit so the training loop can inject additional
// gradient terms before parameters are updated.
package encoder

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/gilchrisn/gae-clustering/pkg/graph"
	"github.com/gilchrisn/gae-clustering/pkg/optim"
)

// Config contains the encoder architecture parameters
type Config struct {
	HiddenDim  int     `json:"hidden_dim" yaml:"hidden_dim"`   // First layer width
	OutputDim  int     `json:"output_dim" yaml:"output_dim"`   // Embedding dimension
	LeakySlope float64 `json:"leaky_slope" yaml:"leaky_slope"` // Negative slope for attention logits
	RandomSeed int64   `json:"random_seed" yaml:"random_seed"` // Weight init and negative sampling
}

// DefaultConfig returns the standard architecture: hidden width 64,
// embedding dimension 16
func DefaultConfig() Config {
	return Config{
		HiddenDim:  64,
		OutputDim:  16,
		LeakySlope: 0.2,
		RandomSeed: 42,
	}
}

// Validate checks the configuration for correctness
func (c Config) Validate() error {
	if c.HiddenDim <= 0 {
		return fmt.Errorf("hidden dimension must be positive, got %d", c.HiddenDim)
	}
	if c.OutputDim <= 0 {
		return fmt.Errorf("output dimension must be positive, got %d", c.OutputDim)
	}
	if c.LeakySlope <= 0 || c.LeakySlope >= 1 {
		return fmt.Errorf("leaky slope must be in (0, 1), got %f", c.LeakySlope)
	}
	return nil
}

// GAE is the two-layer attention autoencoder. Encode runs the forward pass
// and caches intermediates; Backward propagates an embedding gradient back
// into the parameter gradients exposed by Params.
type GAE struct {
	config Config
	inDim  int
	layer1 *attentionLayer
	layer2 *attentionLayer
	rng    *rand.Rand

	// message-passing structure captured at Encode time
	targets     [][]int
	edgeWeights [][]float64
	encoded     bool
}

// NewGAE creates an encoder for graphs with inChannels feature columns
func NewGAE(inChannels int, config Config) (*GAE, error) {
	if inChannels <= 0 {
		return nil, fmt.Errorf("encoder: input channels must be positive, got %d", inChannels)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("encoder: invalid config: %w", err)
	}

	rng := rand.New(rand.NewSource(config.RandomSeed))
	return &GAE{
		config: config,
		inDim:  inChannels,
		layer1: newAttentionLayer("layer1", inChannels, config.HiddenDim, config.LeakySlope, true, rng),
		layer2: newAttentionLayer("layer2", config.HiddenDim, config.OutputDim, config.LeakySlope, false, rng),
		rng:    rng,
	}, nil
}

// Encode runs the forward pass over the graph and returns the output
// layer's attention weights alongside the embedding matrix. Each returned
// edge carries the attention an aggregating node (To) pays to a message
// source (From); the weights for one node sum to 1 across its neighborhood,
// self-loop included.
func (g *GAE) Encode(gr *graph.Graph) ([]graph.Edge, *mat.Dense, error) {
	if gr == nil || gr.NumNodes == 0 {
		return nil, nil, fmt.Errorf("encoder: graph is empty")
	}
	if gr.Features == nil {
		return nil, nil, fmt.Errorf("encoder: graph has no node features")
	}
	if _, cols := gr.Features.Dims(); cols != g.inDim {
		return nil, nil, fmt.Errorf("encoder: graph has %d feature channels, encoder expects %d", cols, g.inDim)
	}

	g.buildMessageStructure(gr)

	hidden := g.layer1.forward(gr.Features, g.targets, g.edgeWeights)
	embeddings := g.layer2.forward(hidden, g.targets, g.edgeWeights)
	g.encoded = true

	attention := make([]graph.Edge, 0, len(g.targets)*2)
	for i, sources := range g.targets {
		for t, j := range sources {
			attention = append(attention, graph.Edge{From: j, To: i, Weight: g.layer2.alpha[i][t]})
		}
	}

	return attention, embeddings, nil
}

// Backward propagates an embedding gradient through both layers,
// accumulating into the parameter gradients. Encode must have been called
// on this structure first.
func (g *GAE) Backward(dZ *mat.Dense) error {
	if !g.encoded {
		return fmt.Errorf("encoder: backward called before encode")
	}
	rows, cols := dZ.Dims()
	zr, zc := g.layer2.act.Dims()
	if rows != zr || cols != zc {
		return fmt.Errorf("encoder: gradient is %dx%d, embeddings are %dx%d", rows, cols, zr, zc)
	}

	dHidden := g.layer2.backward(dZ, g.targets, g.edgeWeights)
	g.layer1.backward(dHidden, g.targets, g.edgeWeights)
	return nil
}

// Params exposes every trainable parameter for the optimizer
func (g *GAE) Params() []*optim.Param {
	return append(g.layer1.params(), g.layer2.params()...)
}

// buildMessageStructure records each node's message sources: its neighbors
// in adjacency order with a unit-weight self-loop appended last
func (g *GAE) buildMessageStructure(gr *graph.Graph) {
	g.targets = make([][]int, gr.NumNodes)
	g.edgeWeights = make([][]float64, gr.NumNodes)
	for i := 0; i < gr.NumNodes; i++ {
		sources := make([]int, 0, len(gr.Adjacency[i])+1)
		weights := make([]float64, 0, len(gr.Adjacency[i])+1)
		sources = append(sources, gr.Adjacency[i]...)
		weights = append(weights, gr.EdgeWeights[i]...)
		sources = append(sources, i)
		weights = append(weights, 1.0)
		g.targets[i] = sources
		g.edgeWeights[i] = weights
	}
}
