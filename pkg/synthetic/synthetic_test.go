package synthetic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/gae-clustering/pkg/evaluation"
)

func TestGenerateShape(t *testing.T) {
	config := Config{
		NumNodes:        40,
		NumClasses:      4,
		Homophily:       0.5,
		AverageDegree:   6,
		NumChannels:     16,
		ClassSeparation: 1.0,
		RandomSeed:      42,
	}

	g, err := Generate(config)
	require.NoError(t, err)

	assert.Equal(t, 40, g.NumNodes)
	assert.Equal(t, 16, g.NumChannels)

	rows, cols := g.Features.Dims()
	assert.Equal(t, 40, rows)
	assert.Equal(t, 16, cols)

	require.Len(t, g.Labels, 40)
	for i, label := range g.Labels {
		assert.Equal(t, i/10, label, "classes fill contiguous blocks")
	}

	require.NoError(t, g.Validate())
}

func TestGenerateRoundsClassSize(t *testing.T) {
	config := DefaultConfig()
	config.NumNodes = 25
	config.NumClasses = 4
	config.NumChannels = 8

	g, err := Generate(config)
	require.NoError(t, err)

	// round(25/4) = 6 nodes per class
	assert.Equal(t, 24, g.NumNodes)
}

func TestGenerateHomophilyBias(t *testing.T) {
	config := Config{
		NumNodes:        100,
		NumClasses:      2,
		Homophily:       0.9,
		AverageDegree:   8,
		NumChannels:     8,
		ClassSeparation: 1.0,
		RandomSeed:      42,
	}

	g, err := Generate(config)
	require.NoError(t, err)

	intra, inter := 0, 0
	for _, e := range g.EdgeList() {
		if g.Labels[e.From] == g.Labels[e.To] {
			intra++
		} else {
			inter++
		}
	}

	require.Positive(t, intra)
	assert.Greater(t, intra, 4*inter, "high homophily should keep most edges inside a class")
}

func TestGenerateLabelsRoundTrip(t *testing.T) {
	g, err := Generate(DefaultConfig())
	require.NoError(t, err)

	score, err := evaluation.NormalizedMutualInfo(g.Labels, g.Labels)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-12)
}

func TestGenerateDeterministic(t *testing.T) {
	config := DefaultConfig()
	config.NumNodes = 60
	config.NumChannels = 8

	g1, err := Generate(config)
	require.NoError(t, err)
	g2, err := Generate(config)
	require.NoError(t, err)

	assert.Equal(t, g1.NumEdges, g2.NumEdges)
	assert.Equal(t, g1.EdgeList(), g2.EdgeList())
}

func TestGenerateValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero nodes", func(c *Config) { c.NumNodes = 0 }},
		{"zero classes", func(c *Config) { c.NumClasses = 0 }},
		{"more classes than nodes", func(c *Config) { c.NumClasses = 1000 }},
		{"homophily above one", func(c *Config) { c.Homophily = 1.2 }},
		{"negative degree", func(c *Config) { c.AverageDegree = -1 }},
		{"zero channels", func(c *Config) { c.NumChannels = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			tc.mutate(&config)
			_, err := Generate(config)
			assert.Error(t, err)
		})
	}
}
