// Package seeding discovers initial cluster centroids from a graph and its
// node embeddings. Four interchangeable strategies are provided: k-means
// over the embeddings, PageRank importance ranking, hierarchical
// edge-removal partitioning, and k-core decomposition.
package seeding

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/gilchrisn/gae-clustering/pkg/cluster"
	"github.com/gilchrisn/gae-clustering/pkg/graph"
)

// Sentinel errors reported by the seeding strategies
var (
	ErrUnknownStrategy     = errors.New("seeding: unknown strategy")
	ErrNonFiniteEmbeddings = errors.New("seeding: embeddings contain non-finite values")
	ErrDegeneratePartition = errors.New("seeding: partition produced fewer clusters than requested")
	ErrEmptyGraph          = errors.New("seeding: graph has no nodes")
	ErrTooFewNodes         = errors.New("seeding: graph has fewer nodes than requested clusters")
)

// Strategy identifies a centroid seeding algorithm
type Strategy int

const (
	StrategyUnknown Strategy = iota
	StrategyKMeans
	StrategyPageRank
	StrategyFastGreedy
	StrategyKCore
)

// String returns the configuration name of the strategy
func (s Strategy) String() string {
	switch s {
	case StrategyKMeans:
		return "KMeans"
	case StrategyPageRank:
		return "PageRank"
	case StrategyFastGreedy:
		return "FastGreedy"
	case StrategyKCore:
		return "KCore"
	default:
		return "Unknown"
	}
}

// ParseStrategy maps a configuration name to its Strategy. Unknown names
// return StrategyUnknown with ErrUnknownStrategy.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(name) {
	case "kmeans", "k-means":
		return StrategyKMeans, nil
	case "pagerank", "page-rank":
		return StrategyPageRank, nil
	case "fastgreedy", "fast-greedy":
		return StrategyFastGreedy, nil
	case "kcore", "k-core":
		return StrategyKCore, nil
	default:
		return StrategyUnknown, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Seeder produces k initial centroids from a graph and its embeddings
type Seeder interface {
	Seed(g *graph.Graph, Z *mat.Dense, k int) (*cluster.Centroids, error)
}

// Config contains shared configuration for the seeding strategies
type Config struct {
	RandomSeed           int64   `json:"random_seed"`           // For reproducible k-means restarts
	MaxIterations        int     `json:"max_iterations"`        // Lloyd iteration cap
	NumRestarts          int     `json:"num_restarts"`          // Independent k-means restarts
	ConvergenceThreshold float64 `json:"convergence_threshold"` // Centroid movement tolerance
	DampingFactor        float64 `json:"damping_factor"`        // PageRank damping
	Tolerance            float64 `json:"tolerance"`             // PageRank convergence tolerance
	Verbose              bool    `json:"verbose"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		RandomSeed:           42,
		MaxIterations:        100,
		NumRestarts:          5,
		ConvergenceThreshold: 1e-6,
		DampingFactor:        0.85,
		Tolerance:            1e-6,
		Verbose:              false,
	}
}

// NewSeeder returns the Seeder implementing the given strategy
func NewSeeder(strategy Strategy, config Config) (Seeder, error) {
	switch strategy {
	case StrategyKMeans:
		return NewKMeansSeeder(config), nil
	case StrategyPageRank:
		return NewPageRankSeeder(config), nil
	case StrategyFastGreedy:
		return NewFastGreedySeeder(config), nil
	case StrategyKCore:
		return NewKCoreSeeder(config), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownStrategy, strategy)
	}
}

// Seed produces k centroids with the given strategy. Unknown strategies and
// recoverable strategy failures return the empty centroid set alongside the
// error so the caller can continue in a visibly degenerate state; only
// ErrDegeneratePartition aborts with no usable set at all.
func Seed(g *graph.Graph, Z *mat.Dense, k int, strategy Strategy, config Config) (*cluster.Centroids, error) {
	seeder, err := NewSeeder(strategy, config)
	if err != nil {
		return cluster.EmptyCentroids(), err
	}

	centroids, err := seeder.Seed(g, Z, k)
	if err != nil {
		if errors.Is(err, ErrDegeneratePartition) {
			return nil, err
		}
		return cluster.EmptyCentroids(), err
	}

	if config.Verbose {
		fmt.Printf("Seeded %d centroids using %v strategy\n", centroids.K(), strategy)
	}

	return centroids, nil
}

// validateSeedInput runs the checks common to every strategy
func validateSeedInput(g *graph.Graph, Z *mat.Dense, k int) error {
	if g == nil || g.NumNodes == 0 {
		return ErrEmptyGraph
	}
	if k <= 0 {
		return fmt.Errorf("seeding: number of clusters must be positive, got %d", k)
	}
	if g.NumNodes < k {
		return fmt.Errorf("%w: %d nodes, %d clusters", ErrTooFewNodes, g.NumNodes, k)
	}
	rows, _ := Z.Dims()
	if rows != g.NumNodes {
		return fmt.Errorf("seeding: embedding matrix has %d rows, graph has %d nodes", rows, g.NumNodes)
	}
	return nil
}
