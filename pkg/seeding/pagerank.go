package seeding

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/mat"

	"github.com/gilchrisn/gae-clustering/pkg/cluster"
	"github.com/gilchrisn/gae-clustering/pkg/graph"
)

// PageRankSeeder ranks nodes by PageRank importance over the weighted graph
// and takes the top-k distinct nodes; their embedding rows become the
// centroid positions.
type PageRankSeeder struct {
	dampingFactor float64
	tolerance     float64
}

// NewPageRankSeeder creates a PageRank seeder with the given configuration
func NewPageRankSeeder(config Config) *PageRankSeeder {
	if config.DampingFactor <= 0 {
		config.DampingFactor = 0.85 // Standard damping factor
	}
	if config.Tolerance <= 0 {
		config.Tolerance = 1e-6
	}
	return &PageRankSeeder{
		dampingFactor: config.DampingFactor,
		tolerance:     config.Tolerance,
	}
}

// Seed returns the embedding rows of the k highest-ranked nodes
func (s *PageRankSeeder) Seed(g *graph.Graph, Z *mat.Dense, k int) (*cluster.Centroids, error) {
	if err := validateSeedInput(g, Z, k); err != nil {
		return nil, err
	}

	wg, err := g.ToGonum()
	if err != nil {
		return nil, fmt.Errorf("seeding: %w", err)
	}

	scores := network.PageRank(undirectedToDirected(wg), s.dampingFactor, s.tolerance)
	if len(scores) == 0 {
		return nil, fmt.Errorf("seeding: PageRank computation returned no scores")
	}

	// Rank by score descending, node ID ascending on ties for determinism
	ranked := make([]int64, 0, len(scores))
	for id := range scores {
		ranked = append(ranked, id)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if scores[ranked[i]] != scores[ranked[j]] {
			return scores[ranked[i]] > scores[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})

	top := make([]int, k)
	for i := 0; i < k; i++ {
		top[i] = int(ranked[i])
	}

	return cluster.FromRows(Z, top)
}

// undirectedToDirected expands each undirected edge into both directed
// orientations, preserving weights, since PageRank operates on directed
// graphs
func undirectedToDirected(weighted *simple.WeightedUndirectedGraph) *simple.WeightedDirectedGraph {
	directed := simple.NewWeightedDirectedGraph(0, math.Inf(1))

	nodes := weighted.Nodes()
	for nodes.Next() {
		directed.AddNode(nodes.Node())
	}

	edges := weighted.WeightedEdges()
	for edges.Next() {
		edge := edges.WeightedEdge()
		directed.SetWeightedEdge(simple.WeightedEdge{F: edge.From(), T: edge.To(), W: edge.Weight()})
		directed.SetWeightedEdge(simple.WeightedEdge{F: edge.To(), T: edge.From(), W: edge.Weight()})
	}

	return directed
}
