package seeding

import (
	"fmt"
	"sort"

	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/mat"

	"github.com/gilchrisn/gae-clustering/pkg/cluster"
	"github.com/gilchrisn/gae-clustering/pkg/graph"
)

// FastGreedySeeder partitions the graph hierarchically by removing the
// highest-betweenness edge until k connected components exist. A
// modularity-improvement stopping rule guards the loop: once a removal
// lowers the partition modularity below the best value seen, the graph has
// no finer community structure to cut along and seeding fails fast with
// ErrDegeneratePartition. One representative per component (highest weighted
// degree) contributes its embedding row as a centroid.
type FastGreedySeeder struct {
	verbose bool
}

// NewFastGreedySeeder creates a hierarchical edge-removal seeder
func NewFastGreedySeeder(config Config) *FastGreedySeeder {
	return &FastGreedySeeder{verbose: config.Verbose}
}

// Seed partitions the graph into k components and returns one representative
// embedding row per component
func (s *FastGreedySeeder) Seed(g *graph.Graph, Z *mat.Dense, k int) (*cluster.Centroids, error) {
	if err := validateSeedInput(g, Z, k); err != nil {
		return nil, err
	}

	wg, err := g.ToGonum()
	if err != nil {
		return nil, fmt.Errorf("seeding: %w", err)
	}

	components := topo.ConnectedComponents(wg)
	bestModularity := partitionModularity(wg, components)

	for len(components) < k {
		if !removeMaxBetweennessEdge(wg) {
			return nil, fmt.Errorf("%w: ran out of edges at %d of %d clusters",
				ErrDegeneratePartition, len(components), k)
		}

		components = topo.ConnectedComponents(wg)
		if len(components) >= k {
			break
		}

		q := partitionModularity(wg, components)
		if s.verbose {
			fmt.Printf("FastGreedy: %d components, modularity %.6f\n", len(components), q)
		}
		if q < bestModularity {
			return nil, fmt.Errorf("%w: modularity fell from %.6f to %.6f at %d of %d clusters",
				ErrDegeneratePartition, bestModularity, q, len(components), k)
		}
		bestModularity = q
	}

	return cluster.FromRows(Z, componentRepresentatives(g, components, k))
}

// removeMaxBetweennessEdge deletes the edge carrying the highest betweenness
// centrality, breaking ties toward the smallest node ID pair. Returns false
// when no edges remain.
func removeMaxBetweennessEdge(wg *simple.WeightedUndirectedGraph) bool {
	scores := network.EdgeBetweenness(wg)
	if len(scores) == 0 {
		return false
	}

	var bestKey [2]int64
	bestScore := -1.0
	for key, score := range scores {
		if score > bestScore || (score == bestScore && lessPair(key, bestKey)) {
			bestScore = score
			bestKey = key
		}
	}

	wg.RemoveEdge(bestKey[0], bestKey[1])
	return true
}

func lessPair(a, b [2]int64) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	return a[1] < b[1]
}

// partitionModularity scores the partition induced by the connected
// components: Q = sum over communities of in/2m - (tot/2m)^2, with in twice
// the intra-community weight and tot the community degree sum
func partitionModularity(wg *simple.WeightedUndirectedGraph, components [][]gonumgraph.Node) float64 {
	var totalWeight float64
	edges := wg.WeightedEdges()
	for edges.Next() {
		totalWeight += edges.WeightedEdge().Weight()
	}
	if totalWeight == 0 {
		return 0
	}
	m2 := 2 * totalWeight

	community := make(map[int64]int, wg.Nodes().Len())
	for ci, comp := range components {
		for _, node := range comp {
			community[node.ID()] = ci
		}
	}

	in := make([]float64, len(components))
	tot := make([]float64, len(components))
	edges = wg.WeightedEdges()
	for edges.Next() {
		edge := edges.WeightedEdge()
		cf := community[edge.From().ID()]
		ct := community[edge.To().ID()]
		w := edge.Weight()
		tot[cf] += w
		tot[ct] += w
		if cf == ct {
			in[cf] += 2 * w
		}
	}

	var q float64
	for ci := range in {
		q += in[ci]/m2 - (tot[ci]/m2)*(tot[ci]/m2)
	}
	return q
}

// componentRepresentatives picks one node per component, preferring larger
// components when more than k exist. The representative is the node with the
// highest weighted degree in the original graph, lowest index on ties.
func componentRepresentatives(g *graph.Graph, components [][]gonumgraph.Node, k int) []int {
	ordered := make([][]gonumgraph.Node, len(components))
	copy(ordered, components)
	sort.Slice(ordered, func(i, j int) bool {
		if len(ordered[i]) != len(ordered[j]) {
			return len(ordered[i]) > len(ordered[j])
		}
		return minNodeID(ordered[i]) < minNodeID(ordered[j])
	})

	if len(ordered) > k {
		ordered = ordered[:k]
	}

	reps := make([]int, 0, len(ordered))
	for _, comp := range ordered {
		best := -1
		for _, node := range comp {
			id := int(node.ID())
			if best == -1 || g.Degrees[id] > g.Degrees[best] || (g.Degrees[id] == g.Degrees[best] && id < best) {
				best = id
			}
		}
		reps = append(reps, best)
	}
	return reps
}

func minNodeID(comp []gonumgraph.Node) int64 {
	min := comp[0].ID()
	for _, node := range comp[1:] {
		if node.ID() < min {
			min = node.ID()
		}
	}
	return min
}
