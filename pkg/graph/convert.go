package graph

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/mat"
)

// ToGonum converts the graph to a gonum weighted undirected graph for use by
// the partitioning strategies. Node i maps to gonum node ID int64(i); isolated
// nodes are preserved and self-loops are dropped.
func (g *Graph) ToGonum() (*simple.WeightedUndirectedGraph, error) {
	if g == nil {
		return nil, fmt.Errorf("graph is nil")
	}
	if g.NumNodes == 0 {
		return nil, fmt.Errorf("graph has no nodes")
	}

	wg := simple.NewWeightedUndirectedGraph(0, math.Inf(1))

	// Add all nodes first so isolated nodes survive the conversion
	for i := 0; i < g.NumNodes; i++ {
		wg.AddNode(simple.Node(int64(i)))
	}

	for from := 0; from < g.NumNodes; from++ {
		for i, to := range g.Adjacency[from] {
			fromGID := int64(from)
			toGID := int64(to)

			if fromGID != toGID && !wg.HasEdgeBetween(fromGID, toGID) {
				wg.SetWeightedEdge(simple.WeightedEdge{
					F: simple.Node(fromGID),
					T: simple.Node(toGID),
					W: g.EdgeWeights[from][i],
				})
			}
		}
	}

	return wg, nil
}

// AdjacencyMatrix returns the dense symmetric adjacency matrix with edge
// weights as entries and a zero diagonal for self-loop-free graphs
func (g *Graph) AdjacencyMatrix() *mat.Dense {
	adj := mat.NewDense(g.NumNodes, g.NumNodes, nil)
	for from := 0; from < g.NumNodes; from++ {
		for i, to := range g.Adjacency[from] {
			adj.Set(from, to, g.EdgeWeights[from][i])
		}
	}
	return adj
}
