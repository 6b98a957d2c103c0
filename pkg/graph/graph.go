// Package graph provides the weighted attributed graph model shared by the
// encoder, the centroid seeding strategies, and the training loop.
package graph

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Graph represents a weighted undirected attributed graph with integer node indices
type Graph struct {
	NumNodes    int         `json:"num_nodes"`
	NumChannels int         `json:"num_channels"`
	Features    *mat.Dense  `json:"-"`                // Node features (NumNodes x NumChannels)
	Labels      []int       `json:"labels,omitempty"` // Ground-truth cluster per node (optional)
	Degrees     []float64   `json:"degrees"`
	Adjacency   [][]int     `json:"-"` // Adjacency list (neighbor indices)
	EdgeWeights [][]float64 `json:"-"` // Edge weights corresponding to adjacency
	NumEdges    int         `json:"num_edges"`
	TotalWeight float64     `json:"total_weight"`
}

// Edge is a single undirected edge with its weight
type Edge struct {
	From   int     `json:"from"`
	To     int     `json:"to"`
	Weight float64 `json:"weight"`
}

// NewGraph creates a new graph with the given number of nodes and no edges
func NewGraph(numNodes int) *Graph {
	return &Graph{
		NumNodes:    numNodes,
		Degrees:     make([]float64, numNodes),
		Adjacency:   make([][]int, numNodes),
		EdgeWeights: make([][]float64, numNodes),
		TotalWeight: 0,
	}
}

// NewGraphFromEdges builds a graph from an explicit undirected edge list
func NewGraphFromEdges(numNodes int, edges []Edge) *Graph {
	g := NewGraph(numNodes)
	for _, e := range edges {
		g.AddEdge(e.From, e.To, e.Weight)
	}
	return g
}

// AddEdge adds an undirected weighted edge to the graph
func (g *Graph) AddEdge(from, to int, weight float64) error {
	if from < 0 || from >= g.NumNodes || to < 0 || to >= g.NumNodes {
		return fmt.Errorf("invalid node indices %d, %d for graph with %d nodes", from, to, g.NumNodes)
	}
	if weight < 0 {
		return fmt.Errorf("negative edge weight %f between nodes %d and %d", weight, from, to)
	}

	g.Adjacency[from] = append(g.Adjacency[from], to)
	g.EdgeWeights[from] = append(g.EdgeWeights[from], weight)

	if from != to {
		g.Adjacency[to] = append(g.Adjacency[to], from)
		g.EdgeWeights[to] = append(g.EdgeWeights[to], weight)
	}

	// Update degrees
	g.Degrees[from] += weight
	if from != to {
		g.Degrees[to] += weight
	} else {
		g.Degrees[from] += weight // Self-loop case
	}

	g.NumEdges++
	g.TotalWeight += weight
	return nil
}

// SetFeatures attaches the node feature matrix (one row per node)
func (g *Graph) SetFeatures(features *mat.Dense) error {
	rows, cols := features.Dims()
	if rows != g.NumNodes {
		return fmt.Errorf("feature matrix has %d rows, graph has %d nodes", rows, g.NumNodes)
	}
	g.Features = features
	g.NumChannels = cols
	return nil
}

// SetLabels attaches ground-truth cluster labels (one per node)
func (g *Graph) SetLabels(labels []int) error {
	if len(labels) != g.NumNodes {
		return fmt.Errorf("label slice has %d entries, graph has %d nodes", len(labels), g.NumNodes)
	}
	g.Labels = labels
	return nil
}

// GetNeighbors returns all neighbors of a node with their edge weights
func (g *Graph) GetNeighbors(nodeID int) map[int]float64 {
	neighbors := make(map[int]float64)

	if nodeID < 0 || nodeID >= g.NumNodes {
		return neighbors
	}

	for i, neighbor := range g.Adjacency[nodeID] {
		neighbors[neighbor] = g.EdgeWeights[nodeID][i]
	}

	return neighbors
}

// GetNodeDegree returns the weighted degree of a node
func (g *Graph) GetNodeDegree(nodeID int) float64 {
	if nodeID < 0 || nodeID >= g.NumNodes {
		return 0
	}
	return g.Degrees[nodeID]
}

// GetEdgeWeight returns the weight of an edge, 0 if absent
func (g *Graph) GetEdgeWeight(from, to int) float64 {
	if from < 0 || from >= g.NumNodes || to < 0 || to >= g.NumNodes {
		return 0
	}

	for i, neighbor := range g.Adjacency[from] {
		if neighbor == to {
			return g.EdgeWeights[from][i]
		}
	}
	return 0
}

// EdgeList returns every undirected edge exactly once, ordered by (From, To)
func (g *Graph) EdgeList() []Edge {
	edges := make([]Edge, 0, g.NumEdges)
	for from := 0; from < g.NumNodes; from++ {
		for i, to := range g.Adjacency[from] {
			if to >= from {
				edges = append(edges, Edge{From: from, To: to, Weight: g.EdgeWeights[from][i]})
			}
		}
	}
	return edges
}

// EdgeIndex returns directed (from, to) pairs covering both directions of
// every undirected edge; self-loops appear once
func (g *Graph) EdgeIndex() [][2]int {
	pairs := make([][2]int, 0, 2*g.NumEdges)
	for from := 0; from < g.NumNodes; from++ {
		for _, to := range g.Adjacency[from] {
			pairs = append(pairs, [2]int{from, to})
		}
	}
	return pairs
}

// Clone creates a deep copy of the graph
func (g *Graph) Clone() *Graph {
	clone := NewGraph(g.NumNodes)
	clone.NumEdges = g.NumEdges
	clone.TotalWeight = g.TotalWeight
	clone.NumChannels = g.NumChannels

	copy(clone.Degrees, g.Degrees)

	for i := 0; i < g.NumNodes; i++ {
		clone.Adjacency[i] = make([]int, len(g.Adjacency[i]))
		clone.EdgeWeights[i] = make([]float64, len(g.EdgeWeights[i]))
		copy(clone.Adjacency[i], g.Adjacency[i])
		copy(clone.EdgeWeights[i], g.EdgeWeights[i])
	}

	if g.Features != nil {
		clone.Features = mat.DenseCopyOf(g.Features)
	}
	if g.Labels != nil {
		clone.Labels = make([]int, len(g.Labels))
		copy(clone.Labels, g.Labels)
	}

	return clone
}

// Validate checks if the graph is structurally consistent
func (g *Graph) Validate() error {
	if g.NumNodes <= 0 {
		return fmt.Errorf("graph has no nodes")
	}

	if g.Features != nil {
		rows, _ := g.Features.Dims()
		if rows != g.NumNodes {
			return fmt.Errorf("feature matrix has %d rows, graph has %d nodes", rows, g.NumNodes)
		}
	}
	if g.Labels != nil && len(g.Labels) != g.NumNodes {
		return fmt.Errorf("label slice has %d entries, graph has %d nodes", len(g.Labels), g.NumNodes)
	}

	// Check adjacency list consistency
	for i := 0; i < g.NumNodes; i++ {
		if len(g.Adjacency[i]) != len(g.EdgeWeights[i]) {
			return fmt.Errorf("adjacency and edge weights length mismatch for node %d", i)
		}

		for j, neighbor := range g.Adjacency[i] {
			if neighbor < 0 || neighbor >= g.NumNodes {
				return fmt.Errorf("invalid neighbor %d for node %d", neighbor, i)
			}

			weight := g.EdgeWeights[i][j]
			if weight < 0 {
				return fmt.Errorf("negative edge weight %f between nodes %d and %d", weight, i, neighbor)
			}

			// Check symmetry for undirected graph (except self-loops)
			if i != neighbor {
				found := false
				for k, reverseNeighbor := range g.Adjacency[neighbor] {
					if reverseNeighbor == i && math.Abs(g.EdgeWeights[neighbor][k]-weight) < 1e-9 {
						found = true
						break
					}
				}
				if !found {
					return fmt.Errorf("graph is not symmetric: edge %d->%d", i, neighbor)
				}
			}
		}
	}

	return nil
}
