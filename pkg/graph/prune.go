package graph

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/graph/topo"
)

// NewGraphFromAttention folds directed attention weights into an undirected
// graph: the two directions of an edge are averaged, self-loops and
// out-of-range endpoints are dropped. Edge insertion order is deterministic.
func NewGraphFromAttention(numNodes int, att []Edge) *Graph {
	weights := make(map[[2]int]float64, len(att))
	for _, e := range att {
		if e.From == e.To {
			continue
		}
		if e.From < 0 || e.From >= numNodes || e.To < 0 || e.To >= numNodes {
			continue
		}
		pair := [2]int{e.From, e.To}
		if pair[0] > pair[1] {
			pair[0], pair[1] = pair[1], pair[0]
		}
		weights[pair] += e.Weight / 2
	}

	pairs := make([][2]int, 0, len(weights))
	for pair := range weights {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})

	g := NewGraph(numNodes)
	for _, pair := range pairs {
		g.AddEdge(pair[0], pair[1], weights[pair])
	}
	return g
}

// RemoveMinWeightEdges returns a copy of the graph with every edge carrying
// the minimum edge weight removed, along with that weight. The copy shares
// feature and label storage with the input. A graph without edges is returned
// unchanged with weight 0.
func RemoveMinWeightEdges(g *Graph) (*Graph, float64) {
	edges := g.EdgeList()
	if len(edges) == 0 {
		return rebuild(g, edges), 0
	}

	minWeight := edges[0].Weight
	for _, e := range edges[1:] {
		if e.Weight < minWeight {
			minWeight = e.Weight
		}
	}

	kept := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if e.Weight != minWeight {
			kept = append(kept, e)
		}
	}

	return rebuild(g, kept), minWeight
}

// ComponentSizes returns the size of every connected component
func ComponentSizes(g *Graph) ([]int, error) {
	wg, err := g.ToGonum()
	if err != nil {
		return nil, err
	}

	components := topo.ConnectedComponents(wg)
	sizes := make([]int, len(components))
	for i, comp := range components {
		sizes[i] = len(comp)
	}
	return sizes, nil
}

// BalanceComponents repeatedly strips the weakest edges until no connected
// component holds more than round(numNodes/factor) nodes. With attention
// weights on the edges this splits the graph along its least-attended links.
func BalanceComponents(g *Graph, factor float64) (*Graph, error) {
	if factor <= 0 {
		return nil, fmt.Errorf("factor must be positive, got %f", factor)
	}

	maxSize := int(math.Round(float64(g.NumNodes) / factor))
	if maxSize < 1 {
		return nil, fmt.Errorf("component size bound round(%d/%f) is below 1", g.NumNodes, factor)
	}

	current := g
	for {
		sizes, err := ComponentSizes(current)
		if err != nil {
			return nil, err
		}

		balanced := true
		for _, size := range sizes {
			if size > maxSize {
				balanced = false
				break
			}
		}
		if balanced {
			return current, nil
		}

		// All edges gone means every component is a singleton, so the bound
		// check above must have passed already
		if current.NumEdges == 0 {
			return current, nil
		}

		current, _ = RemoveMinWeightEdges(current)
	}
}

// rebuild constructs a graph with the given edges, carrying over the node
// count, features, and labels of the source
func rebuild(g *Graph, edges []Edge) *Graph {
	out := NewGraphFromEdges(g.NumNodes, edges)
	out.Features = g.Features
	out.NumChannels = g.NumChannels
	out.Labels = g.Labels
	return out
}
