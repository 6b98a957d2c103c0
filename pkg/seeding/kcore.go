package seeding

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/gilchrisn/gae-clustering/pkg/cluster"
	"github.com/gilchrisn/gae-clustering/pkg/graph"
)

// KCoreSeeder ranks nodes by their core number and takes the embeddings of
// the k most deeply nested nodes as initial centroids. Core numbers are
// computed with the Batagelj-Zaversnik peeling algorithm in O(E).
type KCoreSeeder struct {
	verbose bool
}

// NewKCoreSeeder creates a core-decomposition seeder
func NewKCoreSeeder(config Config) *KCoreSeeder {
	return &KCoreSeeder{verbose: config.Verbose}
}

// Seed returns the embedding rows of the k nodes with the highest core
// number, breaking ties by weighted degree and then by node index
func (s *KCoreSeeder) Seed(g *graph.Graph, Z *mat.Dense, k int) (*cluster.Centroids, error) {
	if err := validateSeedInput(g, Z, k); err != nil {
		return nil, err
	}

	core := coreNumbers(g)

	nodes := make([]int, g.NumNodes)
	for i := range nodes {
		nodes[i] = i
	}
	sort.Slice(nodes, func(i, j int) bool {
		ni, nj := nodes[i], nodes[j]
		if core[ni] != core[nj] {
			return core[ni] > core[nj]
		}
		if g.Degrees[ni] != g.Degrees[nj] {
			return g.Degrees[ni] > g.Degrees[nj]
		}
		return ni < nj
	})

	return cluster.FromRows(Z, nodes[:k])
}

// coreNumbers runs the Batagelj-Zaversnik bucket peeling. Vertices are
// processed in increasing degree order; removing a vertex decrements the
// degrees of its higher-degree neighbors in place, so deg ends up holding
// each vertex's core number.
func coreNumbers(g *graph.Graph) []int {
	n := g.NumNodes
	deg := make([]int, n)
	maxDeg := 0
	for i := 0; i < n; i++ {
		deg[i] = len(g.Adjacency[i])
		if deg[i] > maxDeg {
			maxDeg = deg[i]
		}
	}

	bin := make([]int, maxDeg+1)
	for i := 0; i < n; i++ {
		bin[deg[i]]++
	}
	start := 0
	for d := 0; d <= maxDeg; d++ {
		count := bin[d]
		bin[d] = start
		start += count
	}

	vert := make([]int, n)
	pos := make([]int, n)
	for v := 0; v < n; v++ {
		pos[v] = bin[deg[v]]
		vert[pos[v]] = v
		bin[deg[v]]++
	}
	for d := maxDeg; d > 0; d-- {
		bin[d] = bin[d-1]
	}
	bin[0] = 0

	for i := 0; i < n; i++ {
		v := vert[i]
		for _, u := range g.Adjacency[v] {
			if deg[u] > deg[v] {
				du, pu := deg[u], pos[u]
				pw := bin[du]
				w := vert[pw]
				if u != w {
					pos[u], pos[w] = pw, pu
					vert[pu], vert[pw] = w, u
				}
				bin[du]++
				deg[u]--
			}
		}
	}
	return deg
}
