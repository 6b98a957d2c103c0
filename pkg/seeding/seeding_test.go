package seeding

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/gilchrisn/gae-clustering/pkg/graph"
)

// buildTwoTriangles creates two unit-weight triangles {0,1,2} and {3,4,5}
// joined by a single bridge edge 0-3
func buildTwoTriangles(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.NewGraph(6)
	edges := [][2]int{{0, 1}, {1, 2}, {0, 2}, {3, 4}, {4, 5}, {3, 5}, {0, 3}}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1], 1.0); err != nil {
			t.Fatalf("failed to add edge %v: %v", e, err)
		}
	}
	return g
}

// buildStar creates a hub node 0 with unit-weight spokes to nodes 1..n-1
func buildStar(t *testing.T, n int) *graph.Graph {
	t.Helper()
	g := graph.NewGraph(n)
	for i := 1; i < n; i++ {
		if err := g.AddEdge(0, i, 1.0); err != nil {
			t.Fatalf("failed to add spoke %d: %v", i, err)
		}
	}
	return g
}

// buildCorePeriphery creates a complete core {0,1,2,3} with a pendant
// chain 0-4-5 hanging off it
func buildCorePeriphery(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.NewGraph(6)
	edges := [][2]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}, {0, 4}, {4, 5}}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1], 1.0); err != nil {
			t.Fatalf("failed to add edge %v: %v", e, err)
		}
	}
	return g
}

// indexedEmbeddings builds an n x dim matrix where row i is
// (i, 2i, 3i, ...) so each row is distinct and recognizable
func indexedEmbeddings(n, dim int) *mat.Dense {
	Z := mat.NewDense(n, dim, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < dim; j++ {
			Z.Set(i, j, float64(i*(j+1)))
		}
	}
	return Z
}

func rowsEqual(a []float64, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func TestParseStrategy(t *testing.T) {
	cases := []struct {
		name     string
		expected Strategy
		wantErr  bool
	}{
		{"kmeans", StrategyKMeans, false},
		{"k-means", StrategyKMeans, false},
		{"KMeans", StrategyKMeans, false},
		{"pagerank", StrategyPageRank, false},
		{"page-rank", StrategyPageRank, false},
		{"fastgreedy", StrategyFastGreedy, false},
		{"fast-greedy", StrategyFastGreedy, false},
		{"kcore", StrategyKCore, false},
		{"k-core", StrategyKCore, false},
		{"spectral", StrategyUnknown, true},
		{"", StrategyUnknown, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseStrategy(tc.name)
			if got != tc.expected {
				t.Errorf("ParseStrategy(%q) = %v, want %v", tc.name, got, tc.expected)
			}
			if tc.wantErr {
				if !errors.Is(err, ErrUnknownStrategy) {
					t.Errorf("ParseStrategy(%q) error = %v, want ErrUnknownStrategy", tc.name, err)
				}
			} else if err != nil {
				t.Errorf("ParseStrategy(%q) unexpected error: %v", tc.name, err)
			}
		})
	}
}

func TestKMeansSeeder(t *testing.T) {
	// Two tight pairs far apart; the converged centroids must be the
	// pair means regardless of initialization.
	g := graph.NewGraph(4)
	if err := g.AddEdge(0, 1, 1.0); err != nil {
		t.Fatalf("failed to add edge: %v", err)
	}
	if err := g.AddEdge(2, 3, 1.0); err != nil {
		t.Fatalf("failed to add edge: %v", err)
	}

	Z := mat.NewDense(4, 2, []float64{
		0.0, 0.0,
		0.2, 0.0,
		5.0, 5.0,
		5.2, 5.0,
	})

	seeder := NewKMeansSeeder(DefaultConfig())
	centroids, err := seeder.Seed(g, Z, 2)
	if err != nil {
		t.Fatalf("k-means seeding failed: %v", err)
	}
	if centroids.K() != 2 {
		t.Fatalf("expected 2 centroids, got %d", centroids.K())
	}
	if centroids.Dim() != 2 {
		t.Errorf("expected centroid dimension 2, got %d", centroids.Dim())
	}

	means := [][]float64{{0.1, 0.0}, {5.1, 5.0}}
	for _, mean := range means {
		found := false
		for c := 0; c < centroids.K(); c++ {
			if rowsEqual(centroids.Vector(c), mean, 1e-9) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("no centroid matched expected mean %v", mean)
		}
	}
}

func TestKMeansNonFiniteEmbeddings(t *testing.T) {
	g := buildTwoTriangles(t)
	Z := indexedEmbeddings(6, 2)
	Z.Set(3, 1, math.NaN())

	seeder := NewKMeansSeeder(DefaultConfig())
	if _, err := seeder.Seed(g, Z, 2); !errors.Is(err, ErrNonFiniteEmbeddings) {
		t.Errorf("expected ErrNonFiniteEmbeddings, got %v", err)
	}

	Z.Set(3, 1, math.Inf(1))
	if _, err := seeder.Seed(g, Z, 2); !errors.Is(err, ErrNonFiniteEmbeddings) {
		t.Errorf("expected ErrNonFiniteEmbeddings for Inf, got %v", err)
	}
}

func TestPageRankSeeder(t *testing.T) {
	// In a star the hub dominates the ranking and the spokes tie,
	// so top-2 selection is hub then lowest-index spoke.
	g := buildStar(t, 5)
	Z := indexedEmbeddings(5, 3)

	seeder := NewPageRankSeeder(DefaultConfig())
	centroids, err := seeder.Seed(g, Z, 2)
	if err != nil {
		t.Fatalf("pagerank seeding failed: %v", err)
	}
	if centroids.K() != 2 {
		t.Fatalf("expected 2 centroids, got %d", centroids.K())
	}
	if !rowsEqual(centroids.Vector(0), []float64{0, 0, 0}, 1e-12) {
		t.Errorf("first centroid should be the hub embedding, got %v", centroids.Vector(0))
	}
	if !rowsEqual(centroids.Vector(1), []float64{1, 2, 3}, 1e-12) {
		t.Errorf("second centroid should be node 1's embedding, got %v", centroids.Vector(1))
	}
}

func TestFastGreedySeeder(t *testing.T) {
	// Removing the bridge splits the triangles into the two requested
	// components. Each representative is its component's highest-degree
	// node: 0 and 3 carry the bridge endpoints.
	g := buildTwoTriangles(t)
	Z := indexedEmbeddings(6, 2)

	seeder := NewFastGreedySeeder(DefaultConfig())
	centroids, err := seeder.Seed(g, Z, 2)
	if err != nil {
		t.Fatalf("fastgreedy seeding failed: %v", err)
	}
	if centroids.K() != 2 {
		t.Fatalf("expected 2 centroids, got %d", centroids.K())
	}
	if !rowsEqual(centroids.Vector(0), []float64{0, 0}, 1e-12) {
		t.Errorf("first centroid should be node 0's embedding, got %v", centroids.Vector(0))
	}
	if !rowsEqual(centroids.Vector(1), []float64{3, 6}, 1e-12) {
		t.Errorf("second centroid should be node 3's embedding, got %v", centroids.Vector(1))
	}
}

func TestFastGreedyAlreadyPartitioned(t *testing.T) {
	// Two disconnected triangles need no edge removal at all.
	g := graph.NewGraph(6)
	edges := [][2]int{{0, 1}, {1, 2}, {0, 2}, {3, 4}, {4, 5}, {3, 5}}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1], 1.0); err != nil {
			t.Fatalf("failed to add edge %v: %v", e, err)
		}
	}
	Z := indexedEmbeddings(6, 2)

	seeder := NewFastGreedySeeder(DefaultConfig())
	centroids, err := seeder.Seed(g, Z, 2)
	if err != nil {
		t.Fatalf("fastgreedy seeding failed: %v", err)
	}
	if centroids.K() != 2 {
		t.Errorf("expected 2 centroids, got %d", centroids.K())
	}
}

func TestFastGreedyDegeneratePartition(t *testing.T) {
	// Asking two triangles for three clusters forces a cut inside a
	// triangle, which lowers modularity and must abort seeding.
	g := buildTwoTriangles(t)
	Z := indexedEmbeddings(6, 2)

	seeder := NewFastGreedySeeder(DefaultConfig())
	centroids, err := seeder.Seed(g, Z, 3)
	if !errors.Is(err, ErrDegeneratePartition) {
		t.Fatalf("expected ErrDegeneratePartition, got %v", err)
	}
	if centroids != nil {
		t.Errorf("expected nil centroids on degenerate partition, got %d", centroids.K())
	}
}

func TestKCoreSeeder(t *testing.T) {
	// The complete core {0,1,2,3} has core number 3 and the pendant
	// chain has core number 1. Node 0 carries the extra chain edge so
	// it outranks the other core nodes on degree; node 1 wins the
	// remaining tie on index.
	g := buildCorePeriphery(t)
	Z := indexedEmbeddings(6, 2)

	seeder := NewKCoreSeeder(DefaultConfig())
	centroids, err := seeder.Seed(g, Z, 2)
	if err != nil {
		t.Fatalf("kcore seeding failed: %v", err)
	}
	if centroids.K() != 2 {
		t.Fatalf("expected 2 centroids, got %d", centroids.K())
	}
	if !rowsEqual(centroids.Vector(0), []float64{0, 0}, 1e-12) {
		t.Errorf("first centroid should be node 0's embedding, got %v", centroids.Vector(0))
	}
	if !rowsEqual(centroids.Vector(1), []float64{1, 2}, 1e-12) {
		t.Errorf("second centroid should be node 1's embedding, got %v", centroids.Vector(1))
	}
}

func TestCoreNumbers(t *testing.T) {
	g := buildCorePeriphery(t)
	core := coreNumbers(g)

	expected := []int{3, 3, 3, 3, 1, 1}
	for i, want := range expected {
		if core[i] != want {
			t.Errorf("node %d: core number = %d, want %d", i, core[i], want)
		}
	}
}

func TestSeedCentroidCount(t *testing.T) {
	// Every strategy must return exactly k centroids matching the
	// embedding dimension when it succeeds.
	g := buildTwoTriangles(t)
	Z := indexedEmbeddings(6, 4)

	strategies := []Strategy{StrategyKMeans, StrategyPageRank, StrategyFastGreedy, StrategyKCore}
	for _, strategy := range strategies {
		t.Run(strategy.String(), func(t *testing.T) {
			centroids, err := Seed(g, Z, 2, strategy, DefaultConfig())
			if err != nil {
				t.Fatalf("seeding failed: %v", err)
			}
			if centroids.K() != 2 {
				t.Errorf("expected 2 centroids, got %d", centroids.K())
			}
			if centroids.Dim() != 4 {
				t.Errorf("expected dimension 4, got %d", centroids.Dim())
			}
		})
	}
}

func TestSeedUnknownStrategy(t *testing.T) {
	g := buildTwoTriangles(t)
	Z := indexedEmbeddings(6, 2)

	centroids, err := Seed(g, Z, 2, Strategy(99), DefaultConfig())
	if !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
	if centroids == nil {
		t.Fatal("expected an empty centroid set, got nil")
	}
	if centroids.K() != 0 {
		t.Errorf("expected empty centroid set, got %d centroids", centroids.K())
	}
}

func TestSeedDegeneratePropagates(t *testing.T) {
	g := buildTwoTriangles(t)
	Z := indexedEmbeddings(6, 2)

	centroids, err := Seed(g, Z, 3, StrategyFastGreedy, DefaultConfig())
	if !errors.Is(err, ErrDegeneratePartition) {
		t.Fatalf("expected ErrDegeneratePartition, got %v", err)
	}
	if centroids != nil {
		t.Error("degenerate partition must not return a centroid set")
	}
}

func TestSeedTooFewNodes(t *testing.T) {
	g := graph.NewGraph(2)
	if err := g.AddEdge(0, 1, 1.0); err != nil {
		t.Fatalf("failed to add edge: %v", err)
	}
	Z := indexedEmbeddings(2, 2)

	centroids, err := Seed(g, Z, 5, StrategyKMeans, DefaultConfig())
	if !errors.Is(err, ErrTooFewNodes) {
		t.Fatalf("expected ErrTooFewNodes, got %v", err)
	}
	if centroids == nil || centroids.K() != 0 {
		t.Error("expected an empty centroid set for too few nodes")
	}
}
