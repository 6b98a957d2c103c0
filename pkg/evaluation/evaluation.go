// Package evaluation scores a clustering run: hard labels from the soft
// assignment matrix and Normalized Mutual Information against ground truth.
package evaluation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// HardLabels assigns each node to its highest-probability cluster. A nil
// assignment matrix yields nil labels.
func HardLabels(Q *mat.Dense) []int {
	if Q == nil {
		return nil
	}
	n, _ := Q.Dims()
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		labels[i] = floats.MaxIdx(Q.RawRowView(i))
	}
	return labels
}

// NormalizedMutualInfo calculates Normalized Mutual Information between two
// clusterings. Returns a score between 0 and 1; two constant clusterings
// count as identical.
func NormalizedMutualInfo(clustering1, clustering2 []int) (float64, error) {
	if len(clustering1) != len(clustering2) {
		return 0, fmt.Errorf("clusterings must have the same length: %d vs %d", len(clustering1), len(clustering2))
	}

	n := len(clustering1)
	if n == 0 {
		return 0, nil
	}

	table := buildContingencyTable(clustering1, clustering2)
	mi := mutualInformation(table, n)

	h1 := entropy(clustering1)
	h2 := entropy(clustering2)

	avgEntropy := (h1 + h2) / 2
	if avgEntropy == 0 {
		return 1.0, nil
	}

	return mi / avgEntropy, nil
}

// Evaluate derives hard labels from Q and scores them against the ground
// truth. A nil Q means the run never produced assignments.
func Evaluate(Q *mat.Dense, truth []int) (float64, []int, error) {
	labels := HardLabels(Q)
	if labels == nil {
		return 0, nil, fmt.Errorf("evaluation: no cluster assignments to evaluate")
	}

	score, err := NormalizedMutualInfo(labels, truth)
	if err != nil {
		return 0, labels, fmt.Errorf("evaluation: %w", err)
	}
	return score, labels, nil
}

// buildContingencyTable counts the overlap between every pair of clusters
func buildContingencyTable(clustering1, clustering2 []int) map[[2]int]int {
	table := make(map[[2]int]int)
	for i := range clustering1 {
		table[[2]int{clustering1[i], clustering2[i]}]++
	}
	return table
}

// mutualInformation computes MI in bits from the contingency table
func mutualInformation(table map[[2]int]int, n int) float64 {
	counts1 := make(map[int]int)
	counts2 := make(map[int]int)
	for pair, count := range table {
		counts1[pair[0]] += count
		counts2[pair[1]] += count
	}

	mi := 0.0
	for pair, nij := range table {
		if nij == 0 {
			continue
		}
		ni := counts1[pair[0]]
		nj := counts2[pair[1]]
		mi += float64(nij) / float64(n) * math.Log2(float64(nij*n)/float64(ni*nj))
	}
	return mi
}

// entropy computes the clustering's entropy in bits
func entropy(clustering []int) float64 {
	counts := make(map[int]int)
	for _, cluster := range clustering {
		counts[cluster]++
	}

	n := len(clustering)
	e := 0.0
	for _, count := range counts {
		p := float64(count) / float64(n)
		if p > 0 {
			e -= p * math.Log2(p)
		}
	}
	return e
}

// SizeStats summarizes the cluster size distribution of a labeling
type SizeStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Max   int     `json:"max"`
	Min   int     `json:"min"`
	Std   float64 `json:"std"`
}

// ClusterSizeStats computes size statistics over the clusters present in
// the labeling
func ClusterSizeStats(labels []int) SizeStats {
	if len(labels) == 0 {
		return SizeStats{}
	}

	counts := make(map[int]int)
	for _, label := range labels {
		counts[label]++
	}

	sizes := make([]float64, 0, len(counts))
	maxSize, minSize := 0, len(labels)
	for _, count := range counts {
		sizes = append(sizes, float64(count))
		if count > maxSize {
			maxSize = count
		}
		if count < minSize {
			minSize = count
		}
	}

	stats := SizeStats{
		Count: len(counts),
		Mean:  stat.Mean(sizes, nil),
		Max:   maxSize,
		Min:   minSize,
	}
	if len(sizes) > 1 {
		stats.Std = stat.StdDev(sizes, nil)
	}
	return stats
}
