package trainer

import (
	"fmt"
)

// ProgressCallback receives per-epoch training progress
type ProgressCallback func(epoch int, loss float64, message string)

// Config contains the training run configuration
type Config struct {
	Epochs               int     `json:"epochs" yaml:"epochs"`                                 // Training epochs, 0 is a no-op run
	NumClusters          int     `json:"n_clusters" yaml:"n_clusters"`                         // Target cluster count k
	FindCentroidsAlg     string  `json:"find_centroids_alg" yaml:"find_centroids_alg"`         // KMeans, PageRank, FastGreedy or KCore
	ClusteringLossWeight float64 `json:"clustering_loss_weight" yaml:"clustering_loss_weight"` // Gamma weighting the clustering term
	LearningRate         float64 `json:"learning_rate" yaml:"learning_rate"`                   // Adam step size
	PRecomputeInterval   int     `json:"p_recompute_interval" yaml:"p_recompute_interval"`     // Epochs between target distribution refreshes
	LRDecayEpochs        int     `json:"lr_decay_epochs" yaml:"lr_decay_epochs"`               // Scheduler period, 0 disables decay
	LRDecayFactor        float64 `json:"lr_decay_factor" yaml:"lr_decay_factor"`               // Multiplicative decay per period
	RefineStepSize       float64 `json:"refine_step_size" yaml:"refine_step_size"`             // Centroid refinement step
	RandomSeed           int64   `json:"random_seed" yaml:"random_seed"`                       // Seeding strategy reproducibility
	OutputDir            string  `json:"output_dir" yaml:"output_dir"`                         // Metrics destination, empty disables the artifact
	Verbose              bool    `json:"verbose" yaml:"verbose"`

	ProgressCallback ProgressCallback `json:"-" yaml:"-"`
}

// DefaultConfig returns the standard training configuration
func DefaultConfig() Config {
	return Config{
		Epochs:               100,
		NumClusters:          3,
		FindCentroidsAlg:     "KMeans",
		ClusteringLossWeight: 10,
		LearningRate:         0.01,
		PRecomputeInterval:   50,
		LRDecayEpochs:        0,
		LRDecayFactor:        0.5,
		RefineStepSize:       0.01,
		RandomSeed:           42,
		Verbose:              false,
	}
}

// Validate checks the configuration for correctness. The centroid strategy
// name is resolved at seeding time; an unknown name degrades the run there
// instead of failing validation.
func (c Config) Validate() error {
	if c.Epochs < 0 {
		return fmt.Errorf("epochs must be non-negative, got %d", c.Epochs)
	}
	if c.NumClusters < 1 {
		return fmt.Errorf("number of clusters must be at least 1, got %d", c.NumClusters)
	}
	if c.ClusteringLossWeight < 0 {
		return fmt.Errorf("clustering loss weight must be non-negative, got %f", c.ClusteringLossWeight)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive, got %f", c.LearningRate)
	}
	if c.PRecomputeInterval < 1 {
		return fmt.Errorf("p recompute interval must be at least 1, got %d", c.PRecomputeInterval)
	}
	if c.LRDecayEpochs < 0 {
		return fmt.Errorf("lr decay epochs must be non-negative, got %d", c.LRDecayEpochs)
	}
	if c.LRDecayEpochs > 0 && (c.LRDecayFactor <= 0 || c.LRDecayFactor > 1) {
		return fmt.Errorf("lr decay factor must be in (0, 1], got %f", c.LRDecayFactor)
	}
	if c.RefineStepSize <= 0 {
		return fmt.Errorf("refine step size must be positive, got %f", c.RefineStepSize)
	}
	return nil
}
