// Package trainer owns the joint training loop: it alternates
// reconstruction and clustering loss computation over an explicit per-epoch
// state value, seeds centroids on the first epoch, refreshes the target
// distribution on its own cadence and refines centroids from the
// distribution gradient after the backward pass.
package trainer

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/gilchrisn/gae-clustering/pkg/cluster"
	"github.com/gilchrisn/gae-clustering/pkg/evaluation"
	"github.com/gilchrisn/gae-clustering/pkg/graph"
	"github.com/gilchrisn/gae-clustering/pkg/optim"
	"github.com/gilchrisn/gae-clustering/pkg/seeding"
)

// Encoder is the embedding model driven by the training loop. Encode must
// be repeatable on the same graph; Backward accumulates into the parameter
// gradients exposed by Params.
type Encoder interface {
	Encode(g *graph.Graph) ([]graph.Edge, *mat.Dense, error)
	ReconstructionLoss(Z *mat.Dense, edges [][2]int) (float64, *mat.Dense, error)
	Backward(dZ *mat.Dense) error
	Params() []*optim.Param
}

// Phase tracks where a run is in its lifecycle
type Phase int

const (
	PhaseSeeding Phase = iota // centroids undefined, first epoch pending
	PhaseWarm                 // centroids just seeded, one epoch completed
	PhaseSteady               // recurring per-epoch cycle
)

func (p Phase) String() string {
	switch p {
	case PhaseSeeding:
		return "Seeding"
	case PhaseWarm:
		return "Warm"
	case PhaseSteady:
		return "Steady"
	default:
		return "Unknown"
	}
}

// TrainingState is the explicit per-epoch state threaded through Step.
// Each call consumes a state and returns the updated one; there is no
// hidden coupling through trainer fields.
type TrainingState struct {
	Epoch              int
	Phase              Phase
	Centroids          *cluster.Centroids
	Q                  *mat.Dense
	P                  *mat.Dense
	FirstInteraction   bool
	Degenerate         bool
	TotalLoss          float64
	ClusteringLoss     float64
	ReconstructionLoss float64
}

// NewTrainingState returns the state every run starts from
func NewTrainingState() TrainingState {
	return TrainingState{
		Phase:            PhaseSeeding,
		FirstInteraction: true,
	}
}

// Trainer drives the joint training of an encoder and a centroid set over
// one attributed graph
type Trainer struct {
	config    Config
	encoder   Encoder
	graph     *graph.Graph
	edges     [][2]int
	optimizer *optim.Adam
	scheduler *optim.StepLR
	refiner   *cluster.Refiner
	strategy  seeding.Strategy
	logger    *zap.Logger
}

// New creates a trainer for the graph and encoder. A nil logger disables
// structured logging.
func New(g *graph.Graph, enc Encoder, config Config, logger *zap.Logger) (*Trainer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("trainer: invalid config: %w", err)
	}
	if g == nil {
		return nil, fmt.Errorf("trainer: graph is nil")
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("trainer: invalid graph: %w", err)
	}
	if g.NumEdges == 0 {
		return nil, fmt.Errorf("trainer: graph has no edges to reconstruct")
	}
	if enc == nil {
		return nil, fmt.Errorf("trainer: encoder is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	adamConfig := optim.DefaultAdamConfig()
	adamConfig.LearningRate = config.LearningRate
	optimizer, err := optim.NewAdam(enc.Params(), adamConfig)
	if err != nil {
		return nil, fmt.Errorf("trainer: %w", err)
	}

	// Unknown strategy names intentionally survive construction; the run
	// degrades at seeding time instead.
	strategy, _ := seeding.ParseStrategy(config.FindCentroidsAlg)

	return &Trainer{
		config:    config,
		encoder:   enc,
		graph:     g,
		edges:     g.EdgeIndex(),
		optimizer: optimizer,
		scheduler: optim.NewStepLR(optimizer, config.LRDecayEpochs, config.LRDecayFactor),
		refiner:   cluster.NewRefiner(config.RefineStepSize),
		strategy:  strategy,
		logger:    logger,
	}, nil
}

// Step executes one training epoch: encode, seed centroids if this is the
// first epoch, recompute the soft assignments, refresh the target
// distribution on its cadence, combine the losses, run the backward pass,
// conditionally refine the centroids, then advance optimizer and scheduler.
func (t *Trainer) Step(state TrainingState) (TrainingState, error) {
	t.optimizer.ZeroGrad()

	_, Z, err := t.encoder.Encode(t.graph)
	if err != nil {
		return state, fmt.Errorf("trainer: encode failed at epoch %d: %w", state.Epoch, err)
	}

	if state.Phase == PhaseSeeding {
		centroids, err := seeding.Seed(t.graph, Z, t.config.NumClusters, t.strategy, t.seedingConfig())
		if err != nil {
			if errors.Is(err, seeding.ErrDegeneratePartition) {
				return state, fmt.Errorf("trainer: %w", err)
			}
			t.logger.Error("seeding degraded to an empty centroid set",
				zap.String("strategy", t.config.FindCentroidsAlg),
				zap.Error(err))
			state.Degenerate = true
		} else {
			t.logger.Info("seeded initial centroids",
				zap.String("strategy", t.strategy.String()),
				zap.Int("centroids", centroids.K()))
		}
		state.Centroids = centroids
		state.Phase = PhaseWarm
	}

	state.Q = cluster.ComputeQ(state.Centroids, Z)

	if state.Epoch%t.config.PRecomputeInterval == 0 {
		state.P = cluster.ComputeP(state.Q)
	}

	clusteringLoss := cluster.Loss(state.Q, state.P)

	reconstructionLoss, dZ, err := t.encoder.ReconstructionLoss(Z, t.edges)
	if err != nil {
		return state, fmt.Errorf("trainer: reconstruction loss failed at epoch %d: %w", state.Epoch, err)
	}

	totalLoss := reconstructionLoss + t.config.ClusteringLossWeight*clusteringLoss
	if math.IsNaN(totalLoss) || math.IsInf(totalLoss, 0) {
		return state, fmt.Errorf("trainer: non-finite loss at epoch %d: total=%v reconstruction=%v clustering=%v",
			state.Epoch, totalLoss, reconstructionLoss, clusteringLoss)
	}

	dZCluster, dCentroids := cluster.Gradients(state.Q, state.P, Z, state.Centroids)
	if dZCluster != nil {
		var scaled mat.Dense
		scaled.Scale(t.config.ClusteringLossWeight, dZCluster)
		dZ.Add(dZ, &scaled)
	}

	if err := t.encoder.Backward(dZ); err != nil {
		return state, fmt.Errorf("trainer: backward failed at epoch %d: %w", state.Epoch, err)
	}

	if !state.FirstInteraction && clusteringLoss != 0 && dCentroids != nil {
		t.refiner.Refine(state.Centroids, dCentroids)
	}

	t.optimizer.Step()
	t.scheduler.Step()

	state.TotalLoss = totalLoss
	state.ClusteringLoss = clusteringLoss
	state.ReconstructionLoss = reconstructionLoss
	if state.FirstInteraction {
		state.FirstInteraction = false
	} else if state.Phase == PhaseWarm {
		state.Phase = PhaseSteady
	}
	state.Epoch++
	return state, nil
}

// Run executes the configured number of epochs and evaluates the final
// assignments against the graph's ground-truth labels when present
func (t *Trainer) Run() (*Result, error) {
	startTime := time.Now()
	runID := uuid.New().String()
	logger := t.logger.With(zap.String("run_id", runID))

	logger.Info("starting training run",
		zap.Int("epochs", t.config.Epochs),
		zap.Int("n_clusters", t.config.NumClusters),
		zap.String("strategy", t.config.FindCentroidsAlg),
		zap.Int("nodes", t.graph.NumNodes),
		zap.Int("edges", t.graph.NumEdges))

	result := &Result{RunID: runID}
	state := NewTrainingState()
	metrics := make([]EpochMetrics, 0, t.config.Epochs)

	var err error
	for epoch := 0; epoch < t.config.Epochs; epoch++ {
		state, err = t.Step(state)
		if err != nil {
			logger.Error("training aborted", zap.Int("epoch", epoch), zap.Error(err))
			result.Error = err.Error()
			result.Statistics.Epochs = epoch
			result.Statistics.RuntimeMS = time.Since(startTime).Milliseconds()
			return result, err
		}

		metrics = append(metrics, EpochMetrics{
			Epoch:              epoch,
			TotalLoss:          state.TotalLoss,
			ClusteringLoss:     state.ClusteringLoss,
			ReconstructionLoss: state.ReconstructionLoss,
		})

		if epoch%10 == 0 {
			logger.Info("epoch complete",
				zap.Int("epoch", epoch),
				zap.Float64("loss", state.TotalLoss),
				zap.Float64("clustering_loss", state.ClusteringLoss),
				zap.Float64("reconstruction_loss", state.ReconstructionLoss))
			if t.config.Verbose {
				fmt.Printf("==> %d - Loss: %f\n", epoch, state.TotalLoss)
			}
		}
		if t.config.ProgressCallback != nil {
			t.config.ProgressCallback(epoch, state.TotalLoss,
				fmt.Sprintf("epoch %d/%d", epoch+1, t.config.Epochs))
		}
	}

	result.Success = true
	result.Degenerate = state.Degenerate
	result.Assignments = state.Q
	result.Labels = evaluation.HardLabels(state.Q)

	if result.Labels != nil && len(t.graph.Labels) > 0 {
		score, _, err := evaluation.Evaluate(state.Q, t.graph.Labels)
		if err != nil {
			logger.Error("evaluation failed", zap.Error(err))
		} else {
			result.NMI = score
			logger.Info("final clustering score", zap.Float64("nmi", score))
			if t.config.Verbose {
				fmt.Printf("%f\n", score)
			}
		}
	} else if state.Degenerate {
		logger.Warn("run finished without cluster assignments")
	}

	if t.config.OutputDir != "" && len(metrics) > 0 {
		writer := NewFileWriter()
		path, err := writer.WriteMetrics(metrics, t.config.OutputDir, "training")
		if err != nil {
			logger.Error("failed to write metrics artifact", zap.Error(err))
		} else {
			result.MetricsPath = path
			logger.Info("wrote metrics artifact", zap.String("path", path))
		}
	}

	result.Statistics = TrainingStats{
		Epochs:       len(metrics),
		RuntimeMS:    time.Since(startTime).Milliseconds(),
		ClusterSizes: evaluation.ClusterSizeStats(result.Labels),
	}
	if len(metrics) > 0 {
		last := metrics[len(metrics)-1]
		result.Statistics.FinalLoss = last.TotalLoss
		result.Statistics.FinalClusteringLoss = last.ClusteringLoss
		result.Statistics.FinalReconstructionLoss = last.ReconstructionLoss
	}

	return result, nil
}

func (t *Trainer) seedingConfig() seeding.Config {
	config := seeding.DefaultConfig()
	config.RandomSeed = t.config.RandomSeed
	config.Verbose = t.config.Verbose
	return config
}

// Result summarizes a completed or aborted run
type Result struct {
	RunID       string        `json:"run_id"`
	Success     bool          `json:"success"`
	Error       string        `json:"error,omitempty"`
	Degenerate  bool          `json:"degenerate"`
	NMI         float64       `json:"nmi"`
	Labels      []int         `json:"labels,omitempty"`
	MetricsPath string        `json:"metrics_path,omitempty"`
	Assignments *mat.Dense    `json:"-"`
	Statistics  TrainingStats `json:"statistics"`
}

// TrainingStats carries summary statistics for a run
type TrainingStats struct {
	Epochs                  int                  `json:"epochs"`
	FinalLoss               float64              `json:"final_loss"`
	FinalClusteringLoss     float64              `json:"final_clustering_loss"`
	FinalReconstructionLoss float64              `json:"final_reconstruction_loss"`
	RuntimeMS               int64                `json:"runtime_ms"`
	ClusterSizes            evaluation.SizeStats `json:"cluster_sizes"`
}
