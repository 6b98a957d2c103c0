package trainer

import (
	"fmt"
	"os"
	"path/filepath"
)

// EpochMetrics is one row of the per-epoch loss log
type EpochMetrics struct {
	Epoch              int     `json:"epoch"`
	TotalLoss          float64 `json:"total_loss"`
	ClusteringLoss     float64 `json:"clustering_loss"`
	ReconstructionLoss float64 `json:"reconstruction_loss"`
}

// MetricsWriter persists the per-epoch loss log at run completion
type MetricsWriter interface {
	WriteMetrics(metrics []EpochMetrics, outputDir, prefix string) (string, error)
}

// FileWriter implements MetricsWriter writing a CSV file
type FileWriter struct{}

// NewFileWriter creates a file-based metrics writer
func NewFileWriter() MetricsWriter {
	return &FileWriter{}
}

// WriteMetrics writes one CSV row per epoch and returns the file path.
// The output directory is created if it does not exist.
func (fw *FileWriter) WriteMetrics(metrics []EpochMetrics, outputDir, prefix string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(outputDir, fmt.Sprintf("%s_metrics.csv", prefix))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create metrics file: %w", err)
	}
	defer file.Close()

	if _, err := fmt.Fprintln(file, "epoch,total_loss,clustering_loss,reconstruction_loss"); err != nil {
		return "", fmt.Errorf("failed to write metrics header: %w", err)
	}
	for _, row := range metrics {
		if _, err := fmt.Fprintf(file, "%d,%f,%f,%f\n",
			row.Epoch, row.TotalLoss, row.ClusteringLoss, row.ReconstructionLoss); err != nil {
			return "", fmt.Errorf("failed to write metrics row %d: %w", row.Epoch, err)
		}
	}

	return path, nil
}
