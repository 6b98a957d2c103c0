package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/gilchrisn/gae-clustering/pkg/encoder"
	"github.com/gilchrisn/gae-clustering/pkg/synthetic"
	"github.com/gilchrisn/gae-clustering/pkg/trainer"
)

// AppConfig aggregates the per-package configuration sections
type AppConfig struct {
	Trainer   trainer.Config   `json:"trainer" yaml:"trainer"`
	Encoder   encoder.Config   `json:"encoder" yaml:"encoder"`
	Synthetic synthetic.Config `json:"synthetic" yaml:"synthetic"`
}

// DefaultAppConfig combines the package defaults
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Trainer:   trainer.DefaultConfig(),
		Encoder:   encoder.DefaultConfig(),
		Synthetic: synthetic.DefaultConfig(),
	}
}

// LoadAppConfig starts from the defaults, merges the YAML file when path is
// non-empty, then applies environment overrides on top
func LoadAppConfig(path string) (AppConfig, error) {
	config := DefaultAppConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return config, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return config, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(&config)
	return config, nil
}

func applyEnvOverrides(config *AppConfig) {
	config.Trainer.Epochs = getEnvInt("GAE_EPOCHS", config.Trainer.Epochs)
	config.Trainer.NumClusters = getEnvInt("GAE_N_CLUSTERS", config.Trainer.NumClusters)
	config.Trainer.FindCentroidsAlg = getEnv("GAE_FIND_CENTROIDS_ALG", config.Trainer.FindCentroidsAlg)
	config.Trainer.ClusteringLossWeight = getEnvFloat("GAE_CLUSTERING_LOSS_WEIGHT", config.Trainer.ClusteringLossWeight)
	config.Trainer.LearningRate = getEnvFloat("GAE_LEARNING_RATE", config.Trainer.LearningRate)
	config.Trainer.PRecomputeInterval = getEnvInt("GAE_P_RECOMPUTE_INTERVAL", config.Trainer.PRecomputeInterval)
	config.Trainer.RandomSeed = getEnvInt64("GAE_RANDOM_SEED", config.Trainer.RandomSeed)
	config.Trainer.OutputDir = getEnv("GAE_OUTPUT_DIR", config.Trainer.OutputDir)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
