// Package predict loads trained strategy models and produces advisory
// remediation recommendations for new content before the first render.
// A missing, stale, or malformed model never fails a build; the predictor
// degrades to "no recommendation".
package predict

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jonathan/siteforge/internal/features"
	"github.com/jonathan/siteforge/internal/types"
)

// ModelVersion is the artifact format version this package reads and writes.
const ModelVersion = 1

// ArtifactPrefix names model files: strategy_model_<timestamp>.json with a
// strategy_model_<timestamp>_metadata.json sidecar.
const ArtifactPrefix = "strategy_model_"

const metadataSuffix = "_metadata.json"

// Model is a nearest-centroid classifier over standardized feature vectors.
// The artifact is plain JSON; loading it executes no code.
type Model struct {
	Version       int         `json:"version"`
	FeatureSchema []string    `json:"feature_schema"`
	Classes       []int       `json:"classes"`
	Centroids     [][]float64 `json:"centroids"`
	Means         []float64   `json:"means"`
	Stds          []float64   `json:"stds"`
}

// Metrics are the trainer's held-out evaluation results.
type Metrics struct {
	MacroF1        float64 `json:"macro_f1"`
	MacroPrecision float64 `json:"macro_precision"`
	MacroRecall    float64 `json:"macro_recall"`
}

// Metadata is the sidecar describing a model artifact.
type Metadata struct {
	Version         int                `json:"version"`
	TrainedAt       string             `json:"trained_at"`
	FeatureSchema   []string           `json:"feature_schema"`
	Classes         []int              `json:"classes"`
	TrainingSamples int                `json:"training_samples"`
	HoldoutSamples  int                `json:"holdout_samples"`
	Metrics         Metrics            `json:"metrics"`
	Importances     map[string]float64 `json:"feature_importances"`
}

// validate checks the model's internal consistency against the current
// feature schema.
func (m *Model) validate() error {
	if m.Version != ModelVersion {
		return fmt.Errorf("unsupported model version %d (want %d)", m.Version, ModelVersion)
	}
	if !slices.Equal(m.FeatureSchema, features.Schema) {
		return fmt.Errorf("model feature schema %v does not match current schema %v", m.FeatureSchema, features.Schema)
	}
	if len(m.Classes) == 0 || len(m.Centroids) != len(m.Classes) {
		return fmt.Errorf("model has %d classes but %d centroids", len(m.Classes), len(m.Centroids))
	}
	dims := len(m.FeatureSchema)
	if len(m.Means) != dims || len(m.Stds) != dims {
		return fmt.Errorf("scaler dimensions do not match feature schema")
	}
	for i, c := range m.Centroids {
		if len(c) != dims {
			return fmt.Errorf("centroid %d has %d dimensions, want %d", i, len(c), dims)
		}
	}
	return nil
}

// Classify scores a feature vector against every class centroid and returns
// per-class probabilities derived from standardized distances.
func (m *Model) Classify(cols []float64) (types.Tier, float64, map[types.Tier]float64) {
	scaled := make([]float64, len(cols))
	for i, v := range cols {
		std := m.Stds[i]
		if std == 0 {
			std = 1
		}
		scaled[i] = (v - m.Means[i]) / std
	}

	// Softmax over negative distances: closer centroids get higher mass.
	weights := make([]float64, len(m.Classes))
	maxW := math.Inf(-1)
	for i, centroid := range m.Centroids {
		d := 0.0
		for j, v := range scaled {
			diff := v - centroid[j]
			d += diff * diff
		}
		weights[i] = -math.Sqrt(d)
		if weights[i] > maxW {
			maxW = weights[i]
		}
	}

	total := 0.0
	probs := make(map[types.Tier]float64, len(m.Classes))
	for i, w := range weights {
		weights[i] = math.Exp(w - maxW)
		total += weights[i]
	}

	best := types.Tier(m.Classes[0])
	bestProb := 0.0
	for i, class := range m.Classes {
		p := weights[i] / total
		tier := types.Tier(class)
		probs[tier] = p
		if p > bestProb {
			best = tier
			bestProb = p
		}
	}
	return best, bestProb, probs
}

// LoadModel reads and validates a model artifact and its metadata sidecar.
func LoadModel(artifactPath string) (*Model, *Metadata, error) {
	raw, err := os.ReadFile(artifactPath)
	if err != nil {
		return nil, nil, fmt.Errorf("model artifact unreadable: %w", err)
	}
	var model Model
	if err := json.Unmarshal(raw, &model); err != nil {
		return nil, nil, fmt.Errorf("model artifact malformed: %w", err)
	}
	if err := model.validate(); err != nil {
		return nil, nil, err
	}

	metaRaw, err := os.ReadFile(MetadataPath(artifactPath))
	if err != nil {
		return nil, nil, fmt.Errorf("model metadata sidecar unreadable: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		return nil, nil, fmt.Errorf("model metadata malformed: %w", err)
	}
	if !slices.Equal(meta.FeatureSchema, features.Schema) {
		return nil, nil, fmt.Errorf("metadata feature schema does not match current schema")
	}
	return &model, &meta, nil
}

// MetadataPath derives the sidecar path for a model artifact.
func MetadataPath(artifactPath string) string {
	return strings.TrimSuffix(artifactPath, ".json") + metadataSuffix
}

// LatestArtifact finds the newest model artifact in dir by the timestamp
// embedded in the filename. Returns an error when none exist.
func LatestArtifact(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("model directory unreadable: %w", err)
	}

	var candidates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, ArtifactPrefix) {
			continue
		}
		if !strings.HasSuffix(name, ".json") || strings.HasSuffix(name, metadataSuffix) {
			continue
		}
		candidates = append(candidates, name)
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no model artifacts in %s", dir)
	}

	// Timestamps are zero-padded, so lexical order is chronological.
	slices.Sort(candidates)
	return filepath.Join(dir, candidates[len(candidates)-1]), nil
}
