// Package training fits the strategy model offline from the telemetry log.
// The classifier is a nearest-centroid model over standardized features;
// an artifact is written only when held-out metrics clear the quality gates.
package training

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/jonathan/siteforge/internal/features"
	"github.com/jonathan/siteforge/internal/predict"
	"github.com/jonathan/siteforge/internal/telemetry"
	"github.com/jonathan/siteforge/internal/types"
)

// Gates are the minimum held-out metrics for a model to be promoted.
type Gates struct {
	MinMacroF1   float64
	MinPrecision float64
	MinRecall    float64
}

// DefaultGates returns the standard promotion thresholds.
func DefaultGates() Gates {
	return Gates{MinMacroF1: 0.60, MinPrecision: 0.55, MinRecall: 0.55}
}

// Options configure a training run.
type Options struct {
	TelemetryPath   string
	OutputDir       string
	HoldoutFraction float64 // default 0.2
	MinSamples      int     // default 20
	Gates           Gates
	Seed            int64 // split shuffle seed; fixed default for reproducibility
}

// Result reports one training run. ArtifactPath is empty when the gates
// rejected the model.
type Result struct {
	ArtifactPath    string
	MetadataPath    string
	Metrics         predict.Metrics
	TrainingSamples int
	HoldoutSamples  int
	Classes         []int
	Promoted        bool
}

func (o *Options) withDefaults() Options {
	opts := *o
	if opts.HoldoutFraction <= 0 || opts.HoldoutFraction >= 1 {
		opts.HoldoutFraction = 0.2
	}
	if opts.MinSamples <= 0 {
		opts.MinSamples = 20
	}
	if opts.Gates == (Gates{}) {
		opts.Gates = DefaultGates()
	}
	if opts.Seed == 0 {
		opts.Seed = 42
	}
	return opts
}

// Train fits a model from the telemetry log and writes the artifact plus
// its metadata sidecar when the quality gates pass.
func Train(opts Options) (*Result, error) {
	opts = opts.withDefaults()

	records, err := telemetry.Load(opts.TelemetryPath)
	if err != nil {
		return nil, err
	}
	if len(records) < opts.MinSamples {
		return nil, fmt.Errorf("not enough telemetry: %d rows, need at least %d", len(records), opts.MinSamples)
	}

	train, holdout := split(records, opts.HoldoutFraction, opts.Seed)
	model := fit(train)

	metrics := evaluate(model, holdout)
	result := &Result{
		Metrics:         metrics,
		TrainingSamples: len(train),
		HoldoutSamples:  len(holdout),
		Classes:         model.Classes,
	}

	if metrics.MacroF1 < opts.Gates.MinMacroF1 ||
		metrics.MacroPrecision < opts.Gates.MinPrecision ||
		metrics.MacroRecall < opts.Gates.MinRecall {
		return result, nil
	}

	now := time.Now().UTC()
	artifact := filepath.Join(opts.OutputDir, fmt.Sprintf("%s%s.json", predict.ArtifactPrefix, now.Format("20060102_150405")))
	meta := &predict.Metadata{
		Version:         predict.ModelVersion,
		TrainedAt:       now.Format(time.RFC3339),
		FeatureSchema:   model.FeatureSchema,
		Classes:         model.Classes,
		TrainingSamples: len(train),
		HoldoutSamples:  len(holdout),
		Metrics:         metrics,
		Importances:     importances(model),
	}
	if err := writeArtifact(artifact, model, meta); err != nil {
		return nil, err
	}

	result.ArtifactPath = artifact
	result.MetadataPath = predict.MetadataPath(artifact)
	result.Promoted = true
	return result, nil
}

// split shuffles deterministically and carves off the holdout set, keeping
// at least one row on each side.
func split(records []telemetry.Record, fraction float64, seed int64) (train, holdout []telemetry.Record) {
	shuffled := make([]telemetry.Record, len(records))
	copy(shuffled, records)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	n := int(float64(len(shuffled)) * fraction)
	if n < 1 {
		n = 1
	}
	if n >= len(shuffled) {
		n = len(shuffled) - 1
	}
	return shuffled[n:], shuffled[:n]
}

// fit computes the scaler and per-class centroids from the training rows.
func fit(train []telemetry.Record) *predict.Model {
	dims := len(features.Schema)
	means := make([]float64, dims)
	stds := make([]float64, dims)

	for _, rec := range train {
		for i, v := range rec.Features.Columns() {
			means[i] += v
		}
	}
	for i := range means {
		means[i] /= float64(len(train))
	}
	for _, rec := range train {
		for i, v := range rec.Features.Columns() {
			d := v - means[i]
			stds[i] += d * d
		}
	}
	for i := range stds {
		stds[i] = math.Sqrt(stds[i] / float64(len(train)))
	}

	sums := make(map[types.Tier][]float64)
	counts := make(map[types.Tier]int)
	for _, rec := range train {
		label := rec.ResolvedStrategy
		if sums[label] == nil {
			sums[label] = make([]float64, dims)
		}
		counts[label]++
		for i, v := range rec.Features.Columns() {
			std := stds[i]
			if std == 0 {
				std = 1
			}
			sums[label][i] += (v - means[i]) / std
		}
	}

	classes := make([]int, 0, len(sums))
	for label := range sums {
		classes = append(classes, int(label))
	}
	// Stable class order for reproducible artifacts.
	slices.Sort(classes)

	centroids := make([][]float64, len(classes))
	for i, class := range classes {
		label := types.Tier(class)
		centroid := make([]float64, dims)
		for j, sum := range sums[label] {
			centroid[j] = sum / float64(counts[label])
		}
		centroids[i] = centroid
	}

	return &predict.Model{
		Version:       predict.ModelVersion,
		FeatureSchema: features.Schema,
		Classes:       classes,
		Centroids:     centroids,
		Means:         means,
		Stds:          stds,
	}
}

// evaluate computes macro-averaged precision, recall, and F1 on the holdout
// rows, averaged over the classes present in the holdout labels.
func evaluate(model *predict.Model, holdout []telemetry.Record) predict.Metrics {
	tp := make(map[types.Tier]int)
	fp := make(map[types.Tier]int)
	fn := make(map[types.Tier]int)
	present := make(map[types.Tier]bool)

	for _, rec := range holdout {
		predicted, _, _ := model.Classify(rec.Features.Columns())
		actual := rec.ResolvedStrategy
		present[actual] = true
		if predicted == actual {
			tp[actual]++
		} else {
			fp[predicted]++
			fn[actual]++
		}
	}

	var sumP, sumR, sumF float64
	n := 0
	for class := range present {
		p := safeDiv(tp[class], tp[class]+fp[class])
		r := safeDiv(tp[class], tp[class]+fn[class])
		f := 0.0
		if p+r > 0 {
			f = 2 * p * r / (p + r)
		}
		sumP += p
		sumR += r
		sumF += f
		n++
	}
	if n == 0 {
		return predict.Metrics{}
	}
	return predict.Metrics{
		MacroF1:        round3(sumF / float64(n)),
		MacroPrecision: round3(sumP / float64(n)),
		MacroRecall:    round3(sumR / float64(n)),
	}
}

// importances ranks features by how far the class centroids spread along
// each standardized dimension, normalized to sum to one.
func importances(model *predict.Model) map[string]float64 {
	dims := len(model.FeatureSchema)
	spread := make([]float64, dims)
	total := 0.0

	for j := 0; j < dims; j++ {
		mean := 0.0
		for _, c := range model.Centroids {
			mean += c[j]
		}
		mean /= float64(len(model.Centroids))
		for _, c := range model.Centroids {
			d := c[j] - mean
			spread[j] += d * d
		}
		total += spread[j]
	}

	out := make(map[string]float64, dims)
	for j, name := range model.FeatureSchema {
		if total == 0 {
			out[name] = 0
			continue
		}
		out[name] = round3(spread[j] / total)
	}
	return out
}

func writeArtifact(path string, model *predict.Model, meta *predict.Metadata) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	raw, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write model artifact: %w", err)
	}
	metaRaw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode model metadata: %w", err)
	}
	if err := os.WriteFile(predict.MetadataPath(path), metaRaw, 0o644); err != nil {
		return fmt.Errorf("failed to write model metadata: %w", err)
	}
	return nil
}

func safeDiv(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
