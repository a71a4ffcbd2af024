package predict

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/siteforge/internal/features"
	"github.com/jonathan/siteforge/internal/types"
)

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

func filled(n int, x float64) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = x
	}
	return v
}

func testModel() *Model {
	dims := len(features.Schema)
	return &Model{
		Version:       ModelVersion,
		FeatureSchema: features.Schema,
		Classes:       []int{1, 3},
		Centroids:     [][]float64{filled(dims, 0), filled(dims, 10)},
		Means:         filled(dims, 0),
		Stds:          ones(dims),
	}
}

func writeModel(t *testing.T, dir, name string, model *Model, meta *Metadata) string {
	t.Helper()
	path := filepath.Join(dir, name)

	raw, err := json.Marshal(model)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	if meta == nil {
		meta = &Metadata{
			Version:       ModelVersion,
			TrainedAt:     "2026-08-30T12:00:00Z",
			FeatureSchema: model.FeatureSchema,
			Classes:       model.Classes,
		}
	}
	metaRaw, err := json.Marshal(meta)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(MetadataPath(path), metaRaw, 0o644))
	return path
}

func TestRecommend_ClassifiesNearestCentroid(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "strategy_model_20260830_120000.json", testModel(), nil)

	p := NewPredictor(dir)
	rec := p.Recommend(features.Vector{})

	require.True(t, rec.ModelAvailable)
	assert.Equal(t, types.TierWordBreak, rec.TierID)
	assert.Greater(t, rec.Confidence, 0.9)
	assert.InDelta(t, 1.0, rec.TierProbabilities[types.TierWordBreak]+rec.TierProbabilities[types.TierTruncate], 1e-9)
}

func TestRecommend_NoModelDirectory(t *testing.T) {
	p := NewPredictor(filepath.Join(t.TempDir(), "missing"))
	rec := p.Recommend(features.Vector{})

	assert.False(t, rec.ModelAvailable)
	assert.Equal(t, types.TierNone, rec.TierID)
	assert.Zero(t, rec.Confidence)
}

func TestRecommend_SchemaMismatchDegrades(t *testing.T) {
	dir := t.TempDir()
	model := testModel()
	model.FeatureSchema = []string{"some_other_column"}
	model.Centroids = [][]float64{{0}, {10}}
	model.Means = []float64{0}
	model.Stds = []float64{1}
	writeModel(t, dir, "strategy_model_20260830_120000.json", model, nil)

	rec := NewPredictor(dir).Recommend(features.Vector{})
	assert.False(t, rec.ModelAvailable)
}

func TestRecommend_MissingSidecarDegrades(t *testing.T) {
	dir := t.TempDir()
	path := writeModel(t, dir, "strategy_model_20260830_120000.json", testModel(), nil)
	require.NoError(t, os.Remove(MetadataPath(path)))

	rec := NewPredictor(dir).Recommend(features.Vector{})
	assert.False(t, rec.ModelAvailable)
}

func TestRecommend_LoadFailureIsCached(t *testing.T) {
	dir := t.TempDir()
	p := NewPredictor(dir)
	require.False(t, p.Recommend(features.Vector{}).ModelAvailable)

	// A model appearing later is not picked up; the predictor settled on
	// "unavailable" at first use.
	writeModel(t, dir, "strategy_model_20260830_120000.json", testModel(), nil)
	assert.False(t, p.Recommend(features.Vector{}).ModelAvailable)
}

func TestLatestArtifact_PicksNewestAndSkipsSidecars(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "strategy_model_20260101_000000.json", testModel(), nil)
	newest := writeModel(t, dir, "strategy_model_20260830_120000.json", testModel(), nil)

	got, err := LatestArtifact(dir)
	require.NoError(t, err)
	assert.Equal(t, newest, got)
}

func TestLatestArtifact_EmptyDirectory(t *testing.T) {
	_, err := LatestArtifact(t.TempDir())
	assert.Error(t, err)
}

func TestLoadModel_RejectsInconsistentCentroids(t *testing.T) {
	dir := t.TempDir()
	model := testModel()
	model.Centroids = model.Centroids[:1]
	path := writeModel(t, dir, "strategy_model_20260830_120000.json", model, nil)

	_, _, err := LoadModel(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "centroids")
}

func TestLoadModel_RejectsWrongVersion(t *testing.T) {
	dir := t.TempDir()
	model := testModel()
	model.Version = 99
	path := writeModel(t, dir, "strategy_model_20260830_120000.json", model, nil)

	_, _, err := LoadModel(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version")
}

func TestUsable_ConfidenceGate(t *testing.T) {
	rec := &types.StrategyRecommendation{TierID: types.TierFontShrink, ModelAvailable: true}

	rec.Confidence = 0.59
	assert.False(t, Usable(rec))
	rec.Confidence = 0.60
	assert.False(t, Usable(rec), "threshold is exclusive")
	rec.Confidence = 0.61
	assert.True(t, Usable(rec))
}

func TestUsableAt_CustomThreshold(t *testing.T) {
	rec := &types.StrategyRecommendation{TierID: types.TierFontShrink, Confidence: 0.7, ModelAvailable: true}

	assert.False(t, UsableAt(rec, 0.8))
	assert.False(t, UsableAt(rec, 0.70), "threshold is exclusive")
	assert.True(t, UsableAt(rec, 0.65))
}

func TestUsable_RejectsNonRemediationTiers(t *testing.T) {
	assert.False(t, Usable(nil))
	assert.False(t, Usable(&types.StrategyRecommendation{TierID: types.TierFontShrink, Confidence: 0.9}))
	assert.False(t, Usable(&types.StrategyRecommendation{TierID: types.TierNone, Confidence: 0.9, ModelAvailable: true}))
	assert.False(t, Usable(&types.StrategyRecommendation{TierID: types.TierUnresolved, Confidence: 0.9, ModelAvailable: true}))
	assert.True(t, Usable(&types.StrategyRecommendation{TierID: types.TierContentCut, Confidence: 0.9, ModelAvailable: true}))
}
