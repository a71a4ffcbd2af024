package predict

import (
	"sync"

	"github.com/jonathan/siteforge/internal/features"
	"github.com/jonathan/siteforge/internal/types"
)

// ConfidenceThreshold is the minimum confidence at which a recommendation
// may pre-seed a build. At or below it, callers must ignore the prediction.
const ConfidenceThreshold = 0.6

// unavailable is the recommendation returned whenever no usable model exists.
func unavailable() *types.StrategyRecommendation {
	return &types.StrategyRecommendation{
		TierID:         types.TierNone,
		Confidence:     0,
		ModelAvailable: false,
	}
}

// Predictor serves strategy recommendations from the newest model artifact
// in a directory. The model is loaded once, on first use; load failures are
// cached so a broken artifact does not get re-parsed on every build.
type Predictor struct {
	modelDir string

	mu        sync.Mutex
	attempted bool
	model     *Model
}

// NewPredictor creates a predictor over the given model directory. No file
// is touched until the first recommendation.
func NewPredictor(modelDir string) *Predictor {
	return &Predictor{modelDir: modelDir}
}

// load resolves and validates the newest artifact exactly once.
func (p *Predictor) load() *Model {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.attempted {
		p.attempted = true
		artifact, err := LatestArtifact(p.modelDir)
		if err != nil {
			return nil
		}
		model, _, err := LoadModel(artifact)
		if err != nil {
			return nil
		}
		p.model = model
	}
	return p.model
}

// Recommend classifies the feature vector and returns an advisory strategy.
// Always succeeds: without a usable model the recommendation simply carries
// ModelAvailable=false.
func (p *Predictor) Recommend(vec features.Vector) *types.StrategyRecommendation {
	model := p.load()
	if model == nil {
		return unavailable()
	}

	tier, confidence, probs := model.Classify(vec.Columns())
	return &types.StrategyRecommendation{
		TierID:            tier,
		Confidence:        confidence,
		TierProbabilities: probs,
		ModelAvailable:    true,
	}
}

// Usable reports whether a recommendation clears the default gate.
func Usable(rec *types.StrategyRecommendation) bool {
	return UsableAt(rec, ConfidenceThreshold)
}

// UsableAt reports whether a recommendation clears the gate for pre-seeding
// at the given threshold: a model answered, confidence strictly exceeds the
// threshold, and the predicted tier names an actual remediation rather than
// "none" or "historically unfixable".
func UsableAt(rec *types.StrategyRecommendation, threshold float64) bool {
	if rec == nil || !rec.ModelAvailable {
		return false
	}
	if rec.Confidence <= threshold {
		return false
	}
	return rec.TierID != types.TierNone && rec.TierID != types.TierUnresolved
}
