package types

// RemediationHint is the auditor's suggested fix category. It biases the
// escalator's classification but never overrides the tier table.
type RemediationHint string

// Hint values mirror the semantic checker's fix_suggestion vocabulary.
const (
	HintNone        RemediationHint = "none"
	HintWrapText    RemediationHint = "wrap_text"
	HintSmallerFont RemediationHint = "smaller_font"
	HintTruncate    RemediationHint = "truncate"
)

// AuditVerdict is the auditor's judgment of one rendered artifact.
// Produced fresh on every attempt; never retained across attempts.
type AuditVerdict struct {
	Approved bool            `json:"approved"`
	Reason   string          `json:"reason"`
	Issues   []string        `json:"issues"`
	Hint     RemediationHint `json:"hint"`
}

// Tier identifies one rung of the remediation escalation.
type Tier int

// Tier values double as the resolved-outcome ids recorded to telemetry:
// 0 means no healing was needed, 1-4 name the tier that achieved approval,
// and 99 marks content no tier could fix.
const (
	TierNone       Tier = 0
	TierWordBreak  Tier = 1
	TierFontShrink Tier = 2
	TierTruncate   Tier = 3
	TierContentCut Tier = 4
	TierUnresolved Tier = 99
)

// String returns the canonical strategy name for the tier.
func (t Tier) String() string {
	switch t {
	case TierNone:
		return "NONE"
	case TierWordBreak:
		return "WORD_BREAK"
	case TierFontShrink:
		return "FONT_SHRINK"
	case TierTruncate:
		return "TRUNCATE"
	case TierContentCut:
		return "CONTENT_CUT"
	case TierUnresolved:
		return "UNRESOLVED"
	default:
		return "UNKNOWN"
	}
}

// RemediationResult is one escalation step. Exactly one of StyleOverrides
// (non-empty) or ContentReplaced=true carries the effective change;
// CONTENT_CUT is the only tier that replaces content.
type RemediationResult struct {
	Tier               Tier
	StyleOverrides     *StyleOverrides
	ContentReplaced    bool
	ReplacementContent *ContentDocument
	Description        string
}

// StrategyRecommendation is the predictor's advisory output. TierID maps
// onto the escalator's tier table; 99 means historically unfixable and is
// treated the same as no recommendation.
type StrategyRecommendation struct {
	TierID            Tier             `json:"tier_id"`
	Confidence        float64          `json:"confidence"`
	TierProbabilities map[Tier]float64 `json:"tier_probabilities"`
	ModelAvailable    bool             `json:"model_available"`
}
