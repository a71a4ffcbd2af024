// Package orchestrator drives the render, audit, and heal loop for one
// build. The loop is bounded: every build terminates in one of four states
// after at most the configured number of attempts.
package orchestrator

import (
	"context"
	"time"

	"github.com/jonathan/siteforge/internal/features"
	"github.com/jonathan/siteforge/internal/observability"
	"github.com/jonathan/siteforge/internal/predict"
	"github.com/jonathan/siteforge/internal/rendering"
	"github.com/jonathan/siteforge/internal/telemetry"
	"github.com/jonathan/siteforge/internal/types"
)

// Renderer produces an artifact from content, theme, and overrides.
type Renderer interface {
	Render(content *types.ContentDocument, theme, outputFilename string, overrides *types.StyleOverrides) (string, error)
}

// Auditor judges a rendered artifact.
type Auditor interface {
	Audit(ctx context.Context, artifactPath string) (*types.AuditVerdict, error)
}

// Remediator produces the next healing step for a rejected attempt.
type Remediator interface {
	Remediate(verdict *types.AuditVerdict, content *types.ContentDocument, attempt int) *types.RemediationResult
	OverridesForTier(tier types.Tier) *types.StyleOverrides
}

// Recommender suggests a starting tier before the first render.
type Recommender interface {
	Recommend(vec features.Vector) *types.StrategyRecommendation
}

// EventLogger records terminal build outcomes.
type EventLogger interface {
	Record(event *telemetry.Event) error
}

// Request describes one build.
type Request struct {
	Content        *types.ContentDocument
	Theme          string
	OutputFilename string
	MaxAttempts    int
	AuditEnabled   bool
}

// Options carry the optional collaborators.
type Options struct {
	Recommender Recommender            // nil disables prediction
	Confidence  float64                // pre-seed gate; <= 0 means predict.ConfidenceThreshold
	Logger      EventLogger            // nil disables telemetry
	Printer     *observability.Printer // nil disables verbose output
	Preserve    func(string) (string, error)
	ErrorLog    func(format string, args ...any) // telemetry failures land here
}

// Orchestrator owns the attempt loop. One orchestrator may serve many
// builds; all per-build state lives on the stack of Run.
type Orchestrator struct {
	renderer   Renderer
	auditor    Auditor
	remediator Remediator
	opts       Options
}

// New creates an orchestrator over the mandatory collaborators.
func New(renderer Renderer, auditor Auditor, remediator Remediator, opts Options) *Orchestrator {
	if opts.Preserve == nil {
		opts.Preserve = rendering.PreserveBroken
	}
	if opts.Confidence <= 0 {
		opts.Confidence = predict.ConfidenceThreshold
	}
	if opts.ErrorLog == nil {
		opts.ErrorLog = func(string, ...any) {}
	}
	return &Orchestrator{
		renderer:   renderer,
		auditor:    auditor,
		remediator: remediator,
		opts:       opts,
	}
}

// buildState is the mutable per-build loop state.
type buildState struct {
	attempts  int
	overrides *types.StyleOverrides
	content   *types.ContentDocument
	fixes     []string
	lastTier  types.Tier
}

// Run executes the build loop and returns its terminal result. Errors are
// folded into the result's status; Run itself never fails.
func (o *Orchestrator) Run(ctx context.Context, req Request) *types.BuildResult {
	maxAttempts := req.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	state := &buildState{
		overrides: types.NewStyleOverrides(),
		content:   req.Content.Clone(),
		lastTier:  types.TierNone,
	}

	// Fast path for trusted content: one render, no audit, no escalation.
	if !req.AuditEnabled {
		state.attempts = 1
		artifact, err := o.renderer.Render(state.content, req.Theme, req.OutputFilename, state.overrides)
		if err != nil {
			return o.finish(req, state, failed(req, state, err))
		}
		return o.finish(req, state, &types.BuildResult{
			Status:     types.StatusSuccess,
			OutputPath: artifact,
			Theme:      req.Theme,
			Attempts:   1,
		})
	}

	o.preSeed(req, state)

	var lastArtifact string
	var lastVerdict *types.AuditVerdict

	for state.attempts < maxAttempts {
		// Cancellation is honored between attempts, never mid-render.
		if ctx.Err() != nil {
			return o.finish(req, state, cancelled(req, state, lastVerdict))
		}
		state.attempts++

		artifact, err := o.renderer.Render(state.content, req.Theme, req.OutputFilename, state.overrides)
		if err != nil {
			// Rendering failures are a different error class than layout
			// failures and must not consume escalation tiers.
			return o.finish(req, state, failed(req, state, err))
		}
		lastArtifact = artifact

		verdict, err := o.auditor.Audit(ctx, artifact)
		if err != nil {
			return o.finish(req, state, failed(req, state, err))
		}
		lastVerdict = verdict
		if o.opts.Printer != nil {
			o.opts.Printer.PrintVerdict(state.attempts, verdict)
		}

		if verdict.Approved {
			return o.finish(req, state, &types.BuildResult{
				Status:       types.StatusSuccess,
				OutputPath:   artifact,
				Theme:        req.Theme,
				Attempts:     state.attempts,
				Verdict:      verdict,
				FixesApplied: state.fixes,
			})
		}

		if state.attempts < maxAttempts {
			o.escalate(verdict, state)
		}
	}

	// Attempts exhausted. Preserve the evidence; never silently delete it.
	result := &types.BuildResult{
		Status:       types.StatusRejected,
		Theme:        req.Theme,
		Attempts:     state.attempts,
		Verdict:      lastVerdict,
		FixesApplied: state.fixes,
	}
	if lastArtifact != "" {
		if brokenPath, err := o.opts.Preserve(lastArtifact); err == nil {
			result.OutputPath = brokenPath
		} else {
			result.Errors = append(result.Errors, err.Error())
		}
	}
	return o.finish(req, state, result)
}

// preSeed consults the recommender once and, when the gate clears, applies
// the recommended tier's overrides as if that tier had already run. The
// attempt counter is not consumed: the bounded loop is the backstop, not
// the prediction. CONTENT_CUT recommendations are ignored since mutating
// content before any rejection was observed is never warranted.
func (o *Orchestrator) preSeed(req Request, state *buildState) {
	if o.opts.Recommender == nil {
		return
	}

	vec := features.Extract(state.content, nil, features.ThemeID(req.Theme), types.TierNone)
	rec := o.opts.Recommender.Recommend(vec)
	usable := predict.UsableAt(rec, o.opts.Confidence)

	var seeded *types.StyleOverrides
	if usable {
		seeded = o.remediator.OverridesForTier(rec.TierID)
	}
	if o.opts.Printer != nil {
		o.opts.Printer.PrintRecommendation(rec, seeded != nil)
	}
	if seeded == nil {
		return
	}

	state.overrides.Merge(seeded)
	state.lastTier = rec.TierID
	state.fixes = append(state.fixes, "PREDICTED "+rec.TierID.String())
}

// escalate applies the next remediation to the build state. Content
// replacement is wholesale; overrides merge overwrite-by-key so a later
// tier fully supersedes an earlier one.
func (o *Orchestrator) escalate(verdict *types.AuditVerdict, state *buildState) {
	result := o.remediator.Remediate(verdict, state.content, state.attempts)
	if o.opts.Printer != nil {
		o.opts.Printer.PrintRemediation(result)
	}

	if result.ContentReplaced {
		state.content = result.ReplacementContent
	} else if result.StyleOverrides != nil {
		state.overrides.Merge(result.StyleOverrides)
	}
	state.lastTier = result.Tier
	state.fixes = append(state.fixes, result.Description)
}

// finish emits the terminal telemetry event and the verbose report. A
// logging failure never affects the build outcome.
func (o *Orchestrator) finish(req Request, state *buildState, result *types.BuildResult) *types.BuildResult {
	if o.opts.Printer != nil {
		o.opts.Printer.PrintBuildResult(result)
	}
	if o.opts.Logger == nil {
		return result
	}

	event := &telemetry.Event{
		Timestamp:         time.Now().UTC(),
		Theme:             req.Theme,
		Features:          features.Extract(state.content, state.overrides, features.ThemeID(req.Theme), state.lastTier),
		CSSSignature:      state.overrides.Signature(),
		ActiveStrategy:    state.lastTier,
		ResolvedStrategy:  resolvedStrategy(result, state),
		IsValid:           result.Status == types.StatusSuccess,
		StyleOverridesRaw: state.overrides.SortedJSON(),
	}
	if result.Verdict != nil && !result.Verdict.Approved {
		event.FailureReason = result.Verdict.Reason
	} else if len(result.Errors) > 0 {
		event.FailureReason = result.Errors[0]
	}

	if err := o.opts.Logger.Record(event); err != nil {
		o.opts.ErrorLog("telemetry write failed: %v", err)
	}
	return result
}

// resolvedStrategy derives the multiclass outcome label: 0 when no healing
// was needed, the last applied tier when healing achieved approval, 99 for
// everything that never reached an approved artifact.
func resolvedStrategy(result *types.BuildResult, state *buildState) types.Tier {
	if result.Status == types.StatusSuccess {
		return state.lastTier
	}
	return types.TierUnresolved
}

func failed(req Request, state *buildState, err error) *types.BuildResult {
	return &types.BuildResult{
		Status:       types.StatusFailed,
		Theme:        req.Theme,
		Attempts:     state.attempts,
		FixesApplied: state.fixes,
		Errors:       []string{err.Error()},
	}
}

func cancelled(req Request, state *buildState, verdict *types.AuditVerdict) *types.BuildResult {
	return &types.BuildResult{
		Status:       types.StatusCancelled,
		Theme:        req.Theme,
		Attempts:     state.attempts,
		Verdict:      verdict,
		FixesApplied: state.fixes,
	}
}
