package audit

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/siteforge/internal/types"
)

// Default phase timeouts. The structural pass has no network dependency and
// is bounded tightly; the semantic pass talks to a remote model.
const (
	DefaultStructuralTimeout = 10 * time.Second
	DefaultSemanticTimeout   = 45 * time.Second
)

// StructuralChecker measures a rendered artifact for overflow and captures
// screenshots. Implemented by Browser; stubbed in tests.
type StructuralChecker interface {
	CheckOverflow(ctx context.Context, artifactPath string, timeout time.Duration) ([]string, error)
	Screenshot(ctx context.Context, artifactPath string, timeout time.Duration) ([]byte, error)
}

// Auditor renders-then-inspects build artifacts. Phase 1 (structural)
// always runs; Phase 2 (semantic) runs only when a checker is configured
// and fails open on any infrastructure error.
//
// Combination policy: when both phases ran, the semantic verdict wins in
// both directions. A semantic pass forgives structural overflow
// (intentional scroll regions are common), and a semantic fail rejects
// even when the structural probe saw nothing.
type Auditor struct {
	structural        StructuralChecker
	semantic          SemanticChecker
	structuralTimeout time.Duration
	semanticTimeout   time.Duration
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithSemanticChecker enables the deep visual review phase.
func WithSemanticChecker(c SemanticChecker) Option {
	return func(a *Auditor) { a.semantic = c }
}

// WithTimeouts overrides the per-phase timeouts.
func WithTimeouts(structural, semantic time.Duration) Option {
	return func(a *Auditor) {
		a.structuralTimeout = structural
		a.semanticTimeout = semantic
	}
}

// New creates an Auditor over the given structural checker.
func New(structural StructuralChecker, opts ...Option) *Auditor {
	a := &Auditor{
		structural:        structural,
		structuralTimeout: DefaultStructuralTimeout,
		semanticTimeout:   DefaultSemanticTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Audit inspects the artifact and returns a verdict. An error is returned
// only when the artifact itself cannot be read; every checker failure is
// absorbed into the verdict.
func (a *Auditor) Audit(ctx context.Context, artifactPath string) (*types.AuditVerdict, error) {
	// Phase 0: static sanity parse. A document the browser cannot even
	// render meaningfully should not burn remediation tiers.
	if err := parseArtifact(artifactPath); err != nil {
		return nil, err
	}

	// Phase 1: structural overflow probe.
	offenders, probeErr := a.structural.CheckOverflow(ctx, artifactPath, a.structuralTimeout)
	structuralOverflow := probeErr == nil && len(offenders) > 0

	var annotations []string
	if probeErr != nil {
		// Probe infrastructure failure degrades to "no overflow detected".
		annotations = append(annotations, fmt.Sprintf("structural check unavailable: %v", probeErr))
	}

	// Phase 2: semantic review, if configured.
	if a.semantic != nil {
		report, semErr := a.runSemantic(ctx, artifactPath)
		if semErr != nil {
			// Fail open: the pipeline must never depend on model availability.
			reason := fmt.Sprintf("semantic check unavailable (%v) - approved by default", semErr)
			if len(annotations) > 0 {
				reason = reason + "; " + strings.Join(annotations, "; ")
			}
			return &types.AuditVerdict{
				Approved: true,
				Reason:   reason,
				Hint:     types.HintNone,
			}, nil
		}
		return combineVerdicts(structuralOverflow, offenders, report, annotations), nil
	}

	// Semantic phase not configured: structural verdict is authoritative.
	if structuralOverflow {
		return &types.AuditVerdict{
			Approved: false,
			Reason:   "structural overflow detected (horizontal or vertical)",
			Issues:   describeOffenders(offenders),
			Hint:     types.HintTruncate,
		}, nil
	}
	reason := "structural checks passed"
	if len(annotations) > 0 {
		reason = reason + " (" + strings.Join(annotations, "; ") + ")"
	}
	return &types.AuditVerdict{Approved: true, Reason: reason, Hint: types.HintNone}, nil
}

// runSemantic captures a screenshot and submits it for review. Both steps
// share the semantic timeout and either failing makes the phase unavailable.
func (a *Auditor) runSemantic(ctx context.Context, artifactPath string) (*SemanticReport, error) {
	png, err := a.structural.Screenshot(ctx, artifactPath, a.semanticTimeout)
	if err != nil {
		return nil, err
	}

	reviewCtx, cancel := context.WithTimeout(ctx, a.semanticTimeout)
	defer cancel()
	return a.semantic.Review(reviewCtx, png)
}

// combineVerdicts applies the trust-the-vision-model policy.
func combineVerdicts(structuralOverflow bool, offenders []string, report *SemanticReport, annotations []string) *types.AuditVerdict {
	if !report.Passed() {
		reason := "visual layout bugs detected"
		if len(report.Issues) > 0 {
			reason = fmt.Sprintf("visual layout bugs detected: %s", strings.Join(report.Issues, ", "))
		}
		return &types.AuditVerdict{
			Approved: false,
			Reason:   reason,
			Issues:   report.Issues,
			Hint:     hintFromSuggestion(report.FixSuggestion),
		}
	}

	if structuralOverflow {
		return &types.AuditVerdict{
			Approved: true,
			Reason:   "structural overflow detected but visually acceptable",
			Issues:   describeOffenders(offenders),
			Hint:     types.HintNone,
		}
	}

	reason := "layout passed all checks"
	if len(annotations) > 0 {
		reason = reason + " (" + strings.Join(annotations, "; ") + ")"
	}
	return &types.AuditVerdict{Approved: true, Reason: reason, Hint: types.HintNone}
}

// parseArtifact verifies the artifact exists and parses as an HTML document
// with visible text.
func parseArtifact(artifactPath string) error {
	f, err := os.Open(artifactPath)
	if err != nil {
		return fmt.Errorf("artifact not readable: %w", err)
	}
	defer func() { _ = f.Close() }()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return fmt.Errorf("artifact not parseable: %w", err)
	}
	if strings.TrimSpace(doc.Find("body").Text()) == "" {
		return fmt.Errorf("artifact has no visible text content: %s", artifactPath)
	}
	return nil
}

// describeOffenders caps the reported offender list; overflow in a broken
// layout tends to cascade and the tail adds no signal.
func describeOffenders(offenders []string) []string {
	const maxOffenders = 10
	issues := make([]string, 0, min(len(offenders), maxOffenders))
	for i, o := range offenders {
		if i == maxOffenders {
			issues = append(issues, fmt.Sprintf("... and %d more", len(offenders)-maxOffenders))
			break
		}
		issues = append(issues, "overflow: "+o)
	}
	return issues
}

func hintFromSuggestion(s string) types.RemediationHint {
	switch s {
	case "truncate":
		return types.HintTruncate
	case "smaller_font":
		return types.HintSmallerFont
	case "wrap_text":
		return types.HintWrapText
	default:
		return types.HintNone
	}
}
