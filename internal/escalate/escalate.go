// Package escalate implements the deterministic remediation ladder applied
// to rejected layouts. The tier table is pure data: the same attempt number
// and content always produce an identical result, which keeps the healing
// pipeline auditable and testable.
package escalate

import (
	"fmt"
	"strings"

	"github.com/jonathan/siteforge/internal/types"
)

// DefaultTruncateLength is the starting maximum string length for the
// CONTENT_CUT tier.
const DefaultTruncateLength = 50

// minTruncateLength is the floor CONTENT_CUT never shrinks below.
const minTruncateLength = 30

// ellipsis marks truncated strings.
const ellipsis = "..."

// textRegions are the regions every presentation tier targets.
var textRegions = []string{
	types.RegionHeroTitle,
	types.RegionHeroSubtitle,
	types.RegionCardTitle,
	types.RegionCardDescription,
	types.RegionBodyText,
}

// tierClasses is the flat escalation table for the presentation tiers.
// Each tier's classes fully replace the previous tier's treatment of the
// same region (last write wins at the override map).
var tierClasses = map[types.Tier]map[string]string{
	types.TierWordBreak: {
		types.RegionHeroTitle:       "break-all overflow-hidden",
		types.RegionHeroSubtitle:    "break-all overflow-hidden",
		types.RegionCardTitle:       "break-words overflow-hidden",
		types.RegionCardDescription: "break-words overflow-hidden",
		types.RegionBodyText:        "break-words overflow-hidden",
	},
	types.TierFontShrink: {
		types.RegionHeroTitle:       "text-2xl leading-tight break-all overflow-hidden",
		types.RegionHeroSubtitle:    "text-base leading-snug break-all overflow-hidden",
		types.RegionCardTitle:       "text-base break-words overflow-hidden",
		types.RegionCardDescription: "text-xs break-words overflow-hidden",
		types.RegionBodyText:        "text-xs break-words overflow-hidden",
	},
	types.TierTruncate: {
		types.RegionHeroTitle:       "text-xl leading-tight break-all line-clamp-2 overflow-hidden",
		types.RegionHeroSubtitle:    "text-sm break-all line-clamp-2 overflow-hidden",
		types.RegionCardTitle:       "text-sm truncate",
		types.RegionCardDescription: "text-xs break-words line-clamp-3 overflow-hidden",
		types.RegionBodyText:        "text-xs truncate",
	},
}

// Escalator produces the next remediation for a given attempt.
type Escalator struct {
	truncateLength int
}

// New creates an escalator. truncateLength caps string lengths at the
// CONTENT_CUT tier; values below the floor use the default.
func New(truncateLength int) *Escalator {
	if truncateLength < minTruncateLength {
		truncateLength = DefaultTruncateLength
	}
	return &Escalator{truncateLength: truncateLength}
}

// TierForAttempt maps an attempt number onto the tier table, clamping
// attempts past the table's end to CONTENT_CUT.
func TierForAttempt(attempt int) types.Tier {
	switch {
	case attempt <= 1:
		return types.TierWordBreak
	case attempt == 2:
		return types.TierFontShrink
	case attempt == 3:
		return types.TierTruncate
	default:
		return types.TierContentCut
	}
}

// Remediate returns the remediation for the given attempt. Presentation
// tiers (1-3) emit style overrides only; CONTENT_CUT returns a truncated
// copy of the document and leaves overrides empty. The verdict only feeds
// the description; the tier choice is a function of the attempt alone.
func (e *Escalator) Remediate(verdict *types.AuditVerdict, content *types.ContentDocument, attempt int) *types.RemediationResult {
	tier := TierForAttempt(attempt)

	if tier == types.TierContentCut {
		maxLen := e.truncateLengthForAttempt(attempt)
		replaced := content.MapStrings(func(s string) string {
			return truncate(s, maxLen)
		})
		return &types.RemediationResult{
			Tier:               tier,
			StyleOverrides:     types.NewStyleOverrides(),
			ContentReplaced:    true,
			ReplacementContent: replaced,
			Description:        fmt.Sprintf("%s: truncated all content strings to %d chars", tier, maxLen),
		}
	}

	overrides := types.NewStyleOverrides()
	for _, region := range textRegions {
		overrides.Set(region, tierClasses[tier][region])
	}
	return &types.RemediationResult{
		Tier:           tier,
		StyleOverrides: overrides,
		Description:    describe(tier),
	}
}

// OverridesForTier returns the style overrides a presentation tier would
// apply, used to pre-seed a build from a predictor recommendation. Returns
// nil for tiers that do not emit overrides.
func (e *Escalator) OverridesForTier(tier types.Tier) *types.StyleOverrides {
	classes, ok := tierClasses[tier]
	if !ok {
		return nil
	}
	overrides := types.NewStyleOverrides()
	for _, region := range textRegions {
		overrides.Set(region, classes[region])
	}
	return overrides
}

// truncateLengthForAttempt shrinks the cap by 10 for every attempt past the
// first CONTENT_CUT rung, never below the floor.
func (e *Escalator) truncateLengthForAttempt(attempt int) int {
	extra := attempt - 4
	if extra < 0 {
		extra = 0
	}
	length := e.truncateLength - extra*10
	if length < minTruncateLength {
		return minTruncateLength
	}
	return length
}

// truncate shortens s to maxLen runes plus an ellipsis marker.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + ellipsis
}

func describe(tier types.Tier) string {
	switch tier {
	case types.TierWordBreak:
		return "WORD_BREAK: applied aggressive word-break classes to all text regions"
	case types.TierFontShrink:
		return "FONT_SHRINK: reduced heading and body font sizes, word-break retained"
	case types.TierTruncate:
		return "TRUNCATE: applied ellipsis and line-clamp classes with further size reduction"
	default:
		return strings.ToUpper(tier.String())
	}
}
