package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/siteforge/internal/llm"
)

// SemanticReport is the vision model's judgment of a full-page screenshot.
type SemanticReport struct {
	Status        string   `json:"status"` // "pass" or "fail"
	Issues        []string `json:"issues"`
	FixSuggestion string   `json:"fix_suggestion"` // truncate | smaller_font | wrap_text | none
}

// Passed reports whether the review found no layout bugs.
func (r *SemanticReport) Passed() bool {
	return r.Status == "pass"
}

// SemanticChecker reviews a screenshot for visual layout bugs. Any returned
// error means the check is unavailable, never that the layout is bad.
type SemanticChecker interface {
	Review(ctx context.Context, screenshotPNG []byte) (*SemanticReport, error)
}

// visionPrompt is the fixed instruction set for the layout review. The model
// is told to judge technical bugs only and to answer in strict JSON.
const visionPrompt = `You are a UI/UX QA specialist reviewing a website screenshot for technical layout bugs.

Check STRICTLY for:
1. Text overflow: text escaping its container borders
2. Text overlap: text overlapping other text, icons, or buttons
3. Broken elements: collapsed containers, broken grids
4. Rendering bugs: corrupted or malformed elements

IGNORE aesthetics, colors, fonts, and design choices. ONLY report bugs.

Return ONLY a JSON object, no markdown:
{"status": "pass" or "fail", "issues": ["..."], "fix_suggestion": "truncate" or "smaller_font" or "wrap_text" or "none"}

If the layout is technically sound, return: {"status": "pass", "issues": [], "fix_suggestion": "none"}`

// VisionChecker implements SemanticChecker on top of a vision-capable model.
type VisionChecker struct {
	client llm.Client
}

// NewVisionChecker wraps an LLM client as a semantic checker.
func NewVisionChecker(client llm.Client) *VisionChecker {
	return &VisionChecker{client: client}
}

// Review submits the screenshot for analysis and parses the verdict.
func (v *VisionChecker) Review(ctx context.Context, screenshotPNG []byte) (*SemanticReport, error) {
	text, err := v.client.GenerateVision(ctx, visionPrompt, screenshotPNG, llm.TierVision)
	if err != nil {
		return nil, fmt.Errorf("vision review failed: %w", err)
	}

	var report SemanticReport
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(text)), &report); err != nil {
		return nil, fmt.Errorf("malformed vision response: %w", err)
	}
	if report.Status != "pass" && report.Status != "fail" {
		return nil, fmt.Errorf("malformed vision response: unknown status %q", report.Status)
	}
	return &report, nil
}
