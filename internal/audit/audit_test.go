package audit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/siteforge/internal/types"
)

type stubStructural struct {
	offenders     []string
	probeErr      error
	screenshot    []byte
	screenshotErr error
}

func (s *stubStructural) CheckOverflow(_ context.Context, _ string, _ time.Duration) ([]string, error) {
	return s.offenders, s.probeErr
}

func (s *stubStructural) Screenshot(_ context.Context, _ string, _ time.Duration) ([]byte, error) {
	return s.screenshot, s.screenshotErr
}

type stubSemantic struct {
	report *SemanticReport
	err    error
}

func (s *stubSemantic) Review(_ context.Context, _ []byte) (*SemanticReport, error) {
	return s.report, s.err
}

func writeArtifact(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.html")
	html := fmt.Sprintf("<!DOCTYPE html><html><head><title>t</title></head><body>%s</body></html>", body)
	require.NoError(t, os.WriteFile(path, []byte(html), 0o644))
	return path
}

func TestAudit_StructuralPassWithoutSemantic(t *testing.T) {
	a := New(&stubStructural{})
	verdict, err := a.Audit(context.Background(), writeArtifact(t, "<h1>hello</h1>"))

	require.NoError(t, err)
	assert.True(t, verdict.Approved)
	assert.Equal(t, types.HintNone, verdict.Hint)
}

func TestAudit_StructuralOverflowWithoutSemanticRejects(t *testing.T) {
	a := New(&stubStructural{offenders: []string{"h1.hero", "p.card"}})
	verdict, err := a.Audit(context.Background(), writeArtifact(t, "<h1>hello</h1>"))

	require.NoError(t, err)
	assert.False(t, verdict.Approved)
	assert.Equal(t, types.HintTruncate, verdict.Hint)
	assert.Len(t, verdict.Issues, 2)
	assert.Contains(t, verdict.Issues[0], "h1.hero")
}

func TestAudit_SemanticPassOverridesStructuralOverflow(t *testing.T) {
	a := New(
		&stubStructural{offenders: []string{"div.scroller"}, screenshot: []byte("png")},
		WithSemanticChecker(&stubSemantic{report: &SemanticReport{Status: "pass", FixSuggestion: "none"}}),
	)
	verdict, err := a.Audit(context.Background(), writeArtifact(t, "<h1>hello</h1>"))

	require.NoError(t, err)
	assert.True(t, verdict.Approved)
	assert.Contains(t, verdict.Reason, "visually acceptable")
	assert.NotEmpty(t, verdict.Issues)
}

func TestAudit_SemanticFailRejectsDespiteCleanStructure(t *testing.T) {
	a := New(
		&stubStructural{screenshot: []byte("png")},
		WithSemanticChecker(&stubSemantic{report: &SemanticReport{
			Status:        "fail",
			Issues:        []string{"title overlaps nav"},
			FixSuggestion: "smaller_font",
		}}),
	)
	verdict, err := a.Audit(context.Background(), writeArtifact(t, "<h1>hello</h1>"))

	require.NoError(t, err)
	assert.False(t, verdict.Approved)
	assert.Contains(t, verdict.Reason, "title overlaps nav")
	assert.Equal(t, types.HintSmallerFont, verdict.Hint)
}

func TestAudit_SemanticReviewErrorFailsOpen(t *testing.T) {
	a := New(
		&stubStructural{offenders: []string{"h1.hero"}, screenshot: []byte("png")},
		WithSemanticChecker(&stubSemantic{err: errors.New("quota exhausted")}),
	)
	verdict, err := a.Audit(context.Background(), writeArtifact(t, "<h1>hello</h1>"))

	require.NoError(t, err)
	assert.True(t, verdict.Approved)
	assert.Contains(t, verdict.Reason, "semantic check unavailable")
}

func TestAudit_ScreenshotErrorFailsOpen(t *testing.T) {
	a := New(
		&stubStructural{screenshotErr: errors.New("browser crashed")},
		WithSemanticChecker(&stubSemantic{report: &SemanticReport{Status: "fail"}}),
	)
	verdict, err := a.Audit(context.Background(), writeArtifact(t, "<h1>hello</h1>"))

	require.NoError(t, err)
	assert.True(t, verdict.Approved)
	assert.Contains(t, verdict.Reason, "semantic check unavailable")
}

func TestAudit_ProbeErrorDegradesToNoOverflow(t *testing.T) {
	a := New(&stubStructural{probeErr: errors.New("tab timeout")})
	verdict, err := a.Audit(context.Background(), writeArtifact(t, "<h1>hello</h1>"))

	require.NoError(t, err)
	assert.True(t, verdict.Approved)
	assert.Contains(t, verdict.Reason, "structural check unavailable")
}

func TestAudit_MissingArtifactIsAnError(t *testing.T) {
	a := New(&stubStructural{})
	_, err := a.Audit(context.Background(), filepath.Join(t.TempDir(), "nope.html"))
	assert.Error(t, err)
}

func TestAudit_EmptyDocumentIsAnError(t *testing.T) {
	a := New(&stubStructural{})
	_, err := a.Audit(context.Background(), writeArtifact(t, "<div></div>"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no visible text")
}

func TestDescribeOffenders_CapsLongLists(t *testing.T) {
	offenders := make([]string, 25)
	for i := range offenders {
		offenders[i] = fmt.Sprintf("div.item-%d", i)
	}
	issues := describeOffenders(offenders)
	require.Len(t, issues, 11)
	assert.Contains(t, issues[10], "15 more")
}

func TestHintFromSuggestion(t *testing.T) {
	assert.Equal(t, types.HintTruncate, hintFromSuggestion("truncate"))
	assert.Equal(t, types.HintSmallerFont, hintFromSuggestion("smaller_font"))
	assert.Equal(t, types.HintWrapText, hintFromSuggestion("wrap_text"))
	assert.Equal(t, types.HintNone, hintFromSuggestion("none"))
	assert.Equal(t, types.HintNone, hintFromSuggestion("repaint"))
}
