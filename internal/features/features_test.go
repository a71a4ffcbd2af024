package features

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/siteforge/internal/types"
)

func doc(title, subtitle string) *types.ContentDocument {
	return &types.ContentDocument{
		BrandName: "Acme",
		Hero:      types.Hero{Title: title, Subtitle: subtitle},
	}
}

func TestCharCount_CountsAllStrings(t *testing.T) {
	d := doc("hello", "world")
	// "Acme" + "hello" + "world" = 4 + 5 + 5
	assert.Equal(t, 14, CharCount(d))
}

func TestCharCount_MultibyteCountsRunes(t *testing.T) {
	d := doc("héllo wörld", "日本語サイト")
	// "Acme" + "héllo wörld" + "日本語サイト" = 4 + 11 + 6 runes.
	assert.Equal(t, 21, CharCount(d))
}

func TestPathologicalScore_MultibyteWordLengthIsRunes(t *testing.T) {
	// 40 runes but 120 bytes: long enough to be pathological either way,
	// yet the length score must reflect 40, not 120.
	d := doc(strings.Repeat("長", 40), "ok")
	score := PathologicalScore(d)

	ascii := doc(strings.Repeat("x", 40), "ok")
	assert.Equal(t, PathologicalScore(ascii), score)
}

func TestWordCount_SplitsOnWhitespace(t *testing.T) {
	d := doc("one two three", "four")
	assert.Equal(t, 5, WordCount(d)) // Acme + 3 + 1
}

func TestPathologicalScore_NormalText(t *testing.T) {
	d := doc("Build fast ship faster", "Deterministic layouts for everyone")
	score := PathologicalScore(d)
	assert.Less(t, score, 0.3)
}

func TestPathologicalScore_LongUnbrokenToken(t *testing.T) {
	d := doc(strings.Repeat("A", 300), "ok")
	score := PathologicalScore(d)
	assert.GreaterOrEqual(t, score, 0.7)
	assert.LessOrEqual(t, score, 1.0)
}

func TestPathologicalScore_EmptyDocument(t *testing.T) {
	d := &types.ContentDocument{}
	assert.Equal(t, 0.0, PathologicalScore(d))
}

func TestSpacingDensity_CountsSpacingClasses(t *testing.T) {
	o := types.NewStyleOverrides()
	o.Set(types.RegionHeroTitle, "p-4 mx-2 break-all")
	o.Set(types.RegionBodyText, "gap-2 text-sm")
	assert.Equal(t, 3, SpacingDensity(o))
}

func TestLayoutDensity_CountsKeywordsAndPrefixes(t *testing.T) {
	o := types.NewStyleOverrides()
	o.Set(types.RegionHeroTitle, "flex w-full text-sm")
	assert.Equal(t, 2, LayoutDensity(o))
}

func TestDensity_NilOverrides(t *testing.T) {
	assert.Equal(t, 0, SpacingDensity(nil))
	assert.Equal(t, 0, LayoutDensity(nil))
}

func TestExtract_ColumnsMatchSchema(t *testing.T) {
	d := doc("hello", "world")
	o := types.NewStyleOverrides()
	o.Set(types.RegionHeroTitle, "p-2 flex")

	v := Extract(d, o, 1, types.TierWordBreak)
	cols := v.Columns()

	assert.Len(t, cols, len(Schema))
	assert.Equal(t, float64(CharCount(d)), cols[0])
	assert.Equal(t, float64(WordCount(d)), cols[1])
	assert.Equal(t, 1.0, cols[2]) // p-2
	assert.Equal(t, 1.0, cols[3]) // flex
	assert.Equal(t, 1.0, cols[5])
	assert.Equal(t, float64(types.TierWordBreak), cols[6])
}
