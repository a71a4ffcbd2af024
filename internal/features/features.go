// Package features derives the fixed-shape numeric feature vector used by
// the telemetry log and the strategy predictor. All functions are pure.
package features

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/siteforge/internal/types"
)

const (
	// longWordThreshold marks words likely to break layout when unwrapped.
	longWordThreshold = 30
	// repeatThreshold marks suspicious single-character runs (AAAA...).
	repeatThreshold = 10
)

// Schema lists the feature column names in vector order. The trainer writes
// this list into the model metadata sidecar and the predictor refuses any
// artifact whose schema does not match it exactly.
var Schema = []string{
	"input_char_len",
	"input_word_count",
	"css_density_spacing",
	"css_density_layout",
	"pathological_score",
	"theme_id",
	"strategy_id",
}

// Vector is the fixed-order numeric feature tuple for one build event.
type Vector struct {
	CharLen           int
	WordCount         int
	DensitySpacing    int
	DensityLayout     int
	PathologicalScore float64
	ThemeID           float64
	StrategyID        float64
}

// Columns returns the vector as a float slice in Schema order.
func (v Vector) Columns() []float64 {
	return []float64{
		float64(v.CharLen),
		float64(v.WordCount),
		float64(v.DensitySpacing),
		float64(v.DensityLayout),
		v.PathologicalScore,
		v.ThemeID,
		v.StrategyID,
	}
}

// Extract computes the feature vector for a content document and the style
// overrides active at the time of the build event.
func Extract(doc *types.ContentDocument, overrides *types.StyleOverrides, themeID float64, strategy types.Tier) Vector {
	return Vector{
		CharLen:           CharCount(doc),
		WordCount:         WordCount(doc),
		DensitySpacing:    SpacingDensity(overrides),
		DensityLayout:     LayoutDensity(overrides),
		PathologicalScore: PathologicalScore(doc),
		ThemeID:           themeID,
		StrategyID:        float64(strategy),
	}
}

// ThemeID maps a theme name onto a stable numeric id. The mapping only has
// to be deterministic and identical at training and prediction time; the
// value itself carries no meaning.
func ThemeID(name string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return float64(h.Sum32() % 1000)
}

// CharCount totals the characters of every string value in the document.
// Characters are runes, not bytes, so multibyte content is measured in the
// same unit the truncation tier cuts in.
func CharCount(doc *types.ContentDocument) int {
	total := 0
	doc.EachString(func(s string) { total += utf8.RuneCountInString(s) })
	return total
}

// WordCount totals the whitespace-separated tokens of every string value.
func WordCount(doc *types.ContentDocument) int {
	total := 0
	doc.EachString(func(s string) { total += len(strings.Fields(s)) })
	return total
}

// spacingPrefixes are utility-class prefixes that control spacing.
var spacingPrefixes = []string{
	"p-", "m-", "gap-", "space-", "px-", "py-", "pt-", "pb-",
	"pl-", "pr-", "mx-", "my-", "mt-", "mb-", "ml-", "mr-",
}

// layoutKeywords and layoutPrefixes identify layout-affecting classes.
var (
	layoutKeywords = map[string]bool{
		"flex": true, "grid": true, "block": true, "inline": true,
		"absolute": true, "relative": true, "fixed": true,
	}
	layoutPrefixes = []string{"w-", "h-", "max-w-", "max-h-", "min-w-", "min-h-"}
)

// SpacingDensity counts spacing utility classes across all overrides.
func SpacingDensity(overrides *types.StyleOverrides) int {
	return countClasses(overrides, func(cls string) bool {
		for _, p := range spacingPrefixes {
			if strings.HasPrefix(cls, p) {
				return true
			}
		}
		return false
	})
}

// LayoutDensity counts layout utility classes across all overrides.
func LayoutDensity(overrides *types.StyleOverrides) int {
	return countClasses(overrides, func(cls string) bool {
		if layoutKeywords[cls] {
			return true
		}
		for _, p := range layoutPrefixes {
			if strings.HasPrefix(cls, p) {
				return true
			}
		}
		return false
	})
}

func countClasses(overrides *types.StyleOverrides, match func(string) bool) int {
	if overrides == nil {
		return 0
	}
	count := 0
	for _, classes := range overrides.Values() {
		for _, cls := range strings.Fields(classes) {
			if match(cls) {
				count++
			}
		}
	}
	return count
}

// PathologicalScore scores how adversarial the document's text is to layout,
// in [0, 1]. Long unbroken tokens and repeated-character runs raise the score:
// ratio of pathological words x0.5, max word length / 100 x0.3, and max
// character run / 20 x0.2, rounded to three decimals.
func PathologicalScore(doc *types.ContentDocument) float64 {
	totalWords := 0
	pathological := 0
	maxWordLen := 0
	maxRepeat := 0

	doc.EachString(func(s string) {
		for _, word := range strings.Fields(s) {
			totalWords++
			wordLen := utf8.RuneCountInString(word)
			if wordLen > maxWordLen {
				maxWordLen = wordLen
			}
			if wordLen > longWordThreshold {
				pathological++
			}
			run := longestRun(word)
			if run > maxRepeat {
				maxRepeat = run
			}
			if run >= repeatThreshold {
				pathological++
			}
		}
	})

	if totalWords == 0 {
		return 0
	}

	ratio := float64(pathological) / float64(totalWords)
	lengthScore := math.Min(float64(maxWordLen)/100.0, 1.0)
	repeatScore := math.Min(float64(maxRepeat)/20.0, 1.0)

	score := ratio*0.5 + lengthScore*0.3 + repeatScore*0.2
	return math.Round(math.Min(score, 1.0)*1000) / 1000
}

// longestRun returns the length of the longest run of one rune in word.
func longestRun(word string) int {
	longest, current := 0, 0
	var prev rune
	for i, r := range word {
		if i == 0 || r != prev {
			current = 1
		} else {
			current++
		}
		if current > longest {
			longest = current
		}
		prev = r
	}
	return longest
}
