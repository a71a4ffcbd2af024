package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStyleOverrides_SetReplacesNotMerges(t *testing.T) {
	o := NewStyleOverrides()
	o.Set(RegionHeroTitle, "break-all")
	o.Set(RegionHeroTitle, "text-sm truncate")

	v, ok := o.Get(RegionHeroTitle)
	assert.True(t, ok)
	assert.Equal(t, "text-sm truncate", v)
	assert.Equal(t, 1, o.Len())
}

func TestStyleOverrides_MergeOverwritesByKey(t *testing.T) {
	first := NewStyleOverrides()
	first.Set(RegionHeroTitle, "break-all")
	first.Set(RegionBodyText, "break-words")

	second := NewStyleOverrides()
	second.Set(RegionHeroTitle, "text-xs line-clamp-2")

	first.Merge(second)

	v, _ := first.Get(RegionHeroTitle)
	assert.Equal(t, "text-xs line-clamp-2", v)
	body, _ := first.Get(RegionBodyText)
	assert.Equal(t, "break-words", body)
	assert.Equal(t, []string{RegionHeroTitle, RegionBodyText}, first.Keys())
}

func TestStyleOverrides_SignatureDeterministic(t *testing.T) {
	a := NewStyleOverrides()
	a.Set(RegionHeroTitle, "break-all")
	a.Set(RegionBodyText, "text-sm")

	b := NewStyleOverrides()
	b.Set(RegionBodyText, "text-sm")
	b.Set(RegionHeroTitle, "break-all")

	assert.Equal(t, a.Signature(), b.Signature())
	assert.Equal(t, a.SortedJSON(), b.SortedJSON())
}

func TestStyleOverrides_EmptySignature(t *testing.T) {
	o := NewStyleOverrides()
	assert.Equal(t, "NONE", o.Signature())
	assert.Equal(t, "", o.SortedJSON())
}

func TestStyleOverrides_CloneIsIndependent(t *testing.T) {
	o := NewStyleOverrides()
	o.Set(RegionHeroTitle, "break-all")

	c := o.Clone()
	c.Set(RegionHeroTitle, "truncate")

	v, _ := o.Get(RegionHeroTitle)
	assert.Equal(t, "break-all", v)
}

func TestContentDocument_MapStringsDeepCopies(t *testing.T) {
	doc := &ContentDocument{
		BrandName: "Acme",
		Hero:      Hero{Title: "Hello World"},
		Cards: []Card{
			{Name: "one", Description: "first card", Tags: []string{"go"}},
		},
	}

	upper := doc.MapStrings(func(s string) string { return s + "!" })

	assert.Equal(t, "Acme!", upper.BrandName)
	assert.Equal(t, "Hello World!", upper.Hero.Title)
	assert.Equal(t, "go!", upper.Cards[0].Tags[0])

	// Original untouched.
	assert.Equal(t, "Acme", doc.BrandName)
	assert.Equal(t, "go", doc.Cards[0].Tags[0])
}

func TestTier_String(t *testing.T) {
	assert.Equal(t, "NONE", TierNone.String())
	assert.Equal(t, "WORD_BREAK", TierWordBreak.String())
	assert.Equal(t, "FONT_SHRINK", TierFontShrink.String())
	assert.Equal(t, "TRUNCATE", TierTruncate.String())
	assert.Equal(t, "CONTENT_CUT", TierContentCut.String())
	assert.Equal(t, "UNRESOLVED", TierUnresolved.String())
}
