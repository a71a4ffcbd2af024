package types

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Visual region names form the fixed vocabulary the renderer and the
// escalation tiers agree on. An override for a region replaces the theme's
// classes for that region wholesale.
const (
	RegionHeroTitle       = "hero_title"
	RegionHeroSubtitle    = "hero_subtitle"
	RegionCardTitle       = "card_title"
	RegionCardDescription = "card_description"
	RegionBodyText        = "body_text"
)

// Regions lists the override vocabulary in template order.
var Regions = []string{
	RegionHeroTitle,
	RegionHeroSubtitle,
	RegionCardTitle,
	RegionCardDescription,
	RegionBodyText,
}

// StyleOverrides maps visual regions to style-class strings with
// last-write-wins semantics and stable first-insertion ordering.
// A later Set for the same region replaces (never merges with) the
// earlier value, which is what makes tier escalation monotonic.
type StyleOverrides struct {
	order  []string
	values map[string]string
}

// NewStyleOverrides returns an empty override set.
func NewStyleOverrides() *StyleOverrides {
	return &StyleOverrides{values: make(map[string]string)}
}

// Set records classes for a region, replacing any earlier value.
func (o *StyleOverrides) Set(region, classes string) {
	if o.values == nil {
		o.values = make(map[string]string)
	}
	if _, exists := o.values[region]; !exists {
		o.order = append(o.order, region)
	}
	o.values[region] = classes
}

// Get returns the classes for a region and whether the region is set.
func (o *StyleOverrides) Get(region string) (string, bool) {
	if o == nil || o.values == nil {
		return "", false
	}
	v, ok := o.values[region]
	return v, ok
}

// Len returns the number of overridden regions.
func (o *StyleOverrides) Len() int {
	if o == nil {
		return 0
	}
	return len(o.values)
}

// Keys returns the overridden regions in first-insertion order.
func (o *StyleOverrides) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.order))
	copy(out, o.order)
	return out
}

// Merge applies every entry of other on top of o, overwriting by key.
func (o *StyleOverrides) Merge(other *StyleOverrides) {
	if other == nil {
		return
	}
	for _, region := range other.order {
		o.Set(region, other.values[region])
	}
}

// Clone returns a deep copy preserving insertion order.
func (o *StyleOverrides) Clone() *StyleOverrides {
	out := NewStyleOverrides()
	if o == nil {
		return out
	}
	for _, region := range o.order {
		out.Set(region, o.values[region])
	}
	return out
}

// Signature returns a short deterministic hash of the override set,
// or "NONE" when empty. Used as a compact telemetry feature.
func (o *StyleOverrides) Signature() string {
	if o.Len() == 0 {
		return "NONE"
	}
	sum := md5.Sum([]byte(o.SortedJSON()))
	return hex.EncodeToString(sum[:])[:12]
}

// SortedJSON serializes the overrides as a JSON object with sorted keys,
// or "" when empty. This is the raw form persisted to telemetry.
func (o *StyleOverrides) SortedJSON() string {
	if o.Len() == 0 {
		return ""
	}
	keys := make([]string, 0, len(o.values))
	for k := range o.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make(map[string]string, len(keys))
	for _, k := range keys {
		ordered[k] = o.values[k]
	}
	// encoding/json sorts map keys, so this is deterministic.
	data, err := json.Marshal(ordered)
	if err != nil {
		return ""
	}
	return string(data)
}

// Values returns a plain map copy of the overrides.
func (o *StyleOverrides) Values() map[string]string {
	out := make(map[string]string, o.Len())
	if o == nil {
		return out
	}
	for k, v := range o.values {
		out[k] = v
	}
	return out
}
