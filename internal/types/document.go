// Package types defines the core data model shared across the build pipeline.
package types

// Link is a labeled URL used for navigation and call-to-action elements.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Hero is the above-the-fold section of a page.
type Hero struct {
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	CTAPrimary   Link   `json:"cta_primary"`
	CTASecondary Link   `json:"cta_secondary"`
}

// Card is a single showcased item (project, product, article).
type Card struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
	Stars       int      `json:"stars"`
}

// ContentDocument is the structured content a page is built from.
// The builder owns the document for the duration of a build; remediation
// never mutates it in place but replaces it wholesale.
type ContentDocument struct {
	BrandName string `json:"brand_name"`
	MenuItems []Link `json:"menu_items"`
	CTA       Link   `json:"cta"`
	Hero      Hero   `json:"hero"`
	Cards     []Card `json:"cards"`
}

// Clone returns a deep copy of the document.
func (d *ContentDocument) Clone() *ContentDocument {
	if d == nil {
		return nil
	}
	out := *d
	out.MenuItems = make([]Link, len(d.MenuItems))
	copy(out.MenuItems, d.MenuItems)
	out.Cards = make([]Card, len(d.Cards))
	for i, c := range d.Cards {
		cc := c
		cc.Tags = make([]string, len(c.Tags))
		copy(cc.Tags, c.Tags)
		out.Cards[i] = cc
	}
	return &out
}

// EachString calls fn for every user-visible string value in the document.
func (d *ContentDocument) EachString(fn func(s string)) {
	if d == nil {
		return
	}
	fn(d.BrandName)
	for _, m := range d.MenuItems {
		fn(m.Label)
	}
	fn(d.CTA.Label)
	fn(d.Hero.Title)
	fn(d.Hero.Subtitle)
	fn(d.Hero.CTAPrimary.Label)
	fn(d.Hero.CTASecondary.Label)
	for _, c := range d.Cards {
		fn(c.Name)
		fn(c.Description)
		for _, t := range c.Tags {
			fn(t)
		}
	}
}

// MapStrings returns a deep copy of the document with fn applied to every
// user-visible string value. URLs are left untouched since they are not
// rendered as flowing text.
func (d *ContentDocument) MapStrings(fn func(s string) string) *ContentDocument {
	out := d.Clone()
	if out == nil {
		return nil
	}
	out.BrandName = fn(out.BrandName)
	for i := range out.MenuItems {
		out.MenuItems[i].Label = fn(out.MenuItems[i].Label)
	}
	out.CTA.Label = fn(out.CTA.Label)
	out.Hero.Title = fn(out.Hero.Title)
	out.Hero.Subtitle = fn(out.Hero.Subtitle)
	out.Hero.CTAPrimary.Label = fn(out.Hero.CTAPrimary.Label)
	out.Hero.CTASecondary.Label = fn(out.Hero.CTASecondary.Label)
	for i := range out.Cards {
		out.Cards[i].Name = fn(out.Cards[i].Name)
		out.Cards[i].Description = fn(out.Cards[i].Description)
		for j := range out.Cards[i].Tags {
			out.Cards[i].Tags[j] = fn(out.Cards[i].Tags[j])
		}
	}
	return out
}
