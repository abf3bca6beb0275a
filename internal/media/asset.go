// Package media holds the image catalog shared by chat and event rendering:
// emotes, badges and cheermotes, each backed by an Asset carrying every URL
// variant Twitch publishes for it.
package media

// Theme selects between the dark and light variants of an asset.
type Theme int

const (
	ThemeDark Theme = iota
	ThemeLight
)

// Opposite returns the other theme.
func (t Theme) Opposite() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// ParseTheme maps the Twitch wire names ("dark", "light") to a Theme.
// Unknown values fall back to dark, which is what the Twitch UI does.
func ParseTheme(s string) Theme {
	if s == "light" {
		return ThemeLight
	}
	return ThemeDark
}

// Format selects between the static and animated variants of an asset.
type Format int

const (
	FormatStatic Format = iota
	FormatAnimated
)

type variantKey struct {
	theme  Theme
	format Format
}

type variant struct {
	scale float64
	url   string
}

// Asset is one displayable image in every variant Twitch serves it:
// indexed by theme, format and scale. Alt text is kept for the cases where
// no URL variant exists at all.
type Asset struct {
	alt      string
	variants map[variantKey][]variant
}

// NewAsset returns an empty asset with the given alt text.
func NewAsset(alt string) *Asset {
	return &Asset{alt: alt, variants: make(map[variantKey][]variant)}
}

// Alt returns the textual fallback for this asset.
func (a *Asset) Alt() string { return a.alt }

// SetURL records the URL of one variant. Variants are kept sorted by
// descending scale so lookups prefer the largest image available.
func (a *Asset) SetURL(theme Theme, format Format, scale float64, url string) {
	if url == "" {
		return
	}
	k := variantKey{theme, format}
	vs := a.variants[k]
	for i, v := range vs {
		if v.scale == scale {
			vs[i].url = url
			return
		}
		if v.scale < scale {
			vs = append(vs, variant{})
			copy(vs[i+1:], vs[i:])
			vs[i] = variant{scale, url}
			a.variants[k] = vs
			return
		}
	}
	a.variants[k] = append(vs, variant{scale, url})
}

// URL returns the URL of the exact variant, if present.
func (a *Asset) URL(theme Theme, format Format, scale float64) (string, bool) {
	for _, v := range a.variants[variantKey{theme, format}] {
		if v.scale == scale {
			return v.url, true
		}
	}
	return "", false
}

// BestURL returns the largest-scale URL for the theme and format, if any.
func (a *Asset) BestURL(theme Theme, format Format) (string, bool) {
	vs := a.variants[variantKey{theme, format}]
	if len(vs) == 0 {
		return "", false
	}
	return vs[0].url, true
}
