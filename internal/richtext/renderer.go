package richtext

import (
	"context"

	"github.com/ModuloCorpse/TwitchCorpse/internal/media"
)

// Renderer builds Text values out of wire payloads, resolving images through
// the media catalog with a fixed preference order.
type Renderer struct {
	catalog *media.Catalog
	theme   media.Theme
}

// NewRenderer returns a renderer preferring the given theme.
func NewRenderer(catalog *media.Catalog, theme media.Theme) *Renderer {
	return &Renderer{catalog: catalog, theme: theme}
}

// Catalog exposes the underlying media catalog.
func (r *Renderer) Catalog() *media.Catalog { return r.catalog }

// AppendAsset appends the best available variant of an asset: preferred
// theme animated, then static, then the same two on the opposite theme,
// finally the alt text as a literal run when no URL exists at all.
func (r *Renderer) AppendAsset(t *Text, a *media.Asset) {
	for _, theme := range [...]media.Theme{r.theme, r.theme.Opposite()} {
		if url, ok := a.BestURL(theme, media.FormatAnimated); ok {
			t.AddAnimatedImage(url, a.Alt())
			return
		}
		if url, ok := a.BestURL(theme, media.FormatStatic); ok {
			t.AddImage(url, a.Alt())
			return
		}
	}
	t.AddText(a.Alt())
}

// RenderFragments converts an EventSub fragment list into rich text.
// Fragments whose image cannot be resolved degrade to their literal text.
func (r *Renderer) RenderFragments(ctx context.Context, fragments []Fragment) Text {
	var t Text
	for _, f := range fragments {
		switch f.Type {
		case FragmentCheermote:
			cm := r.catalog.Cheermote(ctx, f.CheerPrefix)
			if cm == nil {
				t.AddText(f.Text)
				continue
			}
			tier, ok := cm.SelectTier(f.CheerBits)
			if !ok {
				t.AddText(f.Text)
				continue
			}
			r.AppendAsset(&t, tier.Asset)
		case FragmentEmote:
			e := r.catalog.Emote(ctx, f.EmoteSetID, f.EmoteID)
			if e == nil {
				t.AddText(f.Text)
				continue
			}
			r.AppendAsset(&t, e.Asset)
		case FragmentMention:
			if f.MentionName != "" {
				t.AddText("@" + f.MentionName)
			} else {
				t.AddText(f.Text)
			}
		default:
			t.AddText(f.Text)
		}
	}
	return t
}

// RenderSpans converts an IRC message body with emote spans into rich text.
// Span offsets count runes, both bounds inclusive, and must arrive sorted.
func (r *Renderer) RenderSpans(ctx context.Context, body string, spans []Span) Text {
	var t Text
	runes := []rune(body)
	last := 0
	for _, s := range spans {
		if s.Start < last || s.End >= len(runes) || s.End < s.Start {
			continue
		}
		t.AddText(string(runes[last:s.Start]))
		e := r.catalog.EmoteByID(ctx, s.ID)
		if e != nil {
			r.AppendAsset(&t, e.Asset)
		} else {
			t.AddText(string(runes[s.Start : s.End+1]))
		}
		last = s.End + 1
	}
	if last < len(runes) {
		t.AddText(string(runes[last:]))
	}
	return t
}
