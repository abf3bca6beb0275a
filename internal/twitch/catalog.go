package twitch

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ModuloCorpse/TwitchCorpse/internal/media"
)

type emoteData struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	EmoteType string   `json:"emote_type"`
	Format    []string `json:"format"`
	Scale     []string `json:"scale"`
	ThemeMode []string `json:"theme_mode"`
}

type emoteResponse struct {
	Data     []emoteData `json:"data"`
	Template string      `json:"template"`
}

func parseFormat(s string) media.Format {
	if s == "animated" {
		return media.FormatAnimated
	}
	return media.FormatStatic
}

// emoteAsset expands the CDN URL template into every advertised variant.
func emoteAsset(template string, d emoteData) *media.Asset {
	asset := media.NewAsset(d.Name)
	for _, theme := range d.ThemeMode {
		for _, format := range d.Format {
			for _, scale := range d.Scale {
				value, err := strconv.ParseFloat(scale, 64)
				if err != nil {
					continue
				}
				link := strings.NewReplacer(
					"{{id}}", d.ID,
					"{{format}}", format,
					"{{theme_mode}}", theme,
					"{{scale}}", scale,
				).Replace(template)
				asset.SetURL(media.ParseTheme(theme), parseFormat(format), value, link)
			}
		}
	}
	return asset
}

func (c *Client) fetchEmotes(ctx context.Context, path string, query url.Values) ([]*media.EmoteInfo, error) {
	var resp emoteResponse
	if err := c.do(ctx, http.MethodGet, path, query, nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	emotes := make([]*media.EmoteInfo, 0, len(resp.Data))
	for _, d := range resp.Data {
		emotes = append(emotes, &media.EmoteInfo{
			ID:        d.ID,
			Name:      d.Name,
			EmoteType: d.EmoteType,
			Asset:     emoteAsset(resp.Template, d),
		})
	}
	return emotes, nil
}

// FetchEmoteSet loads one emote set.
func (c *Client) FetchEmoteSet(ctx context.Context, setID string) ([]*media.EmoteInfo, error) {
	return c.fetchEmotes(ctx, "/chat/emotes/set", url.Values{"emote_set_id": {setID}})
}

// FetchGlobalEmotes loads the global emote collection.
func (c *Client) FetchGlobalEmotes(ctx context.Context) ([]*media.EmoteInfo, error) {
	return c.fetchEmotes(ctx, "/chat/emotes/global", nil)
}

type badgeSetData struct {
	SetID    string `json:"set_id"`
	Versions []struct {
		ID          string `json:"id"`
		ImageURL1x  string `json:"image_url_1x"`
		ImageURL2x  string `json:"image_url_2x"`
		ImageURL4x  string `json:"image_url_4x"`
		Title       string `json:"title"`
		Description string `json:"description"`
		ClickAction string `json:"click_action"`
		ClickURL    string `json:"click_url"`
	} `json:"versions"`
}

func (c *Client) fetchBadges(ctx context.Context, path string, query url.Values) ([]*media.BadgeInfo, error) {
	var resp struct {
		Data []badgeSetData `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, query, nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	var badges []*media.BadgeInfo
	for _, set := range resp.Data {
		for _, v := range set.Versions {
			asset := media.NewAsset(v.Title)
			// Badge art is theme independent; publish it under both.
			for _, theme := range [...]media.Theme{media.ThemeDark, media.ThemeLight} {
				asset.SetURL(theme, media.FormatStatic, 1, v.ImageURL1x)
				asset.SetURL(theme, media.FormatStatic, 2, v.ImageURL2x)
				asset.SetURL(theme, media.FormatStatic, 4, v.ImageURL4x)
			}
			badges = append(badges, &media.BadgeInfo{
				SetID:       set.SetID,
				ID:          v.ID,
				Title:       v.Title,
				Description: v.Description,
				ClickAction: v.ClickAction,
				ClickURL:    v.ClickURL,
				Asset:       asset,
			})
		}
	}
	return badges, nil
}

// FetchGlobalBadges loads the global badge sets.
func (c *Client) FetchGlobalBadges(ctx context.Context) ([]*media.BadgeInfo, error) {
	return c.fetchBadges(ctx, "/chat/badges/global", nil)
}

// FetchChannelBadges loads the badge sets of one channel.
func (c *Client) FetchChannelBadges(ctx context.Context, broadcasterID string) ([]*media.BadgeInfo, error) {
	return c.fetchBadges(ctx, "/chat/badges", url.Values{"broadcaster_id": {broadcasterID}})
}

// FetchCheermotes loads the cheermotes usable in one channel.
func (c *Client) FetchCheermotes(ctx context.Context, broadcasterID string) ([]*media.Cheermote, error) {
	var resp struct {
		Data []struct {
			Prefix string `json:"prefix"`
			Tiers  []struct {
				MinBits  int                                     `json:"min_bits"`
				ID       string                                  `json:"id"`
				CanCheer bool                                    `json:"can_cheer"`
				Images   map[string]map[string]map[string]string `json:"images"`
			} `json:"tiers"`
		} `json:"data"`
	}
	query := url.Values{"broadcaster_id": {broadcasterID}}
	if err := c.do(ctx, http.MethodGet, "/bits/cheermotes", query, nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	cheermotes := make([]*media.Cheermote, 0, len(resp.Data))
	for _, d := range resp.Data {
		cheermote := media.NewCheermote(d.Prefix)
		for _, tier := range d.Tiers {
			asset := media.NewAsset(d.Prefix + tier.ID)
			for themeName, formats := range tier.Images {
				for formatName, scales := range formats {
					for scale, link := range scales {
						value, err := strconv.ParseFloat(scale, 64)
						if err != nil {
							continue
						}
						asset.SetURL(media.ParseTheme(themeName), parseFormat(formatName), value, link)
					}
				}
			}
			cheermote.AddTier(media.CheermoteTier{
				Threshold: tier.MinBits,
				CanCheer:  tier.CanCheer,
				Asset:     asset,
			})
		}
		cheermotes = append(cheermotes, cheermote)
	}
	return cheermotes, nil
}
