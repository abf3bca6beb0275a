package twitch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ModuloCorpse/TwitchCorpse/internal/model"
)

// ChannelInfo fetches the channel metadata of a broadcaster.
func (c *Client) ChannelInfo(ctx context.Context, broadcasterID string) (*model.ChannelInfo, error) {
	var resp struct {
		Data []struct {
			BroadcasterID       string `json:"broadcaster_id"`
			BroadcasterLogin    string `json:"broadcaster_login"`
			BroadcasterName     string `json:"broadcaster_name"`
			BroadcasterLanguage string `json:"broadcaster_language"`
			GameID              string `json:"game_id"`
			GameName            string `json:"game_name"`
			Title               string `json:"title"`
		} `json:"data"`
	}
	query := url.Values{"broadcaster_id": {broadcasterID}}
	if err := c.do(ctx, http.MethodGet, "/channels", query, nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("channel %s not found", broadcasterID)
	}
	d := resp.Data[0]
	return &model.ChannelInfo{
		Broadcaster: &model.User{ID: d.BroadcasterID, Login: d.BroadcasterLogin, DisplayName: d.BroadcasterName},
		GameID:      d.GameID,
		GameName:    d.GameName,
		Title:       d.Title,
		Language:    d.BroadcasterLanguage,
	}, nil
}

// SetChannelInfo patches the channel title, category or language. Empty
// fields stay unchanged.
func (c *Client) SetChannelInfo(ctx context.Context, broadcasterID, title, gameID, language string) error {
	body := map[string]string{}
	if title != "" {
		body["title"] = title
	}
	if gameID != "" {
		body["game_id"] = gameID
	}
	if language != "" {
		body["broadcaster_language"] = language
	}
	if len(body) == 0 {
		return nil
	}
	query := url.Values{"broadcaster_id": {broadcasterID}}
	return c.do(ctx, http.MethodPatch, "/channels", query, body, nil, http.StatusNoContent)
}

// StreamInfo fetches the live stream of a broadcaster; nil when offline.
func (c *Client) StreamInfo(ctx context.Context, broadcasterID string) (*model.StreamInfo, error) {
	var resp struct {
		Data []struct {
			ID           string   `json:"id"`
			UserID       string   `json:"user_id"`
			UserLogin    string   `json:"user_login"`
			UserName     string   `json:"user_name"`
			GameID       string   `json:"game_id"`
			GameName     string   `json:"game_name"`
			Title        string   `json:"title"`
			ViewerCount  int      `json:"viewer_count"`
			Language     string   `json:"language"`
			ThumbnailURL string   `json:"thumbnail_url"`
			Tags         []string `json:"tags"`
			IsMature     bool     `json:"is_mature"`
		} `json:"data"`
	}
	query := url.Values{"user_id": {broadcasterID}}
	if err := c.do(ctx, http.MethodGet, "/streams", query, nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	d := resp.Data[0]
	return &model.StreamInfo{
		ID:           d.ID,
		User:         &model.User{ID: d.UserID, Login: d.UserLogin, DisplayName: d.UserName},
		GameID:       d.GameID,
		GameName:     d.GameName,
		Title:        d.Title,
		Language:     d.Language,
		ThumbnailURL: d.ThumbnailURL,
		Tags:         d.Tags,
		ViewerCount:  d.ViewerCount,
		IsMature:     d.IsMature,
	}, nil
}

// SearchCategories looks up stream categories matching the query.
func (c *Client) SearchCategories(ctx context.Context, search string) ([]*model.CategoryInfo, error) {
	var resp struct {
		Data []struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			BoxArtURL string `json:"box_art_url"`
		} `json:"data"`
	}
	query := url.Values{"query": {search}}
	if err := c.do(ctx, http.MethodGet, "/search/categories", query, nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	categories := make([]*model.CategoryInfo, 0, len(resp.Data))
	for _, d := range resp.Data {
		categories = append(categories, &model.CategoryInfo{ID: d.ID, Name: d.Name, BoxArtURL: d.BoxArtURL})
	}
	return categories, nil
}

// ManageHeldMessage resolves one automod-held message.
func (c *Client) ManageHeldMessage(ctx context.Context, moderatorID, messageID string, allow bool) error {
	action := "DENY"
	if allow {
		action = "ALLOW"
	}
	body := map[string]string{
		"user_id": moderatorID,
		"msg_id":  messageID,
		"action":  action,
	}
	return c.do(ctx, http.MethodPost, "/moderation/automod/message", nil, body, nil, http.StatusNoContent)
}

// BanUser bans or, with a duration in seconds, times out a user.
func (c *Client) BanUser(ctx context.Context, broadcasterID, userID string, duration int, reason string) error {
	data := map[string]any{"user_id": userID}
	if duration > 0 {
		data["duration"] = duration
	}
	if reason != "" {
		data["reason"] = reason
	}
	query := url.Values{
		"broadcaster_id": {broadcasterID},
		"moderator_id":   {broadcasterID},
	}
	return c.do(ctx, http.MethodPost, "/moderation/bans", query, map[string]any{"data": data}, nil, http.StatusOK)
}

// UnbanUser lifts a ban or timeout.
func (c *Client) UnbanUser(ctx context.Context, broadcasterID, userID string) error {
	query := url.Values{
		"broadcaster_id": {broadcasterID},
		"moderator_id":   {broadcasterID},
		"user_id":        {userID},
	}
	return c.do(ctx, http.MethodDelete, "/moderation/bans", query, nil, nil, http.StatusNoContent)
}
