// Package twitch is the Helix REST collaborator: user lookups, EventSub
// subscription management, catalog data and moderation calls.
package twitch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/ModuloCorpse/TwitchCorpse/internal/logger"
	"github.com/ModuloCorpse/TwitchCorpse/internal/model"
)

const defaultBaseURL = "https://api.twitch.tv/helix"

// Client talks to the Helix API with one credential pair, transparently
// retrying a request once after a token refresh when it comes back 401.
type Client struct {
	token   *Token
	http    *http.Client
	baseURL string
	log     *logger.Logger

	mu           sync.Mutex
	usersByID    map[string]*model.User
	usersByLogin map[string]*model.User
	self         *model.User
}

// ClientOptions carries the collaborators of a Client. BaseURL is only
// overridden in tests.
type ClientOptions struct {
	Token   *Token
	Log     *logger.Logger
	BaseURL string
}

// NewClient builds a Helix client.
func NewClient(opts ClientOptions) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		token:        opts.Token,
		http:         &http.Client{Timeout: 30 * time.Second},
		baseURL:      baseURL,
		log:          opts.Log,
		usersByID:    make(map[string]*model.User),
		usersByLogin: make(map[string]*model.User),
	}
}

// Token exposes the credential manager, e.g. for the chat PASS command.
func (c *Client) Token() *Token { return c.token }

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, want int) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s body: %w", path, err)
		}
	}

	status, data, err := c.send(ctx, method, path, query, payload)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		c.log.Debug("access token rejected, refreshing", "path", path)
		if err := c.token.Refresh(ctx); err != nil {
			return fmt.Errorf("refreshing after 401 on %s: %w", path, err)
		}
		status, data, err = c.send(ctx, method, path, query, payload)
		if err != nil {
			return err
		}
	}
	if status != want {
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, path, status, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding %s response: %w", path, err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte) (int, []byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("creating %s request: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token.AccessToken())
	req.Header.Set("Client-Id", c.token.ClientID())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("reading %s response: %w", path, err)
	}
	return resp.StatusCode, data, nil
}

type userData struct {
	ID          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
}

func (d userData) toUser() *model.User {
	rank := model.RankViewer
	switch d.Type {
	case "admin":
		rank = model.RankAdmin
	case "staff":
		rank = model.RankStaff
	case "global_mod":
		rank = model.RankGlobalModerator
	}
	return &model.User{ID: d.ID, Login: d.Login, DisplayName: d.DisplayName, Rank: rank}
}

func (c *Client) fetchUser(ctx context.Context, query url.Values) (*model.User, error) {
	var resp struct {
		Data []userData `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/users", query, nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("user not found")
	}
	user := resp.Data[0].toUser()
	c.mu.Lock()
	c.usersByID[user.ID] = user
	c.usersByLogin[user.Login] = user
	c.mu.Unlock()
	return user, nil
}

// UserByID resolves a user by ID, caching the result.
func (c *Client) UserByID(ctx context.Context, id string) (*model.User, error) {
	c.mu.Lock()
	if user, ok := c.usersByID[id]; ok {
		c.mu.Unlock()
		return user, nil
	}
	c.mu.Unlock()
	return c.fetchUser(ctx, url.Values{"id": {id}})
}

// UserByLogin resolves a user by login, caching the result.
func (c *Client) UserByLogin(ctx context.Context, login string) (*model.User, error) {
	c.mu.Lock()
	if user, ok := c.usersByLogin[login]; ok {
		c.mu.Unlock()
		return user, nil
	}
	c.mu.Unlock()
	return c.fetchUser(ctx, url.Values{"login": {login}})
}

// LoadSelf resolves the user behind the access token and remembers it.
func (c *Client) LoadSelf(ctx context.Context) (*model.User, error) {
	user, err := c.fetchUser(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("resolving token user: %w", err)
	}
	c.mu.Lock()
	c.self = user
	c.mu.Unlock()
	return user, nil
}

// Self returns the token user loaded by LoadSelf.
func (c *Client) Self() *model.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.self
}

// CreateSubscription registers one EventSub subscription bound to a
// WebSocket session. Helix acknowledges with 202.
func (c *Client) CreateSubscription(ctx context.Context, name string, version int, condition map[string]string, sessionID string) error {
	body := map[string]any{
		"type":      name,
		"version":   strconv.Itoa(version),
		"condition": condition,
		"transport": map[string]string{
			"method":     "websocket",
			"session_id": sessionID,
		},
	}
	return c.do(ctx, http.MethodPost, "/eventsub/subscriptions", nil, body, nil, http.StatusAccepted)
}
