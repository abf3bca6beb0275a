package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const defaultTokenURL = "https://id.twitch.tv/oauth2/token"

// ErrTokenRevoked is returned when the refresh token itself is rejected and
// the user has to authorize again.
var ErrTokenRevoked = errors.New("refresh token revoked")

// Token manages an OAuth credential pair and refreshes the access token on
// demand. Safe for concurrent use.
type Token struct {
	clientID     string
	clientSecret string
	tokenURL     string
	http         *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// NewToken wraps an existing credential pair.
func NewToken(clientID, clientSecret, accessToken, refreshToken string) *Token {
	return &Token{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     defaultTokenURL,
		http:         &http.Client{Timeout: 30 * time.Second},
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}

// ClientID returns the application client ID.
func (t *Token) ClientID() string { return t.clientID }

// AccessToken returns the current access token.
func (t *Token) AccessToken() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.accessToken
}

// Refresh trades the refresh token for a fresh credential pair.
func (t *Token) Refresh(ctx context.Context) error {
	t.mu.Lock()
	refreshToken := t.refreshToken
	t.mu.Unlock()

	form := url.Values{}
	form.Set("client_id", t.clientID)
	form.Set("client_secret", t.clientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("refreshing token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		return ErrTokenRevoked
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("refreshing token: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decoding refresh response: %w", err)
	}

	t.mu.Lock()
	t.accessToken = body.AccessToken
	if body.RefreshToken != "" {
		t.refreshToken = body.RefreshToken
	}
	t.mu.Unlock()
	return nil
}
