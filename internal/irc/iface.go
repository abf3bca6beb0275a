package irc

import (
	"context"

	"github.com/ModuloCorpse/TwitchCorpse/internal/model"
)

// Conn is the transport the chat session reads protocol text from.
type Conn interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, data string) error
	Close() error
}

// Dialer opens a chat transport connection.
type Dialer func(ctx context.Context, url string) (Conn, error)

// UserDirectory resolves chat logins to full user records.
type UserDirectory interface {
	UserByLogin(ctx context.Context, login string) (*model.User, error)
	Self() *model.User
}

// TokenSource provides the OAuth credential used by PASS.
type TokenSource interface {
	AccessToken() string
}
