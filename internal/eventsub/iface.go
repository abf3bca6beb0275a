package eventsub

import (
	"context"

	"github.com/coder/websocket"

	"github.com/ModuloCorpse/TwitchCorpse/internal/model"
)

// Conn is one EventSub transport connection delivering decoded envelopes.
type Conn interface {
	Read(ctx context.Context) (*Envelope, error)
	Close(code websocket.StatusCode, reason string) error
}

// Dialer opens an EventSub transport connection.
type Dialer func(ctx context.Context, url string) (Conn, error)

// Registrar creates EventSub subscriptions bound to a WebSocket session.
type Registrar interface {
	CreateSubscription(ctx context.Context, name string, version int, condition map[string]string, sessionID string) error
}

// UserDirectory resolves user IDs carried by event payloads.
type UserDirectory interface {
	UserByID(ctx context.Context, id string) (*model.User, error)
}
