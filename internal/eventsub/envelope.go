// Package eventsub implements the EventSub WebSocket client: envelope
// decoding, the subscription registry, the session state machine and the
// supervisor that keeps exactly one healthy session delivering events.
package eventsub

import (
	"encoding/json"

	"github.com/ModuloCorpse/TwitchCorpse/internal/jsonutil"
	"github.com/ModuloCorpse/TwitchCorpse/internal/model"
)

// Envelope message types.
const (
	messageWelcome      = "session_welcome"
	messageKeepalive    = "session_keepalive"
	messageNotification = "notification"
	messageReconnect    = "session_reconnect"
	messageRevocation   = "revocation"
)

// Metadata is the fixed header of every EventSub frame.
type Metadata struct {
	MessageID           string `json:"message_id"`
	MessageType         string `json:"message_type"`
	MessageTimestamp    string `json:"message_timestamp"`
	SubscriptionType    string `json:"subscription_type"`
	SubscriptionVersion string `json:"subscription_version"`
}

// Envelope is one EventSub frame; the payload shape depends on the
// message type.
type Envelope struct {
	Metadata Metadata        `json:"metadata"`
	Payload  json.RawMessage `json:"payload"`
}

type sessionInfo struct {
	ID                      string `json:"id"`
	Status                  string `json:"status"`
	KeepaliveTimeoutSeconds int    `json:"keepalive_timeout_seconds"`
	ReconnectURL            string `json:"reconnect_url"`
}

type sessionPayload struct {
	Session sessionInfo `json:"session"`
}

// Subscription is the registration echo carried by notification and
// revocation payloads.
type Subscription struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Version   string            `json:"version"`
	Status    string            `json:"status"`
	Cost      int               `json:"cost"`
	Condition map[string]string `json:"condition"`
}

type notificationPayload struct {
	Subscription Subscription   `json:"subscription"`
	Event        map[string]any `json:"event"`
}

// EventData is the untyped event object of a notification, with typed
// accessors over it.
type EventData map[string]any

// String returns a string field, or "" when absent.
func (d EventData) String(key string) string { return jsonutil.StringFromMap(d, key) }

// Int returns a numeric field as int, or 0 when absent.
func (d EventData) Int(key string) int { return jsonutil.IntFromMap(d, key) }

// Bool returns a boolean field, false when absent.
func (d EventData) Bool(key string) bool { return jsonutil.BoolFromMap(d, key) }

// Has reports whether the field is present.
func (d EventData) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Object returns a nested object field, or nil.
func (d EventData) Object(key string) EventData {
	if obj, ok := d[key].(map[string]any); ok {
		return EventData(obj)
	}
	return nil
}

// List returns a nested array of objects.
func (d EventData) List(key string) []EventData {
	raw, ok := d[key].([]any)
	if !ok {
		return nil
	}
	out := make([]EventData, 0, len(raw))
	for _, item := range raw {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, EventData(obj))
		}
	}
	return out
}

// User builds a user out of the prefix+user_id/user_login/user_name triple
// most event payloads carry, or nil when the id is missing.
func (d EventData) User(prefix string) *model.User {
	id := d.String(prefix + "user_id")
	if id == "" {
		return nil
	}
	return &model.User{
		ID:          id,
		Login:       d.String(prefix + "user_login"),
		DisplayName: d.String(prefix + "user_name"),
	}
}
