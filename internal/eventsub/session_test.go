package eventsub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	frames chan *Envelope
	errs   chan error

	mu        sync.Mutex
	closeCode websocket.StatusCode
	closed    bool
	done      chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan *Envelope, 16),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}
}

func (c *fakeConn) Read(ctx context.Context) (*Envelope, error) {
	select {
	case env := <-c.frames:
		return env, nil
	case err := <-c.errs:
		return nil, err
	case <-c.done:
		c.mu.Lock()
		code := c.closeCode
		c.mu.Unlock()
		return nil, websocket.CloseError{Code: code}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeConn) Close(code websocket.StatusCode, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.closeCode = code
	close(c.done)
	return nil
}

func (c *fakeConn) closedWith() (websocket.StatusCode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCode, c.closed
}

type scriptedDialer struct {
	mu    sync.Mutex
	queue []*fakeConn
	urls  []string
}

func (d *scriptedDialer) dial(_ context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.urls = append(d.urls, url)
	if len(d.queue) == 0 {
		return nil, errors.New("no connection available")
	}
	conn := d.queue[0]
	d.queue = d.queue[1:]
	return conn, nil
}

func (d *scriptedDialer) dialedURLs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.urls...)
}

func welcomeEnvelope(sessionID string, keepaliveSeconds int) *Envelope {
	payload, _ := json.Marshal(map[string]any{"session": map[string]any{
		"id":                        sessionID,
		"keepalive_timeout_seconds": keepaliveSeconds,
	}})
	return &Envelope{
		Metadata: Metadata{MessageID: "welcome-" + sessionID, MessageType: messageWelcome},
		Payload:  payload,
	}
}

func reconnectEnvelope(url string) *Envelope {
	payload, _ := json.Marshal(map[string]any{"session": map[string]any{
		"reconnect_url": url,
	}})
	return &Envelope{
		Metadata: Metadata{MessageID: "reconnect-1", MessageType: messageReconnect},
		Payload:  payload,
	}
}

func notificationEnvelope(messageID, subType string, event map[string]any) *Envelope {
	payload, _ := json.Marshal(map[string]any{"event": event})
	return &Envelope{
		Metadata: Metadata{
			MessageID:        messageID,
			MessageType:      messageNotification,
			SubscriptionType: subType,
		},
		Payload: payload,
	}
}

func newTestSession(t *testing.T, handler *recordingHandler, registrar Registrar) (*Session, chan sessionEvent) {
	t.Helper()
	registry := newTestRegistry(t, handler, &fakeUsers{})
	events := make(chan sessionEvent, 8)
	return newSession(nil, "", registrar, registry, NewDedupBuffer(dedupCapacity), newTestLogger(t), events), events
}

func TestSessionWelcomeRegistersSubscriptions(t *testing.T) {
	registrar := &fakeRegistrar{}
	s, events := newTestSession(t, newRecordingHandler(), registrar)
	conn := newFakeConn()

	s.handle(context.Background(), conn, welcomeEnvelope("abc", 10))

	assert.Equal(t, "abc", s.ID())
	assert.True(t, registrar.sessionIDs()["abc"])
	assert.Len(t, registrar.requests(), 23)

	require.Len(t, events, 1)
	ev := <-events
	assert.Equal(t, sessionWelcomed, ev.kind)
	assert.Same(t, s, ev.session)
}

func TestSessionRegistrationFailureDoesNotAbort(t *testing.T) {
	registrar := &fakeRegistrar{failFor: "channel.follow"}
	s, events := newTestSession(t, newRecordingHandler(), registrar)
	conn := newFakeConn()

	s.handle(context.Background(), conn, welcomeEnvelope("abc", 10))

	// One subscription lost, the session itself stays up and welcomes.
	_, closed := conn.closedWith()
	assert.False(t, closed)
	assert.Len(t, registrar.requests(), 22)
	require.Len(t, events, 1)
	assert.Equal(t, sessionWelcomed, (<-events).kind)
}

func TestSessionKeepaliveWindow(t *testing.T) {
	s, _ := newTestSession(t, newRecordingHandler(), &fakeRegistrar{})
	conn := newFakeConn()
	s.handle(context.Background(), conn, welcomeEnvelope("abc", 10))

	base := time.Now()

	// No frame seen yet, nothing to expire.
	assert.False(t, s.keepaliveExpired(base))

	s.touch(base)
	assert.False(t, s.keepaliveExpired(base.Add(10*time.Second)))
	assert.True(t, s.keepaliveExpired(base.Add(11*time.Second)))

	// Any frame resets the window, not only keepalives.
	s.touch(base.Add(11 * time.Second))
	assert.False(t, s.keepaliveExpired(base.Add(20*time.Second)))
}

func TestSessionDuplicateNotificationDropped(t *testing.T) {
	handler := newRecordingHandler()
	s, _ := newTestSession(t, handler, &fakeRegistrar{})
	conn := newFakeConn()
	ctx := context.Background()

	env := notificationEnvelope("m1", "stream.online", map[string]any{})
	s.handle(ctx, conn, env)
	assert.Equal(t, "stream_start", handler.next(t))

	s.handle(ctx, conn, env)
	assert.True(t, handler.empty())
}

func TestSessionUnknownSubscriptionType(t *testing.T) {
	handler := newRecordingHandler()
	s, _ := newTestSession(t, handler, &fakeRegistrar{})
	conn := newFakeConn()

	s.handle(context.Background(), conn, notificationEnvelope("m1", "channel.mystery", map[string]any{}))
	assert.Equal(t, "unhandled:channel.mystery", handler.next(t))
}

func TestSessionReconnectRequest(t *testing.T) {
	s, events := newTestSession(t, newRecordingHandler(), &fakeRegistrar{})
	conn := newFakeConn()

	s.handle(context.Background(), conn, reconnectEnvelope("wss://backup.example"))

	require.Len(t, events, 1)
	ev := <-events
	assert.Equal(t, sessionReconnect, ev.kind)
	assert.Equal(t, "wss://backup.example", ev.url)
}

func TestSessionCloseKind(t *testing.T) {
	s, _ := newTestSession(t, newRecordingHandler(), &fakeRegistrar{})

	assert.Equal(t, CloseOrdinary, s.closeKind(errors.New("connection reset")))
	assert.Equal(t, CloseUnwanted, s.closeKind(websocket.CloseError{Code: StatusKeepaliveExpired}))

	s.mu.Lock()
	s.expired = true
	s.mu.Unlock()
	assert.Equal(t, CloseUnwanted, s.closeKind(errors.New("connection reset")))
}
