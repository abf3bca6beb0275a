package eventsub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/ModuloCorpse/TwitchCorpse/internal/logger"
)

// StatusKeepaliveExpired is the close code used when the server stops
// sending frames inside the keepalive window.
const StatusKeepaliveExpired websocket.StatusCode = 4002

// How often the keepalive window is checked.
const keepaliveTick = time.Second

// CloseKind classifies how a session ended.
type CloseKind int

const (
	// CloseOrdinary is a close the protocol accounts for: server closure
	// or a shutdown after handover.
	CloseOrdinary CloseKind = iota
	// CloseUnwanted is a close forced by a dead connection, a failed
	// handshake or an expired keepalive window.
	CloseUnwanted
)

type sessionEventKind int

const (
	sessionWelcomed sessionEventKind = iota
	sessionReconnect
	sessionClosed
)

// sessionEvent is what a session reports to its supervisor.
type sessionEvent struct {
	session   *Session
	kind      sessionEventKind
	url       string
	closeKind CloseKind
	err       error
}

// Session is one EventSub WebSocket connection: it performs the welcome
// handshake, registers the subscription table, supervises the keepalive
// window and dispatches notifications until the connection ends.
type Session struct {
	dial      Dialer
	url       string
	registrar Registrar
	registry  *Registry
	dedup     *DedupBuffer
	log       *logger.Logger
	events    chan<- sessionEvent
	now       func() time.Time

	mu        sync.Mutex
	conn      Conn
	id        string
	keepalive time.Duration
	lastFrame time.Time
	expired   bool
}

func newSession(dial Dialer, url string, registrar Registrar, registry *Registry, dedup *DedupBuffer, log *logger.Logger, events chan<- sessionEvent) *Session {
	return &Session{
		dial:      dial,
		url:       url,
		registrar: registrar,
		registry:  registry,
		dedup:     dedup,
		log:       log,
		events:    events,
		now:       time.Now,
	}
}

// ID returns the session identifier assigned by the welcome frame.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Run drives the session until its connection ends, reporting lifecycle
// events to the supervisor.
func (s *Session) Run(ctx context.Context) {
	conn, err := s.dial(ctx, s.url)
	if err != nil {
		s.emit(ctx, sessionEvent{session: s, kind: sessionClosed, closeKind: CloseUnwanted, err: err})
		return
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	defer conn.Close(websocket.StatusNormalClosure, "")

	frames := make(chan *Envelope)
	readErr := make(chan error, 1)
	go func() {
		for {
			env, err := conn.Read(ctx)
			if err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- env:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(keepaliveTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-readErr:
			s.emit(ctx, sessionEvent{session: s, kind: sessionClosed, closeKind: s.closeKind(err), err: err})
			return
		case env := <-frames:
			s.touch(s.now())
			s.handle(ctx, conn, env)
		case <-ticker.C:
			if s.keepaliveExpired(s.now()) {
				s.mu.Lock()
				s.expired = true
				s.mu.Unlock()
				s.log.Warn("keepalive window expired", "session", s.ID())
				conn.Close(StatusKeepaliveExpired, "keepalive timeout")
			}
		}
	}
}

// shutdown closes the connection; the read loop then winds the session down.
func (s *Session) shutdown() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		conn.Close(websocket.StatusNormalClosure, "superseded")
	}
}

func (s *Session) closeKind(err error) CloseKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expired || websocket.CloseStatus(err) == StatusKeepaliveExpired {
		return CloseUnwanted
	}
	return CloseOrdinary
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastFrame = now
	s.mu.Unlock()
}

// keepaliveExpired reports whether the liveness window has elapsed since
// the last frame. Any frame counts, not just keepalives.
func (s *Session) keepaliveExpired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keepalive <= 0 || s.lastFrame.IsZero() {
		return false
	}
	return now.Sub(s.lastFrame) > s.keepalive
}

func (s *Session) handle(ctx context.Context, conn Conn, env *Envelope) {
	switch env.Metadata.MessageType {
	case messageWelcome:
		var payload sessionPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			s.log.Warn("malformed welcome payload", "error", err)
			return
		}
		s.mu.Lock()
		s.id = payload.Session.ID
		s.keepalive = time.Duration(payload.Session.KeepaliveTimeoutSeconds) * time.Second
		s.mu.Unlock()
		s.registry.RegisterAll(ctx, s.registrar, payload.Session.ID)
		s.log.Info("event session established", "session", payload.Session.ID)
		s.emit(ctx, sessionEvent{session: s, kind: sessionWelcomed})
	case messageKeepalive:
		// liveness already refreshed by touch
	case messageNotification:
		if !s.dedup.Push(env.Metadata.MessageID) {
			s.log.Debug("duplicate notification dropped", "message_id", env.Metadata.MessageID)
			return
		}
		var payload notificationPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			s.log.Warn("malformed notification payload", "error", err)
			return
		}
		s.registry.Dispatch(ctx, env.Metadata.SubscriptionType, EventData(payload.Event), string(env.Payload))
	case messageReconnect:
		var payload sessionPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			s.log.Warn("malformed reconnect payload", "error", err)
			return
		}
		s.log.Info("server requested reconnect", "session", s.ID())
		s.emit(ctx, sessionEvent{session: s, kind: sessionReconnect, url: payload.Session.ReconnectURL})
	case messageRevocation:
		s.log.Warn("subscription revoked", "subscription", env.Metadata.SubscriptionType)
	default:
		s.log.Debug("unknown eventsub frame", "type", env.Metadata.MessageType)
	}
}

func (s *Session) emit(ctx context.Context, ev sessionEvent) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}
