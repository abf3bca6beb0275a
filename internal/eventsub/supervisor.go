package eventsub

import (
	"context"
	"sync"
	"time"

	"github.com/ModuloCorpse/TwitchCorpse/internal/logger"
)

const (
	dedupCapacity = 10
	maxBackoff    = 60 * time.Second
)

// Supervisor keeps one healthy event session alive. On a server-requested
// reconnect it opens a shadow session at the advertised URL, promotes it
// once its welcome lands and only then shuts the old one down; the shared
// dedup buffer absorbs anything delivered on both sockets meanwhile. Any
// session loss, wanted or not, is followed by a replacement with backoff.
type Supervisor struct {
	dial      Dialer
	url       string
	registrar Registrar
	registry  *Registry
	log       *logger.Logger
	dedup     *DedupBuffer

	mu      sync.Mutex
	primary *Session
	shadow  *Session
}

// SupervisorOptions carries the collaborators of a Supervisor.
type SupervisorOptions struct {
	Dial      Dialer
	URL       string
	Registrar Registrar
	Registry  *Registry
	Log       *logger.Logger
}

// NewSupervisor builds a supervisor; sessions it spawns share one dedup
// buffer.
func NewSupervisor(opts SupervisorOptions) *Supervisor {
	return &Supervisor{
		dial:      opts.Dial,
		url:       opts.URL,
		registrar: opts.Registrar,
		registry:  opts.Registry,
		log:       opts.Log,
		dedup:     NewDedupBuffer(dedupCapacity),
	}
}

// Run supervises event sessions until the context is cancelled.
func (sv *Supervisor) Run(ctx context.Context) error {
	events := make(chan sessionEvent, 8)
	backoff := time.Second
	sv.startPrimary(ctx, events, sv.url)

	for {
		select {
		case <-ctx.Done():
			sv.closeAll()
			return ctx.Err()
		case ev := <-events:
			switch ev.kind {
			case sessionWelcomed:
				if sv.promoteIfShadow(ev.session) {
					sv.log.Info("session handover complete", "session", ev.session.ID())
				}
				backoff = time.Second
			case sessionReconnect:
				if !sv.isPrimary(ev.session) {
					continue
				}
				url := ev.url
				if url == "" {
					url = sv.url
				}
				sv.startShadow(ctx, events, url)
			case sessionClosed:
				role := sv.drop(ev.session)
				switch role {
				case roleNone:
					// superseded session winding down
					continue
				case rolePrimary:
					if ev.closeKind == CloseUnwanted {
						sv.log.Warn("event session lost", "session", ev.session.ID(), "error", ev.err)
					} else {
						sv.log.Info("event session closed", "session", ev.session.ID())
					}
				case roleShadow:
					sv.log.Warn("replacement session failed", "error", ev.err)
				}
				if sv.hasSession() {
					continue
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				sv.startPrimary(ctx, events, sv.url)
			}
		}
	}
}

type sessionRole int

const (
	roleNone sessionRole = iota
	rolePrimary
	roleShadow
)

func (sv *Supervisor) startPrimary(ctx context.Context, events chan sessionEvent, url string) {
	s := newSession(sv.dial, url, sv.registrar, sv.registry, sv.dedup, sv.log, events)
	sv.mu.Lock()
	sv.primary = s
	sv.mu.Unlock()
	go s.Run(ctx)
}

func (sv *Supervisor) startShadow(ctx context.Context, events chan sessionEvent, url string) {
	sv.mu.Lock()
	if sv.shadow != nil {
		sv.mu.Unlock()
		return
	}
	s := newSession(sv.dial, url, sv.registrar, sv.registry, sv.dedup, sv.log, events)
	sv.shadow = s
	sv.mu.Unlock()
	go s.Run(ctx)
}

// promoteIfShadow makes a welcomed shadow the primary and retires the old
// primary. Reports whether a handover happened.
func (sv *Supervisor) promoteIfShadow(s *Session) bool {
	sv.mu.Lock()
	if s != sv.shadow {
		sv.mu.Unlock()
		return false
	}
	old := sv.primary
	sv.primary = s
	sv.shadow = nil
	sv.mu.Unlock()
	if old != nil {
		old.shutdown()
	}
	return true
}

func (sv *Supervisor) isPrimary(s *Session) bool {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	return s == sv.primary
}

// drop forgets an ended session and reports the role it held.
func (sv *Supervisor) drop(s *Session) sessionRole {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	switch s {
	case sv.primary:
		sv.primary = nil
		return rolePrimary
	case sv.shadow:
		sv.shadow = nil
		return roleShadow
	default:
		return roleNone
	}
}

func (sv *Supervisor) hasSession() bool {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	return sv.primary != nil || sv.shadow != nil
}

func (sv *Supervisor) closeAll() {
	sv.mu.Lock()
	primary, shadow := sv.primary, sv.shadow
	sv.mu.Unlock()
	if primary != nil {
		primary.shutdown()
	}
	if shadow != nil {
		shadow.shutdown()
	}
}
