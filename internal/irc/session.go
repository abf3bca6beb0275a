package irc

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ModuloCorpse/TwitchCorpse/internal/logger"
	"github.com/ModuloCorpse/TwitchCorpse/internal/media"
	"github.com/ModuloCorpse/TwitchCorpse/internal/model"
	"github.com/ModuloCorpse/TwitchCorpse/internal/richtext"
	"github.com/ModuloCorpse/TwitchCorpse/internal/workerpool"
)

const (
	capabilities     = "twitch.tv/membership twitch.tv/tags twitch.tv/commands"
	maxChatBackoff   = 60 * time.Second
	emoteWarmWorkers = 4
)

var errServerReconnect = errors.New("server requested reconnect")

// Session keeps one channel's chat connection alive: it authenticates,
// joins the channel, answers PING, renders incoming messages and reconnects
// with backoff when the connection drops.
type Session struct {
	dial     Dialer
	url      string
	users    UserDirectory
	token    TokenSource
	catalog  *media.Catalog
	renderer *richtext.Renderer
	handler  model.Handler
	log      *logger.Logger

	channel   string
	channelID string

	mu        sync.Mutex
	conn      Conn
	chatColor string
	buf       LineBuffer
}

// SessionOptions carries the collaborators of a chat session.
type SessionOptions struct {
	Dial      Dialer
	URL       string
	Users     UserDirectory
	Token     TokenSource
	Catalog   *media.Catalog
	Renderer  *richtext.Renderer
	Handler   model.Handler
	Log       *logger.Logger
	Channel   string
	ChannelID string
}

// NewSession builds a chat session for one channel.
func NewSession(opts SessionOptions) *Session {
	return &Session{
		dial:      opts.Dial,
		url:       opts.URL,
		users:     opts.Users,
		token:     opts.Token,
		catalog:   opts.Catalog,
		renderer:  opts.Renderer,
		handler:   opts.Handler,
		log:       opts.Log,
		channel:   opts.Channel,
		channelID: opts.ChannelID,
	}
}

// Run connects and processes chat until the context is cancelled,
// reconnecting with exponential backoff on any connection loss.
func (s *Session) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		err := s.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Warn("chat connection lost", "channel", s.channel, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxChatBackoff {
			backoff = maxChatBackoff
		}
	}
}

func (s *Session) runConnection(ctx context.Context) error {
	conn, err := s.dial(ctx, s.url)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.mu.Lock()
	s.conn = conn
	s.buf = LineBuffer{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
	}()

	if err := s.sendAuth(ctx, conn); err != nil {
		return err
	}
	for {
		chunk, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		s.mu.Lock()
		lines := s.buf.Push(chunk)
		s.mu.Unlock()
		for _, line := range lines {
			if err := s.handleLine(ctx, conn, line); err != nil {
				return err
			}
		}
	}
}

func (s *Session) sendAuth(ctx context.Context, conn Conn) error {
	auth := []*Message{
		New("CAP REQ", "", capabilities),
		New("PASS", "oauth:"+s.token.AccessToken(), ""),
		New("NICK", s.users.Self().DisplayName, ""),
	}
	for _, m := range auth {
		if err := s.send(ctx, conn, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) send(ctx context.Context, conn Conn, m *Message) error {
	s.log.Debug("chat send", "channel", s.channel, "message", m.Redacted())
	return conn.Write(ctx, m.String())
}

func (s *Session) handleLine(ctx context.Context, conn Conn, line string) error {
	m := Parse(line)
	if m == nil {
		s.log.Debug("dropping malformed chat line", "channel", s.channel, "line", line)
		return nil
	}
	switch m.Command {
	case "PING":
		return s.send(ctx, conn, New("PONG", "", m.Params))
	case "LOGGED":
		return s.send(ctx, conn, New("JOIN", "#"+s.channel, ""))
	case "USERSTATE":
		s.warmEmoteSets(ctx, m.EmoteSets)
		s.handler.OnChatJoined()
	case "GLOBALUSERSTATE":
		s.warmEmoteSets(ctx, m.EmoteSets)
		s.mu.Lock()
		s.chatColor = m.Tag("color")
		s.mu.Unlock()
	case "JOIN":
		s.userJoined(ctx, m.Nick)
	case "USERLIST":
		for _, login := range strings.Fields(m.Params) {
			s.userJoined(ctx, login)
		}
	case "PRIVMSG":
		s.userMessage(ctx, m, false, false)
	case "USERNOTICE":
		s.userNotice(ctx, m)
	case "CLEARMSG":
		s.handler.OnChatMessageRemoved(m.Tag("target-msg-id"))
	case "CLEARCHAT":
		if m.HasTag("target-user-id") {
			s.handler.OnChatUserRemoved(m.Tag("target-user-id"))
		} else {
			s.handler.OnChatClear()
		}
	case "RECONNECT":
		return errServerReconnect
	case "UNSUPPORTED":
		s.log.Debug("unsupported chat command", "channel", s.channel, "command", m.Channel)
	}
	return nil
}

// Say sends a chat message to the channel and reports it back through the
// handler the way a received message would be.
func (s *Session) Say(ctx context.Context, text string) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return errors.New("chat not connected")
	}
	m := New("PRIVMSG", "#"+s.channel, text)
	if err := s.send(ctx, conn, m); err != nil {
		return err
	}
	s.userMessage(ctx, m, false, true)
	return nil
}

func (s *Session) warmEmoteSets(ctx context.Context, setIDs []string) {
	if len(setIDs) == 0 {
		return
	}
	go func() {
		err := workerpool.Run(ctx, setIDs, emoteWarmWorkers, func(ctx context.Context, setID string) error {
			return s.catalog.WarmEmoteSet(ctx, setID)
		})
		if err != nil {
			s.log.Warn("emote set warmup failed", "channel", s.channel, "error", err)
		}
	}()
}

func (s *Session) userJoined(ctx context.Context, login string) {
	if login == "" || login == s.users.Self().Login {
		return
	}
	user, err := s.users.UserByLogin(ctx, login)
	if err != nil {
		s.log.Debug("user lookup failed", "channel", s.channel, "user", login, "error", err)
		return
	}
	s.handler.OnUserJoinChat(user)
}

func (s *Session) userRank(self, mod bool, userType, userID string) model.UserRank {
	switch {
	case self:
		return model.RankSelf
	case userID == s.channelID:
		return model.RankBroadcaster
	case userType == "admin":
		return model.RankAdmin
	case userType == "staff":
		return model.RankStaff
	case userType == "global_mod":
		return model.RankGlobalModerator
	case mod:
		return model.RankModerator
	default:
		return model.RankViewer
	}
}

func (s *Session) messageUser(ctx context.Context, m *Message, self bool) *model.User {
	var user *model.User
	if self {
		u := *s.users.Self()
		u.Rank = model.RankSelf
		user = &u
	} else {
		user = &model.User{
			ID:          m.Tag("user-id"),
			Login:       m.Nick,
			DisplayName: m.Tag("display-name"),
			Rank:        s.userRank(false, m.Tag("mod") == "1", m.Tag("user-type"), m.Tag("user-id")),
		}
		if user.DisplayName == "" {
			user.DisplayName = m.Nick
		}
	}
	for _, set := range sortedKeys(m.Badges) {
		if badge := s.catalog.Badge(ctx, set, m.Badges[set]); badge != nil {
			user.Badges = append(user.Badges, badge)
		}
	}
	return user
}

func (s *Session) userMessage(ctx context.Context, m *Message, highlight, self bool) {
	user := s.messageUser(ctx, m, self)
	text := s.renderer.RenderSpans(ctx, m.Params, m.Spans)

	color := m.Tag("color")
	if self {
		s.mu.Lock()
		color = s.chatColor
		s.mu.Unlock()
	}
	s.handler.OnChatMessage(&model.ChatMessage{
		ID:            m.Tag("id"),
		User:          user,
		UserColor:     richtext.UserColor(user.DisplayName, color),
		Highlight:     highlight,
		ReplyParentID: m.Tag("reply-parent-msg-id"),
		Message:       text,
	})
	if m.HasTag("bits") {
		if bits, err := strconv.Atoi(m.Tag("bits")); err == nil {
			s.handler.OnBits(user, bits, text)
		}
	}
}

func (s *Session) userNotice(ctx context.Context, m *Message) {
	s.userMessage(ctx, m, true, false)
	if m.Tag("msg-id") != "sub" && m.Tag("msg-id") != "resub" {
		return
	}
	if !m.HasTag("msg-param-sub-plan") || !m.HasTag("msg-param-cumulative-months") {
		return
	}
	var tier int
	switch m.Tag("msg-param-sub-plan") {
	case "1000":
		tier = 1
	case "2000":
		tier = 2
	case "3000":
		tier = 3
	case "Prime":
		tier = 4
	default:
		return
	}
	user := s.messageUser(ctx, m, false)
	months, _ := strconv.Atoi(m.Tag("msg-param-cumulative-months"))
	streak := -1
	if m.Tag("msg-param-should-share-streak") == "1" {
		streak, _ = strconv.Atoi(m.Tag("msg-param-streak-months"))
	}
	text := s.renderer.RenderSpans(ctx, m.Params, m.Spans)
	s.handler.OnSharedSub(user, tier, months, streak, text)
}
