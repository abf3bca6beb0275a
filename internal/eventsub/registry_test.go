package eventsub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ModuloCorpse/TwitchCorpse/internal/logger"
	"github.com/ModuloCorpse/TwitchCorpse/internal/media"
	"github.com/ModuloCorpse/TwitchCorpse/internal/model"
	"github.com/ModuloCorpse/TwitchCorpse/internal/richtext"
)

const testChannelID = "100"

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.Setup(logger.Config{Level: slog.LevelError + 4})
	require.NoError(t, err)
	return log
}

type emptyLoader struct{}

func (emptyLoader) FetchEmoteSet(context.Context, string) ([]*media.EmoteInfo, error) {
	return nil, nil
}
func (emptyLoader) FetchGlobalEmotes(context.Context) ([]*media.EmoteInfo, error) { return nil, nil }
func (emptyLoader) FetchGlobalBadges(context.Context) ([]*media.BadgeInfo, error) { return nil, nil }
func (emptyLoader) FetchChannelBadges(context.Context, string) ([]*media.BadgeInfo, error) {
	return nil, nil
}
func (emptyLoader) FetchCheermotes(context.Context, string) ([]*media.Cheermote, error) {
	return nil, nil
}

type fakeUsers struct {
	users map[string]*model.User
}

func (f *fakeUsers) UserByID(_ context.Context, id string) (*model.User, error) {
	if user, ok := f.users[id]; ok {
		return user, nil
	}
	return nil, fmt.Errorf("user %s not found", id)
}

func name(user *model.User) string {
	if user == nil {
		return "anonymous"
	}
	return user.DisplayName
}

// recordingHandler serializes every handler call into an event string.
type recordingHandler struct {
	events chan string
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{events: make(chan string, 64)}
}

func (h *recordingHandler) record(format string, args ...any) {
	h.events <- fmt.Sprintf(format, args...)
}

func (h *recordingHandler) next(t *testing.T) string {
	t.Helper()
	select {
	case ev := <-h.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handler event")
		return ""
	}
}

func (h *recordingHandler) empty() bool {
	select {
	case ev := <-h.events:
		h.events <- ev
		return false
	default:
		return true
	}
}

func (h *recordingHandler) OnChatJoined() { h.record("chat_joined") }
func (h *recordingHandler) OnUserJoinChat(u *model.User) { h.record("user_join:%s", name(u)) }
func (h *recordingHandler) OnChatMessage(m *model.ChatMessage) {
	h.record("message:%s:%s", name(m.User), m.Message.String())
}
func (h *recordingHandler) OnChatMessageRemoved(id string) { h.record("message_removed:%s", id) }
func (h *recordingHandler) OnChatUserRemoved(id string) { h.record("user_removed:%s", id) }
func (h *recordingHandler) OnChatClear() { h.record("chat_clear") }
func (h *recordingHandler) OnBits(u *model.User, bits int, _ richtext.Text) {
	h.record("bits:%s:%d", name(u), bits)
}
func (h *recordingHandler) OnFollow(u *model.User) { h.record("follow:%s", name(u)) }
func (h *recordingHandler) OnSub(u *model.User, tier int, isGift bool) {
	h.record("sub:%s:%d:%v", name(u), tier, isGift)
}
func (h *recordingHandler) OnGiftSub(g *model.User, tier, count int) {
	h.record("gift_sub:%s:%d:%d", name(g), tier, count)
}
func (h *recordingHandler) OnSharedSub(u *model.User, tier, total, streak int, _ richtext.Text) {
	h.record("shared_sub:%s:%d:%d:%d", name(u), tier, total, streak)
}
func (h *recordingHandler) OnSharedGiftSub(g, rec *model.User, tier, total, gifted int, _ richtext.Text) {
	h.record("shared_gift:%s:%s:%d:%d:%d", name(g), name(rec), tier, total, gifted)
}
func (h *recordingHandler) OnReward(u *model.User, reward, input string) {
	h.record("reward:%s:%s:%s", name(u), reward, input)
}
func (h *recordingHandler) OnRewardClaimed(u *model.User, r model.RewardRedemption, _ richtext.Text) {
	h.record("reward_claimed:%s:%s:%s", name(u), r.ID, r.RewardID)
}
func (h *recordingHandler) OnRewardCreated(r *model.RewardInfo) { h.record("reward_created:%s", r.Title) }
func (h *recordingHandler) OnRewardUpdated(r *model.RewardInfo) { h.record("reward_updated:%s", r.Title) }
func (h *recordingHandler) OnRewardDeleted(id string) { h.record("reward_deleted:%s", id) }
func (h *recordingHandler) OnRaided(from *model.User, viewers int) {
	h.record("raided:%s:%d", name(from), viewers)
}
func (h *recordingHandler) OnRaiding(to *model.User, viewers int) {
	h.record("raiding:%s:%d", name(to), viewers)
}
func (h *recordingHandler) OnStreamStart() { h.record("stream_start") }
func (h *recordingHandler) OnStreamStop() { h.record("stream_stop") }
func (h *recordingHandler) OnShoutout(mod, target *model.User) {
	h.record("shoutout:%s:%s", name(mod), name(target))
}
func (h *recordingHandler) OnBeingShoutout(from *model.User) { h.record("shoutout_in:%s", name(from)) }
func (h *recordingHandler) OnMessageHeld(u *model.User, id string, _ richtext.Text) {
	h.record("held:%s:%s", name(u), id)
}
func (h *recordingHandler) OnHeldMessageTreated(id string) { h.record("held_treated:%s", id) }
func (h *recordingHandler) OnSharedChatStart() { h.record("shared_chat_start") }
func (h *recordingHandler) OnSharedChatStop() { h.record("shared_chat_stop") }
func (h *recordingHandler) UnhandledEvent(eventType, _ string) {
	h.record("unhandled:%s", eventType)
}

type subRequest struct {
	name      string
	version   int
	condition map[string]string
	sessionID string
}

type fakeRegistrar struct {
	mu      sync.Mutex
	subs    []subRequest
	failFor string // subscription type whose registration fails
}

func (f *fakeRegistrar) CreateSubscription(_ context.Context, name string, version int, condition map[string]string, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor != "" && f.failFor == name {
		return fmt.Errorf("registering %s denied", name)
	}
	f.subs = append(f.subs, subRequest{name: name, version: version, condition: condition, sessionID: sessionID})
	return nil
}

func (f *fakeRegistrar) requests() []subRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]subRequest(nil), f.subs...)
}

func (f *fakeRegistrar) sessionIDs() map[string]bool {
	ids := make(map[string]bool)
	for _, sub := range f.requests() {
		ids[sub.sessionID] = true
	}
	return ids
}

func newTestRegistry(t *testing.T, handler model.Handler, users UserDirectory) *Registry {
	t.Helper()
	catalog := media.NewCatalog(emptyLoader{}, testChannelID)
	return NewRegistry(RegistryOptions{
		Handler:   handler,
		Users:     users,
		Renderer:  richtext.NewRenderer(catalog, media.ThemeDark),
		Catalog:   catalog,
		Log:       newTestLogger(t),
		ChannelID: testChannelID,
	})
}

func TestRegisterAllConditions(t *testing.T) {
	registry := newTestRegistry(t, newRecordingHandler(), &fakeUsers{})
	registrar := &fakeRegistrar{}

	registry.RegisterAll(context.Background(), registrar, "session-1")

	requests := registrar.requests()
	byName := make(map[string][]subRequest)
	for _, req := range requests {
		assert.Equal(t, "session-1", req.sessionID)
		byName[req.name] = append(byName[req.name], req)
	}

	// 22 subscription types, the raid pair registered twice.
	assert.Len(t, byName, 22)
	assert.Len(t, requests, 23)

	follow := byName["channel.follow"]
	require.Len(t, follow, 1)
	assert.Equal(t, 2, follow[0].version)
	assert.Equal(t, map[string]string{
		"broadcaster_user_id": testChannelID,
		"moderator_user_id":   testChannelID,
	}, follow[0].condition)

	chat := byName["channel.chat.message"]
	require.Len(t, chat, 1)
	assert.Equal(t, map[string]string{
		"broadcaster_user_id": testChannelID,
		"user_id":             testChannelID,
	}, chat[0].condition)

	raid := byName["channel.raid"]
	require.Len(t, raid, 2)
	assert.Equal(t, map[string]string{"to_broadcaster_user_id": testChannelID}, raid[0].condition)
	assert.Equal(t, map[string]string{"from_broadcaster_user_id": testChannelID}, raid[1].condition)

	online := byName["stream.online"]
	require.Len(t, online, 1)
	assert.Equal(t, map[string]string{"broadcaster_user_id": testChannelID}, online[0].condition)
}

func TestRegisterAllContinuesPastFailure(t *testing.T) {
	registry := newTestRegistry(t, newRecordingHandler(), &fakeUsers{})
	registrar := &fakeRegistrar{failFor: "channel.follow"}

	registry.RegisterAll(context.Background(), registrar, "session-1")

	// One subscription lost, the other 22 registrations still made.
	requests := registrar.requests()
	assert.Len(t, requests, 22)
	for _, req := range requests {
		assert.NotEqual(t, "channel.follow", req.name)
	}
}

func TestDispatchUnknownType(t *testing.T) {
	handler := newRecordingHandler()
	registry := newTestRegistry(t, handler, &fakeUsers{})

	registry.Dispatch(context.Background(), "channel.mystery", EventData{}, "{}")
	assert.Equal(t, "unhandled:channel.mystery", handler.next(t))
}

func TestRaidDirection(t *testing.T) {
	handler := newRecordingHandler()
	registry := newTestRegistry(t, handler, &fakeUsers{})

	registry.Dispatch(context.Background(), "channel.raid", EventData{
		"from_broadcaster_user_id":   "200",
		"from_broadcaster_user_name": "Visitor",
		"to_broadcaster_user_id":     testChannelID,
		"to_broadcaster_user_name":   "Me",
		"viewers":                    float64(42),
	}, "")
	assert.Equal(t, "raided:Visitor:42", handler.next(t))

	registry.Dispatch(context.Background(), "channel.raid", EventData{
		"from_broadcaster_user_id":   testChannelID,
		"from_broadcaster_user_name": "Me",
		"to_broadcaster_user_id":     "300",
		"to_broadcaster_user_name":   "Friend",
		"viewers":                    float64(7),
	}, "")
	assert.Equal(t, "raiding:Friend:7", handler.next(t))
}

func TestSubscribeTierMapping(t *testing.T) {
	handler := newRecordingHandler()
	registry := newTestRegistry(t, handler, &fakeUsers{})

	registry.Dispatch(context.Background(), "channel.subscribe", EventData{
		"user_id":   "200",
		"user_name": "Bob",
		"tier":      "2000",
		"is_gift":   true,
	}, "")
	assert.Equal(t, "sub:Bob:2:true", handler.next(t))

	// Unknown plans are dropped, not surfaced.
	registry.Dispatch(context.Background(), "channel.subscribe", EventData{
		"user_id":   "200",
		"user_name": "Bob",
		"tier":      "9000",
	}, "")
	assert.True(t, handler.empty())
}

func TestGiftSubAnonymous(t *testing.T) {
	handler := newRecordingHandler()
	registry := newTestRegistry(t, handler, &fakeUsers{})

	registry.Dispatch(context.Background(), "channel.subscription.gift", EventData{
		"is_anonymous": true,
		"tier":         "1000",
		"total":        float64(5),
	}, "")
	assert.Equal(t, "gift_sub:anonymous:1:5", handler.next(t))
}

func chatNotification(noticeType string, body map[string]any) EventData {
	data := EventData{
		"chatter_user_id": "200",
		"message_id":      "msg-1",
		"message": map[string]any{
			"fragments": []any{
				map[string]any{"type": "text", "text": "hello"},
			},
		},
		"notice_type": noticeType,
	}
	if body != nil {
		data[noticeType] = body
	}
	return data
}

func TestChatNotificationPrimeSub(t *testing.T) {
	handler := newRecordingHandler()
	users := &fakeUsers{users: map[string]*model.User{
		"200": {ID: "200", Login: "bob", DisplayName: "Bob"},
	}}
	registry := newTestRegistry(t, handler, users)

	registry.Dispatch(context.Background(), "channel.chat.notification",
		chatNotification("sub", map[string]any{
			"is_prime":        true,
			"duration_months": float64(0),
		}), "")

	assert.Equal(t, "message:Bob:hello", handler.next(t))
	assert.Equal(t, "shared_sub:Bob:4:1:-1", handler.next(t))
}

func TestChatNotificationGiftedResub(t *testing.T) {
	handler := newRecordingHandler()
	users := &fakeUsers{users: map[string]*model.User{
		"200": {ID: "200", Login: "bob", DisplayName: "Bob"},
		"300": {ID: "300", Login: "alice", DisplayName: "Alice"},
	}}
	registry := newTestRegistry(t, handler, users)

	registry.Dispatch(context.Background(), "channel.chat.notification",
		chatNotification("resub", map[string]any{
			"sub_tier":        "3000",
			"duration_months": float64(12),
			"streak_months":   float64(4),
			"is_gift":         true,
			"gifter_user_id":  "300",
		}), "")

	assert.Equal(t, "message:Bob:hello", handler.next(t))
	assert.Equal(t, "shared_gift:Alice:Bob:3:12:4", handler.next(t))
}

func TestChatNotificationAnnouncementColor(t *testing.T) {
	handler := newRecordingHandler()
	users := &fakeUsers{users: map[string]*model.User{
		"200": {ID: "200", Login: "bob", DisplayName: "Bob"},
	}}
	registry := newTestRegistry(t, handler, users)

	// Unknown colors drop the announcement entirely.
	registry.Dispatch(context.Background(), "channel.chat.notification",
		chatNotification("announcement", map[string]any{"color": "NEON"}), "")
	assert.True(t, handler.empty())

	registry.Dispatch(context.Background(), "channel.chat.notification",
		chatNotification("announcement", map[string]any{"color": "GREEN"}), "")
	assert.Equal(t, "message:Bob:hello", handler.next(t))
}
