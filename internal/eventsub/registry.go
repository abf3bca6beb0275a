package eventsub

import (
	"context"

	"github.com/ModuloCorpse/TwitchCorpse/internal/logger"
	"github.com/ModuloCorpse/TwitchCorpse/internal/media"
	"github.com/ModuloCorpse/TwitchCorpse/internal/model"
	"github.com/ModuloCorpse/TwitchCorpse/internal/richtext"
)

// Condition is one EventSub subscription condition object.
type Condition map[string]string

// subscriptionSpec describes one subscription type: its wire name and
// version, the condition(s) to register it with, and how to turn its event
// payload into handler calls.
type subscriptionSpec struct {
	name       string
	version    int
	conditions func(channelID string) []Condition
	treat      func(ctx context.Context, r *Registry, data EventData)
}

// Registry holds the subscription table for one channel. It is built once
// and only reads its captured collaborators afterwards, so sessions may
// share it.
type Registry struct {
	handler   model.Handler
	users     UserDirectory
	renderer  *richtext.Renderer
	catalog   *media.Catalog
	log       *logger.Logger
	channelID string
	specs     []*subscriptionSpec
	byName    map[string]*subscriptionSpec
}

// RegistryOptions carries the collaborators of a Registry.
type RegistryOptions struct {
	Handler   model.Handler
	Users     UserDirectory
	Renderer  *richtext.Renderer
	Catalog   *media.Catalog
	Log       *logger.Logger
	ChannelID string
}

// NewRegistry builds the full subscription table for the channel.
func NewRegistry(opts RegistryOptions) *Registry {
	r := &Registry{
		handler:   opts.Handler,
		users:     opts.Users,
		renderer:  opts.Renderer,
		catalog:   opts.Catalog,
		log:       opts.Log,
		channelID: opts.ChannelID,
		byName:    make(map[string]*subscriptionSpec),
	}
	for _, spec := range subscriptionTable() {
		r.specs = append(r.specs, spec)
		r.byName[spec.name] = spec
	}
	return r
}

func broadcasterOnly(channelID string) []Condition {
	return []Condition{{"broadcaster_user_id": channelID}}
}

func broadcasterAndUser(channelID string) []Condition {
	return []Condition{{"broadcaster_user_id": channelID, "user_id": channelID}}
}

func broadcasterAndModerator(channelID string) []Condition {
	return []Condition{{"broadcaster_user_id": channelID, "moderator_user_id": channelID}}
}

// Raids need both directions: being raided and raiding out.
func raidConditions(channelID string) []Condition {
	return []Condition{
		{"to_broadcaster_user_id": channelID},
		{"from_broadcaster_user_id": channelID},
	}
}

func subscriptionTable() []*subscriptionSpec {
	return []*subscriptionSpec{
		{"channel.follow", 2, broadcasterAndModerator, treatFollow},
		{"channel.subscribe", 1, broadcasterOnly, treatSubscribe},
		{"channel.subscription.gift", 1, broadcasterOnly, treatSubscriptionGift},
		{"channel.raid", 1, raidConditions, treatRaid},
		{"channel.channel_points_custom_reward_redemption.add", 1, broadcasterOnly, treatCustomRewardRedemption},
		{"channel.channel_points_automatic_reward_redemption.add", 2, broadcasterOnly, treatAutomaticRewardRedemption},
		{"channel.channel_points_custom_reward.add", 1, broadcasterOnly, treatRewardCreated},
		{"channel.channel_points_custom_reward.update", 1, broadcasterOnly, treatRewardUpdated},
		{"channel.channel_points_custom_reward.remove", 1, broadcasterOnly, treatRewardDeleted},
		{"stream.online", 1, broadcasterOnly, treatStreamOnline},
		{"stream.offline", 1, broadcasterOnly, treatStreamOffline},
		{"channel.shoutout.create", 1, broadcasterAndModerator, treatShoutoutCreate},
		{"channel.shoutout.receive", 1, broadcasterAndModerator, treatShoutoutReceive},
		{"channel.chat.message", 1, broadcasterAndUser, treatChatMessage},
		{"channel.chat.notification", 1, broadcasterAndUser, treatChatNotification},
		{"channel.chat.message_delete", 1, broadcasterAndUser, treatChatMessageDelete},
		{"channel.chat.clear", 1, broadcasterAndUser, treatChatClear},
		{"channel.chat.clear_user_messages", 1, broadcasterAndUser, treatChatClearUserMessages},
		{"automod.message.hold", 2, broadcasterAndModerator, treatAutomodHold},
		{"automod.message.update", 2, broadcasterAndModerator, treatAutomodUpdate},
		{"channel.shared_chat.begin", 1, broadcasterOnly, treatSharedChatBegin},
		{"channel.shared_chat.end", 1, broadcasterOnly, treatSharedChatEnd},
	}
}

// RegisterAll creates every subscription of the table against one session.
// A failed registration loses that one subscription, not the session; it is
// logged and the remaining table entries still register.
func (r *Registry) RegisterAll(ctx context.Context, registrar Registrar, sessionID string) {
	for _, spec := range r.specs {
		for _, cond := range spec.conditions(r.channelID) {
			if err := registrar.CreateSubscription(ctx, spec.name, spec.version, cond, sessionID); err != nil {
				r.log.Error("subscription registration failed", "type", spec.name, "session", sessionID, "error", err)
			}
		}
	}
}

// Dispatch routes one notification to its treatment. Unknown subscription
// types are surfaced through the handler untouched.
func (r *Registry) Dispatch(ctx context.Context, subType string, data EventData, raw string) {
	spec, ok := r.byName[subType]
	if !ok {
		r.handler.UnhandledEvent(subType, raw)
		return
	}
	spec.treat(ctx, r, data)
}
