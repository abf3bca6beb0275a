// Package monitor renders channel events to the log. It is the default
// model.Handler used by the monitor command.
package monitor

import (
	"context"

	"github.com/ModuloCorpse/TwitchCorpse/internal/logger"
	"github.com/ModuloCorpse/TwitchCorpse/internal/model"
	"github.com/ModuloCorpse/TwitchCorpse/internal/richtext"
)

// Handler logs every channel event it receives.
type Handler struct {
	log *logger.Logger
}

// New builds a logging event handler.
func New(log *logger.Logger) *Handler {
	return &Handler{log: log}
}

func userName(user *model.User) string {
	if user == nil {
		return "anonymous"
	}
	if user.DisplayName != "" {
		return user.DisplayName
	}
	return user.Login
}

func (h *Handler) OnChatJoined() {
	h.log.Event(context.Background(), logger.EventChatJoined, "joined chat")
}

func (h *Handler) OnUserJoinChat(user *model.User) {
	h.log.Event(context.Background(), logger.EventUserJoin, "user joined chat", "user", userName(user))
}

func (h *Handler) OnChatMessage(msg *model.ChatMessage) {
	args := []any{"user", userName(msg.User), "id", msg.ID}
	if msg.UserColor != "" {
		args = append(args, "color", msg.UserColor)
	}
	if msg.Highlight {
		args = append(args, "highlight", true)
	}
	if msg.AnnouncementColor != "" {
		args = append(args, "announcement", msg.AnnouncementColor)
	}
	if msg.ReplyParentID != "" {
		args = append(args, "reply_to", msg.ReplyParentID)
	}
	h.log.Event(context.Background(), logger.EventChatMessage, msg.Message.String(), args...)
}

func (h *Handler) OnChatMessageRemoved(messageID string) {
	h.log.Info("chat message removed", "id", messageID)
}

func (h *Handler) OnChatUserRemoved(userID string) {
	h.log.Info("chat user banned or timed out", "user_id", userID)
}

func (h *Handler) OnChatClear() {
	h.log.Info("chat cleared")
}

func (h *Handler) OnBits(user *model.User, bits int, message richtext.Text) {
	h.log.Event(context.Background(), logger.EventBits, message.String(), "user", userName(user), "bits", bits)
}

func (h *Handler) OnFollow(user *model.User) {
	h.log.Event(context.Background(), logger.EventFollow, "new follower", "user", userName(user))
}

func (h *Handler) OnSub(user *model.User, tier int, isGift bool) {
	h.log.Event(context.Background(), logger.EventSub, "new subscriber", "user", userName(user), "tier", tier, "gifted", isGift)
}

func (h *Handler) OnGiftSub(gifter *model.User, tier, count int) {
	h.log.Event(context.Background(), logger.EventGiftSub, "subs gifted to the community", "user", userName(gifter), "tier", tier, "count", count)
}

func (h *Handler) OnSharedSub(user *model.User, tier, monthTotal, monthStreak int, message richtext.Text) {
	args := []any{"user", userName(user), "tier", tier, "months", monthTotal}
	if monthStreak >= 0 {
		args = append(args, "streak", monthStreak)
	}
	h.log.Event(context.Background(), logger.EventSub, message.String(), args...)
}

func (h *Handler) OnSharedGiftSub(gifter, recipient *model.User, tier, monthTotal, monthGifted int, message richtext.Text) {
	h.log.Event(context.Background(), logger.EventGiftSub, message.String(),
		"user", userName(gifter), "target", userName(recipient), "tier", tier, "months", monthTotal, "gifted", monthGifted)
}

func (h *Handler) OnReward(user *model.User, reward, input string) {
	h.log.Event(context.Background(), logger.EventReward, "reward redeemed", "user", userName(user), "reward", reward, "input", input)
}

func (h *Handler) OnRewardClaimed(user *model.User, redemption model.RewardRedemption, input richtext.Text) {
	h.log.Event(context.Background(), logger.EventReward, "reward claimed",
		"user", userName(user), "reward", redemption.RewardID, "redemption", redemption.ID, "input", input.String())
}

func (h *Handler) OnRewardCreated(reward *model.RewardInfo) {
	h.log.Info("reward created", "reward", reward.Title, "cost", reward.Cost)
}

func (h *Handler) OnRewardUpdated(reward *model.RewardInfo) {
	h.log.Info("reward updated", "reward", reward.Title, "cost", reward.Cost)
}

func (h *Handler) OnRewardDeleted(rewardID string) {
	h.log.Info("reward deleted", "reward", rewardID)
}

func (h *Handler) OnRaided(from *model.User, viewers int) {
	h.log.Event(context.Background(), logger.EventRaidIn, "incoming raid", "user", userName(from), "viewers", viewers)
}

func (h *Handler) OnRaiding(to *model.User, viewers int) {
	h.log.Event(context.Background(), logger.EventRaidOut, "raiding out", "target", userName(to), "viewers", viewers)
}

func (h *Handler) OnStreamStart() {
	h.log.Event(context.Background(), logger.EventStreamOnline, "stream started")
}

func (h *Handler) OnStreamStop() {
	h.log.Event(context.Background(), logger.EventStreamOffline, "stream stopped")
}

func (h *Handler) OnShoutout(moderator, target *model.User) {
	h.log.Event(context.Background(), logger.EventShoutoutOut, "shoutout sent", "user", userName(moderator), "target", userName(target))
}

func (h *Handler) OnBeingShoutout(from *model.User) {
	h.log.Event(context.Background(), logger.EventShoutoutIn, "received a shoutout", "user", userName(from))
}

func (h *Handler) OnMessageHeld(user *model.User, messageID string, message richtext.Text) {
	h.log.Event(context.Background(), logger.EventAutomodHeld, message.String(), "user", userName(user), "id", messageID)
}

func (h *Handler) OnHeldMessageTreated(messageID string) {
	h.log.Info("held message resolved", "id", messageID)
}

func (h *Handler) OnSharedChatStart() {
	h.log.Event(context.Background(), logger.EventSharedChat, "shared chat session started")
}

func (h *Handler) OnSharedChatStop() {
	h.log.Event(context.Background(), logger.EventSharedChat, "shared chat session ended")
}

func (h *Handler) UnhandledEvent(eventType, raw string) {
	h.log.Debug("unhandled event", "type", eventType, "payload", raw)
}
