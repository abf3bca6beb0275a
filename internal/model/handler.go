package model

import "github.com/ModuloCorpse/TwitchCorpse/internal/richtext"

// Handler receives every decoded channel event. Both the chat session and
// the event sessions call into it; implementations must tolerate concurrent
// calls.
type Handler interface {
	OnChatJoined()
	OnUserJoinChat(user *User)
	OnChatMessage(msg *ChatMessage)
	OnChatMessageRemoved(messageID string)
	OnChatUserRemoved(userID string)
	OnChatClear()

	OnBits(user *User, bits int, message richtext.Text)
	OnFollow(user *User)
	OnSub(user *User, tier int, isGift bool)
	OnGiftSub(gifter *User, tier, count int)
	OnSharedSub(user *User, tier, monthTotal, monthStreak int, message richtext.Text)
	OnSharedGiftSub(gifter, recipient *User, tier, monthTotal, monthGifted int, message richtext.Text)

	OnReward(user *User, reward, input string)
	OnRewardClaimed(user *User, redemption RewardRedemption, input richtext.Text)
	OnRewardCreated(reward *RewardInfo)
	OnRewardUpdated(reward *RewardInfo)
	OnRewardDeleted(rewardID string)

	OnRaided(from *User, viewers int)
	OnRaiding(to *User, viewers int)
	OnStreamStart()
	OnStreamStop()
	OnShoutout(moderator, target *User)
	OnBeingShoutout(from *User)

	OnMessageHeld(user *User, messageID string, message richtext.Text)
	OnHeldMessageTreated(messageID string)
	OnSharedChatStart()
	OnSharedChatStop()

	UnhandledEvent(eventType, raw string)
}
