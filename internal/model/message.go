package model

import "github.com/ModuloCorpse/TwitchCorpse/internal/richtext"

// ChatMessage is a fully rendered chat message ready for display.
type ChatMessage struct {
	ID                string
	Broadcaster       *User
	User              *User
	UserColor         string
	Highlight         bool
	AnnouncementColor string
	ReplyParentID     string
	Message           richtext.Text
}

// RewardRedemption identifies one redemption of a channel point reward.
type RewardRedemption struct {
	ID       string
	RewardID string
}
