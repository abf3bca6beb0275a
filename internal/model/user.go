// Package model holds the data types exchanged between the wire layers and
// the application handler.
package model

import "github.com/ModuloCorpse/TwitchCorpse/internal/media"

// UserRank orders the privilege levels Twitch exposes for a chat user.
type UserRank int

const (
	RankViewer UserRank = iota
	RankModerator
	RankGlobalModerator
	RankAdmin
	RankStaff
	RankBroadcaster
	RankSelf
)

// User identifies a Twitch account as seen in chat or in an event payload.
// Badges are only populated on the chat paths, where the tags carry them.
type User struct {
	ID          string
	Login       string
	DisplayName string
	Rank        UserRank
	Badges      []*media.BadgeInfo
}
