package media

import "context"

// Loader fetches catalog entries from the Twitch API on cache miss.
type Loader interface {
	FetchEmoteSet(ctx context.Context, setID string) ([]*EmoteInfo, error)
	FetchGlobalEmotes(ctx context.Context) ([]*EmoteInfo, error)
	FetchGlobalBadges(ctx context.Context) ([]*BadgeInfo, error)
	FetchChannelBadges(ctx context.Context, broadcasterID string) ([]*BadgeInfo, error)
	FetchCheermotes(ctx context.Context, broadcasterID string) ([]*Cheermote, error)
}
