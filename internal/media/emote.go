package media

// EmoteInfo is one chat emote with its artwork.
type EmoteInfo struct {
	ID        string
	Name      string
	EmoteType string
	Asset     *Asset
}

// BadgeInfo is one version of a badge set with its artwork.
type BadgeInfo struct {
	SetID       string
	ID          string
	Title       string
	Description string
	ClickAction string
	ClickURL    string
	Asset       *Asset
}
