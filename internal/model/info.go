package model

// ChannelInfo is the broadcaster-editable channel metadata.
type ChannelInfo struct {
	Broadcaster *User
	GameID      string
	GameName    string
	Title       string
	Language    string
}

// StreamInfo describes a live stream.
type StreamInfo struct {
	ID           string
	User         *User
	GameID       string
	GameName     string
	Title        string
	Language     string
	ThumbnailURL string
	Tags         []string
	ViewerCount  int
	IsMature     bool
}

// CategoryInfo is one entry of a category search.
type CategoryInfo struct {
	ID        string
	Name      string
	BoxArtURL string
}

// RewardInfo describes a channel point reward. Cooldown and per-stream
// limits use -1 for "none".
type RewardInfo struct {
	ID                    string
	Title                 string
	Prompt                string
	BackgroundColor       string
	Cost                  int
	GlobalCooldownSeconds int
	MaxPerStream          int
	MaxPerUserPerStream   int
	IsUserInputRequired   bool
	IsEnabled             bool
	IsPaused              bool
	IsInStock             bool
	SkipRequestQueue      bool
}
