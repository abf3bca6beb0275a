package richtext

// Fragment kinds as they appear on the EventSub wire.
const (
	FragmentText      = "text"
	FragmentCheermote = "cheermote"
	FragmentEmote     = "emote"
	FragmentMention   = "mention"
)

// Fragment is one piece of an EventSub chat message payload.
type Fragment struct {
	Type string
	Text string

	// emote fragments
	EmoteID    string
	EmoteSetID string

	// cheermote fragments
	CheerPrefix string
	CheerBits   int

	// mention fragments
	MentionName string
}

// Span is one emote occurrence inside an IRC message body, in rune offsets,
// both bounds inclusive.
type Span struct {
	ID    string
	Start int
	End   int
}
