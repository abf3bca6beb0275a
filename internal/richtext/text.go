// Package richtext turns Twitch message payloads into renderable rich text:
// an ordered list of literal runs and image segments.
package richtext

import "strings"

// SegmentKind discriminates the segment variants of a Text.
type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentImage
	SegmentAnimatedImage
)

// Segment is one run of a rich text value. Image segments keep the alt text
// of the asset they display.
type Segment struct {
	Kind SegmentKind
	Text string
	URL  string
}

// Text is an ordered sequence of segments.
type Text struct {
	segments []Segment
}

// AddText appends a literal run. Empty runs are dropped.
func (t *Text) AddText(s string) {
	if s == "" {
		return
	}
	t.segments = append(t.segments, Segment{Kind: SegmentText, Text: s})
}

// AddImage appends a static image segment.
func (t *Text) AddImage(url, alt string) {
	t.segments = append(t.segments, Segment{Kind: SegmentImage, Text: alt, URL: url})
}

// AddAnimatedImage appends an animated image segment.
func (t *Text) AddAnimatedImage(url, alt string) {
	t.segments = append(t.segments, Segment{Kind: SegmentAnimatedImage, Text: alt, URL: url})
}

// Segments returns the segments in order.
func (t *Text) Segments() []Segment { return t.segments }

// String flattens the text for logging, substituting alt text for images.
func (t *Text) String() string {
	var sb strings.Builder
	for _, s := range t.segments {
		sb.WriteString(s.Text)
	}
	return sb.String()
}
