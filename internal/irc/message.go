// Package irc implements the Twitch chat wire protocol: the tag-annotated
// message codec and the chat session running over it.
package irc

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ModuloCorpse/TwitchCorpse/internal/richtext"
)

// Tags Twitch sends that nothing downstream consumes.
var ignoredTags = map[string]bool{
	"client-nonce": true,
	"flags":        true,
}

// Message is one chat protocol message. Inbound messages carry the parsed
// tag groups; outbound ones usually only a command, channel and params.
type Message struct {
	Command string
	Channel string
	Nick    string
	Host    string
	Params  string

	Tags      map[string]string
	Badges    map[string]string
	BadgeInfo map[string]string
	EmoteSets []string
	Spans     []richtext.Span
	CapAck    bool
}

// New builds an outbound message.
func New(command, channel, params string) *Message {
	return &Message{Command: command, Channel: channel, Params: params}
}

// Tag returns the value of a plain tag, or "" when absent.
func (m *Message) Tag(name string) string { return m.Tags[name] }

// HasTag reports whether a plain tag is present.
func (m *Message) HasTag(name string) bool {
	_, ok := m.Tags[name]
	return ok
}

// HasBadge reports whether the sender wears a badge of the given set.
func (m *Message) HasBadge(set string) bool {
	_, ok := m.Badges[set]
	return ok
}

// BadgeVersion returns the worn version of a badge set, or "" when absent.
func (m *Message) BadgeVersion(set string) string { return m.Badges[set] }

func (m *Message) addSpan(s richtext.Span) {
	i := sort.Search(len(m.Spans), func(i int) bool {
		return m.Spans[i].Start > s.Start
	})
	m.Spans = append(m.Spans, richtext.Span{})
	copy(m.Spans[i+1:], m.Spans[i:])
	m.Spans[i] = s
}

// Parse decodes one CRLF-stripped protocol line. Malformed lines return nil;
// chat input is untrusted and a bad line is dropped, never fatal.
func Parse(line string) *Message {
	if line == "" {
		return nil
	}
	var rawTags, rawSource string
	if line[0] == '@' {
		i := strings.IndexByte(line, ' ')
		if i < 0 {
			return nil
		}
		rawTags = line[1:i]
		line = line[i+1:]
	}
	if line != "" && line[0] == ':' {
		i := strings.IndexByte(line, ' ')
		if i < 0 {
			return nil
		}
		rawSource = line[1:i]
		line = line[i+1:]
	}

	var rawCommand, params string
	if i := strings.IndexByte(line, ':'); i >= 0 {
		rawCommand = strings.TrimSpace(line[:i])
		params = line[i+1:]
	} else {
		rawCommand = strings.TrimSpace(line)
	}
	parts := strings.Split(rawCommand, " ")
	if len(parts) == 0 || parts[0] == "" {
		return nil
	}

	m := &Message{Params: params}
	switch parts[0] {
	case "PING", "GLOBALUSERSTATE", "RECONNECT":
		m.Command = parts[0]
	case "CAP":
		m.Command = "CAP"
		m.CapAck = len(parts) > 2 && parts[2] == "ACK"
	case "421":
		m.Command = "UNSUPPORTED"
		if len(parts) > 2 {
			m.Channel = parts[2]
		}
	case "001":
		m.Command = "LOGGED"
	case "353":
		m.Command = "USERLIST"
	default:
		m.Command = parts[0]
		if len(parts) > 1 {
			m.Channel = parts[1]
		}
	}

	if rawTags != "" {
		m.parseTags(rawTags)
	}
	if rawSource != "" {
		if nick, host, ok := strings.Cut(rawSource, "!"); ok {
			m.Nick = nick
			m.Host = host
		} else {
			m.Host = rawSource
		}
	}
	return m
}

func (m *Message) parseTags(rawTags string) {
	for _, tag := range strings.Split(rawTags, ";") {
		name, value, ok := strings.Cut(tag, "=")
		if !ok {
			continue
		}
		switch name {
		case "badges", "badge-info":
			if value == "" {
				continue
			}
			dst := make(map[string]string)
			for _, pair := range strings.Split(value, ",") {
				set, version, ok := strings.Cut(pair, "/")
				if ok {
					dst[set] = version
				}
			}
			if name == "badges" {
				m.Badges = dst
			} else {
				m.BadgeInfo = dst
			}
		case "emotes":
			if value == "" {
				continue
			}
			m.parseEmotes(value)
		case "emote-sets":
			m.EmoteSets = strings.Split(value, ",")
		default:
			if ignoredTags[name] {
				continue
			}
			if m.Tags == nil {
				m.Tags = make(map[string]string)
			}
			m.Tags[name] = value
		}
	}
}

func (m *Message) parseEmotes(value string) {
	for _, emote := range strings.Split(value, "/") {
		id, ranges, ok := strings.Cut(emote, ":")
		if !ok {
			continue
		}
		for _, pos := range strings.Split(ranges, ",") {
			rawStart, rawEnd, ok := strings.Cut(pos, "-")
			if !ok {
				continue
			}
			start, err1 := strconv.Atoi(rawStart)
			end, err2 := strconv.Atoi(rawEnd)
			if err1 != nil || err2 != nil {
				continue
			}
			m.addSpan(richtext.Span{ID: id, Start: start, End: end})
		}
	}
}

// String serializes the message for the wire, CRLF included.
func (m *Message) String() string {
	var sb strings.Builder
	if tags := m.tagBlock(); tags != "" {
		sb.WriteByte('@')
		sb.WriteString(tags)
		sb.WriteByte(' ')
	}
	sb.WriteString(m.Command)
	if m.Channel != "" {
		sb.WriteByte(' ')
		sb.WriteString(m.Channel)
	}
	if m.Params != "" {
		sb.WriteString(" :")
		sb.WriteString(m.Params)
	}
	sb.WriteString("\r\n")
	return sb.String()
}

func (m *Message) tagBlock() string {
	var groups []string
	if len(m.BadgeInfo) > 0 {
		groups = append(groups, "badge-info="+joinPairs(m.BadgeInfo))
	}
	if len(m.Badges) > 0 {
		groups = append(groups, "badges="+joinPairs(m.Badges))
	}
	for _, name := range sortedKeys(m.Tags) {
		groups = append(groups, name+"="+m.Tags[name])
	}
	if len(m.EmoteSets) > 0 {
		groups = append(groups, "emote-sets="+strings.Join(m.EmoteSets, ","))
	}
	return strings.Join(groups, ";")
}

// Redacted serializes the message for logging, masking the PASS credential.
func (m *Message) Redacted() string {
	if m.Command != "PASS" {
		return strings.TrimSuffix(m.String(), "\r\n")
	}
	masked := *m
	masked.Channel = "oauth:****"
	return strings.TrimSuffix(masked.String(), "\r\n")
}

func joinPairs(pairs map[string]string) string {
	parts := make([]string, 0, len(pairs))
	for _, k := range sortedKeys(pairs) {
		parts = append(parts, k+"/"+pairs[k])
	}
	return strings.Join(parts, ",")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
