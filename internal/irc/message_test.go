package irc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrivmsg(t *testing.T) {
	line := "@badge-info=subscriber/8;badges=subscriber/6,premium/1;color=#1e90ff;display-name=SomeUser;emotes=25:12-16/1902:5-9;flags=;client-nonce=abc;id=msg-1;mod=0;user-id=444;user-type= :someuser!someuser@someuser.tmi.twitch.tv PRIVMSG #channel :hello Keepo Kappa"
	m := Parse(line)
	require.NotNil(t, m)

	assert.Equal(t, "PRIVMSG", m.Command)
	assert.Equal(t, "#channel", m.Channel)
	assert.Equal(t, "someuser", m.Nick)
	assert.Equal(t, "someuser@someuser.tmi.twitch.tv", m.Host)
	assert.Equal(t, "hello Keepo Kappa", m.Params)

	assert.Equal(t, "SomeUser", m.Tag("display-name"))
	assert.Equal(t, "msg-1", m.Tag("id"))
	assert.Equal(t, "6", m.BadgeVersion("subscriber"))
	assert.True(t, m.HasBadge("premium"))
	assert.Equal(t, "8", m.BadgeInfo["subscriber"])

	assert.False(t, m.HasTag("client-nonce"))
	assert.False(t, m.HasTag("flags"))
}

func TestParseEmoteSpansSorted(t *testing.T) {
	line := "@emotes=25:12-16/1902:5-9,20-24 :u!h PRIVMSG #c :hello Keepo Kappa Keepo"
	m := Parse(line)
	require.NotNil(t, m)
	require.Len(t, m.Spans, 3)

	assert.Equal(t, "1902", m.Spans[0].ID)
	assert.Equal(t, 5, m.Spans[0].Start)
	assert.Equal(t, "25", m.Spans[1].ID)
	assert.Equal(t, 12, m.Spans[1].Start)
	assert.Equal(t, "1902", m.Spans[2].ID)
	assert.Equal(t, 20, m.Spans[2].Start)
	for i := 1; i < len(m.Spans); i++ {
		assert.Greater(t, m.Spans[i].Start, m.Spans[i-1].End)
	}
}

func TestParseCommandTable(t *testing.T) {
	m := Parse(":tmi.twitch.tv 001 nick :Welcome, GLHF!")
	require.NotNil(t, m)
	assert.Equal(t, "LOGGED", m.Command)

	m = Parse(":nick.tmi.twitch.tv 353 nick = #channel :alice bob carol")
	require.NotNil(t, m)
	assert.Equal(t, "USERLIST", m.Command)
	assert.Equal(t, "alice bob carol", m.Params)

	m = Parse(":tmi.twitch.tv 421 nick WHO :Unknown command")
	require.NotNil(t, m)
	assert.Equal(t, "UNSUPPORTED", m.Command)
	assert.Equal(t, "WHO", m.Channel)

	m = Parse(":tmi.twitch.tv CAP * ACK :twitch.tv/tags")
	require.NotNil(t, m)
	assert.True(t, m.CapAck)

	m = Parse("PING :tmi.twitch.tv")
	require.NotNil(t, m)
	assert.Equal(t, "PING", m.Command)
	assert.Empty(t, m.Channel)

	m = Parse(":tmi.twitch.tv RECONNECT")
	require.NotNil(t, m)
	assert.Equal(t, "RECONNECT", m.Command)
}

func TestParseEmoteSets(t *testing.T) {
	m := Parse("@emote-sets=0,33,50;color=#ff0000 :tmi.twitch.tv GLOBALUSERSTATE")
	require.NotNil(t, m)
	assert.Equal(t, []string{"0", "33", "50"}, m.EmoteSets)
	assert.Equal(t, "#ff0000", m.Tag("color"))
}

func TestParseMalformed(t *testing.T) {
	assert.Nil(t, Parse(""))
	assert.Nil(t, Parse("@badges=subscriber/6"))
	assert.Nil(t, Parse(":source.only"))
}

func TestSerializeParseRoundTrip(t *testing.T) {
	out := New("PRIVMSG", "#channel", "hello world")
	assert.Equal(t, "PRIVMSG #channel :hello world\r\n", out.String())

	back := Parse("PRIVMSG #channel :hello world")
	require.NotNil(t, back)
	assert.Equal(t, out.Command, back.Command)
	assert.Equal(t, out.Channel, back.Channel)
	assert.Equal(t, out.Params, back.Params)
}

func TestRedactedMasksPassToken(t *testing.T) {
	m := New("PASS", "oauth:supersecrettoken", "")
	assert.NotContains(t, m.Redacted(), "supersecrettoken")
	assert.Contains(t, m.String(), "supersecrettoken")
}

func TestLineBufferChunkedReads(t *testing.T) {
	var b LineBuffer
	assert.Empty(t, b.Push("PING :tmi"))
	lines := b.Push(".twitch.tv\r\nPRIVMSG #c :hi\r\nPART")
	require.Len(t, lines, 2)
	assert.Equal(t, "PING :tmi.twitch.tv", lines[0])
	assert.Equal(t, "PRIVMSG #c :hi", lines[1])

	lines = b.Push(" #c\r\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "PART #c", lines[0])
}
