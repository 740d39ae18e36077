package linkdetect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPasteHosts(t *testing.T) {
	cases := []string{
		"check this out https://pastebin.com/AbC123",
		"https://paste.ee/p/xyz99",
		"paste.ee/xyz789",
		"hastebin.com/okonomiyaki",
		"ghostbin.com/paste/abc",
		"https://dpaste.com/XK2L9",
		"paste.ubuntu.com/p/qqq",
		"paste.ubuntu.com/123456",
		"see controlc.com/deadbeef",
		"privnote.com/note1",
		"jpst.it/a1b2",
		"rentry.co/mypaste",
	}
	for _, text := range cases {
		assert.Equal(t, KindPaste, Detect(text), "text: %s", text)
	}
}

func TestDetectInvite(t *testing.T) {
	assert.Equal(t, KindInvite, Detect("join us discord.gg/abc-123"))
	assert.Equal(t, KindInvite, Detect("https://discordapp.com/invite/xyz"))
}

func TestDetectNone(t *testing.T) {
	assert.Equal(t, KindNone, Detect("hello world"))
	assert.Equal(t, KindNone, Detect("https://example.com/pastebin"))
	// Bare host without an id segment is not a link to content
	assert.Equal(t, KindNone, Detect("I like pastebin.com a lot"))
}

func TestPasteWinsOverInvite(t *testing.T) {
	text := "pastebin.com/abc and discord.gg/xyz"
	assert.Equal(t, KindPaste, Detect(text))
}

func TestDetectCaseInsensitive(t *testing.T) {
	assert.Equal(t, KindPaste, Detect("PASTEBIN.COM/AbC123"))
	assert.Equal(t, KindInvite, Detect("DISCORD.GG/Server"))
}

func TestExtractNormalizesCase(t *testing.T) {
	link, ok := Extract("see https://Pastebin.com/AbC123 now", KindPaste)
	assert.True(t, ok)
	assert.Equal(t, "pastebin.com/abc123", link)
}

func TestExtractInvite(t *testing.T) {
	link, ok := Extract("Discord.GG/My-Server", KindInvite)
	assert.True(t, ok)
	assert.Equal(t, "discord.gg/my-server", link)
}

func TestExtractNoMatch(t *testing.T) {
	_, ok := Extract("no links here", KindPaste)
	assert.False(t, ok)
	_, ok = Extract("no links here", KindInvite)
	assert.False(t, ok)
	_, ok = Extract("pastebin.com/abc", KindNone)
	assert.False(t, ok)
}
