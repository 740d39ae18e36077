// Package linkdetect classifies message text against the set of
// point-eligible link patterns and extracts the canonical link used
// for deduplication.
package linkdetect

import (
	"regexp"
	"strings"
)

// Kind is the classification of a message's link content
type Kind int

const (
	// KindNone means the message contains no eligible link
	KindNone Kind = iota
	// KindPaste means the message contains a paste-host link
	KindPaste
	// KindInvite means the message contains a Discord invite link
	KindInvite
)

// Paste hosts are matched case-insensitively; each pattern requires an
// id segment so bare host mentions do not count.
var pastePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)pastebin\.com/\w+`),
	regexp.MustCompile(`(?i)paste\.ee/\w+`),
	regexp.MustCompile(`(?i)hastebin\.com/\w+`),
	regexp.MustCompile(`(?i)ghostbin\.com/paste/\w+`),
	regexp.MustCompile(`(?i)dpaste\.com/\w+`),
	regexp.MustCompile(`(?i)paste\.ubuntu\.com/\w+`),
	regexp.MustCompile(`(?i)controlc\.com/\w+`),
	regexp.MustCompile(`(?i)privnote\.com/\w+`),
	regexp.MustCompile(`(?i)jpst\.it/\w+`),
	regexp.MustCompile(`(?i)rentry\.co/\w+`),
}

var invitePattern = regexp.MustCompile(`(?i)discord(?:\.gg|app\.com/invite)/[\w-]+`)

// Detect classifies the message text. Paste links win over invite
// links when both are present.
func Detect(text string) Kind {
	for _, p := range pastePatterns {
		if p.MatchString(text) {
			return KindPaste
		}
	}
	if invitePattern.MatchString(text) {
		return KindInvite
	}
	return KindNone
}

// Extract returns the canonical (lowercased) link for the given kind.
// The second return is false when no match is found, which callers
// treat as an integrity fault since Detect already saw a match.
func Extract(text string, kind Kind) (string, bool) {
	switch kind {
	case KindPaste:
		for _, p := range pastePatterns {
			if m := p.FindString(text); m != "" {
				return strings.ToLower(m), true
			}
		}
	case KindInvite:
		if m := invitePattern.FindString(text); m != "" {
			return strings.ToLower(m), true
		}
	}
	return "", false
}
