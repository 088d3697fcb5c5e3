package dispatcher

import (
	"strings"
	"unicode/utf8"
)

const (
	// MaxMessageLen is the platform's per-message limit, counted in runes.
	MaxMessageLen = 4000

	titleLen        = 30
	suggestQuoteLen = 50
	ellipsis        = "..."
)

// Truncate keeps the first n runes of s and appends "..." when anything was cut.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + ellipsis
}

// DeriveEntry turns a free-text message into a title and body. Text is split
// on the first "|". Without a delimiter the title is a truncated copy of the
// text and the body is the text itself. An empty title falls back to the
// truncated body.
func DeriveEntry(text string) (title, body string) {
	if before, after, found := strings.Cut(text, "|"); found {
		title = strings.TrimSpace(before)
		body = strings.TrimSpace(after)
		if title == "" {
			title = Truncate(body, titleLen)
		}
		return title, body
	}
	return Truncate(text, titleLen), text
}

// SplitMessage cuts text into chunks of at most limit runes, preserving
// order. A chunk ends at the last newline inside the window when there is
// one; the newline stays with the chunk it ends.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLen
	}
	r := []rune(text)
	if len(r) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(r) > limit {
		cut := limit
		for i := limit - 1; i > 0; i-- {
			if r[i] == '\n' {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, string(r[:cut]))
		r = r[cut:]
	}
	if len(r) > 0 {
		chunks = append(chunks, string(r))
	}
	return chunks
}
