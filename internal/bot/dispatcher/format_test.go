package dispatcher

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 30))
	assert.Equal(t, strings.Repeat("a", 30), Truncate(strings.Repeat("a", 30), 30))
	assert.Equal(t, strings.Repeat("a", 30)+"...", Truncate(strings.Repeat("a", 31), 30))
	assert.Equal(t, "привет...", Truncate("привет мир", 6))
}

func TestDeriveEntry(t *testing.T) {
	fifty := strings.Repeat("abcde", 10)

	tests := []struct {
		name      string
		in        string
		wantTitle string
		wantBody  string
	}{
		{"delimiter", "My title | My body", "My title", "My body"},
		{"first delimiter only", "a | b | c", "a", "b | c"},
		{"empty body", "Title |", "Title", ""},
		{"no delimiter short", "just a note", "just a note", "just a note"},
		{"no delimiter long", fifty, fifty[:30] + "...", fifty},
		{"empty title falls back to body", " | " + fifty, fifty[:30] + "...", fifty},
		{"both empty", "|", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body := DeriveEntry(tt.in)
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestSplitMessage_Short(t *testing.T) {
	assert.Equal(t, []string{"hello"}, SplitMessage("hello", 10))
}

func TestSplitMessage_PrefersNewline(t *testing.T) {
	text := "line one\nline two\nline three"
	chunks := SplitMessage(text, 12)

	assert.Equal(t, text, strings.Join(chunks, ""))
	assert.Equal(t, "line one\n", chunks[0])
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 12)
	}
}

func TestSplitMessage_HardCutWithoutNewline(t *testing.T) {
	text := strings.Repeat("я", 9001)
	chunks := SplitMessage(text, MaxMessageLen)

	require.Len(t, chunks, 3)
	assert.Equal(t, MaxMessageLen, utf8.RuneCountInString(chunks[0]))
	assert.Equal(t, MaxMessageLen, utf8.RuneCountInString(chunks[1]))
	assert.Equal(t, 1001, utf8.RuneCountInString(chunks[2]))
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in    string
		cmd   string
		args  string
		isCmd bool
	}{
		{"/start", "start", "", true},
		{"/START", "start", "", true},
		{"/search  good day ", "search", "good day", true},
		{"/entries@diary_bot", "entries", "", true},
		{"/start auth_abc", "start", "auth_abc", true},
		{"/edit\n5 title", "edit", "5 title", true},
		{"hello /start", "", "", false},
		{"plain", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cmd, args, ok := ParseCommand(tt.in)
			assert.Equal(t, tt.isCmd, ok)
			assert.Equal(t, tt.cmd, cmd)
			assert.Equal(t, tt.args, args)
		})
	}
}
