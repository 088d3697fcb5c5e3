package models

import "strconv"

// ParseMode values understood by the chat platform.
const (
	ParseModeNone     = ""
	ParseModeMarkdown = "Markdown"
	ParseModeHTML     = "HTML"
)

// Update is one item of the transport's update feed, reduced to what the
// dispatcher needs. HasMessage is false for update kinds without a message
// (edits, callbacks); those are skipped but still advance the cursor.
type Update struct {
	UpdateID   int64
	HasMessage bool
	ChatID     int64
	Sender     Profile
	Text       string
}

// Reply is an outbound message produced by the dispatcher.
type Reply struct {
	ChatID    int64
	Text      string
	ParseMode string
}

// BotInfo identifies the bot account behind the credential.
type BotInfo struct {
	ID        int64
	Username  string
	FirstName string
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
