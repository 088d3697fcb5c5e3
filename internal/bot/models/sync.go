package models

import "time"

// Link associates a chat user with a web-application account.
type Link struct {
	TelegramID int64
	WebUserID  string
	CreatedAt  time.Time
}

// SyncStatus is what /sync_status reports. SharedEntries counts every row
// of the shared store, not only this user's.
type SyncStatus struct {
	LocalEntries  int
	SharedEntries int
	Linked        bool
	// CheckedAt is zero when the status could not be computed.
	CheckedAt time.Time
}

// WebUserID returns the deterministic web account reference for a chat user.
func WebUserID(telegramID int64) string {
	return "telegram_" + itoa(telegramID)
}
