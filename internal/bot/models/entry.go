package models

import "time"

// DateLayout is the calendar-day format used for Entry.Date in both stores.
const DateLayout = "2006-01-02"

// Entry is a single diary record owned by one user.
type Entry struct {
	// ID is assigned by the local store and unique within it.
	ID     int64
	UserID int64

	Title string
	// Content is the entry body; it may be empty.
	Content string
	// Date is the logical day of the entry, formatted with DateLayout.
	Date string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Stats summarises a user's diary.
type Stats struct {
	Total int
	// First and Last are empty when the user has no entries.
	First string
	Last  string
}

// SharedEntry is a row of the web application's entries table.
type SharedEntry struct {
	Title     string
	Content   string
	Date      string
	CreatedAt string
	UpdatedAt string
}
