// Package models defines the data types shared by the bot's stores,
// services, dispatcher and transports.
package models

import "time"

// Profile is the sender information the chat platform attaches to a message.
// Only ID is guaranteed; the name fields are informational.
type Profile struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// User is a registered chat user as persisted in the local store.
type User struct {
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
	CreatedAt  time.Time
	LastActive time.Time
}
