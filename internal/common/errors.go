// Package common defines sentinel errors shared across the bot's layers.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Configuration errors; fatal at startup only.
	ErrMissingToken     = errors.New("bot token is not set")
	ErrPlaceholderToken = errors.New("bot token is a placeholder value")

	// Input errors, answered to the user directly.
	ErrEmptyTitle  = errors.New("entry title is empty")
	ErrInvalidDate = errors.New("entry date is not YYYY-MM-DD")

	// Web auth bridge errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrBridge       = errors.New("web auth bridge error")
)
