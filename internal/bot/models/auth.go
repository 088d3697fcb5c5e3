package models

// AuthLink is a one-time sign-in link issued by the web application.
type AuthLink struct {
	URL       string
	ExpiresAt string
}
