package main

// User represents a registered user.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
}

// Analysis is one classified submission. EmotionStats holds the JSON encoded
// label to probability mapping.
type Analysis struct {
	ID           int64
	UserID       int64
	Text         string
	EmotionStats string
}

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}
