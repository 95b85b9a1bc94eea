package models

import "time"

// User is created on first successful sign-in for a Farcaster id and
// never deleted. DisplayName/DisplayImage are best-effort hub data.
type User struct {
	ID           int64
	Fid          int64
	DisplayName  *string
	DisplayImage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Session struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Nonce is a single-use anti-replay token minted before identity
// verification. It is deleted the first time a verification attempt
// reads it, whatever the outcome of that attempt.
type Nonce struct {
	Nonce     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
