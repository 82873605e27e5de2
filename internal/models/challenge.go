package models

import (
	"time"

	"keymoji/internal/challenge"
)

// Challenge is a pending login challenge: the server-side state behind the
// signed ticket cookie a user carries between the password check and the
// final grid round.
type Challenge struct {
	ID        string
	Username  string
	State     *challenge.Session
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired checks if the challenge has expired.
func (c *Challenge) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// SignupDraft is a pending registration. The account row is only written
// when the user confirms the assigned emojis; until then the draft holds the
// hashed credential and, once drawn, the three secrets.
type SignupDraft struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	GridSize     int
	Round1Emoji  string
	Round2Emoji  string
	TrustEmoji   string
	// PracticeOffset is the add rule shown on the confirmation screen so the
	// user can rehearse the arithmetic before their first real login.
	PracticeOffset int
	OAuthProvider  string
	OAuthSubject   string
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

// HasAssignment reports whether the emoji secrets were already drawn for
// this draft.
func (d *SignupDraft) HasAssignment() bool {
	return d.Round1Emoji != "" && d.Round2Emoji != "" && d.TrustEmoji != ""
}

// IsExpired checks if the draft has expired.
func (d *SignupDraft) IsExpired() bool {
	return time.Now().After(d.ExpiresAt)
}
